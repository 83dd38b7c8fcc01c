package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gwebsocket "github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"live-temp-dashboard/internal/auth"
	"live-temp-dashboard/internal/config"
	"live-temp-dashboard/internal/dashboard"
	"live-temp-dashboard/internal/metrics"
	"live-temp-dashboard/internal/telemetry"
	"live-temp-dashboard/internal/websocket"
	"live-temp-dashboard/web"
)

type fracSource struct {
	vals []float64
	i    int
}

func (s *fracSource) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

type fixedClock struct{}

func (fixedClock) Now() time.Time { return time.Date(2024, 10, 15, 10, 11, 12, 0, time.Local) }

type env struct {
	srv      *httptest.Server
	registry *dashboard.Registry
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Port = 8080
	cfg.Telemetry.Interval = time.Hour
	cfg.Dashboards = []config.Dashboard{
		{Key: "basic", Title: "Live Data (Basic)", Heading: "Antarctic Explorer", Caption: "Warmer than usual",
			Capacity: 1, Range: telemetry.Range{Lo: -18, Hi: -16}},
		{Key: "custom", Title: "Custom Live Data Dashboard", Heading: "Real-Time Data Explorer",
			Capacity: 10, Range: telemetry.Range{Lo: -10, Hi: 35}, UnitSelect: true, Table: true, Trend: true},
	}
	return cfg
}

func setup(t *testing.T, am *auth.AuthManager) *env {
	t.Helper()
	m := metrics.New()
	reg := dashboard.NewRegistry(testConfig(), dashboard.Options{
		Source:  &fracSource{vals: []float64{0.5, 0.6}},
		Clock:   fixedClock{},
		Metrics: m,
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	for _, d := range reg.All() {
		go d.Hub.Run(ctx)
	}

	h, err := NewAPIHandler(reg, web.Assets, nil)
	require.NoError(t, err)
	var guard Middleware
	if am != nil {
		guard = am.Middleware
	}
	srv := httptest.NewServer(SetupRouter(h, guard, m.Handler()))
	t.Cleanup(srv.Close)
	return &env{srv: srv, registry: reg}
}

func (e *env) tick(t *testing.T, key string, n int) {
	t.Helper()
	d, ok := e.registry.Get(key)
	require.True(t, ok)
	for i := 0; i < n; i++ {
		d.Scheduler.Step()
	}
}

func get(t *testing.T, url string, header ...string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestLatestBeforeFirstTick(t *testing.T) {
	e := setup(t, nil)
	code, body := get(t, e.srv.URL+"/api/dashboards/custom/latest")
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Contains(t, body, "no data yet")
}

func TestLatestUnits(t *testing.T) {
	e := setup(t, nil)
	e.tick(t, "custom", 1)

	code, body := get(t, e.srv.URL+"/api/dashboards/custom/latest?unit=Fahrenheit")
	require.Equal(t, http.StatusOK, code)
	var resp struct {
		Seq       uint64  `json:"seq"`
		Unit      string  `json:"unit"`
		Value     float64 `json:"value"`
		Display   string  `json:"display"`
		Timestamp string  `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	// 0.5 of [-10, 35] is 12.5 °C.
	require.Equal(t, uint64(1), resp.Seq)
	require.Equal(t, "Fahrenheit", resp.Unit)
	require.Equal(t, 54.5, resp.Value)
	require.Equal(t, "54.5 °F", resp.Display)
	require.Equal(t, "2024-10-15 10:11:12", resp.Timestamp)

	code, _ = get(t, e.srv.URL+"/api/dashboards/custom/latest?unit=Rankine")
	require.Equal(t, http.StatusBadRequest, code)
}

func TestUnknownDashboard(t *testing.T) {
	e := setup(t, nil)
	code, body := get(t, e.srv.URL+"/api/dashboards/nope/readings")
	require.Equal(t, http.StatusNotFound, code)
	require.Contains(t, body, "unknown dashboard")
	code, _ = get(t, e.srv.URL+"/dashboards/nope")
	require.Equal(t, http.StatusNotFound, code)
}

func TestReadingsAndCSV(t *testing.T) {
	e := setup(t, nil)
	e.tick(t, "custom", 3)

	code, body := get(t, e.srv.URL+"/api/dashboards/custom/readings")
	require.Equal(t, http.StatusOK, code)
	var table dashboard.TableView
	require.NoError(t, json.Unmarshal([]byte(body), &table))
	require.Equal(t, []string{"temp_celsius", "temp_fahrenheit", "temp_kelvin", "timestamp"}, table.Columns)
	require.Len(t, table.Rows, 3)
	require.Equal(t, []string{"12.5", "54.5", "285.7", "2024-10-15 10:11:12"}, table.Rows[0])

	code, body = get(t, e.srv.URL+"/api/dashboards/custom/readings.csv")
	require.Equal(t, http.StatusOK, code)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "temp_celsius,temp_fahrenheit,temp_kelvin,timestamp", lines[0])
}

func TestTrend(t *testing.T) {
	e := setup(t, nil)

	code, body := get(t, e.srv.URL+"/api/dashboards/custom/trend")
	require.Equal(t, http.StatusOK, code)
	var chart dashboard.TrendChart
	require.NoError(t, json.Unmarshal([]byte(body), &chart))
	require.True(t, chart.NoData)
	require.Equal(t, dashboard.NoDataTitle, chart.Title)

	e.tick(t, "custom", 4)
	_, body = get(t, e.srv.URL+"/api/dashboards/custom/trend")
	chart = dashboard.TrendChart{}
	require.NoError(t, json.Unmarshal([]byte(body), &chart))
	require.False(t, chart.NoData)
	require.Len(t, chart.Regression, 4)
	require.Len(t, chart.Celsius, 4)
	require.NotNil(t, chart.Line)
}

func TestListDashboards(t *testing.T) {
	e := setup(t, nil)
	code, body := get(t, e.srv.URL+"/api/dashboards")
	require.Equal(t, http.StatusOK, code)
	var infos []dashboard.Info
	require.NoError(t, json.Unmarshal([]byte(body), &infos))
	require.Len(t, infos, 2)
	require.Equal(t, "basic", infos[0].Key)
	require.Equal(t, 1, infos[0].Capacity)
	require.True(t, infos[1].Trend)
}

func TestPages(t *testing.T) {
	e := setup(t, nil)
	e.tick(t, "basic", 1)

	code, body := get(t, e.srv.URL+"/")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "Custom Live Data Dashboard")

	code, body = get(t, e.srv.URL+"/dashboards/basic")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "Antarctic Explorer")
	require.Contains(t, body, "Warmer than usual")
	require.Contains(t, body, "-17.0 C")

	code, body = get(t, e.srv.URL+"/dashboards/custom")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `value="Fahrenheit"`)
	require.Contains(t, body, "Temperature Trends")

	code, _ = get(t, e.srv.URL+"/static/app.js")
	require.Equal(t, http.StatusOK, code)
}

func TestHealthAndMetrics(t *testing.T) {
	e := setup(t, nil)
	e.tick(t, "custom", 2)
	code, _ := get(t, e.srv.URL+"/healthz")
	require.Equal(t, http.StatusOK, code)
	code, body := get(t, e.srv.URL+"/metrics")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `dashboard_ticks_total{dashboard="custom"} 2`)
}

func TestAPIGuard(t *testing.T) {
	e := setup(t, auth.NewAuthManager(auth.Config{APIKeys: []string{"k"}}))
	code, _ := get(t, e.srv.URL+"/api/dashboards")
	require.Equal(t, http.StatusUnauthorized, code)
	code, _ = get(t, e.srv.URL+"/api/dashboards", "X-API-Key", "k")
	require.Equal(t, http.StatusOK, code)
	// Pages and the CSV download they link to stay public.
	code, _ = get(t, e.srv.URL+"/")
	require.Equal(t, http.StatusOK, code)
	code, _ = get(t, e.srv.URL+"/api/dashboards/custom/readings.csv")
	require.Equal(t, http.StatusUnauthorized, code)
	e.tick(t, "custom", 2)
	code, body := get(t, e.srv.URL+"/dashboards/custom/readings.csv")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, strings.Split(strings.TrimSpace(body), "\n"), 3)

	code, body = get(t, e.srv.URL+"/dashboards/custom")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `href="/dashboards/custom/readings.csv"`)
}

func TestAPIRequestLogsTokenSubject(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	am := auth.NewAuthManager(auth.Config{JWTSecret: "s3cret", JWTIssuer: "test"})
	token, err := am.GenerateJWT("grafana", time.Minute)
	require.NoError(t, err)

	reg := dashboard.NewRegistry(testConfig(), dashboard.Options{Logger: log})
	h, err := NewAPIHandler(reg, web.Assets, log)
	require.NoError(t, err)
	srv := httptest.NewServer(SetupRouter(h, am.Middleware, nil))
	t.Cleanup(srv.Close)

	code, _ := get(t, srv.URL+"/api/dashboards", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, buf.String(), "subject=grafana")
	require.Contains(t, buf.String(), "path=/api/dashboards")
}

func TestAPIReadsKeepIdleDashboardTicking(t *testing.T) {
	cfg := testConfig()
	cfg.Telemetry.Interval = 20 * time.Millisecond
	m := metrics.New()
	reg := dashboard.NewRegistry(cfg, dashboard.Options{
		Clock:       fixedClock{},
		SuspendIdle: true,
		IdleGrace:   time.Minute,
		Metrics:     m,
	})
	h, err := NewAPIHandler(reg, web.Assets, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(SetupRouter(h, nil, m.Handler()))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reg.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	custom, _ := reg.Get("custom")
	// Without any reader the scheduler skips every tick.
	require.Eventually(t, func() bool {
		_, body := get(t, srv.URL+"/metrics")
		return strings.Contains(body, `dashboard_ticks_skipped_total{dashboard="custom"}`)
	}, 2*time.Second, 10*time.Millisecond)
	_, ok := custom.Feed.Current()
	require.False(t, ok)

	code, body := get(t, srv.URL+"/api/dashboards/custom/latest?unit=Kelvin")
	require.Equal(t, http.StatusOK, code, body)
	require.Contains(t, body, `"unit":"Kelvin"`)

	// The read keeps the dashboard live for the grace period.
	first, _ := custom.Feed.Current()
	require.Eventually(t, func() bool {
		f, _ := custom.Feed.Current()
		return f.Seq > first.Seq+2
	}, 2*time.Second, 10*time.Millisecond)

	code, body = get(t, srv.URL+"/api/dashboards/custom/trend")
	require.Equal(t, http.StatusOK, code)
	var chart dashboard.TrendChart
	require.NoError(t, json.Unmarshal([]byte(body), &chart))
	require.False(t, chart.NoData)

	// The basic dashboard was never read and stays idle.
	basic, _ := reg.Get("basic")
	_, ok = basic.Feed.Current()
	require.False(t, ok)
}

func TestWebSocketHistoryThenFrames(t *testing.T) {
	e := setup(t, nil)
	e.tick(t, "custom", 1)

	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws/custom"
	conn, _, err := gwebsocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() (string, dashboard.View) {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg struct {
			Type    string         `json:"type"`
			Payload dashboard.View `json:"payload"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		return msg.Type, msg.Payload
	}

	typ, v := read()
	require.Equal(t, websocket.TypeHistory, typ)
	require.Equal(t, uint64(1), v.Seq)

	d, _ := e.registry.Get("custom")
	require.Eventually(t, func() bool { return d.Hub.ObserverCount() == 1 }, time.Second, 5*time.Millisecond)
	e.tick(t, "custom", 1)

	typ, v = read()
	require.Equal(t, websocket.TypeFrame, typ)
	require.Equal(t, uint64(2), v.Seq)
	require.Equal(t, "62.6 °F", v.Live["Fahrenheit"].Display)
	require.Len(t, v.Table.Rows, 2)
}
