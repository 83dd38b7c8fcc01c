// internal/dashboard/dashboard.go

// Package dashboard binds a telemetry feed to the views and clients of one
// dashboard page.
package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"live-temp-dashboard/internal/alerting"
	"live-temp-dashboard/internal/anomaly"
	"live-temp-dashboard/internal/config"
	"live-temp-dashboard/internal/data"
	"live-temp-dashboard/internal/metrics"
	"live-temp-dashboard/internal/storage"
	"live-temp-dashboard/internal/telemetry"
	"live-temp-dashboard/internal/websocket"
)

// Link is a sidebar link.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Info is the static description of a dashboard.
type Info struct {
	Key         string          `json:"key"`
	Title       string          `json:"title"`
	Heading     string          `json:"heading"`
	Description string          `json:"description"`
	Caption     string          `json:"caption,omitempty"`
	Capacity    int             `json:"capacity"`
	Range       telemetry.Range `json:"range"`
	IntervalMS  int64           `json:"interval_ms"`
	UnitSelect  bool            `json:"unit_select"`
	Table       bool            `json:"table"`
	Trend       bool            `json:"trend"`
	Units       []data.Unit     `json:"units,omitempty"`
	Links       []Link          `json:"links,omitempty"`
}

// Dashboard is one running dashboard: its feed, its clients and the view of
// the last tick.
type Dashboard struct {
	Info
	Feed      *telemetry.Feed
	Hub       *websocket.Hub
	Scheduler *telemetry.Scheduler

	detector *anomaly.Detector
	alerter  *alerting.Alerter
	metrics  *metrics.Metrics
	view     atomic.Pointer[View]
	log      *slog.Logger

	suspendIdle bool
	grace       time.Duration
	lastRead    atomic.Int64 // unix nanos of the last API read
	ready       chan struct{}
	once        sync.Once
}

// readyWait bounds how long a read waits for the first frame after waking
// an idle scheduler.
const readyWait = 2 * time.Second

// Options carries the process-wide pieces shared by all dashboards.
type Options struct {
	Source      telemetry.Source
	Clock       telemetry.Clock
	SuspendIdle bool
	IdleGrace   time.Duration
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// New wires the feed, hub, scheduler and alerting of one configured
// dashboard.
func New(cfg *config.Config, dc config.Dashboard, opts Options) *Dashboard {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("dashboard", dc.Key)
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	interval := cfg.IntervalFor(dc)

	info := Info{
		Key:         dc.Key,
		Title:       dc.Title,
		Heading:     dc.Heading,
		Description: dc.Description,
		Caption:     dc.Caption,
		UnitSelect:  dc.UnitSelect,
		Table:       dc.Table,
		Trend:       dc.Trend,
	}
	if dc.UnitSelect {
		info.Units = data.Units
	}
	for _, l := range dc.Links {
		info.Links = append(info.Links, Link{Label: l.Label, URL: l.URL})
	}

	d := &Dashboard{
		Info:        info,
		detector:    anomaly.NewDetector(dc.Key, dc.Rules),
		metrics:     m,
		log:         log,
		suspendIdle: opts.SuspendIdle,
		grace:       opts.IdleGrace,
		ready:       make(chan struct{}),
	}
	d.Feed = telemetry.NewFeed(
		telemetry.NewGenerator(dc.Range, opts.Source, opts.Clock),
		storage.NewWindow(dc.Capacity),
	)
	// The window may have raised the configured capacity.
	d.Capacity = d.Feed.Capacity()
	d.Range = d.Feed.Range()
	d.Hub = websocket.NewHub(dc.Key,
		websocket.WithLogger(log),
		websocket.WithClientGauge(func(n int) { m.Clients.WithLabelValues(dc.Key).Set(float64(n)) }),
	)
	d.alerter = alerting.NewAlerter(d.Hub,
		func(a data.Alert) { m.Alerts.WithLabelValues(a.Dashboard, a.Field).Inc() },
		log,
	)
	d.Scheduler = telemetry.NewScheduler(dc.Key, d.Feed, interval,
		telemetry.WithObservers(d, opts.SuspendIdle),
		telemetry.WithSinks(d),
		telemetry.WithSkipHook(func() { m.TicksSkipped.WithLabelValues(dc.Key).Inc() }),
		telemetry.WithLogger(log),
	)
	d.IntervalMS = d.Scheduler.Interval().Milliseconds()
	return d
}

// Publish handles a fresh frame: it builds the shared view, pushes it to the
// clients and runs the range checks.
func (d *Dashboard) Publish(frame *telemetry.Frame) {
	v := d.BuildView(frame)
	d.view.Store(v)
	d.once.Do(func() { close(d.ready) })

	d.metrics.Ticks.WithLabelValues(d.Key).Inc()
	d.metrics.WindowSize.WithLabelValues(d.Key).Set(float64(frame.Snapshot.Len()))

	d.Hub.Broadcast(websocket.TypeFrame, v)
	d.alerter.ProcessAlerts(d.detector.Check(frame.Reading))
}

// BuildView computes the page content for a frame.
func (d *Dashboard) BuildView(frame *telemetry.Frame) *View {
	v := &View{
		Seq:     frame.Seq,
		Reading: frame.Reading,
		Live:    make(map[data.Unit]LiveView, len(data.Units)),
		Text:    d.LiveText(frame.Reading),
	}
	for _, u := range data.Units {
		v.Live[u] = BuildLive(frame.Reading, u)
	}
	if d.Table {
		t := BuildTable(frame.Snapshot)
		v.Table = &t
	}
	if d.Trend {
		c := BuildTrend(frame.Snapshot)
		v.Trend = &c
	}
	return v
}

// LiveText is the headline temperature of a dashboard without a unit
// selector, e.g. "-17.2 C".
func (d *Dashboard) LiveText(r data.Reading) string {
	return data.FormatValue(r.TempCelsius) + " C"
}

// View returns the view of the last published tick.
func (d *Dashboard) View() (*View, bool) {
	v := d.view.Load()
	return v, v != nil
}

// ObserverCount counts the WebSocket clients, plus one while an API read
// happened within the idle grace period.
func (d *Dashboard) ObserverCount() int {
	n := d.Hub.ObserverCount()
	if last := d.lastRead.Load(); last != 0 && time.Since(time.Unix(0, last)) < d.grace {
		n++
	}
	return n
}

// Touch records an API read. A dashboard that was idle gets an immediate
// tick; when nothing has been published yet Touch also waits for the first
// frame, until ctx is done or readyWait passes.
func (d *Dashboard) Touch(ctx context.Context) {
	idle := d.ObserverCount() == 0
	d.lastRead.Store(time.Now().UnixNano())
	if !d.suspendIdle {
		return
	}
	_, published := d.View()
	if published && !idle {
		return
	}
	if !d.Scheduler.Wake() || published {
		return
	}
	timer := time.NewTimer(readyWait)
	defer timer.Stop()
	select {
	case <-d.ready:
	case <-ctx.Done():
	case <-timer.C:
		d.log.Warn("no frame after waking the scheduler", "waited", readyWait)
	}
}
