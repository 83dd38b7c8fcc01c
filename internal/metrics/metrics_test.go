package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollectorsExposed(t *testing.T) {
	m := New()
	m.Ticks.WithLabelValues("basic").Inc()
	m.Ticks.WithLabelValues("basic").Inc()
	m.WindowSize.WithLabelValues("custom").Set(7)
	m.Alerts.WithLabelValues("custom", "temp_celsius").Inc()

	require.Equal(t, 2.0, testutil.ToFloat64(m.Ticks.WithLabelValues("basic")))
	require.Equal(t, 7.0, testutil.ToFloat64(m.WindowSize.WithLabelValues("custom")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `dashboard_ticks_total{dashboard="basic"} 2`)
	require.Contains(t, string(body), `dashboard_alerts_total{dashboard="custom",field="temp_celsius"} 1`)
}
