// internal/api/router.go
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"live-temp-dashboard/internal/auth"
)

// Middleware wraps a handler, e.g. authentication.
type Middleware func(http.Handler) http.Handler

// SetupRouter mounts pages, the WebSocket endpoint, the JSON API behind
// apiGuard, health and metrics.
func SetupRouter(h *APIHandler, apiGuard Middleware, metrics http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", h.ServeIndex)
	r.Get("/dashboards/{key}", h.ServeDashboard)
	// Public like the page that links to it.
	r.Get("/dashboards/{key}/readings.csv", h.GetReadingsCSV)
	r.Get("/ws/{key}", h.HandleWebSocket)
	r.Get("/healthz", h.Healthz)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/api", func(r chi.Router) {
		if apiGuard != nil {
			r.Use(apiGuard)
		}
		r.Use(h.logSubject)
		r.Get("/dashboards", h.ListDashboards)
		r.Get("/dashboards/{key}/latest", h.GetLatest)
		r.Get("/dashboards/{key}/readings", h.GetReadings)
		r.Get("/dashboards/{key}/readings.csv", h.GetReadingsCSV)
		r.Get("/dashboards/{key}/trend", h.GetTrend)
	})

	// Serve static files (CSS, JS)
	fs := http.FileServer(http.FS(h.static))
	r.Handle("/static/*", http.StripPrefix("/static/", fs))

	return r
}

// logSubject records which token subject made an API request.
func (h *APIHandler) logSubject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if subject, ok := auth.Subject(r.Context()); ok {
			h.log.Debug("api request", "subject", subject, "path", r.URL.Path,
				"request_id", middleware.GetReqID(r.Context()))
		}
		next.ServeHTTP(w, r)
	})
}
