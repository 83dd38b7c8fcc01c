// internal/api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	gwebsocket "github.com/gorilla/websocket" // Alias to avoid name conflict

	"live-temp-dashboard/internal/dashboard"
	"live-temp-dashboard/internal/data"
	"live-temp-dashboard/internal/websocket"
)

var upgrader = gwebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// APIHandler serves the dashboard pages, their JSON API and live updates.
type APIHandler struct {
	registry *dashboard.Registry
	tmpl     *template.Template
	static   fs.FS
	log      *slog.Logger
}

// NewAPIHandler parses templates/*.html from assets and serves static/ from
// it as well.
func NewAPIHandler(registry *dashboard.Registry, assets fs.FS, log *slog.Logger) (*APIHandler, error) {
	if log == nil {
		log = slog.Default()
	}
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"json": func(v any) (template.JS, error) {
			b, err := json.Marshal(v)
			return template.JS(b), err
		},
	}).ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}
	return &APIHandler{registry: registry, tmpl: tmpl, static: static, log: log}, nil
}

type pageData struct {
	Dashboards []*dashboard.Dashboard
	Dashboard  *dashboard.Dashboard
	View       *dashboard.View
}

// ServeIndex lists the dashboards.
func (h *APIHandler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, "index.html", pageData{Dashboards: h.registry.All()})
}

// ServeDashboard renders one dashboard page with the last tick inlined so the
// page is complete before the socket connects.
func (h *APIHandler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	v, _ := d.View()
	h.render(w, "dashboard.html", pageData{Dashboards: h.registry.All(), Dashboard: d, View: v})
}

func (h *APIHandler) render(w http.ResponseWriter, name string, pd pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, name, pd); err != nil {
		h.log.Error("executing template", "template", name, "err", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// HandleWebSocket upgrades the connection and subscribes it to the
// dashboard's hub. The last view is queued first as a history message.
func (h *APIHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "dashboard", d.Key, "err", err)
		return
	}

	client := websocket.NewClient(d.Hub, conn)
	// The channel is still private to us here, so this cannot race the hub
	// closing it.
	if v, ok := d.View(); ok {
		if msg, err := websocket.Encode(websocket.TypeHistory, v); err == nil {
			client.Send <- msg
		}
	}
	if !d.Hub.RegisterClient(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

// ListDashboards returns the static description of every dashboard.
func (h *APIHandler) ListDashboards(w http.ResponseWriter, r *http.Request) {
	infos := make([]dashboard.Info, 0, len(h.registry.All()))
	for _, d := range h.registry.All() {
		infos = append(infos, d.Info)
	}
	writeJSON(w, http.StatusOK, infos)
}

type latestResponse struct {
	Seq uint64 `json:"seq"`
	dashboard.LiveView
	Reading data.Reading `json:"reading"`
}

// GetLatest returns the last reading rendered in the ?unit= unit.
func (h *APIHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookupRead(w, r)
	if !ok {
		return
	}
	unit, err := data.ParseUnit(r.URL.Query().Get("unit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	frame, ok := d.Feed.Current()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, errors.New("no data yet"))
		return
	}
	writeJSON(w, http.StatusOK, latestResponse{
		Seq:      frame.Seq,
		LiveView: dashboard.BuildLive(frame.Reading, unit),
		Reading:  frame.Reading,
	})
}

// GetReadings returns the rolling window as a table.
func (h *APIHandler) GetReadings(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookupRead(w, r)
	if !ok {
		return
	}
	if v, ok := d.View(); ok && v.Table != nil {
		writeJSON(w, http.StatusOK, v.Table)
		return
	}
	writeJSON(w, http.StatusOK, dashboard.BuildTable(d.Feed.Snapshot()))
}

// GetReadingsCSV returns the rolling window as CSV.
func (h *APIHandler) GetReadingsCSV(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookupRead(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.Key+"-readings.csv"))
	if err := dashboard.WriteCSV(w, d.Feed.Snapshot()); err != nil {
		h.log.Warn("writing csv", "dashboard", d.Key, "err", err)
	}
}

// GetTrend returns the trend chart, or its placeholder when the window is
// empty.
func (h *APIHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookupRead(w, r)
	if !ok {
		return
	}
	if v, ok := d.View(); ok && v.Trend != nil {
		writeJSON(w, http.StatusOK, v.Trend)
		return
	}
	writeJSON(w, http.StatusOK, dashboard.BuildTrend(d.Feed.Snapshot()))
}

func (h *APIHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *APIHandler) lookup(w http.ResponseWriter, r *http.Request) (*dashboard.Dashboard, bool) {
	key := chi.URLParam(r, "key")
	d, ok := h.registry.Get(key)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown dashboard %q", key))
	}
	return d, ok
}

// lookupRead is lookup for data reads: the read counts as activity on the
// dashboard.
func (h *APIHandler) lookupRead(w http.ResponseWriter, r *http.Request) (*dashboard.Dashboard, bool) {
	d, ok := h.lookup(w, r)
	if ok {
		d.Touch(r.Context())
	}
	return d, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
