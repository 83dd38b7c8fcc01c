// internal/alerting/alerter.go
package alerting

import (
	"log/slog"

	"live-temp-dashboard/internal/data"
	"live-temp-dashboard/internal/websocket"
)

// Broadcaster pushes a typed message to the clients of a dashboard.
type Broadcaster interface {
	Broadcast(msgType string, payload any)
}

// Alerter fans alerts out to the dashboard's clients, the log and an
// optional counter.
type Alerter struct {
	hub   Broadcaster
	count func(alert data.Alert)
	log   *slog.Logger
}

// NewAlerter expects log to be scoped to the dashboard already.
func NewAlerter(hub Broadcaster, count func(alert data.Alert), log *slog.Logger) *Alerter {
	if log == nil {
		log = slog.Default()
	}
	return &Alerter{hub: hub, count: count, log: log}
}

func (a *Alerter) ProcessAlerts(alerts []data.Alert) {
	for _, alert := range alerts {
		a.log.Warn("reading out of range", "field", alert.Field, "value", alert.Value)
		if a.count != nil {
			a.count(alert)
		}
		if a.hub != nil {
			a.hub.Broadcast(websocket.TypeAlert, alert)
		}
	}
}
