// internal/websocket/hub.go
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
)

// Message types pushed to browsers.
const (
	TypeHistory = "history"
	TypeFrame   = "frame"
	TypeAlert   = "alert"
)

// Message is the envelope of every WebSocket message.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Encode marshals a message envelope.
func Encode(msgType string, payload any) ([]byte, error) {
	return json.Marshal(Message{Type: msgType, Payload: payload})
}

// Hub maintains the set of active clients of one dashboard and broadcasts
// messages to them. Only Run touches the client set.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	count      atomic.Int64
	onChange   func(n int)
	log        *slog.Logger
}

type HubOption func(*Hub)

// WithClientGauge is called with the client count whenever it changes.
func WithClientGauge(fn func(n int)) HubOption {
	return func(h *Hub) { h.onChange = fn }
}

// WithLogger sets a logger already scoped to the dashboard.
func WithLogger(l *slog.Logger) HubOption {
	return func(h *Hub) { h.log = l }
}

func NewHub(name string, opts ...HubOption) *Hub {
	h := &Hub{
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.log == nil {
		h.log = slog.Default().With("dashboard", name)
	}
	return h
}

// ObserverCount reports the number of registered clients.
func (h *Hub) ObserverCount() int { return int(h.count.Load()) }

// Run serves registrations and broadcasts until ctx is done, then closes
// every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			h.log.Info("websocket hub stopped")
			return

		case client := <-h.register:
			h.clients[client] = true
			h.changed()
			h.log.Info("websocket client registered", "client", client.ID)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.log.Info("websocket client unregistered", "client", client.ID)
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// Client is blocked or gone.
					h.log.Warn("websocket client send buffer full, removing", "client", client.ID)
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.Send)
	h.changed()
}

func (h *Hub) changed() {
	n := len(h.clients)
	h.count.Store(int64(n))
	if h.onChange != nil {
		h.onChange(n)
	}
}

// RegisterClient hands a new client to the hub. It reports false once the
// hub has stopped.
func (h *Hub) RegisterClient(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// UnregisterClient removes a client; unknown clients are ignored.
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast encodes the payload once and queues it for every client.
func (h *Hub) Broadcast(msgType string, payload any) {
	messageBytes, err := Encode(msgType, payload)
	if err != nil {
		h.log.Error("marshalling broadcast", "type", msgType, "err", err)
		return
	}
	select {
	case h.broadcast <- messageBytes:
	case <-h.done:
	}
}
