// Package websocket broadcasts engagement events to connected admin consoles.
package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/example/temple-engagements/internal/application"
)

// PayloadEncoder converts an event payload into its wire representation.
type PayloadEncoder func(application.Event) any

// Option configures a Hub.
type Option func(*Hub)

// WithPayloadEncoder sets the payload conversion applied to published events.
func WithPayloadEncoder(encode PayloadEncoder) Option {
	return func(h *Hub) {
		h.encode = encode
	}
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	logger *slog.Logger
	encode PayloadEncoder

	clients map[*Client]struct{}
	mu      sync.RWMutex

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub(logger *slog.Logger, opts ...Option) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		logger:     logger.With("component", "websocket_hub"),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Run is the hub's event loop. It returns when ctx is cancelled, closing every
// client's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("websocket client connected", "clients", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("websocket client disconnected", "clients", total)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("dropping slow websocket client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish implements application.EventPublisher. It never blocks: events are
// dropped when the broadcast buffer is full.
func (h *Hub) Publish(ctx context.Context, event application.Event) {
	data, err := EventMessage(event, h.encode).JSON()
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to encode event", "kind", event.Kind, "error", err)
		return
	}
	h.Broadcast(data)
}

// Broadcast queues a raw frame for every connected client.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast channel full, dropping message")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
