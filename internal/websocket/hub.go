// Package websocket pushes dashboard lifecycle events (refresh completed,
// export produced) to connected clients so the UI can re-pull without
// polling.
package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message types pushed to dashboard clients.
const (
	TypeConnection  = "connection"
	TypeDataRefresh = "data_refresh"
	TypeExport      = "export"
)

// Message is the wire format for hub broadcasts.
type Message struct {
	Type      string                 `json:"type"`
	Message   string                 `json:"message,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Hub fans broadcast messages out to every connected client. Writes to a
// single connection are serialized through a per-connection mutex.
type Hub struct {
	logger     *slog.Logger
	clients    map[*websocket.Conn]bool
	connMutex  map[*websocket.Conn]*sync.Mutex
	broadcast  chan Message
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mutex      sync.RWMutex
}

// NewHub creates an idle hub; Run starts delivery.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:     logger.With(slog.String("component", "ws_hub")),
		clients:    make(map[*websocket.Conn]bool),
		connMutex:  make(map[*websocket.Conn]*sync.Mutex),
		broadcast:  make(chan Message, 100),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

// Run delivers broadcasts until the context is cancelled, then closes every
// remaining connection.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
			}
			h.clients = make(map[*websocket.Conn]bool)
			h.connMutex = make(map[*websocket.Conn]*sync.Mutex)
			h.mutex.Unlock()
			return ctx.Err()

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.connMutex[client] = &sync.Mutex{}
			h.mutex.Unlock()
			h.logger.Info("client connected", slog.Int("total_clients", h.ClientCount()))
			h.sendToClient(client, Message{
				Type:      TypeConnection,
				Message:   "connected",
				Timestamp: time.Now(),
			})

		case client := <-h.unregister:
			h.dropClient(client)

		case message := <-h.broadcast:
			h.mutex.RLock()
			clients := make([]*websocket.Conn, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mutex.RUnlock()

			for _, client := range clients {
				if err := h.sendToClient(client, message); err != nil {
					// Unregister would send on the channel this loop drains
					// and deadlock the hub, so remove the client inline.
					h.dropClient(client)
				}
			}
		}
	}
}

// dropClient removes a connection from the hub's tables and closes it. Only
// called from the Run goroutine.
func (h *Hub) dropClient(client *websocket.Conn) {
	h.mutex.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		delete(h.connMutex, client)
		client.Close()
	}
	h.mutex.Unlock()
	if ok {
		h.logger.Info("client disconnected", slog.Int("total_clients", h.ClientCount()))
	}
}

// Register hands a freshly upgraded connection to the hub.
func (h *Hub) Register(conn *websocket.Conn) {
	h.register <- conn
}

// Unregister removes a connection and closes it.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.unregister <- conn
}

// Broadcast queues a message for every client. A full queue drops the
// message rather than blocking the caller.
func (h *Hub) Broadcast(message Message) {
	message.Timestamp = time.Now()
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast queue full, dropping message", slog.String("type", message.Type))
	}
}

// BroadcastRefresh announces a completed snapshot refresh.
func (h *Hub) BroadcastRefresh(leadCount int, at time.Time) {
	h.Broadcast(Message{
		Type:    TypeDataRefresh,
		Message: "data refreshed",
		Data: map[string]interface{}{
			"lead_count":   leadCount,
			"refreshed_at": at.Format(time.RFC3339),
		},
	})
}

// BroadcastExport announces a produced export artifact.
func (h *Hub) BroadcastExport(format, filename string) {
	h.Broadcast(Message{
		Type:    TypeExport,
		Message: "export produced",
		Data: map[string]interface{}{
			"format":   format,
			"filename": filename,
		},
	})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) sendToClient(client *websocket.Conn, message Message) error {
	h.mutex.RLock()
	mu, exists := h.connMutex[client]
	h.mutex.RUnlock()
	if !exists {
		return nil
	}

	mu.Lock()
	defer mu.Unlock()

	client.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := client.WriteJSON(message); err != nil {
		h.logger.Debug("write failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}
