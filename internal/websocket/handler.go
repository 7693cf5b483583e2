package websocket

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Handler upgrades HTTP requests and attaches the connection to the hub.
type Handler struct {
	hub            *Hub
	logger         *slog.Logger
	allowedOrigins []string
}

// NewHandler creates the upgrade handler. An empty allowedOrigins list
// accepts any origin, which suits local single-user deployments.
func NewHandler(hub *Hub, logger *slog.Logger, allowedOrigins []string) *Handler {
	return &Handler{
		hub:            hub,
		logger:         logger.With(slog.String("component", "ws_handler")),
		allowedOrigins: allowedOrigins,
	}
}

// ServeHTTP upgrades the request and keeps reading until the client goes
// away. Incoming frames are discarded; the hub only pushes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "upgrade failed", slog.String("error", err.Error()))
		return
	}

	h.hub.Register(conn)
	go h.readLoop(conn)
}

func (h *Handler) readLoop(conn *websocket.Conn) {
	defer h.hub.Unregister(conn)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	}
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.allowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if origin == allowed {
			return true
		}
	}
	h.logger.Warn("origin rejected", slog.String("origin", origin))
	return false
}
