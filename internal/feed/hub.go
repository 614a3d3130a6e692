// Package feed streams run progress events to WebSocket subscribers.
// Dashboards and scripts can watch a run live without polling the
// checkpoint file.
package feed

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/xggarcia/Curt-IA/internal/workflow"
)

// Hub accepts WebSocket subscribers and fans workflow events out to
// them as JSON. Publish never blocks the orchestrator: a subscriber
// whose write fails is dropped.
type Hub struct {
	upgrader websocket.Upgrader
	log      *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:     logger,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Publish implements workflow.EventSink.
func (h *Hub) Publish(ev workflow.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(ev); err != nil {
			h.log.Debug("dropping slow feed subscriber", "err", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// HandleWS upgrades the request and registers the subscriber. The
// connection stays open until the client closes it or a broadcast
// write fails.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("feed upgrade failed", "err", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
	h.log.Info("feed subscriber connected", "remote", conn.RemoteAddr())

	// Drain incoming frames so pings and close messages are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.mu.Lock()
				if _, ok := h.clients[conn]; ok {
					conn.Close()
					delete(h.clients, conn)
				}
				h.mu.Unlock()
				return
			}
		}
	}()
}

// Serve runs an HTTP server exposing the feed at /ws until ctx is done.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleWS)

	server := &http.Server{Addr: addr, Handler: mux}
	h.log.Info("progress feed listening", "addr", addr)

	go func() {
		<-ctx.Done()
		server.Close()
	}()

	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
