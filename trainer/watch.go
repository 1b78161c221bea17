package main

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/snakelabs/forager/train"
)

// watchHub broadcasts episode results to websocket subscribers so a run can
// be watched from a browser or another process.
type watchHub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newWatchHub(logger *slog.Logger) *watchHub {
	return &watchHub{
		logger: logger,
		upgrader: websocket.Upgrader{
			// Local tooling only; no origin policy to enforce.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Serve runs the websocket endpoint until ctx is cancelled.
func (h *watchHub) Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", h.handleWatch)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	h.logger.Info("watch endpoint listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		h.logger.Warn("watch endpoint failed", "err", err)
	}
}

func (h *watchHub) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	// Drain control frames; a read error means the subscriber left.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *watchHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

// Broadcast sends the episode result to every subscriber, dropping any
// connection that fails to keep up.
func (h *watchHub) Broadcast(r train.EpisodeResult) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(time.Second))
		if err := c.WriteJSON(r); err != nil {
			h.drop(c)
		}
	}
}
