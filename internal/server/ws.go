package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/control"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// UpdatesHandler broadcasts live session updates over WebSocket. The
// control loop publishes every tick; the broadcaster samples the latest
// update at ~15 FPS so slow clients never back-pressure the loop.
type UpdatesHandler struct {
	last    atomic.Pointer[control.Update]
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewUpdatesHandler creates an UpdatesHandler and starts its broadcaster.
func NewUpdatesHandler() *UpdatesHandler {
	h := &UpdatesHandler{
		clients: make(map[*websocket.Conn]bool),
	}
	go h.broadcast()
	return h
}

// Publish records the newest update for broadcast. It never blocks, so it
// is safe to call from the control loop's tick.
func (h *UpdatesHandler) Publish(u control.Update) {
	h.last.Store(&u)
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *UpdatesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// broadcast sends the latest update to all connected clients.
func (h *UpdatesHandler) broadcast() {
	ticker := time.NewTicker(66 * time.Millisecond) // ~15 FPS
	defer ticker.Stop()

	var sent *control.Update
	for range ticker.C {
		h.mu.RLock()
		if len(h.clients) == 0 {
			h.mu.RUnlock()
			continue
		}
		h.mu.RUnlock()

		u := h.last.Load()
		if u == nil || u == sent {
			continue
		}
		sent = u

		msg, err := json.Marshal(u)
		if err != nil {
			continue
		}

		h.mu.RLock()
		for conn := range h.clients {
			conn.WriteMessage(websocket.TextMessage, msg)
		}
		h.mu.RUnlock()
	}
}
