package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/jarvislab/jarvis/internal/identity"
)

// Hub manages active WebSocket connections for users and fans state events
// out to them.
type Hub struct {
	mu     sync.RWMutex
	active map[string]map[string]*websocket.Conn
}

// NewHub creates a new connection hub.
func NewHub() *Hub {
	return &Hub{
		active: make(map[string]map[string]*websocket.Conn),
	}
}

// Register adds a new WebSocket connection for a user/session. A second
// connection for the same session replaces the first.
func (h *Hub) Register(userID, sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.active[userID]; !exists {
		h.active[userID] = make(map[string]*websocket.Conn)
	}

	if existing, exists := h.active[userID][sessionID]; exists && existing != conn {
		_ = existing.Close(websocket.StatusNormalClosure, "session replaced")
	}

	h.active[userID][sessionID] = conn
	slog.Info("State stream registered", "user_id", userID, "session_id", sessionID)
}

// Unregister removes a WebSocket connection for a user/session.
func (h *Hub) Unregister(userID, sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sessions, ok := h.active[userID]; ok {
		if current, exists := sessions[sessionID]; exists && current == conn {
			delete(sessions, sessionID)
			if len(sessions) == 0 {
				delete(h.active, userID)
			}
			slog.Info("State stream unregistered", "user_id", userID, "session_id", sessionID)
		}
	}
}

// Notify sends the state event to the connection registered for the event's
// user/session, if any. Write failures are logged and dropped; state push is
// best-effort.
func (h *Hub) Notify(ev Event) {
	h.mu.RLock()
	var conn *websocket.Conn
	if sessions, ok := h.active[ev.UserID]; ok {
		conn = sessions[ev.SessionID]
	}
	h.mu.RUnlock()

	if conn == nil {
		return
	}
	if err := writeJSON(conn, ev); err != nil {
		slog.Debug("Failed to push state event", "user_id", ev.UserID, "session_id", ev.SessionID, "error", err)
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}

// WSHandler upgrades /ws/state requests and streams assistant state
// transitions to the client.
type WSHandler struct {
	hub           *Hub
	tracker       *Tracker
	allowedOrigin string
	isDev         bool
}

// NewWSHandler creates the state stream handler.
func NewWSHandler(hub *Hub, tracker *Tracker, allowedOrigin string, isDev bool) *WSHandler {
	return &WSHandler{
		hub:           hub,
		tracker:       tracker,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP implements http.Handler for the WebSocket upgrade.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()

	h.hub.Register(userID, sessionID, ws)
	defer h.hub.Unregister(userID, sessionID, ws)

	// Send the current state so a reconnecting client resynchronizes.
	if err := writeJSON(ws, Event{State: h.tracker.Get(userID, sessionID), At: time.Now().UTC()}); err != nil {
		slog.Debug("Failed to send initial state", "error", err, "user_id", userID)
		return
	}

	// Hold the connection open; the read loop only detects client close.
	ctx := r.Context()
	for {
		if _, _, err := ws.Read(ctx); err != nil {
			slog.Info("State stream disconnected", "user_id", userID, "session_id", sessionID)
			return
		}
	}
}

func (h *WSHandler) checkOrigin(r *http.Request) bool {
	if h.isDev || h.allowedOrigin == "" {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return strings.HasPrefix(origin, h.allowedOrigin)
}
