package assistant

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jarvislab/jarvis/internal/api"
	"github.com/jarvislab/jarvis/internal/config"
	"github.com/jarvislab/jarvis/internal/gateway"
	"github.com/jarvislab/jarvis/internal/identity"
	"github.com/jarvislab/jarvis/internal/session"
)

// defaultMaxRequestBodySize is the default maximum allowed request body size (1MB).
const defaultMaxRequestBodySize = 1 << 20

// Handler handles assistant HTTP requests, streaming replies over SSE.
type Handler struct {
	svc         *Service
	states      *session.Tracker
	rateLimiter *RateLimiter
	log         ChatLogger
	cfg         *config.Config
}

// NewHandler creates the assistant handler.
func NewHandler(svc *Service, states *session.Tracker, chatLogger ChatLogger, cfg *config.Config) *Handler {
	if chatLogger == nil {
		chatLogger = noopChatLogger{}
	}

	rateLimitRequests := 10
	rateLimitWindow := time.Minute
	if cfg != nil {
		rateLimitRequests = cfg.RateLimit.RequestsPerWindow
		rateLimitWindow = cfg.RateLimit.WindowDuration
	}

	return &Handler{
		svc:         svc,
		states:      states,
		rateLimiter: NewRateLimiter(rateLimitRequests, rateLimitWindow),
		log:         chatLogger,
		cfg:         cfg,
	}
}

// RegisterRoutes registers assistant routes (requires authentication).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/assistant", func(r chi.Router) {
		r.Post("/chat", h.HandleChat)
		r.Get("/history", h.HandleHistory)
		r.Post("/listening", h.HandleListening)
	})
}

// Close releases handler resources.
func (h *Handler) Close() {
	h.rateLimiter.Stop()
	if err := h.log.Close(); err != nil {
		slog.Warn("failed to close chat logger", "error", err)
	}
}

// HandleChat handles POST /api/assistant/chat requests.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	// Rate-limit by userID only (not userID:sessionID) so clients cannot
	// bypass throttling by rotating session IDs.
	if !h.rateLimiter.Allow(userID) {
		api.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	maxBodySize := int64(defaultMaxRequestBodySize)
	if h.cfg != nil {
		maxBodySize = h.cfg.Chat.MaxRequestBodySize
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		api.Error(w, http.StatusBadRequest, "message is required")
		return
	}

	reqID := chiMiddleware.GetReqID(r.Context())
	slog.Info("Assistant chat request",
		"user_id", userID,
		"session_id", sessionID,
		"message_length", len(req.Message),
	)
	h.log.Log(ChatLogEvent{
		UserID:     userID,
		SessionID:  sessionID,
		Channel:    "chat_http",
		Direction:  "outbound",
		EventType:  "chat_user_message",
		ContentRaw: req.Message,
		Meta: map[string]any{
			"request_id": reqID,
		},
	})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		api.Error(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	var final string
	streamChunks := 0
	partial := false
	streamErrMsg := ""

	for reply, err := range h.svc.Chat(r.Context(), userID, sessionID, req.Message) {
		if err != nil {
			partial = true
			streamErrMsg = err.Error()
			slog.Error("Assistant stream failed", "user_id", userID, "error", err)
			h.logAssistantMessage(userID, sessionID, final, streamChunks, partial, streamErrMsg, reqID)
			if writeErr := writeSSE(w, "error", errorPayload(err)); writeErr != nil {
				slog.Warn("failed to write SSE error event", "error", writeErr)
				return
			}
			flusher.Flush()
			return
		}

		if reply.Delta != "" {
			streamChunks++
		}
		final = reply.Content

		data, err := json.Marshal(reply)
		if err != nil {
			slog.Warn("failed to marshal chat reply", "error", err)
			if writeErr := writeSSE(w, "error", `{"error":"failed to serialize response"}`); writeErr != nil {
				slog.Warn("failed to write SSE serialization error", "error", writeErr)
			}
			flusher.Flush()
			return
		}

		event := "message"
		if reply.Done {
			event = "done"
		}
		if err := writeSSE(w, event, string(data)); err != nil {
			slog.Warn("failed to write SSE message event", "error", err)
			partial = true
			streamErrMsg = err.Error()
			h.logAssistantMessage(userID, sessionID, final, streamChunks, partial, streamErrMsg, reqID)
			return
		}
		flusher.Flush()
	}
	h.logAssistantMessage(userID, sessionID, final, streamChunks, partial, streamErrMsg, reqID)
}

// HandleHistory handles GET /api/assistant/history requests.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	api.JSON(w, http.StatusOK, h.svc.History(r.Context(), userID))
}

// HandleListening handles POST /api/assistant/listening requests, toggling
// the microphone state for the calling session.
func (h *Handler) HandleListening(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		Listening bool `json:"listening"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state := h.states.SetListening(userID, sessionID, req.Listening)
	api.JSON(w, http.StatusOK, map[string]any{"state": state})
}

func (h *Handler) logAssistantMessage(userID, sessionID, content string, streamChunks int, partial bool, streamErrMsg, requestID string) {
	h.log.Log(ChatLogEvent{
		UserID:     userID,
		SessionID:  sessionID,
		Channel:    "chat_http",
		Direction:  "inbound",
		EventType:  "chat_assistant_message",
		ContentRaw: content,
		Meta: map[string]any{
			"stream_chunks": streamChunks,
			"partial":       partial,
			"stream_error":  streamErrMsg,
			"request_id":    requestID,
		},
	})
}

func writeSSE(w io.Writer, event, data string) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

// errorPayload maps a stream failure onto the JSON body of an SSE error
// event, preserving the gateway's user-visible taxonomy.
func errorPayload(err error) string {
	message := "The assistant service failed to respond. Please try again."
	var ge *gateway.GatewayError
	switch {
	case errors.Is(err, ErrStreamInFlight):
		message = ErrStreamInFlight.Error()
	case errors.As(err, &ge):
		message = ge.Message
	}
	data, marshalErr := json.Marshal(map[string]string{"error": message})
	if marshalErr != nil {
		return `{"error":"the assistant service failed to respond"}`
	}
	return string(data)
}
