// Package assistant assembles streamed model output into conversation
// messages and exposes the chat HTTP surface.
package assistant

import (
	"context"
	"errors"
	"iter"

	"github.com/jarvislab/jarvis/internal/domain"
)

// ErrStreamInFlight rejects a chat request while an earlier request for the
// same user and session is still streaming.
var ErrStreamInFlight = errors.New("a response is already streaming for this session")

// Streamer produces the assistant's reply as an ordered fragment stream.
// Implemented by the gateway client.
type Streamer interface {
	StreamChat(ctx context.Context, turns []domain.ChatTurn) iter.Seq2[string, error]
}

// ChatRequest is the body of a chat request.
type ChatRequest struct {
	Message string `json:"message"`
}

// Reply is one streamed update of the assistant's message. Content always
// carries the full text assembled so far, so a client may replace rather
// than concatenate.
type Reply struct {
	MessageID string `json:"messageId"`
	Delta     string `json:"delta,omitempty"`
	Content   string `json:"content"`
	Done      bool   `json:"done,omitempty"`
}
