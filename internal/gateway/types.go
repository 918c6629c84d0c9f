// Package gateway provides the HTTP client for the AI model gateway.
package gateway

import (
	"errors"

	"github.com/jarvislab/jarvis/internal/domain"
)

// Sentinel errors for the gateway failure taxonomy. Use errors.Is to detect
// them; the user-visible message lives on the wrapping GatewayError.
var (
	// ErrRateLimited signals an HTTP 429 from the gateway.
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExhausted signals an HTTP 402 from the gateway.
	ErrQuotaExhausted = errors.New("quota exhausted")
)

// User-visible messages for the taxonomy.
const (
	rateLimitMessage = "Rate limit exceeded. Please try again in a moment."
	quotaMessage     = "AI credits depleted."
	genericMessage   = "The assistant service failed to respond. Please try again."
)

// GatewayError is a failure reported by the AI gateway, carrying the HTTP
// status and a human-readable reason safe to show to the user.
type GatewayError struct {
	Status  int
	Message string
}

func (e *GatewayError) Error() string {
	return e.Message
}

// Unwrap maps rate-limit and quota statuses onto their sentinels.
func (e *GatewayError) Unwrap() error {
	switch e.Status {
	case 429:
		return ErrRateLimited
	case 402:
		return ErrQuotaExhausted
	}
	return nil
}

// QuizRequest asks the gateway for a multiple-choice question set.
type QuizRequest struct {
	Topic         string                `json:"topic"`
	Subject       string                `json:"subject"`
	Difficulty    domain.QuizDifficulty `json:"difficulty"`
	QuestionCount int                   `json:"questionCount"`
}

// IdeaRequest asks the gateway for project idea suggestions.
type IdeaRequest struct {
	Skills     []string          `json:"skills"`
	Difficulty domain.Difficulty `json:"difficulty"`
	Count      int               `json:"count"`
}

// GeneratedIdea is one project suggestion as returned by the gateway, before
// it is stamped with an id and the request difficulty.
type GeneratedIdea struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	CodeSnippet string   `json:"codeSnippet"`
}

// Wire types for the OpenAI-compatible chat completions endpoint.

type chatCompletionRequest struct {
	Model      string            `json:"model"`
	Messages   []domain.ChatTurn `json:"messages"`
	Stream     bool              `json:"stream,omitempty"`
	Tools      []toolDef         `json:"tools,omitempty"`
	ToolChoice *toolChoice       `json:"tool_choice,omitempty"`
}

type toolDef struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type toolChoice struct {
	Type     string `json:"type"`
	Function struct {
		Name string `json:"name"`
	} `json:"function"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}
