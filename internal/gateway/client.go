package gateway

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/jarvislab/jarvis/internal/domain"
)

const completionsPath = "/v1/chat/completions"

// maxErrorBodySize bounds how much of an error response body is read.
const maxErrorBodySize = 64 << 10

// Client talks to an OpenAI-compatible AI gateway over HTTPS/JSON.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// Config holds gateway client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewClient creates a gateway client. A zero Timeout defaults to five
// minutes to leave room for long streamed generations.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// StreamChat sends the conversation turns and yields each delta-content
// fragment in order until the gateway signals the end of the stream. A
// non-success response or transport failure is yielded as the error before
// any further fragments.
func (c *Client) StreamChat(ctx context.Context, turns []domain.ChatTurn) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := c.postCompletion(ctx, chatCompletionRequest{
			Model:    c.model,
			Messages: turns,
			Stream:   true,
		})
		if err != nil {
			yield("", err)
			return
		}
		defer func() {
			if closeErr := resp.Body.Close(); closeErr != nil {
				slog.Debug("failed to close gateway response body", "error", closeErr)
			}
		}()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "[DONE]" {
				return
			}

			var chunk streamChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				// Skip malformed lines rather than aborting the stream.
				continue
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			fragment := chunk.Choices[0].Delta.Content
			if fragment == "" {
				continue
			}
			if !yield(fragment, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", fmt.Errorf("read chat stream: %w", err))
		}
	}
}

// GenerateQuiz asks the gateway for a multiple-choice question set. The
// gateway is steered into a tool call whose arguments carry the questions;
// plain-content JSON is accepted as a fallback. An empty question set is a
// generic failure, never a partial acceptance.
func (c *Client) GenerateQuiz(ctx context.Context, req QuizRequest) ([]domain.Question, error) {
	systemPrompt := fmt.Sprintf(`You are an expert educator creating exam questions. Generate exactly %d multiple-choice questions about the given topic.

RULES:
- Each question must have exactly 4 options (A, B, C, D)
- Only one option should be correct
- Questions should be at %s difficulty level
- Include a brief explanation for the correct answer
- Questions should test understanding, not just memorization

You MUST respond with valid JSON holding a "questions" array.`, req.QuestionCount, req.Difficulty)

	userPrompt := fmt.Sprintf("Generate %d %s-level multiple choice questions about %q in the subject of %s.",
		req.QuestionCount, req.Difficulty, req.Topic, req.Subject)

	choice := &toolChoice{Type: "function"}
	choice.Function.Name = "generate_quiz"

	resp, err := c.postCompletion(ctx, chatCompletionRequest{
		Model: c.model,
		Messages: []domain.ChatTurn{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Tools: []toolDef{{
			Type: "function",
			Function: toolFunction{
				Name:        "generate_quiz",
				Description: "Generate multiple choice quiz questions",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"questions": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"id":       map[string]any{"type": "number"},
									"question": map[string]any{"type": "string"},
									"options": map[string]any{
										"type": "object",
										"properties": map[string]any{
											"A": map[string]any{"type": "string"},
											"B": map[string]any{"type": "string"},
											"C": map[string]any{"type": "string"},
											"D": map[string]any{"type": "string"},
										},
										"required": []string{"A", "B", "C", "D"},
									},
									"correctAnswer": map[string]any{"type": "string", "enum": []string{"A", "B", "C", "D"}},
									"explanation":   map[string]any{"type": "string"},
								},
								"required": []string{"id", "question", "options", "correctAnswer", "explanation"},
							},
						},
					},
					"required": []string{"questions"},
				},
			},
		}},
		ToolChoice: choice,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Debug("failed to close gateway response body", "error", closeErr)
		}
	}()

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, &GatewayError{Status: resp.StatusCode, Message: genericMessage}
	}

	payload := ""
	if len(completion.Choices) > 0 {
		msg := completion.Choices[0].Message
		if len(msg.ToolCalls) > 0 {
			payload = msg.ToolCalls[0].Function.Arguments
		} else {
			payload = msg.Content
		}
	}
	if payload == "" {
		return nil, &GatewayError{Status: resp.StatusCode, Message: genericMessage}
	}

	var parsed struct {
		Questions []domain.Question `json:"questions"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(payload)), &parsed); err != nil {
		slog.Warn("Failed to parse quiz payload", "error", err)
		return nil, &GatewayError{Status: resp.StatusCode, Message: genericMessage}
	}
	if len(parsed.Questions) == 0 {
		return nil, &GatewayError{Status: resp.StatusCode, Message: genericMessage}
	}
	return parsed.Questions, nil
}

// GenerateIdeas asks the gateway for project idea suggestions.
func (c *Client) GenerateIdeas(ctx context.Context, req IdeaRequest) ([]GeneratedIdea, error) {
	systemPrompt := `You are a project idea generator for software developers. Generate creative and practical project ideas based on the user's skills and preferred difficulty level.

For each project idea, provide a catchy title, a detailed description (2-3 sentences), relevant technology tags, and a starter code snippet (15-30 lines of functional code).

Always respond with valid JSON holding an "ideas" array of {title, description, tags, codeSnippet} objects.`

	userPrompt := fmt.Sprintf(`Generate %d unique project ideas for a developer with these skills: %s.

Difficulty level: %s

Make sure each project uses at least 2-3 of the specified skills, is achievable at the %s level, and includes a working starter code snippet. Return ONLY valid JSON with the ideas array.`,
		req.Count, strings.Join(req.Skills, ", "), req.Difficulty, req.Difficulty)

	resp, err := c.postCompletion(ctx, chatCompletionRequest{
		Model: c.model,
		Messages: []domain.ChatTurn{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Debug("failed to close gateway response body", "error", closeErr)
		}
	}()

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, &GatewayError{Status: resp.StatusCode, Message: genericMessage}
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return nil, &GatewayError{Status: resp.StatusCode, Message: genericMessage}
	}

	payload := stripCodeFences(completion.Choices[0].Message.Content)

	var parsed struct {
		Ideas []GeneratedIdea `json:"ideas"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		// Some models return a bare array instead of the wrapper object.
		var bare []GeneratedIdea
		if err := json.Unmarshal([]byte(payload), &bare); err != nil {
			slog.Warn("Failed to parse ideas payload", "error", err)
			return nil, &GatewayError{Status: resp.StatusCode, Message: genericMessage}
		}
		parsed.Ideas = bare
	}
	if len(parsed.Ideas) == 0 {
		return nil, &GatewayError{Status: resp.StatusCode, Message: genericMessage}
	}
	return parsed.Ideas, nil
}

// postCompletion sends a chat completion request and returns the raw
// response with a 2xx status; any other outcome is mapped onto the gateway
// error taxonomy.
func (c *Client) postCompletion(ctx context.Context, body chatCompletionRequest) (*http.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() {
			if closeErr := resp.Body.Close(); closeErr != nil {
				slog.Debug("failed to close gateway error body", "error", closeErr)
			}
		}()
		return nil, c.statusError(resp)
	}
	return resp, nil
}

// statusError maps a non-success gateway response onto the taxonomy: 429 and
// 402 carry fixed user-facing messages, everything else surfaces the
// server-supplied reason with a generic fallback.
func (c *Client) statusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return &GatewayError{Status: resp.StatusCode, Message: rateLimitMessage}
	case http.StatusPaymentRequired:
		return &GatewayError{Status: resp.StatusCode, Message: quotaMessage}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return &GatewayError{Status: resp.StatusCode, Message: genericMessage}
	}

	message := genericMessage
	var wrapped struct {
		Error any `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil {
		switch e := wrapped.Error.(type) {
		case string:
			if e != "" {
				message = e
			}
		case map[string]any:
			if m, ok := e["message"].(string); ok && m != "" {
				message = m
			}
		}
	}
	slog.Warn("AI gateway error", "status", resp.StatusCode, "message", message)
	return &GatewayError{Status: resp.StatusCode, Message: message}
}

var codeFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// stripCodeFences unwraps a JSON payload the model returned inside a
// markdown code block.
func stripCodeFences(s string) string {
	if m := codeFenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s)
}
