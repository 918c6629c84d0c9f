package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jarvislab/jarvis/internal/domain"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model"})
}

func sseBody(fragments ...string) string {
	var b strings.Builder
	for _, f := range fragments {
		fmt.Fprintf(&b, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", f)
	}
	b.WriteString("data: [DONE]\n\n")
	return b.String()
}

func TestStreamChatYieldsFragmentsInOrder(t *testing.T) {
	fragments := []string{"Hello", ", ", "world", "!"}
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != completionsPath {
			t.Errorf("path = %q, want %q", r.URL.Path, completionsPath)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(sseBody(fragments...)))
	})

	var got []string
	for fragment, err := range c.StreamChat(context.Background(), []domain.ChatTurn{{Role: "user", Content: "hi"}}) {
		if err != nil {
			t.Fatalf("unexpected stream error: %v", err)
		}
		got = append(got, fragment)
	}

	if strings.Join(got, "") != "Hello, world!" {
		t.Errorf("assembled = %q, want %q", strings.Join(got, ""), "Hello, world!")
	}
	if len(got) != len(fragments) {
		t.Errorf("fragment count = %d, want %d", len(got), len(fragments))
	}
}

func TestStreamChatSkipsMalformedLines(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("data: {not json}\n\n" + sseBody("ok")))
	})

	var got []string
	for fragment, err := range c.StreamChat(context.Background(), nil) {
		if err != nil {
			t.Fatalf("unexpected stream error: %v", err)
		}
		got = append(got, fragment)
	}
	if len(got) != 1 || got[0] != "ok" {
		t.Errorf("fragments = %v, want [ok]", got)
	}
}

func TestStreamChatRateLimited(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"slow down"}`, http.StatusTooManyRequests)
	})

	var streamErr error
	for _, err := range c.StreamChat(context.Background(), nil) {
		streamErr = err
		break
	}
	if !errors.Is(streamErr, ErrRateLimited) {
		t.Fatalf("error = %v, want ErrRateLimited", streamErr)
	}
	var ge *GatewayError
	if !errors.As(streamErr, &ge) || ge.Message != rateLimitMessage {
		t.Errorf("message = %v, want fixed rate-limit message", streamErr)
	}
}

func TestGenerateQuizParsesToolCall(t *testing.T) {
	args := `{"questions":[{"id":1,"question":"2+2?","options":{"A":"3","B":"4","C":"5","D":"6"},"correctAnswer":"B","explanation":"Basic arithmetic."}]}`
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"choices":[{"message":{"tool_calls":[{"function":{"name":"generate_quiz","arguments":%q}}]}}]}`, args)
	})

	questions, err := c.GenerateQuiz(context.Background(), QuizRequest{
		Topic: "Arithmetic", Subject: "math", Difficulty: domain.QuizEasy, QuestionCount: 1,
	})
	if err != nil {
		t.Fatalf("GenerateQuiz failed: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("got %d questions, want 1", len(questions))
	}
	q := questions[0]
	if q.CorrectAnswer != "B" || q.Options.B != "4" {
		t.Errorf("question = %+v", q)
	}
}

func TestGenerateQuizContentFallback(t *testing.T) {
	content := `{"questions":[{"id":1,"question":"q","options":{"A":"a","B":"b","C":"c","D":"d"},"correctAnswer":"A","explanation":"e"}]}`
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, content)
	})

	questions, err := c.GenerateQuiz(context.Background(), QuizRequest{Topic: "t", Subject: "s", Difficulty: domain.QuizMedium, QuestionCount: 1})
	if err != nil {
		t.Fatalf("GenerateQuiz failed: %v", err)
	}
	if len(questions) != 1 {
		t.Errorf("got %d questions, want 1", len(questions))
	}
}

func TestGenerateQuizEmptySetIsGenericFailure(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"{\"questions\":[]}"}}]}`)
	})

	_, err := c.GenerateQuiz(context.Background(), QuizRequest{Topic: "t", Subject: "s", Difficulty: domain.QuizHard, QuestionCount: 10})
	var ge *GatewayError
	if !errors.As(err, &ge) || ge.Message != genericMessage {
		t.Fatalf("error = %v, want generic gateway failure", err)
	}
}

func TestGenerateQuizQuotaExhausted(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"no credits"}`, http.StatusPaymentRequired)
	})

	_, err := c.GenerateQuiz(context.Background(), QuizRequest{Topic: "t", Subject: "s", Difficulty: domain.QuizEasy, QuestionCount: 5})
	if !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("error = %v, want ErrQuotaExhausted", err)
	}
}

func TestGenerateIdeasStripsCodeFences(t *testing.T) {
	content := "```json\n{\"ideas\":[{\"title\":\"CLI Tool\",\"description\":\"d\",\"tags\":[\"Go\"],\"codeSnippet\":\"package main\"}]}\n```"
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, content)
	})

	ideas, err := c.GenerateIdeas(context.Background(), IdeaRequest{
		Skills: []string{"Go"}, Difficulty: domain.DifficultyBeginner, Count: 1,
	})
	if err != nil {
		t.Fatalf("GenerateIdeas failed: %v", err)
	}
	if len(ideas) != 1 || ideas[0].Title != "CLI Tool" {
		t.Errorf("ideas = %+v", ideas)
	}
}

func TestGenerateIdeasBareArrayFallback(t *testing.T) {
	content := `[{"title":"A","description":"d","tags":[]}]`
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, content)
	})

	ideas, err := c.GenerateIdeas(context.Background(), IdeaRequest{Skills: []string{"Go"}, Difficulty: domain.DifficultyAdvanced, Count: 1})
	if err != nil {
		t.Fatalf("GenerateIdeas failed: %v", err)
	}
	if len(ideas) != 1 || ideas[0].Title != "A" {
		t.Errorf("ideas = %+v", ideas)
	}
}

func TestGenerateIdeasServerMessageSurfaced(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"model overloaded"}}`, http.StatusServiceUnavailable)
	})

	_, err := c.GenerateIdeas(context.Background(), IdeaRequest{Skills: []string{"Go"}, Difficulty: domain.DifficultyBeginner, Count: 3})
	var ge *GatewayError
	if !errors.As(err, &ge) {
		t.Fatalf("error = %v, want *GatewayError", err)
	}
	if ge.Message != "model overloaded" {
		t.Errorf("message = %q, want server-supplied reason", ge.Message)
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n[1,2]\n```", "[1,2]"},
		{"  {\"a\":1}  ", "{\"a\":1}"},
	}
	for _, tt := range tests {
		if got := stripCodeFences(tt.in); got != tt.want {
			t.Errorf("stripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
