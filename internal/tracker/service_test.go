package tracker

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jarvislab/jarvis/internal/domain"
	"github.com/jarvislab/jarvis/internal/gateway"
	"github.com/jarvislab/jarvis/internal/store"
)

type fakeGenerator struct {
	quizCalls  int
	ideaCalls  int
	quizReq    gateway.QuizRequest
	ideaReq    gateway.IdeaRequest
	questions  []domain.Question
	ideas      []gateway.GeneratedIdea
	failureErr error
}

func (f *fakeGenerator) GenerateQuiz(_ context.Context, req gateway.QuizRequest) ([]domain.Question, error) {
	f.quizCalls++
	f.quizReq = req
	if f.failureErr != nil {
		return nil, f.failureErr
	}
	return f.questions, nil
}

func (f *fakeGenerator) GenerateIdeas(_ context.Context, req gateway.IdeaRequest) ([]gateway.GeneratedIdea, error) {
	f.ideaCalls++
	f.ideaReq = req
	if f.failureErr != nil {
		return nil, f.failureErr
	}
	return f.ideas, nil
}

func newTestService(t *testing.T, gen Generator) (*Service, store.Repository) {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewService(repo, gen), repo
}

func TestTodoLifecycle(t *testing.T) {
	svc, _ := newTestService(t, &fakeGenerator{})
	ctx := context.Background()

	todo, err := svc.AddTodo(ctx, "u1", "Buy milk", domain.PriorityHigh, nil)
	if err != nil {
		t.Fatalf("add todo: %v", err)
	}
	if todo.ID == "" {
		t.Error("expected a generated todo id")
	}
	if todo.Completed {
		t.Error("new todo must start incomplete")
	}
	if todo.Priority != domain.PriorityHigh {
		t.Errorf("priority = %q, want %q", todo.Priority, domain.PriorityHigh)
	}

	todos := svc.ToggleTodo(ctx, "u1", todo.ID)
	if len(todos) != 1 || !todos[0].Completed {
		t.Fatalf("expected one completed todo, got %+v", todos)
	}

	todos = svc.DeleteTodo(ctx, "u1", todo.ID)
	if len(todos) != 0 {
		t.Fatalf("expected empty list after delete, got %d todos", len(todos))
	}
}

func TestAddTodoRejectsEmptyText(t *testing.T) {
	svc, _ := newTestService(t, &fakeGenerator{})

	if _, err := svc.AddTodo(context.Background(), "u1", "   ", domain.PriorityLow, nil); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("err = %v, want ErrEmptyText", err)
	}
}

func TestAddTodoDefaultsInvalidPriority(t *testing.T) {
	svc, _ := newTestService(t, &fakeGenerator{})

	todo, err := svc.AddTodo(context.Background(), "u1", "Write report", domain.Priority("urgent"), nil)
	if err != nil {
		t.Fatalf("add todo: %v", err)
	}
	if todo.Priority != domain.PriorityMedium {
		t.Errorf("priority = %q, want %q", todo.Priority, domain.PriorityMedium)
	}
}

func TestTodosPersistAcrossServices(t *testing.T) {
	gen := &fakeGenerator{}
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	defer repo.Close()
	ctx := context.Background()

	first := NewService(repo, gen)
	if _, err := first.AddTodo(ctx, "u1", "Survives restart", domain.PriorityLow, nil); err != nil {
		t.Fatalf("add todo: %v", err)
	}

	second := NewService(repo, gen)
	todos := second.Todos(ctx, "u1")
	if len(todos) != 1 || todos[0].Text != "Survives restart" {
		t.Fatalf("expected persisted todo, got %+v", todos)
	}
}

func TestSelectTopicTransition(t *testing.T) {
	svc, _ := newTestService(t, &fakeGenerator{})
	ctx := context.Background()

	topic, ok := svc.SelectTopic(ctx, "u1", "1")
	if !ok {
		t.Fatal("expected topic 1 to exist")
	}
	if topic.Status != domain.TopicInProgress {
		t.Errorf("status = %q, want %q", topic.Status, domain.TopicInProgress)
	}
	if topic.Progress != domain.StartingProgress {
		t.Errorf("progress = %d, want %d", topic.Progress, domain.StartingProgress)
	}

	if _, ok := svc.SelectTopic(ctx, "u1", "missing"); ok {
		t.Error("expected ok=false for unknown topic id")
	}
}

func TestResumeReplacedWhole(t *testing.T) {
	svc, _ := newTestService(t, &fakeGenerator{})
	ctx := context.Background()

	updated := svc.UpdateResume(ctx, "u1", domain.ResumeData{
		Name:   "Ada Lovelace",
		Email:  "ada@example.com",
		Skills: []string{"Go", "SQL"},
	})
	if updated.Name != "Ada Lovelace" {
		t.Errorf("name = %q", updated.Name)
	}

	// A second full update with fewer fields wipes what it omits.
	updated = svc.UpdateResume(ctx, "u1", domain.ResumeData{Name: "Ada"})
	if updated.Email != "" {
		t.Errorf("expected email cleared, got %q", updated.Email)
	}
	if got := svc.Resume(ctx, "u1"); got.Name != "Ada" || got.Email != "" {
		t.Errorf("resume readback = %+v", got)
	}
}

func TestGenerateIdeasRejectsEmptySkills(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _ := newTestService(t, gen)

	_, err := svc.GenerateIdeas(context.Background(), "u1", nil, domain.DifficultyBeginner, 3)
	if !errors.Is(err, ErrNoSkills) {
		t.Fatalf("err = %v, want ErrNoSkills", err)
	}
	if gen.ideaCalls != 0 {
		t.Errorf("generator called %d times; empty skills must be rejected locally", gen.ideaCalls)
	}
}

func TestGenerateIdeasPrependsStamped(t *testing.T) {
	gen := &fakeGenerator{ideas: []gateway.GeneratedIdea{
		{Title: "CLI Habit Tracker", Description: "Track habits from the terminal.", Tags: []string{"Go", "CLI"}},
		{Title: "", Description: ""},
	}}
	svc, _ := newTestService(t, gen)
	ctx := context.Background()

	before := svc.Ideas(ctx, "u1")

	ideas, err := svc.GenerateIdeas(ctx, "u1", []string{"Go"}, domain.DifficultyAdvanced, 2)
	if err != nil {
		t.Fatalf("generate ideas: %v", err)
	}
	if len(ideas) != len(before)+2 {
		t.Fatalf("expected %d ideas, got %d", len(before)+2, len(ideas))
	}
	if ideas[0].Title != "CLI Habit Tracker" {
		t.Errorf("fresh ideas must come first, got %q", ideas[0].Title)
	}
	if ideas[0].ID == "" || ideas[0].ID == before[0].ID {
		t.Errorf("expected a fresh id, got %q", ideas[0].ID)
	}
	if ideas[0].Difficulty != domain.DifficultyAdvanced {
		t.Errorf("difficulty = %q, want the request difficulty", ideas[0].Difficulty)
	}
	if ideas[1].Title != "Untitled Project" {
		t.Errorf("empty title default = %q", ideas[1].Title)
	}
	if ideas[1].Description != "No description provided" {
		t.Errorf("empty description default = %q", ideas[1].Description)
	}
	// The seeded entries survive behind the fresh ones.
	if ideas[2].ID != before[0].ID {
		t.Errorf("existing ideas must be kept, got %q", ideas[2].ID)
	}
}

func TestGenerateIdeasFailureLeavesCollection(t *testing.T) {
	gen := &fakeGenerator{failureErr: &gateway.GatewayError{Status: 500, Message: "boom"}}
	svc, _ := newTestService(t, gen)
	ctx := context.Background()

	before := svc.Ideas(ctx, "u1")
	if _, err := svc.GenerateIdeas(ctx, "u1", []string{"Go"}, domain.DifficultyBeginner, 3); err == nil {
		t.Fatal("expected an error")
	}
	after := svc.Ideas(ctx, "u1")
	if len(after) != len(before) {
		t.Errorf("collection changed on failure: %d -> %d", len(before), len(after))
	}
}

func TestGenerateQuizFiltersUnstartedTopics(t *testing.T) {
	gen := &fakeGenerator{questions: []domain.Question{{ID: 1, Question: "Q?"}}}
	svc, _ := newTestService(t, gen)
	ctx := context.Background()

	// Topic 1 is seeded not_started, topic 2 in_progress.
	questions, err := svc.GenerateQuiz(ctx, "u1", []string{"1", "2"}, domain.QuizEasy)
	if err != nil {
		t.Fatalf("generate quiz: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
	if strings.Contains(gen.quizReq.Topic, "Linear Algebra") {
		t.Errorf("not_started topic leaked into the request: %q", gen.quizReq.Topic)
	}
	if !strings.Contains(gen.quizReq.Topic, "Calculus (math)") {
		t.Errorf("started topic missing from request: %q", gen.quizReq.Topic)
	}
	if gen.quizReq.Subject != "Engineering" {
		t.Errorf("subject = %q, want Engineering", gen.quizReq.Subject)
	}
	if gen.quizReq.QuestionCount != 5 {
		t.Errorf("question count = %d, want 5 for easy", gen.quizReq.QuestionCount)
	}
}

func TestGenerateQuizRejectsUnstartedSelection(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _ := newTestService(t, gen)

	_, err := svc.GenerateQuiz(context.Background(), "u1", []string{"1"}, domain.QuizMedium)
	if !errors.Is(err, ErrNoTopics) {
		t.Fatalf("err = %v, want ErrNoTopics", err)
	}
	if gen.quizCalls != 0 {
		t.Errorf("generator called %d times for an all-unstarted selection", gen.quizCalls)
	}
}

func TestGenerateQuizRateLimitSurfaces(t *testing.T) {
	gen := &fakeGenerator{failureErr: &gateway.GatewayError{Status: 429, Message: "Rate limit exceeded. Please try again in a moment."}}
	svc, _ := newTestService(t, gen)

	_, err := svc.GenerateQuiz(context.Background(), "u1", []string{"2"}, domain.QuizHard)
	if !errors.Is(err, gateway.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}
