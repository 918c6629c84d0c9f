package tracker

import (
	"testing"

	"github.com/jarvislab/jarvis/internal/domain"
)

func TestAddTodoPrepends(t *testing.T) {
	todos := []domain.Todo{{ID: "old", Text: "old"}}
	todos = addTodo(todos, domain.Todo{ID: "new", Text: "new"})

	if len(todos) != 2 {
		t.Fatalf("expected 2 todos, got %d", len(todos))
	}
	if todos[0].ID != "new" {
		t.Errorf("expected new todo first, got %q", todos[0].ID)
	}
	if todos[1].ID != "old" {
		t.Errorf("expected old todo second, got %q", todos[1].ID)
	}
}

func TestToggleTodoTwiceRestoresState(t *testing.T) {
	todos := []domain.Todo{
		{ID: "a", Text: "one", Completed: false},
		{ID: "b", Text: "two", Completed: true},
	}

	once := toggleTodo(todos, "a")
	if !once[0].Completed {
		t.Error("expected first toggle to complete the todo")
	}
	if once[1].Completed != true {
		t.Error("toggle touched an unrelated todo")
	}

	twice := toggleTodo(once, "a")
	if twice[0].Completed {
		t.Error("expected second toggle to restore the todo")
	}
}

func TestToggleTodoUnknownIDIsNoOp(t *testing.T) {
	todos := []domain.Todo{{ID: "a", Completed: false}}
	out := toggleTodo(todos, "missing")
	if out[0].Completed {
		t.Error("unknown id changed a todo")
	}
}

func TestDeleteTodoRemovesOnlyTarget(t *testing.T) {
	todos := []domain.Todo{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	out := deleteTodo(todos, "b")

	if len(out) != 2 {
		t.Fatalf("expected 2 todos, got %d", len(out))
	}
	if out[0].ID != "a" || out[1].ID != "c" {
		t.Errorf("unexpected survivors: %q, %q", out[0].ID, out[1].ID)
	}
}

func TestSelectTopicStartsNotStarted(t *testing.T) {
	topics := []domain.Topic{
		{ID: "1", Status: domain.TopicNotStarted, Progress: 0},
	}
	out := selectTopic(topics, "1")

	if out[0].Status != domain.TopicInProgress {
		t.Errorf("status = %q, want %q", out[0].Status, domain.TopicInProgress)
	}
	if out[0].Progress != domain.StartingProgress {
		t.Errorf("progress = %d, want %d", out[0].Progress, domain.StartingProgress)
	}
}

func TestSelectTopicNeverMovesBackward(t *testing.T) {
	topics := []domain.Topic{
		{ID: "1", Status: domain.TopicInProgress, Progress: 45},
		{ID: "2", Status: domain.TopicCompleted, Progress: 100},
	}

	out := selectTopic(topics, "1")
	if out[0].Progress != 45 {
		t.Errorf("in_progress topic progress = %d, want 45", out[0].Progress)
	}

	out = selectTopic(out, "2")
	if out[1].Status != domain.TopicCompleted || out[1].Progress != 100 {
		t.Errorf("completed topic changed: %+v", out[1])
	}
}

func TestPrependIdeasKeepsExisting(t *testing.T) {
	existing := []domain.ProjectIdea{{ID: "1"}, {ID: "2"}}
	fresh := []domain.ProjectIdea{{ID: "3"}, {ID: "4"}}

	out := prependIdeas(existing, fresh)
	if len(out) != 4 {
		t.Fatalf("expected 4 ideas, got %d", len(out))
	}
	want := []string{"3", "4", "1", "2"}
	for i, id := range want {
		if out[i].ID != id {
			t.Errorf("out[%d].ID = %q, want %q", i, out[i].ID, id)
		}
	}
}
