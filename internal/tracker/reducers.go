// Package tracker manages the to-do, study-topic, resume, and project-idea
// collections.
package tracker

import (
	"github.com/jarvislab/jarvis/internal/domain"
)

// Reducers are pure: they take the latest collection and return the next one
// without mutating the input. Every reducer application is followed by a
// write-through persist of the result, and unknown ids fall through as
// no-ops.

func addTodo(todos []domain.Todo, todo domain.Todo) []domain.Todo {
	out := make([]domain.Todo, 0, len(todos)+1)
	out = append(out, todo)
	return append(out, todos...)
}

func toggleTodo(todos []domain.Todo, id string) []domain.Todo {
	out := make([]domain.Todo, len(todos))
	for i, t := range todos {
		if t.ID == id {
			t.Completed = !t.Completed
		}
		out[i] = t
	}
	return out
}

func deleteTodo(todos []domain.Todo, id string) []domain.Todo {
	out := make([]domain.Todo, 0, len(todos))
	for _, t := range todos {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// selectTopic moves a not_started topic to in_progress at the starting
// progress percentage. Topics already in progress or completed are left
// untouched — status only moves forward.
func selectTopic(topics []domain.Topic, id string) []domain.Topic {
	out := make([]domain.Topic, len(topics))
	for i, t := range topics {
		if t.ID == id && t.Status == domain.TopicNotStarted {
			t.Status = domain.TopicInProgress
			t.Progress = domain.StartingProgress
		}
		out[i] = t
	}
	return out
}

// prependIdeas puts freshly generated ideas ahead of the existing collection
// without replacing any existing entry.
func prependIdeas(ideas, fresh []domain.ProjectIdea) []domain.ProjectIdea {
	out := make([]domain.ProjectIdea, 0, len(ideas)+len(fresh))
	out = append(out, fresh...)
	return append(out, ideas...)
}
