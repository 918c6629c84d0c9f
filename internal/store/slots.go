package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/jarvislab/jarvis/internal/domain"
)

// Typed slot accessors. Loads tolerate absent or corrupt entries by returning
// the provided default; saves tolerate storage failures by logging and
// continuing. Persistence failure must never interrupt the in-memory state
// update that triggered it, so none of these return an error to the caller.
//
// Timestamps are stored as RFC3339 strings inside the JSON value; decoding
// into time.Time fields rehydrates them into instants, so messages and todos
// come back with comparable times rather than raw strings.

func loadSlot[T any](ctx context.Context, repo Repository, userID, slot string, def T) T {
	raw, err := repo.LoadSlot(ctx, userID, slot)
	if err != nil {
		if !errors.Is(err, ErrSlotNotFound) {
			slog.Warn("Failed to load slot, using default", "slot", slot, "user_id", userID, "error", err)
		}
		return def
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		slog.Warn("Corrupt slot value, using default", "slot", slot, "user_id", userID, "error", err)
		return def
	}
	return v
}

func saveSlot(ctx context.Context, repo Repository, userID, slot string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to encode slot value", "slot", slot, "user_id", userID, "error", err)
		return
	}
	if err := repo.SaveSlot(ctx, userID, slot, raw); err != nil {
		slog.Error("Failed to persist slot, continuing in-memory", "slot", slot, "user_id", userID, "error", err)
	}
}

// LoadMessages loads the persisted conversation for a user.
func LoadMessages(ctx context.Context, repo Repository, userID string) []domain.Message {
	return loadSlot(ctx, repo, userID, SlotMessages, []domain.Message{})
}

// SaveMessages persists the conversation for a user.
func SaveMessages(ctx context.Context, repo Repository, userID string, msgs []domain.Message) {
	saveSlot(ctx, repo, userID, SlotMessages, msgs)
}

// LoadTodos loads the persisted todo collection for a user.
func LoadTodos(ctx context.Context, repo Repository, userID string) []domain.Todo {
	return loadSlot(ctx, repo, userID, SlotTodos, []domain.Todo{})
}

// SaveTodos persists the todo collection for a user.
func SaveTodos(ctx context.Context, repo Repository, userID string, todos []domain.Todo) {
	saveSlot(ctx, repo, userID, SlotTodos, todos)
}

// LoadTopics loads the persisted topic collection for a user, defaulting to
// the seeded curriculum.
func LoadTopics(ctx context.Context, repo Repository, userID string) []domain.Topic {
	return loadSlot(ctx, repo, userID, SlotTopics, domain.DefaultTopics())
}

// SaveTopics persists the topic collection for a user.
func SaveTopics(ctx context.Context, repo Repository, userID string, topics []domain.Topic) {
	saveSlot(ctx, repo, userID, SlotTopics, topics)
}

// LoadResume loads the persisted resume record for a user.
func LoadResume(ctx context.Context, repo Repository, userID string) domain.ResumeData {
	return loadSlot(ctx, repo, userID, SlotResume, domain.EmptyResume())
}

// SaveResume persists the resume record for a user.
func SaveResume(ctx context.Context, repo Repository, userID string, resume domain.ResumeData) {
	saveSlot(ctx, repo, userID, SlotResume, resume)
}

// LoadProjectIdeas loads the persisted idea collection for a user, defaulting
// to the seeded ideas.
func LoadProjectIdeas(ctx context.Context, repo Repository, userID string) []domain.ProjectIdea {
	return loadSlot(ctx, repo, userID, SlotProjectIdeas, domain.DefaultProjectIdeas())
}

// SaveProjectIdeas persists the idea collection for a user.
func SaveProjectIdeas(ctx context.Context, repo Repository, userID string, ideas []domain.ProjectIdea) {
	saveSlot(ctx, repo, userID, SlotProjectIdeas, ideas)
}
