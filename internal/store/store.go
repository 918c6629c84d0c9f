// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jarvislab/jarvis/internal/domain"
)

// Slot names for persisted collections. Each slot holds one JSON value per
// user and is the write-through mirror of the in-memory copy: it is written
// after every mutation and read only when the user's state is first loaded.
const (
	SlotMessages     = "messages"
	SlotTodos        = "todos"
	SlotTopics       = "topics"
	SlotResume       = "resume"
	SlotProjectIdeas = "projectIdeas"
)

// ErrSlotNotFound is returned by LoadSlot when the user has no value stored
// under the requested slot.
var ErrSlotNotFound = errors.New("slot not found")

// Repository defines the interface for persisting users and named slots.
type Repository interface {
	// GetUser retrieves a user by their user ID. Returns (nil, nil) when the
	// user does not exist.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpsertUser creates or updates a user record.
	UpsertUser(ctx context.Context, user *domain.User) error

	// UpdateLastSeen updates the last_seen_at timestamp for a user.
	UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error

	// LoadSlot retrieves the raw JSON value stored under (userID, slot).
	// Returns ErrSlotNotFound when nothing has been saved yet.
	LoadSlot(ctx context.Context, userID, slot string) ([]byte, error)

	// SaveSlot stores the raw JSON value under (userID, slot), replacing any
	// previous value.
	SaveSlot(ctx context.Context, userID, slot string, value []byte) error

	// DeleteSlot removes the value stored under (userID, slot).
	DeleteSlot(ctx context.Context, userID, slot string) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
