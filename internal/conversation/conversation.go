// Package conversation maintains the ordered log of chat turns.
package conversation

import (
	"sync"

	"github.com/jarvislab/jarvis/internal/domain"
)

// Log is the single source of truth for one user's conversation: an ordered,
// append-only list of turns keyed by message id. The only in-place mutation
// is the wholesale content replacement of the turn currently being streamed,
// performed via AppendOrReplace — never by positional index, so a late or
// out-of-order delivery cannot clobber a different turn.
type Log struct {
	mu       sync.RWMutex
	messages []domain.Message
	index    map[string]int
}

// New creates a log seeded with the given messages (typically the persisted
// conversation loaded at startup). Messages with duplicate ids keep the last
// occurrence's content.
func New(msgs []domain.Message) *Log {
	l := &Log{index: make(map[string]int, len(msgs))}
	for _, m := range msgs {
		l.appendOrReplaceLocked(m)
	}
	return l
}

// Append adds a new turn to the end of the log. Appending an id that already
// exists replaces that turn's content instead, preserving id uniqueness.
func (l *Log) Append(m domain.Message) {
	l.AppendOrReplace(m)
}

// AppendOrReplace adds the turn if its id is new, or replaces the existing
// turn's content wholesale if the id is already present.
func (l *Log) AppendOrReplace(m domain.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.appendOrReplaceLocked(m)
}

func (l *Log) appendOrReplaceLocked(m domain.Message) {
	if i, ok := l.index[m.ID]; ok {
		l.messages[i] = m
		return
	}
	l.index[m.ID] = len(l.messages)
	l.messages = append(l.messages, m)
}

// Contains reports whether a turn with the given id exists.
func (l *Log) Contains(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.index[id]
	return ok
}

// Len returns the number of turns in the log.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// Snapshot returns a copy of the full log in insertion order.
func (l *Log) Snapshot() []domain.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Recent returns a copy of the last n turns, oldest-first. This is the
// context window sent to the AI gateway.
func (l *Log) Recent(n int) []domain.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n > len(l.messages) {
		n = len(l.messages)
	}
	out := make([]domain.Message, n)
	copy(out, l.messages[len(l.messages)-n:])
	return out
}
