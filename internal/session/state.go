// Package session tracks per-user assistant state and pushes transitions to
// connected clients.
package session

import (
	"log/slog"
	"sync"
	"time"
)

// State is the assistant's visible activity state. It is held in an explicit
// tracker rather than ambient globals so every handler reads and writes the
// same record.
type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StateThinking  State = "thinking"
	StateSpeaking  State = "speaking"
)

// Event is one state transition, broadcast to the user's connected clients.
type Event struct {
	UserID    string    `json:"-"`
	SessionID string    `json:"-"`
	State     State     `json:"state"`
	At        time.Time `json:"at"`
}

// Notifier receives state transitions. Implemented by Hub; a nil-safe noop
// is used in tests.
type Notifier interface {
	Notify(ev Event)
}

// Tracker holds the current assistant state per user/session.
type Tracker struct {
	mu       sync.Mutex
	states   map[string]State
	notifier Notifier
}

// NewTracker creates a tracker broadcasting transitions to the given
// notifier. A nil notifier disables broadcasting.
func NewTracker(notifier Notifier) *Tracker {
	return &Tracker{
		states:   make(map[string]State),
		notifier: notifier,
	}
}

func stateKey(userID, sessionID string) string {
	return userID + ":" + sessionID
}

// Get returns the current state for a user/session, defaulting to idle.
func (t *Tracker) Get(userID, sessionID string) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.states[stateKey(userID, sessionID)]; ok {
		return s
	}
	return StateIdle
}

// Set transitions the user/session to the given state and broadcasts the
// change. Setting the current state again is a no-op.
func (t *Tracker) Set(userID, sessionID string, s State) {
	t.mu.Lock()
	key := stateKey(userID, sessionID)
	prev, ok := t.states[key]
	if !ok {
		prev = StateIdle
	}
	if prev == s {
		t.mu.Unlock()
		return
	}
	if s == StateIdle {
		delete(t.states, key)
	} else {
		t.states[key] = s
	}
	t.mu.Unlock()

	slog.Debug("Assistant state transition", "user_id", userID, "session_id", sessionID, "from", prev, "to", s)
	if t.notifier != nil {
		t.notifier.Notify(Event{
			UserID:    userID,
			SessionID: sessionID,
			State:     s,
			At:        time.Now().UTC(),
		})
	}
}

// SetListening flips the listening flag: turning it on moves the session to
// listening; turning it off returns to idle only when the session is
// currently listening, so it never clobbers an in-flight thinking or
// speaking state.
func (t *Tracker) SetListening(userID, sessionID string, listening bool) State {
	if listening {
		t.Set(userID, sessionID, StateListening)
		return StateListening
	}
	if t.Get(userID, sessionID) == StateListening {
		t.Set(userID, sessionID, StateIdle)
	}
	return t.Get(userID, sessionID)
}
