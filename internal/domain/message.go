// Package domain contains core domain types for the Jarvis assistant.
package domain

import (
	"time"
)

// Role identifies who authored a conversation turn.
type Role string

const (
	// RoleUser marks a turn typed by the user.
	RoleUser Role = "user"
	// RoleAssistant marks a turn produced by the assistant.
	RoleAssistant Role = "assistant"
)

// Message is one turn in a conversation. The id is the identity: it must be
// unique within a conversation, and the only in-place mutation allowed is the
// wholesale content replacement of the turn currently being streamed.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatTurn is the wire shape sent to the AI gateway for context.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Turn converts a message into its gateway wire shape.
func (m Message) Turn() ChatTurn {
	return ChatTurn{Role: string(m.Role), Content: m.Content}
}
