// Package types defines the value types shared across the agent:
// sessions, conversation turns, and sandbox handles.
package types

import (
	"time"

	"github.com/google/uuid"
)

// Role represents the turn role
type Role string

const (
	// RoleUser represents a user turn
	RoleUser Role = "user"

	// RoleAssistant represents an assistant turn
	RoleAssistant Role = "assistant"

	// RoleSystem represents a system turn
	RoleSystem Role = "system"
)

// Valid reports whether the role is one of the closed set.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant || r == RoleSystem
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Turn is one message in a conversation. Turns are immutable once written;
// Seq defines the total order within a session and is the only field readers
// may order by. Content is always plain text: tool calls and tool results are
// serialized to text before they reach storage.
type Turn struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Seq       int       `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTurn creates an unsequenced turn. The store assigns Seq on append.
func NewTurn(sessionID string, role Role, content string) *Turn {
	return &Turn{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Seq:       -1,
		CreatedAt: time.Now().UTC(),
	}
}

// Session represents a resumable conversation session.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SandboxHandle associates a session with its live execution environment.
// At most one live handle is tracked per session.
type SandboxHandle struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Handle    string    `json:"handle"`
	CreatedAt time.Time `json:"created_at"`
}

// Usage holds the authoritative token consumption reported by the model API
// for a single request.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// TotalTokens returns the sum of input and output tokens.
func (u *Usage) TotalTokens() int {
	if u == nil {
		return 0
	}
	return u.InputTokens + u.OutputTokens
}

// TotalChars returns the combined content length of the given turns.
func TotalChars(turns []*Turn) int {
	total := 0
	for _, t := range turns {
		total += len(t.Content)
	}
	return total
}
