package agent

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	// ErrInvalidConfig is returned when the agent configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrStorage is returned when a storage operation failed. Storage
	// failures are fatal to the operation that hit them.
	ErrStorage = errors.New("storage operation failed")

	// ErrSandboxUnavailable is returned when the sandbox could not be
	// created or recreated for a session.
	ErrSandboxUnavailable = errors.New("sandbox unavailable")

	// ErrInvalidToolSchema is returned when a tool schema is invalid
	ErrInvalidToolSchema = errors.New("invalid tool schema")
)

// OverflowClassifier decides whether a transport error means the request
// exceeded the model's context window.
type OverflowClassifier func(error) bool

// IsContextOverflow is the default OverflowClassifier. The API does not
// expose a stable error code for overflow, so it falls back to a substring
// heuristic over the error text.
func IsContextOverflow(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "context") ||
		strings.Contains(msg, "token") ||
		strings.Contains(msg, "too long")
}

// AgentError represents an error with additional context
type AgentError struct {
	Op        string // Operation that failed
	Err       error  // Underlying error
	SessionID string // Session ID if applicable
}

// Error implements the error interface
func (e *AgentError) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("%s (session=%s): %v", e.Op, e.SessionID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *AgentError) Unwrap() error {
	return e.Err
}

// NewAgentError creates a new AgentError
func NewAgentError(op string, err error) *AgentError {
	return &AgentError{
		Op:  op,
		Err: err,
	}
}

// NewAgentErrorWithSession creates a new AgentError with session ID
func NewAgentErrorWithSession(op string, sessionID string, err error) *AgentError {
	return &AgentError{
		Op:        op,
		Err:       err,
		SessionID: sessionID,
	}
}
