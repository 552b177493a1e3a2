// Package storage persists sessions, conversation turns, and sandbox handle
// associations. The conversation log is append-only per session; the single
// destructive operation is ReplaceTurns, used by context compaction.
package storage

import (
	"context"
	"errors"

	"github.com/hritik2002/runable-take-home-assignment/types"
)

// ErrNotFound is returned when a session or sandbox handle does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for the agent.
//
// Turns for a session are totally ordered by their Seq field, which the store
// assigns. Readers must order by Seq, never by timestamp. Seq values are
// strictly increasing in insertion order but are not required to be gapless.
type Store interface {
	// GetOrCreateSession returns the session with the given id if it exists.
	// If id is empty or unknown, a fresh session with a generated id is
	// created and returned. The identity of an existing session is never
	// mutated.
	GetOrCreateSession(ctx context.Context, id string) (*types.Session, error)

	// GetSession retrieves a session by id. Returns ErrNotFound if missing.
	GetSession(ctx context.Context, id string) (*types.Session, error)

	// AppendTurn assigns the next sequence number for the session (one
	// greater than the current maximum, or 0 for the first turn), durably
	// writes the turn, and bumps the session's updated timestamp.
	AppendTurn(ctx context.Context, sessionID string, role types.Role, content string) (*types.Turn, error)

	// ListTurns returns all turns for the session sorted ascending by
	// sequence number. An empty slice is returned for a brand-new session.
	ListTurns(ctx context.Context, sessionID string) ([]*types.Turn, error)

	// ReplaceTurns atomically discards every existing turn for the session
	// and writes the given sequence, renumbering Seq 0..N-1 in the given
	// order. A concurrent reader never observes a mix of old and new turns.
	ReplaceTurns(ctx context.Context, sessionID string, turns []*types.Turn) error

	// SaveSandboxHandle records the live sandbox handle for a session,
	// replacing any prior association. At most one row per session.
	SaveSandboxHandle(ctx context.Context, sessionID, handle string) (*types.SandboxHandle, error)

	// GetSandboxHandle returns the tracked handle for a session, or
	// ErrNotFound when none is associated.
	GetSandboxHandle(ctx context.Context, sessionID string) (*types.SandboxHandle, error)

	// DeleteSandboxHandle removes the handle association for a session.
	// Deleting a missing association is not an error.
	DeleteSandboxHandle(ctx context.Context, sessionID string) error
}

// Migrator is implemented by stores that can bootstrap their own schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}
