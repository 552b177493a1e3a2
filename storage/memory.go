package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hritik2002/runable-take-home-assignment/types"
)

// MemoryStore is an in-memory Store for tests and ephemeral sessions. All
// methods are safe for concurrent use. Nothing survives process exit.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*types.Session
	turns    map[string][]*types.Turn
	handles  map[string]*types.SandboxHandle
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*types.Session),
		turns:    make(map[string][]*types.Turn),
		handles:  make(map[string]*types.SandboxHandle),
	}
}

// GetOrCreateSession returns the existing session or creates a fresh one.
func (s *MemoryStore) GetOrCreateSession(_ context.Context, id string) (*types.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if session, ok := s.sessions[id]; ok {
			copied := *session
			return &copied, nil
		}
	}

	session := &types.Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	s.sessions[session.ID] = session

	copied := *session
	return &copied, nil
}

// GetSession retrieves a session by id.
func (s *MemoryStore) GetSession(_ context.Context, id string) (*types.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}

	copied := *session
	return &copied, nil
}

// AppendTurn assigns the next sequence number and stores the turn.
func (s *MemoryStore) AppendTurn(_ context.Context, sessionID string, role types.Role, content string) (*types.Turn, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	turn := types.NewTurn(sessionID, role, content)
	turn.Seq = 0
	if existing := s.turns[sessionID]; len(existing) > 0 {
		turn.Seq = existing[len(existing)-1].Seq + 1
	}
	s.turns[sessionID] = append(s.turns[sessionID], turn)

	if session, ok := s.sessions[sessionID]; ok {
		session.UpdatedAt = time.Now().UTC()
	}

	copied := *turn
	return &copied, nil
}

// ListTurns returns all turns for the session sorted by sequence number.
func (s *MemoryStore) ListTurns(_ context.Context, sessionID string) ([]*types.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.turns[sessionID]
	turns := make([]*types.Turn, 0, len(stored))
	for _, t := range stored {
		copied := *t
		turns = append(turns, &copied)
	}
	sort.Slice(turns, func(i, j int) bool { return turns[i].Seq < turns[j].Seq })

	return turns, nil
}

// ReplaceTurns swaps the full turn set for a session, renumbering from zero.
func (s *MemoryStore) ReplaceTurns(_ context.Context, sessionID string, turns []*types.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := make([]*types.Turn, 0, len(turns))
	for i, turn := range turns {
		copied := *turn
		copied.SessionID = sessionID
		copied.Seq = i
		if copied.ID == "" {
			copied.ID = uuid.New().String()
		}
		if copied.CreatedAt.IsZero() {
			copied.CreatedAt = time.Now().UTC()
		}
		replaced = append(replaced, &copied)
	}
	s.turns[sessionID] = replaced

	if session, ok := s.sessions[sessionID]; ok {
		session.UpdatedAt = time.Now().UTC()
	}

	return nil
}

// SaveSandboxHandle records the live sandbox handle for a session.
func (s *MemoryStore) SaveSandboxHandle(_ context.Context, sessionID, handle string) (*types.SandboxHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := &types.SandboxHandle{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Handle:    handle,
		CreatedAt: time.Now().UTC(),
	}
	s.handles[sessionID] = record

	copied := *record
	return &copied, nil
}

// GetSandboxHandle returns the tracked handle for a session.
func (s *MemoryStore) GetSandboxHandle(_ context.Context, sessionID string) (*types.SandboxHandle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.handles[sessionID]
	if !ok {
		return nil, fmt.Errorf("sandbox handle for session %s: %w", sessionID, ErrNotFound)
	}

	copied := *record
	return &copied, nil
}

// DeleteSandboxHandle removes the handle association for a session.
func (s *MemoryStore) DeleteSandboxHandle(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.handles, sessionID)
	return nil
}
