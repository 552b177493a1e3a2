package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hritik2002/runable-take-home-assignment/types"
)

// SQLStore implements Store on database/sql for callers that cannot use pgx
// directly. Tested with lib/pq; the SQL uses $n placeholders and otherwise
// mirrors PostgresStore statement for statement.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a store backed by a database/sql handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Migrate creates the schema if it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, pgSchema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// GetOrCreateSession returns the existing session or creates a fresh one.
func (s *SQLStore) GetOrCreateSession(ctx context.Context, id string) (*types.Session, error) {
	if id != "" {
		session, err := s.GetSession(ctx, id)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	session := &types.Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO agent_sessions (id, created_at, updated_at)
		VALUES ($1, $2, $3)
	`
	if _, err := s.db.ExecContext(ctx, query, session.ID, session.CreatedAt, session.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// GetSession retrieves a session by id.
func (s *SQLStore) GetSession(ctx context.Context, id string) (*types.Session, error) {
	query := `
		SELECT id, created_at, updated_at
		FROM agent_sessions
		WHERE id = $1
	`

	var session types.Session
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &session, nil
}

// AppendTurn writes a turn with the next sequence number inside a transaction.
func (s *SQLStore) AppendTurn(ctx context.Context, sessionID string, role types.Role, content string) (*types.Turn, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	turn := types.NewTurn(sessionID, role, content)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO agent_turns (id, session_id, role, content, seq, created_at)
		VALUES ($1, $2, $3, $4,
			(SELECT COALESCE(MAX(seq) + 1, 0) FROM agent_turns WHERE session_id = $2),
			$5)
		RETURNING seq
	`
	err = tx.QueryRowContext(ctx, query, turn.ID, sessionID, string(role), content, turn.CreatedAt).Scan(&turn.Seq)
	if err != nil {
		return nil, fmt.Errorf("failed to append turn: %w", err)
	}

	touch := `UPDATE agent_sessions SET updated_at = NOW() WHERE id = $1`
	if _, err := tx.ExecContext(ctx, touch, sessionID); err != nil {
		return nil, fmt.Errorf("failed to touch session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit append: %w", err)
	}

	return turn, nil
}

// ListTurns returns all turns for a session ordered by sequence number.
func (s *SQLStore) ListTurns(ctx context.Context, sessionID string) ([]*types.Turn, error) {
	query := `
		SELECT id, session_id, role, content, seq, created_at
		FROM agent_turns
		WHERE session_id = $1
		ORDER BY seq ASC
	`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	turns := []*types.Turn{}
	for rows.Next() {
		var turn types.Turn
		var role string
		if err := rows.Scan(&turn.ID, &turn.SessionID, &role, &turn.Content, &turn.Seq, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turn.Role = types.Role(role)
		turns = append(turns, &turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating turns: %w", err)
	}

	return turns, nil
}

// ReplaceTurns atomically swaps the full turn set for a session.
func (s *SQLStore) ReplaceTurns(ctx context.Context, sessionID string, turns []*types.Turn) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM agent_turns WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete turns: %w", err)
	}

	insert := `
		INSERT INTO agent_turns (id, session_id, role, content, seq, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, turn := range turns {
		id := turn.ID
		if id == "" {
			id = uuid.New().String()
		}
		createdAt := turn.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx, id, sessionID, string(turn.Role), turn.Content, i, createdAt); err != nil {
			return fmt.Errorf("failed to insert replacement turn: %w", err)
		}
	}

	touch := `UPDATE agent_sessions SET updated_at = NOW() WHERE id = $1`
	if _, err := tx.ExecContext(ctx, touch, sessionID); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit replacement: %w", err)
	}

	return nil
}

// SaveSandboxHandle upserts the single handle row for a session.
func (s *SQLStore) SaveSandboxHandle(ctx context.Context, sessionID, handle string) (*types.SandboxHandle, error) {
	record := &types.SandboxHandle{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Handle:    handle,
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO agent_sandbox_handles (id, session_id, handle, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id) DO UPDATE SET
			handle = EXCLUDED.handle,
			created_at = EXCLUDED.created_at
	`
	if _, err := s.db.ExecContext(ctx, query, record.ID, sessionID, handle, record.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to save sandbox handle: %w", err)
	}

	return record, nil
}

// GetSandboxHandle returns the tracked handle for a session.
func (s *SQLStore) GetSandboxHandle(ctx context.Context, sessionID string) (*types.SandboxHandle, error) {
	query := `
		SELECT id, session_id, handle, created_at
		FROM agent_sandbox_handles
		WHERE session_id = $1
	`

	var record types.SandboxHandle
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&record.ID,
		&record.SessionID,
		&record.Handle,
		&record.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sandbox handle for session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sandbox handle: %w", err)
	}

	return &record, nil
}

// DeleteSandboxHandle removes the handle association for a session.
func (s *SQLStore) DeleteSandboxHandle(ctx context.Context, sessionID string) error {
	query := `DELETE FROM agent_sandbox_handles WHERE session_id = $1`
	if _, err := s.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete sandbox handle: %w", err)
	}
	return nil
}
