package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hritik2002/runable-take-home-assignment/types"
)

// pgSchema bootstraps the three relations used by the agent.
const pgSchema = `
CREATE TABLE IF NOT EXISTS agent_sessions (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS agent_turns (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES agent_sessions(id),
	role       TEXT NOT NULL CHECK (role IN ('user', 'assistant', 'system')),
	content    TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (session_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_agent_turns_session_seq
	ON agent_turns (session_id, seq);

CREATE TABLE IF NOT EXISTS agent_sandbox_handles (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL UNIQUE REFERENCES agent_sessions(id),
	handle     TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// txContextKey is the context key for storing pgx.Tx
type txContextKey struct{}

// WithTx returns a new context with the given transaction. Store operations
// performed with the returned context run inside that transaction.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// TxFromContext retrieves the transaction from context, or nil if not present
func TxFromContext(ctx context.Context) pgx.Tx {
	if tx, ok := ctx.Value(txContextKey{}).(pgx.Tx); ok {
		return tx
	}
	return nil
}

// querier is a common interface for pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresStore implements Store using PostgreSQL with pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// getQuerier returns the transaction from context if present, otherwise the pool
func (s *PostgresStore) getQuerier(ctx context.Context) querier {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

// beginTx starts a write transaction. When the context already carries a
// transaction it nests inside it (pgx uses a savepoint), so writes commit or
// roll back with the outer transaction.
func (s *PostgresStore) beginTx(ctx context.Context) (pgx.Tx, error) {
	if outer := TxFromContext(ctx); outer != nil {
		return outer.Begin(ctx)
	}
	return s.pool.Begin(ctx)
}

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// GetOrCreateSession returns the existing session or creates a fresh one.
func (s *PostgresStore) GetOrCreateSession(ctx context.Context, id string) (*types.Session, error) {
	if id != "" {
		session, err := s.GetSession(ctx, id)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		// Unknown id: fall through and mint a new session.
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
	if _, err := s.getQuerier(ctx).Exec(ctx, query, session.ID, session.CreatedAt, session.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// GetSession retrieves a session by id.
func (s *PostgresStore) GetSession(ctx context.Context, id string) (*types.Session, error) {
	query := `
		SELECT id, created_at, updated_at
		FROM agent_sessions
		WHERE id = $1
	`

	var session types.Session
	err := s.getQuerier(ctx).QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &session, nil
}

// AppendTurn durably writes a turn with the next sequence number for the
// session and bumps the session's updated timestamp. Both writes happen in
// one transaction so the sequence assignment is never observed half-done.
func (s *PostgresStore) AppendTurn(ctx context.Context, sessionID string, role types.Role, content string) (*types.Turn, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	turn := types.NewTurn(sessionID, role, content)

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO agent_turns (id, session_id, role, content, seq, created_at)
		VALUES ($1, $2, $3, $4,
			(SELECT COALESCE(MAX(seq) + 1, 0) FROM agent_turns WHERE session_id = $2),
			$5)
		RETURNING seq
	`
	err = tx.QueryRow(ctx, query, turn.ID, sessionID, string(role), content, turn.CreatedAt).Scan(&turn.Seq)
	if err != nil {
		return nil, fmt.Errorf("failed to append turn: %w", err)
	}

	touch := `UPDATE agent_sessions SET updated_at = NOW() WHERE id = $1`
	if _, err := tx.Exec(ctx, touch, sessionID); err != nil {
		return nil, fmt.Errorf("failed to touch session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit append: %w", err)
	}

	return turn, nil
}

// ListTurns returns all turns for a session ordered by sequence number.
func (s *PostgresStore) ListTurns(ctx context.Context, sessionID string) ([]*types.Turn, error) {
	query := `
		SELECT id, session_id, role, content, seq, created_at
		FROM agent_turns
		WHERE session_id = $1
		ORDER BY seq ASC
	`

	rows, err := s.getQuerier(ctx).Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	return scanTurns(rows)
}

// ReplaceTurns atomically swaps the full turn set for a session,
// renumbering Seq 0..N-1 in the given order.
func (s *PostgresStore) ReplaceTurns(ctx context.Context, sessionID string, turns []*types.Turn) error {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM agent_turns WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete turns: %w", err)
	}

	batch := &pgx.Batch{}
	insert := `
		INSERT INTO agent_turns (id, session_id, role, content, seq, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i, turn := range turns {
		id := turn.ID
		if id == "" {
			id = uuid.New().String()
		}
		createdAt := turn.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		batch.Queue(insert, id, sessionID, string(turn.Role), turn.Content, i, createdAt)
	}

	results := tx.SendBatch(ctx, batch)
	for range turns {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert replacement turn: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	touch := `UPDATE agent_sessions SET updated_at = NOW() WHERE id = $1`
	if _, err := tx.Exec(ctx, touch, sessionID); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit replacement: %w", err)
	}

	return nil
}

// SaveSandboxHandle upserts the single handle row for a session.
func (s *PostgresStore) SaveSandboxHandle(ctx context.Context, sessionID, handle string) (*types.SandboxHandle, error) {
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
	if _, err := s.getQuerier(ctx).Exec(ctx, query, record.ID, sessionID, handle, record.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to save sandbox handle: %w", err)
	}

	return record, nil
}

// GetSandboxHandle returns the tracked handle for a session.
func (s *PostgresStore) GetSandboxHandle(ctx context.Context, sessionID string) (*types.SandboxHandle, error) {
	query := `
		SELECT id, session_id, handle, created_at
		FROM agent_sandbox_handles
		WHERE session_id = $1
	`

	var record types.SandboxHandle
	err := s.getQuerier(ctx).QueryRow(ctx, query, sessionID).Scan(
		&record.ID,
		&record.SessionID,
		&record.Handle,
		&record.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("sandbox handle for session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sandbox handle: %w", err)
	}

	return &record, nil
}

// DeleteSandboxHandle removes the handle association for a session.
func (s *PostgresStore) DeleteSandboxHandle(ctx context.Context, sessionID string) error {
	query := `DELETE FROM agent_sandbox_handles WHERE session_id = $1`
	if _, err := s.getQuerier(ctx).Exec(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete sandbox handle: %w", err)
	}
	return nil
}

// scanTurns is a helper to scan turn rows
func scanTurns(rows pgx.Rows) ([]*types.Turn, error) {
	turns := []*types.Turn{}

	for rows.Next() {
		var turn types.Turn
		var role string

		err := rows.Scan(
			&turn.ID,
			&turn.SessionID,
			&role,
			&turn.Content,
			&turn.Seq,
			&turn.CreatedAt,
		)
		if err != nil {
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
