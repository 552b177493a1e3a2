package sandbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/hritik2002/runable-take-home-assignment/storage"
)

// DefaultNamePrefix prefixes the container name derived from a session id.
const DefaultNamePrefix = "agent-sandbox-"

// Monitor keeps one healthy environment per session. It reconciles the
// handle tracked in storage with what the runtime actually has: a healthy
// tracked environment is reused, anything else is replaced.
type Monitor struct {
	store  storage.Store
	runner Runner
	logger Logger
	prefix string
}

// NewMonitor creates a Monitor. If logger is nil a no-op logger is used.
func NewMonitor(store storage.Store, runner Runner, logger Logger) *Monitor {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Monitor{
		store:  store,
		runner: runner,
		logger: logger,
		prefix: DefaultNamePrefix,
	}
}

// IsHealthy probes the environment. Any probe failure collapses to false;
// there is no distinction between missing, stopped, and unreachable.
func (m *Monitor) IsHealthy(ctx context.Context, handle string) bool {
	return m.runner.Probe(ctx, handle) == nil
}

// Ensure returns a healthy environment handle for the session, creating one
// if needed. When the tracked environment is still healthy it is returned
// without any creation call, so Ensure is safe to run before every turn.
func (m *Monitor) Ensure(ctx context.Context, sessionID string) (string, error) {
	record, err := m.store.GetSandboxHandle(ctx, sessionID)
	if err == nil {
		if m.IsHealthy(ctx, record.Handle) {
			return record.Handle, nil
		}
		m.logger.Info("tracked sandbox unhealthy, recreating",
			"session_id", sessionID,
			"handle", record.Handle,
		)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("failed to load sandbox handle: %w", err)
	}

	handle, err := m.create(ctx, sessionID)
	if err != nil {
		return "", err
	}

	if _, err := m.store.SaveSandboxHandle(ctx, sessionID, handle); err != nil {
		return "", fmt.Errorf("failed to persist sandbox handle: %w", err)
	}

	m.logger.Info("sandbox ready", "session_id", sessionID, "handle", handle)
	return handle, nil
}

// Recreate discards the tracked environment and provisions a fresh one. Used
// when a command fails because the environment disappeared mid-turn.
func (m *Monitor) Recreate(ctx context.Context, sessionID string) (string, error) {
	if record, err := m.store.GetSandboxHandle(ctx, sessionID); err == nil {
		if err := m.runner.Remove(ctx, record.Handle); err != nil {
			m.logger.Warn("failed to remove stale sandbox",
				"session_id", sessionID,
				"handle", record.Handle,
				"error", err,
			)
		}
	}
	if err := m.store.DeleteSandboxHandle(ctx, sessionID); err != nil {
		return "", fmt.Errorf("failed to clear sandbox handle: %w", err)
	}
	return m.Ensure(ctx, sessionID)
}

// create provisions and starts a container for the session. A name collision
// with a stale container from a previous run is resolved by force-removing
// it and retrying exactly once.
func (m *Monitor) create(ctx context.Context, sessionID string) (string, error) {
	name := m.prefix + sessionID

	handle, err := m.runner.Create(ctx, name)
	if err != nil {
		m.logger.Warn("sandbox creation failed, removing stale container and retrying",
			"session_id", sessionID,
			"name", name,
			"error", err,
		)
		if removeErr := m.runner.Remove(ctx, name); removeErr != nil {
			m.logger.Warn("failed to remove stale container",
				"name", name,
				"error", removeErr,
			)
		}
		handle, err = m.runner.Create(ctx, name)
		if err != nil {
			return "", fmt.Errorf("failed to create sandbox for session %s: %w", sessionID, err)
		}
	}

	if err := m.runner.Start(ctx, handle); err != nil {
		return "", fmt.Errorf("failed to start sandbox for session %s: %w", sessionID, err)
	}

	return handle, nil
}
