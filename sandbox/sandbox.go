// Package sandbox manages per-session execution environments. A Runner knows
// how to create, probe, and run commands in one environment; the Monitor
// keeps a session's environment alive across process restarts.
package sandbox

import (
	"context"
	"errors"
)

// ErrEnvironmentGone indicates the environment a command was sent to no
// longer exists or is not running. Callers should recreate the environment
// and retry.
var ErrEnvironmentGone = errors.New("sandbox environment gone")

// ExecResult holds the outcome of a command executed in a sandbox.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner abstracts the container runtime behind the sandbox.
type Runner interface {
	// Create provisions a stopped environment under the given name and
	// returns its handle.
	Create(ctx context.Context, name string) (string, error)

	// Start brings a created environment up.
	Start(ctx context.Context, handle string) error

	// Probe checks that the environment exists and is running. Any failure
	// means unhealthy.
	Probe(ctx context.Context, handle string) error

	// Exec runs a shell command inside the environment. A non-zero exit
	// code is reported in the result, not as an error; Exec returns an
	// error only when the command could not be run at all, wrapping
	// ErrEnvironmentGone when the environment has disappeared.
	Exec(ctx context.Context, handle, command string) (*ExecResult, error)

	// Remove tears the environment down. Removing a missing environment is
	// not an error.
	Remove(ctx context.Context, handle string) error
}

// Logger interface for sandbox logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...any) {}
func (noopLogger) Info(msg string, args ...any)  {}
func (noopLogger) Warn(msg string, args ...any)  {}
func (noopLogger) Error(msg string, args ...any) {}
