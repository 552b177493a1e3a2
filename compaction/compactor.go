// Package compaction keeps a conversation inside the model's context window.
// It provides a deterministic token estimator and a Compactor that replaces
// old turns with a model-written summary, preserving system turns and the
// most recent exchange verbatim.
package compaction

import (
	"context"
	"fmt"
	"time"

	"github.com/hritik2002/runable-take-home-assignment/types"
)

// Logger interface for compaction logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a no-op implementation of Logger.
type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...any) {}
func (noopLogger) Info(msg string, args ...any)  {}
func (noopLogger) Warn(msg string, args ...any)  {}
func (noopLogger) Error(msg string, args ...any) {}

// Result contains the outcome of a compaction operation.
type Result struct {
	// Turns is the compacted conversation, in order. When nothing was
	// eligible for compaction this is the input, unchanged.
	Turns []*types.Turn

	// Discarded is the number of turns removed from the conversation.
	Discarded int

	// SummaryCreated indicates whether a summary turn was produced.
	SummaryCreated bool

	// FellBack indicates the summarization call failed and the discarded
	// turns were dropped without a summary. Observability only: callers
	// proceed with Turns either way.
	FellBack bool

	// Duration is how long the compaction took.
	Duration time.Duration
}

// Compactor shrinks conversations by summarizing older turns.
type Compactor struct {
	summarizer Summarizer
	config     *Config
	logger     Logger
}

// New creates a Compactor with the given summarizer and configuration.
// If config is nil, default configuration is used.
func New(summarizer Summarizer, config *Config, logger Logger) *Compactor {
	if config == nil {
		config = DefaultConfig()
	} else {
		config.ApplyDefaults()
	}

	if logger == nil {
		logger = noopLogger{}
	}

	return &Compactor{
		summarizer: summarizer,
		config:     config,
		logger:     logger,
	}
}

// Config returns the compactor's configuration.
func (c *Compactor) Config() *Config {
	return c.config
}

// CompactProactive compacts with the standard retention window.
func (c *Compactor) CompactProactive(ctx context.Context, turns []*types.Turn) *Result {
	return c.Compact(ctx, turns, c.config.KeepLastTurns)
}

// CompactEmergency compacts with the tighter retention window used after a
// context overflow.
func (c *Compactor) CompactEmergency(ctx context.Context, turns []*types.Turn) *Result {
	return c.Compact(ctx, turns, c.config.EmergencyKeepTurns)
}

// Compact shrinks the conversation, keeping every system turn and the last
// keepLast non-system turns verbatim. Older non-system turns are replaced by
// a single assistant summary turn. Compact never fails: if summarization
// errors, the old turns are dropped outright and the result is flagged with
// FellBack.
func (c *Compactor) Compact(ctx context.Context, turns []*types.Turn, keepLast int) *Result {
	start := time.Now()

	// Partition into system turns and the rest, order preserved.
	system := make([]*types.Turn, 0, len(turns))
	rest := make([]*types.Turn, 0, len(turns))
	for _, turn := range turns {
		if turn.Role == types.RoleSystem {
			system = append(system, turn)
		} else {
			rest = append(rest, turn)
		}
	}

	if len(rest) <= keepLast {
		c.logger.Debug("nothing to compact", "turns", len(turns), "keep_last", keepLast)
		return &Result{Turns: turns, Duration: time.Since(start)}
	}

	old := rest[:len(rest)-keepLast]
	recent := rest[len(rest)-keepLast:]

	sessionID := ""
	if len(turns) > 0 {
		sessionID = turns[0].SessionID
	}

	summaryText, err := c.summarizer.Summarize(ctx, old)
	if err != nil {
		c.logger.Warn("summarization failed, dropping old turns without summary",
			"session_id", sessionID,
			"discarded", len(old),
			"error", err,
		)
		compacted := make([]*types.Turn, 0, len(system)+len(recent))
		compacted = append(compacted, system...)
		compacted = append(compacted, recent...)
		return &Result{
			Turns:     compacted,
			Discarded: len(old),
			FellBack:  true,
			Duration:  time.Since(start),
		}
	}

	content := fmt.Sprintf("[Summary of %d previous messages]\n%s", len(old), summaryText)
	summary := types.NewTurn(sessionID, types.RoleAssistant, content)

	compacted := make([]*types.Turn, 0, len(system)+1+len(recent))
	compacted = append(compacted, system...)
	compacted = append(compacted, summary)
	compacted = append(compacted, recent...)

	c.logger.Info("compaction complete",
		"session_id", sessionID,
		"discarded", len(old),
		"turns_before", len(turns),
		"turns_after", len(compacted),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &Result{
		Turns:          compacted,
		Discarded:      len(old),
		SummaryCreated: true,
		Duration:       time.Since(start),
	}
}
