package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hritik2002/runable-take-home-assignment/compaction"
	"github.com/hritik2002/runable-take-home-assignment/sandbox"
	"github.com/hritik2002/runable-take-home-assignment/storage"
	"github.com/hritik2002/runable-take-home-assignment/tool"
	"github.com/hritik2002/runable-take-home-assignment/tool/builtin"
	"github.com/hritik2002/runable-take-home-assignment/types"
)

// Agent runs resumable conversations backed by durable storage, a sandboxed
// execution environment, and automatic context compaction.
type Agent struct {
	store     storage.Store
	runner    sandbox.Runner
	monitor   *sandbox.Monitor
	transport Transport
	compactor *compaction.Compactor
	config    *internalConfig
}

// Response is the outcome of one user turn.
type Response struct {
	// SessionID identifies the session the turn ran in.
	SessionID string

	// Text is the assistant's final text for the turn.
	Text string

	// Usage is the authoritative token usage of the last model request.
	Usage *types.Usage

	// Compacted indicates a proactive compaction ran after this turn.
	Compacted bool
}

// New creates an Agent.
func New(store storage.Store, runner sandbox.Runner, cfg Config, opts ...Option) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	config := newInternalConfig(cfg)
	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	transport := config.transport
	if transport == nil {
		if config.client == nil {
			return nil, fmt.Errorf("%w: Anthropic client is required", ErrInvalidConfig)
		}
		transport = NewAnthropicTransport(config.client, config.model, config.maxTokens)
	}

	summarizer := config.summarizer
	if summarizer == nil {
		if config.client == nil {
			return nil, fmt.Errorf("%w: Anthropic client is required for summarization", ErrInvalidConfig)
		}
		summarizer = compaction.NewAnthropicSummarizer(config.client, config.summarizerModel, compaction.DefaultSummarizerMaxTokens)
	}

	compactorCfg := &compaction.Config{
		Trigger:            config.compactionTrigger,
		ContextWindow:      config.maxContextTokens,
		KeepLastTurns:      config.keepLastTurns,
		EmergencyKeepTurns: config.emergencyKeepTurns,
		SummarizerModel:    config.summarizerModel,
	}
	compactorCfg.ApplyDefaults()
	if err := compactorCfg.Validate(); err != nil {
		return nil, err
	}

	return &Agent{
		store:     store,
		runner:    runner,
		monitor:   sandbox.NewMonitor(store, runner, config.logger),
		transport: transport,
		compactor: compaction.New(summarizer, compactorCfg, config.logger),
		config:    config,
	}, nil
}

// Session returns the session with the given id, creating one when id is
// empty or unknown.
func (a *Agent) Session(ctx context.Context, id string) (*types.Session, error) {
	session, err := a.store.GetOrCreateSession(ctx, id)
	if err != nil {
		return nil, NewAgentError("Session", fmt.Errorf("%w: %v", ErrStorage, err))
	}
	return session, nil
}

// History returns the session's stored turns in order.
func (a *Agent) History(ctx context.Context, sessionID string) ([]*types.Turn, error) {
	turns, err := a.store.ListTurns(ctx, sessionID)
	if err != nil {
		return nil, NewAgentErrorWithSession("History", sessionID, fmt.Errorf("%w: %v", ErrStorage, err))
	}
	return turns, nil
}

// EnsureSandbox makes sure the session has a healthy execution environment.
// Called by the CLI at startup so sandbox problems surface before the first
// turn.
func (a *Agent) EnsureSandbox(ctx context.Context, sessionID string) error {
	if _, err := a.monitor.Ensure(ctx, sessionID); err != nil {
		return NewAgentErrorWithSession("EnsureSandbox", sessionID, fmt.Errorf("%w: %v", ErrSandboxUnavailable, err))
	}
	return nil
}

// RunTurn processes one user input: it persists the user turn, ensures the
// sandbox, runs the model-and-tools loop, and persists the assistant's
// reply. A context overflow on the first attempt triggers an emergency
// compaction and exactly one retry; any other failure (or a second overflow)
// is recorded as an assistant turn and returned.
//
// onText, if non-nil, receives assistant text incrementally as it streams.
func (a *Agent) RunTurn(ctx context.Context, sessionID, input string, onText func(string)) (*Response, error) {
	session, err := a.store.GetOrCreateSession(ctx, sessionID)
	if err != nil {
		return nil, NewAgentError("RunTurn", fmt.Errorf("%w: %v", ErrStorage, err))
	}

	if _, err := a.store.AppendTurn(ctx, session.ID, types.RoleUser, input); err != nil {
		return nil, NewAgentErrorWithSession("RunTurn", session.ID, fmt.Errorf("%w: %v", ErrStorage, err))
	}

	working, err := a.store.ListTurns(ctx, session.ID)
	if err != nil {
		return nil, NewAgentErrorWithSession("RunTurn", session.ID, fmt.Errorf("%w: %v", ErrStorage, err))
	}

	handle, err := a.monitor.Ensure(ctx, session.ID)
	if err != nil {
		return nil, NewAgentErrorWithSession("RunTurn", session.ID, fmt.Errorf("%w: %v", ErrSandboxUnavailable, err))
	}

	registry, err := a.buildRegistry(session.ID, &handle)
	if err != nil {
		return nil, NewAgentErrorWithSession("RunTurn", session.ID, err)
	}
	executor := tool.NewExecutor(registry)
	executor.SetTimeout(a.config.toolTimeout)

	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		completion, runErr := a.runInner(ctx, session.ID, &working, registry, executor, onText)
		if runErr == nil {
			compacted, compactErr := a.maybeCompact(ctx, session.ID, working, completion.Usage)
			if compactErr != nil {
				return nil, compactErr
			}
			return &Response{
				SessionID: session.ID,
				Text:      completion.Text,
				Usage:     completion.Usage,
				Compacted: compacted,
			}, nil
		}

		lastErr = runErr

		if attempt == 1 && a.config.classifyOverflow(runErr) {
			a.config.logger.Warn("context overflow, running emergency compaction",
				"session_id", session.ID,
				"error", runErr,
			)
			result := a.compactor.CompactEmergency(ctx, working)
			if err := a.store.ReplaceTurns(ctx, session.ID, result.Turns); err != nil {
				return nil, NewAgentErrorWithSession("RunTurn", session.ID, fmt.Errorf("%w: %v", ErrStorage, err))
			}
			working, err = a.store.ListTurns(ctx, session.ID)
			if err != nil {
				return nil, NewAgentErrorWithSession("RunTurn", session.ID, fmt.Errorf("%w: %v", ErrStorage, err))
			}
			if err := a.config.hooks.TriggerAfterCompaction(ctx, session.ID, result); err != nil {
				return nil, NewAgentErrorWithSession("RunTurn", session.ID, err)
			}
			continue
		}
		break
	}

	// Record the failure in the conversation so a resumed session sees it.
	errorContent := fmt.Sprintf("Error: %v", lastErr)
	if _, err := a.store.AppendTurn(ctx, session.ID, types.RoleAssistant, errorContent); err != nil {
		return nil, NewAgentErrorWithSession("RunTurn", session.ID, fmt.Errorf("%w: %v", ErrStorage, err))
	}

	return nil, NewAgentErrorWithSession("RunTurn", session.ID, lastErr)
}

// runInner drives the model-and-tools loop for one attempt. It appends
// assistant and tool-result turns to the store and the working list as it
// goes, and returns the final completion.
func (a *Agent) runInner(ctx context.Context, sessionID string, working *[]*types.Turn, registry *tool.Registry, executor *tool.Executor, onText func(string)) (*CompletionResponse, error) {
	for iteration := 0; iteration < a.config.maxToolIterations; iteration++ {
		if err := a.config.hooks.TriggerBeforeRequest(ctx, *working); err != nil {
			return nil, fmt.Errorf("before-request hook failed: %w", err)
		}

		completion, err := a.transport.Complete(ctx, &CompletionRequest{
			System: a.config.systemPrompt,
			Turns:  *working,
			Tools:  registry.ToAnthropicTools(),
			OnText: onText,
		})
		if err != nil {
			return nil, err
		}

		if err := a.config.hooks.TriggerAfterRequest(ctx, completion.Usage, completion.StopReason); err != nil {
			return nil, fmt.Errorf("after-request hook failed: %w", err)
		}

		if !completion.HasToolUses() {
			if completion.Text != "" {
				if err := a.appendWorking(ctx, sessionID, working, types.RoleAssistant, completion.Text); err != nil {
					return nil, err
				}
			}
			return completion, nil
		}

		// Persist the assistant's tool requests as text, then execute
		// them and persist the results the same way.
		if err := a.appendWorking(ctx, sessionID, working, types.RoleAssistant, formatToolUseTurn(completion)); err != nil {
			return nil, err
		}

		for _, use := range completion.ToolUses {
			result := executor.Execute(ctx, use.Name, use.Input)
			if hookErr := a.config.hooks.TriggerToolCall(ctx, use.Name, use.Input, result.Output, result.Error); hookErr != nil {
				return nil, fmt.Errorf("tool-call hook failed: %w", hookErr)
			}
			if err := a.appendWorking(ctx, sessionID, working, types.RoleUser, formatToolResultTurn(use.Name, result)); err != nil {
				return nil, err
			}
		}

		// The completion's text is already part of the serialized tool-use
		// turn above, so the exit branch does not persist it again.
		if completion.StopReason != "tool_use" {
			return completion, nil
		}
	}

	return nil, fmt.Errorf("max tool iterations (%d) reached", a.config.maxToolIterations)
}

// maybeCompact runs a proactive compaction when the turn's token signal is
// over the threshold. The authoritative API usage count is preferred; the
// character estimate only fills in when usage is missing.
func (a *Agent) maybeCompact(ctx context.Context, sessionID string, working []*types.Turn, usage *types.Usage) (bool, error) {
	signal := usage.TotalTokens()
	if signal == 0 {
		signal = compaction.EstimateTurns(working)
	}

	if !compaction.ShouldCompact(signal, a.config.triggerThreshold()) {
		return false, nil
	}

	result := a.compactor.CompactProactive(ctx, working)
	if result.Discarded == 0 && !result.SummaryCreated {
		return false, nil
	}

	if err := a.store.ReplaceTurns(ctx, sessionID, result.Turns); err != nil {
		return false, NewAgentErrorWithSession("RunTurn", sessionID, fmt.Errorf("%w: %v", ErrStorage, err))
	}
	if err := a.config.hooks.TriggerAfterCompaction(ctx, sessionID, result); err != nil {
		return false, NewAgentErrorWithSession("RunTurn", sessionID, err)
	}

	return true, nil
}

// appendWorking persists a turn and mirrors it into the working list.
func (a *Agent) appendWorking(ctx context.Context, sessionID string, working *[]*types.Turn, role types.Role, content string) error {
	turn, err := a.store.AppendTurn(ctx, sessionID, role, content)
	if err != nil {
		return NewAgentErrorWithSession("RunTurn", sessionID, fmt.Errorf("%w: %v", ErrStorage, err))
	}
	*working = append(*working, turn)
	return nil
}

// buildRegistry assembles the tool registry for a turn: the configured
// tools plus the bash tool bound to the session's sandbox. A vanished
// environment is recreated on the spot and the command retried against the
// new handle.
func (a *Agent) buildRegistry(sessionID string, handle *string) (*tool.Registry, error) {
	registry := tool.NewRegistry()
	if err := registry.RegisterAll(a.config.tools); err != nil {
		return nil, err
	}

	shell := builtin.NewShellTool(func(ctx context.Context, command string) (*sandbox.ExecResult, error) {
		result, err := a.runner.Exec(ctx, *handle, command)
		if !errors.Is(err, sandbox.ErrEnvironmentGone) {
			return result, err
		}

		a.config.logger.Warn("sandbox vanished mid-turn, recreating",
			"session_id", sessionID,
			"handle", *handle,
		)
		fresh, recreateErr := a.monitor.Recreate(ctx, sessionID)
		if recreateErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrSandboxUnavailable, recreateErr)
		}
		*handle = fresh
		return a.runner.Exec(ctx, *handle, command)
	})
	if err := registry.Register(shell); err != nil {
		return nil, err
	}

	return registry, nil
}

// formatToolUseTurn serializes a tool-requesting completion to text for
// storage.
func formatToolUseTurn(completion *CompletionResponse) string {
	parts := []string{}
	if completion.Text != "" {
		parts = append(parts, completion.Text)
	}
	for _, use := range completion.ToolUses {
		parts = append(parts, fmt.Sprintf("[Tool: %s, Input: %s]", use.Name, string(use.Input)))
	}
	return strings.Join(parts, "\n")
}

// formatToolResultTurn serializes a tool outcome to text for storage.
func formatToolResultTurn(name string, result *tool.Result) string {
	if result.Error != nil {
		return fmt.Sprintf("[Tool Error for %s: %v]", name, result.Error)
	}
	return fmt.Sprintf("[Tool Result for %s: %s]", name, result.Output)
}
