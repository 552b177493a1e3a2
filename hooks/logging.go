package hooks

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hritik2002/runable-take-home-assignment/compaction"
	"github.com/hritik2002/runable-take-home-assignment/types"
)

// LoggingHooks provides built-in logging hooks for observability
type LoggingHooks struct {
	logger *log.Logger
}

// NewLoggingHooks creates logging hooks with the provided logger
func NewLoggingHooks(logger *log.Logger) *LoggingHooks {
	return &LoggingHooks{logger: logger}
}

// DefaultLoggingHooks creates logging hooks with the default logger
func DefaultLoggingHooks() *LoggingHooks {
	return &LoggingHooks{logger: log.Default()}
}

// Install registers every logging hook on the registry.
func (h *LoggingHooks) Install(registry *Registry) {
	registry.OnBeforeRequest(h.BeforeRequest)
	registry.OnAfterRequest(h.AfterRequest)
	registry.OnToolCall(h.ToolCall)
	registry.OnAfterCompaction(h.AfterCompaction)
}

// BeforeRequest logs before sending turns to the API
func (h *LoggingHooks) BeforeRequest(ctx context.Context, turns []*types.Turn) error {
	h.logger.Printf("[agent] Sending %d turns to Anthropic API", len(turns))
	return nil
}

// AfterRequest logs after receiving a response
func (h *LoggingHooks) AfterRequest(ctx context.Context, usage *types.Usage, stopReason string) error {
	h.logger.Printf("[agent] Received response: stop_reason=%s tokens=%d", stopReason, usage.TotalTokens())
	return nil
}

// ToolCall logs tool execution
func (h *LoggingHooks) ToolCall(ctx context.Context, toolName string, input json.RawMessage, output string, err error) error {
	if err != nil {
		h.logger.Printf("[agent] Tool '%s' failed: %v", toolName, err)
	} else {
		outputPreview := output
		if len(outputPreview) > 100 {
			outputPreview = outputPreview[:100] + "..."
		}
		h.logger.Printf("[agent] Tool '%s' succeeded: %s", toolName, outputPreview)
	}
	return nil
}

// AfterCompaction logs compaction results
func (h *LoggingHooks) AfterCompaction(ctx context.Context, sessionID string, result *compaction.Result) error {
	if result.FellBack {
		h.logger.Printf("[agent] Compaction for session %s fell back: %d turns dropped without summary",
			sessionID, result.Discarded)
		return nil
	}
	h.logger.Printf("[agent] Compaction for session %s complete: %d turns discarded, summary_created=%v",
		sessionID, result.Discarded, result.SummaryCreated)
	return nil
}
