// Package hooks provides an observability hook registry for the agent.
package hooks

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hritik2002/runable-take-home-assignment/compaction"
	"github.com/hritik2002/runable-take-home-assignment/types"
)

// BeforeRequestHook is called before sending turns to the API
type BeforeRequestHook func(ctx context.Context, turns []*types.Turn) error

// AfterRequestHook is called after receiving a response from the API
type AfterRequestHook func(ctx context.Context, usage *types.Usage, stopReason string) error

// ToolCallHook is called when a tool is executed
// Parameters: ctx, toolName, input, output, error
type ToolCallHook func(ctx context.Context, toolName string, input json.RawMessage, output string, err error) error

// AfterCompactionHook is called after context compaction
type AfterCompactionHook func(ctx context.Context, sessionID string, result *compaction.Result) error

// Registry holds all registered hooks
type Registry struct {
	mu              sync.RWMutex
	beforeRequest   []BeforeRequestHook
	afterRequest    []AfterRequestHook
	toolCall        []ToolCallHook
	afterCompaction []AfterCompactionHook
}

// NewRegistry creates a new hook registry
func NewRegistry() *Registry {
	return &Registry{}
}

// OnBeforeRequest registers a hook to be called before sending a request
func (r *Registry) OnBeforeRequest(hook BeforeRequestHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeRequest = append(r.beforeRequest, hook)
}

// OnAfterRequest registers a hook to be called after receiving a response
func (r *Registry) OnAfterRequest(hook AfterRequestHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterRequest = append(r.afterRequest, hook)
}

// OnToolCall registers a hook to be called when a tool is executed
func (r *Registry) OnToolCall(hook ToolCallHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toolCall = append(r.toolCall, hook)
}

// OnAfterCompaction registers a hook to be called after compaction
func (r *Registry) OnAfterCompaction(hook AfterCompactionHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterCompaction = append(r.afterCompaction, hook)
}

// TriggerBeforeRequest calls all registered before-request hooks
func (r *Registry) TriggerBeforeRequest(ctx context.Context, turns []*types.Turn) error {
	r.mu.RLock()
	hooks := make([]BeforeRequestHook, len(r.beforeRequest))
	copy(hooks, r.beforeRequest)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, turns); err != nil {
			return err
		}
	}
	return nil
}

// TriggerAfterRequest calls all registered after-request hooks
func (r *Registry) TriggerAfterRequest(ctx context.Context, usage *types.Usage, stopReason string) error {
	r.mu.RLock()
	hooks := make([]AfterRequestHook, len(r.afterRequest))
	copy(hooks, r.afterRequest)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, usage, stopReason); err != nil {
			return err
		}
	}
	return nil
}

// TriggerToolCall calls all registered tool-call hooks
func (r *Registry) TriggerToolCall(ctx context.Context, toolName string, input json.RawMessage, output string, err error) error {
	r.mu.RLock()
	hooks := make([]ToolCallHook, len(r.toolCall))
	copy(hooks, r.toolCall)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if hookErr := hook(ctx, toolName, input, output, err); hookErr != nil {
			return hookErr
		}
	}
	return nil
}

// TriggerAfterCompaction calls all registered after-compaction hooks
func (r *Registry) TriggerAfterCompaction(ctx context.Context, sessionID string, result *compaction.Result) error {
	r.mu.RLock()
	hooks := make([]AfterCompactionHook, len(r.afterCompaction))
	copy(hooks, r.afterCompaction)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, sessionID, result); err != nil {
			return err
		}
	}
	return nil
}
