package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultTimeout bounds a single tool execution.
const DefaultTimeout = 60 * time.Second

// Executor handles tool execution with error handling and timeouts
type Executor struct {
	registry *Registry
	timeout  time.Duration
}

// NewExecutor creates a new tool executor
func NewExecutor(registry *Registry) *Executor {
	return &Executor{
		registry: registry,
		timeout:  DefaultTimeout,
	}
}

// SetTimeout sets the per-call execution timeout
func (e *Executor) SetTimeout(timeout time.Duration) {
	e.timeout = timeout
}

// Result represents the result of a tool execution
type Result struct {
	ToolName string
	Input    json.RawMessage
	Output   string
	Error    error
	Duration time.Duration
}

// Execute executes a single tool call
func (e *Executor) Execute(ctx context.Context, toolName string, input json.RawMessage) *Result {
	start := time.Now()

	result := &Result{
		ToolName: toolName,
		Input:    input,
	}

	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	output, err := e.registry.Execute(execCtx, toolName, input)
	result.Output = output
	result.Error = err
	result.Duration = time.Since(start)

	if execCtx.Err() == context.DeadlineExceeded {
		result.Error = fmt.Errorf("tool execution timeout after %v", e.timeout)
	}

	return result
}
