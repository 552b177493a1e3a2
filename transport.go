package agent

import (
	"context"
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/hritik2002/runable-take-home-assignment/types"
)

// ToolUse is a tool invocation requested by the model.
type ToolUse struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// CompletionRequest carries one model request. Turns is the full working
// list including system turns; the transport routes system turns into the
// request's system blocks.
type CompletionRequest struct {
	System string
	Turns  []*types.Turn
	Tools  []anthropic.ToolUnionParam

	// OnText, if set, is called with each text delta as it streams in.
	OnText func(delta string)
}

// CompletionResponse is the accumulated result of one model request.
type CompletionResponse struct {
	Text       string
	ToolUses   []ToolUse
	StopReason string
	Usage      *types.Usage
}

// HasToolUses reports whether the model requested any tool invocations.
func (r *CompletionResponse) HasToolUses() bool {
	return len(r.ToolUses) > 0
}

// Transport sends completion requests to a model. The production
// implementation streams from the Anthropic API; tests inject fakes.
type Transport interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}
