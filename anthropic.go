package agent

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	anthropicinternal "github.com/hritik2002/runable-take-home-assignment/internal/anthropic"
)

// AnthropicTransport implements Transport against the Anthropic streaming
// API.
type AnthropicTransport struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicTransport creates a transport for the given client and model.
func NewAnthropicTransport(client *anthropic.Client, model string, maxTokens int64) *AnthropicTransport {
	return &AnthropicTransport{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
	}
}

// Complete sends one streaming request and accumulates the full response.
// Text deltas are forwarded to req.OnText as they arrive.
func (t *AnthropicTransport) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(t.model),
		MaxTokens: t.maxTokens,
		Messages:  anthropicinternal.ConvertTurns(req.Turns),
	}

	if system := anthropicinternal.BuildSystemBlocks(req.System, req.Turns); len(system) > 0 {
		params.System = system
	}
	if len(req.Tools) > 0 {
		params.Tools = req.Tools
	}

	stream := t.client.Messages.NewStreaming(ctx, params)

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return nil, fmt.Errorf("failed to accumulate stream: %w", err)
		}

		if req.OnText != nil {
			if deltaEvent, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
				if textDelta, ok := deltaEvent.Delta.AsAny().(anthropic.TextDelta); ok {
					req.OnText(textDelta.Text)
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		return nil, err
	}

	response := &CompletionResponse{
		Text:       anthropicinternal.ExtractText(&message),
		StopReason: string(message.StopReason),
		Usage:      anthropicinternal.ExtractUsage(&message),
	}

	for _, block := range message.Content {
		if toolUse, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
			response.ToolUses = append(response.ToolUses, ToolUse{
				ID:    toolUse.ID,
				Name:  toolUse.Name,
				Input: toolUse.Input,
			})
		}
	}

	return response, nil
}
