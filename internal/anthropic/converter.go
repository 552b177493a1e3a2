// Package anthropic converts between stored conversation turns and the
// Anthropic API request/response shapes.
package anthropic

import (
	"github.com/anthropics/anthropic-sdk-go"

	"github.com/hritik2002/runable-take-home-assignment/types"
)

// ConvertTurns converts stored turns to Anthropic message parameters.
// System turns are skipped; they belong in the request's system blocks.
func ConvertTurns(turns []*types.Turn) []anthropic.MessageParam {
	params := make([]anthropic.MessageParam, 0, len(turns))

	for _, turn := range turns {
		if turn.Role == types.RoleSystem {
			continue
		}
		params = append(params, anthropic.MessageParam{
			Role: anthropic.MessageParamRole(turn.Role),
			Content: []anthropic.ContentBlockParamUnion{
				anthropic.NewTextBlock(turn.Content),
			},
		})
	}

	return params
}

// BuildSystemBlocks assembles the system blocks for a request: the
// configured system prompt first, then any system turns from the
// conversation, in order.
func BuildSystemBlocks(systemPrompt string, turns []*types.Turn) []anthropic.TextBlockParam {
	blocks := []anthropic.TextBlockParam{}
	if systemPrompt != "" {
		blocks = append(blocks, anthropic.TextBlockParam{Text: systemPrompt})
	}
	for _, turn := range turns {
		if turn.Role == types.RoleSystem {
			blocks = append(blocks, anthropic.TextBlockParam{Text: turn.Content})
		}
	}
	return blocks
}

// ExtractText concatenates all text blocks of a response message.
func ExtractText(msg *anthropic.Message) string {
	var text string
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += tb.Text
		}
	}
	return text
}

// ExtractUsage converts the response usage to the agent's Usage type.
func ExtractUsage(msg *anthropic.Message) *types.Usage {
	return &types.Usage{
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}
}
