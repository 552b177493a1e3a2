package compaction

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/hritik2002/runable-take-home-assignment/types"
)

// Summarizer produces a prose summary of a run of conversation turns.
// Implementations should return an error rather than an empty summary; the
// Compactor treats any error as a signal to fall back to discarding the turns.
type Summarizer interface {
	Summarize(ctx context.Context, turns []*types.Turn) (string, error)
}

// AnthropicSummarizer implements Summarizer using Claude's streaming API.
type AnthropicSummarizer struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropicSummarizer creates a Summarizer with the given client and
// configuration.
func NewAnthropicSummarizer(client *anthropic.Client, model string, maxTokens int) *AnthropicSummarizer {
	return &AnthropicSummarizer{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
	}
}

// Summarize generates a summary of the given turns using Claude's streaming
// API.
func (s *AnthropicSummarizer) Summarize(ctx context.Context, turns []*types.Turn) (string, error) {
	if len(turns) == 0 {
		return "", fmt.Errorf("%w: no turns to summarize", ErrSummarizationFailed)
	}

	userPrompt := BuildSummarizationUserPrompt(FormatTurnsAsText(turns))

	stream := s.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: int64(s.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: SummarizationSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})

	// Accumulate the streamed response
	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return "", fmt.Errorf("%w: failed to accumulate stream: %v", ErrSummarizationFailed, err)
		}
	}

	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSummarizationFailed, err)
	}

	var summary strings.Builder
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			summary.WriteString(text.Text)
		}
	}

	if summary.Len() == 0 {
		return "", fmt.Errorf("%w: empty response from summarizer", ErrSummarizationFailed)
	}

	return summary.String(), nil
}
