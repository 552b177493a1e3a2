package agent

import (
	"time"

	"github.com/hritik2002/runable-take-home-assignment/compaction"
	"github.com/hritik2002/runable-take-home-assignment/hooks"
	"github.com/hritik2002/runable-take-home-assignment/tool"
)

// Option is a functional option for configuring an Agent
type Option func(*internalConfig) error

// WithMaxTokens sets the maximum number of tokens to generate
func WithMaxTokens(n int64) Option {
	return func(c *internalConfig) error {
		c.maxTokens = n
		return nil
	}
}

// WithMaxToolIterations caps the number of tool rounds within one turn
func WithMaxToolIterations(n int) Option {
	return func(c *internalConfig) error {
		c.maxToolIterations = n
		return nil
	}
}

// WithToolTimeout sets the timeout for individual tool executions
func WithToolTimeout(d time.Duration) Option {
	return func(c *internalConfig) error {
		c.toolTimeout = d
		return nil
	}
}

// WithTools registers tools with the agent
func WithTools(tools ...tool.Tool) Option {
	return func(c *internalConfig) error {
		for _, t := range tools {
			if schema := t.InputSchema(); schema.Type != "object" {
				return NewAgentError("WithTools", ErrInvalidToolSchema)
			}
			c.tools = append(c.tools, t)
		}
		return nil
	}
}

// WithCompactionTrigger sets the context usage fraction (0.0-1.0) that
// triggers proactive compaction
func WithCompactionTrigger(trigger float64) Option {
	return func(c *internalConfig) error {
		c.compactionTrigger = trigger
		return nil
	}
}

// WithKeepLastTurns sets how many recent turns proactive compaction keeps
func WithKeepLastTurns(n int) Option {
	return func(c *internalConfig) error {
		c.keepLastTurns = n
		return nil
	}
}

// WithEmergencyKeepTurns sets how many recent turns emergency compaction
// keeps after a context overflow
func WithEmergencyKeepTurns(n int) Option {
	return func(c *internalConfig) error {
		c.emergencyKeepTurns = n
		return nil
	}
}

// WithSummarizerModel sets the model used for compaction summaries
func WithSummarizerModel(model string) Option {
	return func(c *internalConfig) error {
		c.summarizerModel = model
		return nil
	}
}

// WithMaxContextTokens overrides the context window size used for the
// proactive compaction threshold
func WithMaxContextTokens(n int) Option {
	return func(c *internalConfig) error {
		c.maxContextTokens = n
		return nil
	}
}

// WithOverflowClassifier replaces the default substring heuristic used to
// recognize context-overflow errors
func WithOverflowClassifier(classify OverflowClassifier) Option {
	return func(c *internalConfig) error {
		c.classifyOverflow = classify
		return nil
	}
}

// WithTransport replaces the Anthropic transport, mainly for tests
func WithTransport(transport Transport) Option {
	return func(c *internalConfig) error {
		c.transport = transport
		return nil
	}
}

// WithSummarizer replaces the Anthropic summarizer used for compaction
func WithSummarizer(summarizer compaction.Summarizer) Option {
	return func(c *internalConfig) error {
		c.summarizer = summarizer
		return nil
	}
}

// WithLogger sets the agent's logger
func WithLogger(logger Logger) Option {
	return func(c *internalConfig) error {
		c.logger = logger
		return nil
	}
}

// WithHooks replaces the agent's hook registry
func WithHooks(registry *hooks.Registry) Option {
	return func(c *internalConfig) error {
		if registry != nil {
			c.hooks = registry
		}
		return nil
	}
}
