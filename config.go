package agent

import (
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/hritik2002/runable-take-home-assignment/compaction"
	"github.com/hritik2002/runable-take-home-assignment/hooks"
	"github.com/hritik2002/runable-take-home-assignment/tool"
)

// DefaultSystemPrompt is used when no system prompt is configured. It frames
// the sandboxed environment and the available tools.
const DefaultSystemPrompt = `You are a helpful coding agent with access to a sandboxed Linux environment.

You can run shell commands with the bash tool and work with files using the read_file, write_file, and list_dir tools. Command and file state persists for the duration of the session.

Work step by step. When a command fails, read the error output and adjust. Keep responses concise.`

// ModelInfo contains model-specific parameters
type ModelInfo struct {
	MaxContextTokens int
	DefaultMaxTokens int
}

// KnownModels maps model IDs to their capabilities
var KnownModels = map[string]ModelInfo{
	// Claude 4 models
	"claude-sonnet-4-5-20250929": {MaxContextTokens: 200000, DefaultMaxTokens: 16384},
	"claude-opus-4-5-20251101":   {MaxContextTokens: 200000, DefaultMaxTokens: 16384},
	// Claude 3.5 models
	"claude-3-5-sonnet-20241022": {MaxContextTokens: 200000, DefaultMaxTokens: 8192},
	"claude-3-5-haiku-20241022":  {MaxContextTokens: 200000, DefaultMaxTokens: 8192},
}

// GetModelInfo returns model info, using sensible defaults for unknown models
func GetModelInfo(model string) ModelInfo {
	if info, ok := KnownModels[model]; ok {
		return info
	}
	return ModelInfo{MaxContextTokens: 200000, DefaultMaxTokens: 8192}
}

// Config holds the required configuration for an agent. Storage, sandbox
// runner, and options are passed separately to New.
type Config struct {
	// Client is the Anthropic API client (required unless a Transport
	// override is supplied via WithTransport)
	Client *anthropic.Client

	// Model is the model ID to use (required)
	Model string

	// SystemPrompt is the system prompt for the agent. Empty selects
	// DefaultSystemPrompt.
	SystemPrompt string
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("%w: Model is required", ErrInvalidConfig)
	}
	return nil
}

// internalConfig holds the full agent configuration including optional
// parameters
type internalConfig struct {
	// Required from Config
	client       *anthropic.Client
	model        string
	systemPrompt string

	// Optional parameters
	maxTokens         int64
	maxToolIterations int
	toolTimeout       time.Duration

	// Compaction configuration
	compactionTrigger  float64 // context usage fraction that triggers proactive compaction
	keepLastTurns      int     // turns preserved by proactive compaction
	emergencyKeepTurns int     // turns preserved by emergency compaction
	summarizerModel    string
	maxContextTokens   int

	// Overflow detection
	classifyOverflow OverflowClassifier

	// Internal state
	transport  Transport             // overrides the default Anthropic transport when set
	summarizer compaction.Summarizer // overrides the default Anthropic summarizer when set
	tools      []tool.Tool
	hooks      *hooks.Registry
	logger     Logger
}

// newInternalConfig creates a new internal config from the public Config
func newInternalConfig(cfg Config) *internalConfig {
	modelInfo := GetModelInfo(cfg.Model)

	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	return &internalConfig{
		client:       cfg.Client,
		model:        cfg.Model,
		systemPrompt: systemPrompt,

		// Defaults
		maxTokens:         int64(modelInfo.DefaultMaxTokens),
		maxToolIterations: 10,
		toolTimeout:       60 * time.Second,

		// Model-aware compaction defaults
		compactionTrigger:  0.75,
		keepLastTurns:      6,
		emergencyKeepTurns: 4,
		summarizerModel:    "claude-3-5-haiku-20241022",
		maxContextTokens:   modelInfo.MaxContextTokens,

		classifyOverflow: IsContextOverflow,

		tools:  []tool.Tool{},
		hooks:  hooks.NewRegistry(),
		logger: noopLogger{},
	}
}

// triggerThreshold returns the absolute token count above which proactive
// compaction runs.
func (c *internalConfig) triggerThreshold() int {
	return int(float64(c.maxContextTokens) * c.compactionTrigger)
}
