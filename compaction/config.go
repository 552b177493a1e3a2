package compaction

import "fmt"

// Default configuration values.
const (
	DefaultTrigger             = 0.75 // compact at 75% context usage
	DefaultContextWindow       = 200000
	DefaultKeepLastTurns       = 6
	DefaultEmergencyKeepTurns  = 4
	DefaultSummarizerModel     = "claude-3-5-haiku-latest"
	DefaultSummarizerMaxTokens = 2048
)

// Config holds compaction configuration.
type Config struct {
	// Trigger is the context usage fraction (0.0-1.0) above which proactive
	// compaction runs.
	// Default: 0.75
	Trigger float64

	// ContextWindow is the context window of the target model in tokens.
	// Used to derive the absolute trigger threshold.
	// Default: 200000
	ContextWindow int

	// KeepLastTurns is the number of recent non-system turns preserved
	// verbatim by a proactive compaction.
	// Default: 6
	KeepLastTurns int

	// EmergencyKeepTurns is the number of recent non-system turns preserved
	// by an emergency compaction after a context overflow.
	// Default: 4
	EmergencyKeepTurns int

	// SummarizerModel is the model used for summarization.
	// Using a faster/cheaper model is recommended.
	// Default: "claude-3-5-haiku-latest"
	SummarizerModel string

	// SummarizerMaxTokens is the maximum tokens for the summarization response.
	// Default: 2048
	SummarizerMaxTokens int
}

// DefaultConfig returns a Config with the package defaults.
func DefaultConfig() *Config {
	return &Config{
		Trigger:             DefaultTrigger,
		ContextWindow:       DefaultContextWindow,
		KeepLastTurns:       DefaultKeepLastTurns,
		EmergencyKeepTurns:  DefaultEmergencyKeepTurns,
		SummarizerModel:     DefaultSummarizerModel,
		SummarizerMaxTokens: DefaultSummarizerMaxTokens,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Trigger == 0 {
		c.Trigger = DefaultTrigger
	}
	if c.ContextWindow == 0 {
		c.ContextWindow = DefaultContextWindow
	}
	if c.KeepLastTurns == 0 {
		c.KeepLastTurns = DefaultKeepLastTurns
	}
	if c.EmergencyKeepTurns == 0 {
		c.EmergencyKeepTurns = DefaultEmergencyKeepTurns
	}
	if c.SummarizerModel == "" {
		c.SummarizerModel = DefaultSummarizerModel
	}
	if c.SummarizerMaxTokens == 0 {
		c.SummarizerMaxTokens = DefaultSummarizerMaxTokens
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Trigger <= 0 || c.Trigger > 1.0 {
		return fmt.Errorf("%w: trigger must be between 0 and 1, got %f", ErrInvalidConfig, c.Trigger)
	}

	if c.ContextWindow <= 0 {
		return fmt.Errorf("%w: context_window must be positive, got %d", ErrInvalidConfig, c.ContextWindow)
	}

	if c.KeepLastTurns <= 0 {
		return fmt.Errorf("%w: keep_last_turns must be positive, got %d", ErrInvalidConfig, c.KeepLastTurns)
	}

	if c.EmergencyKeepTurns <= 0 {
		return fmt.Errorf("%w: emergency_keep_turns must be positive, got %d", ErrInvalidConfig, c.EmergencyKeepTurns)
	}

	if c.EmergencyKeepTurns > c.KeepLastTurns {
		return fmt.Errorf("%w: emergency_keep_turns (%d) must not exceed keep_last_turns (%d)",
			ErrInvalidConfig, c.EmergencyKeepTurns, c.KeepLastTurns)
	}

	if c.SummarizerModel == "" {
		return fmt.Errorf("%w: summarizer_model is required", ErrInvalidConfig)
	}

	if c.SummarizerMaxTokens <= 0 {
		return fmt.Errorf("%w: summarizer_max_tokens must be positive, got %d", ErrInvalidConfig, c.SummarizerMaxTokens)
	}

	return nil
}

// TriggerThreshold returns the absolute token count that triggers compaction.
func (c *Config) TriggerThreshold() int {
	return int(float64(c.ContextWindow) * c.Trigger)
}
