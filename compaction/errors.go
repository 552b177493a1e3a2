package compaction

import "errors"

// Sentinel errors for compaction operations.
var (
	// ErrInvalidConfig indicates invalid compaction configuration.
	ErrInvalidConfig = errors.New("invalid compaction configuration")

	// ErrSummarizationFailed indicates the summarization API call failed.
	ErrSummarizationFailed = errors.New("summarization failed")
)
