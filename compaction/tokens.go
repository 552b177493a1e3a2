package compaction

import "github.com/hritik2002/runable-take-home-assignment/types"

// EstimateTokens approximates the token count of a piece of text as
// ceil(len/4). Four characters per token is the usual planning heuristic for
// English prose and code. Deterministic, monotonic, no API calls.
func EstimateTokens(content string) int {
	return (len(content) + 3) / 4
}

// EstimateTurns approximates the total token count of a conversation from
// its combined content length, using the same ceil(chars/4) rule.
func EstimateTurns(turns []*types.Turn) int {
	return (types.TotalChars(turns) + 3) / 4
}

// ShouldCompact reports whether an estimated token count exceeds the
// compaction threshold. The comparison is strict: a score exactly at the
// threshold does not trigger compaction.
func ShouldCompact(estimated, threshold int) bool {
	return estimated > threshold
}
