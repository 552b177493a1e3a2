// Package agent implements a resumable conversational agent with durable
// sessions, sandboxed command execution, and automatic context-window
// management.
//
// Conversations are stored as ordered turns in a storage.Store (PostgreSQL
// in production, in-memory for tests and ephemeral runs). Each user turn
// runs a model-and-tools loop against the Anthropic API; tool calls and
// their results are serialized to text before they reach storage, so a
// session can always be resumed from its stored turns alone.
//
// When a conversation approaches the model's context window the agent
// summarizes older turns through the compaction package and atomically
// replaces the stored history. A request rejected for being too large
// triggers a tighter emergency compaction and exactly one retry.
//
// Basic usage:
//
//	client := anthropic.NewClient()
//	ag, err := agent.New(store, sandbox.NewDockerRunner(), agent.Config{
//		Client: &client,
//		Model:  "claude-sonnet-4-5-20250929",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	resp, err := ag.RunTurn(ctx, sessionID, "list the files in /tmp", func(delta string) {
//		fmt.Print(delta)
//	})
package agent
