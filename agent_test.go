package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/hritik2002/runable-take-home-assignment/sandbox"
	"github.com/hritik2002/runable-take-home-assignment/storage"
	"github.com/hritik2002/runable-take-home-assignment/types"
)

// scriptedTransport returns canned completions (or errors) in order. The
// last step repeats if the script runs out.
type scriptedTransport struct {
	steps []func(req *CompletionRequest) (*CompletionResponse, error)
	calls int
}

func (t *scriptedTransport) Complete(_ context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	idx := t.calls
	if idx >= len(t.steps) {
		idx = len(t.steps) - 1
	}
	t.calls++
	return t.steps[idx](req)
}

func textCompletion(text string, usage *types.Usage) func(*CompletionRequest) (*CompletionResponse, error) {
	return func(req *CompletionRequest) (*CompletionResponse, error) {
		if req.OnText != nil {
			req.OnText(text)
		}
		return &CompletionResponse{
			Text:       text,
			StopReason: "end_turn",
			Usage:      usage,
		}, nil
	}
}

func failCompletion(err error) func(*CompletionRequest) (*CompletionResponse, error) {
	return func(*CompletionRequest) (*CompletionResponse, error) {
		return nil, err
	}
}

type stubSummarizer struct {
	summary string
	err     error
}

func (s *stubSummarizer) Summarize(_ context.Context, _ []*types.Turn) (string, error) {
	return s.summary, s.err
}

// stubRunner is a minimal in-memory sandbox runtime.
type stubRunner struct {
	running     map[string]bool
	createCalls int
	execOutput  string
	goneOnce    bool
}

func newStubRunner() *stubRunner {
	return &stubRunner{running: map[string]bool{}, execOutput: "ok"}
}

func (r *stubRunner) Create(_ context.Context, name string) (string, error) {
	r.createCalls++
	r.running[name] = false
	return name, nil
}

func (r *stubRunner) Start(_ context.Context, handle string) error {
	r.running[handle] = true
	return nil
}

func (r *stubRunner) Probe(_ context.Context, handle string) error {
	if !r.running[handle] {
		return sandbox.ErrEnvironmentGone
	}
	return nil
}

func (r *stubRunner) Exec(_ context.Context, handle, _ string) (*sandbox.ExecResult, error) {
	if r.goneOnce {
		r.goneOnce = false
		delete(r.running, handle)
		return nil, sandbox.ErrEnvironmentGone
	}
	if !r.running[handle] {
		return nil, sandbox.ErrEnvironmentGone
	}
	return &sandbox.ExecResult{Stdout: r.execOutput}, nil
}

func (r *stubRunner) Remove(_ context.Context, handle string) error {
	delete(r.running, handle)
	return nil
}

func newTestAgent(t *testing.T, store storage.Store, runner sandbox.Runner, transport Transport, opts ...Option) *Agent {
	t.Helper()

	opts = append([]Option{
		WithTransport(transport),
		WithSummarizer(&stubSummarizer{summary: "earlier conversation summary"}),
	}, opts...)

	a, err := New(store, runner, Config{Model: "claude-sonnet-4-5-20250929"}, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return a
}

func TestRunTurnPersistsExchange(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	transport := &scriptedTransport{steps: []func(*CompletionRequest) (*CompletionResponse, error){
		textCompletion("hello there", &types.Usage{InputTokens: 10, OutputTokens: 5}),
	}}
	a := newTestAgent(t, store, newStubRunner(), transport)

	var streamed strings.Builder
	resp, err := a.RunTurn(ctx, "", "hi", func(delta string) { streamed.WriteString(delta) })
	if err != nil {
		t.Fatalf("RunTurn failed: %v", err)
	}
	if resp.Text != "hello there" {
		t.Errorf("expected response text 'hello there', got %q", resp.Text)
	}
	if streamed.String() != "hello there" {
		t.Errorf("expected streamed text, got %q", streamed.String())
	}
	if resp.Usage.TotalTokens() != 15 {
		t.Errorf("expected 15 total tokens, got %d", resp.Usage.TotalTokens())
	}

	turns, err := store.ListTurns(ctx, resp.SessionID)
	if err != nil {
		t.Fatalf("ListTurns failed: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != types.RoleUser || turns[0].Content != "hi" {
		t.Errorf("unexpected user turn: %s %q", turns[0].Role, turns[0].Content)
	}
	if turns[1].Role != types.RoleAssistant || turns[1].Content != "hello there" {
		t.Errorf("unexpected assistant turn: %s %q", turns[1].Role, turns[1].Content)
	}
}

func TestRunTurnResumesExistingSession(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	transport := &scriptedTransport{steps: []func(*CompletionRequest) (*CompletionResponse, error){
		textCompletion("first", nil),
		textCompletion("second", nil),
	}}
	a := newTestAgent(t, store, newStubRunner(), transport)

	resp, err := a.RunTurn(ctx, "", "one", nil)
	if err != nil {
		t.Fatalf("RunTurn failed: %v", err)
	}

	resp2, err := a.RunTurn(ctx, resp.SessionID, "two", nil)
	if err != nil {
		t.Fatalf("RunTurn failed: %v", err)
	}
	if resp2.SessionID != resp.SessionID {
		t.Errorf("expected same session, got %s and %s", resp.SessionID, resp2.SessionID)
	}

	turns, _ := store.ListTurns(ctx, resp.SessionID)
	if len(turns) != 4 {
		t.Errorf("expected 4 turns across two exchanges, got %d", len(turns))
	}
}

func TestRunTurnToolLoop(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	runner := newStubRunner()
	runner.execOutput = "file1\nfile2"

	transport := &scriptedTransport{steps: []func(*CompletionRequest) (*CompletionResponse, error){
		func(*CompletionRequest) (*CompletionResponse, error) {
			return &CompletionResponse{
				Text:       "Let me check.",
				StopReason: "tool_use",
				Usage:      &types.Usage{InputTokens: 20, OutputTokens: 10},
				ToolUses: []ToolUse{
					{ID: "tu_1", Name: "bash", Input: json.RawMessage(`{"command":"ls"}`)},
				},
			}, nil
		},
		textCompletion("There are two files.", &types.Usage{InputTokens: 40, OutputTokens: 12}),
	}}
	a := newTestAgent(t, store, runner, transport)

	resp, err := a.RunTurn(ctx, "", "what files are there?", nil)
	if err != nil {
		t.Fatalf("RunTurn failed: %v", err)
	}
	if resp.Text != "There are two files." {
		t.Errorf("unexpected final text: %q", resp.Text)
	}
	if transport.calls != 2 {
		t.Errorf("expected 2 transport calls, got %d", transport.calls)
	}

	turns, _ := store.ListTurns(ctx, resp.SessionID)
	// user, assistant tool request, tool result, final assistant
	if len(turns) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(turns))
	}
	if !strings.Contains(turns[1].Content, "[Tool: bash") {
		t.Errorf("expected serialized tool request, got %q", turns[1].Content)
	}
	if turns[2].Role != types.RoleUser || !strings.Contains(turns[2].Content, "file1") {
		t.Errorf("expected tool result turn with output, got %s %q", turns[2].Role, turns[2].Content)
	}
}

func TestRunTurnToolUseWithFinalStopPersistsTextOnce(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	// One completion carrying both text and a tool use, with a final stop
	// reason: the inner loop executes the tool and exits without another
	// model request.
	transport := &scriptedTransport{steps: []func(*CompletionRequest) (*CompletionResponse, error){
		func(*CompletionRequest) (*CompletionResponse, error) {
			return &CompletionResponse{
				Text:       "All done.",
				StopReason: "end_turn",
				Usage:      &types.Usage{InputTokens: 15, OutputTokens: 5},
				ToolUses: []ToolUse{
					{ID: "tu_1", Name: "bash", Input: json.RawMessage(`{"command":"true"}`)},
				},
			}, nil
		},
	}}
	a := newTestAgent(t, store, newStubRunner(), transport)

	resp, err := a.RunTurn(ctx, "", "finish up", nil)
	if err != nil {
		t.Fatalf("RunTurn failed: %v", err)
	}
	if transport.calls != 1 {
		t.Errorf("expected 1 transport call, got %d", transport.calls)
	}

	turns, _ := store.ListTurns(ctx, resp.SessionID)
	// user, assistant tool request (including the text), tool result
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	occurrences := 0
	for _, turn := range turns {
		occurrences += strings.Count(turn.Content, "All done.")
	}
	if occurrences != 1 {
		t.Errorf("expected response text persisted exactly once, found %d occurrences", occurrences)
	}
}

func TestRunTurnRecreatesVanishedSandbox(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	runner := newStubRunner()

	transport := &scriptedTransport{steps: []func(*CompletionRequest) (*CompletionResponse, error){
		func(*CompletionRequest) (*CompletionResponse, error) {
			return &CompletionResponse{
				StopReason: "tool_use",
				Usage:      &types.Usage{},
				ToolUses: []ToolUse{
					{ID: "tu_1", Name: "bash", Input: json.RawMessage(`{"command":"echo hi"}`)},
				},
			}, nil
		},
		textCompletion("done", nil),
	}}
	a := newTestAgent(t, store, runner, transport)

	// The first exec call reports the environment gone.
	runner.goneOnce = true

	resp, err := a.RunTurn(ctx, "", "run it", nil)
	if err != nil {
		t.Fatalf("RunTurn failed: %v", err)
	}
	if runner.createCalls != 2 {
		t.Errorf("expected sandbox recreation (2 creates), got %d", runner.createCalls)
	}

	turns, _ := store.ListTurns(ctx, resp.SessionID)
	var resultTurn *types.Turn
	for _, turn := range turns {
		if strings.Contains(turn.Content, "[Tool Result for bash") {
			resultTurn = turn
		}
	}
	if resultTurn == nil || !strings.Contains(resultTurn.Content, "ok") {
		t.Error("expected a successful tool result after recreation")
	}
}

func TestRunTurnOverflowRetriesOnceAfterEmergencyCompaction(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	session, err := store.GetOrCreateSession(ctx, "")
	if err != nil {
		t.Fatalf("GetOrCreateSession failed: %v", err)
	}
	for i := 0; i < 12; i++ {
		role := types.RoleUser
		if i%2 == 1 {
			role = types.RoleAssistant
		}
		if _, err := store.AppendTurn(ctx, session.ID, role, "earlier"); err != nil {
			t.Fatalf("AppendTurn failed: %v", err)
		}
	}

	overflow := errors.New("400: prompt is too long: 210000 tokens > 200000 maximum")
	transport := &scriptedTransport{steps: []func(*CompletionRequest) (*CompletionResponse, error){
		failCompletion(overflow),
		textCompletion("recovered", &types.Usage{InputTokens: 100, OutputTokens: 10}),
	}}
	a := newTestAgent(t, store, newStubRunner(), transport)

	resp, err := a.RunTurn(ctx, session.ID, "continue", nil)
	if err != nil {
		t.Fatalf("RunTurn failed: %v", err)
	}
	if resp.Text != "recovered" {
		t.Errorf("unexpected final text: %q", resp.Text)
	}
	if transport.calls != 2 {
		t.Errorf("expected 2 transport calls, got %d", transport.calls)
	}

	turns, _ := store.ListTurns(ctx, session.ID)
	// summary + 4 kept + final assistant = 6
	if len(turns) != 6 {
		t.Fatalf("expected 6 turns after emergency compaction, got %d", len(turns))
	}
	if !strings.HasPrefix(turns[0].Content, "[Summary of ") {
		t.Errorf("expected summary turn first, got %q", turns[0].Content)
	}
	if turns[len(turns)-1].Content != "recovered" {
		t.Errorf("expected final assistant turn persisted, got %q", turns[len(turns)-1].Content)
	}
}

func TestRunTurnOverflowTwicePersistsErrorTurn(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	overflow := errors.New("request exceeds context window")
	transport := &scriptedTransport{steps: []func(*CompletionRequest) (*CompletionResponse, error){
		failCompletion(overflow),
		failCompletion(overflow),
	}}
	a := newTestAgent(t, store, newStubRunner(), transport)

	session, _ := store.GetOrCreateSession(ctx, "")
	for i := 0; i < 8; i++ {
		store.AppendTurn(ctx, session.ID, types.RoleUser, "filler")
	}

	_, err := a.RunTurn(ctx, session.ID, "go", nil)
	if err == nil {
		t.Fatal("expected error after second overflow")
	}
	if transport.calls != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", transport.calls)
	}

	turns, _ := store.ListTurns(ctx, session.ID)
	last := turns[len(turns)-1]
	if last.Role != types.RoleAssistant || !strings.HasPrefix(last.Content, "Error: ") {
		t.Errorf("expected persisted error turn, got %s %q", last.Role, last.Content)
	}
}

func TestRunTurnNonOverflowErrorDoesNotRetry(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	transport := &scriptedTransport{steps: []func(*CompletionRequest) (*CompletionResponse, error){
		failCompletion(errors.New("500: internal server error")),
	}}
	a := newTestAgent(t, store, newStubRunner(), transport)

	_, err := a.RunTurn(ctx, "", "go", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if transport.calls != 1 {
		t.Errorf("expected 1 attempt for non-overflow error, got %d", transport.calls)
	}
}

func TestRunTurnProactiveCompaction(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	session, _ := store.GetOrCreateSession(ctx, "")
	for i := 0; i < 10; i++ {
		store.AppendTurn(ctx, session.ID, types.RoleUser, "filler")
	}

	// Usage over the 75% threshold of the 200k window.
	transport := &scriptedTransport{steps: []func(*CompletionRequest) (*CompletionResponse, error){
		textCompletion("big answer", &types.Usage{InputTokens: 160000, OutputTokens: 500}),
	}}
	a := newTestAgent(t, store, newStubRunner(), transport)

	resp, err := a.RunTurn(ctx, session.ID, "more", nil)
	if err != nil {
		t.Fatalf("RunTurn failed: %v", err)
	}
	if !resp.Compacted {
		t.Error("expected proactive compaction to run")
	}

	turns, _ := store.ListTurns(ctx, session.ID)
	// 12 working turns compact to summary + 6 kept
	if len(turns) != 7 {
		t.Errorf("expected 7 turns after proactive compaction, got %d", len(turns))
	}
	if !strings.HasPrefix(turns[0].Content, "[Summary of ") {
		t.Errorf("expected summary turn first, got %q", turns[0].Content)
	}
}

func TestRunTurnBelowThresholdSkipsCompaction(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	transport := &scriptedTransport{steps: []func(*CompletionRequest) (*CompletionResponse, error){
		textCompletion("small answer", &types.Usage{InputTokens: 1000, OutputTokens: 50}),
	}}
	a := newTestAgent(t, store, newStubRunner(), transport)

	resp, err := a.RunTurn(ctx, "", "hi", nil)
	if err != nil {
		t.Fatalf("RunTurn failed: %v", err)
	}
	if resp.Compacted {
		t.Error("compaction should not run below the threshold")
	}
}

func TestIsContextOverflow(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"context mention", errors.New("Context length exceeded"), true},
		{"token mention", errors.New("too many TOKENS"), true},
		{"too long mention", errors.New("prompt is Too Long"), true},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsContextOverflow(tt.err); got != tt.want {
				t.Errorf("IsContextOverflow(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
