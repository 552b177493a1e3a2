package hooks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hritik2002/runable-take-home-assignment/compaction"
	"github.com/hritik2002/runable-take-home-assignment/types"
)

func TestTriggerBeforeRequestRunsAllHooks(t *testing.T) {
	registry := NewRegistry()
	calls := 0
	registry.OnBeforeRequest(func(_ context.Context, turns []*types.Turn) error {
		calls++
		if len(turns) != 2 {
			t.Errorf("expected 2 turns, got %d", len(turns))
		}
		return nil
	})
	registry.OnBeforeRequest(func(context.Context, []*types.Turn) error {
		calls++
		return nil
	})

	turns := []*types.Turn{
		types.NewTurn("s1", types.RoleUser, "a"),
		types.NewTurn("s1", types.RoleAssistant, "b"),
	}
	if err := registry.TriggerBeforeRequest(context.Background(), turns); err != nil {
		t.Fatalf("TriggerBeforeRequest failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 hook calls, got %d", calls)
	}
}

func TestTriggerStopsOnFirstError(t *testing.T) {
	registry := NewRegistry()
	hookErr := errors.New("hook failed")
	secondCalled := false

	registry.OnAfterRequest(func(context.Context, *types.Usage, string) error {
		return hookErr
	})
	registry.OnAfterRequest(func(context.Context, *types.Usage, string) error {
		secondCalled = true
		return nil
	})

	err := registry.TriggerAfterRequest(context.Background(), &types.Usage{}, "end_turn")
	if !errors.Is(err, hookErr) {
		t.Errorf("expected hook error, got %v", err)
	}
	if secondCalled {
		t.Error("second hook should not run after the first fails")
	}
}

func TestTriggerToolCallPassesResult(t *testing.T) {
	registry := NewRegistry()
	var gotName, gotOutput string
	var gotErr error

	registry.OnToolCall(func(_ context.Context, name string, _ json.RawMessage, output string, err error) error {
		gotName, gotOutput, gotErr = name, output, err
		return nil
	})

	execErr := errors.New("exit code 1")
	if err := registry.TriggerToolCall(context.Background(), "bash", json.RawMessage(`{}`), "out", execErr); err != nil {
		t.Fatalf("TriggerToolCall failed: %v", err)
	}
	if gotName != "bash" || gotOutput != "out" || !errors.Is(gotErr, execErr) {
		t.Errorf("hook got (%q, %q, %v)", gotName, gotOutput, gotErr)
	}
}

func TestTriggerAfterCompaction(t *testing.T) {
	registry := NewRegistry()
	var gotSession string
	var gotResult *compaction.Result

	registry.OnAfterCompaction(func(_ context.Context, sessionID string, result *compaction.Result) error {
		gotSession = sessionID
		gotResult = result
		return nil
	})

	result := &compaction.Result{Discarded: 5, SummaryCreated: true}
	if err := registry.TriggerAfterCompaction(context.Background(), "s1", result); err != nil {
		t.Fatalf("TriggerAfterCompaction failed: %v", err)
	}
	if gotSession != "s1" || gotResult != result {
		t.Errorf("hook got (%q, %+v)", gotSession, gotResult)
	}
}

func TestEmptyRegistryTriggersAreNoops(t *testing.T) {
	registry := NewRegistry()
	ctx := context.Background()

	if err := registry.TriggerBeforeRequest(ctx, nil); err != nil {
		t.Errorf("TriggerBeforeRequest: %v", err)
	}
	if err := registry.TriggerAfterRequest(ctx, nil, ""); err != nil {
		t.Errorf("TriggerAfterRequest: %v", err)
	}
	if err := registry.TriggerToolCall(ctx, "", nil, "", nil); err != nil {
		t.Errorf("TriggerToolCall: %v", err)
	}
	if err := registry.TriggerAfterCompaction(ctx, "", nil); err != nil {
		t.Errorf("TriggerAfterCompaction: %v", err)
	}
}
