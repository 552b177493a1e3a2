package anthropic

import (
	"testing"

	"github.com/hritik2002/runable-take-home-assignment/types"
)

func TestConvertTurnsSkipsSystem(t *testing.T) {
	turns := []*types.Turn{
		{Role: types.RoleSystem, Content: "be helpful"},
		{Role: types.RoleUser, Content: "hi"},
		{Role: types.RoleAssistant, Content: "hello"},
	}

	params := ConvertTurns(turns)
	if len(params) != 2 {
		t.Fatalf("expected 2 message params, got %d", len(params))
	}
	if string(params[0].Role) != "user" || string(params[1].Role) != "assistant" {
		t.Errorf("unexpected roles: %s, %s", params[0].Role, params[1].Role)
	}
}

func TestBuildSystemBlocks(t *testing.T) {
	turns := []*types.Turn{
		{Role: types.RoleSystem, Content: "extra instruction"},
		{Role: types.RoleUser, Content: "hi"},
	}

	blocks := BuildSystemBlocks("base prompt", turns)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 system blocks, got %d", len(blocks))
	}
	if blocks[0].Text != "base prompt" {
		t.Errorf("expected configured prompt first, got %q", blocks[0].Text)
	}
	if blocks[1].Text != "extra instruction" {
		t.Errorf("expected system turn second, got %q", blocks[1].Text)
	}

	if got := BuildSystemBlocks("", nil); len(got) != 0 {
		t.Errorf("expected no blocks, got %d", len(got))
	}
}
