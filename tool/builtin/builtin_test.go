package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/hritik2002/runable-take-home-assignment/sandbox"
)

func TestFileToolsRoundtrip(t *testing.T) {
	ctx := context.Background()
	files := NewFileTools(t.TempDir())

	write := files.WriteFile()
	if _, err := write.Execute(ctx, json.RawMessage(`{"path":"notes/a.txt","content":"hello"}`)); err != nil {
		t.Fatalf("write_file failed: %v", err)
	}

	read := files.ReadFile()
	out, err := read.Execute(ctx, json.RawMessage(`{"path":"notes/a.txt"}`))
	if err != nil {
		t.Fatalf("read_file failed: %v", err)
	}
	if out != "hello" {
		t.Errorf("expected 'hello', got %q", out)
	}

	list := files.ListDir()
	out, err = list.Execute(ctx, json.RawMessage(`{"path":"notes"}`))
	if err != nil {
		t.Fatalf("list_dir failed: %v", err)
	}
	if !strings.Contains(out, "a.txt") {
		t.Errorf("expected listing to contain a.txt, got %q", out)
	}
}

func TestFileToolsRelativeRoot(t *testing.T) {
	ctx := context.Background()
	t.Chdir(t.TempDir())

	// The CLI wires the file tools with root "."; paths must resolve even
	// when the root is relative.
	files := NewFileTools(".")

	write := files.WriteFile()
	if _, err := write.Execute(ctx, json.RawMessage(`{"path":"hello.txt","content":"hi"}`)); err != nil {
		t.Fatalf("write_file with relative root failed: %v", err)
	}

	read := files.ReadFile()
	out, err := read.Execute(ctx, json.RawMessage(`{"path":"hello.txt"}`))
	if err != nil {
		t.Fatalf("read_file with relative root failed: %v", err)
	}
	if out != "hi" {
		t.Errorf("expected 'hi', got %q", out)
	}

	list := files.ListDir()
	out, err = list.Execute(ctx, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("list_dir with relative root failed: %v", err)
	}
	if !strings.Contains(out, "hello.txt") {
		t.Errorf("expected listing to contain hello.txt, got %q", out)
	}
}

func TestFileToolsRejectEscape(t *testing.T) {
	ctx := context.Background()
	files := NewFileTools(t.TempDir())

	read := files.ReadFile()
	// Path traversal is confined to the workspace root, so this resolves
	// inside the root and simply does not exist.
	if _, err := read.Execute(ctx, json.RawMessage(`{"path":"../../etc/passwd"}`)); err == nil {
		t.Error("expected error for traversal path")
	}
}

func TestShellToolReportsExitCode(t *testing.T) {
	ctx := context.Background()
	shell := NewShellTool(func(_ context.Context, command string) (*sandbox.ExecResult, error) {
		return &sandbox.ExecResult{Stdout: "out", Stderr: "warn", ExitCode: 2}, nil
	})

	out, err := shell.Execute(ctx, json.RawMessage(`{"command":"false"}`))
	if err != nil {
		t.Fatalf("bash tool failed: %v", err)
	}
	if !strings.Contains(out, "exit code: 2") {
		t.Errorf("expected exit code in output, got %q", out)
	}
	if !strings.Contains(out, "out") || !strings.Contains(out, "warn") {
		t.Errorf("expected stdout and stderr in output, got %q", out)
	}
}

func TestShellToolPropagatesEnvironmentGone(t *testing.T) {
	ctx := context.Background()
	shell := NewShellTool(func(_ context.Context, _ string) (*sandbox.ExecResult, error) {
		return nil, sandbox.ErrEnvironmentGone
	})

	_, err := shell.Execute(ctx, json.RawMessage(`{"command":"ls"}`))
	if !errors.Is(err, sandbox.ErrEnvironmentGone) {
		t.Errorf("expected ErrEnvironmentGone, got %v", err)
	}
}

func TestFormatExecResultEmpty(t *testing.T) {
	if got := FormatExecResult(&sandbox.ExecResult{}); got != "(no output)" {
		t.Errorf("expected placeholder for empty result, got %q", got)
	}
}
