package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hritik2002/runable-take-home-assignment/sandbox"
	"github.com/hritik2002/runable-take-home-assignment/tool"
)

// CommandFunc executes a shell command in the session's sandbox. The agent
// wires this to its sandbox monitor so the tool always targets the live
// environment for the session.
type CommandFunc func(ctx context.Context, command string) (*sandbox.ExecResult, error)

// NewShellTool returns the bash tool. Command failures with a non-zero exit
// code are reported in the result text; an execution error (including a
// vanished environment) is returned as an error for the caller to handle.
func NewShellTool(run CommandFunc) tool.Tool {
	return tool.NewFuncTool(
		"bash",
		"Execute a shell command in the session's sandboxed Linux environment. Returns stdout, stderr, and the exit code.",
		tool.Schema{
			Type: "object",
			Properties: map[string]tool.PropertyDef{
				"command": {Type: "string", Description: "The shell command to execute"},
			},
			Required: []string{"command"},
		},
		func(ctx context.Context, input json.RawMessage) (string, error) {
			var args struct {
				Command string `json:"command"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return "", fmt.Errorf("invalid input: %w", err)
			}
			if args.Command == "" {
				return "", fmt.Errorf("command cannot be empty")
			}

			result, err := run(ctx, args.Command)
			if err != nil {
				return "", err
			}
			return FormatExecResult(result), nil
		},
	)
}

// FormatExecResult serializes a sandbox execution result to plain text for
// the model.
func FormatExecResult(result *sandbox.ExecResult) string {
	var b strings.Builder
	if result.Stdout != "" {
		b.WriteString(result.Stdout)
	}
	if result.Stderr != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("stderr:\n")
		b.WriteString(result.Stderr)
	}
	if result.ExitCode != 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "exit code: %d", result.ExitCode)
	}
	if b.Len() == 0 {
		return "(no output)"
	}
	return b.String()
}
