// Package builtin provides the standard tools shipped with the agent: file
// access under a workspace root and a shell tool that runs inside the
// session's sandbox.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hritik2002/runable-take-home-assignment/tool"
)

// FileTools exposes read_file, write_file, and list_dir scoped to a
// workspace root. Paths are resolved relative to the root and may not escape
// it.
type FileTools struct {
	root string
}

// NewFileTools creates file tools rooted at the given directory. The root is
// resolved to an absolute path so the escape check in resolve works for
// relative roots like ".".
func NewFileTools(root string) *FileTools {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = filepath.Clean(root)
	}
	return &FileTools{root: abs}
}

// All returns the three file tools.
func (f *FileTools) All() []tool.Tool {
	return []tool.Tool{f.ReadFile(), f.WriteFile(), f.ListDir()}
}

// resolve maps a tool-supplied path into the workspace root, rejecting
// escapes.
func (f *FileTools) resolve(path string) (string, error) {
	cleaned := filepath.Clean("/" + path)
	full := filepath.Join(f.root, cleaned)
	if !strings.HasPrefix(full, filepath.Clean(f.root)) {
		return "", fmt.Errorf("path %q escapes the workspace", path)
	}
	return full, nil
}

// ReadFile returns the read_file tool.
func (f *FileTools) ReadFile() tool.Tool {
	return tool.NewFuncTool(
		"read_file",
		"Read the contents of a file in the workspace. The path is relative to the workspace root.",
		tool.Schema{
			Type: "object",
			Properties: map[string]tool.PropertyDef{
				"path": {Type: "string", Description: "Path of the file to read"},
			},
			Required: []string{"path"},
		},
		func(_ context.Context, input json.RawMessage) (string, error) {
			var args struct {
				Path string `json:"path"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return "", fmt.Errorf("invalid input: %w", err)
			}

			full, err := f.resolve(args.Path)
			if err != nil {
				return "", err
			}

			data, err := os.ReadFile(full)
			if err != nil {
				return "", fmt.Errorf("failed to read %s: %w", args.Path, err)
			}
			return string(data), nil
		},
	)
}

// WriteFile returns the write_file tool.
func (f *FileTools) WriteFile() tool.Tool {
	return tool.NewFuncTool(
		"write_file",
		"Write content to a file in the workspace, creating parent directories as needed.",
		tool.Schema{
			Type: "object",
			Properties: map[string]tool.PropertyDef{
				"path":    {Type: "string", Description: "Path of the file to write"},
				"content": {Type: "string", Description: "Content to write"},
			},
			Required: []string{"path", "content"},
		},
		func(_ context.Context, input json.RawMessage) (string, error) {
			var args struct {
				Path    string `json:"path"`
				Content string `json:"content"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return "", fmt.Errorf("invalid input: %w", err)
			}

			full, err := f.resolve(args.Path)
			if err != nil {
				return "", err
			}

			if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
				return "", fmt.Errorf("failed to create directories for %s: %w", args.Path, err)
			}
			if err := os.WriteFile(full, []byte(args.Content), 0o644); err != nil {
				return "", fmt.Errorf("failed to write %s: %w", args.Path, err)
			}
			return fmt.Sprintf("wrote %d bytes to %s", len(args.Content), args.Path), nil
		},
	)
}

// ListDir returns the list_dir tool.
func (f *FileTools) ListDir() tool.Tool {
	return tool.NewFuncTool(
		"list_dir",
		"List the entries of a directory in the workspace.",
		tool.Schema{
			Type: "object",
			Properties: map[string]tool.PropertyDef{
				"path": {Type: "string", Description: "Directory to list, relative to the workspace root. Defaults to the root."},
			},
		},
		func(_ context.Context, input json.RawMessage) (string, error) {
			var args struct {
				Path string `json:"path"`
			}
			if len(input) > 0 {
				if err := json.Unmarshal(input, &args); err != nil {
					return "", fmt.Errorf("invalid input: %w", err)
				}
			}

			full, err := f.resolve(args.Path)
			if err != nil {
				return "", err
			}

			entries, err := os.ReadDir(full)
			if err != nil {
				return "", fmt.Errorf("failed to list %s: %w", args.Path, err)
			}

			names := make([]string, 0, len(entries))
			for _, entry := range entries {
				name := entry.Name()
				if entry.IsDir() {
					name += "/"
				}
				names = append(names, name)
			}
			sort.Strings(names)
			if len(names) == 0 {
				return "(empty)", nil
			}
			return strings.Join(names, "\n"), nil
		},
	)
}
