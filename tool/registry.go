package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
)

// Registry manages tools and converts them to Anthropic format
type Registry struct {
	tools map[string]Tool
	mu    sync.RWMutex
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("tool cannot be nil")
	}

	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	if schema := tool.InputSchema(); schema.Type != "object" {
		return fmt.Errorf("tool %s: schema type must be 'object', got %s", name, schema.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}

	r.tools[name] = tool
	return nil
}

// RegisterAll adds multiple tools to the registry
func (r *Registry) RegisterAll(tools []Tool) error {
	for _, tool := range tools {
		if err := r.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a tool by name
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, exists := r.tools[name]
	return tool, exists
}

// List returns all registered tool names
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// Execute executes a tool by name
func (r *Registry) Execute(ctx context.Context, toolName string, input json.RawMessage) (string, error) {
	tool, exists := r.Get(toolName)
	if !exists {
		return "", fmt.Errorf("tool not found: %s", toolName)
	}

	return tool.Execute(ctx, input)
}

// ToAnthropicTools converts all registered tools to Anthropic tool union
// parameters for a messages request.
func (r *Registry) ToAnthropicTools() []anthropic.ToolUnionParam {
	r.mu.RLock()
	defer r.mu.RUnlock()

	unions := make([]anthropic.ToolUnionParam, 0, len(r.tools))
	for _, t := range r.tools {
		param := convertToolToParam(t)
		unions = append(unions, anthropic.ToolUnionParam{OfTool: &param})
	}
	return unions
}

// convertToolToParam converts a single tool to Anthropic format
func convertToolToParam(t Tool) anthropic.ToolParam {
	schema := t.InputSchema()

	properties := make(map[string]interface{})
	for propName, propDef := range schema.Properties {
		properties[propName] = convertPropertyDef(propDef)
	}

	inputSchema := anthropic.ToolInputSchemaParam{
		Type:       constant.Object("object"),
		Properties: properties,
	}
	if len(schema.Required) > 0 {
		inputSchema.Required = schema.Required
	}

	return anthropic.ToolParam{
		Name:        t.Name(),
		Description: anthropic.String(t.Description()),
		InputSchema: inputSchema,
	}
}

// convertPropertyDef converts a property definition to Anthropic format
func convertPropertyDef(def PropertyDef) map[string]interface{} {
	prop := map[string]interface{}{
		"type": def.Type,
	}

	if def.Description != "" {
		prop["description"] = def.Description
	}
	if len(def.Enum) > 0 {
		prop["enum"] = def.Enum
	}
	if def.Items != nil {
		prop["items"] = convertPropertyDef(*def.Items)
	}

	return prop
}
