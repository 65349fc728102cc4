package tool

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/leofalp/webagent/internal/parse"
	"github.com/leofalp/webagent/providers/ai"
)

// Catalog is the fixed mapping from tool name to tool. It is populated once
// at startup and never mutated during a request, so lookups need no locking.
// Names are matched case-insensitively; registration order is preserved for
// the schema catalog handed to the model.
type Catalog struct {
	tools map[string]GenericTool
	order []string
}

// NewCatalog creates an empty tool catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		tools: make(map[string]GenericTool),
	}
}

// NewCatalogWithTools creates a catalog pre-populated with the given tools.
func NewCatalogWithTools(tools ...GenericTool) *Catalog {
	catalog := NewCatalog()
	catalog.AddTools(tools...)
	return catalog
}

// AddTools registers tools under their ToolInfo().Name. A tool with a name
// already present replaces the earlier one. Must only be called during
// startup, before the catalog is shared.
func (c *Catalog) AddTools(tools ...GenericTool) {
	for _, t := range tools {
		name := strings.ToLower(t.ToolInfo().Name)
		if _, exists := c.tools[name]; !exists {
			c.order = append(c.order, name)
		}
		c.tools[name] = t
	}
}

// Get retrieves a tool by name (case-insensitive).
func (c *Catalog) Get(name string) (GenericTool, bool) {
	t, exists := c.tools[strings.ToLower(name)]
	return t, exists
}

// Has checks whether a tool with the given name exists.
func (c *Catalog) Has(name string) bool {
	_, exists := c.tools[strings.ToLower(name)]
	return exists
}

// Size returns the number of registered tools.
func (c *Catalog) Size() int {
	return len(c.tools)
}

// Descriptions returns the available-actions catalog advertised to the
// model, in registration order.
func (c *Catalog) Descriptions() []ai.ToolDescription {
	out := make([]ai.ToolDescription, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.tools[name].ToolInfo())
	}
	return out
}

// Invoke dispatches one tool-invocation request and always produces a
// [ai.ToolResult] — failures are normalized, never propagated. Arguments
// are validated against the tool's declared schema before the tool runs;
// a mismatch yields an invalid_argument result without calling the tool.
func (c *Catalog) Invoke(ctx context.Context, name string, argumentsJSON string) ai.ToolResult {
	t, exists := c.Get(name)
	if !exists {
		return ai.NewToolResultError(string(KindUnknownTool), "unknown tool: "+name)
	}

	args, err := parse.ObjectFields(argumentsJSON)
	if err != nil {
		return ai.NewToolResultError(string(KindInvalidArgument), err.Error())
	}
	if err := Validate(args, t.ToolInfo().Parameters); err != nil {
		return ai.NewToolResultError(string(KindInvalidArgument), err.Error())
	}

	output, err := t.Call(ctx, argumentsJSON)
	if err != nil {
		return ai.NewToolResultError(string(KindOf(err)), err.Error())
	}
	return ai.NewToolResultSuccess(json.RawMessage(output))
}
