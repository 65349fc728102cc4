package tool

import (
	"context"
	"encoding/json"

	"github.com/leofalp/webagent/internal/jsonschema"
	"github.com/leofalp/webagent/internal/parse"
	"github.com/leofalp/webagent/providers/ai"
)

// Tool represents a typed, callable tool that can be registered with a
// catalog. It binds a name and description to a strongly-typed Go function
// and derives the JSON schemas for input (I) and output (O) via reflection.
type Tool[I, O any] struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	Output      *jsonschema.Schema
	Function    func(ctx context.Context, input I) (O, error)
}

// GenericTool is the provider-agnostic interface for all tools. It abstracts
// over the concrete generic type parameters of [Tool] so tools can be
// stored and dispatched without knowing their exact input/output types.
type GenericTool interface {
	// ToolInfo returns the metadata (name, description, parameter schema)
	// used to advertise this tool to the model.
	ToolInfo() ai.ToolDescription

	// Call invokes the tool with a JSON-encoded input string and returns a
	// JSON-encoded output string. Returns an error if parsing or execution
	// fails.
	Call(ctx context.Context, inputJson string) (string, error)
}

// funcToolOptions holds optional configuration for a tool created via [NewTool].
type funcToolOptions struct {
	Description string
}

// WithDescription sets a human-readable description for the tool.
// The model uses this description to decide when and how to invoke it.
func WithDescription(description string) func(tool *funcToolOptions) {
	return func(s *funcToolOptions) {
		s.Description = description
	}
}

// NewTool constructs a new [Tool] with the given name and handler function.
// JSON schemas for the input type I and output type O are derived
// automatically via reflection.
//
// Example:
//
//	searchTool := tool.NewTool("duckduckgo_search", searchFunc,
//	    tool.WithDescription("Searches the web for a query."),
//	)
func NewTool[I, O any](name string, function func(ctx context.Context, input I) (O, error), options ...func(tool *funcToolOptions)) *Tool[I, O] {
	toolOptions := &funcToolOptions{}
	for _, option := range options {
		option(toolOptions)
	}

	return &Tool[I, O]{
		Name:        name,
		Description: toolOptions.Description,
		Parameters:  jsonschema.GenerateJSONSchema[I](),
		Output:      jsonschema.GenerateJSONSchema[O](),
		Function:    function,
	}
}

// ToolInfo returns the [ai.ToolDescription] used to advertise this tool.
func (t *Tool[I, O]) ToolInfo() ai.ToolDescription {
	return ai.ToolDescription{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	}
}

// Call invokes the tool's underlying function with the given JSON-encoded
// input. The payload is decoded with repair-tolerant parsing, the function
// is executed, and the result is returned serialized as JSON.
func (t *Tool[I, O]) Call(ctx context.Context, inputJson string) (string, error) {
	parsedInput, err := parse.StringAs[I](inputJson)
	if err != nil {
		return "", Errorf(KindInvalidArgument, "invalid arguments for %s: %v", t.Name, err)
	}

	output, err := t.Function(ctx, parsedInput)
	if err != nil {
		return "", err
	}

	outputBytes, err := json.Marshal(output)
	if err != nil {
		return "", err
	}
	return string(outputBytes), nil
}
