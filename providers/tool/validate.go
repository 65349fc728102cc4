package tool

import (
	"encoding/json"
	"fmt"

	"github.com/leofalp/webagent/internal/jsonschema"
)

// Validate checks args against a declared parameter schema: required fields
// must be present and values must match their primitive schema type.
// Range bounds are deliberately not enforced here — tools clamp numeric
// inputs instead of rejecting them.
func Validate(args map[string]any, schema *jsonschema.Schema) error {
	if schema == nil {
		return nil
	}

	for _, field := range schema.Required {
		if _, exists := args[field]; !exists {
			return Errorf(KindInvalidArgument, "missing required field: %s", field)
		}
	}

	if len(schema.Properties) == 0 {
		return nil
	}

	for key, value := range args {
		propSchema, ok := schema.Properties[key]
		if !ok || propSchema.Type == "" {
			continue
		}
		if err := validateType(value, propSchema.Type); err != nil {
			return Errorf(KindInvalidArgument, "field %s: %v", key, err)
		}
	}

	return nil
}

func validateType(value any, expected string) error {
	switch expected {
	case "string":
		if _, ok := value.(string); ok {
			return nil
		}
	case "number":
		if isNumber(value) {
			return nil
		}
	case "integer":
		if isInteger(value) {
			return nil
		}
	case "boolean":
		if _, ok := value.(bool); ok {
			return nil
		}
	case "object":
		if _, ok := value.(map[string]any); ok {
			return nil
		}
	case "array":
		if _, ok := value.([]any); ok {
			return nil
		}
	default:
		return nil
	}
	return fmt.Errorf("expected %s but got %T", expected, value)
}

func isNumber(value any) bool {
	switch v := value.(type) {
	case float32, float64, int, int32, int64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	}
	return false
}

// isInteger accepts float64 values with no fractional part, since
// encoding/json decodes every JSON number to float64.
func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int32, int64:
		return true
	case float64:
		return v == float64(int64(v))
	case json.Number:
		_, err := v.Int64()
		return err == nil
	}
	return false
}
