// Package parse decodes model-supplied argument strings into Go values.
// Language models routinely emit slightly broken JSON (single quotes,
// trailing commas, unquoted keys), so failed decodes are retried after
// running the payload through jsonrepair.
package parse

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// StringAs parses content into the target type T. Strings are returned
// as-is; everything else goes through JSON unmarshaling with a repair
// retry. An empty payload decodes to the zero value, matching a tool
// call issued with no arguments.
func StringAs[T any](content string) (T, error) {
	var result T

	if reflect.TypeFor[T]().Kind() == reflect.String {
		reflect.ValueOf(&result).Elem().SetString(content)
		return result, nil
	}

	if strings.TrimSpace(content) == "" {
		return result, nil
	}

	err := json.Unmarshal([]byte(content), &result)
	if err == nil {
		return result, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(content)
	if repairErr != nil {
		return result, fmt.Errorf("failed to parse arguments as %T: %w (repair also failed: %v)", result, err, repairErr)
	}
	if err := json.Unmarshal([]byte(repaired), &result); err != nil {
		return result, fmt.Errorf("failed to parse repaired arguments as %T: %w", result, err)
	}
	return result, nil
}

// ObjectFields decodes an argument payload into a generic map for schema
// validation. The same repair fallback applies.
func ObjectFields(content string) (map[string]any, error) {
	if strings.TrimSpace(content) == "" {
		return map[string]any{}, nil
	}
	fields, err := StringAs[map[string]any](content)
	if err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}
