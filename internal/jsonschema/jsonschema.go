// Package jsonschema derives JSON Schema documents from Go types via
// reflection. The schemas describe tool parameters to the language model
// and drive argument validation before a tool is invoked.
package jsonschema

import (
	"reflect"
	"strconv"
	"strings"
)

// Schema is the subset of JSON Schema used for tool parameter catalogs.
type Schema struct {
	// Type specifies the data type (e.g. "object", "array", "string", "integer").
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Required    []string `json:"required,omitempty"`
	// Properties of the arguments, each with its own schema.
	Properties map[string]*Schema `json:"properties,omitempty"`
	// For array types, defines the schema of items in the array.
	Items *Schema `json:"items,omitempty"`
	// AdditionalProperties controls whether undeclared properties are allowed.
	AdditionalProperties any `json:"additionalProperties,omitempty"`
	// Default value for the parameter.
	Default any `json:"default,omitempty"`
	// Enum contains the list of allowed values for the parameter.
	Enum []any `json:"enum,omitempty"`
	// Minimum and Maximum bound numeric parameters.
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`
}

// GenerateJSONSchema builds a schema for the struct type T.
// Field names come from json tags; descriptions, required markers, bounds,
// defaults and enums come from jsonschema tags, for example:
//
//	Query string `json:"query" jsonschema:"description=The search query,required"`
//	Max   int    `json:"max,omitempty" jsonschema:"minimum=1,maximum=10,default=5"`
func GenerateJSONSchema[T any]() *Schema {
	return generate(reflect.TypeFor[T]())
}

func generate(t reflect.Type) *Schema {
	switch t.Kind() {
	case reflect.Ptr:
		return generate(t.Elem())

	case reflect.Struct:
		schema := &Schema{Type: "object", Properties: map[string]*Schema{}}
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			name := fieldName(field)
			if name == "" {
				continue
			}
			fieldSchema := generate(field.Type)
			required := applyTag(fieldSchema, field.Tag.Get("jsonschema"))
			schema.Properties[name] = fieldSchema
			if required {
				schema.Required = append(schema.Required, name)
			}
		}
		return schema

	case reflect.Slice, reflect.Array:
		return &Schema{Type: "array", Items: generate(t.Elem())}

	case reflect.Map:
		return &Schema{Type: "object", AdditionalProperties: true}

	case reflect.String:
		return &Schema{Type: "string"}

	case reflect.Bool:
		return &Schema{Type: "boolean"}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}

	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}

	default:
		return &Schema{}
	}
}

// fieldName resolves the JSON property name for a struct field.
// Returns "" for fields excluded with json:"-".
func fieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	if tag == "" {
		return field.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return field.Name
	}
	return name
}

// applyTag parses a jsonschema struct tag into the field schema and reports
// whether the field is required. Segments that are not recognized directives
// are folded back into the description, so descriptions may contain commas.
func applyTag(schema *Schema, tag string) bool {
	if tag == "" {
		return false
	}

	required := false
	lastWasDescription := false
	for _, segment := range strings.Split(tag, ",") {
		key, value, hasValue := strings.Cut(segment, "=")
		switch {
		case segment == "required":
			required = true
			lastWasDescription = false
		case key == "description" && hasValue:
			schema.Description = value
			lastWasDescription = true
		case key == "minimum" && hasValue:
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				schema.Minimum = &f
			}
			lastWasDescription = false
		case key == "maximum" && hasValue:
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				schema.Maximum = &f
			}
			lastWasDescription = false
		case key == "default" && hasValue:
			schema.Default = parseScalar(schema.Type, value)
			lastWasDescription = false
		case key == "enum" && hasValue:
			for _, item := range strings.Split(value, "|") {
				schema.Enum = append(schema.Enum, parseScalar(schema.Type, item))
			}
			lastWasDescription = false
		default:
			// Not a directive: part of a comma-containing description.
			if lastWasDescription {
				schema.Description += "," + segment
			}
		}
	}
	return required
}

// parseScalar converts a tag value into the Go value matching the schema type.
func parseScalar(schemaType, value string) any {
	switch schemaType {
	case "integer":
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	case "number":
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	case "boolean":
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return value
}
