package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// OutputSchema returns the JSON-Schema of the json output format as a generic map.
func OutputSchema() map[string]any {
	str := map[string]any{"type": "string"}
	image := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"name", "width", "height"},
		"properties": map[string]any{
			"name":   str,
			"width":  map[string]any{"type": "integer", "minimum": 0},
			"height": map[string]any{"type": "integer", "minimum": 0},
		},
	}
	page := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"page", "text"},
		"properties": map[string]any{
			"page":   map[string]any{"type": "integer", "minimum": 1},
			"text":   str,
			"md":     str,
			"images": map[string]any{"type": "array", "items": image},
		},
	}
	item := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"type"},
		"properties": map[string]any{
			"type":        map[string]any{"type": "string", "enum": []string{"field", "line_item"}},
			"key":         str,
			"value":       str,
			"description": str,
			"quantity":    str,
			"price":       str,
			"amount":      str,
		},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"pages", "items"},
		"properties": map[string]any{
			"pages": map[string]any{"type": "array", "items": page},
			"items": map[string]any{"type": "array", "items": item},
		},
	}
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func outputSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		b, err := json.Marshal(OutputSchema())
		if err != nil {
			schemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("output.json", bytes.NewReader(b)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("output.json")
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// ValidateJSON checks a json rendering against OutputSchema.
func ValidateJSON(data []byte) error {
	schema, err := outputSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
