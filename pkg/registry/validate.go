package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"
)

// validator checks invocation arguments against a descriptor's schema.
// Properties are resolved individually so a failure can name the field.
type validator struct {
	schema   *jsonschema.Schema
	resolved *jsonschema.Resolved
	fields   map[string]*jsonschema.Resolved
	// extra validates properties the schema does not declare; nil allows them
	extra *jsonschema.Resolved
}

func newValidator(schema *jsonschema.Schema) (*validator, error) {
	if schema == nil {
		schema = &jsonschema.Schema{Type: "object"}
	}
	if schema.Type != "" && schema.Type != "object" {
		return nil, fmt.Errorf("input schema must be an object, got %q", schema.Type)
	}

	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve input schema: %w", err)
	}

	fields := make(map[string]*jsonschema.Resolved, len(schema.Properties))
	for name, prop := range schema.Properties {
		if prop == nil {
			continue
		}
		rp, err := prop.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve schema for %q: %w", name, err)
		}
		fields[name] = rp
	}

	v := &validator{schema: schema, resolved: resolved, fields: fields}
	if schema.AdditionalProperties != nil {
		extra, err := schema.AdditionalProperties.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve schema for additional properties: %w", err)
		}
		v.extra = extra
	}
	return v, nil
}

// normalize returns args as a JSON object, treating empty input and null as {}.
func normalize(args json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.RawMessage("{}")
	}
	return trimmed
}

// validate checks required properties, then each property, then the whole object.
func (v *validator) validate(args json.RawMessage) error {
	var obj map[string]any
	if err := json.Unmarshal(args, &obj); err != nil {
		return &InvalidArgumentError{Field: "arguments", Reason: "must be a JSON object"}
	}
	if obj == nil {
		obj = map[string]any{}
	}

	for _, name := range v.schema.Required {
		if _, ok := obj[name]; !ok {
			return &InvalidArgumentError{Field: name, Reason: "is required"}
		}
	}

	names := make([]string, 0, len(obj))
	for name := range obj {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		field, ok := v.fields[name]
		if !ok {
			if v.extra != nil && v.extra.Validate(obj[name]) != nil {
				return &InvalidArgumentError{Field: name, Reason: "is not a declared argument"}
			}
			continue
		}
		if err := field.Validate(obj[name]); err != nil {
			return &InvalidArgumentError{Field: name, Reason: err.Error()}
		}
	}

	if err := v.resolved.Validate(obj); err != nil {
		return &InvalidArgumentError{Field: "arguments", Reason: err.Error()}
	}
	return nil
}
