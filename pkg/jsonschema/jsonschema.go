// Package jsonschema wraps the OpenAPI schema engine as the opaque validator
// for action parameter shapes. Games register actions with free-form
// JSON-schema objects; this package answers two questions about them: is the
// schema itself well formed, and does a JSON document conform to it.
package jsonschema

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// Validator is a compiled action schema.
type Validator struct {
	schema *openapi3.Schema
}

// Compile parses and validates a raw schema object. A nil raw schema is
// valid and compiles to a validator that accepts everything.
func Compile(raw map[string]any) (*Validator, error) {
	if raw == nil {
		return &Validator{}, nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("serialize schema: %w", err)
	}

	var schema openapi3.Schema
	if err := schema.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if err := schema.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Validator{schema: &schema}, nil
}

// Check reports whether a raw schema object is well formed, without keeping
// the compiled form.
func Check(raw map[string]any) error {
	_, err := Compile(raw)
	return err
}

// Validate checks a JSON document against the compiled schema.
func (v *Validator) Validate(doc []byte) error {
	if v.schema == nil {
		return nil
	}
	var value any
	if err := json.Unmarshal(doc, &value); err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	return v.schema.VisitJSON(value)
}
