package jsonschema_test

import (
	"testing"

	"github.com/CoolCat467/Neuro-API/pkg/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cellSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"cell": map[string]any{
			"type":    "integer",
			"minimum": 0,
			"maximum": 8,
		},
	},
	"required": []any{"cell"},
}

func TestCheck(t *testing.T) {
	assert.NoError(t, jsonschema.Check(nil))
	assert.NoError(t, jsonschema.Check(cellSchema))
	assert.Error(t, jsonschema.Check(map[string]any{"type": "banana"}))
}

func TestValidate(t *testing.T) {
	v, err := jsonschema.Compile(cellSchema)
	require.NoError(t, err)

	assert.NoError(t, v.Validate([]byte(`{"cell":4}`)))
	assert.Error(t, v.Validate([]byte(`{"cell":"four"}`)))
	assert.Error(t, v.Validate([]byte(`{}`)), "missing required property")
	assert.Error(t, v.Validate([]byte(`not json`)))
}

func TestValidate_NilSchemaAcceptsAnything(t *testing.T) {
	v, err := jsonschema.Compile(nil)
	require.NoError(t, err)
	assert.NoError(t, v.Validate([]byte(`{"whatever":true}`)))
}
