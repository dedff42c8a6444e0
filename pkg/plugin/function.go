// Package plugin groups callable functions into named plugins that a kernel
// advertises to chat connectors for function calling.
package plugin

import (
	"context"
	"encoding/json"
)

// Handler executes a function with raw JSON arguments and returns a text result.
type Handler func(ctx context.Context, args json.RawMessage) (string, error)

// Function is a single callable exposed to the model.
type Function struct {
	Name        string
	Description string
	Parameters  json.RawMessage // JSON Schema; nil means an empty object schema.
	Handler     Handler
}

// Schema returns the parameter schema, substituting an empty object schema
// when none was declared.
func (f Function) Schema() json.RawMessage {
	if len(f.Parameters) == 0 {
		return json.RawMessage(`{"type":"object"}`)
	}
	return f.Parameters
}
