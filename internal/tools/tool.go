// Package tools holds the closed set of tools the dialogue engine may call
// and the handlers behind them.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Result is what a handler produces. An empty Message means the tool
// already spoke for itself and the turn should end silently.
type Result struct {
	Message string
	Update  Update
}

// Handler runs a tool with validated JSON parameters.
type Handler func(ctx context.Context, st State, params json.RawMessage) (Result, error)

// Spec declares a tool.
type Spec struct {
	Name        string
	Description string
	// Parameters is a JSON schema object for the tool's parameters.
	Parameters map[string]any
	// Writes lists the state keys the handler may update.
	Writes  []StateKey
	Handler Handler
}

// Typed adapts a handler taking decoded parameters.
func Typed[P any](fn func(ctx context.Context, st State, p P) (Result, error)) Handler {
	return func(ctx context.Context, st State, raw json.RawMessage) (Result, error) {
		var p P
		if len(bytes.TrimSpace(raw)) > 0 {
			if err := json.Unmarshal(raw, &p); err != nil {
				return Result{}, fmt.Errorf("%w: %v", ErrInvalidParameters, err)
			}
		}
		return fn(ctx, st, p)
	}
}

// NoParams is the parameter type of tools without parameters.
type NoParams struct{}

// objectSchema builds a strict object schema where every property is
// required.
func objectSchema(props map[string]any) map[string]any {
	schema := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(props) > 0 {
		required := make([]string, 0, len(props))
		for name := range props {
			required = append(required, name)
		}
		sort.Strings(required)
		schema["required"] = required
	}
	return schema
}
