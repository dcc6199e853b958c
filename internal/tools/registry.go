package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	// ErrUnknownTool is returned for a name that is not registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidParameters is returned when parameters fail the tool schema.
	ErrInvalidParameters = errors.New("invalid tool parameters")
	// ErrUndeclaredWrite is returned when a handler updates a state key it
	// did not declare.
	ErrUndeclaredWrite = errors.New("tool wrote undeclared state key")
)

type entry struct {
	spec   Spec
	schema *gojsonschema.Schema
}

// Registry is an immutable, ordered set of tools.
type Registry struct {
	entries []*entry
	byName  map[string]*entry
}

// NewRegistry compiles the parameter schemas of specs.
func NewRegistry(specs ...Spec) (*Registry, error) {
	r := &Registry{byName: make(map[string]*entry, len(specs))}
	for _, s := range specs {
		if strings.TrimSpace(s.Name) == "" {
			return nil, errors.New("tool with empty name")
		}
		if _, dup := r.byName[s.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", s.Name)
		}
		if s.Handler == nil {
			return nil, fmt.Errorf("tool %q has no handler", s.Name)
		}
		if s.Parameters == nil {
			s.Parameters = objectSchema(map[string]any{})
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(s.Parameters))
		if err != nil {
			return nil, fmt.Errorf("tool %q: compiling schema: %w", s.Name, err)
		}
		e := &entry{spec: s, schema: schema}
		r.entries = append(r.entries, e)
		r.byName[s.Name] = e
	}
	return r, nil
}

// Select returns a registry with only the named tools, in the given order.
func (r *Registry) Select(names []string) (*Registry, error) {
	out := &Registry{byName: make(map[string]*entry, len(names))}
	for _, name := range names {
		e, ok := r.byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
		}
		if _, dup := out.byName[name]; dup {
			continue
		}
		out.entries = append(out.entries, e)
		out.byName[name] = e
	}
	return out, nil
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.spec.Name
	}
	return names
}

// Len returns the number of tools.
func (r *Registry) Len() int { return len(r.entries) }

// Lookup returns the spec of a tool.
func (r *Registry) Lookup(name string) (Spec, bool) {
	e, ok := r.byName[name]
	if !ok {
		return Spec{}, false
	}
	return e.spec, true
}

// Validate checks params against the tool's schema.
func (r *Registry) Validate(name string, params json.RawMessage) error {
	e, ok := r.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return e.validate(params)
}

func (e *entry) validate(params json.RawMessage) error {
	doc := bytes.TrimSpace(params)
	if len(doc) == 0 || bytes.Equal(doc, []byte("null")) {
		doc = []byte("{}")
	}
	res, err := e.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidParameters, e.spec.Name, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, d := range res.Errors() {
			msgs = append(msgs, d.String())
		}
		return fmt.Errorf("%w: %s: %s", ErrInvalidParameters, e.spec.Name, strings.Join(msgs, "; "))
	}
	return nil
}

// Call validates params, runs the handler and merges its update into st.
// On any error st is returned unchanged.
func (r *Registry) Call(ctx context.Context, st State, name string, params json.RawMessage) (Result, State, error) {
	e, ok := r.byName[name]
	if !ok {
		return Result{}, st, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	if err := e.validate(params); err != nil {
		return Result{}, st, err
	}
	res, err := e.spec.Handler(ctx, st.Clone(), params)
	if err != nil {
		return Result{}, st, fmt.Errorf("tool %s: %w", name, err)
	}
	for _, k := range res.Update.Keys() {
		if !slices.Contains(e.spec.Writes, k) {
			return Result{}, st, fmt.Errorf("%w: %s wrote %s", ErrUndeclaredWrite, name, k)
		}
	}
	return res, st.Merge(res.Update), nil
}

// EnvelopeSchema returns the schema the model's output must follow: a
// "response" holding either an answer or exactly one tool call.
func (r *Registry) EnvelopeSchema() map[string]any {
	variants := []any{
		objectSchema(map[string]any{
			"answer": map[string]any{"type": "string"},
		}),
	}
	for _, e := range r.entries {
		variants = append(variants, objectSchema(map[string]any{
			"name":       map[string]any{"type": "string", "enum": []any{e.spec.Name}},
			"parameters": e.spec.Parameters,
		}))
	}
	return objectSchema(map[string]any{
		"response": map[string]any{"anyOf": variants},
	})
}

// Describe renders the tools for the system prompt.
func (r *Registry) Describe() string {
	var sb strings.Builder
	for _, e := range r.entries {
		params, _ := json.Marshal(e.spec.Parameters)
		fmt.Fprintf(&sb, "- %s: %s\n  Parametre: %s\n", e.spec.Name, e.spec.Description, params)
	}
	return sb.String()
}
