package metadata

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// JSONSchema describes the configurable members of a kind as a JSON Schema
// object. Variables and hybrid constants become numeric (or enum string)
// properties keyed by their formatted names; sources are listed as required
// object properties. Tooling uses it to validate hand-written node trees and
// to describe kinds to remote clients.
func (m *Metadata) JSONSchema() *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:        "object",
		Title:       FormatNodeName(m, false),
		Description: m.Description,
		Properties:  make(map[string]*jsonschema.Schema),
	}

	for _, v := range m.Variables {
		prop := &jsonschema.Schema{Description: v.Description}
		switch v.Type {
		case Float:
			prop.Type = "number"
			prop.Default = mustRaw(v.Default.Float())
			if v.Min != v.Max {
				lo, hi := float64(v.Min.Float()), float64(v.Max.Float())
				prop.Minimum, prop.Maximum = &lo, &hi
			}
		case Int:
			prop.Type = "integer"
			prop.Default = mustRaw(v.Default.Int())
			if v.Min != v.Max {
				lo, hi := float64(v.Min.Int()), float64(v.Max.Int())
				prop.Minimum, prop.Maximum = &lo, &hi
			}
		case Enum:
			prop.Type = "string"
			for _, name := range v.EnumNames {
				prop.Enum = append(prop.Enum, name)
			}
			prop.Default = mustRaw(v.EnumNames[v.Default.Int()])
		}
		s.Properties[FormatMemberName(&v.Member)] = prop
	}

	for _, h := range m.Hybrids {
		s.Properties[FormatMemberName(&h.Member)] = &jsonschema.Schema{
			Description: h.Description,
			Types:       []string{"number", "object"},
			Default:     mustRaw(h.Default),
		}
	}

	for _, src := range m.Sources {
		name := FormatMemberName(&src.Member)
		s.Properties[name] = &jsonschema.Schema{Type: "object", Description: src.Description}
		s.Required = append(s.Required, name)
	}
	return s
}

func mustRaw(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// ValidateMembers checks a decoded member map (as produced by YAML or JSON
// decoding) against the kind's schema. Numbers may be any Go numeric type.
func (m *Metadata) ValidateMembers(members map[string]any) error {
	resolved, err := m.JSONSchema().Resolve(nil)
	if err != nil {
		return fmt.Errorf("resolve schema for %s: %w", m.Name, err)
	}
	instance := make(map[string]any, len(members))
	for k, v := range members {
		instance[k] = normalizeJSON(v)
	}
	if err := resolved.Validate(instance); err != nil {
		return fmt.Errorf("%s: %w", m.Name, err)
	}
	return nil
}

// normalizeJSON converts Go numeric types to float64 the way encoding/json
// would, so the validator sees JSON values.
func normalizeJSON(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = normalizeJSON(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalizeJSON(e)
		}
		return out
	}
	return v
}
