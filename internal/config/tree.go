package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sanonone/noisegraph/pkg/metadata"
	"github.com/sanonone/noisegraph/pkg/nodetree"
	"github.com/sanonone/noisegraph/pkg/noise"
)

// ErrInvalidTree reports an inline node tree that cannot be built.
var ErrInvalidTree = errors.New("invalid node tree")

const maxTreeDepth = 256

// BuildNodeData converts an inline YAML node into NodeData. A node is a map
// with a "type" key naming the kind and one key per member, using formatted
// member names matched loosely ("Octaves", "x_offset"):
//
//	type: FractalFBm
//	Octaves: 5
//	Source: {type: Simplex}
//	Gain: 0.4
//
// Variables take numbers, enum variables take option names, sources take a
// nested node, and hybrids take either a number or a nested node.
func BuildNodeData(reg *metadata.Registry, node map[string]any) (*metadata.NodeData, error) {
	return build(reg, node, "node", 0)
}

func build(reg *metadata.Registry, node map[string]any, path string, depth int) (*metadata.NodeData, error) {
	if depth > maxTreeDepth {
		return nil, fmt.Errorf("%w: %s: nesting deeper than %d", ErrInvalidTree, path, maxTreeDepth)
	}
	typ, ok := node["type"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s: missing type", ErrInvalidTree, path)
	}
	m, ok := reg.ByName(typ)
	if !ok {
		return nil, fmt.Errorf("%w: %s: unknown type %q", ErrInvalidTree, path, typ)
	}

	// Canonical member names, so the schema sees the names it declares.
	members := make(map[string]any, len(node))
	keys := make([]string, 0, len(node))
	for k := range node {
		if k != "type" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		name, ok := canonicalName(m, k)
		if !ok {
			return nil, fmt.Errorf("%w: %s: %w: %s has no member %q", ErrInvalidTree, path, metadata.ErrUnknownMember, m.Name, k)
		}
		if _, dup := members[name]; dup {
			return nil, fmt.Errorf("%w: %s: member %q set twice", ErrInvalidTree, path, name)
		}
		members[name] = node[k]
	}
	if err := m.ValidateMembers(members); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidTree, path, err)
	}

	d := metadata.NewNodeData(m)
	for _, v := range m.Variables {
		name := metadata.FormatMemberName(&v.Member)
		raw, ok := members[name]
		if !ok {
			continue
		}
		var err error
		switch v.Type {
		case metadata.Float:
			f, _ := number(raw)
			err = d.SetFloat(name, float32(f))
		case metadata.Int:
			f, _ := number(raw)
			err = d.SetInt(name, int32(f))
		case metadata.Enum:
			s, _ := raw.(string)
			err = d.SetEnum(name, s)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %w", ErrInvalidTree, path, name, err)
		}
	}
	for _, s := range m.Sources {
		name := metadata.FormatMemberName(&s.Member)
		child, err := subNode(reg, members[name], path+"."+name, depth)
		if err != nil {
			return nil, err
		}
		if err := d.SetSource(name, child); err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %w", ErrInvalidTree, path, name, err)
		}
	}
	for _, h := range m.Hybrids {
		name := metadata.FormatMemberName(&h.Member)
		raw, ok := members[name]
		if !ok {
			continue
		}
		if f, isNum := number(raw); isNum {
			if err := d.SetHybridValue(name, float32(f)); err != nil {
				return nil, err
			}
			continue
		}
		child, err := subNode(reg, raw, path+"."+name, depth)
		if err != nil {
			return nil, err
		}
		if err := d.SetHybridNode(name, child); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func subNode(reg *metadata.Registry, raw any, path string, depth int) (*metadata.NodeData, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: expected a node", ErrInvalidTree, path)
	}
	return build(reg, m, path, depth+1)
}

func canonicalName(m *metadata.Metadata, key string) (string, bool) {
	if v, ok := m.Variable(key); ok {
		return metadata.FormatMemberName(&v.Member), true
	}
	if s, ok := m.Source(key); ok {
		return metadata.FormatMemberName(&s.Member), true
	}
	if h, ok := m.Hybrid(key); ok {
		return metadata.FormatMemberName(&h.Member), true
	}
	return "", false
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// EncodedTree returns the '@' base64 form of the tree named by t. Preset
// trees are resolved by lookup, which may be nil when t names no preset.
func (t TreeConfig) EncodedTree(lookup func(name string) (string, error)) (string, error) {
	switch {
	case t.Encoded != "":
		return t.Encoded, nil
	case t.Preset != "":
		if lookup == nil {
			return "", fmt.Errorf("%w: preset %q without a preset store", ErrInvalidConfig, t.Preset)
		}
		return lookup(t.Preset)
	case t.Node != nil:
		d, err := BuildNodeData(noise.Registry(), t.Node)
		if err != nil {
			return "", err
		}
		return nodetree.Encode(d, false)
	}
	return "", fmt.Errorf("%w: render.tree is empty", ErrInvalidConfig)
}

// TreeMap is the inverse of BuildNodeData. Members left at their defaults
// are omitted; a subtree shared by several parents is written out once per
// reference.
func TreeMap(d *metadata.NodeData) map[string]any {
	m := d.Metadata
	out := map[string]any{"type": m.Name}
	for i, v := range m.Variables {
		val := d.Variables[i]
		if val == v.Default {
			continue
		}
		name := metadata.FormatMemberName(&v.Member)
		switch v.Type {
		case metadata.Float:
			out[name] = float64(val.Float())
		case metadata.Int:
			out[name] = int(val.Int())
		case metadata.Enum:
			if opt := int(val.Int()); opt >= 0 && opt < len(v.EnumNames) {
				out[name] = v.EnumNames[opt]
			}
		}
	}
	for i, s := range m.Sources {
		if src := d.Sources[i]; src != nil {
			out[metadata.FormatMemberName(&s.Member)] = TreeMap(src)
		}
	}
	for i, h := range m.Hybrids {
		name := metadata.FormatMemberName(&h.Member)
		switch hd := d.Hybrids[i]; {
		case hd.Node != nil:
			out[name] = TreeMap(hd.Node)
		case hd.Value != h.Default:
			out[name] = float64(hd.Value)
		}
	}
	return out
}
