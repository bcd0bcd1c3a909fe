package metadata

import (
	"fmt"
)

// HybridData is the state of one hybrid slot in a NodeData.
type HybridData struct {
	Node  *NodeData
	Value float32
}

// NodeData is a detached, editable description of one configured node: its
// kind, variable values and links to other NodeData. It is the unit of
// encoding and decoding and never owns generation state.
type NodeData struct {
	Metadata  *Metadata
	Variables []Value
	Sources   []*NodeData
	Hybrids   []HybridData
}

// NewNodeData returns a NodeData for kind m with every member at its default.
func NewNodeData(m *Metadata) *NodeData {
	d := &NodeData{
		Metadata:  m,
		Variables: make([]Value, len(m.Variables)),
		Sources:   make([]*NodeData, len(m.Sources)),
		Hybrids:   make([]HybridData, len(m.Hybrids)),
	}
	for i, v := range m.Variables {
		d.Variables[i] = v.Default
	}
	for i, h := range m.Hybrids {
		d.Hybrids[i].Value = h.Default
	}
	return d
}

// Validate checks that the member lists match the kind's schema.
func (d *NodeData) Validate() error {
	if d == nil || d.Metadata == nil {
		return ErrNilNode
	}
	m := d.Metadata
	if len(d.Variables) != len(m.Variables) || len(d.Sources) != len(m.Sources) || len(d.Hybrids) != len(m.Hybrids) {
		return fmt.Errorf("%w: %s data has %d/%d/%d members, schema has %d/%d/%d",
			ErrMemberIndex, m.Name,
			len(d.Variables), len(d.Sources), len(d.Hybrids),
			len(m.Variables), len(m.Sources), len(m.Hybrids))
	}
	return nil
}

// SetFloat sets a float variable by member name.
func (d *NodeData) SetFloat(name string, f float32) error {
	v, ok := d.Metadata.Variable(name)
	if !ok {
		return fmt.Errorf("%w: %s has no variable %q", ErrUnknownMember, d.Metadata.Name, name)
	}
	if v.Type != Float {
		return fmt.Errorf("%w: %q is %s, not float", ErrWrongNodeType, name, v.Type)
	}
	d.Variables[v.Index] = FloatValue(f)
	return nil
}

// SetInt sets an int or enum variable by member name.
func (d *NodeData) SetInt(name string, i int32) error {
	v, ok := d.Metadata.Variable(name)
	if !ok {
		return fmt.Errorf("%w: %s has no variable %q", ErrUnknownMember, d.Metadata.Name, name)
	}
	if v.Type == Float {
		return fmt.Errorf("%w: %q is float, not int", ErrWrongNodeType, name)
	}
	if err := v.Validate(IntValue(i)); err != nil {
		return err
	}
	d.Variables[v.Index] = IntValue(i)
	return nil
}

// SetEnum sets an enum variable by option name.
func (d *NodeData) SetEnum(name, option string) error {
	v, ok := d.Metadata.Variable(name)
	if !ok {
		return fmt.Errorf("%w: %s has no variable %q", ErrUnknownMember, d.Metadata.Name, name)
	}
	if v.Type != Enum {
		return fmt.Errorf("%w: %q is %s, not enum", ErrWrongNodeType, name, v.Type)
	}
	val, ok := v.EnumValue(option)
	if !ok {
		return fmt.Errorf("%w: %q has no option %q", ErrValueOutOfRange, name, option)
	}
	d.Variables[v.Index] = val
	return nil
}

// SetSource links src into the named source slot.
func (d *NodeData) SetSource(name string, src *NodeData) error {
	s, ok := d.Metadata.Source(name)
	if !ok {
		return fmt.Errorf("%w: %s has no source %q", ErrUnknownMember, d.Metadata.Name, name)
	}
	if src != nil && !s.Accepts(src.Metadata) {
		return fmt.Errorf("%w: %q requires a %s node", ErrWrongNodeType, name, s.Requires)
	}
	d.Sources[s.Index] = src
	return nil
}

// SetHybridValue sets the constant of the named hybrid. A linked node still
// takes priority over it.
func (d *NodeData) SetHybridValue(name string, f float32) error {
	h, ok := d.Metadata.Hybrid(name)
	if !ok {
		return fmt.Errorf("%w: %s has no hybrid %q", ErrUnknownMember, d.Metadata.Name, name)
	}
	d.Hybrids[h.Index].Value = f
	return nil
}

// SetHybridNode links src into the named hybrid, keeping its constant.
func (d *NodeData) SetHybridNode(name string, src *NodeData) error {
	h, ok := d.Metadata.Hybrid(name)
	if !ok {
		return fmt.Errorf("%w: %s has no hybrid %q", ErrUnknownMember, d.Metadata.Name, name)
	}
	d.Hybrids[h.Index].Node = src
	return nil
}

// Walk visits d and every NodeData reachable from it exactly once, depth
// first, sources before hybrids.
func (d *NodeData) Walk(fn func(*NodeData)) {
	seen := make(map[*NodeData]bool)
	var visit func(*NodeData)
	visit = func(n *NodeData) {
		if n == nil || seen[n] {
			return
		}
		seen[n] = true
		fn(n)
		for _, s := range n.Sources {
			visit(s)
		}
		for _, h := range n.Hybrids {
			visit(h.Node)
		}
	}
	visit(d)
}
