package nodetree

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"

	"github.com/sanonone/noisegraph/pkg/metadata"
)

// Encode writes the tree rooted at root. Sub-trees shared by several parents
// are written once and referenced afterwards.
//
// With fixUp, root is first edited in place: every link that closes a cycle
// and every source holding a kind its slot refuses is cut. A cut source is
// replaced by a default placeholder node when the slot accepts one; a cut
// hybrid falls back to its constant. Without fixUp a cycle fails with
// ErrCycle.
func (c *Codec) Encode(root *metadata.NodeData, fixUp bool) (string, error) {
	s, err := c.encode(root, fixUp)
	record("encode", err)
	return s, err
}

func (c *Codec) encode(root *metadata.NodeData, fixUp bool) (string, error) {
	if root == nil {
		return "", metadata.ErrNilNode
	}
	if fixUp {
		c.fixUp(root)
	}
	e := encoder{
		reg:    c.reg,
		refs:   make(map[*metadata.NodeData]uint16),
		active: make(map[*metadata.NodeData]bool),
	}
	if err := e.node(root); err != nil {
		return "", err
	}
	return EncodeText(e.buf), nil
}

type encoder struct {
	reg    *metadata.Registry
	buf    []byte
	refs   map[*metadata.NodeData]uint16
	active map[*metadata.NodeData]bool
}

func (e *encoder) u16(v uint16) { e.buf = binary.LittleEndian.AppendUint16(e.buf, v) }
func (e *encoder) u32(v uint32) { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }

func (e *encoder) node(d *metadata.NodeData) error {
	if id, ok := e.refs[d]; ok {
		e.u16(refMarker)
		e.u16(id)
		return nil
	}
	if err := d.Validate(); err != nil {
		return err
	}
	m := d.Metadata
	if e.active[d] {
		return fmt.Errorf("%w: %s is its own ancestor", ErrCycle, m.Name)
	}
	if r, ok := e.reg.ByID(m.ID); !ok || r != m {
		return fmt.Errorf("%w: %s is not registered with this codec", ErrUnknownType, m.Name)
	}
	e.active[d] = true
	defer delete(e.active, d)

	// 1. Type id
	e.u16(m.ID)

	// 2. Variables that differ from their default
	for i, v := range d.Variables {
		if v != m.Variables[i].Default {
			e.buf = append(e.buf, tag(tagVariable, i))
			e.u32(uint32(v))
		}
	}

	// 3. Sources, all mandatory
	if len(m.Sources) > 0 {
		e.buf = append(e.buf, tag(tagSources, len(m.Sources)))
		for i, src := range d.Sources {
			slot := m.Sources[i]
			if src == nil {
				return fmt.Errorf("%w: %s %q", ErrMissingSource, m.Name, slot.Name)
			}
			if !slot.Accepts(src.Metadata) {
				return fmt.Errorf("%w: %s %q requires a %s node, got %s",
					metadata.ErrWrongNodeType, m.Name, slot.Name, slot.Requires, src.Metadata.Name)
			}
			if err := e.node(src); err != nil {
				return err
			}
		}
	}

	// 4. Hybrids: the constant when not default, then the link if any
	for i, h := range d.Hybrids {
		if math.Float32bits(h.Value) != math.Float32bits(m.Hybrids[i].Default) {
			e.buf = append(e.buf, tag(tagHybridValue, i))
			e.u32(math.Float32bits(h.Value))
		}
		if h.Node != nil {
			e.buf = append(e.buf, tag(tagHybridNode, i))
			if err := e.node(h.Node); err != nil {
				return err
			}
		}
	}

	// 5. Terminator; only a finished node can be referenced
	e.buf = append(e.buf, terminator)
	if len(e.refs) >= int(refMarker) {
		return ErrTooManyNodes
	}
	e.refs[d] = uint16(len(e.refs))
	return nil
}

const (
	fixOnPath = iota + 1
	fixDone
)

// fixUp cuts back edges found by a depth-first walk, which leaves the graph
// acyclic, and replaces sources whose kind the slot refuses.
func (c *Codec) fixUp(root *metadata.NodeData) {
	state := make(map[*metadata.NodeData]int)
	var visit func(d *metadata.NodeData)
	visit = func(d *metadata.NodeData) {
		state[d] = fixDone
		if d.Validate() != nil {
			return
		}
		state[d] = fixOnPath
		m := d.Metadata
		for i, src := range d.Sources {
			if src == nil {
				continue
			}
			slot := m.Sources[i]
			if state[src] == fixOnPath || src.Metadata == nil || !slot.Accepts(src.Metadata) {
				slog.Debug("[Codec] fix-up replaced source", "kind", m.Name, "slot", slot.Name)
				d.Sources[i] = c.placeholderFor(slot)
				continue
			}
			if state[src] == 0 {
				visit(src)
			}
		}
		for i := range d.Hybrids {
			h := d.Hybrids[i].Node
			if h == nil {
				continue
			}
			if state[h] == fixOnPath {
				slog.Debug("[Codec] fix-up cut hybrid link", "kind", m.Name, "slot", m.Hybrids[i].Name)
				d.Hybrids[i].Node = nil
				continue
			}
			if state[h] == 0 {
				visit(h)
			}
		}
		state[d] = fixDone
	}
	visit(root)
}

func (c *Codec) placeholderFor(slot *metadata.Source) *metadata.NodeData {
	if c.placeholder == nil || !slot.Accepts(c.placeholder) {
		return nil
	}
	return metadata.NewNodeData(c.placeholder)
}
