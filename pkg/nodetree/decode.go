package nodetree

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"

	"github.com/sanonone/noisegraph/pkg/metadata"
)

// maxDepth bounds recursion on hostile input.
const maxDepth = 1024

// DecodeNodeData decodes s into NodeData. It returns the root and every
// decoded node in stream order, the root last. Members the registry's schema
// no longer has are read and dropped; sources the stream does not carry are
// filled with the placeholder kind. Any error returns no nodes.
func (c *Codec) DecodeNodeData(s string) (*metadata.NodeData, []*metadata.NodeData, error) {
	root, all, err := c.decode(s)
	record("decode", err)
	return root, all, err
}

func (c *Codec) decode(s string) (*metadata.NodeData, []*metadata.NodeData, error) {
	b, err := DecodeText(s)
	if err != nil {
		return nil, nil, err
	}
	if len(b) == 0 {
		return nil, nil, fmt.Errorf("%w: empty input", ErrTruncated)
	}
	d := decoder{c: c, buf: b}
	root, err := d.node()
	if err != nil {
		return nil, nil, err
	}
	if d.pos != len(b) {
		return nil, nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(b)-d.pos)
	}
	return root, d.nodes, nil
}

type decoder struct {
	c     *Codec
	buf   []byte
	pos   int
	depth int
	nodes []*metadata.NodeData
}

func (d *decoder) need(n int) error {
	if d.pos+n > len(d.buf) {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, d.pos, len(d.buf)-d.pos)
	}
	return nil
}

func (d *decoder) u8() (byte, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	v := d.buf[d.pos]
	d.pos++
	return v, nil
}

func (d *decoder) u16() (uint16, error) {
	if err := d.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(d.buf[d.pos:])
	d.pos += 2
	return v, nil
}

func (d *decoder) u32() (uint32, error) {
	if err := d.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(d.buf[d.pos:])
	d.pos += 4
	return v, nil
}

func (d *decoder) node() (*metadata.NodeData, error) {
	d.depth++
	defer func() { d.depth-- }()
	if d.depth > maxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrMalformed, maxDepth)
	}

	id, err := d.u16()
	if err != nil {
		return nil, err
	}
	if id == refMarker {
		ref, err := d.u16()
		if err != nil {
			return nil, err
		}
		if int(ref) >= len(d.nodes) {
			return nil, fmt.Errorf("%w: %d with %d nodes decoded", ErrBadReference, ref, len(d.nodes))
		}
		return d.nodes[ref], nil
	}

	m, ok := d.c.reg.ByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, id)
	}
	nd := metadata.NewNodeData(m)

	t, err := d.u8()
	if err != nil {
		return nil, err
	}

	// Variables
	for t != terminator && t&tagTypeMask == tagVariable {
		raw, err := d.u32()
		if err != nil {
			return nil, err
		}
		if err := d.variable(nd, int(t>>2), metadata.Value(raw)); err != nil {
			return nil, err
		}
		if t, err = d.u8(); err != nil {
			return nil, err
		}
	}

	// Sources
	if t != terminator && t&tagTypeMask == tagSources {
		count := int(t >> 2)
		for i := 0; i < count; i++ {
			src, err := d.node()
			if err != nil {
				return nil, err
			}
			if i >= len(m.Sources) {
				d.dropped(m, "source", i)
				continue
			}
			if slot := m.Sources[i]; !slot.Accepts(src.Metadata) {
				return nil, fmt.Errorf("%w: %s %q refuses %s", ErrSetterRejected, m.Name, slot.Name, src.Metadata.Name)
			}
			nd.Sources[i] = src
		}
		if t, err = d.u8(); err != nil {
			return nil, err
		}
	}
	for i := range nd.Sources {
		if nd.Sources[i] != nil || d.c.placeholder == nil {
			continue
		}
		slot := m.Sources[i]
		if nd.Sources[i] = d.c.placeholderFor(slot); nd.Sources[i] == nil {
			return nil, fmt.Errorf("%w: %s %q missing and refuses %s",
				ErrSetterRejected, m.Name, slot.Name, d.c.placeholder.Name)
		}
	}

	// Hybrids
	for t != terminator {
		i := int(t >> 2)
		switch t & tagTypeMask {
		case tagHybridValue:
			raw, err := d.u32()
			if err != nil {
				return nil, err
			}
			if i < len(nd.Hybrids) {
				nd.Hybrids[i].Value = math.Float32frombits(raw)
			} else {
				d.dropped(m, "hybrid", i)
			}
		case tagHybridNode:
			src, err := d.node()
			if err != nil {
				return nil, err
			}
			if i < len(nd.Hybrids) {
				nd.Hybrids[i].Node = src
			} else {
				d.dropped(m, "hybrid", i)
			}
		default:
			return nil, fmt.Errorf("%w: member tag %#x out of order in %s", ErrMalformed, t, m.Name)
		}
		if t, err = d.u8(); err != nil {
			return nil, err
		}
	}

	d.nodes = append(d.nodes, nd)
	return nd, nil
}

func (d *decoder) variable(nd *metadata.NodeData, i int, v metadata.Value) error {
	m := nd.Metadata
	if i >= len(m.Variables) {
		d.dropped(m, "variable", i)
		return nil
	}
	desc := m.Variables[i]
	if err := desc.Validate(v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSetterRejected, m.Name, err)
	}
	nd.Variables[i] = v
	return nil
}

func (d *decoder) dropped(m *metadata.Metadata, member string, i int) {
	slog.Debug("[Codec] dropping member outside schema", "kind", m.Name, "member", member, "index", i)
}
