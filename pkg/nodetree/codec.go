// Package nodetree converts node graphs to and from the compact encoded
// tree form: a little-endian byte stream wrapped in a compressed base64
// text.
//
// Stream layout per node:
//
//	u16 type id | 0xFFFF u16 back-reference
//	{ tag(variable, i) u32 }           variables that differ from default
//	[ tag(sources, n) node × n ]        only when the kind has sources
//	{ tag(hybrid value, i) f32 | tag(hybrid node, i) node }
//	0xFF                                terminator
//
// A tag byte holds the member type in its low two bits and the index (or
// source count) in the upper six. Nodes are numbered in the order their
// terminators are written; a back-reference names an earlier number.
package nodetree

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sanonone/noisegraph/pkg/metadata"
	"github.com/sanonone/noisegraph/pkg/metrics"
	"github.com/sanonone/noisegraph/pkg/noise"
	"github.com/sanonone/noisegraph/pkg/simd"
)

const (
	refMarker  uint16 = 0xFFFF
	terminator byte   = 0xFF

	tagVariable    byte = 0
	tagSources     byte = 1
	tagHybridValue byte = 2
	tagHybridNode  byte = 3
	tagTypeMask    byte = 0x3
)

func tag(kind byte, index int) byte { return kind | byte(index)<<2 }

// Codec encodes and decodes trees against one registry. Type ids are only
// meaningful for the registry that assigned them.
type Codec struct {
	reg *metadata.Registry
	// placeholder fills source slots that a stream does not carry, which
	// happens when a kind gained a source after the tree was encoded.
	placeholder *metadata.Metadata
}

// NewCodec returns a codec for reg. placeholder may be nil, in which case
// sources missing from a stream are left unset.
func NewCodec(reg *metadata.Registry, placeholder *metadata.Metadata) *Codec {
	return &Codec{reg: reg, placeholder: placeholder}
}

var builtin = sync.OnceValue(func() *Codec {
	return NewCodec(noise.Registry(), noise.MetadataOf(noise.KindConstant))
})

// Default returns the codec for the builtin node kinds.
func Default() *Codec { return builtin() }

// Encode encodes root with the builtin codec.
func Encode(root *metadata.NodeData, fixUp bool) (string, error) {
	return builtin().Encode(root, fixUp)
}

// EncodeNode encodes the live graph rooted at n.
func EncodeNode(n *noise.SmartNode) (string, error) {
	return builtin().Encode(noise.ToNodeData(n), false)
}

// DecodeNodeData decodes s with the builtin codec.
func DecodeNodeData(s string) (*metadata.NodeData, []*metadata.NodeData, error) {
	return builtin().DecodeNodeData(s)
}

// NewFromEncodedNodeTree decodes s and instantiates it at level.
func NewFromEncodedNodeTree(s string, level simd.Level) (*noise.SmartNode, error) {
	return builtin().NewFromEncodedNodeTree(s, level)
}

// NewFromEncodedNodeTree decodes s and builds live nodes at level. On any
// failure no node stays alive.
func (c *Codec) NewFromEncodedNodeTree(s string, level simd.Level) (*noise.SmartNode, error) {
	root, _, err := c.DecodeNodeData(s)
	if err != nil {
		return nil, err
	}
	n, err := noise.FromNodeData(root, level)
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, noise.ErrUnavailable):
		return nil, err
	case errors.Is(err, noise.ErrUnknownKind):
		return nil, fmt.Errorf("%w: %w", ErrUnknownType, err)
	default:
		return nil, fmt.Errorf("%w: %w", ErrSetterRejected, err)
	}
}

func record(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.CodecOperations.WithLabelValues(op, result).Inc()
}
