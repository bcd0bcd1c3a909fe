package noise

import (
	"fmt"

	"github.com/sanonone/noisegraph/pkg/metadata"
	"github.com/sanonone/noisegraph/pkg/simd"
)

// ToNodeData describes the graph rooted at s as detached NodeData. Nodes
// shared by several parents map to one shared NodeData.
func ToNodeData(s *SmartNode) *metadata.NodeData {
	return toNodeData(s.live(), make(map[*node]*metadata.NodeData))
}

func toNodeData(n *node, seen map[*node]*metadata.NodeData) *metadata.NodeData {
	if d, ok := seen[n]; ok {
		return d
	}
	d := metadata.NewNodeData(n.meta)
	seen[n] = d
	copy(d.Variables, n.vars)
	for i, c := range n.sources {
		if c != nil {
			d.Sources[i] = toNodeData(c.n, seen)
		}
	}
	for i, v := range n.hybridValues {
		d.Hybrids[i].Value = v
		if c := n.hybridNodes[i]; c != nil {
			d.Hybrids[i].Node = toNodeData(c.n, seen)
		}
	}
	return d
}

// FromNodeData instantiates the graph described by d at level. NodeData
// shared by several parents becomes one shared node. Unset sources are left
// at their zero placeholder. A cyclic d fails with ErrCycle.
func FromNodeData(d *metadata.NodeData, level simd.Level) (*SmartNode, error) {
	built := make(map[*metadata.NodeData]*SmartNode)
	root, err := fromNodeData(d, level, built)
	// built holds one handle per node; parents took their own references.
	for nd, s := range built {
		if nd != d || err != nil {
			s.Release()
		}
	}
	if err != nil {
		return nil, err
	}
	return root, nil
}

// A cycle in d surfaces as ErrCycle from the link that would close it.
func fromNodeData(d *metadata.NodeData, level simd.Level, built map[*metadata.NodeData]*SmartNode) (*SmartNode, error) {
	if s, ok := built[d]; ok {
		return s, nil
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	if int(d.Metadata.ID) >= int(kindCount) || MetadataOf(Kind(d.Metadata.ID)) != d.Metadata {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, d.Metadata.Name)
	}
	s := New(Kind(d.Metadata.ID), level)
	if s == nil {
		return nil, fmt.Errorf("%w: %s at %s", ErrUnavailable, d.Metadata.Name, level)
	}
	built[d] = s
	m := d.Metadata

	for i, v := range d.Variables {
		if err := m.Variables[i].Set(s, v); err != nil {
			return nil, err
		}
	}
	for i, src := range d.Sources {
		if src == nil {
			continue
		}
		c, err := fromNodeData(src, level, built)
		if err != nil {
			return nil, err
		}
		if err := m.Sources[i].Set(s, c); err != nil {
			return nil, err
		}
	}
	for i, h := range d.Hybrids {
		if err := m.Hybrids[i].SetValue(s, h.Value); err != nil {
			return nil, err
		}
		if h.Node == nil {
			continue
		}
		c, err := fromNodeData(h.Node, level, built)
		if err != nil {
			return nil, err
		}
		if err := m.Hybrids[i].SetNode(s, c); err != nil {
			return nil, err
		}
	}
	return s, nil
}
