package noise

import (
	"fmt"
	"sync/atomic"

	"github.com/sanonone/noisegraph/pkg/metadata"
	"github.com/sanonone/noisegraph/pkg/metrics"
	"github.com/sanonone/noisegraph/pkg/simd"
)

// node is the shared state behind every SmartNode handle to one instance.
// It keeps the canonical member values next to the level-specific generator
// so a node can be described without asking the kernel.
type node struct {
	kind  Kind
	meta  *metadata.Metadata
	level simd.Level
	gen   generator
	refs  atomic.Int32

	vars         []metadata.Value
	sources      []*SmartNode
	hybridNodes  []*SmartNode
	hybridValues []float32
}

// SmartNode is a counted reference to a node. Every handle returned by New,
// NewByName, Clone or FromNodeData must be released exactly once; the node
// returns to the pool when its last handle is released. Linking a node into
// another node's source or hybrid takes a reference of its own, so callers
// may release their handle right after linking.
//
// Configuration is not safe for concurrent use. Once configured, a node may
// generate from any number of goroutines at once.
type SmartNode struct {
	n        *node
	released atomic.Bool
}

var _ metadata.Node = (*SmartNode)(nil)

// New creates a node of kind k at the widest usable level not above level
// (Auto picks the widest). It returns nil when k is unknown or no compiled
// level is supported by this CPU.
func New(k Kind, level simd.Level) *SmartNode {
	if k >= kindCount {
		return nil
	}
	l, ok := simd.Resolve(level)
	if !ok {
		return nil
	}
	g := instantiate(k, l)
	if g == nil {
		return nil
	}
	m := MetadataOf(k)

	n := pool.get()
	n.kind, n.meta, n.level, n.gen = k, m, l, g
	n.refs.Store(1)

	n.vars = make([]metadata.Value, len(m.Variables))
	for i, v := range m.Variables {
		n.vars[i] = v.Default
		g.setVariable(i, v.Default)
	}
	n.sources = make([]*SmartNode, len(m.Sources))
	n.hybridNodes = make([]*SmartNode, len(m.Hybrids))
	n.hybridValues = make([]float32, len(m.Hybrids))
	for i, h := range m.Hybrids {
		n.hybridValues[i] = h.Default
		g.setHybridValue(i, h.Default)
	}

	metrics.NodesCreated.WithLabelValues(m.Name, l.String()).Inc()
	return &SmartNode{n: n}
}

// NewByName creates a node from a kind name as accepted by the registry
// ("FractalFBm", "fractal fbm").
func NewByName(name string, level simd.Level) (*SmartNode, error) {
	m, ok := Registry().ByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
	s := New(Kind(m.ID), level)
	if s == nil {
		return nil, fmt.Errorf("%w: %s at %s", ErrUnavailable, m.Name, level)
	}
	return s, nil
}

func (s *SmartNode) live() *node {
	if s.released.Load() {
		panic("noise: use of released node handle")
	}
	return s.n
}

// Clone returns a new handle to the same node.
func (s *SmartNode) Clone() *SmartNode {
	n := s.live()
	n.refs.Add(1)
	return &SmartNode{n: n}
}

// Release drops this handle's reference. Releasing a handle twice panics.
func (s *SmartNode) Release() {
	if !s.released.CompareAndSwap(false, true) {
		panic("noise: node handle released twice")
	}
	n := s.n
	s.n = nil
	if n.refs.Add(-1) > 0 {
		return
	}
	for _, c := range n.sources {
		if c != nil {
			c.Release()
		}
	}
	for _, c := range n.hybridNodes {
		if c != nil {
			c.Release()
		}
	}
	pool.put(n)
}

// RefCount returns the number of live handles to the node, including the
// references held by parent nodes.
func (s *SmartNode) RefCount() int32 { return s.live().refs.Load() }

// Same reports whether two handles refer to the same node.
func (s *SmartNode) Same(other *SmartNode) bool {
	return other != nil && s.live() == other.live()
}

func (s *SmartNode) Kind() Kind                   { return s.live().kind }
func (s *SmartNode) Metadata() *metadata.Metadata { return s.live().meta }
func (s *SmartNode) Level() simd.Level            { return s.live().level }

// SetVariableAt implements metadata.Node.
func (s *SmartNode) SetVariableAt(index int, v metadata.Value) error {
	n := s.live()
	if index < 0 || index >= len(n.vars) {
		return fmt.Errorf("%w: %s variable %d", metadata.ErrMemberIndex, n.meta.Name, index)
	}
	if err := n.meta.Variables[index].Validate(v); err != nil {
		return err
	}
	n.vars[index] = v
	n.gen.setVariable(index, v)
	return nil
}

// child validates a node about to be linked into n.
func (s *SmartNode) child(src metadata.Node) (*SmartNode, error) {
	n := s.live()
	c, ok := src.(*SmartNode)
	if !ok || c == nil {
		return nil, fmt.Errorf("%w: %T is not a noise node", ErrWrongNodeType, src)
	}
	cn := c.live()
	if cn.level != n.level {
		return nil, fmt.Errorf("%w: %s is %s, %s is %s",
			ErrLevelMismatch, cn.meta.Name, cn.level, n.meta.Name, n.level)
	}
	if reaches(cn, n) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrCycle, n.meta.Name, cn.meta.Name)
	}
	return c, nil
}

// reaches reports whether target is from or one of its descendants.
func reaches(from, target *node) bool {
	if from == target {
		return true
	}
	for _, c := range from.sources {
		if c != nil && reaches(c.n, target) {
			return true
		}
	}
	for _, c := range from.hybridNodes {
		if c != nil && reaches(c.n, target) {
			return true
		}
	}
	return false
}

// SetSourceAt implements metadata.Node.
func (s *SmartNode) SetSourceAt(index int, src metadata.Node) error {
	n := s.live()
	if index < 0 || index >= len(n.sources) {
		return fmt.Errorf("%w: %s source %d", metadata.ErrMemberIndex, n.meta.Name, index)
	}
	c, err := s.child(src)
	if err != nil {
		return err
	}
	old := n.sources[index]
	n.sources[index] = c.Clone()
	n.gen.setSource(index, c.n.gen)
	if old != nil {
		old.Release()
	}
	return nil
}

// SetHybridNodeAt implements metadata.Node.
func (s *SmartNode) SetHybridNodeAt(index int, src metadata.Node) error {
	n := s.live()
	if index < 0 || index >= len(n.hybridNodes) {
		return fmt.Errorf("%w: %s hybrid %d", metadata.ErrMemberIndex, n.meta.Name, index)
	}
	c, err := s.child(src)
	if err != nil {
		return err
	}
	old := n.hybridNodes[index]
	n.hybridNodes[index] = c.Clone()
	n.gen.setHybridNode(index, c.n.gen)
	if old != nil {
		old.Release()
	}
	return nil
}

// SetHybridValueAt implements metadata.Node. A linked node keeps priority
// over the value.
func (s *SmartNode) SetHybridValueAt(index int, v float32) error {
	n := s.live()
	if index < 0 || index >= len(n.hybridValues) {
		return fmt.Errorf("%w: %s hybrid %d", metadata.ErrMemberIndex, n.meta.Name, index)
	}
	n.hybridValues[index] = v
	n.gen.setHybridValue(index, v)
	return nil
}

// ClearHybridNode unlinks the node from a hybrid so its value applies again.
func (s *SmartNode) ClearHybridNode(name string) error {
	n := s.live()
	h, ok := n.meta.Hybrid(name)
	if !ok {
		return fmt.Errorf("%w: %s has no hybrid %q", ErrUnknownMember, n.meta.Name, name)
	}
	if old := n.hybridNodes[h.Index]; old != nil {
		n.hybridNodes[h.Index] = nil
		n.gen.setHybridNode(h.Index, nil)
		old.Release()
	}
	return nil
}

// SetFloat sets a float variable by member name.
func (s *SmartNode) SetFloat(name string, f float32) error {
	v, err := s.variable(name, metadata.Float)
	if err != nil {
		return err
	}
	return v.Set(s, metadata.FloatValue(f))
}

// SetInt sets an int variable by member name.
func (s *SmartNode) SetInt(name string, i int32) error {
	v, err := s.variable(name, metadata.Int)
	if err != nil {
		return err
	}
	return v.Set(s, metadata.IntValue(i))
}

// SetEnum sets an enum variable by option name.
func (s *SmartNode) SetEnum(name, option string) error {
	v, err := s.variable(name, metadata.Enum)
	if err != nil {
		return err
	}
	val, ok := v.EnumValue(option)
	if !ok {
		return fmt.Errorf("%w: %q has no option %q", metadata.ErrValueOutOfRange, name, option)
	}
	return v.Set(s, val)
}

func (s *SmartNode) variable(name string, t metadata.VariableType) (*metadata.Variable, error) {
	m := s.Metadata()
	v, ok := m.Variable(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no variable %q", ErrUnknownMember, m.Name, name)
	}
	if v.Type != t {
		return nil, fmt.Errorf("%w: %q is %s, not %s", ErrWrongNodeType, name, v.Type, t)
	}
	return v, nil
}

// SetSource links src into the named source slot.
func (s *SmartNode) SetSource(name string, src *SmartNode) error {
	m := s.Metadata()
	slot, ok := m.Source(name)
	if !ok {
		return fmt.Errorf("%w: %s has no source %q", ErrUnknownMember, m.Name, name)
	}
	if src == nil {
		return slot.Set(s, nil)
	}
	return slot.Set(s, src)
}

// SetHybridValue sets the constant of the named hybrid.
func (s *SmartNode) SetHybridValue(name string, f float32) error {
	m := s.Metadata()
	h, ok := m.Hybrid(name)
	if !ok {
		return fmt.Errorf("%w: %s has no hybrid %q", ErrUnknownMember, m.Name, name)
	}
	return h.SetValue(s, f)
}

// SetHybridNode links src into the named hybrid.
func (s *SmartNode) SetHybridNode(name string, src *SmartNode) error {
	m := s.Metadata()
	h, ok := m.Hybrid(name)
	if !ok {
		return fmt.Errorf("%w: %s has no hybrid %q", ErrUnknownMember, m.Name, name)
	}
	if src == nil {
		return h.SetNode(s, nil)
	}
	return h.SetNode(s, src)
}
