// Package metadata describes node kinds generically: which variables, sources
// and hybrids each kind has, their defaults and how to set them on a live node
// without knowing its concrete type.
//
// One Metadata exists per node kind. Metadata values are collected in a
// Registry during an explicit init phase; the registry assigns the small
// integer ids used on the wire and is read-only once frozen.
package metadata

import (
	"fmt"

	"github.com/sanonone/noisegraph/pkg/simd"
)

// Dimension names used by per-dimension members.
var DimensionNames = [4]string{"X", "Y", "Z", "W"}

// Node is the view of a live node that descriptors operate on. The index
// based setters are the only way descriptors mutate a node; they validate
// the index and argument and leave the node untouched on error.
type Node interface {
	Metadata() *Metadata
	Level() simd.Level
	SetVariableAt(index int, v Value) error
	SetSourceAt(index int, src Node) error
	SetHybridNodeAt(index int, src Node) error
	SetHybridValueAt(index int, v float32) error
}

// Member holds the fields shared by every member descriptor.
type Member struct {
	Name        string
	Description string
	// DimensionIndex is the axis (0=X .. 3=W) a per-dimension member applies
	// to, or -1.
	DimensionIndex int
	// Index is the position of the member within its list.
	Index int

	owner *Metadata
}

// Owner returns the node kind the member belongs to.
func (m *Member) Owner() *Metadata { return m.owner }

func (m *Member) check(n Node) error {
	if n == nil {
		return ErrNilNode
	}
	if n.Metadata() != m.owner {
		return fmt.Errorf("%w: %q is a member of %s, node is %s",
			ErrWrongNodeType, m.Name, m.owner.Name, n.Metadata().Name)
	}
	return nil
}

// Variable describes a plain value member.
type Variable struct {
	Member
	Type    VariableType
	Default Value
	// Min and Max bound the value; equal values mean unbounded. Int bounds
	// are enforced, float bounds are only a hint for editors.
	Min, Max  Value
	EnumNames []string
}

// Set applies v to n. It fails without side effects when n is not of the
// variable's kind or when Validate rejects the value.
func (v *Variable) Set(n Node, val Value) error {
	if err := v.check(n); err != nil {
		return err
	}
	if err := v.Validate(val); err != nil {
		return err
	}
	return n.SetVariableAt(v.Index, val)
}

// Validate returns ErrValueOutOfRange when val is an enum index with no
// option or an int outside [Min, Max].
func (v *Variable) Validate(val Value) error {
	switch v.Type {
	case Enum:
		if val.Int() < 0 || int(val.Int()) >= len(v.EnumNames) {
			return fmt.Errorf("%w: %q has no option %d", ErrValueOutOfRange, v.Name, val.Int())
		}
	case Int:
		lo, hi := v.Min.Int(), v.Max.Int()
		if lo != hi && (val.Int() < lo || val.Int() > hi) {
			return fmt.Errorf("%w: %q must be in [%d, %d], got %d", ErrValueOutOfRange, v.Name, lo, hi, val.Int())
		}
	}
	return nil
}

// EnumValue returns the value of the named option.
func (v *Variable) EnumValue(option string) (Value, bool) {
	for i, name := range v.EnumNames {
		if name == option {
			return IntValue(int32(i)), true
		}
	}
	return 0, false
}

// Source describes a mandatory node input.
type Source struct {
	Member
	// Requires, when set, is a group the linked node must belong to.
	Requires string
}

// Accepts reports whether a node of kind m may be linked to this source.
func (s *Source) Accepts(m *Metadata) bool {
	return m != nil && (s.Requires == "" || m.InGroup(s.Requires))
}

// Set links src into the source slot of n.
func (s *Source) Set(n Node, src Node) error {
	if err := s.check(n); err != nil {
		return err
	}
	if src == nil {
		return ErrNilNode
	}
	if !s.Accepts(src.Metadata()) {
		return fmt.Errorf("%w: %q requires a %s node, got %s",
			ErrWrongNodeType, s.Name, s.Requires, src.Metadata().Name)
	}
	return n.SetSourceAt(s.Index, src)
}

// Hybrid describes an input that is either a constant or a node. A linked
// node takes priority over the constant.
type Hybrid struct {
	Member
	Default float32
}

func (h *Hybrid) SetValue(n Node, v float32) error {
	if err := h.check(n); err != nil {
		return err
	}
	return n.SetHybridValueAt(h.Index, v)
}

func (h *Hybrid) SetNode(n Node, src Node) error {
	if err := h.check(n); err != nil {
		return err
	}
	if src == nil {
		return ErrNilNode
	}
	return n.SetHybridNodeAt(h.Index, src)
}

// Metadata is the static description of one node kind.
type Metadata struct {
	// ID is assigned by Registry.Register and used as the wire identifier.
	ID            uint16
	Name          string
	FormattedName string
	Groups        []string
	Description   string

	Variables []*Variable
	Sources   []*Source
	Hybrids   []*Hybrid

	create     func(simd.Level) Node
	registered bool
}

// New starts the description of a node kind. create instantiates a live node
// of that kind at a feature level and returns nil when the level is not
// available.
func New(name string, create func(simd.Level) Node) *Metadata {
	return &Metadata{Name: name, create: create}
}

// CreateNode instantiates a node of this kind, or returns nil when no
// compiled level qualifies.
func (m *Metadata) CreateNode(level simd.Level) Node {
	if m.create == nil {
		return nil
	}
	return m.create(level)
}

// InGroup reports whether the kind is tagged with group.
func (m *Metadata) InGroup(group string) bool {
	for _, g := range m.Groups {
		if g == group {
			return true
		}
	}
	return false
}

func (m *Metadata) String() string { return m.Name }

// Group appends grouping tags.
func (m *Metadata) Group(groups ...string) *Metadata {
	m.Groups = append(m.Groups, groups...)
	return m
}

// Describe sets the description.
func (m *Metadata) Describe(text string) *Metadata {
	m.Description = text
	return m
}

// FloatVar adds a float variable. Passing min == max leaves it unbounded.
func (m *Metadata) FloatVar(name, desc string, def, lo, hi float32) *Metadata {
	m.addVariable(name, desc, -1, Float, FloatValue(def), FloatValue(lo), FloatValue(hi), nil)
	return m
}

// IntVar adds an int variable. Passing min == max leaves it unbounded.
func (m *Metadata) IntVar(name, desc string, def, lo, hi int32) *Metadata {
	m.addVariable(name, desc, -1, Int, IntValue(def), IntValue(lo), IntValue(hi), nil)
	return m
}

// EnumVar adds an enum variable with the given options; def indexes options.
func (m *Metadata) EnumVar(name, desc string, def int32, options ...string) *Metadata {
	m.addVariable(name, desc, -1, Enum, IntValue(def), 0, IntValue(int32(len(options)-1)), options)
	return m
}

// PerDimensionFloatVar adds one float variable per axis, X through W.
func (m *Metadata) PerDimensionFloatVar(name, desc string, def float32) *Metadata {
	for d := range DimensionNames {
		m.addVariable(name, desc, d, Float, FloatValue(def), 0, 0, nil)
	}
	return m
}

func (m *Metadata) addVariable(name, desc string, dim int, t VariableType, def, lo, hi Value, enum []string) {
	m.mustBeOpen()
	m.Variables = append(m.Variables, &Variable{
		Member:    Member{Name: name, Description: desc, DimensionIndex: dim, Index: len(m.Variables), owner: m},
		Type:      t,
		Default:   def,
		Min:       lo,
		Max:       hi,
		EnumNames: enum,
	})
}

// SourceSlot adds a mandatory node input. requires optionally restricts the
// accepted nodes to one group.
func (m *Metadata) SourceSlot(name, desc, requires string) *Metadata {
	m.mustBeOpen()
	m.Sources = append(m.Sources, &Source{
		Member:   Member{Name: name, Description: desc, DimensionIndex: -1, Index: len(m.Sources), owner: m},
		Requires: requires,
	})
	return m
}

// HybridSlot adds a constant-or-node input.
func (m *Metadata) HybridSlot(name, desc string, def float32) *Metadata {
	m.addHybrid(name, desc, -1, def)
	return m
}

// PerDimensionHybridSlot adds one hybrid per axis, X through W.
func (m *Metadata) PerDimensionHybridSlot(name, desc string, def float32) *Metadata {
	for d := range DimensionNames {
		m.addHybrid(name, desc, d, def)
	}
	return m
}

func (m *Metadata) addHybrid(name, desc string, dim int, def float32) {
	m.mustBeOpen()
	m.Hybrids = append(m.Hybrids, &Hybrid{
		Member:  Member{Name: name, Description: desc, DimensionIndex: dim, Index: len(m.Hybrids), owner: m},
		Default: def,
	})
}

func (m *Metadata) mustBeOpen() {
	if m.registered {
		panic(fmt.Sprintf("metadata: %s modified after registration", m.Name))
	}
}

// Variable finds a variable by formatted member name ("Gain", "X Scale").
func (m *Metadata) Variable(name string) (*Variable, bool) {
	for _, v := range m.Variables {
		if matchName(&v.Member, name) {
			return v, true
		}
	}
	return nil, false
}

// Source finds a source by name.
func (m *Metadata) Source(name string) (*Source, bool) {
	for _, s := range m.Sources {
		if matchName(&s.Member, name) {
			return s, true
		}
	}
	return nil, false
}

// Hybrid finds a hybrid by formatted member name.
func (m *Metadata) Hybrid(name string) (*Hybrid, bool) {
	for _, h := range m.Hybrids {
		if matchName(&h.Member, name) {
			return h, true
		}
	}
	return nil, false
}
