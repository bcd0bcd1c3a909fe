package metadata

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Registry holds every node kind known to a process. Kinds are registered
// during an init phase, after which Freeze makes the registry read-only and
// enables lookups. Ids are assigned in registration order; callers that
// persist encoded trees must only ever append new kinds.
type Registry struct {
	mu     sync.Mutex
	frozen atomic.Bool
	byID   []*Metadata
	byName map[string]*Metadata
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Metadata)}
}

// Register assigns the next id to m and returns it. It panics when the
// registry is frozen, the name is taken, or the id space (0xFFFF is reserved
// as the back-reference marker) is exhausted.
func (r *Registry) Register(m *Metadata) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		panic(fmt.Sprintf("metadata: register %s after freeze", m.Name))
	}
	key := normalizeName(m.Name)
	if _, dup := r.byName[key]; dup {
		panic(fmt.Sprintf("metadata: duplicate node kind %s", m.Name))
	}
	if len(r.byID) >= 0xFFFF {
		panic("metadata: node id space exhausted")
	}
	if len(m.Variables) > MaxMembers || len(m.Sources) > MaxMembers || len(m.Hybrids) > MaxMembers {
		panic(fmt.Sprintf("metadata: %s has more than %d members of one type", m.Name, MaxMembers))
	}
	m.ID = uint16(len(r.byID))
	m.registered = true
	r.byID = append(r.byID, m)
	r.byName[key] = m
	return m.ID
}

// MaxMembers is the largest member list the wire format can index; the member
// tag reserves six bits for the index and the all-ones tag terminates a node.
const MaxMembers = 63

// Freeze ends the init phase.
func (r *Registry) Freeze() {
	r.frozen.Store(true)
}

func (r *Registry) Frozen() bool { return r.frozen.Load() }

func (r *Registry) mustBeFrozen() {
	if !r.frozen.Load() {
		panic("metadata: registry queried before Freeze")
	}
}

// ByID returns the kind registered under id.
func (r *Registry) ByID(id uint16) (*Metadata, bool) {
	r.mustBeFrozen()
	if int(id) >= len(r.byID) {
		return nil, false
	}
	return r.byID[id], true
}

// ByName looks a kind up by name, ignoring case and spacing.
func (r *Registry) ByName(name string) (*Metadata, bool) {
	r.mustBeFrozen()
	m, ok := r.byName[normalizeName(name)]
	return m, ok
}

// All returns every kind ordered by id.
func (r *Registry) All() []*Metadata {
	r.mustBeFrozen()
	return append([]*Metadata(nil), r.byID...)
}

func (r *Registry) Len() int {
	r.mustBeFrozen()
	return len(r.byID)
}
