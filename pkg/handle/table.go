// Package handle exposes node graphs through opaque handles for callers that
// cannot hold a *noise.SmartNode, such as tool servers and foreign bindings.
// A Table owns one reference per handle; generation calls take a short-lived
// reference of their own so a concurrent Release never frees a node in use.
package handle

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/sanonone/noisegraph/pkg/metrics"
	"github.com/sanonone/noisegraph/pkg/nodetree"
	"github.com/sanonone/noisegraph/pkg/noise"
	"github.com/sanonone/noisegraph/pkg/simd"
)

// ErrUnknownHandle means the handle was never issued by the table or has
// already been released.
var ErrUnknownHandle = errors.New("unknown node handle")

// Handle identifies a node held by a Table.
type Handle uuid.UUID

func (h Handle) String() string { return uuid.UUID(h).String() }

// ParseHandle parses the string form of a handle.
func ParseHandle(s string) (Handle, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return Handle{}, fmt.Errorf("%w: %v", ErrUnknownHandle, err)
	}
	return Handle(id), nil
}

// Table tracks the nodes behind issued handles.
type Table struct {
	mu    sync.RWMutex
	nodes map[Handle]*noise.SmartNode
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{nodes: make(map[Handle]*noise.SmartNode)}
}

// NewFromEncoded decodes an encoded node tree at level and registers its
// root. Auto selects the widest usable level.
func (t *Table) NewFromEncoded(encoded string, level simd.Level) (Handle, error) {
	n, err := nodetree.NewFromEncodedNodeTree(encoded, level)
	if err != nil {
		return Handle{}, err
	}
	return t.Adopt(n), nil
}

// Adopt registers n and takes over the caller's reference.
func (t *Table) Adopt(n *noise.SmartNode) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := Handle(uuid.New())
	t.nodes[h] = n
	metrics.OpenHandles.Set(float64(len(t.nodes)))
	return h
}

// Release drops the table's reference and invalidates h.
func (t *Table) Release(h Handle) error {
	t.mu.Lock()
	n, ok := t.nodes[h]
	delete(t.nodes, h)
	metrics.OpenHandles.Set(float64(len(t.nodes)))
	t.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}
	n.Release()
	return nil
}

// Close releases every handle.
func (t *Table) Close() {
	t.mu.Lock()
	nodes := t.nodes
	t.nodes = make(map[Handle]*noise.SmartNode)
	metrics.OpenHandles.Set(0)
	t.mu.Unlock()

	for _, n := range nodes {
		n.Release()
	}
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}

// Node returns a new reference to the node behind h. The caller releases it.
func (t *Table) Node(h Handle) (*noise.SmartNode, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.nodes[h]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}
	return n.Clone(), nil
}

// Level returns the feature level the node behind h runs at.
func (t *Table) Level(h Handle) (simd.Level, error) {
	n, err := t.Node(h)
	if err != nil {
		return simd.Auto, err
	}
	defer n.Release()
	return n.Level(), nil
}

// Encode returns the encoded tree of the node behind h.
func (t *Table) Encode(h Handle) (string, error) {
	n, err := t.Node(h)
	if err != nil {
		return "", err
	}
	defer n.Release()
	return nodetree.EncodeNode(n)
}
