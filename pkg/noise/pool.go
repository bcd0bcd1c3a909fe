package noise

import (
	"sync"

	"github.com/sanonone/noisegraph/pkg/metrics"
)

// Nodes are carved out of fixed-size chunks so that many small nodes share
// few allocations; a released node's slot is reused by the next New.
const poolChunk = 64

type nodePool struct {
	mu       sync.Mutex
	free     []*node
	live     int
	capacity int
}

var pool nodePool

func (p *nodePool) get() *node {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) == 0 {
		chunk := make([]node, poolChunk)
		for i := range chunk {
			p.free = append(p.free, &chunk[i])
		}
		p.capacity += poolChunk
	}
	n := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	p.live++
	metrics.NodesLive.Set(float64(p.live))
	return n
}

func (p *nodePool) put(n *node) {
	*n = node{}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, n)
	p.live--
	metrics.NodesLive.Set(float64(p.live))
}

// PoolStats reports the node pool occupancy.
type PoolStats struct {
	Live     int
	Capacity int
}

// Stats returns the current node pool occupancy.
func Stats() PoolStats {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	return PoolStats{Live: pool.live, Capacity: pool.capacity}
}
