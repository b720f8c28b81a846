package frame

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// PoolStats reports frame pool usage
type PoolStats struct {
	Allocated uint64 // frames handed out by Get
	Active    int64  // frames handed out and not yet fully released
	Recycled  uint64 // frames whose grid went back to the pool
}

// Pool recycles the grids of fixed-size frames. A frame obtained from Get
// returns to the pool when its reference count drops to zero.
type Pool struct {
	width  int
	height int
	grids  sync.Pool

	stats   PoolStats
	statsMu sync.RWMutex
}

// NewPool creates a pool of width x height frames
func NewPool(width, height int) (*Pool, error) {
	if err := validateDimensions(width, height); err != nil {
		return nil, err
	}

	p := &Pool{width: width, height: height}
	p.grids.New = func() any {
		return allocGrid(width, height)
	}
	return p, nil
}

// Width returns the frame width served by the pool
func (p *Pool) Width() int { return p.width }

// Height returns the frame height served by the pool
func (p *Pool) Height() int { return p.height }

// Get returns a zeroed frame with a reference count of one
func (p *Pool) Get() *Frame {
	grid, ok := p.grids.Get().([][]uint8)
	if !ok {
		grid = allocGrid(p.width, p.height)
	}

	p.updateStats(func() {
		p.stats.Allocated++
		p.stats.Active++
	})

	f := &Frame{
		ID:        uuid.New(),
		Width:     p.width,
		Height:    p.height,
		Pixels:    grid,
		Timestamp: time.Now(),
		pool:      p,
	}
	f.refCount.Store(1)
	return f
}

// put recycles the grid of a fully released frame
func (p *Pool) put(f *Frame) {
	grid := f.Pixels
	f.Pixels = nil
	f.pool = nil

	for _, row := range grid {
		clear(row)
	}
	p.grids.Put(grid) //nolint:staticcheck // slice header allocation is acceptable here

	p.updateStats(func() {
		p.stats.Active--
		p.stats.Recycled++
	})
}

// Stats returns a snapshot of pool statistics
func (p *Pool) Stats() PoolStats {
	p.statsMu.RLock()
	defer p.statsMu.RUnlock()
	return p.stats
}

func (p *Pool) updateStats(fn func()) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	fn()
}
