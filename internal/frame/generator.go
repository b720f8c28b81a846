package frame

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"
)

// RandomGenerator synthesizes frames whose cells are independently Empty or
// Active with equal probability. It stands in for a capture device.
type RandomGenerator struct {
	width  int
	height int
	pool   *Pool
	seq    atomic.Uint64

	mu  sync.Mutex
	rng *rand.Rand
}

// GeneratorOption configures a RandomGenerator
type GeneratorOption func(*RandomGenerator)

// WithSeed makes the generated sequence reproducible
func WithSeed(seed uint64) GeneratorOption {
	return func(g *RandomGenerator) {
		g.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithPool draws frames from p. The pool's dimensions take precedence.
func WithPool(p *Pool) GeneratorOption {
	return func(g *RandomGenerator) {
		g.pool = p
	}
}

// NewRandomGenerator creates a generator of width x height frames
func NewRandomGenerator(width, height int, opts ...GeneratorOption) (*RandomGenerator, error) {
	if err := validateDimensions(width, height); err != nil {
		return nil, err
	}

	g := &RandomGenerator{width: width, height: height}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		seed := uint64(time.Now().UnixNano())
		g.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	if g.pool != nil {
		g.width, g.height = g.pool.Width(), g.pool.Height()
	}
	return g, nil
}

// Next returns a new frame with a reference count of one. Sequence numbers
// start at 1 and increase by one per call.
func (g *RandomGenerator) Next() *Frame {
	var f *Frame
	if g.pool != nil {
		f = g.pool.Get()
	} else {
		f = MustNew(g.width, g.height, nil)
	}

	g.mu.Lock()
	for _, row := range f.Pixels {
		for c := range row {
			row[c] = uint8(g.rng.UintN(2))
		}
	}
	g.mu.Unlock()

	f.Seq = g.seq.Add(1)
	f.Timestamp = time.Now()
	return f
}

// Generated returns the number of frames produced so far
func (g *RandomGenerator) Generated() uint64 {
	return g.seq.Load()
}
