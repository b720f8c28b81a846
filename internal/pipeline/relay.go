package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/tphakala/motiondetector/internal/frame"
	"github.com/tphakala/motiondetector/internal/logger"
)

// RelayState is the lifecycle state of a Relay
type RelayState int32

const (
	RelayNotStarted RelayState = iota
	RelayRunning
	RelayStopped
)

func (s RelayState) String() string {
	switch s {
	case RelayNotStarted:
		return "not-started"
	case RelayRunning:
		return "running"
	case RelayStopped:
		return "stopped"
	default:
		return fmt.Sprintf("RelayState(%d)", int32(s))
	}
}

// RelayStats is a snapshot of relay counters
type RelayStats struct {
	Enqueued  uint64 // frames accepted into the queue
	Forwarded uint64 // frames handed downstream by the worker
	Evicted   uint64 // queued frames dropped to make room for newer ones
	Discarded uint64 // frames refused because the relay was stopped or has capacity 0
	Flushed   uint64 // frames released unforwarded at shutdown
	Depth     int    // frames currently queued
}

// Relay decouples its upstream from its downstream with a bounded
// drop-oldest queue and a worker goroutine. Process never blocks on
// downstream work: when the queue is full the oldest frame is evicted.
// Survivors are forwarded in FIFO order.
type Relay struct {
	Base
	capacity int
	queue    chan *frame.Frame
	log      logger.Logger
	metrics  *MetricsCollector
	warn     *rate.Limiter

	// enqueueMu serializes producers so eviction and append are atomic
	// with respect to each other; the worker only receives.
	enqueueMu sync.Mutex

	state     atomic.Int32
	startOnce sync.Once
	closeOnce sync.Once
	started   bool
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}

	enqueued  atomic.Uint64
	forwarded atomic.Uint64
	evicted   atomic.Uint64
	discarded atomic.Uint64
	flushed   atomic.Uint64
}

// NewRelay creates a relay holding at most capacity frames. Capacity 0
// discards every frame; negative capacity is a configuration error.
func NewRelay(id string, capacity int, opts ...Option) (*Relay, error) {
	if capacity < 0 {
		return nil, configError("capacity",
			fmt.Errorf("relay capacity must not be negative, got %d", capacity)).
			Context("capacity", capacity).
			Build()
	}

	base := NewBase("relay", id)
	o := buildOptions("relay", base.ID(), opts)

	ctx, cancel := context.WithCancel(context.Background())
	return &Relay{
		Base:     base,
		capacity: capacity,
		queue:    make(chan *frame.Frame, capacity),
		log:      o.log,
		metrics:  o.metrics,
		warn:     rate.NewLimiter(rate.Every(evictionWarnInterval), evictionWarnBurst),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}, nil
}

// Capacity returns the maximum queue length
func (r *Relay) Capacity() int { return r.capacity }

// State returns the lifecycle state
func (r *Relay) State() RelayState { return RelayState(r.state.Load()) }

// Process enqueues f for the worker, starting the worker on first use. The
// relay takes its own reference. A stopped or zero-capacity relay discards f.
func (r *Relay) Process(f *frame.Frame) {
	r.start()

	if r.capacity == 0 || r.State() == RelayStopped {
		r.discard(f)
		return
	}

	f.Acquire()

	r.enqueueMu.Lock()
	defer r.enqueueMu.Unlock()

	// Close flushes under enqueueMu, so a frame appended after this check is
	// either drained by the worker or released by the flush.
	if r.State() == RelayStopped {
		f.Release()
		r.discard(f)
		return
	}

	for {
		select {
		case r.queue <- f:
			r.enqueued.Add(1)
			r.metrics.RecordRelayEnqueued(r.ID(), len(r.queue))
			return
		default:
		}

		select {
		case old := <-r.queue:
			r.evict(old)
		default:
			// The worker took the front frame in between; retry the append.
		}
	}
}

// Propagate is a no-op: frames reach the downstream stages only through the worker
func (r *Relay) Propagate(*frame.Frame) {}

// Close stops the relay: later frames are discarded, the worker is
// cancelled and joined, then every frame still queued is released.
// Close is idempotent.
func (r *Relay) Close() {
	r.closeOnce.Do(func() {
		r.state.Store(int32(RelayStopped))
		r.cancel()

		// Prevent a lazy start racing with shutdown
		r.startOnce.Do(func() {})
		if r.started {
			<-r.done
		}

		r.enqueueMu.Lock()
		n := r.flush()
		r.enqueueMu.Unlock()

		r.metrics.UpdateRelayQueueDepth(r.ID(), 0)
		stats := r.Stats()
		r.log.Debug("relay closed",
			logger.Int("flushed", n),
			logger.Uint64("enqueued", stats.Enqueued),
			logger.Uint64("forwarded", stats.Forwarded),
			logger.Uint64("evicted", stats.Evicted),
			logger.Uint64("discarded", stats.Discarded))
	})
}

// Stats returns a snapshot of the relay counters
func (r *Relay) Stats() RelayStats {
	return RelayStats{
		Enqueued:  r.enqueued.Load(),
		Forwarded: r.forwarded.Load(),
		Evicted:   r.evicted.Load(),
		Discarded: r.discarded.Load(),
		Flushed:   r.flushed.Load(),
		Depth:     len(r.queue),
	}
}

func (r *Relay) start() {
	r.startOnce.Do(func() {
		if r.State() == RelayStopped {
			return
		}
		r.started = true
		r.state.Store(int32(RelayRunning))
		go r.run()
		r.log.Debug("relay started", logger.Int("capacity", r.capacity))
	})
}

func (r *Relay) run() {
	defer close(r.done)

	for {
		select {
		case <-r.ctx.Done():
			return
		case f := <-r.queue:
			// Shutdown may have been requested while waiting
			if r.ctx.Err() != nil {
				r.flushed.Add(1)
				f.Release()
				return
			}
			forward(r.next, f)
			r.forwarded.Add(1)
			r.metrics.RecordRelayForwarded(r.ID(), len(r.queue))
			f.Release()
		}
	}
}

func (r *Relay) evict(f *frame.Frame) {
	n := r.evicted.Add(1)
	r.metrics.RecordRelayEvicted(r.ID())
	if r.warn.Allow() {
		r.log.Warn("relay queue full, dropping oldest frame",
			logger.Uint64("seq", f.Seq),
			logger.Int("capacity", r.capacity),
			logger.Uint64("evicted_total", n))
	}
	f.Release()
}

func (r *Relay) discard(f *frame.Frame) {
	r.discarded.Add(1)
	r.metrics.RecordRelayDiscarded(r.ID())
	r.log.Trace("frame discarded", logger.Uint64("seq", f.Seq), logger.String("state", r.State().String()))
}

// flush releases every queued frame; caller holds enqueueMu and the worker has exited
func (r *Relay) flush() int {
	n := 0
	for {
		select {
		case f := <-r.queue:
			r.flushed.Add(1)
			f.Release()
			n++
		default:
			return n
		}
	}
}
