package pipeline

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tphakala/motiondetector/internal/errors"
	"github.com/tphakala/motiondetector/internal/frame"
	"github.com/tphakala/motiondetector/internal/logger"
)

// Generator manufactures frames. Each returned frame carries one reference
// owned by the caller.
type Generator interface {
	Next() *frame.Frame
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func() *frame.Frame

// Next calls fn
func (fn GeneratorFunc) Next() *frame.Frame { return fn() }

// SourceConfig configures a Source
type SourceConfig struct {
	ID        string
	Width     int     // frame width, 1..frame.MaxDimension
	Height    int     // frame height, 1..frame.MaxDimension
	FrameRate float64 // frames per second, > 0
	MaxFrames uint64  // stop after this many frames per run; 0 means unbounded
}

// Source is the root of a graph. While running it generates a frame,
// propagates it synchronously, releases its own reference and waits
// 1/FrameRate seconds before the next one.
type Source struct {
	Base
	cfg      SourceConfig
	gen      Generator
	interval time.Duration
	log      logger.Logger
	metrics  *MetricsCollector

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
	stopped bool

	produced atomic.Uint64
}

// NewSource validates cfg and creates an idle source. A nil gen is replaced by
// a frame.RandomGenerator of the configured size.
func NewSource(cfg SourceConfig, gen Generator, opts ...Option) (*Source, error) {
	if cfg.FrameRate <= 0 || math.IsNaN(cfg.FrameRate) || math.IsInf(cfg.FrameRate, 0) {
		return nil, configError("frame_rate",
			fmt.Errorf("frame rate must be a positive number, got %v", cfg.FrameRate)).
			Context("frame_rate", cfg.FrameRate).
			Build()
	}
	if cfg.Width < 1 || cfg.Width > frame.MaxDimension || cfg.Height < 1 || cfg.Height > frame.MaxDimension {
		return nil, configError("source",
			fmt.Errorf("source dimensions %dx%d must be within 1..%d", cfg.Width, cfg.Height, frame.MaxDimension)).
			Context("width", cfg.Width).
			Context("height", cfg.Height).
			Build()
	}

	if gen == nil {
		rg, err := frame.NewRandomGenerator(cfg.Width, cfg.Height)
		if err != nil {
			return nil, err
		}
		gen = rg
	}

	base := NewBase("source", cfg.ID)
	cfg.ID = base.ID()
	o := buildOptions("source", cfg.ID, opts)

	return &Source{
		Base:     base,
		cfg:      cfg,
		gen:      gen,
		interval: time.Duration(float64(time.Second) / cfg.FrameRate),
		log:      o.log,
		metrics:  o.metrics,
	}, nil
}

// Config returns the source configuration
func (s *Source) Config() SourceConfig { return s.cfg }

// Interval returns the wait between frames
func (s *Source) Interval() time.Duration { return s.interval }

// Process forwards f downstream, which lets frames be injected into a source
// from outside. A Source is meant to be a root; linked below another stage
// each frame would be forwarded by both Process and Propagate.
func (s *Source) Process(f *frame.Frame) {
	s.Propagate(f)
}

// Start runs the source until Stop is called, ctx is cancelled or MaxFrames
// frames have been produced. It blocks for the whole run. Starting a source
// that is already running returns an error.
func (s *Source) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New(fmt.Errorf("source %q is already running", s.ID())).
			Component(ComponentPipeline).
			Category(errors.CategoryState).
			Context("resource", "source").
			Context("stage", s.ID()).
			Build()
	}
	s.running = true
	s.stopped = false
	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop, s.done = stop, done
	s.mu.Unlock()

	s.log.Info("source started",
		logger.Int("width", s.cfg.Width),
		logger.Int("height", s.cfg.Height),
		logger.Float64("fps", s.cfg.FrameRate))

	go s.run(ctx, stop, done)
	<-done

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.log.Info("source stopped", logger.Uint64("produced", s.produced.Load()))
	return nil
}

// Stop asks a running source to exit and waits for its worker. The frame
// being propagated, if any, is finished first. Stop on an idle source does nothing.
func (s *Source) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	if !s.stopped {
		s.stopped = true
		close(s.stop)
	}
	done := s.done
	s.mu.Unlock()

	<-done
}

// Running reports whether the worker is active
func (s *Source) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Produced returns the number of frames manufactured over the source's lifetime
func (s *Source) Produced() uint64 {
	return s.produced.Load()
}

func (s *Source) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	var count uint64
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		f := s.gen.Next()
		s.produced.Add(1)
		s.metrics.RecordFrameProduced(s.ID())

		s.Propagate(f)
		f.Release()

		count++
		if s.cfg.MaxFrames > 0 && count >= s.cfg.MaxFrames {
			return
		}

		timer.Reset(s.interval)
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}
