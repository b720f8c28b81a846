package pipeline

import (
	"sync/atomic"
	"time"

	"github.com/tphakala/motiondetector/internal/frame"
)

// Renderer consumes a frame without modifying it
type Renderer interface {
	Render(f *frame.Frame)
}

// RendererFunc adapts a function to Renderer
type RendererFunc func(f *frame.Frame)

// Render calls fn
func (fn RendererFunc) Render(f *frame.Frame) { fn(f) }

// Sink hands every frame to a Renderer. It never mutates frames.
type Sink struct {
	Base
	renderer Renderer
	metrics  *MetricsCollector
	rendered atomic.Uint64
}

// NewSink creates a sink around r. A nil r panics.
func NewSink(id string, r Renderer, opts ...Option) *Sink {
	if r == nil {
		panic("pipeline: NewSink called with a nil renderer")
	}
	base := NewBase("sink", id)
	o := buildOptions("sink", base.ID(), opts)
	return &Sink{Base: base, renderer: r, metrics: o.metrics}
}

// Process renders f
func (s *Sink) Process(f *frame.Frame) {
	start := time.Now()
	s.renderer.Render(f)
	s.metrics.RecordStageFrame(s.ID(), time.Since(start))
	s.rendered.Add(1)
}

// Rendered returns the number of frames rendered
func (s *Sink) Rendered() uint64 { return s.rendered.Load() }
