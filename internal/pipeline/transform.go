package pipeline

import (
	"sync/atomic"
	"time"

	"github.com/tphakala/motiondetector/internal/detector"
	"github.com/tphakala/motiondetector/internal/frame"
	"github.com/tphakala/motiondetector/internal/logger"
)

// Transform mutates frames in place on the calling goroutine. On any path
// through the graph it must be the only mutating stage.
type Transform struct {
	Base
	fn      func(*frame.Frame)
	metrics *MetricsCollector
}

// NewTransform creates a stage that applies fn to every frame. A nil fn panics.
func NewTransform(id string, fn func(*frame.Frame), opts ...Option) *Transform {
	if fn == nil {
		panic("pipeline: NewTransform called with a nil function")
	}
	base := NewBase("transform", id)
	o := buildOptions("transform", base.ID(), opts)
	return &Transform{Base: base, fn: fn, metrics: o.metrics}
}

// Process applies the transform
func (t *Transform) Process(f *frame.Frame) {
	start := time.Now()
	t.fn(f)
	t.metrics.RecordStageFrame(t.ID(), time.Since(start))
}

// Detector runs a pattern matcher on every frame and marks the matches in place
type Detector struct {
	Base
	matcher *detector.Matcher
	log     logger.Logger
	metrics *MetricsCollector
	frames  atomic.Uint64
	matches atomic.Uint64
}

// NewDetector creates a detector stage around m
func NewDetector(id string, m *detector.Matcher, opts ...Option) *Detector {
	if m == nil {
		panic("pipeline: NewDetector called with a nil matcher")
	}
	base := NewBase("detector", id)
	o := buildOptions("detector", base.ID(), opts)
	return &Detector{Base: base, matcher: m, log: o.log, metrics: o.metrics}
}

// Process marks every pattern occurrence in f
func (d *Detector) Process(f *frame.Frame) {
	start := time.Now()
	found := d.matcher.Apply(f)
	d.metrics.RecordStageFrame(d.ID(), time.Since(start))
	d.frames.Add(1)

	if len(found) == 0 {
		return
	}
	d.matches.Add(uint64(len(found)))
	d.metrics.RecordPatternMatches(d.ID(), len(found))
	for _, m := range found {
		d.log.Debug("pattern found",
			logger.Uint64("seq", f.Seq),
			logger.Int("row", m.Row),
			logger.Int("col", m.Col))
	}
}

// Matcher returns the matcher in use
func (d *Detector) Matcher() *detector.Matcher { return d.matcher }

// Frames returns the number of frames scanned
func (d *Detector) Frames() uint64 { return d.frames.Load() }

// Matches returns the number of pattern occurrences marked
func (d *Detector) Matches() uint64 { return d.matches.Load() }

// Copy gives its downstream stages a private deep copy of every frame. Put
// it in front of a mutating branch whose input is also read elsewhere.
type Copy struct {
	Base
	metrics *MetricsCollector
}

// NewCopy creates a copy-on-branch stage
func NewCopy(id string, opts ...Option) *Copy {
	base := NewBase("copy", id)
	o := buildOptions("copy", base.ID(), opts)
	return &Copy{Base: base, metrics: o.metrics}
}

// Process does nothing; the copy is made in Propagate
func (c *Copy) Process(*frame.Frame) {}

// Propagate forwards a clone of f and releases it afterwards
func (c *Copy) Propagate(f *frame.Frame) {
	start := time.Now()
	clone := f.Clone()
	c.metrics.RecordStageFrame(c.ID(), time.Since(start))

	forward(c.next, clone)
	clone.Release()
}
