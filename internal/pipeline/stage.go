// Package pipeline implements the stages of a frame-processing graph.
//
// A graph is assembled by linking stages, then frames flow from its
// sources. Every stage has the same contract: Process handles a frame on the
// calling goroutine and Propagate hands it to the linked stages. The default
// Propagate visits downstream stages in link order, calling Process then
// Propagate on each, so a synchronous fan-out is depth-first and
// left-to-right. A Relay breaks the graph into asynchronous segments: its
// Process enqueues and returns, and its own goroutine drains the queue into
// the downstream stages.
//
// Linking is not synchronized and must finish before the first frame flows.
// Frames are shared between stages without locks; at most one stage on any
// path may mutate a frame, and it must run before every sink that reads it.
// Use a Copy stage where a mutating branch and a reading branch would
// otherwise see the same frame from different goroutines.
package pipeline

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/google/uuid"

	"github.com/tphakala/motiondetector/internal/frame"
	"github.com/tphakala/motiondetector/internal/logger"
)

// Stage is a node of the processing graph
type Stage interface {
	// ID returns the stage name used in logs and metrics
	ID() string

	// Link appends next to the downstream list and returns next, so calls
	// chain: a.Link(b).Link(c) builds a -> b -> c.
	Link(next Stage) Stage

	// Process handles f on the calling goroutine
	Process(f *frame.Frame)

	// Propagate hands f to the downstream stages
	Propagate(f *frame.Frame)

	// Downstream returns the linked stages in link order
	Downstream() []Stage
}

// Base provides identity, linking and the default depth-first Propagate.
// Concrete stages embed it and supply Process.
type Base struct {
	id   string
	next []Stage
}

// NewBase creates a Base. An empty id is replaced by kind plus a short random suffix.
func NewBase(kind, id string) Base {
	if id == "" {
		id = kind + "-" + uuid.NewString()[:generatedIDLength]
	}
	return Base{id: id}
}

// ID returns the stage name
func (b *Base) ID() string { return b.id }

// Link appends next and returns it. Linking nil is a programming error and panics.
func (b *Base) Link(next Stage) Stage {
	if isNil(next) {
		panic(fmt.Sprintf("pipeline: stage %q linked to a nil stage", b.id))
	}
	b.next = append(b.next, next)
	return next
}

// Downstream returns a copy of the linked stages in link order
func (b *Base) Downstream() []Stage {
	return slices.Clone(b.next)
}

// Propagate calls Process then Propagate on each downstream stage in link order
func (b *Base) Propagate(f *frame.Frame) {
	forward(b.next, f)
}

func forward(stages []Stage, f *frame.Frame) {
	for _, s := range stages {
		s.Process(f)
		s.Propagate(f)
	}
}

func isNil(s Stage) bool {
	if s == nil {
		return true
	}
	v := reflect.ValueOf(s)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}

// Walk calls fn once for every stage reachable from root, depth-first in
// link order, root first. Stages reachable through several paths are
// visited once and cycles terminate.
func Walk(root Stage, fn func(Stage)) {
	if isNil(root) {
		return
	}
	seen := make(map[Stage]struct{})
	var visit func(Stage)
	visit = func(s Stage) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		fn(s)
		for _, next := range s.Downstream() {
			visit(next)
		}
	}
	visit(root)
}

// Option configures a stage
type Option func(*options)

type options struct {
	log     logger.Logger
	metrics *MetricsCollector
}

// WithLogger sets the logger a stage writes to
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithMetrics sets the metrics collector a stage records to
func WithMetrics(mc *MetricsCollector) Option {
	return func(o *options) {
		o.metrics = mc
	}
}

func buildOptions(kind, id string, opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Global().Module("pipeline")
	}
	o.log = o.log.With(logger.String("stage", id), logger.String("kind", kind))
	if o.metrics == nil {
		o.metrics = NewMetricsCollector(nil)
	}
	return o
}
