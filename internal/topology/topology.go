// Package topology assembles pipeline stages into a runnable graph from settings
package topology

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tphakala/motiondetector/internal/conf"
	"github.com/tphakala/motiondetector/internal/detector"
	"github.com/tphakala/motiondetector/internal/errors"
	"github.com/tphakala/motiondetector/internal/frame"
	"github.com/tphakala/motiondetector/internal/logger"
	"github.com/tphakala/motiondetector/internal/pipeline"
	"github.com/tphakala/motiondetector/internal/render"
)

// Stage IDs, also used as metric labels
const (
	SourceID   = "source"
	RelayID    = "relay"
	CopyID     = "copy"
	DetectorID = "detector"
	DisplayID  = "display"
)

const (
	// poolReportInterval is how often the frame pool gauge is refreshed while running
	poolReportInterval = time.Second
	drainPollInterval  = 10 * time.Millisecond
)

// Option configures Build
type Option func(*options)

type options struct {
	output    io.Writer
	log       logger.Logger
	metrics   *pipeline.MetricsCollector
	generator pipeline.Generator
	renderer  pipeline.Renderer
}

// WithOutput sets where the display writes. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

// WithLogger sets the logger for the graph and its stages
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics sets the collector every stage records to
func WithMetrics(mc *pipeline.MetricsCollector) Option {
	return func(o *options) { o.metrics = mc }
}

// WithGenerator replaces the random frame generator
func WithGenerator(g pipeline.Generator) Option {
	return func(o *options) { o.generator = g }
}

// WithRenderer replaces the text renderer behind the display sink
func WithRenderer(r pipeline.Renderer) Option {
	return func(o *options) { o.renderer = r }
}

// Graph is an assembled pipeline
type Graph struct {
	settings *conf.Settings
	log      logger.Logger
	metrics  *pipeline.MetricsCollector

	source   *pipeline.Source
	relay    *pipeline.Relay
	copy     *pipeline.Copy
	detector *pipeline.Detector
	display  *pipeline.Sink
	pool     *frame.Pool
	tail     *render.Tail
	text     *render.TextRenderer

	closeOnce sync.Once
}

// Build validates settings, creates the stages the layout needs and links them
func Build(settings *conf.Settings, opts ...Option) (*Graph, error) {
	if settings == nil {
		return nil, ErrNoSettings
	}
	if err := conf.ValidateSettings(settings); err != nil {
		return nil, err
	}

	o := options{output: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Global().Module("topology")
	}
	if o.metrics == nil {
		o.metrics = pipeline.NewMetricsCollector(nil)
	}

	g := &Graph{settings: settings, log: o.log, metrics: o.metrics}
	stageOpts := []pipeline.Option{pipeline.WithLogger(o.log), pipeline.WithMetrics(o.metrics)}

	if err := g.buildSource(o, stageOpts); err != nil {
		return nil, err
	}
	g.buildDisplay(o, stageOpts)

	if err := g.link(settings.Topology.Layout, stageOpts); err != nil {
		return nil, err
	}

	g.log.Info("pipeline assembled",
		logger.String("layout", settings.Topology.Layout),
		logger.Int("width", settings.Source.Width),
		logger.Int("height", settings.Source.Height),
		logger.Float64("fps", settings.Source.FrameRate),
		logger.Int("relay_capacity", settings.Relay.Capacity))
	return g, nil
}

func (g *Graph) buildSource(o options, stageOpts []pipeline.Option) error {
	s := g.settings.Source

	gen := o.generator
	if gen == nil {
		pool, err := frame.NewPool(s.Width, s.Height)
		if err != nil {
			return err
		}
		genOpts := []frame.GeneratorOption{frame.WithPool(pool)}
		if s.Seed != 0 {
			genOpts = append(genOpts, frame.WithSeed(s.Seed))
		}
		rg, err := frame.NewRandomGenerator(s.Width, s.Height, genOpts...)
		if err != nil {
			return err
		}
		g.pool = pool
		gen = rg
	}

	src, err := pipeline.NewSource(pipeline.SourceConfig{
		ID:        SourceID,
		Width:     s.Width,
		Height:    s.Height,
		FrameRate: s.FrameRate,
		MaxFrames: s.MaxFrames,
	}, gen, stageOpts...)
	if err != nil {
		return err
	}
	g.source = src
	return nil
}

func (g *Graph) buildDisplay(o options, stageOpts []pipeline.Option) {
	d := g.settings.Display

	r := o.renderer
	switch {
	case r != nil:
	case !d.Enabled:
		r = pipeline.RendererFunc(func(*frame.Frame) {})
	default:
		w := o.output
		if d.Tail > 0 {
			g.tail = render.NewTail(d.Tail)
			w = g.tail
		}
		g.text = render.NewTextRenderer(w, render.WithColor(d.Color))
		r = g.text
	}
	g.display = pipeline.NewSink(DisplayID, r, stageOpts...)
}

func (g *Graph) newDetector(stageOpts []pipeline.Option) (*pipeline.Detector, error) {
	p, err := detector.ParsePattern(g.settings.Detector.Pattern)
	if err != nil {
		return nil, err
	}
	mode, err := detector.ParseMode(g.settings.Detector.Mode)
	if err != nil {
		return nil, err
	}
	return pipeline.NewDetector(DetectorID, detector.NewMatcher(p, detector.WithMode(mode)), stageOpts...), nil
}

func (g *Graph) link(layout string, stageOpts []pipeline.Option) error {
	switch layout {
	case conf.LayoutDisplay:
		g.source.Link(g.display)
		return nil
	case conf.LayoutDetector, conf.LayoutAsync, conf.LayoutAsyncTee:
	default:
		return errors.Newf("unknown topology layout %q", layout).
			Component(ComponentTopology).
			Category(errors.CategoryTopology).
			Context("resource", "layout").
			Context("layout", layout).
			Build()
	}

	det, err := g.newDetector(stageOpts)
	if err != nil {
		return err
	}
	g.detector = det

	if layout == conf.LayoutDetector {
		g.source.Link(det).Link(g.display)
		return nil
	}

	relay, err := pipeline.NewRelay(RelayID, g.settings.Relay.Capacity, stageOpts...)
	if err != nil {
		return err
	}
	g.relay = relay

	if layout == conf.LayoutAsync {
		g.source.Link(relay).Link(det).Link(g.display)
		return nil
	}

	// The raw branch reads frames on the source goroutine while the detector
	// runs on the relay worker, so the detector gets its own copy.
	g.copy = pipeline.NewCopy(CopyID, stageOpts...)
	g.source.Link(relay).Link(g.copy).Link(det).Link(g.display)
	g.source.Link(g.display)
	return nil
}

// Run starts the source and blocks until it stops, because ctx was
// cancelled, Stop was called or the frame limit was reached. Relays keep
// draining after Run returns until Close.
func (g *Graph) Run(ctx context.Context) error {
	eg, egCtx := errgroup.WithContext(ctx)
	for _, src := range g.Sources() {
		eg.Go(func() error {
			return src.Start(egCtx)
		})
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Go(func() { g.reportPool(done) })

	err := eg.Wait()
	close(done)
	wg.Wait()
	return err
}

func (g *Graph) reportPool(done <-chan struct{}) {
	if g.pool == nil {
		return
	}
	ticker := time.NewTicker(poolReportInterval)
	defer ticker.Stop()
	for {
		g.metrics.UpdatePoolActive(g.pool.Stats().Active)
		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}

// Drain waits until the relay has handed every accepted frame downstream,
// or ctx is done. Call it after Run returns to let a bounded run finish
// rendering before Close flushes what is left.
func (g *Graph) Drain(ctx context.Context) error {
	if g.relay == nil {
		return nil
	}
	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()
	for {
		s := g.relay.Stats()
		if s.Enqueued == s.Forwarded+s.Evicted+s.Flushed {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Stop asks every source to stop and waits for them
func (g *Graph) Stop() {
	for _, src := range g.Sources() {
		src.Stop()
	}
}

// Close stops the sources, then closes every relay reachable from them,
// releasing frames still queued. Close is idempotent.
func (g *Graph) Close() {
	g.closeOnce.Do(func() {
		g.Stop()
		for _, src := range g.Sources() {
			pipeline.Walk(src, func(s pipeline.Stage) {
				if r, ok := s.(*pipeline.Relay); ok {
					r.Close()
				}
			})
		}

		fields := []logger.Field{logger.Uint64("produced", g.source.Produced()), logger.Uint64("rendered", g.display.Rendered())}
		if g.detector != nil {
			fields = append(fields, logger.Uint64("matches", g.detector.Matches()))
		}
		if g.relay != nil {
			stats := g.relay.Stats()
			fields = append(fields,
				logger.Uint64("relay_forwarded", stats.Forwarded),
				logger.Uint64("relay_evicted", stats.Evicted))
		}
		if g.pool != nil {
			stats := g.pool.Stats()
			g.metrics.UpdatePoolActive(stats.Active)
			fields = append(fields, logger.Int64("pool_active", stats.Active))
		}
		g.log.Info("pipeline closed", fields...)
	})
}

// Describe lists the graph edges, one "from -> to" per line, depth-first in link order
func (g *Graph) Describe() string {
	var b strings.Builder
	for _, src := range g.Sources() {
		pipeline.Walk(src, func(s pipeline.Stage) {
			for _, next := range s.Downstream() {
				fmt.Fprintf(&b, "%s -> %s\n", s.ID(), next.ID())
			}
		})
	}
	return b.String()
}

// Sources returns the graph roots
func (g *Graph) Sources() []*pipeline.Source { return []*pipeline.Source{g.source} }

// Layout returns the layout name
func (g *Graph) Layout() string { return g.settings.Topology.Layout }

// Display returns the display sink
func (g *Graph) Display() *pipeline.Sink { return g.display }

// Detector returns the detector stage, nil for the display layout
func (g *Graph) Detector() *pipeline.Detector { return g.detector }

// Relay returns the relay stage, nil for synchronous layouts
func (g *Graph) Relay() *pipeline.Relay { return g.relay }

// Pool returns the frame pool, nil when a custom generator is used
func (g *Graph) Pool() *frame.Pool { return g.pool }

// Tail returns the tail buffer when display.tail is set, otherwise nil
func (g *Graph) Tail() *render.Tail { return g.tail }

// Err returns the first display write error, if any
func (g *Graph) Err() error {
	if g.text == nil {
		return nil
	}
	return g.text.Err()
}
