package pipeline

import (
	"io"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/motiondetector/internal/frame"
	"github.com/tphakala/motiondetector/internal/logger"
	"github.com/tphakala/motiondetector/internal/observability/metrics"
	"github.com/tphakala/motiondetector/internal/testutil"
)

var quietLogger = logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)

// quiet keeps test output clean and metrics isolated
func quiet() Option { return WithLogger(quietLogger) }

func newFrame(t *testing.T, seq uint64) *frame.Frame {
	t.Helper()
	f, err := frame.New(2, 2, nil)
	require.NoError(t, err)
	f.Seq = seq
	return f
}

// recorder collects the sequence numbers it renders
type recorder struct {
	mu   sync.Mutex
	seqs []uint64
}

func (r *recorder) Render(f *frame.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seqs = append(r.seqs, f.Seq)
}

func (r *recorder) Seqs() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.seqs)
}

func (r *recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seqs)
}

// gatedRecorder blocks inside the first Render until open is called, which
// holds a relay worker busy while the test fills the queue.
type gatedRecorder struct {
	recorder
	entered   chan struct{}
	release   chan struct{}
	enterOnce sync.Once
	openOnce  sync.Once
}

func newGatedRecorder() *gatedRecorder {
	return &gatedRecorder{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedRecorder) Render(f *frame.Frame) {
	g.recorder.Render(f)
	first := false
	g.enterOnce.Do(func() {
		first = true
		close(g.entered)
	})
	if first {
		<-g.release
	}
}

func (g *gatedRecorder) waitEntered(t *testing.T) {
	t.Helper()
	testutil.WaitForChannel(t, g.entered, testutil.DefaultTestTimeout, "worker never reached the downstream stage")
}

func (g *gatedRecorder) open() {
	g.openOnce.Do(func() { close(g.release) })
}

// callLog records stage calls in order across a synchronous graph
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (c *callLog) add(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, s)
}

func (c *callLog) get() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.calls)
}

// probe is a stage that logs its Process and Propagate calls
type probe struct {
	Base
	log *callLog
}

func newProbe(id string, log *callLog) *probe {
	return &probe{Base: NewBase("probe", id), log: log}
}

func (p *probe) Process(*frame.Frame) { p.log.add(p.ID() + ".process") }

func (p *probe) Propagate(f *frame.Frame) {
	p.log.add(p.ID() + ".propagate")
	p.Base.Propagate(f)
}

// testMetrics returns a collector on a private registry
func testMetrics(t *testing.T) (*MetricsCollector, *prometheus.Registry) {
	t.Helper()
	registry := prometheus.NewRegistry()
	pm, err := metrics.NewPipelineMetrics(registry)
	require.NoError(t, err)
	return NewMetricsCollector(pm), registry
}

// metricValue returns the counter or gauge value of name with the given label value
func metricValue(t *testing.T, registry *prometheus.Registry, name, labelValue string) float64 {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetValue() != labelValue {
					continue
				}
				switch {
				case m.GetCounter() != nil:
					return m.GetCounter().GetValue()
				case m.GetGauge() != nil:
					return m.GetGauge().GetValue()
				}
			}
		}
	}
	return 0
}
