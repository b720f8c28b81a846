// Package metrics provides Prometheus collectors for the frame pipeline
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "motiondetector"

// PipelineMetrics contains Prometheus metrics for sources, relays, detectors and sinks
type PipelineMetrics struct {
	registry *prometheus.Registry

	framesProduced  *prometheus.CounterVec
	stageFrames     *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	relayEnqueued   *prometheus.CounterVec
	relayForwarded  *prometheus.CounterVec
	relayEvicted    *prometheus.CounterVec
	relayDiscarded  *prometheus.CounterVec
	relayQueueDepth *prometheus.GaugeVec
	patternMatches  *prometheus.CounterVec
	poolActive      prometheus.Gauge

	// collectors is a slice of all collectors for easier iteration
	collectors []prometheus.Collector
}

// NewPipelineMetrics creates and registers pipeline metrics on registry
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	m := &PipelineMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *PipelineMetrics) initMetrics() {
	m.framesProduced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_produced_total",
			Help:      "Total number of frames manufactured by a source",
		},
		[]string{"source"},
	)

	m.stageFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_frames_total",
			Help:      "Total number of frames processed by a stage",
		},
		[]string{"stage"},
	)

	m.stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_process_duration_seconds",
			Help:      "Time a stage spent processing one frame",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
		},
		[]string{"stage"},
	)

	m.relayEnqueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_enqueued_total",
			Help:      "Total number of frames accepted into a relay queue",
		},
		[]string{"relay"},
	)

	m.relayForwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_forwarded_total",
			Help:      "Total number of frames a relay worker handed downstream",
		},
		[]string{"relay"},
	)

	m.relayEvicted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_evicted_total",
			Help:      "Total number of queued frames dropped to make room for newer ones",
		},
		[]string{"relay"},
	)

	m.relayDiscarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_discarded_total",
			Help:      "Total number of frames refused because the relay was stopped or has no capacity",
		},
		[]string{"relay"},
	)

	m.relayQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relay_queue_depth",
			Help:      "Frames currently waiting in a relay queue",
		},
		[]string{"relay"},
	)

	m.patternMatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pattern_matches_total",
			Help:      "Total number of pattern occurrences marked by a detector",
		},
		[]string{"detector"},
	)

	m.poolActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frame_pool_active",
			Help:      "Pooled frames currently held by at least one stage",
		},
	)

	m.collectors = []prometheus.Collector{
		m.framesProduced,
		m.stageFrames,
		m.stageDuration,
		m.relayEnqueued,
		m.relayForwarded,
		m.relayEvicted,
		m.relayDiscarded,
		m.relayQueueDepth,
		m.patternMatches,
		m.poolActive,
	}
}

// Describe implements the Collector interface
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordFrameProduced records a frame manufactured by a source
func (m *PipelineMetrics) RecordFrameProduced(source string) {
	m.framesProduced.WithLabelValues(source).Inc()
}

// RecordStageFrame records one frame processed by a stage and how long it took
func (m *PipelineMetrics) RecordStageFrame(stage string, seconds float64) {
	m.stageFrames.WithLabelValues(stage).Inc()
	m.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordRelayEnqueued records a frame accepted by a relay
func (m *PipelineMetrics) RecordRelayEnqueued(relay string) {
	m.relayEnqueued.WithLabelValues(relay).Inc()
}

// RecordRelayForwarded records a frame handed downstream by a relay worker
func (m *PipelineMetrics) RecordRelayForwarded(relay string) {
	m.relayForwarded.WithLabelValues(relay).Inc()
}

// RecordRelayEvicted records a queued frame dropped by the drop-oldest policy
func (m *PipelineMetrics) RecordRelayEvicted(relay string) {
	m.relayEvicted.WithLabelValues(relay).Inc()
}

// RecordRelayDiscarded records a frame refused by a relay
func (m *PipelineMetrics) RecordRelayDiscarded(relay string) {
	m.relayDiscarded.WithLabelValues(relay).Inc()
}

// UpdateRelayQueueDepth sets the current queue depth of a relay
func (m *PipelineMetrics) UpdateRelayQueueDepth(relay string, depth int) {
	m.relayQueueDepth.WithLabelValues(relay).Set(float64(depth))
}

// RecordPatternMatches adds n matches found by a detector
func (m *PipelineMetrics) RecordPatternMatches(detector string, n int) {
	if n <= 0 {
		return
	}
	m.patternMatches.WithLabelValues(detector).Add(float64(n))
}

// UpdatePoolActive sets the number of pooled frames in use
func (m *PipelineMetrics) UpdatePoolActive(active int64) {
	m.poolActive.Set(float64(active))
}
