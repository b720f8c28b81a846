package pipeline

import (
	"time"

	"github.com/tphakala/motiondetector/internal/observability/metrics"
)

// MetricsCollector records pipeline activity. The zero value and a nil
// pointer are no-ops, so stages call it unconditionally.
type MetricsCollector struct {
	metrics *metrics.PipelineMetrics
}

// NewMetricsCollector wraps m. A nil m yields a no-op collector.
func NewMetricsCollector(m *metrics.PipelineMetrics) *MetricsCollector {
	return &MetricsCollector{metrics: m}
}

func (mc *MetricsCollector) enabled() bool {
	return mc != nil && mc.metrics != nil
}

// RecordFrameProduced records a frame manufactured by a source
func (mc *MetricsCollector) RecordFrameProduced(source string) {
	if !mc.enabled() {
		return
	}
	mc.metrics.RecordFrameProduced(source)
}

// RecordStageFrame records a processed frame and its processing time
func (mc *MetricsCollector) RecordStageFrame(stage string, d time.Duration) {
	if !mc.enabled() {
		return
	}
	mc.metrics.RecordStageFrame(stage, d.Seconds())
}

// RecordRelayEnqueued records an accepted frame and the resulting depth
func (mc *MetricsCollector) RecordRelayEnqueued(relay string, depth int) {
	if !mc.enabled() {
		return
	}
	mc.metrics.RecordRelayEnqueued(relay)
	mc.metrics.UpdateRelayQueueDepth(relay, depth)
}

// RecordRelayForwarded records a forwarded frame and the remaining depth
func (mc *MetricsCollector) RecordRelayForwarded(relay string, depth int) {
	if !mc.enabled() {
		return
	}
	mc.metrics.RecordRelayForwarded(relay)
	mc.metrics.UpdateRelayQueueDepth(relay, depth)
}

// RecordRelayEvicted records a frame dropped by the drop-oldest policy
func (mc *MetricsCollector) RecordRelayEvicted(relay string) {
	if !mc.enabled() {
		return
	}
	mc.metrics.RecordRelayEvicted(relay)
}

// RecordRelayDiscarded records a frame refused by a stopped or zero-capacity relay
func (mc *MetricsCollector) RecordRelayDiscarded(relay string) {
	if !mc.enabled() {
		return
	}
	mc.metrics.RecordRelayDiscarded(relay)
}

// UpdateRelayQueueDepth sets the queue depth gauge
func (mc *MetricsCollector) UpdateRelayQueueDepth(relay string, depth int) {
	if !mc.enabled() {
		return
	}
	mc.metrics.UpdateRelayQueueDepth(relay, depth)
}

// RecordPatternMatches records matches marked by a detector
func (mc *MetricsCollector) RecordPatternMatches(detector string, n int) {
	if !mc.enabled() {
		return
	}
	mc.metrics.RecordPatternMatches(detector, n)
}

// UpdatePoolActive sets the number of pooled frames in use
func (mc *MetricsCollector) UpdatePoolActive(active int64) {
	if !mc.enabled() {
		return
	}
	mc.metrics.UpdatePoolActive(active)
}
