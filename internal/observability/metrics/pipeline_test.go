package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) *PipelineMetrics {
	t.Helper()

	registry := prometheus.NewRegistry()
	m, err := NewPipelineMetrics(registry)
	require.NoError(t, err)
	return m
}

func TestRecordRelayCounters(t *testing.T) {
	t.Parallel()

	m := newTestMetrics(t)

	m.RecordRelayEnqueued("queue")
	m.RecordRelayEnqueued("queue")
	m.RecordRelayEnqueued("queue")
	m.RecordRelayEvicted("queue")
	m.RecordRelayForwarded("queue")
	m.RecordRelayDiscarded("closed")
	m.UpdateRelayQueueDepth("queue", 2)

	assert.InDelta(t, 3, testutil.ToFloat64(m.relayEnqueued.WithLabelValues("queue")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.relayEvicted.WithLabelValues("queue")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.relayForwarded.WithLabelValues("queue")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.relayDiscarded.WithLabelValues("closed")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.relayQueueDepth.WithLabelValues("queue")), 0)
}

func TestRecordPatternMatches(t *testing.T) {
	t.Parallel()

	m := newTestMetrics(t)

	m.RecordPatternMatches("detector", 3)
	m.RecordPatternMatches("detector", 0)
	m.RecordPatternMatches("detector", -1)

	assert.InDelta(t, 3, testutil.ToFloat64(m.patternMatches.WithLabelValues("detector")), 0)
}

func TestRecordStageFrame(t *testing.T) {
	t.Parallel()

	m := newTestMetrics(t)

	m.RecordFrameProduced("source")
	m.RecordStageFrame("display", 0.002)
	m.RecordStageFrame("display", 0.004)
	m.UpdatePoolActive(5)

	assert.InDelta(t, 1, testutil.ToFloat64(m.framesProduced.WithLabelValues("source")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.stageFrames.WithLabelValues("display")), 0)
	assert.InDelta(t, 5, testutil.ToFloat64(m.poolActive), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.stageDuration))
}

func TestMetricNames(t *testing.T) {
	t.Parallel()

	m := newTestMetrics(t)
	m.RecordFrameProduced("source")

	expected := `
# HELP motiondetector_frames_produced_total Total number of frames manufactured by a source
# TYPE motiondetector_frames_produced_total counter
motiondetector_frames_produced_total{source="source"} 1
`
	err := testutil.CollectAndCompare(m, strings.NewReader(expected), "motiondetector_frames_produced_total")
	assert.NoError(t, err)
}

func TestDuplicateRegistrationFails(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	_, err := NewPipelineMetrics(registry)
	require.NoError(t, err)

	_, err = NewPipelineMetrics(registry)
	assert.Error(t, err)
}
