package pipeline

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/motiondetector/internal/detector"
	"github.com/tphakala/motiondetector/internal/frame"
	"github.com/tphakala/motiondetector/internal/logger"
)

func TestTransformAppliesFunction(t *testing.T) {
	t.Parallel()

	invert := NewTransform("invert", func(f *frame.Frame) {
		for _, row := range f.Pixels {
			for c := range row {
				row[c] ^= 1
			}
		}
	}, quiet())
	var got *frame.Frame
	invert.Link(NewSink("sink", RendererFunc(func(f *frame.Frame) { got = f.Clone() }), quiet()))

	f := frame.MustNew(2, 1, [][]uint8{{1, 0}})
	invert.Process(f)
	invert.Propagate(f)

	require.NotNil(t, got)
	assert.Equal(t, [][]uint8{{0, 1}}, got.Pixels)
	assert.Panics(t, func() { NewTransform("nil", nil) })
}

func TestDetectorMarksMatchesBeforeSink(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	log := logger.NewSlogLogger(&logs, logger.LogLevelDebug, time.UTC)
	mc, registry := testMetrics(t)

	det := NewDetector("detector", detector.NewMatcher(detector.MustPattern(detector.DefaultPattern)),
		WithLogger(log), WithMetrics(mc))

	var matched int
	sink := NewSink("display", RendererFunc(func(f *frame.Frame) { matched = f.Count(frame.Matched) }), quiet())
	det.Link(sink)

	f := frame.MustNew(6, 6, nil)
	for r, row := range detector.DefaultPattern {
		copy(f.Pixels[2+r][3:], row)
	}
	f.Seq = 9

	det.Process(f)
	det.Propagate(f)

	assert.Equal(t, 7, matched)
	assert.Equal(t, uint64(1), det.Frames())
	assert.Equal(t, uint64(1), det.Matches())
	assert.Equal(t, uint64(1), sink.Rendered())

	out := logs.String()
	assert.Contains(t, out, `"msg":"pattern found"`)
	assert.Contains(t, out, `"seq":9`)
	assert.Contains(t, out, `"row":2`)
	assert.Contains(t, out, `"col":3`)
	assert.Contains(t, out, `"stage":"detector"`)

	assert.InDelta(t, 1, metricValue(t, registry, "motiondetector_pattern_matches_total", "detector"), 0)
	assert.InDelta(t, 1, metricValue(t, registry, "motiondetector_stage_frames_total", "detector"), 0)
}

func TestDetectorWithoutMatches(t *testing.T) {
	t.Parallel()

	det := NewDetector("", detector.NewMatcher(detector.MustPattern(detector.DefaultPattern)), quiet())
	f := frame.MustNew(2, 2, [][]uint8{{1, 1}, {1, 1}})
	det.Process(f)

	assert.Equal(t, uint64(1), det.Frames())
	assert.Zero(t, det.Matches())
	assert.Equal(t, 4, f.Count(frame.Active))
	assert.Equal(t, detector.MatchLive, det.Matcher().Mode())
	assert.Panics(t, func() { NewDetector("nil", nil) })
}

func TestCopyIsolatesDownstream(t *testing.T) {
	t.Parallel()

	cp := NewCopy("copy", quiet())
	det := NewDetector("detector", detector.NewMatcher(detector.MustPattern([][]uint8{{1}})), quiet())
	var seen *frame.Frame
	cp.Link(det).Link(NewSink("sink", RendererFunc(func(f *frame.Frame) {
		seen = f
		assert.Equal(t, 1, f.RefCount(), "the clone is owned by the copy stage")
	}), quiet()))

	f := frame.MustNew(2, 1, [][]uint8{{1, 0}})
	f.Seq = 4
	cp.Process(f)
	cp.Propagate(f)

	require.NotNil(t, seen)
	assert.NotSame(t, f, seen)
	assert.Equal(t, uint64(4), seen.Seq)
	assert.Equal(t, f.ID, seen.ID)
	assert.Equal(t, []uint8{2, 0}, seen.Pixels[0])
	assert.Equal(t, []uint8{1, 0}, f.Pixels[0], "the original is never mutated")
	assert.Equal(t, 1, f.RefCount())
	assert.Zero(t, seen.RefCount())
}

func TestSinkRenders(t *testing.T) {
	t.Parallel()

	mc, registry := testMetrics(t)
	rec := &recorder{}
	sink := NewSink("display", rec, quiet(), WithMetrics(mc))

	for i := range 3 {
		sink.Process(newFrame(t, uint64(i)))
	}
	sink.Propagate(newFrame(t, 99))

	assert.Equal(t, []uint64{0, 1, 2}, rec.Seqs())
	assert.Equal(t, uint64(3), sink.Rendered())
	assert.InDelta(t, 3, metricValue(t, registry, "motiondetector_stage_frames_total", "display"), 0)
	assert.Panics(t, func() { NewSink("nil", nil) })
}
