package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/motiondetector/internal/logger"
)

// decodeLines parses every JSON line written to buf
func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for line := range strings.Lines(buf.String()) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), "line: %s", line)
		out = append(out, m)
	}
	return out
}

func TestLogLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		level logger.LogLevel
		want  []string
	}{
		{"trace", logger.LogLevelTrace, []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}},
		{"debug", logger.LogLevelDebug, []string{"DEBUG", "INFO", "WARN", "ERROR"}},
		{"info", logger.LogLevelInfo, []string{"INFO", "WARN", "ERROR"}},
		{"warn", logger.LogLevelWarn, []string{"WARN", "ERROR"}},
		{"error", logger.LogLevelError, []string{"ERROR"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			buf := &bytes.Buffer{}
			log := logger.NewSlogLogger(buf, tt.level, time.UTC)

			log.Trace("t")
			log.Debug("d")
			log.Info("i")
			log.Warn("w")
			log.Error("e")

			var levels []string
			for _, line := range decodeLines(t, buf) {
				levels = append(levels, line["level"].(string))
			}
			assert.Equal(t, tt.want, levels)
		})
	}
}

func TestFieldsAndModules(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	root := logger.NewSlogLogger(buf, logger.LogLevelDebug, time.UTC)

	relay := root.Module("pipeline").Module("relay").With(logger.String("stage", "queue"))
	relay.Info("frame evicted",
		logger.Uint64("seq", 7),
		logger.Int("capacity", 1),
		logger.Float64("ratio", 0.123456),
		logger.Bool("dropped", true),
		logger.Duration("wait", 1500*time.Millisecond),
		logger.Error(errors.New("queue full")))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	line := lines[0]

	assert.Equal(t, "frame evicted", line["msg"])
	assert.Equal(t, "pipeline.relay", line["module"])
	assert.Equal(t, "queue", line["stage"])
	assert.InDelta(t, 7, line["seq"], 0)
	assert.InDelta(t, 1, line["capacity"], 0)
	assert.InDelta(t, 0.123, line["ratio"], 1e-9)
	assert.Equal(t, true, line["dropped"])
	assert.Equal(t, "1.5s", line["wait"])
	assert.Equal(t, "queue full", line["error"])
}

func TestWithDoesNotLeakIntoParent(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	parent := logger.NewSlogLogger(buf, logger.LogLevelInfo, time.UTC).Module("detector")
	_ = parent.With(logger.String("child", "yes"))
	parent.Info("plain")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], "child")
}

func TestWithContextRunID(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.NewSlogLogger(buf, logger.LogLevelInfo, time.UTC)

	ctx := logger.WithRunID(context.Background(), "run-42")
	id, ok := logger.RunIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "run-42", id)

	log.WithContext(ctx).Module("relay").Info("with run")
	log.WithContext(context.Background()).Info("without run")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "run-42", lines[0]["run_id"])
	assert.Equal(t, "relay", lines[0]["module"])
	assert.NotContains(t, lines[1], "run_id")
}

func TestExplicitLogLevel(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.NewSlogLogger(buf, logger.LogLevelWarn, time.UTC)

	log.Log(logger.LogLevelInfo, "suppressed")
	log.Log(logger.LogLevelError, "kept")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["msg"])
}

func TestCentralLoggerFileOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "motiondetector.log")
	cl, err := logger.NewCentralLogger(&logger.LoggingConfig{
		DefaultLevel: "debug",
		Timezone:     "UTC",
		Console:      &logger.ConsoleOutput{Enabled: false},
		FileOutput:   &logger.FileOutput{Enabled: true, Path: path, Level: "debug"},
		ModuleLevels: map[string]string{"render": "error"},
	})
	require.NoError(t, err)

	cl.Module("pipeline").Debug("relay started", logger.Int("capacity", 2))
	cl.Module("render").Info("suppressed by module level")
	require.NoError(t, cl.Flush())
	require.NoError(t, cl.Close())
	require.NoError(t, cl.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	buf := bytes.NewBuffer(data)
	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "pipeline", lines[0]["module"])
	assert.Equal(t, "DEBUG", lines[0]["level"])

	_, err = time.Parse(time.RFC3339, lines[0]["time"].(string))
	assert.NoError(t, err)
}

func TestCentralLoggerAppendsAcrossRuns(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.log")
	for run := range 2 {
		cl, err := logger.NewCentralLogger(&logger.LoggingConfig{
			Timezone:   "UTC",
			Console:    &logger.ConsoleOutput{Enabled: false},
			FileOutput: &logger.FileOutput{Enabled: true, Path: path},
		})
		require.NoError(t, err)
		cl.Module("topology").Info("pipeline closed", logger.Int("run", run))
		require.NoError(t, cl.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := decodeLines(t, bytes.NewBuffer(data))
	require.Len(t, lines, 2)
	assert.InDelta(t, 1, lines[1]["run"], 0)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestCentralLoggerRejectsBadInput(t *testing.T) {
	t.Parallel()

	_, err := logger.NewCentralLogger(nil)
	require.Error(t, err)

	_, err = logger.NewCentralLogger(&logger.LoggingConfig{Timezone: "Not/AZone"})
	require.Error(t, err)
}

func TestGlobalFallback(t *testing.T) {
	log := logger.Global().Module("test")
	require.NotNil(t, log)
	assert.NoError(t, log.Flush())
}

func TestConcurrentLogging(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	buf := &bytes.Buffer{}
	w := writerFunc(func(p []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		return buf.Write(p)
	})
	log := logger.NewSlogLogger(w, logger.LogLevelInfo, time.UTC)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Go(func() {
			l := log.With(logger.Int("worker", i))
			for range 50 {
				l.Info("tick")
			}
		})
	}
	wg.Wait()

	assert.Len(t, decodeLines(t, buf), 400)
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
