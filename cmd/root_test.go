package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/motiondetector/internal/buildinfo"
	"github.com/tphakala/motiondetector/internal/conf"
	"github.com/tphakala/motiondetector/internal/errors"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := RootCommand(buildinfo.NewContext("v1.2.3", "2026-01-02"), conf.NewViper())
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func emptyConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "motiondetector v1.2.3 (built 2026-01-02)\n", out)
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = execute(t, "config", "init", path)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConflict))

	_, err = execute(t, "config", "init", "--force", path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("relay:\n  capacity: 9\n"), 0o600))
	out, err = execute(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "capacity: 9\n")
	assert.Contains(t, out, "layout: async\n")
}

func TestRunRendersFrames(t *testing.T) {
	out, err := execute(t, "--config", emptyConfig(t), "--log-level", "error",
		"run", "--frames", "3", "--framerate", "500", "--width", "6", "--height", "5", "--no-color", "--capacity", "8")
	require.NoError(t, err)

	assert.Equal(t, 3, strings.Count(out, "Frame #"))
	assert.Contains(t, out, "width: 6 height: 5")
	assert.NotContains(t, out, "\x1b[")
}

func TestRunTailPrintsAtExit(t *testing.T) {
	out, err := execute(t, "--config", emptyConfig(t), "--log-level", "error",
		"run", "--frames", "4", "--framerate", "500", "--layout", "detector", "--no-color", "--tail", "40")
	require.NoError(t, err)
	assert.Len(t, out, 40)
}

func TestRunNoDisplay(t *testing.T) {
	out, err := execute(t, "--config", emptyConfig(t), "--log-level", "error",
		"run", "--frames", "2", "--framerate", "500", "--no-display", "--snapshot")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRunWithTelemetry(t *testing.T) {
	out, err := execute(t, "--config", emptyConfig(t), "--log-level", "error",
		"run", "--frames", "2", "--framerate", "500", "--no-color", "--capacity", "8", "--telemetry", "--listen", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "Frame #"))
}

func TestRunRejectsInvalidFlags(t *testing.T) {
	_, err := execute(t, "--config", emptyConfig(t), "run", "--framerate", "0")
	require.ErrorIs(t, err, conf.ErrInvalidSettings)

	_, err = execute(t, "--config", emptyConfig(t), "run", "--layout", "ring")
	require.ErrorIs(t, err, conf.ErrInvalidSettings)
}
