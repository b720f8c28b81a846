// Package testutil provides shared helpers for tests that wait on pipeline goroutines.
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Common test timeout constants.
const (
	// DefaultTestTimeout is the standard timeout for most async test operations.
	DefaultTestTimeout = 5 * time.Second

	// PollInterval is how often Eventually re-checks its condition.
	PollInterval = time.Millisecond
)

// WaitForChannel waits for a signal on the channel or fails after timeout.
func WaitForChannel(t *testing.T, ch <-chan struct{}, timeout time.Duration, msg string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		require.Fail(t, msg)
	}
}

// WaitForError receives one value from a goroutine's error channel, failing
// the test when nothing arrives within timeout.
func WaitForError(t *testing.T, errCh <-chan error, timeout time.Duration, msg string) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(timeout):
		require.Fail(t, msg)
		return nil
	}
}

// Eventually polls cond until it holds or DefaultTestTimeout passes.
func Eventually(t *testing.T, cond func() bool, msgAndArgs ...any) {
	t.Helper()
	require.Eventually(t, cond, DefaultTestTimeout, PollInterval, msgAndArgs...)
}
