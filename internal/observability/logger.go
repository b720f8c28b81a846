package observability

import "github.com/tphakala/motiondetector/internal/logger"

// GetLogger returns the telemetry module logger. It is resolved on each
// call so it follows the global logger installed at startup.
func GetLogger() logger.Logger {
	return logger.Global().Module("telemetry")
}
