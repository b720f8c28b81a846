package conf

import "github.com/tphakala/motiondetector/internal/logger"

// GetLogger returns the config package logger. It is fetched from the
// global logger on each call so it follows a logger installed after init.
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}
