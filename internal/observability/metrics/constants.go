package metrics

import "time"

const (
	// ShutdownTimeout bounds graceful shutdown of the metrics endpoint.
	ShutdownTimeout = 5 * time.Second

	// DefaultListenAddress is used when telemetry is enabled without an address.
	DefaultListenAddress = "127.0.0.1:9090"
)
