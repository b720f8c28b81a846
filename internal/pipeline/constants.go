package pipeline

import "time"

const (
	// evictionWarnInterval limits relay overflow warnings to one per interval
	// per relay; every eviction is still counted.
	evictionWarnInterval = 5 * time.Second

	// evictionWarnBurst is the number of warnings allowed before throttling
	evictionWarnBurst = 1

	// generatedIDLength is the number of UUID characters used for generated stage IDs
	generatedIDLength = 8
)
