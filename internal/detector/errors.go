package detector

import (
	"github.com/tphakala/motiondetector/internal/errors"
)

// ComponentDetector identifies detector errors
const ComponentDetector = "detector"

var (
	// ErrInvalidPattern is returned for empty, ragged or non-binary patterns
	ErrInvalidPattern = errors.New(nil).
				Component(ComponentDetector).
				Category(errors.CategoryPattern).
				Context("resource", "pattern").
				Build()

	// ErrUnknownMode is returned when a match mode name is not recognized
	ErrUnknownMode = errors.New(nil).
			Component(ComponentDetector).
			Category(errors.CategoryConfiguration).
			Context("resource", "match_mode").
			Build()
)

func patternError(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component(ComponentDetector).
		Category(errors.CategoryPattern).
		Context("resource", "pattern").
		Build()
}
