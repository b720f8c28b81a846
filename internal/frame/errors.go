package frame

import (
	"github.com/tphakala/motiondetector/internal/errors"
)

// ComponentFrame identifies frame errors
const ComponentFrame = "frame"

var (
	// ErrInvalidDimensions is returned when width or height is outside 1..MaxDimension
	ErrInvalidDimensions = errors.New(nil).
				Component(ComponentFrame).
				Category(errors.CategoryValidation).
				Context("resource", "dimensions").
				Build()

	// ErrInvalidPixels is returned when a grid does not match its declared shape
	// or holds a value other than Empty, Active or Matched
	ErrInvalidPixels = errors.New(nil).
				Component(ComponentFrame).
				Category(errors.CategoryValidation).
				Context("resource", "pixels").
				Build()
)

func dimensionError(width, height int) error {
	return errors.Newf("frame dimensions %dx%d must be within 1..%d", width, height, MaxDimension).
		Component(ComponentFrame).
		Category(errors.CategoryValidation).
		Context("resource", "dimensions").
		Context("width", width).
		Context("height", height).
		Build()
}

func pixelError(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component(ComponentFrame).
		Category(errors.CategoryValidation).
		Context("resource", "pixels").
		Build()
}
