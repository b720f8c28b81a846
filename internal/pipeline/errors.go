package pipeline

import (
	"github.com/tphakala/motiondetector/internal/errors"
)

// ComponentPipeline identifies pipeline errors
const ComponentPipeline = "pipeline"

var (
	// ErrInvalidFrameRate is returned when a source frame rate is not a positive finite number
	ErrInvalidFrameRate = errors.New(nil).
				Component(ComponentPipeline).
				Category(errors.CategoryConfiguration).
				Context("resource", "frame_rate").
				Build()

	// ErrInvalidCapacity is returned when a relay capacity is negative
	ErrInvalidCapacity = errors.New(nil).
				Component(ComponentPipeline).
				Category(errors.CategoryConfiguration).
				Context("resource", "capacity").
				Build()

	// ErrInvalidSourceConfig is returned for bad source dimensions or limits
	ErrInvalidSourceConfig = errors.New(nil).
				Component(ComponentPipeline).
				Category(errors.CategoryConfiguration).
				Context("resource", "source").
				Build()

	// ErrSourceRunning is returned when Start is called on a running source
	ErrSourceRunning = errors.New(nil).
				Component(ComponentPipeline).
				Category(errors.CategoryState).
				Context("resource", "source").
				Build()
)

func configError(resource string, err error) *errors.ErrorBuilder {
	return errors.New(err).
		Component(ComponentPipeline).
		Category(errors.CategoryConfiguration).
		Context("resource", resource)
}
