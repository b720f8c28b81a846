package topology

import "github.com/tphakala/motiondetector/internal/errors"

// ComponentTopology identifies topology errors
const ComponentTopology = "topology"

var (
	// ErrNoSettings is returned when Build is called without settings
	ErrNoSettings = errors.New(nil).
			Component(ComponentTopology).
			Category(errors.CategoryTopology).
			Context("resource", "settings").
			Build()

	// ErrUnknownLayout is returned for a layout name Build cannot wire
	ErrUnknownLayout = errors.New(nil).
				Component(ComponentTopology).
				Category(errors.CategoryTopology).
				Context("resource", "layout").
				Build()
)
