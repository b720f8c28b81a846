package conf

import "github.com/tphakala/motiondetector/internal/errors"

// ComponentConf identifies configuration errors
const ComponentConf = "configuration"

// ErrInvalidSettings matches every error returned by ValidateSettings
var ErrInvalidSettings = errors.New(nil).
	Component(ComponentConf).
	Category(errors.CategoryValidation).
	Context("resource", "settings").
	Build()
