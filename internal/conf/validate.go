// conf/validate.go

package conf

import (
	"fmt"
	"math"
	"net"
	"slices"
	"strconv"
	"strings"

	"github.com/tphakala/motiondetector/internal/detector"
	"github.com/tphakala/motiondetector/internal/errors"
	"github.com/tphakala/motiondetector/internal/frame"
	"github.com/tphakala/motiondetector/internal/logger"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return "invalid settings: " + strings.Join(ve.Errors, "; ")
}

// ValidateSettings validates the entire Settings struct. Every problem is
// reported; the returned error matches ErrInvalidSettings and wraps a
// ValidationError.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func(*Settings) []string{
		validateSourceSettings,
		validateRelaySettings,
		validateDetectorSettings,
		validateDisplaySettings,
		validateTopologySettings,
		validateLoggingSettings,
		validateTelemetrySettings,
	}
	for _, validate := range validators {
		ve.Errors = append(ve.Errors, validate(settings)...)
	}

	if len(ve.Errors) > 0 {
		return errors.New(ve).
			Component(ComponentConf).
			Category(errors.CategoryValidation).
			Context("resource", "settings").
			Context("problems", len(ve.Errors)).
			Build()
	}
	return nil
}

// validateSourceSettings validates frame size and rate
func validateSourceSettings(s *Settings) []string {
	var errs []string

	if s.Source.Width < 1 || s.Source.Width > frame.MaxDimension {
		errs = append(errs, fmt.Sprintf("source.width must be between 1 and %d, got %d", frame.MaxDimension, s.Source.Width))
	}
	if s.Source.Height < 1 || s.Source.Height > frame.MaxDimension {
		errs = append(errs, fmt.Sprintf("source.height must be between 1 and %d, got %d", frame.MaxDimension, s.Source.Height))
	}
	if fr := s.Source.FrameRate; fr <= 0 || math.IsNaN(fr) || math.IsInf(fr, 0) {
		errs = append(errs, fmt.Sprintf("source.framerate must be a positive number, got %v", fr))
	}

	return errs
}

// validateRelaySettings validates the relay queue
func validateRelaySettings(s *Settings) []string {
	if s.Relay.Capacity < 0 {
		return []string{fmt.Sprintf("relay.capacity must not be negative, got %d", s.Relay.Capacity)}
	}
	if s.Relay.Capacity == 0 && usesRelay(s.Topology.Layout) {
		GetLogger().Warn("relay capacity is 0, every frame will be discarded",
			logger.String("layout", s.Topology.Layout))
	}
	return nil
}

// validateDetectorSettings validates the pattern and match mode
func validateDetectorSettings(s *Settings) []string {
	var errs []string

	p, err := detector.ParsePattern(s.Detector.Pattern)
	if err != nil {
		errs = append(errs, fmt.Sprintf("detector.pattern %q: %v", s.Detector.Pattern, err))
	} else if p.Width() > s.Source.Width || p.Height() > s.Source.Height {
		GetLogger().Warn("pattern is larger than the frame and will never match",
			logger.String("pattern", s.Detector.Pattern),
			logger.Int("width", s.Source.Width),
			logger.Int("height", s.Source.Height))
	}

	if _, err := detector.ParseMode(s.Detector.Mode); err != nil {
		errs = append(errs, fmt.Sprintf("detector.mode %q must be live or snapshot", s.Detector.Mode))
	}

	return errs
}

// validateDisplaySettings validates the display sink
func validateDisplaySettings(s *Settings) []string {
	if s.Display.Tail < 0 {
		return []string{fmt.Sprintf("display.tail must not be negative, got %d", s.Display.Tail)}
	}
	return nil
}

// validateTopologySettings validates the layout name
func validateTopologySettings(s *Settings) []string {
	if !slices.Contains(Layouts, s.Topology.Layout) {
		return []string{fmt.Sprintf("topology.layout %q must be one of %s",
			s.Topology.Layout, strings.Join(Layouts, ", "))}
	}
	return nil
}

// validateLoggingSettings validates the log level
func validateLoggingSettings(s *Settings) []string {
	if slices.Contains(logger.Levels, logger.LogLevel(s.Logging.Level)) {
		return nil
	}
	return []string{fmt.Sprintf("logging.level %q must be one of %v", s.Logging.Level, logger.Levels)}
}

// validateTelemetrySettings validates the listen address when telemetry is on
func validateTelemetrySettings(s *Settings) []string {
	if !s.Telemetry.Enabled {
		return nil
	}

	_, port, err := net.SplitHostPort(s.Telemetry.Listen)
	if err != nil {
		return []string{fmt.Sprintf("telemetry.listen %q is not a host:port address: %v", s.Telemetry.Listen, err)}
	}
	if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
		return []string{fmt.Sprintf("telemetry.listen %q has an invalid port", s.Telemetry.Listen)}
	}
	return nil
}

func usesRelay(layout string) bool {
	return layout == LayoutAsync || layout == LayoutAsyncTee
}
