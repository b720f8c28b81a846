// Package conf loads and validates motiondetector settings.
//
// Settings come from, in increasing precedence: built-in defaults, an
// optional YAML file, MOTIONDETECTOR_* environment variables and command
// line flags bound to the same viper instance.
package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/motiondetector/internal/errors"
	"github.com/tphakala/motiondetector/internal/logger"
)

// Topology layouts
const (
	LayoutDisplay  = "display"   // source -> display
	LayoutDetector = "detector"  // source -> detector -> display
	LayoutAsync    = "async"     // source -> relay -> detector -> display
	LayoutAsyncTee = "async-tee" // async plus a raw source -> display branch
)

// Layouts lists the known topology layouts
var Layouts = []string{LayoutDisplay, LayoutDetector, LayoutAsync, LayoutAsyncTee}

// SourceSettings configures the frame source
type SourceSettings struct {
	Width     int     `yaml:"width"`     // frame width in cells
	Height    int     `yaml:"height"`    // frame height in cells
	FrameRate float64 `yaml:"framerate"` // frames per second
	MaxFrames uint64  `yaml:"maxframes"` // stop after this many frames, 0 runs until interrupted
	Seed      uint64  `yaml:"seed"`      // random seed, 0 picks one at startup
}

// RelaySettings configures the buffered relay
type RelaySettings struct {
	Capacity int `yaml:"capacity"` // frames held before the oldest is dropped
}

// DetectorSettings configures the pattern detector
type DetectorSettings struct {
	Pattern string `yaml:"pattern"` // rows of 0 and 1 separated by '/'
	Mode    string `yaml:"mode"`    // live or snapshot
}

// DisplaySettings configures the text display sink
type DisplaySettings struct {
	Enabled bool `yaml:"enabled"`
	Color   bool `yaml:"color"`
	Tail    int  `yaml:"tail"` // keep only the last N bytes and print them at exit, 0 streams
}

// TopologySettings selects how stages are wired
type TopologySettings struct {
	Layout string `yaml:"layout"`
}

// LoggingSettings configures the central logger
type LoggingSettings struct {
	Level string `yaml:"level"` // trace, debug, info, warn or error
	File  string `yaml:"file"`  // optional JSON log file
}

// TelemetrySettings configures the Prometheus endpoint
type TelemetrySettings struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"` // host:port
}

// Settings holds the complete configuration
type Settings struct {
	Debug     bool              `yaml:"debug"`
	Source    SourceSettings    `yaml:"source"`
	Relay     RelaySettings     `yaml:"relay"`
	Detector  DetectorSettings  `yaml:"detector"`
	Display   DisplaySettings   `yaml:"display"`
	Topology  TopologySettings  `yaml:"topology"`
	Logging   LoggingSettings   `yaml:"logging"`
	Telemetry TelemetrySettings `yaml:"telemetry"`
}

// NewViper returns a viper instance with defaults and environment bindings
// applied. Callers may bind flags to it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaultConfig(v)
	bindEnvVars(v)
	return v
}

// Load reads configFile (or the first config.yaml found in the default
// paths when empty) into v, then unmarshals and validates the result. Each
// call returns a new Settings. A missing default file is not an error.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	if v == nil {
		v = NewViper()
	}

	if err := readConfigFile(v, configFile); err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Component(ComponentConf).
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal").
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	return settings, nil
}

func readConfigFile(v *viper.Viper, configFile string) error {
	if configFile == "" {
		configFile = FindConfigFile()
		if configFile == "" {
			GetLogger().Debug("no config file found, using defaults")
			return nil
		}
	}

	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		return errors.New(err).
			Component(ComponentConf).
			Category(errors.CategoryFileIO).
			Context("resource", "config_file").
			Context("path", configFile).
			Build()
	}
	GetLogger().Info("config file loaded", logger.String("path", configFile))
	return nil
}

// DefaultSettings returns the built-in defaults
func DefaultSettings() *Settings {
	v := viper.New()
	setDefaultConfig(v)
	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		// Defaults are static, decoding them cannot fail
		panic(fmt.Sprintf("conf: decoding defaults: %v", err))
	}
	return settings
}

// WriteDefaultConfig writes the defaults as YAML to path. The file is
// written to a temporary name first and renamed into place. An existing
// file is only replaced when overwrite is set.
func WriteDefaultConfig(path string, overwrite bool) error {
	return SaveYAMLConfig(path, DefaultSettings(), overwrite)
}

// SaveYAMLConfig marshals settings to path atomically
func SaveYAMLConfig(path string, settings *Settings, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.Newf("config file %s already exists", path).
				Component(ComponentConf).
				Category(errors.CategoryConflict).
				Context("path", path).
				Build()
		}
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return errors.New(err).
			Component(ComponentConf).
			Category(errors.CategoryConfiguration).
			Context("operation", "marshal").
			Build()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fileError(err, path, "create-directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "config-*.yaml")
	if err != nil {
		return fileError(err, path, "create-temp")
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fileError(err, path, "write")
	}
	if err := tmp.Close(); err != nil {
		return fileError(err, path, "close")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fileError(err, path, "chmod")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fileError(err, path, "rename")
	}
	return nil
}

// YAML renders settings the way SaveYAMLConfig stores them
func (s *Settings) YAML() (string, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func fileError(err error, path, operation string) error {
	return errors.New(err).
		Component(ComponentConf).
		Category(errors.CategoryFileIO).
		Context("path", path).
		Context("operation", operation).
		Build()
}
