// Package buildinfo contains build-time metadata kept apart from user configuration
package buildinfo

import (
	"fmt"

	"github.com/google/uuid"
)

// UnknownValue is reported for metadata that was not injected at build time
const UnknownValue = "unknown"

// BuildInfo provides access to build-time metadata
type BuildInfo interface {
	// GetVersion returns the build version string
	GetVersion() string
	// GetBuildDate returns the build date string
	GetBuildDate() string
	// GetRunID returns the identifier of this process run
	GetRunID() string
}

// Context contains build-time metadata that is not user-configurable. It
// is created once at startup from linker-injected values.
type Context struct {
	// Version holds the Git version tag from build
	Version string

	// BuildDate is the time when the binary was built
	BuildDate string

	// RunID tags log lines of one process run
	RunID string
}

// NewContext creates a Context with a fresh run ID
func NewContext(version, buildDate string) *Context {
	return &Context{
		Version:   version,
		BuildDate: buildDate,
		RunID:     uuid.NewString(),
	}
}

// GetVersion implements BuildInfo.GetVersion
func (c *Context) GetVersion() string {
	if c == nil || c.Version == "" {
		return UnknownValue
	}
	return c.Version
}

// GetBuildDate implements BuildInfo.GetBuildDate
func (c *Context) GetBuildDate() string {
	if c == nil || c.BuildDate == "" {
		return UnknownValue
	}
	return c.BuildDate
}

// GetRunID implements BuildInfo.GetRunID
func (c *Context) GetRunID() string {
	if c == nil || c.RunID == "" {
		return UnknownValue
	}
	return c.RunID
}

// String renders the version line printed by the CLI
func (c *Context) String() string {
	return fmt.Sprintf("motiondetector %s (built %s)", c.GetVersion(), c.GetBuildDate())
}
