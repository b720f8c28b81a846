// conf/utils.go config file lookup
package conf

import (
	"os"
	"path/filepath"
	"runtime"
)

const configFileName = "config.yaml"

// GetDefaultConfigPaths returns the directories searched for config.yaml,
// in order: the working directory, the per-user config directory and, on
// Unix-like systems, /etc/motiondetector.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}

	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "motiondetector"))
	}
	if runtime.GOOS != "windows" {
		paths = append(paths, "/etc/motiondetector")
	}
	return paths
}

// FindConfigFile returns the first config.yaml in the default paths, or ""
func FindConfigFile() string {
	for _, dir := range GetDefaultConfigPaths() {
		path := filepath.Join(dir, configFileName)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// DefaultConfigPath returns where `config init` writes when no path is given
func DefaultConfigPath() string {
	paths := GetDefaultConfigPaths()
	if len(paths) > 1 {
		return filepath.Join(paths[1], configFileName)
	}
	return configFileName
}
