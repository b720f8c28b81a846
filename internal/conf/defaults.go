// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// DefaultPattern is the detector pattern in row notation
const DefaultPattern = "010/111/010/101"

// DefaultListen is the telemetry listen address
const DefaultListen = "127.0.0.1:9090"

// setDefaultConfig sets default values for every configuration key
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("source.width", 20)
	v.SetDefault("source.height", 25)
	v.SetDefault("source.framerate", 1.0)
	v.SetDefault("source.maxframes", uint64(0))
	v.SetDefault("source.seed", uint64(0))

	v.SetDefault("relay.capacity", 1)

	v.SetDefault("detector.pattern", DefaultPattern)
	v.SetDefault("detector.mode", "live")

	v.SetDefault("display.enabled", true)
	v.SetDefault("display.color", true)
	v.SetDefault("display.tail", 0)

	v.SetDefault("topology.layout", LayoutAsync)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.listen", DefaultListen)
}
