// env.go - environment variable configuration
package conf

import (
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/tphakala/motiondetector/internal/logger"
)

// EnvPrefix prefixes every environment variable, e.g. MOTIONDETECTOR_SOURCE_WIDTH
const EnvPrefix = "MOTIONDETECTOR"

// envBinding holds metadata for environment variable checks
type envBinding struct {
	ConfigKey string             // viper config key
	Validate  func(string) error // checks the raw value
}

// getEnvBindings returns the keys whose raw environment values are checked
// early, so a typo is reported against the variable rather than the setting.
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", validateEnvBool},
		{"source.width", validateEnvInt},
		{"source.height", validateEnvInt},
		{"source.framerate", validateEnvFloat},
		{"source.maxframes", validateEnvUint},
		{"source.seed", validateEnvUint},
		{"relay.capacity", validateEnvInt},
		{"display.enabled", validateEnvBool},
		{"display.color", validateEnvBool},
		{"display.tail", validateEnvInt},
		{"telemetry.enabled", validateEnvBool},
	}
}

// envVarName returns the environment variable for a config key
func envVarName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// bindEnvVars makes every key overridable from MOTIONDETECTOR_* variables
// and logs malformed values. Malformed values still reach validation.
func bindEnvVars(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, binding := range getEnvBindings() {
		name := envVarName(binding.ConfigKey)
		value, ok := os.LookupEnv(name)
		if !ok || binding.Validate == nil {
			continue
		}
		if err := binding.Validate(value); err != nil {
			GetLogger().Warn("invalid environment variable",
				logger.String("variable", name),
				logger.String("value", value),
				logger.Error(err))
		}
	}
}

func validateEnvBool(value string) error {
	_, err := strconv.ParseBool(value)
	return err
}

func validateEnvInt(value string) error {
	_, err := strconv.Atoi(value)
	return err
}

func validateEnvUint(value string) error {
	_, err := strconv.ParseUint(value, 10, 64)
	return err
}

func validateEnvFloat(value string) error {
	_, err := strconv.ParseFloat(value, 64)
	return err
}
