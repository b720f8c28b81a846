package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/motiondetector/cmd/config"
	"github.com/tphakala/motiondetector/cmd/run"
	"github.com/tphakala/motiondetector/cmd/version"
	"github.com/tphakala/motiondetector/internal/buildinfo"
)

// RootCommand creates and returns the root command. Flags of every
// subcommand are bound to v, so they override file and environment values.
func RootCommand(info *buildinfo.Context, v *viper.Viper) *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "motiondetector",
		Short: "Synthetic frame pipeline with a pattern detector",
		Long: "motiondetector generates random binary frames, relays them through a bounded\n" +
			"drop-oldest queue, marks every occurrence of a pattern and renders the result.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, v, &configFile); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(
		run.Command(info, v, &configFile),
		config.Command(v, &configFile),
		version.Command(info),
	)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, v *viper.Viper, configFile *string) error {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(configFile, "config", "c", "", "Path to config.yaml (default: search ., the user config dir and /etc/motiondetector)")
	flags.BoolP("debug", "d", v.GetBool("debug"), "Enable debug output")
	flags.String("log-level", v.GetString("logging.level"), "Log level: trace, debug, info, warn or error")
	flags.String("log-file", v.GetString("logging.file"), "Also write JSON logs to this file")

	bindings := map[string]string{
		"debug":         "debug",
		"logging.level": "log-level",
		"logging.file":  "log-file",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}
