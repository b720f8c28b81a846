// Package run implements the command that assembles and runs the pipeline.
package run

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/motiondetector/internal/buildinfo"
	"github.com/tphakala/motiondetector/internal/conf"
	"github.com/tphakala/motiondetector/internal/logger"
	"github.com/tphakala/motiondetector/internal/observability"
	"github.com/tphakala/motiondetector/internal/pipeline"
	"github.com/tphakala/motiondetector/internal/topology"
)

// drainTimeout bounds how long a finished run waits for queued frames
const drainTimeout = 5 * time.Second

// valueFlags maps viper keys to the flags that override them
var valueFlags = map[string]string{
	"source.width":      "width",
	"source.height":     "height",
	"source.framerate":  "framerate",
	"source.maxframes":  "frames",
	"source.seed":       "seed",
	"relay.capacity":    "capacity",
	"detector.pattern":  "pattern",
	"topology.layout":   "layout",
	"display.tail":      "tail",
	"telemetry.enabled": "telemetry",
	"telemetry.listen":  "listen",
}

// Command creates the run command. The global config flag is read through
// configFile when the command executes.
func Command(info *buildinfo.Context, v *viper.Viper, configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate frames and run them through the pipeline",
		Long: "Generate random frames and push them through the configured topology until\n" +
			"the frame limit is reached or the process is interrupted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyNegations(cmd, v)
			settings, err := conf.Load(v, *configFile)
			if err != nil {
				return err
			}
			return Execute(cmd.Context(), info, settings, cmd.OutOrStdout())
		},
	}

	if err := setupFlags(cmd, v); err != nil {
		panic(err)
	}
	return cmd
}

func setupFlags(cmd *cobra.Command, v *viper.Viper) error {
	flags := cmd.Flags()
	flags.Int("width", v.GetInt("source.width"), "Frame width in cells")
	flags.Int("height", v.GetInt("source.height"), "Frame height in cells")
	flags.Float64("framerate", v.GetFloat64("source.framerate"), "Frames per second")
	flags.Uint64("frames", v.GetUint64("source.maxframes"), "Stop after this many frames, 0 runs until interrupted")
	flags.Uint64("seed", v.GetUint64("source.seed"), "Random seed, 0 picks one at startup")
	flags.Int("capacity", v.GetInt("relay.capacity"), "Relay capacity, the oldest frame is dropped when full")
	flags.String("pattern", v.GetString("detector.pattern"), "Pattern rows of 0 and 1 separated by '/'")
	flags.String("layout", v.GetString("topology.layout"), fmt.Sprintf("Topology layout %v", conf.Layouts))
	flags.Int("tail", v.GetInt("display.tail"), "Keep only the last N bytes of output and print them at exit")
	flags.Bool("telemetry", v.GetBool("telemetry.enabled"), "Serve Prometheus metrics while running")
	flags.String("listen", v.GetString("telemetry.listen"), "Listen address of the metrics endpoint")

	flags.Bool("no-color", false, "Disable colored output")
	flags.Bool("no-display", false, "Do not render frames")
	flags.Bool("snapshot", false, "Match against a snapshot of each frame instead of the live cells")

	for key, name := range valueFlags {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}

// applyNegations turns the boolean off-switches into explicit settings
func applyNegations(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.Flags()
	if on, _ := flags.GetBool("no-color"); on {
		v.Set("display.color", false)
	}
	if on, _ := flags.GetBool("no-display"); on {
		v.Set("display.enabled", false)
	}
	if on, _ := flags.GetBool("snapshot"); on {
		v.Set("detector.mode", "snapshot")
	}
}

// Execute runs the pipeline described by settings, rendering to out, until
// ctx is cancelled or the frame limit is reached.
func Execute(ctx context.Context, info *buildinfo.Context, settings *conf.Settings, out io.Writer) error {
	restore, err := setupLogging(settings)
	if err != nil {
		return err
	}
	defer restore()

	ctx = logger.WithRunID(ctx, info.GetRunID())
	log := logger.Global().Module("run").WithContext(ctx)
	log.Info("starting motiondetector",
		logger.String("version", info.GetVersion()),
		logger.String("build_date", info.GetBuildDate()))

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	mc, err := startTelemetry(ctx, settings, &wg)
	if err != nil {
		return err
	}

	g, err := topology.Build(settings,
		topology.WithOutput(out),
		topology.WithMetrics(mc),
		topology.WithLogger(logger.Global().Module("topology").WithContext(ctx)))
	if err != nil {
		return err
	}
	log.Debug("pipeline graph", logger.String("edges", g.Describe()))

	runErr := g.Run(ctx)
	drain(ctx, g, log)
	g.Close()

	if tail := g.Tail(); tail != nil {
		if _, err := io.WriteString(out, tail.String()); err != nil {
			return err
		}
	}

	if runErr != nil {
		return runErr
	}
	return g.Err()
}

// drain gives frames still queued in relays up to drainTimeout to render.
// A cancelled run does not wait; Close flushes whatever is left.
func drain(ctx context.Context, g *topology.Graph, log logger.Logger) {
	if ctx.Err() != nil {
		return
	}
	drainCtx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()
	if err := g.Drain(drainCtx); err != nil && ctx.Err() == nil {
		log.Warn("relay did not drain before shutdown", logger.Error(err))
	}
}

// startTelemetry serves /metrics when enabled and returns the collector the
// stages record to. Without telemetry the collector is a no-op.
func startTelemetry(ctx context.Context, settings *conf.Settings, wg *sync.WaitGroup) (*pipeline.MetricsCollector, error) {
	if !settings.Telemetry.Enabled {
		return pipeline.NewMetricsCollector(nil), nil
	}

	m, err := observability.NewMetrics()
	if err != nil {
		return nil, err
	}
	endpoint, err := observability.NewEndpoint(settings, m)
	if err != nil {
		return nil, err
	}
	if err := endpoint.Start(ctx, wg); err != nil {
		return nil, err
	}
	return pipeline.NewMetricsCollector(m.Pipeline), nil
}

// setupLogging installs a central logger built from settings and returns a
// func that closes it and puts the previous global logger back.
func setupLogging(settings *conf.Settings) (func(), error) {
	level := settings.Logging.Level
	if settings.Debug {
		level = string(logger.LogLevelDebug)
	}

	cfg := &logger.LoggingConfig{
		DefaultLevel: level,
		Timezone:     "Local",
		Console:      &logger.ConsoleOutput{Enabled: true, Level: level},
	}
	if settings.Logging.File != "" {
		cfg.FileOutput = &logger.FileOutput{Enabled: true, Path: settings.Logging.File, Level: level}
	}

	cl, err := logger.NewCentralLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	previous := logger.Global()
	logger.SetGlobal(cl)
	return func() {
		logger.SetGlobal(previous)
		if err := cl.Close(); err != nil {
			previous.Module("run").Warn("failed to close log file", logger.Error(err))
		}
	}, nil
}
