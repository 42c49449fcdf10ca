package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"agentgrid/internal/comm"
	"agentgrid/internal/config"
	"agentgrid/internal/engine"
	"agentgrid/internal/logging"
	"agentgrid/internal/render"
)

var configPath string
var debug bool

var rootCmd = &cobra.Command{
	Use:   "agentgrid",
	Short: "Distributed, hybrid-parallel agent-based grid simulator",
	Long: `agentgrid runs a distributed agent-based simulation over a 2-D spatial
grid. Each rank owns a Cartesian slice of the world, exchanging halos and
migrating agents every cycle; the core never touches configuration,
logging, or rendering, all of which live in this command.`,
	RunE: runSimulate,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to a YAML configuration file")
	flags.BoolVar(&debug, "debug", false, "enable development-mode (console) logging")

	flags.Int("global-w", 64, "global grid width")
	flags.Int("global-h", 64, "global grid height")
	flags.Int("cycles", 100, "number of cycles to run")
	flags.Int("season-length", 20, "cycles per season")
	flags.Int("agents", 200, "initial agent count")
	flags.Int("max-workload", 0, "synthetic workload scale (0 disables it)")
	flags.Float64("energy-gain", 0.3, "most resource an agent consumes, and energy it gains, per feeding")
	flags.Float64("energy-loss", 0.4, "energy lost per cycle an agent doesn't feed")
	flags.Float64("initial-energy", 0.8, "energy an agent starts with")
	flags.Uint64("seed", 42, "base RNG seed")
	flags.Int("processes", 1, "number of simulated ranks")
	flags.Int("threads", 1, "worker goroutines per rank")
	flags.Bool("gui", false, "show an ebiten window instead of printing summary lines")
	flags.Float64("reproduce-threshold", 0, "energy threshold enabling reproduction (with --reproduce-cost)")
	flags.Float64("reproduce-cost", 0, "energy cost of reproducing (with --reproduce-threshold)")
	flags.Bool("reproduce", false, "enable the optional reproduction phase")

	viper.BindPFlags(flags)
}

// Execute is the entry point cobra's generated docs/tests call; main calls
// rootCmd.Execute directly, this wrapper exists for symmetry with the
// reference CLI's Execute().
func Execute() error {
	return rootCmd.Execute()
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return fmt.Errorf("build config: %w", err)
	}

	logger := logging.New(0, debug)
	defer logger.Sync()

	core := cfg.Core()
	logger.Info("starting simulation",
		zap.Int("global_w", core.GlobalW), zap.Int("global_h", core.GlobalH),
		zap.Int("processes", cfg.Processes), zap.Int("threads", core.Threads),
		zap.Int("total_cycles", core.TotalCycles), zap.Uint64("seed", core.Seed))

	var collector render.FrameCollector
	var runGUI func() error
	if cfg.GUI {
		ec := render.NewEbitenCollector(
			fmt.Sprintf("agentgrid | %dx%d | processes=%d threads=%d", core.GlobalW, core.GlobalH, cfg.Processes, core.Threads),
			core.GlobalW, core.GlobalH,
		)
		collector = ec
		runGUI = ec.Run
	} else {
		collector = render.NewTextCollector(os.Stdout)
	}
	defer collector.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Warn("received interrupt, requesting shutdown at next cycle boundary")
		cancel()
	}()
	defer signal.Stop(sigCh)

	world := comm.NewWorld(cfg.Processes)

	if runGUI != nil {
		errCh := make(chan error, 1)
		go func() {
			_, runErr := engine.Run(ctx, world, core, logger, collector)
			errCh <- runErr
		}()
		if err := runGUI(); err != nil {
			return fmt.Errorf("gui: %w", err)
		}
		return <-errCh
	}

	perfs, err := engine.Run(ctx, world, core, logger, collector)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	logger.Info("simulation finished", zap.Int("cycles_completed", len(perfs)))
	return nil
}

func buildConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}

	var threshold, cost *float64
	if viper.GetBool("reproduce") {
		t := viper.GetFloat64("reproduce-threshold")
		c := viper.GetFloat64("reproduce-cost")
		threshold, cost = &t, &c
	}

	cfg := &config.Config{
		GlobalW:            viper.GetInt("global-w"),
		GlobalH:            viper.GetInt("global-h"),
		TotalCycles:        viper.GetInt("cycles"),
		SeasonLength:       viper.GetInt("season-length"),
		NumAgents:          viper.GetInt("agents"),
		MaxWorkload:        viper.GetInt("max-workload"),
		EnergyGain:         viper.GetFloat64("energy-gain"),
		EnergyLoss:         viper.GetFloat64("energy-loss"),
		InitialEnergy:      viper.GetFloat64("initial-energy"),
		Seed:               viper.GetUint64("seed"),
		Processes:          viper.GetInt("processes"),
		Threads:            viper.GetInt("threads"),
		GUI:                viper.GetBool("gui"),
		ReproduceThreshold: threshold,
		ReproduceCost:      cost,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
