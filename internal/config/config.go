// Package config loads the simulation's configuration record with viper,
// from a YAML file and environment variables. CLI flags are not read here;
// cmd/agentgrid builds a Config from its flags when no file is given.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"agentgrid/internal/gridtypes"
)

// Config is the on-disk/CLI-bindable form of gridtypes.Config, plus the
// driver-level knobs (process count, GUI toggle) that are not part of the
// simulation core itself.
type Config struct {
	GlobalW      int `mapstructure:"global_w"`
	GlobalH      int `mapstructure:"global_h"`
	TotalCycles  int `mapstructure:"total_cycles"`
	SeasonLength int `mapstructure:"season_length"`
	NumAgents    int `mapstructure:"num_agents"`
	MaxWorkload  int `mapstructure:"max_workload"`

	EnergyGain    float64 `mapstructure:"energy_gain"`
	EnergyLoss    float64 `mapstructure:"energy_loss"`
	InitialEnergy float64 `mapstructure:"initial_energy"`

	Seed uint64 `mapstructure:"seed"`

	Processes int `mapstructure:"processes"`
	Threads   int `mapstructure:"threads"`

	ReproduceThreshold *float64 `mapstructure:"reproduce_threshold"`
	ReproduceCost      *float64 `mapstructure:"reproduce_cost"`

	GUI bool `mapstructure:"gui"`
}

// Load reads configuration from configPath (if non-empty) and environment
// variables prefixed AGENTGRID_, falling back to the defaults below.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix("AGENTGRID")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("global_w", 64)
	v.SetDefault("global_h", 64)
	v.SetDefault("total_cycles", 100)
	v.SetDefault("season_length", 20)
	v.SetDefault("num_agents", 200)
	v.SetDefault("max_workload", 0)
	v.SetDefault("energy_gain", 0.3)
	v.SetDefault("energy_loss", 0.4)
	v.SetDefault("initial_energy", 0.8)
	v.SetDefault("seed", uint64(42))
	v.SetDefault("processes", 1)
	v.SetDefault("threads", 1)
	v.SetDefault("gui", false)
}

// Validate rejects configurations the engine cannot run: zero-sized worlds,
// zero process or thread counts, and half-specified reproduction.
func (c *Config) Validate() error {
	if c.GlobalW <= 0 || c.GlobalH <= 0 {
		return fmt.Errorf("global_w/global_h must be > 0, got %dx%d", c.GlobalW, c.GlobalH)
	}
	if c.Processes <= 0 {
		return fmt.Errorf("processes must be > 0, got %d", c.Processes)
	}
	if c.Threads <= 0 {
		return fmt.Errorf("threads must be > 0, got %d", c.Threads)
	}
	if c.SeasonLength <= 0 {
		return fmt.Errorf("season_length must be > 0, got %d", c.SeasonLength)
	}
	if c.NumAgents < 0 {
		return fmt.Errorf("num_agents must be >= 0, got %d", c.NumAgents)
	}
	if c.MaxWorkload < 0 {
		return fmt.Errorf("max_workload must be >= 0, got %d", c.MaxWorkload)
	}
	if (c.ReproduceThreshold == nil) != (c.ReproduceCost == nil) {
		return fmt.Errorf("reproduce_threshold and reproduce_cost must be supplied together")
	}
	return nil
}

// Core extracts the gridtypes.Config the simulation engine consumes,
// leaving out the driver-only fields (Processes, GUI).
func (c *Config) Core() gridtypes.Config {
	return gridtypes.Config{
		GlobalW:            c.GlobalW,
		GlobalH:            c.GlobalH,
		TotalCycles:        c.TotalCycles,
		SeasonLength:       c.SeasonLength,
		NumAgents:          c.NumAgents,
		MaxWorkload:        c.MaxWorkload,
		EnergyGain:         c.EnergyGain,
		EnergyLoss:         c.EnergyLoss,
		InitialEnergy:      c.InitialEnergy,
		Seed:               c.Seed,
		Threads:            c.Threads,
		ReproduceThreshold: c.ReproduceThreshold,
		ReproduceCost:      c.ReproduceCost,
	}
}
