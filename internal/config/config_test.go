package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 64, cfg.GlobalW)
	require.Equal(t, 64, cfg.GlobalH)
	require.Equal(t, 1, cfg.Processes)
	require.Equal(t, 1, cfg.Threads)
	require.Nil(t, cfg.ReproduceThreshold)
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentgrid.yaml")
	content := []byte("global_w: 32\nglobal_h: 16\nnum_agents: 10\nreproduce_threshold: 0.9\nreproduce_cost: 0.4\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 32, cfg.GlobalW)
	require.Equal(t, 16, cfg.GlobalH)
	require.Equal(t, 10, cfg.NumAgents)
	require.NotNil(t, cfg.ReproduceThreshold)
	require.Equal(t, 0.9, *cfg.ReproduceThreshold)
}

func TestValidateRejectsInvalidShape(t *testing.T) {
	cfg := &Config{GlobalW: 0, GlobalH: 10, Processes: 1, Threads: 1, SeasonLength: 1}
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsLopsidedReproductionConfig(t *testing.T) {
	threshold := 0.5
	cfg := &Config{GlobalW: 1, GlobalH: 1, Processes: 1, Threads: 1, SeasonLength: 1, ReproduceThreshold: &threshold}
	require.Error(t, cfg.Validate())
}

func TestCoreMapsFieldsVerbatim(t *testing.T) {
	cost := 0.1
	threshold := 0.9
	cfg := &Config{
		GlobalW: 10, GlobalH: 5, TotalCycles: 3, SeasonLength: 2, NumAgents: 7,
		MaxWorkload: 4, EnergyGain: 0.1, EnergyLoss: 0.2, InitialEnergy: 0.3,
		Seed: 9, Threads: 2, ReproduceThreshold: &threshold, ReproduceCost: &cost,
	}
	core := cfg.Core()
	require.Equal(t, cfg.GlobalW, core.GlobalW)
	require.Equal(t, cfg.Threads, core.Threads)
	require.True(t, core.ReproductionEnabled())
}
