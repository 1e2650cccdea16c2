package app

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridsim/internal/engine"
	_ "gridsim/internal/sims/fluid"
)

func parse(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	cfg := NewConfig()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfg.Bind(fs)
	require.NoError(t, fs.Parse(args))
	return cfg, cfg.Resolve(fs)
}

func TestDefaults(t *testing.T) {
	cfg, err := parse(t)
	require.NoError(t, err)
	assert.Equal(t, "lenia", cfg.Sim)
	assert.Equal(t, CompilerNaga, cfg.Compiler)
	assert.Nil(t, cfg.Params)
}

func TestSetCollectsParams(t *testing.T) {
	cfg, err := parse(t, "-set", "mu=0.2", "-set", "radius = 9")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"mu": "0.2", "radius": "9"}, cfg.Params)

	_, err = parse(t, "-set", "novalue")
	assert.Error(t, err)
}

func TestConfigFileWithFlagOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.toml")
	data := `
sim = "fluid"
width = 128
height = 64
tps = 30
compiler = "static"

[params]
pressure_iterations = "20"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := parse(t, "-config", path, "-width", "96", "-set", "seed=5")
	require.NoError(t, err)
	assert.Equal(t, "fluid", cfg.Sim)
	assert.Equal(t, 96, cfg.Width)
	assert.Equal(t, 64, cfg.Height)
	assert.Equal(t, 30, cfg.TPS)
	assert.Equal(t, CompilerStatic, cfg.Compiler)
	assert.Equal(t, "20", cfg.Params["pressure_iterations"])
	assert.Equal(t, "5", cfg.Params["seed"])
}

func TestConfigFileErrors(t *testing.T) {
	_, err := parse(t, "-config", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("width = ["), 0o644))
	_, err = parse(t, "-config", path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	_, err := parse(t, "-compiler", "llvm")
	assert.Error(t, err)
	_, err = parse(t, "-scale", "0")
	assert.Error(t, err)
}

func TestOpenRunsConfiguredVariant(t *testing.T) {
	cfg, err := parse(t, "-sim", "fluid", "-width", "16", "-height", "16",
		"-compiler", "static", "-set", "pressure_iterations=2")
	require.NoError(t, err)

	sim, err := cfg.Open(slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer sim.Close()
	ctx := context.Background()
	require.NoError(t, sim.WaitKernels(ctx))
	require.NoError(t, sim.AdvanceFrame(ctx))
	require.NoError(t, sim.AdvanceFrame(ctx))
	assert.Equal(t, engine.StateRunning, sim.State())
	assert.Equal(t, engine.Stats{Frames: 2, Dispatches: 1 + 3}, sim.Stats())
}

func TestOpenRejectsUnalignedGrid(t *testing.T) {
	cfg, err := parse(t, "-sim", "fluid", "-width", "65", "-compiler", "static")
	require.NoError(t, err)
	_, err = cfg.Open(slog.New(slog.DiscardHandler))
	assert.ErrorIs(t, err, engine.ErrConfiguration)
}
