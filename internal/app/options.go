package app

import (
	"log/slog"
	"os"

	"gridsim/internal/device"
	"gridsim/internal/engine"
	"gridsim/internal/kernel"
)

// NewLogger returns a text logger on stderr, at debug level when verbose.
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Options translates the host settings into engine options.
func (c *Config) Options(log *slog.Logger) []engine.Option {
	opts := []engine.Option{
		engine.WithParams(c.Params),
		engine.WithLogger(log),
	}
	if c.Compiler == CompilerStatic {
		opts = append(opts, engine.WithCompiler(kernel.StaticCompiler{}))
	}
	if c.Kernels != "" {
		opts = append(opts, engine.WithSources(os.DirFS(c.Kernels)))
	}
	if c.Async {
		opts = append(opts, engine.WithOwnedBackend(device.NewCPU(device.WithAsync(true), device.WithLogger(log))))
	}
	return opts
}

// Open creates the configured simulation.
func (c *Config) Open(log *slog.Logger) (*engine.Simulation, error) {
	return engine.Create(c.Sim, c.Width, c.Height, c.Options(log)...)
}
