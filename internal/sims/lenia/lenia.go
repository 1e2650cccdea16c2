// Package lenia implements the Lenia continuous cellular automaton: a ring
// convolution of the state feeds a bell-shaped growth function.
package lenia

import (
	"gridsim/internal/core"
	"gridsim/internal/engine"
	"gridsim/internal/kernel"
)

// Name is the registry key of the variant.
const Name = "lenia"

// Source is the kernel source file.
const Source = "lenia.wgsl"

// Entry points.
const (
	EntryInit   = "init"
	EntryUpdate = "update"
)

// Variant builds the Lenia variant: one color grid, an init kernel and a
// single update kernel per frame.
func Variant(cfg Config) *engine.Variant {
	ring := NewRing(cfg.Radius)
	mu, sigma, dt := float32(cfg.Mu), float32(cfg.Sigma), float32(cfg.DT)
	seedRadius, density := float32(cfg.SeedRadius), float32(cfg.Density)
	bindings := []kernel.Binding{kernel.RW(0, core.FormatRGBA8Unorm)}

	initKernel := &kernel.Descriptor{
		Entry:    EntryInit,
		Source:   Source,
		Bindings: bindings,
		Tile:     [2]int{kernel.TileSize, kernel.TileSize},
		Body: func(b *kernel.Bindings, x, y int) {
			a := Seed(b.Size(), cfg.Seed, seedRadius, density, x, y)
			b.Grid(0).SetRGBA(x, y, Shade(a))
		},
	}
	update := &kernel.Descriptor{
		Entry:    EntryUpdate,
		Source:   Source,
		Bindings: bindings,
		Tile:     [2]int{kernel.TileSize, kernel.TileSize},
		Body: func(b *kernel.Bindings, x, y int) {
			g := b.Grid(0)
			a := g.RGBA(x, y)[0]
			u := ring.Potential(g, x, y)
			g.SetRGBA(x, y, Shade(Clamp01(a+dt*Growth(u, mu, sigma))))
		},
	}

	return &engine.Variant{
		Name:    Name,
		Buffers: []engine.Buffer{{Name: "color", Slot: 0, Format: core.FormatRGBA8Unorm}},
		Init:    initKernel,
		Kernels: []*kernel.Descriptor{update},
		Steady:  []engine.Step{{Entry: EntryUpdate, Count: 1}},
		Params:  Parameters(cfg),
	}
}

// Parameters describes cfg for display.
func Parameters(cfg Config) core.ParameterSnapshot {
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{
			Name: "Kernel",
			Params: []core.Parameter{
				core.IntParam("radius", "Radius", cfg.Radius),
				core.FloatParam("mu", "Growth center", cfg.Mu),
				core.FloatParam("sigma", "Growth width", cfg.Sigma),
				core.FloatParam("dt", "Time step", cfg.DT),
			},
		},
		{
			Name: "Seed",
			Params: []core.Parameter{
				core.Int64Param("seed", "Seed", cfg.Seed),
				core.FloatParam("seed_radius", "Seed radius", cfg.SeedRadius),
				core.FloatParam("density", "Density", cfg.Density),
			},
		},
	}}
}

func init() {
	engine.Register(Name, func(params map[string]string) *engine.Variant {
		return Variant(FromMap(params))
	})
}
