// Package flowlenia implements Flow Lenia, a mass-conserving variant of
// Lenia: growth drives a flow field along which mass is reintegrated.
package flowlenia

import (
	"gridsim/internal/core"
	"gridsim/internal/engine"
	"gridsim/internal/kernel"
	"gridsim/internal/sims/lenia"
)

// Name is the registry key of the variant.
const Name = "flowlenia"

// Source is the kernel source file.
const Source = "flow_lenia.wgsl"

// Entry points.
const (
	EntryInit          = "init"
	EntryComputeGrowth = "compute_growth"
	EntryApplyFlow     = "apply_flow"
)

// Shade returns the display color for a mass value, kept in the red channel.
func Shade(a float32) [4]float32 {
	return [4]float32{a, 0.6 * a, a * a, 1}
}

// Variant builds the Flow Lenia variant: color plus a growth field, with
// compute_growth followed by apply_flow every frame.
func Variant(cfg Config) *engine.Variant {
	ring := lenia.NewRing(cfg.Radius)
	mu, sigma := float32(cfg.Mu), float32(cfg.Sigma)
	seedRadius := float32(cfg.SeedRadius)
	fl := flow{dt: float32(cfg.DT), theta: float32(cfg.Theta), n: float32(cfg.N)}
	tile := [2]int{kernel.TileSize, kernel.TileSize}
	both := []kernel.Binding{
		kernel.RW(0, core.FormatRGBA8Unorm),
		kernel.RW(1, core.FormatR32Float),
	}

	initKernel := &kernel.Descriptor{
		Entry:    EntryInit,
		Source:   Source,
		Bindings: both,
		Tile:     tile,
		Body: func(b *kernel.Bindings, x, y int) {
			a := lenia.Seed(b.Size(), cfg.Seed, seedRadius, 1, x, y)
			b.Grid(0).SetRGBA(x, y, Shade(a))
			b.Grid(1).SetFloat(x, y, 0)
		},
	}
	computeGrowth := &kernel.Descriptor{
		Entry:    EntryComputeGrowth,
		Source:   Source,
		Bindings: both,
		Tile:     tile,
		Body: func(b *kernel.Bindings, x, y int) {
			u := ring.Potential(b.Grid(0), x, y)
			b.Grid(1).SetFloat(x, y, lenia.Growth(u, mu, sigma))
		},
	}
	applyFlow := &kernel.Descriptor{
		Entry:    EntryApplyFlow,
		Source:   Source,
		Bindings: both,
		Tile:     tile,
		Body: func(b *kernel.Bindings, x, y int) {
			color, growth := b.Grid(0), b.Grid(1)
			mass := func(x, y int) float32 { return color.RGBA(x, y)[0] }
			disp := func(x, y int) (float32, float32) { return fl.at(mass, growth.Float, x, y) }
			color.SetRGBA(x, y, Shade(lenia.Clamp01(transport(mass, disp, x, y))))
		},
	}

	return &engine.Variant{
		Name: Name,
		Buffers: []engine.Buffer{
			{Name: "color", Slot: 0, Format: core.FormatRGBA8Unorm},
			{Name: "growth", Slot: 1, Format: core.FormatR32Float},
		},
		Init:    initKernel,
		Kernels: []*kernel.Descriptor{computeGrowth, applyFlow},
		Steady: []engine.Step{
			{Entry: EntryComputeGrowth, Count: 1},
			{Entry: EntryApplyFlow, Count: 1},
		},
		Params: Parameters(cfg),
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
			},
		},
		{
			Name: "Flow",
			Params: []core.Parameter{
				core.FloatParam("dt", "Time step", cfg.DT),
				core.FloatParam("theta", "Crowding mass", cfg.Theta),
				core.FloatParam("n", "Crowding exponent", cfg.N),
			},
		},
		{
			Name: "Seed",
			Params: []core.Parameter{
				core.Int64Param("seed", "Seed", cfg.Seed),
				core.FloatParam("seed_radius", "Seed radius", cfg.SeedRadius),
			},
		},
	}}
}

func init() {
	engine.Register(Name, func(params map[string]string) *engine.Variant {
		return Variant(FromMap(params))
	})
}
