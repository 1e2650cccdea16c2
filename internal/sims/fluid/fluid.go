// Package fluid implements a stable-fluids style solver: semi-Lagrangian
// advection of velocity and dye, projected with a pressure field relaxed by
// many Jacobi passes per frame.
package fluid

import (
	"gridsim/internal/core"
	"gridsim/internal/engine"
	"gridsim/internal/kernel"
)

// Name is the registry key of the variant.
const Name = "fluid"

// Source is the kernel source file.
const Source = "fluid.wgsl"

// Entry points.
const (
	EntryInit           = "init"
	EntryUpdate         = "update"
	EntryUpdatePressure = "update_pressure"
)

// Buffer slots.
const (
	SlotColor = iota
	SlotVelocityX
	SlotVelocityY
	SlotPressure
)

// Variant builds the fluid variant. Every frame runs update once followed by
// cfg.PressureIterations pressure passes.
func Variant(cfg Config) *engine.Variant {
	speed := float32(cfg.Speed)
	adv := advection{dt: float32(cfg.DT), dissipation: float32(cfg.Dissipation)}
	tile := [2]int{kernel.TileSize, kernel.TileSize}
	all := []kernel.Binding{
		kernel.RW(SlotColor, core.FormatRGBA8Unorm),
		kernel.RW(SlotVelocityX, core.FormatR32Float),
		kernel.RW(SlotVelocityY, core.FormatR32Float),
		kernel.RW(SlotPressure, core.FormatR32Float),
	}

	initKernel := &kernel.Descriptor{
		Entry:    EntryInit,
		Source:   Source,
		Bindings: all,
		Tile:     tile,
		Body: func(b *kernel.Bindings, x, y int) {
			vx, vy, dye := shear(b.Size(), speed, cfg.Seed, x, y)
			b.Grid(SlotColor).SetRGBA(x, y, dye)
			b.Grid(SlotVelocityX).SetFloat(x, y, vx)
			b.Grid(SlotVelocityY).SetFloat(x, y, vy)
			b.Grid(SlotPressure).SetFloat(x, y, 0)
		},
	}
	update := &kernel.Descriptor{
		Entry:    EntryUpdate,
		Source:   Source,
		Bindings: all,
		Tile:     tile,
		Body: func(b *kernel.Bindings, x, y int) {
			color, vx, vy := b.Grid(SlotColor), b.Grid(SlotVelocityX), b.Grid(SlotVelocityY)
			nx, ny, dye := adv.step(color, vx, vy, b.Grid(SlotPressure), x, y)
			vx.SetFloat(x, y, nx)
			vy.SetFloat(x, y, ny)
			color.SetRGBA(x, y, dye)
		},
	}
	updatePressure := &kernel.Descriptor{
		Entry:  EntryUpdatePressure,
		Source: Source,
		Bindings: []kernel.Binding{
			kernel.RW(SlotVelocityX, core.FormatR32Float),
			kernel.RW(SlotVelocityY, core.FormatR32Float),
			kernel.RW(SlotPressure, core.FormatR32Float),
		},
		Tile: tile,
		Body: func(b *kernel.Bindings, x, y int) {
			p := b.Grid(SlotPressure)
			p.SetFloat(x, y, jacobi(p, b.Grid(SlotVelocityX), b.Grid(SlotVelocityY), x, y))
		},
	}

	return &engine.Variant{
		Name: Name,
		Buffers: []engine.Buffer{
			{Name: "color", Slot: SlotColor, Format: core.FormatRGBA8Unorm},
			{Name: "velocity_x", Slot: SlotVelocityX, Format: core.FormatR32Float},
			{Name: "velocity_y", Slot: SlotVelocityY, Format: core.FormatR32Float},
			{Name: "pressure", Slot: SlotPressure, Format: core.FormatR32Float},
		},
		Init:    initKernel,
		Kernels: []*kernel.Descriptor{update, updatePressure},
		Steady: []engine.Step{
			{Entry: EntryUpdate, Count: 1},
			{Entry: EntryUpdatePressure, Count: cfg.PressureIterations},
		},
		Params: Parameters(cfg),
	}
}

// Parameters describes cfg for display.
func Parameters(cfg Config) core.ParameterSnapshot {
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{
			Name: "Solver",
			Params: []core.Parameter{
				core.FloatParam("dt", "Time step", cfg.DT),
				core.FloatParam("dissipation", "Dissipation", cfg.Dissipation),
				core.IntParam("pressure_iterations", "Pressure iterations", cfg.PressureIterations),
			},
		},
		{
			Name: "Shear layer",
			Params: []core.Parameter{
				core.FloatParam("speed", "Speed", cfg.Speed),
				core.Int64Param("seed", "Seed", cfg.Seed),
			},
		},
	}}
}

func init() {
	engine.Register(Name, func(params map[string]string) *engine.Variant {
		return Variant(FromMap(params))
	})
}
