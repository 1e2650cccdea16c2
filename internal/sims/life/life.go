// Package life implements Conway's Game of Life with toroidal wrapping on
// the kernel engine. A cell is alive when its red channel is set.
package life

import (
	"gridsim/internal/core"
	"gridsim/internal/engine"
	"gridsim/internal/kernel"
	rng "gridsim/pkg/core"
)

// Name is the registry key of the variant.
const Name = "life"

// Source is the kernel source file.
const Source = "life.wgsl"

// Entry points.
const (
	EntryInit   = "init"
	EntryUpdate = "update"
)

var (
	alive = [4]float32{1, 1, 1, 1}
	dead  = [4]float32{0, 0, 0, 1}
)

// Alive reports whether the cell at wrapped (x, y) is alive.
func Alive(g *core.Grid, x, y int) bool { return g.RGBA(x, y)[0] > 0.5 }

// Neighbors counts the live cells among the eight neighbours of (x, y).
func Neighbors(g *core.Grid, x, y int) int {
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if Alive(g, x+dx, y+dy) {
				n++
			}
		}
	}
	return n
}

// Next applies the B3/S23 rule.
func Next(isAlive bool, neighbors int) bool {
	return (isAlive && (neighbors == 2 || neighbors == 3)) || (!isAlive && neighbors == 3)
}

// Shade returns the color of a live or dead cell.
func Shade(isAlive bool) [4]float32 {
	if isAlive {
		return alive
	}
	return dead
}

// Variant builds the Life variant: one color grid, a random soup and one
// generation per frame.
func Variant(cfg Config) *engine.Variant {
	density := float32(cfg.Density)
	bindings := []kernel.Binding{kernel.RW(0, core.FormatRGBA8Unorm)}

	initKernel := &kernel.Descriptor{
		Entry:    EntryInit,
		Source:   Source,
		Bindings: bindings,
		Tile:     [2]int{kernel.TileSize, kernel.TileSize},
		Body: func(b *kernel.Bindings, x, y int) {
			b.Grid(0).SetRGBA(x, y, Shade(rng.CellNoise(cfg.Seed, x, y) < density))
		},
	}
	update := &kernel.Descriptor{
		Entry:    EntryUpdate,
		Source:   Source,
		Bindings: bindings,
		Tile:     [2]int{kernel.TileSize, kernel.TileSize},
		Body: func(b *kernel.Bindings, x, y int) {
			g := b.Grid(0)
			g.SetRGBA(x, y, Shade(Next(Alive(g, x, y), Neighbors(g, x, y))))
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
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{{
		Name: "Soup",
		Params: []core.Parameter{
			core.FloatParam("density", "Density", cfg.Density),
			core.Int64Param("seed", "Seed", cfg.Seed),
		},
	}}}
}

func init() {
	engine.Register(Name, func(params map[string]string) *engine.Variant {
		return Variant(FromMap(params))
	})
}
