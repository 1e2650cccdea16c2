package core

import (
	"sync"

	"github.com/chewxy/math32"
)

// Format enumerates the channel layouts a Grid can store.
type Format uint8

const (
	// FormatRGBA8Unorm stores four 8-bit normalized channels per cell.
	FormatRGBA8Unorm Format = iota + 1
	// FormatR32Float stores a single 32-bit float per cell.
	FormatR32Float
)

// String returns the conventional texture-format name.
func (f Format) String() string {
	switch f {
	case FormatRGBA8Unorm:
		return "rgba8unorm"
	case FormatR32Float:
		return "r32float"
	default:
		return "unknown"
	}
}

// Channels reports how many scalar channels a cell carries.
func (f Format) Channels() int {
	if f == FormatRGBA8Unorm {
		return 4
	}
	return 1
}

// Grid is a fixed-size 2D buffer of cells in a single channel format.
//
// Storage is double buffered. Kernel invocations read the front generation and
// write the back generation; Stage and Swap bracket a dispatch so every
// invocation observes the same snapshot.
type Grid struct {
	W, H   int
	Format Format
	Slot   int

	mu    sync.RWMutex
	front int
	u8    [2][]uint8
	f32   [2][]float32
}

// NewGrid allocates a zeroed grid. Dimensions must already be validated.
func NewGrid(w, h int, format Format, slot int) *Grid {
	g := &Grid{W: w, H: h, Format: format, Slot: slot}
	total := g.Size().Cells()
	switch format {
	case FormatRGBA8Unorm:
		g.u8[0] = make([]uint8, total*4)
		g.u8[1] = make([]uint8, total*4)
	default:
		g.f32[0] = make([]float32, total)
		g.f32[1] = make([]float32, total)
	}
	return g
}

// Size reports the grid dimensions.
func (g *Grid) Size() Size { return Size{W: g.W, H: g.H} }

// Index returns the linear cell index for coordinates (x, y).
func (g *Grid) Index(x, y int) int { return y*g.W + x }

// Wrap applies toroidal wrapping to the provided coordinates.
func (g *Grid) Wrap(x, y int) (int, int) {
	x = (x%g.W + g.W) % g.W
	y = (y%g.H + g.H) % g.H
	return x, y
}

// Float reads the front generation of a float grid at wrapped (x, y).
func (g *Grid) Float(x, y int) float32 {
	x, y = g.Wrap(x, y)
	return g.f32[g.front][y*g.W+x]
}

// SetFloat writes the back generation of a float grid at (x, y).
func (g *Grid) SetFloat(x, y int, v float32) {
	g.f32[1-g.front][y*g.W+x] = v
}

// RGBA reads the front generation at wrapped (x, y) as normalized channels.
func (g *Grid) RGBA(x, y int) [4]float32 {
	x, y = g.Wrap(x, y)
	base := (y*g.W + x) * 4
	px := g.u8[g.front][base : base+4 : base+4]
	return [4]float32{
		float32(px[0]) / 255,
		float32(px[1]) / 255,
		float32(px[2]) / 255,
		float32(px[3]) / 255,
	}
}

// SetRGBA quantizes normalized channels into the back generation at (x, y).
func (g *Grid) SetRGBA(x, y int, c [4]float32) {
	base := (y*g.W + x) * 4
	px := g.u8[1-g.front][base : base+4 : base+4]
	for i, v := range c {
		px[i] = unorm8(v)
	}
}

// Sample bilinearly interpolates a float grid at continuous coordinates,
// where integer coordinates address cell centers.
func (g *Grid) Sample(x, y float32) float32 {
	x0 := math32.Floor(x)
	y0 := math32.Floor(y)
	tx := x - x0
	ty := y - y0
	ix, iy := int(x0), int(y0)
	a := g.Float(ix, iy)
	b := g.Float(ix+1, iy)
	c := g.Float(ix, iy+1)
	d := g.Float(ix+1, iy+1)
	top := a + (b-a)*tx
	bottom := c + (d-c)*tx
	return top + (bottom-top)*ty
}

// SampleRGBA bilinearly interpolates an RGBA grid at continuous coordinates.
func (g *Grid) SampleRGBA(x, y float32) [4]float32 {
	x0 := math32.Floor(x)
	y0 := math32.Floor(y)
	tx := x - x0
	ty := y - y0
	ix, iy := int(x0), int(y0)
	a := g.RGBA(ix, iy)
	b := g.RGBA(ix+1, iy)
	c := g.RGBA(ix, iy+1)
	d := g.RGBA(ix+1, iy+1)
	var out [4]float32
	for i := range out {
		top := a[i] + (b[i]-a[i])*tx
		bottom := c[i] + (d[i]-c[i])*tx
		out[i] = top + (bottom-top)*ty
	}
	return out
}

// Stage copies the front generation into the back generation so cells a
// kernel does not write keep their value across the swap.
func (g *Grid) Stage() {
	back := 1 - g.front
	if g.Format == FormatRGBA8Unorm {
		copy(g.u8[back], g.u8[g.front])
		return
	}
	copy(g.f32[back], g.f32[g.front])
}

// Swap publishes the back generation as the new front.
func (g *Grid) Swap() {
	g.mu.Lock()
	g.front = 1 - g.front
	g.mu.Unlock()
}

// Checkpoint is a saved front generation of a grid.
type Checkpoint struct {
	g   *Grid
	u8  []uint8
	f32 []float32
}

// Checkpoint copies the front generation so it can be restored later.
func (g *Grid) Checkpoint() Checkpoint {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.Format == FormatRGBA8Unorm {
		return Checkpoint{g: g, u8: append([]uint8(nil), g.u8[g.front]...)}
	}
	return Checkpoint{g: g, f32: append([]float32(nil), g.f32[g.front]...)}
}

// Restore makes the saved generation the grid's front again.
func (c Checkpoint) Restore() {
	g := c.g
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Format == FormatRGBA8Unorm {
		copy(g.u8[g.front], c.u8)
		return
	}
	copy(g.f32[g.front], c.f32)
}

// Pixels returns a copy of the front generation of an RGBA grid.
func (g *Grid) Pixels() []uint8 {
	out := make([]uint8, len(g.u8[0]))
	g.Snapshot(out)
	return out
}

// Snapshot copies the front generation of an RGBA grid into dst and reports
// the number of bytes written.
func (g *Grid) Snapshot(dst []uint8) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return copy(dst, g.u8[g.front])
}

// Floats returns a copy of the front generation of a float grid.
func (g *Grid) Floats() []float32 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]float32(nil), g.f32[g.front]...)
}

// Fill sets every cell of the front generation. Float grids use c[0].
func (g *Grid) Fill(c [4]float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Format == FormatRGBA8Unorm {
		buf := g.u8[g.front]
		for i := 0; i < len(buf); i += 4 {
			for ch := 0; ch < 4; ch++ {
				buf[i+ch] = unorm8(c[ch])
			}
		}
		return
	}
	buf := g.f32[g.front]
	for i := range buf {
		buf[i] = c[0]
	}
}

// LoadFloats replaces the front generation of a float grid.
func (g *Grid) LoadFloats(src []float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	copy(g.f32[g.front], src)
}

// LoadPixels replaces the front generation of an RGBA grid.
func (g *Grid) LoadPixels(src []uint8) {
	g.mu.Lock()
	defer g.mu.Unlock()
	copy(g.u8[g.front], src)
}

func unorm8(v float32) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
