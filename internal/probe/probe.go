// Package probe computes summary statistics over simulation grids.
package probe

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"gridsim/internal/core"
	"gridsim/internal/engine"
)

// Values returns the front generation of g as float64: the float field, or
// the normalized red channel of an RGBA grid.
func Values(g *core.Grid) []float64 {
	if g.Format == core.FormatRGBA8Unorm {
		px := g.Pixels()
		out := make([]float64, len(px)/4)
		for i := range out {
			out[i] = float64(px[i*4]) / 255
		}
		return out
	}
	f := g.Floats()
	out := make([]float64, len(f))
	for i, v := range f {
		out[i] = float64(v)
	}
	return out
}

// Mass sums the values of g.
func Mass(g *core.Grid) float64 {
	return floats.Sum(Values(g))
}

// Range reports the minimum and maximum value of g.
func Range(g *core.Grid) (lo, hi float64) {
	v := Values(g)
	return floats.Min(v), floats.Max(v)
}

// Residual summarizes how far a velocity field is from divergence free.
type Residual struct {
	Max float64
	RMS float64
}

// Divergence computes the central-difference divergence of (vx, vy) with
// wrapped edges.
func Divergence(vx, vy *core.Grid) Residual {
	w, h := vx.W, vx.H
	xs, ys := Values(vx), Values(vy)
	div := make([]float64, w*h)
	at := func(v []float64, x, y int) float64 {
		x = (x%w + w) % w
		y = (y%h + h) % h
		return v[y*w+x]
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			div[y*w+x] = 0.5 * ((at(xs, x+1, y) - at(xs, x-1, y)) + (at(ys, x, y+1) - at(ys, x, y-1)))
		}
	}
	return Residual{
		Max: floats.Norm(div, math.Inf(1)),
		RMS: floats.Norm(div, 2) / math.Sqrt(float64(len(div))),
	}
}

// Summary is a snapshot of a simulation's progress and fields.
type Summary struct {
	Variant    string
	State      engine.State
	Frames     uint64
	Dispatches uint64
	Mass       float64
	Min, Max   float64
	Divergence *Residual
}

// Summarize reports the state of sim. Mass and range are taken over the
// display grid; divergence is included when the variant has velocity fields.
func Summarize(sim *engine.Simulation) Summary {
	st := sim.Stats()
	display := sim.Grid(engine.DisplaySlot)
	s := Summary{
		Variant:    sim.Variant().Name,
		State:      sim.State(),
		Frames:     st.Frames,
		Dispatches: st.Dispatches,
		Mass:       Mass(display),
	}
	s.Min, s.Max = Range(display)
	vx, okx := sim.Field("velocity_x")
	vy, oky := sim.Field("velocity_y")
	if okx && oky {
		r := Divergence(vx, vy)
		s.Divergence = &r
	}
	return s
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: state=%s frames=%d dispatches=%d mass=%.3f range=[%.3f, %.3f]",
		s.Variant, s.State, s.Frames, s.Dispatches, s.Mass, s.Min, s.Max)
	if s.Divergence != nil {
		fmt.Fprintf(&b, " div_max=%.4g div_rms=%.4g", s.Divergence.Max, s.Divergence.RMS)
	}
	return b.String()
}
