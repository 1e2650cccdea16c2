package lenia

import (
	"github.com/chewxy/math32"

	"gridsim/internal/core"
	rng "gridsim/pkg/core"
)

type tap struct {
	dx, dy int
	w      float32
}

// Ring is a normalized smooth ring convolution kernel.
type Ring struct {
	Radius int
	taps   []tap
}

// NewRing builds the kernel w(r) = exp(4 - 1/(r(1-r))) over the open disk of
// the given radius, normalized so the weights sum to 1.
func NewRing(radius int) Ring {
	ring := Ring{Radius: radius}
	var total float32
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r := math32.Hypot(float32(dx), float32(dy)) / float32(radius)
			if r <= 0 || r >= 1 {
				continue
			}
			w := math32.Exp(4 - 1/(r*(1-r)))
			if w == 0 {
				continue
			}
			ring.taps = append(ring.taps, tap{dx: dx, dy: dy, w: w})
			total += w
		}
	}
	for i := range ring.taps {
		ring.taps[i].w /= total
	}
	return ring
}

// Weight returns the total kernel weight.
func (r Ring) Weight() float32 {
	var sum float32
	for _, t := range r.taps {
		sum += t.w
	}
	return sum
}

// Potential convolves the red channel of an RGBA grid around (x, y).
func (r Ring) Potential(g *core.Grid, x, y int) float32 {
	var u float32
	for _, t := range r.taps {
		u += t.w * g.RGBA(x+t.dx, y+t.dy)[0]
	}
	return u
}

// Growth maps a potential to a growth rate in [-1, 1], peaking at mu.
func Growth(u, mu, sigma float32) float32 {
	d := u - mu
	return 2*math32.Exp(-(d*d)/(2*sigma*sigma)) - 1
}

// Shade returns the display color for a state value in [0, 1]. The state is
// kept in the red channel.
func Shade(a float32) [4]float32 {
	return [4]float32{a, a * a, 0.5 * a, 1}
}

// Seed returns the initial state at (x, y): noise scaled by density inside a
// centered disk covering seedRadius of the shorter half-extent, zero outside.
func Seed(size core.Size, seed int64, seedRadius, density float32, x, y int) float32 {
	cx := float32(size.W) / 2
	cy := float32(size.H) / 2
	limit := seedRadius * math32.Min(cx, cy)
	if math32.Hypot(float32(x)-cx, float32(y)-cy) >= limit {
		return 0
	}
	return rng.CellNoise(seed, x, y) * density
}

// Clamp01 restricts v to [0, 1].
func Clamp01(v float32) float32 {
	return math32.Max(0, math32.Min(1, v))
}
