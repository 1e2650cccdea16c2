package ui

import (
	"image/color"
	"math"

	"gridsim/internal/core"
)

type vectorSample struct {
	cx, cy float64
	sx, sy float64
}

// sampleGrid spreads roughly targetSamples arrow anchors over a grid and
// reports the screen-space spacing between them.
func sampleGrid(size core.Size, scale int) ([]vectorSample, float64) {
	if size.W <= 0 || size.H <= 0 {
		return nil, 0
	}
	if scale <= 0 {
		scale = 1
	}

	const (
		targetSamples = 360.0
		minSpacing    = 6
		maxSpacing    = 20
	)

	area := float64(size.W * size.H)
	spacing := int(math.Sqrt(area / targetSamples))
	spacing = max(minSpacing, min(maxSpacing, spacing))

	countX := max(1, (size.W+spacing-1)/spacing)
	countY := max(1, (size.H+spacing-1)/spacing)
	startX := max(0, (size.W-1-(countX-1)*spacing)/2)
	startY := max(0, (size.H-1-(countY-1)*spacing)/2)

	samples := make([]vectorSample, 0, countX*countY)
	for yi := 0; yi < countY; yi++ {
		cellY := min(startY+yi*spacing, size.H-1)
		cy := float64(cellY) + 0.5
		for xi := 0; xi < countX; xi++ {
			cellX := min(startX+xi*spacing, size.W-1)
			cx := float64(cellX) + 0.5
			samples = append(samples, vectorSample{
				cx: cx, cy: cy,
				sx: cx * float64(scale), sy: cy * float64(scale),
			})
		}
	}
	return samples, float64(spacing) * float64(scale)
}

func interpolateColor(t float64) color.RGBA {
	t = clamp01(t)
	r := uint8(math.Round(80 + 70*t))
	g := uint8(math.Round(170 + 70*t))
	b := uint8(math.Round(230 + 20*t))
	a := uint8(math.Round(150 + 90*t))
	return color.RGBA{R: r, G: g, B: b, A: a}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
