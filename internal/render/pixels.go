// Package render converts simulation grids into RGBA pixels for display.
package render

import (
	"image/color"

	"github.com/chewxy/math32"

	"gridsim/internal/core"
)

// heatPalette maps signed values from blue through black to orange.
var heatPalette = buildHeatPalette()

func buildHeatPalette() []color.RGBA {
	p := make([]color.RGBA, 256)
	for i := range p {
		t := float64(i)/127.5 - 1
		if t < 0 {
			a := -t
			p[i] = color.RGBA{R: uint8(40 * a), G: uint8(110 * a), B: uint8(255 * a), A: 255}
			continue
		}
		p[i] = color.RGBA{R: uint8(255 * t), G: uint8(150 * t), B: uint8(30 * t), A: 255}
	}
	return p
}

// Fill writes g into buf as RGBA pixels. Color grids are copied with alpha
// forced opaque; float grids become a heatmap scaled to their largest
// magnitude. buf must hold 4*W*H bytes.
func Fill(buf []byte, g *core.Grid) {
	if g.Format == core.FormatRGBA8Unorm {
		fillOpaqueRGBA(buf, g)
		return
	}
	values := g.Floats()
	fillHeatmapRGBA(buf, values, maxAbs(values))
}

func fillOpaqueRGBA(buf []byte, g *core.Grid) {
	g.Snapshot(buf)
	for i := 3; i < len(buf); i += 4 {
		buf[i] = 255
	}
}

// fillHeatmapRGBA quantizes values in [-scale, scale] onto the heat palette.
func fillHeatmapRGBA(buf []byte, values []float32, scale float32) {
	cells := make([]uint8, len(values))
	if scale > 0 {
		for i, v := range values {
			t := (v/scale + 1) * 127.5
			switch {
			case t <= 0:
				cells[i] = 0
			case t >= 255:
				cells[i] = 255
			default:
				cells[i] = uint8(t + 0.5)
			}
		}
	} else {
		for i := range cells {
			cells[i] = 128
		}
	}
	fillPaletteRGBA(buf, cells, heatPalette)
}

func maxAbs(values []float32) float32 {
	var m float32
	for _, v := range values {
		if a := math32.Abs(v); a > m {
			m = a
		}
	}
	return m
}

// fillPaletteRGBA converts cell values into RGBA pixels using a palette. When
// the palette is empty the buffer is cleared to transparent black.
func fillPaletteRGBA(buf []byte, cells []uint8, palette []color.RGBA) {
	if len(palette) == 0 {
		clear(buf[:len(cells)*4])
		return
	}

	last := len(palette) - 1
	for i, c := range cells {
		idx := int(c)
		if idx > last {
			idx = last
		}
		base := i * 4
		col := palette[idx]
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}
