//go:build ebiten

package ui

import (
	"image/color"

	"gridsim/internal/engine"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

// PanelWidth is the width in pixels of the HUD panel.
const PanelWidth = 240

// HUD renders the status and parameter panel to the right of the view.
type HUD struct {
	sim        *engine.Simulation
	width      int
	panel      *ebiten.Image
	lastHeight int

	status []string
	params []string
}

// NewHUD constructs a HUD for the provided simulation and panel width.
func NewHUD(sim *engine.Simulation, width int) *HUD {
	if width < 0 {
		width = 0
	}
	return &HUD{sim: sim, width: width, params: ParamLines(sim.Variant().Params)}
}

// Update refreshes the status text.
func (h *HUD) Update(view int, lastErr error) {
	if h == nil {
		return
	}
	h.status = h.status[:0]
	for _, line := range StatusLines(h.sim, view, lastErr) {
		h.status = append(h.status, wrap(line, maxColumns)...)
	}
}

// Draw paints the HUD panel anchored to the right edge of the simulation view.
func (h *HUD) Draw(screen *ebiten.Image, offsetX int, scale int) {
	if h == nil || h.width <= 0 {
		return
	}
	if scale <= 0 {
		scale = 1
	}
	height := h.sim.Size().H * scale
	if height <= 0 {
		return
	}
	if h.panel == nil || h.panel.Bounds().Dx() != h.width || h.lastHeight != height {
		h.panel = ebiten.NewImage(h.width, height)
		h.lastHeight = height
	}
	h.panel.Fill(color.RGBA{R: 16, G: 16, B: 20, A: 255})

	face := basicfont.Face7x13
	y := panelPadding + headerBaseline
	for i, line := range h.status {
		col := color.RGBA{R: 220, G: 220, B: 230, A: 255}
		if i == 0 {
			col = color.RGBA{R: 200, G: 200, B: 210, A: 255}
		}
		text.Draw(h.panel, line, face, panelPadding, y, col)
		y += lineHeight
	}
	y += lineHeight
	for _, line := range h.params {
		if y > height-panelPadding {
			break
		}
		text.Draw(h.panel, line, face, panelPadding, y, color.RGBA{R: 160, G: 160, B: 170, A: 255})
		y += lineHeight
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(offsetX), 0)
	screen.DrawImage(h.panel, op)
}

const (
	panelPadding   = 12
	lineHeight     = 16
	headerBaseline = 18
	maxColumns     = (PanelWidth - 2*panelPadding) / 7
)
