//go:build !ebiten

package ui

import "gridsim/internal/engine"

// PanelWidth is zero in headless builds.
const PanelWidth = 0

// HUD is a no-op placeholder for headless builds.
type HUD struct{}

// NewHUD returns nil in the headless build.
func NewHUD(*engine.Simulation, int) *HUD { return nil }

// Update is a no-op in the headless build.
func (h *HUD) Update(int, error) {}

// Draw is a no-op in the headless build.
func (h *HUD) Draw(any, int, int) {}
