//go:build ebiten

package app

import (
	"context"
	"errors"
	"log/slog"

	"gridsim/internal/device"
	"gridsim/internal/engine"
	"gridsim/internal/render"
	"gridsim/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Game adapts an engine simulation to the ebiten.Game interface.
type Game struct {
	cfg *Config
	log *slog.Logger

	sim     *engine.Simulation
	painter *render.GridPainter
	hud     *ui.HUD
	overlay *ui.Overlay

	view     int
	paused   bool
	tickOnce bool
	lastErr  error
}

// New constructs a Game for the provided simulation.
func New(cfg *Config, sim *engine.Simulation, log *slog.Logger) *Game {
	size := sim.Size()
	return &Game{
		cfg:     cfg,
		log:     log,
		sim:     sim,
		painter: render.NewGridPainter(size.W, size.H),
		hud:     ui.NewHUD(sim, ui.PanelWidth),
		overlay: ui.NewOverlay(sim, cfg.Scale),
	}
}

// Reset replaces the simulation with a freshly created one.
func (g *Game) Reset() {
	sim, err := g.cfg.Open(g.log)
	if err != nil {
		g.lastErr = err
		return
	}
	g.sim.Close()
	g.sim = sim
	g.hud = ui.NewHUD(sim, ui.PanelWidth)
	g.overlay = ui.NewOverlay(sim, g.cfg.Scale)
	g.view = 0
	g.lastErr = nil
	g.tickOnce = false
}

// Close releases the simulation.
func (g *Game) Close() error { return g.sim.Close() }

// Update handles per-frame logic and advances the simulation.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.tickOnce = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyV) {
		g.view = (g.view + 1) % len(g.sim.Variant().Buffers)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.Reset()
	}
	g.overlay.Update()

	if !g.paused || g.tickOnce {
		g.tickOnce = false
		err := g.sim.AdvanceFrame(context.Background())
		switch {
		case err == nil:
			g.lastErr = nil
		case errors.Is(err, device.ErrBusy):
			// The background frame is still running.
		case errors.Is(err, engine.ErrDispatch):
			// The frame is retried on the next tick.
			g.lastErr = err
		default:
			g.lastErr = err
			g.paused = true
		}
	}
	g.hud.Update(g.view, g.lastErr)
	return nil
}

// Draw renders the current simulation state.
func (g *Game) Draw(screen *ebiten.Image) {
	g.painter.Blit(screen, g.sim.Grid(g.view), g.cfg.Scale)
	g.overlay.Draw(screen)
	size := g.sim.Size()
	g.hud.Draw(screen, size.W*g.cfg.Scale, g.cfg.Scale)
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := g.sim.Size()
	return s.W*g.cfg.Scale + ui.PanelWidth, s.H * g.cfg.Scale
}
