//go:build ebiten

package main

import (
	"errors"
	"flag"
	"log"

	"gridsim/internal/app"
	"gridsim/internal/engine"
	"gridsim/internal/ui"

	_ "gridsim/internal/sims/flowlenia"
	_ "gridsim/internal/sims/fluid"
	_ "gridsim/internal/sims/lenia"
	_ "gridsim/internal/sims/life"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	flag.Parse()
	if err := cfg.Resolve(flag.CommandLine); err != nil {
		log.Fatal(err)
	}

	logger := app.NewLogger(cfg.Verbose)
	engine.SetLogger(logger)

	sim, err := cfg.Open(logger)
	if err != nil {
		log.Fatal(err)
	}
	game := app.New(cfg, sim, logger)
	defer game.Close()

	size := sim.Size()
	ebiten.SetWindowTitle("gridsim - " + sim.Variant().Name)
	ebiten.SetTPS(cfg.TPS)
	ebiten.SetWindowSize(size.W*cfg.Scale+ui.PanelWidth, size.H*cfg.Scale)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
