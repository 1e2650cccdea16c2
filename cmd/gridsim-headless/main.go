package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"
	"os/signal"
	"runtime"
	"time"

	"gridsim/internal/app"
	"gridsim/internal/core"
	"gridsim/internal/device"
	"gridsim/internal/engine"
	"gridsim/internal/probe"
	"gridsim/internal/render"

	_ "gridsim/internal/sims/flowlenia"
	_ "gridsim/internal/sims/fluid"
	_ "gridsim/internal/sims/lenia"
	_ "gridsim/internal/sims/life"
)

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	frames := flag.Int("frames", 120, "frames to advance")
	out := flag.String("out", "", "write the final display buffer to this PNG file")
	realtime := flag.Bool("realtime", false, "pace frames at -tps instead of running flat out")
	wait := flag.Bool("wait", false, "wait for kernel compilation before the first frame")
	list := flag.Bool("list", false, "list registered variants and exit")
	flag.Parse()

	if *list {
		for _, name := range engine.Variants() {
			fmt.Println(name)
		}
		return
	}
	if err := cfg.Resolve(flag.CommandLine); err != nil {
		log.Fatal(err)
	}

	logger := app.NewLogger(cfg.Verbose)
	engine.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sim, err := cfg.Open(logger)
	if err != nil {
		log.Fatal(err)
	}
	defer sim.Close()

	if *wait {
		if err := sim.WaitKernels(ctx); err != nil {
			log.Fatal(err)
		}
	}

	var pace *core.FixedStep
	if *realtime {
		pace = core.NewFixedStep(cfg.TPS)
	}

	start := time.Now()
	logger.Info("running", "sim", cfg.Sim, "width", cfg.Width, "height", cfg.Height, "frames", *frames)
	for i := 0; i < *frames && ctx.Err() == nil; {
		if pace != nil {
			pace.Wait()
		}
		err := sim.AdvanceFrame(ctx)
		if errors.Is(err, device.ErrBusy) {
			runtime.Gosched()
			continue
		}
		i++
		if err != nil {
			logger.Error("frame failed", "frame", i, "err", err)
			if sim.State() == engine.StateFailed {
				break
			}
		}
	}
	if err := sim.Flush(ctx); err != nil {
		logger.Error("last frame failed", "err", err)
	}

	if st := sim.Status(); st.Err != nil {
		logger.Error("simulation failed", "err", st.Err)
	}
	fmt.Println(probe.Summarize(sim))
	logger.Info("done", "elapsed", time.Since(start).Round(time.Millisecond))

	if *out != "" {
		if err := writePNG(*out, sim.Grid(engine.DisplaySlot), cfg.Scale); err != nil {
			log.Fatal(err)
		}
		logger.Info("wrote snapshot", "path", *out)
	}
}

func writePNG(path string, g *core.Grid, scale int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, render.Image(g, scale)); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
