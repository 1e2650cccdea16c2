package main

import (
	"context"
	"flag"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"gridsim/internal/engine"
	"gridsim/internal/kernel"
	"gridsim/internal/probe"
	"gridsim/internal/sims/fluid"
	"gridsim/pkg/core"
)

type scenario struct {
	iterations int
	seed       int64
}

type scenarioResult struct {
	iterations int
	runs       int
	residual   probe.Residual
	dyeMass    float64
	elapsed    time.Duration
	err        error
}

func main() {
	frames := flag.Int("frames", 60, "frames to simulate per scenario")
	size := flag.Int("size", 128, "grid width and height (multiple of 8)")
	workers := flag.Int("workers", runtime.NumCPU(), "number of worker goroutines")
	seed := flag.Int64("seed", fluid.DefaultConfig().Seed, "base seed for the shear-layer perturbations")
	runs := flag.Int("runs", 3, "perturbation seeds averaged per iteration count")
	flag.Parse()

	iterationOptions := []int{5, 10, 20, 40, 60, 80, 100, 150}

	seeds := core.NewRNG(*seed).Seeds(max(1, *runs))
	var scenarios []scenario
	for _, iterations := range iterationOptions {
		for _, s := range seeds {
			scenarios = append(scenarios, scenario{iterations: iterations, seed: s})
		}
	}

	fmt.Printf("Sweeping %d pressure iteration counts over %d seeds (%d workers, %d frames, %dx%d)\n",
		len(iterationOptions), len(seeds), *workers, *frames, *size, *size)

	jobs := make(chan scenario)
	results := make(chan scenarioResult)
	var wg sync.WaitGroup

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sc := range jobs {
				results <- runScenario(sc, *size, *frames)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		for _, sc := range scenarios {
			jobs <- sc
		}
		close(jobs)
	}()

	start := time.Now()
	byIterations := make(map[int]*scenarioResult)
	for res := range results {
		if res.err != nil {
			fmt.Printf("iterations=%d failed: %v\n", res.iterations, res.err)
			continue
		}
		agg, ok := byIterations[res.iterations]
		if !ok {
			agg = &scenarioResult{iterations: res.iterations}
			byIterations[res.iterations] = agg
		}
		agg.add(res)
	}

	all := make([]scenarioResult, 0, len(byIterations))
	for _, agg := range byIterations {
		all = append(all, agg.mean())
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].residual.RMS != all[j].residual.RMS {
			return all[i].residual.RMS < all[j].residual.RMS
		}
		return all[i].elapsed < all[j].elapsed
	})

	fmt.Printf("\nResults by divergence residual (elapsed %s):\n", time.Since(start).Round(time.Millisecond))
	for i, res := range all {
		fmt.Printf("%2d) iterations=%3d runs=%d div_rms=%.4g div_max=%.4g dye=%.2f time=%s\n",
			i+1, res.iterations, res.runs, res.residual.RMS, res.residual.Max, res.dyeMass, res.elapsed.Round(time.Millisecond))
	}
}

// add accumulates a single run; mean turns the sums into averages.
func (r *scenarioResult) add(run scenarioResult) {
	r.runs++
	r.residual.RMS += run.residual.RMS
	r.residual.Max = max(r.residual.Max, run.residual.Max)
	r.dyeMass += run.dyeMass
	r.elapsed += run.elapsed
}

func (r *scenarioResult) mean() scenarioResult {
	out := *r
	n := float64(r.runs)
	out.residual.RMS /= n
	out.dyeMass /= n
	out.elapsed /= time.Duration(r.runs)
	return out
}

func runScenario(sc scenario, size, frames int) scenarioResult {
	res := scenarioResult{iterations: sc.iterations, runs: 1}
	params := map[string]string{
		"pressure_iterations": strconv.Itoa(sc.iterations),
		"seed":                strconv.FormatInt(sc.seed, 10),
	}
	sim, err := engine.Create(fluid.Name, size, size,
		engine.WithParams(params),
		engine.WithCompiler(kernel.StaticCompiler{}))
	if err != nil {
		res.err = err
		return res
	}
	defer sim.Close()

	ctx := context.Background()
	if err := sim.WaitKernels(ctx); err != nil {
		res.err = err
		return res
	}

	start := time.Now()
	for i := 0; i < frames; i++ {
		if err := sim.AdvanceFrame(ctx); err != nil {
			res.err = err
			return res
		}
	}
	res.elapsed = time.Since(start)

	summary := probe.Summarize(sim)
	if summary.Divergence != nil {
		res.residual = *summary.Divergence
	}
	res.dyeMass = summary.Mass
	return res
}
