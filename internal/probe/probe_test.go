package probe

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridsim/internal/core"
	"gridsim/internal/engine"
	"gridsim/internal/kernel"
	"gridsim/internal/sims/fluid"
)

func TestMassAndRange(t *testing.T) {
	g := core.NewGrid(8, 8, core.FormatR32Float, 1)
	src := make([]float32, 64)
	for i := range src {
		src[i] = float32(i)
	}
	g.LoadFloats(src)
	assert.InDelta(t, 63*64/2, Mass(g), 1e-9)
	lo, hi := Range(g)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 63.0, hi)

	c := core.NewGrid(8, 8, core.FormatRGBA8Unorm, 0)
	c.Fill([4]float32{1, 0, 0, 1})
	assert.InDelta(t, 64, Mass(c), 1e-9)
}

func TestDivergenceOfUniformFlowIsZero(t *testing.T) {
	vx := core.NewGrid(8, 8, core.FormatR32Float, 1)
	vy := core.NewGrid(8, 8, core.FormatR32Float, 2)
	vx.Fill([4]float32{2})
	vy.Fill([4]float32{-1})
	assert.Equal(t, Residual{}, Divergence(vx, vy))
}

func TestDivergenceOfSource(t *testing.T) {
	vx := core.NewGrid(8, 8, core.FormatR32Float, 1)
	vy := core.NewGrid(8, 8, core.FormatR32Float, 2)
	src := make([]float32, 64)
	src[3*8+4] = 2
	vx.LoadFloats(src)
	r := Divergence(vx, vy)
	assert.InDelta(t, 1, r.Max, 1e-9)
	assert.Greater(t, r.RMS, 0.0)
}

func TestSummarizeFluid(t *testing.T) {
	sim, err := engine.Create(fluid.Name, 16, 16,
		engine.WithParams(map[string]string{"pressure_iterations": "4"}),
		engine.WithCompiler(kernel.StaticCompiler{}))
	require.NoError(t, err)
	defer sim.Close()
	ctx := context.Background()
	require.NoError(t, sim.WaitKernels(ctx))
	for i := 0; i < 3; i++ {
		require.NoError(t, sim.AdvanceFrame(ctx))
	}

	s := Summarize(sim)
	assert.Equal(t, "fluid", s.Variant)
	assert.Equal(t, engine.StateRunning, s.State)
	assert.Equal(t, uint64(3), s.Frames)
	assert.Equal(t, uint64(1+5+5), s.Dispatches)
	require.NotNil(t, s.Divergence)
	assert.True(t, strings.HasPrefix(s.String(), "fluid: state=running"))
}
