package flowlenia

import (
	"context"
	"io/fs"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridsim/internal/core"
	"gridsim/internal/device"
	"gridsim/internal/engine"
	"gridsim/internal/kernel"
	"gridsim/internal/shaders"
)

func TestFromMapParsesAndClamps(t *testing.T) {
	c := FromMap(map[string]string{"theta": "0.5", "n": "0", "dt": "2", "radius": "12"})
	def := DefaultConfig()
	assert.Equal(t, 0.5, c.Theta)
	assert.Equal(t, def.N, c.N)
	assert.Equal(t, def.DT, c.DT)
	assert.Equal(t, 12, c.Radius)
}

func TestTransportConservesMass(t *testing.T) {
	const n = 16
	r := rand.New(rand.NewPCG(1, 2))
	grid := core.NewGrid(n, n, core.FormatR32Float, 1)
	src := make([]float32, n*n)
	dxs := make([]float32, n*n)
	dys := make([]float32, n*n)
	var total float32
	for i := range src {
		src[i] = r.Float32()
		dxs[i] = r.Float32()*2 - 1
		dys[i] = r.Float32()*2 - 1
		total += src[i]
	}
	grid.LoadFloats(src)
	disp := func(x, y int) (float32, float32) {
		x, y = grid.Wrap(x, y)
		return dxs[grid.Index(x, y)], dys[grid.Index(x, y)]
	}

	var moved float32
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			moved += transport(grid.Float, disp, x, y)
		}
	}
	assert.InDelta(t, total, moved, 1e-2)
}

func TestTransportWithoutFlowIsIdentity(t *testing.T) {
	grid := core.NewGrid(8, 8, core.FormatR32Float, 1)
	src := make([]float32, 64)
	for i := range src {
		src[i] = float32(i) / 64
	}
	grid.LoadFloats(src)
	still := func(int, int) (float32, float32) { return 0, 0 }
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			assert.InDelta(t, grid.Float(x, y), transport(grid.Float, still, x, y), 1e-6)
		}
	}
}

func TestSobelOfRamp(t *testing.T) {
	ramp := func(x, y int) float32 { return 2*float32(x) + 3*float32(y) }
	gx, gy := sobel(ramp, 5, 5)
	assert.InDelta(t, 2, gx, 1e-5)
	assert.InDelta(t, 3, gy, 1e-5)
}

func TestFlowIsClipped(t *testing.T) {
	f := flow{dt: 100, theta: 1, n: 2}
	empty := func(int, int) float32 { return 0 }
	steep := func(x, y int) float32 { return float32(x) }
	fx, fy := f.at(empty, steep, 3, 3)
	assert.Equal(t, float32(1), fx)
	assert.Equal(t, float32(0), fy)
}

func TestUniformStateDoesNotMove(t *testing.T) {
	v := Variant(DefaultConfig())
	color := core.NewGrid(16, 16, core.FormatRGBA8Unorm, 0)
	growth := core.NewGrid(16, 16, core.FormatR32Float, 1)
	color.Fill([4]float32{0.4, 0, 0, 1})
	growth.Fill([4]float32{0.3})
	before := color.Pixels()

	apply := v.Kernel(EntryApplyFlow)
	b, err := kernel.Bind(apply, []*core.Grid{color, growth})
	require.NoError(t, err)
	d := kernel.Dispatch{Program: &kernel.Program{Descriptor: apply}, Bindings: b, GroupsX: 2, GroupsY: 2, Repeat: 1}
	require.NoError(t, device.NewCPU().Submit(context.Background(), 1, []kernel.Dispatch{d}))

	after := color.Pixels()
	for i := 0; i < len(after); i += 4 {
		require.Equal(t, before[i], after[i])
	}
}

func TestDescriptorsMatchKernelSource(t *testing.T) {
	v := Variant(DefaultConfig())
	require.NoError(t, v.Validate())
	text, err := fs.ReadFile(shaders.FS, Source)
	require.NoError(t, err)
	src := kernel.Source{Name: Source, Text: string(text)}
	for _, d := range append([]*kernel.Descriptor{v.Init}, v.Kernels...) {
		assert.NoError(t, kernel.CheckSource(src, d), d.Entry)
	}

	fields, err := shaders.ParamFields(Source)
	require.NoError(t, err)
	for _, f := range fields {
		_, ok := v.Params.Lookup(f)
		assert.True(t, ok, "uniform member %s is not a parameter", f)
	}
}

func TestRunningPlanIsGrowthThenFlow(t *testing.T) {
	cpu := device.NewCPU()
	sim, err := engine.Create(Name, 32, 32, engine.WithCompiler(kernel.StaticCompiler{}), engine.WithBackend(cpu))
	require.NoError(t, err)
	defer sim.Close()
	ctx := context.Background()
	require.NoError(t, sim.WaitKernels(ctx))

	for i := 0; i < 3; i++ {
		require.NoError(t, sim.AdvanceFrame(ctx))
	}
	assert.Equal(t, engine.StateRunning, sim.State())
	assert.Equal(t, uint64(1+2*2), cpu.Dispatches())

	growth, ok := sim.Field("growth")
	require.True(t, ok)
	var nonzero bool
	for _, v := range growth.Floats() {
		if v != 0 {
			nonzero = true
			break
		}
	}
	assert.True(t, nonzero, "compute_growth wrote the growth field")
}
