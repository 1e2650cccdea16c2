package fluid

import (
	"context"
	"io/fs"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridsim/internal/core"
	"gridsim/internal/device"
	"gridsim/internal/engine"
	"gridsim/internal/kernel"
	"gridsim/internal/shaders"
)

func TestFromMapParsesAndClamps(t *testing.T) {
	c := FromMap(map[string]string{"pressure_iterations": "0", "dissipation": "0.9", "speed": "2"})
	assert.Equal(t, DefaultPressureIterations, c.PressureIterations)
	assert.Equal(t, 0.9, c.Dissipation)
	assert.Equal(t, 2.0, c.Speed)
	assert.Equal(t, 40, FromMap(map[string]string{"pressure_iterations": "40"}).PressureIterations)
}

func TestDivergenceOfRamp(t *testing.T) {
	vx := core.NewGrid(8, 8, core.FormatR32Float, 1)
	vy := core.NewGrid(8, 8, core.FormatR32Float, 2)
	ramp := make([]float32, 64)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			ramp[y*8+x] = float32(x)
		}
	}
	vx.LoadFloats(ramp)
	assert.InDelta(t, 1, divergence(vx, vy, 3, 3), 1e-6)
	assert.InDelta(t, 0, divergence(vy, vy, 3, 3), 1e-6)
}

func TestJacobiKeepsUniformPressureWithoutDivergence(t *testing.T) {
	p := core.NewGrid(8, 8, core.FormatR32Float, 3)
	vx := core.NewGrid(8, 8, core.FormatR32Float, 1)
	vy := core.NewGrid(8, 8, core.FormatR32Float, 2)
	p.Fill([4]float32{2})
	vx.Fill([4]float32{1.5})
	assert.InDelta(t, 2, jacobi(p, vx, vy, 4, 4), 1e-6)
}

func dispatch(t *testing.T, d *kernel.Descriptor, grids []*core.Grid, repeat int) kernel.Dispatch {
	t.Helper()
	b, err := kernel.Bind(d, grids)
	require.NoError(t, err)
	gx, gy := kernel.Workgroups(grids[0].W, grids[0].H)
	return kernel.Dispatch{Program: &kernel.Program{Descriptor: d}, Bindings: b, GroupsX: gx, GroupsY: gy, Repeat: repeat}
}

func TestStillFluidKeepsDyeAndPressure(t *testing.T) {
	v := Variant(DefaultConfig())
	grids := []*core.Grid{
		core.NewGrid(16, 16, core.FormatRGBA8Unorm, SlotColor),
		core.NewGrid(16, 16, core.FormatR32Float, SlotVelocityX),
		core.NewGrid(16, 16, core.FormatR32Float, SlotVelocityY),
		core.NewGrid(16, 16, core.FormatR32Float, SlotPressure),
	}
	dye := make([]uint8, 16*16*4)
	for i := range dye {
		dye[i] = uint8(i % 251)
	}
	grids[SlotColor].LoadPixels(dye)

	ds := []kernel.Dispatch{
		dispatch(t, v.Kernel(EntryUpdate), grids, 1),
		dispatch(t, v.Kernel(EntryUpdatePressure), grids, 10),
	}
	require.NoError(t, device.NewCPU().Submit(context.Background(), 1, ds))

	assert.Equal(t, dye, grids[SlotColor].Pixels())
	for _, p := range grids[SlotPressure].Floats() {
		require.Zero(t, p)
	}
}

func TestShearLayerInit(t *testing.T) {
	size := core.Size{W: 64, H: 64}
	vx, _, dye := shear(size, 1.5, 3, 10, 32)
	assert.Equal(t, float32(1.5), vx)
	assert.Equal(t, dyeInner, dye)
	vx, vy, dye := shear(size, 1.5, 3, 10, 2)
	assert.Equal(t, float32(-1.5), vx)
	assert.Equal(t, dyeOuter, dye)
	assert.LessOrEqual(t, math.Abs(float64(vy)), 0.15+1e-6)
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

func TestRejectsUnalignedWidth(t *testing.T) {
	sim, err := engine.Create(Name, 65, 64, engine.WithCompiler(kernel.StaticCompiler{}))
	assert.Nil(t, sim)
	require.ErrorIs(t, err, engine.ErrConfiguration)
}

func TestEndToEnd64(t *testing.T) {
	cpu := device.NewCPU()
	sim, err := engine.Create(Name, 64, 64, engine.WithCompiler(kernel.StaticCompiler{}), engine.WithBackend(cpu))
	require.NoError(t, err)
	defer sim.Close()
	ctx := context.Background()
	assert.Equal(t, core.Size{W: 64, H: 64}, sim.DisplayBuffer().Size())

	require.Eventually(t, func() bool {
		return sim.AdvanceFrame(ctx) == nil && sim.State() == engine.StateRunning
	}, 5*time.Second, time.Millisecond)

	base := cpu.Dispatches()
	for i := 1; i <= 3; i++ {
		require.NoError(t, sim.AdvanceFrame(ctx))
		assert.Equal(t, base+uint64(i*101), cpu.Dispatches())
	}

	for _, name := range []string{"velocity_x", "velocity_y", "pressure"} {
		g, ok := sim.Field(name)
		require.True(t, ok)
		for _, v := range g.Floats() {
			require.False(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0), name)
		}
	}
}

func TestPressureIterationsShapePlan(t *testing.T) {
	cpu := device.NewCPU()
	sim, err := engine.Create(Name, 16, 16,
		engine.WithParams(map[string]string{"pressure_iterations": "7"}),
		engine.WithCompiler(kernel.StaticCompiler{}),
		engine.WithBackend(cpu))
	require.NoError(t, err)
	defer sim.Close()
	ctx := context.Background()
	require.NoError(t, sim.WaitKernels(ctx))

	require.NoError(t, sim.AdvanceFrame(ctx))
	require.NoError(t, sim.AdvanceFrame(ctx))
	assert.Equal(t, engine.StateRunning, sim.State())
	assert.Equal(t, uint64(1+8), cpu.Dispatches())
}
