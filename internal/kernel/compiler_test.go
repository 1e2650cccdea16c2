package kernel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridsim/internal/core"
)

const fillSource = `
@group(0) @binding(0) var<storage, read_write> cells: array<f32>;

@compute @workgroup_size(8, 8, 1)
fn init(@builtin(global_invocation_id) id: vec3<u32>) {
    cells[id.y * 8u + id.x] = 0.0;
}
`

func fillDescriptor(entry string) *Descriptor {
	return &Descriptor{
		Entry:    entry,
		Source:   "fill.wgsl",
		Tile:     [2]int{TileSize, TileSize},
		Bindings: []Binding{RW(0, core.FormatR32Float)},
		Body:     noop,
	}
}

func TestCheckSource(t *testing.T) {
	src := Source{Name: "fill.wgsl", Text: fillSource}
	require.NoError(t, CheckSource(src, fillDescriptor("init")))

	assert.Error(t, CheckSource(src, fillDescriptor("update")), "missing entry point")

	d := fillDescriptor("init")
	d.Bindings = append(d.Bindings, RW(3, core.FormatR32Float))
	assert.Error(t, CheckSource(src, d), "undeclared binding")

	d = fillDescriptor("init")
	d.Tile = [2]int{16, 16}
	assert.Error(t, CheckSource(src, d), "tile mismatch")
}

func TestNagaCompilerCompilesOncePerSource(t *testing.T) {
	c := NewNagaCompiler()
	src := Source{Name: "fill.wgsl", Text: fillSource}

	p, err := c.Compile(context.Background(), src, fillDescriptor("init"))
	require.NoError(t, err)
	assert.Equal(t, "init", p.Entry())
	assert.NotEmpty(t, p.SPIRV)
	assert.Len(t, c.modules, 1)
}

func TestNagaCompilerReportsSyntaxErrors(t *testing.T) {
	c := NewNagaCompiler()
	broken := Source{Name: "broken.wgsl", Text: fillSource + "\nfn dangling( {\n"}
	_, err := c.Compile(context.Background(), broken, fillDescriptor("init"))
	assert.Error(t, err)
}

func TestNagaCompilerRequiresBody(t *testing.T) {
	d := fillDescriptor("init")
	d.Body = nil
	_, err := NewNagaCompiler().Compile(context.Background(), Source{Text: fillSource}, d)
	assert.ErrorIs(t, err, ErrNoBody)
}

func TestStaticCompiler(t *testing.T) {
	boom := errors.New("boom")
	c := StaticCompiler{Fail: map[string]error{"update": boom}}

	p, err := c.Compile(context.Background(), Source{}, fillDescriptor("init"))
	require.NoError(t, err)
	assert.Nil(t, p.SPIRV)

	_, err = c.Compile(context.Background(), Source{}, fillDescriptor("update"))
	assert.ErrorIs(t, err, boom)
}
