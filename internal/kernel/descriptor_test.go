package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridsim/internal/core"
)

func noop(*Bindings, int, int) {}

func testLayout() Layout {
	return Layout{
		RW(0, core.FormatRGBA8Unorm),
		RW(1, core.FormatR32Float),
		RW(2, core.FormatR32Float),
	}
}

func TestWorkgroups(t *testing.T) {
	gx, gy := Workgroups(600, 400)
	assert.Equal(t, 75, gx)
	assert.Equal(t, 50, gy)

	gx, gy = Workgroups(65, 9)
	assert.Equal(t, 9, gx)
	assert.Equal(t, 2, gy)
}

func TestLayoutValidateAcceptsSubsetInOrder(t *testing.T) {
	d := &Descriptor{
		Entry:    "update",
		Tile:     [2]int{TileSize, TileSize},
		Bindings: []Binding{RW(0, core.FormatRGBA8Unorm), RW(2, core.FormatR32Float)},
		Body:     noop,
	}
	require.NoError(t, testLayout().Validate(d))
}

func TestLayoutValidateRejectsMismatches(t *testing.T) {
	tile := [2]int{TileSize, TileSize}
	cases := map[string]*Descriptor{
		"out of order": {Entry: "a", Tile: tile, Bindings: []Binding{RW(1, core.FormatR32Float), RW(0, core.FormatRGBA8Unorm)}},
		"duplicate":    {Entry: "b", Tile: tile, Bindings: []Binding{RW(1, core.FormatR32Float), RW(1, core.FormatR32Float)}},
		"undeclared":   {Entry: "c", Tile: tile, Bindings: []Binding{RW(3, core.FormatR32Float)}},
		"format":       {Entry: "d", Tile: tile, Bindings: []Binding{RW(0, core.FormatR32Float)}},
		"tile":         {Entry: "e", Tile: [2]int{16, 16}, Bindings: []Binding{RW(0, core.FormatRGBA8Unorm)}},
		"no bindings":  {Entry: "f", Tile: tile},
		"read only":    {Entry: "g", Tile: tile, Bindings: []Binding{{Slot: 0, Format: core.FormatRGBA8Unorm}}},
		"no entry":     {Tile: tile, Bindings: []Binding{RW(0, core.FormatRGBA8Unorm)}},
	}
	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, testLayout().Validate(d))
		})
	}
}

func TestBindResolvesSlots(t *testing.T) {
	grids := []*core.Grid{
		core.NewGrid(8, 8, core.FormatRGBA8Unorm, 0),
		core.NewGrid(8, 8, core.FormatR32Float, 1),
	}
	d := &Descriptor{Entry: "x", Bindings: []Binding{RW(1, core.FormatR32Float)}}
	b, err := Bind(d, grids)
	require.NoError(t, err)
	assert.Same(t, grids[1], b.Grid(1))
	assert.Nil(t, b.Grid(0))
	assert.Len(t, b.Bound(), 1)
	assert.Equal(t, core.Size{W: 8, H: 8}, b.Size())

	_, err = Bind(&Descriptor{Entry: "y", Bindings: []Binding{RW(4, core.FormatR32Float)}}, grids)
	assert.Error(t, err)
}
