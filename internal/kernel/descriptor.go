// Package kernel declares compute stages, compiles their sources in the
// background and tracks when each one becomes dispatchable.
package kernel

import (
	"fmt"

	"gridsim/internal/core"
)

// TileSize is the edge length of the square workgroup every kernel runs with.
const TileSize = 8

// Access describes how a kernel touches a bound grid.
type Access uint8

// ReadWrite is the only access mode kernels use.
const ReadWrite Access = 1

// Binding attaches one grid slot to a kernel.
type Binding struct {
	Slot   int
	Format core.Format
	Access Access
}

// Func is the body of an entry point, invoked once per cell of a dispatch.
// It reads neighbors through the front generation of the bound grids and
// writes only cell (x, y) of the back generation.
type Func func(b *Bindings, x, y int)

// Descriptor declares one named compute stage.
type Descriptor struct {
	Entry    string
	Source   string
	Bindings []Binding
	Tile     [2]int
	Body     Func
}

// Key identifies a descriptor for registration purposes.
func (d *Descriptor) Key() string { return d.Source + "#" + d.Entry }

// Workgroups returns the dispatch extent covering a w x h grid.
func Workgroups(w, h int) (int, int) {
	return (w + TileSize - 1) / TileSize, (h + TileSize - 1) / TileSize
}

// RW is shorthand for a read-write binding.
func RW(slot int, format core.Format) Binding {
	return Binding{Slot: slot, Format: format, Access: ReadWrite}
}

// Layout is the ordered set of bindings a variant declares.
type Layout []Binding

// Validate checks that the descriptor's bindings are a subset of the layout
// in ascending slot order with matching formats, and that it uses the
// standard tile.
func (l Layout) Validate(d *Descriptor) error {
	if d.Entry == "" {
		return fmt.Errorf("kernel: descriptor has no entry point")
	}
	if d.Tile != [2]int{TileSize, TileSize} {
		return fmt.Errorf("kernel %s: workgroup tile %dx%d, expected %dx%d",
			d.Entry, d.Tile[0], d.Tile[1], TileSize, TileSize)
	}
	if len(d.Bindings) == 0 {
		return fmt.Errorf("kernel %s: no bindings", d.Entry)
	}
	prev := -1
	for _, b := range d.Bindings {
		if b.Slot <= prev {
			return fmt.Errorf("kernel %s: binding slot %d out of order", d.Entry, b.Slot)
		}
		prev = b.Slot
		decl, ok := l.slot(b.Slot)
		if !ok {
			return fmt.Errorf("kernel %s: slot %d not declared by layout", d.Entry, b.Slot)
		}
		if decl.Format != b.Format {
			return fmt.Errorf("kernel %s: slot %d format %s, layout declares %s",
				d.Entry, b.Slot, b.Format, decl.Format)
		}
		if b.Access != ReadWrite {
			return fmt.Errorf("kernel %s: slot %d must be read-write", d.Entry, b.Slot)
		}
	}
	return nil
}

func (l Layout) slot(slot int) (Binding, bool) {
	for _, b := range l {
		if b.Slot == slot {
			return b, true
		}
	}
	return Binding{}, false
}
