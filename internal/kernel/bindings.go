package kernel

import (
	"fmt"

	"gridsim/internal/core"
)

// MaxSlots bounds the number of grids a bind group can carry.
const MaxSlots = 8

// Bindings is the bind group a dispatch runs against, indexed by slot.
type Bindings struct {
	grids [MaxSlots]*core.Grid
	bound []*core.Grid
}

// Bind resolves the descriptor's bindings against grids indexed by slot.
func Bind(d *Descriptor, grids []*core.Grid) (*Bindings, error) {
	b := &Bindings{}
	for _, binding := range d.Bindings {
		if binding.Slot < 0 || binding.Slot >= MaxSlots || binding.Slot >= len(grids) {
			return nil, fmt.Errorf("kernel %s: slot %d has no grid", d.Entry, binding.Slot)
		}
		g := grids[binding.Slot]
		if g == nil || g.Format != binding.Format {
			return nil, fmt.Errorf("kernel %s: slot %d grid mismatch", d.Entry, binding.Slot)
		}
		b.grids[binding.Slot] = g
		b.bound = append(b.bound, g)
	}
	return b, nil
}

// Grid returns the grid bound at slot, or nil when the slot is unbound.
func (b *Bindings) Grid(slot int) *core.Grid {
	if slot < 0 || slot >= MaxSlots {
		return nil
	}
	return b.grids[slot]
}

// Bound lists the bound grids in slot order.
func (b *Bindings) Bound() []*core.Grid { return b.bound }

// Size reports the extent shared by the bound grids.
func (b *Bindings) Size() core.Size {
	if len(b.bound) == 0 {
		return core.Size{}
	}
	return b.bound[0].Size()
}

// Stage prepares every bound grid for a dispatch.
func (b *Bindings) Stage() {
	for _, g := range b.bound {
		g.Stage()
	}
}

// Swap publishes every bound grid after a dispatch.
func (b *Bindings) Swap() {
	for _, g := range b.bound {
		g.Swap()
	}
}

// Dispatch is one kernel submission: Repeat back-to-back dispatches of
// Program over a GroupsX x GroupsY workgroup extent.
type Dispatch struct {
	Program  *Program
	Bindings *Bindings
	GroupsX  int
	GroupsY  int
	Repeat   int
}
