package engine

import (
	"fmt"

	"gridsim/internal/core"
	"gridsim/internal/kernel"
)

// DisplaySlot is the slot of the color buffer a host presents.
const DisplaySlot = 0

// Buffer declares one grid of a variant.
type Buffer struct {
	Name   string
	Slot   int
	Format core.Format
}

// Step is one entry of a frame plan: Count back-to-back dispatches of the
// named kernel. Variants set Entry and Count; the sequencer resolves the
// rest.
type Step struct {
	Entry string
	Count int

	Handle  kernel.Handle
	GroupsX int
	GroupsY int
}

// Variant declares the grids, kernels and per-frame policy of one kind of
// simulation.
type Variant struct {
	Name    string
	Buffers []Buffer
	// Init runs exactly once, before any steady-state kernel.
	Init *kernel.Descriptor
	// Kernels are the steady-state kernels. Every one must be ready before
	// the simulation starts running.
	Kernels []*kernel.Descriptor
	Steady  []Step
	Params  core.ParameterSnapshot
}

// Layout returns the variant's bindings in slot order.
func (v *Variant) Layout() kernel.Layout {
	l := make(kernel.Layout, len(v.Buffers))
	for i, b := range v.Buffers {
		l[i] = kernel.RW(b.Slot, b.Format)
	}
	return l
}

// Kernel returns the steady-state kernel with the given entry point.
func (v *Variant) Kernel(entry string) *kernel.Descriptor {
	for _, d := range v.Kernels {
		if d.Entry == entry {
			return d
		}
	}
	return nil
}

// Buffer returns the buffer declared under name.
func (v *Variant) Buffer(name string) (Buffer, bool) {
	for _, b := range v.Buffers {
		if b.Name == name {
			return b, true
		}
	}
	return Buffer{}, false
}

// Validate checks the buffer layout, every kernel's bindings against it and
// that the steady plan references declared kernels only.
func (v *Variant) Validate() error {
	if v.Name == "" {
		return configErrorf("variant", "missing name")
	}
	if len(v.Buffers) == 0 || len(v.Buffers) > kernel.MaxSlots {
		return configErrorf("buffers", "%s declares %d buffers, want 1..%d", v.Name, len(v.Buffers), kernel.MaxSlots)
	}
	for i, b := range v.Buffers {
		if b.Slot != i {
			return configErrorf("buffers", "%s buffer %q has slot %d, want %d", v.Name, b.Name, b.Slot, i)
		}
		if b.Format != core.FormatRGBA8Unorm && b.Format != core.FormatR32Float {
			return configErrorf("buffers", "%s buffer %q has unknown format", v.Name, b.Name)
		}
	}
	if v.Buffers[DisplaySlot].Format != core.FormatRGBA8Unorm {
		return configErrorf("buffers", "%s display buffer must be %s", v.Name, core.FormatRGBA8Unorm)
	}
	if v.Init == nil {
		return configErrorf("kernels", "%s has no init kernel", v.Name)
	}
	if len(v.Kernels) == 0 {
		return configErrorf("kernels", "%s has no steady-state kernels", v.Name)
	}
	layout := v.Layout()
	for _, d := range append([]*kernel.Descriptor{v.Init}, v.Kernels...) {
		if d.Source == "" {
			return configErrorf("kernels", "%s kernel %q has no source", v.Name, d.Entry)
		}
		if err := layout.Validate(d); err != nil {
			return &ConfigError{Field: "kernels", Reason: fmt.Sprintf("%s: %v", v.Name, err)}
		}
	}
	if len(v.Steady) == 0 {
		return configErrorf("steady", "%s has an empty steady plan", v.Name)
	}
	for _, s := range v.Steady {
		if v.Kernel(s.Entry) == nil {
			return configErrorf("steady", "%s plan references undeclared kernel %q", v.Name, s.Entry)
		}
		if s.Count < 1 {
			return configErrorf("steady", "%s step %q count %d", v.Name, s.Entry, s.Count)
		}
	}
	return nil
}
