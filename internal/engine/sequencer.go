package engine

import (
	"gridsim/internal/core"
	"gridsim/internal/kernel"
)

// Plan is the ordered list of kernel dispatches for one frame.
type Plan []Step

// Dispatches reports the total number of dispatches in the plan.
func (p Plan) Dispatches() int {
	n := 0
	for _, s := range p {
		n += s.Count
	}
	return n
}

// Expand flattens the plan to one step per dispatch.
func (p Plan) Expand() []Step {
	out := make([]Step, 0, p.Dispatches())
	for _, s := range p {
		one := s
		one.Count = 1
		for i := 0; i < s.Count; i++ {
			out = append(out, one)
		}
	}
	return out
}

// Entries lists the entry point of every dispatch in order.
func (p Plan) Entries() []string {
	out := make([]string, 0, p.Dispatches())
	for _, s := range p.Expand() {
		out = append(out, s.Entry)
	}
	return out
}

// Sequencer turns a state into the dispatch plan of a variant.
type Sequencer struct {
	variant *Variant
	init    kernel.Handle
	handles map[string]kernel.Handle
	groupsX int
	groupsY int
}

// NewSequencer resolves plans for v on a grid of the given size. handles maps
// steady-state entry points to their registered kernels.
func NewSequencer(v *Variant, size core.Size, init kernel.Handle, handles map[string]kernel.Handle) *Sequencer {
	gx, gy := kernel.Workgroups(size.W, size.H)
	return &Sequencer{variant: v, init: init, handles: handles, groupsX: gx, groupsY: gy}
}

// Plan returns the dispatches for state. Loading and Failed plan nothing,
// Initialized plans a single init dispatch and Running plans the variant's
// steady table.
func (s *Sequencer) Plan(state State) Plan {
	switch state {
	case StateInitialized:
		return Plan{s.step(Step{Entry: s.variant.Init.Entry, Count: 1}, s.init)}
	case StateRunning:
		plan := make(Plan, 0, len(s.variant.Steady))
		for _, st := range s.variant.Steady {
			plan = append(plan, s.step(st, s.handles[st.Entry]))
		}
		return plan
	default:
		return nil
	}
}

func (s *Sequencer) step(st Step, h kernel.Handle) Step {
	st.Handle = h
	st.GroupsX = s.groupsX
	st.GroupsY = s.groupsY
	return st
}
