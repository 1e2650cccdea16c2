package engine

import "gridsim/internal/kernel"

// State is the lifecycle stage of a simulation.
type State uint8

const (
	// StateLoading waits for the init kernel to compile.
	StateLoading State = iota
	// StateInitialized runs the init kernel once and waits for the
	// steady-state kernels.
	StateInitialized
	// StateRunning dispatches the steady-state plan every frame.
	StateRunning
	// StateFailed is entered when a kernel can never compile.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool { return s == StateRunning || s == StateFailed }

// StatusSource reports kernel compile status without blocking.
type StatusSource interface {
	Status(kernel.Handle) kernel.Status
}

// Gate names a kernel the machine waits on.
type Gate struct {
	Entry  string
	Handle kernel.Handle
}

// Machine gates dispatch on kernel readiness. It moves forward at most one
// state per Advance and never regresses.
type Machine struct {
	init   Gate
	steady []Gate

	state      State
	initIssued bool
	failure    *Gate
	err        error
}

// NewMachine returns a machine in StateLoading.
func NewMachine(init Gate, steady []Gate) *Machine {
	return &Machine{init: init, steady: steady}
}

// Advance samples the gating kernels for the current state and applies at
// most one transition. Once running or failed, compile status is no longer
// consulted.
func (m *Machine) Advance(src StatusSource) State {
	switch m.state {
	case StateLoading:
		if m.fail(src) {
			return m.state
		}
		if src.Status(m.init.Handle).Kind == kernel.Ready {
			m.state = StateInitialized
		}
	case StateInitialized:
		if m.fail(src) {
			return m.state
		}
		if m.initIssued && m.allReady(src) {
			m.state = StateRunning
		}
	}
	return m.state
}

func (m *Machine) fail(src StatusSource) bool {
	for _, g := range m.gates() {
		if s := src.Status(g.Handle); s.Kind == kernel.Failed {
			m.failure = &g
			m.err = s.Err
			m.state = StateFailed
			return true
		}
	}
	return false
}

func (m *Machine) allReady(src StatusSource) bool {
	for _, g := range m.steady {
		if src.Status(g.Handle).Kind != kernel.Ready {
			return false
		}
	}
	return true
}

func (m *Machine) gates() []Gate {
	return append([]Gate{m.init}, m.steady...)
}

// MarkInitIssued records that the init dispatch was accepted.
func (m *Machine) MarkInitIssued() { m.initIssued = true }

// InitIssued reports whether the init dispatch was accepted.
func (m *Machine) InitIssued() bool { return m.initIssued }

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Failure returns the kernel that failed and its compile error, if any.
func (m *Machine) Failure() (Gate, error) {
	if m.failure == nil {
		return Gate{}, nil
	}
	return *m.failure, m.err
}
