// Package engine drives grid simulations: it gates kernel dispatch on
// compile readiness, sequences each frame's kernels and submits them to a
// backend.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"gridsim/internal/core"
	"gridsim/internal/device"
	"gridsim/internal/kernel"
	"gridsim/internal/shaders"
)

// Backend executes one frame's dispatches in order.
type Backend interface {
	Submit(ctx context.Context, frame uint64, ds []kernel.Dispatch) error
}

// AsyncBackend is a Backend whose Submit may return before the frame has
// executed. Settle reports whether the last accepted frame finished and, once,
// the error it failed with. A failed frame must leave its grids as they were
// before the frame.
type AsyncBackend interface {
	Backend
	Async() bool
	Settle() (done bool, err error)
}

// DisplayBuffer is the host's read-only view of the color grid.
type DisplayBuffer interface {
	Size() core.Size
	// Pixels returns a copy of the RGBA8 cells in row-major order.
	Pixels() []uint8
	// Snapshot copies the RGBA8 cells into dst and reports the bytes written.
	Snapshot(dst []uint8) int
}

// Status is the lifecycle state together with the error that ended it.
type Status struct {
	State State
	Err   error
}

// Stats counts completed work.
type Stats struct {
	Frames     uint64
	Dispatches uint64
}

type options struct {
	backend  Backend
	owned    bool
	compiler kernel.Compiler
	sources  fs.FS
	params   map[string]string
	log      *slog.Logger
}

// Option configures a Simulation.
type Option func(*options)

// WithBackend sets the device that executes dispatches. The default is a
// synchronous CPU device owned by the simulation.
func WithBackend(b Backend) Option {
	return func(o *options) { o.backend, o.owned = b, false }
}

// WithOwnedBackend is WithBackend for a device the simulation takes over:
// Close also closes it when it implements io.Closer.
func WithOwnedBackend(b Backend) Option {
	return func(o *options) { o.backend, o.owned = b, true }
}

// WithCompiler sets the kernel compiler. The default is a NagaCompiler.
func WithCompiler(c kernel.Compiler) Option {
	return func(o *options) { o.compiler = c }
}

// WithSources sets where kernel sources are read from. The default is the
// embedded shader set.
func WithSources(fsys fs.FS) Option {
	return func(o *options) { o.sources = fsys }
}

// WithParams passes variant parameters to Create.
func WithParams(params map[string]string) Option {
	return func(o *options) { o.params = params }
}

// WithLogger sets the simulation's logger, overriding the package logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// Simulation owns the grids of one variant and advances them frame by frame.
type Simulation struct {
	variant *Variant
	size    core.Size
	grids   []*core.Grid

	tracker     *kernel.Tracker
	machine     *Machine
	seq         *Sequencer
	bindings    map[kernel.Handle]*kernel.Bindings
	backend     Backend
	ownsBackend bool
	log         *slog.Logger

	mu         sync.Mutex
	stats      Stats
	pending    *submitted
	err        error
	failLogged bool
	closed     bool
}

// submitted is a frame accepted by an async backend but not yet settled.
type submitted struct {
	frame      uint64
	dispatches int
	init       bool
}

// Create builds the registered variant kind on a w x h grid.
func Create(kind string, w, h int, opts ...Option) (*Simulation, error) {
	f, ok := Lookup(kind)
	if !ok {
		return nil, configErrorf("variant", "unknown kind %q (registered: %v)", kind, Variants())
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return New(f(o.params), w, h, opts...)
}

// New validates v and the grid size, allocates the grids and starts compiling
// the variant's kernels. Nothing is allocated when validation fails.
func New(v *Variant, w, h int, opts ...Option) (*Simulation, error) {
	size := core.Size{W: w, H: h}
	if !size.Aligned(kernel.TileSize) {
		return nil, configErrorf("size", "%dx%d is not a positive multiple of the %dx%d workgroup tile",
			w, h, kernel.TileSize, kernel.TileSize)
	}
	if v == nil {
		return nil, configErrorf("variant", "nil variant")
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log
	if log == nil {
		log = Logger()
	}
	log = log.With("variant", v.Name)
	if o.compiler == nil {
		o.compiler = kernel.NewNagaCompiler()
	}
	if o.sources == nil {
		o.sources = shaders.FS
	}
	owns := o.owned
	if o.backend == nil {
		o.backend = device.NewCPU(device.WithLogger(log))
		owns = true
	}

	grids := make([]*core.Grid, len(v.Buffers))
	for i, b := range v.Buffers {
		grids[i] = core.NewGrid(w, h, b.Format, b.Slot)
	}

	s := &Simulation{
		variant:     v,
		size:        size,
		grids:       grids,
		tracker:     kernel.NewTracker(o.compiler, o.sources, log),
		bindings:    make(map[kernel.Handle]*kernel.Bindings),
		backend:     o.backend,
		ownsBackend: owns,
		log:         log,
	}

	initGate, err := s.register(v.Init)
	if err != nil {
		s.tracker.Close()
		return nil, err
	}
	steady := make([]Gate, 0, len(v.Kernels))
	handles := make(map[string]kernel.Handle, len(v.Kernels))
	for _, d := range v.Kernels {
		g, err := s.register(d)
		if err != nil {
			s.tracker.Close()
			return nil, err
		}
		steady = append(steady, g)
		handles[d.Entry] = g.Handle
	}
	s.machine = NewMachine(initGate, steady)
	s.seq = NewSequencer(v, size, initGate.Handle, handles)
	log.Debug("simulation created", "width", w, "height", h, "kernels", s.tracker.Len())
	return s, nil
}

func (s *Simulation) register(d *kernel.Descriptor) (Gate, error) {
	b, err := kernel.Bind(d, s.grids)
	if err != nil {
		return Gate{}, &ConfigError{Field: "kernels", Reason: err.Error()}
	}
	h := s.tracker.Register(d)
	s.bindings[h] = b
	return Gate{Entry: d.Entry, Handle: h}, nil
}

// AdvanceFrame advances the state machine and submits this frame's
// dispatches. It never waits for kernel compilation. A frame the backend
// rejects or fails returns a *DispatchError and leaves the grids, counters
// and lifecycle untouched, so the next call retries it.
//
// With an async backend a frame counts once the backend settles it. Until
// then AdvanceFrame returns a *DispatchError wrapping device.ErrBusy without
// advancing, and a frame that failed in the background is reported by the
// call that settles it.
func (s *Simulation) AdvanceFrame(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.settle(); err != nil {
		return err
	}

	prev := s.machine.State()
	state := s.machine.Advance(s.tracker)
	if state != prev {
		s.log.Info("state transition", "from", prev, "to", state, "frame", s.stats.Frames)
	}
	if state == StateFailed {
		return s.failure()
	}

	// Steady kernels still compiling after init ran: hold until they are
	// ready so init is never dispatched twice.
	var plan Plan
	if state != StateInitialized || !s.machine.InitIssued() {
		plan = s.seq.Plan(state)
	}
	if len(plan) == 0 {
		s.stats.Frames++
		return nil
	}

	frame := s.stats.Frames + 1
	ds, err := s.resolve(plan)
	if err != nil {
		return &DispatchError{Frame: frame, Err: err}
	}
	s.log.Debug("frame planned", "frame", frame, "state", state, "dispatches", plan.Dispatches())
	if err := s.backend.Submit(ctx, frame, ds); err != nil {
		s.log.Warn("frame rejected", "frame", frame, "err", err)
		return &DispatchError{Frame: frame, Err: err}
	}
	sub := submitted{frame: frame, dispatches: plan.Dispatches(), init: state == StateInitialized}
	if s.async() {
		s.pending = &sub
		return nil
	}
	s.commit(sub)
	return nil
}

func (s *Simulation) async() bool {
	ab, ok := s.backend.(AsyncBackend)
	return ok && ab.Async()
}

func (s *Simulation) commit(sub submitted) {
	if sub.init {
		s.machine.MarkInitIssued()
	}
	s.stats.Frames++
	s.stats.Dispatches += uint64(sub.dispatches)
}

// settle collects the outcome of a frame still held by an async backend.
func (s *Simulation) settle() error {
	if s.pending == nil {
		return nil
	}
	done, err := s.backend.(AsyncBackend).Settle()
	if !done {
		return &DispatchError{Frame: s.pending.frame, Err: device.ErrBusy}
	}
	sub := *s.pending
	s.pending = nil
	if err != nil {
		s.log.Warn("frame failed", "frame", sub.frame, "err", err)
		return &DispatchError{Frame: sub.frame, Err: err}
	}
	s.commit(sub)
	return nil
}

// Flush waits for a frame still executing on an async backend and settles
// it. It returns the frame's failure, if any, or ctx's error.
func (s *Simulation) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()
	for {
		err := s.settle()
		if !errors.Is(err, device.ErrBusy) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}

func (s *Simulation) failure() error {
	if s.err == nil {
		g, err := s.machine.Failure()
		s.err = &CompileError{Variant: s.variant.Name, Entry: g.Entry, Err: err}
	}
	if !s.failLogged {
		s.log.Error("kernel compile failed", "err", s.err)
		s.failLogged = true
	}
	return s.err
}

func (s *Simulation) resolve(plan Plan) ([]kernel.Dispatch, error) {
	ds := make([]kernel.Dispatch, 0, len(plan))
	for _, st := range plan {
		p := s.tracker.Program(st.Handle)
		if p == nil {
			return nil, fmt.Errorf("engine: kernel %q is not ready", st.Entry)
		}
		ds = append(ds, kernel.Dispatch{
			Program:  p,
			Bindings: s.bindings[st.Handle],
			GroupsX:  st.GroupsX,
			GroupsY:  st.GroupsY,
			Repeat:   st.Count,
		})
	}
	return ds, nil
}

// DisplayBuffer returns the read-only color grid.
func (s *Simulation) DisplayBuffer() DisplayBuffer { return s.grids[DisplaySlot] }

// Grid returns the grid bound at slot, or nil. Callers must not write to it.
func (s *Simulation) Grid(slot int) *core.Grid {
	if slot < 0 || slot >= len(s.grids) {
		return nil
	}
	return s.grids[slot]
}

// Field returns the grid of the named buffer. Callers must not write to it.
func (s *Simulation) Field(name string) (*core.Grid, bool) {
	b, ok := s.variant.Buffer(name)
	if !ok {
		return nil, false
	}
	return s.grids[b.Slot], true
}

// Variant returns the variant the simulation was built from.
func (s *Simulation) Variant() *Variant { return s.variant }

// Size reports the grid dimensions.
func (s *Simulation) Size() core.Size { return s.size }

// State returns the current lifecycle state.
func (s *Simulation) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State()
}

// Status returns the lifecycle state and, when failed, the compile error.
func (s *Simulation) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{State: s.machine.State()}
	if st.State == StateFailed {
		st.Err = s.failure()
	}
	return st
}

// Stats returns the completed frame and dispatch counts.
func (s *Simulation) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Kernels reports the compile status of every kernel by entry point.
func (s *Simulation) Kernels() map[string]kernel.Status {
	out := make(map[string]kernel.Status, len(s.variant.Kernels)+1)
	out[s.variant.Init.Entry] = s.tracker.Status(s.machine.init.Handle)
	for _, g := range s.machine.steady {
		out[g.Entry] = s.tracker.Status(g.Handle)
	}
	return out
}

// WaitKernels blocks until every kernel finished compiling or ctx is done.
// AdvanceFrame never calls it; tools use it to skip the loading frames.
func (s *Simulation) WaitKernels(ctx context.Context) error {
	return s.tracker.Wait(ctx)
}

// Close stops outstanding compiles, waits for a frame still executing in the
// background and releases a backend the simulation owns.
func (s *Simulation) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.tracker.Close()
	if s.pending != nil {
		if w, ok := s.backend.(interface{ Wait() }); ok {
			w.Wait()
		}
		s.pending = nil
	}
	if c, ok := s.backend.(io.Closer); ok && s.ownsBackend {
		return c.Close()
	}
	return nil
}
