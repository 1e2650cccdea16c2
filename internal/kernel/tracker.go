package kernel

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
)

// StatusKind is the compile state of a registered kernel.
type StatusKind uint8

const (
	// Pending means the kernel is still loading or compiling.
	Pending StatusKind = iota
	// Ready means the kernel compiled and may be dispatched.
	Ready
	// Failed means the kernel cannot be built; this is terminal.
	Failed
)

func (k StatusKind) String() string {
	switch k {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status reports a kernel's compile state and, when Failed, the reason.
type Status struct {
	Kind StatusKind
	Err  error
}

// Handle identifies a kernel registered with a Tracker.
type Handle int

type entry struct {
	desc    *Descriptor
	status  Status
	program *Program
	done    chan struct{}
}

// Tracker compiles registered kernels in the background and reports their
// readiness without blocking.
type Tracker struct {
	compiler Compiler
	sources  fs.FS
	log      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	entries []*entry
	byKey   map[string]Handle
}

// NewTracker returns a tracker that reads kernel sources from sources and
// compiles them with compiler.
func NewTracker(compiler Compiler, sources fs.FS, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		compiler: compiler,
		sources:  sources,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		byKey:    make(map[string]Handle),
	}
}

// Register queues d for compilation. Registering the same source and entry
// point again returns the existing handle.
func (t *Tracker) Register(d *Descriptor) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	if h, ok := t.byKey[d.Key()]; ok {
		return h
	}
	e := &entry{desc: d, status: Status{Kind: Pending}, done: make(chan struct{})}
	h := Handle(len(t.entries))
	t.entries = append(t.entries, e)
	t.byKey[d.Key()] = h

	t.wg.Add(1)
	go t.compile(e)
	return h
}

func (t *Tracker) compile(e *entry) {
	defer t.wg.Done()
	defer close(e.done)

	program, err := t.build(e.desc)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		e.status = Status{Kind: Failed, Err: err}
		t.log.Debug("kernel compile failed", "entry", e.desc.Entry, "source", e.desc.Source, "err", err)
		return
	}
	e.program = program
	e.status = Status{Kind: Ready}
	t.log.Debug("kernel ready", "entry", e.desc.Entry, "source", e.desc.Source)
}

func (t *Tracker) build(d *Descriptor) (*Program, error) {
	if t.sources == nil {
		return nil, fmt.Errorf("kernel %s: no source filesystem", d.Entry)
	}
	text, err := fs.ReadFile(t.sources, d.Source)
	if err != nil {
		return nil, fmt.Errorf("kernel %s: load source: %w", d.Entry, err)
	}
	return t.compiler.Compile(t.ctx, Source{Name: d.Source, Text: string(text)}, d)
}

// Status reports the current compile state of h.
func (t *Tracker) Status(h Handle) Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(h) < 0 || int(h) >= len(t.entries) {
		return Status{Kind: Failed, Err: fmt.Errorf("kernel: unknown handle %d", h)}
	}
	return t.entries[h].status
}

// Program returns the compiled program for h, or nil unless h is Ready.
func (t *Tracker) Program(h Handle) *Program {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(h) < 0 || int(h) >= len(t.entries) {
		return nil
	}
	return t.entries[h].program
}

// Len reports the number of registered kernels.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Wait blocks until every kernel registered so far has finished compiling
// or ctx is done. Frame stepping never calls it.
func (t *Tracker) Wait(ctx context.Context) error {
	t.mu.RLock()
	pending := make([]chan struct{}, 0, len(t.entries))
	for _, e := range t.entries {
		pending = append(pending, e.done)
	}
	t.mu.RUnlock()
	for _, done := range pending {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Close cancels outstanding compiles and waits for them to return.
func (t *Tracker) Close() {
	t.cancel()
	t.wg.Wait()
}
