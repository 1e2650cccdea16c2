// Package device executes kernel dispatches on the host CPU.
package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"gridsim/internal/core"
	"gridsim/internal/kernel"
)

var (
	// ErrRejected reports a frame that failed validation. Nothing ran.
	ErrRejected = errors.New("device: dispatch rejected")
	// ErrBusy reports a submission made while the previous frame is still
	// executing. Nothing ran; the caller may resubmit later.
	ErrBusy = errors.New("device: previous frame still executing")
	// ErrKernelPanic reports a kernel body that panicked during execution.
	ErrKernelPanic = errors.New("device: kernel panicked")
)

// CPU runs each dispatch as independent 8x8 workgroups spread over a bounded
// set of goroutines. Dispatches of a frame run strictly in order.
type CPU struct {
	workers int
	async   bool
	log     *slog.Logger

	mu      sync.Mutex
	running bool
	failed  error
	wg      sync.WaitGroup

	dispatches atomic.Uint64
}

// Option configures a CPU.
type Option func(*CPU)

// WithWorkers bounds the number of workgroups executing at once.
func WithWorkers(n int) Option {
	return func(c *CPU) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithAsync makes Submit return as soon as a frame is accepted; the frame
// then executes in the background.
func WithAsync(async bool) Option {
	return func(c *CPU) { c.async = async }
}

// WithLogger sets the logger used for frame diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(c *CPU) {
		if log != nil {
			c.log = log
		}
	}
}

// NewCPU returns a CPU device. It runs synchronously unless WithAsync is set.
func NewCPU(opts ...Option) *CPU {
	c := &CPU{
		workers: runtime.GOMAXPROCS(0),
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Async reports whether frames execute in the background.
func (c *CPU) Async() bool { return c.async }

// Dispatches reports how many dispatches have finished executing.
func (c *CPU) Dispatches() uint64 { return c.dispatches.Load() }

// Submit validates and executes one frame's dispatch list. A frame that
// fails validation is rejected as a whole and nothing executes. A frame that
// fails while executing leaves every bound grid as it was before the frame.
// In async mode a failure not collected with Settle is reported by the next
// Submit.
func (c *CPU) Submit(ctx context.Context, frame uint64, ds []kernel.Dispatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate(ds); err != nil {
		return err
	}
	if !c.async {
		return c.run(frame, ds)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return ErrBusy
	}
	if err := c.failed; err != nil {
		c.failed = nil
		return err
	}
	c.running = true
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		err := c.run(frame, ds)
		c.mu.Lock()
		c.running = false
		c.failed = err
		c.mu.Unlock()
	}()
	return nil
}

// Settle reports whether the last accepted frame has finished and, if it
// failed, its error. The error is reported once.
func (c *CPU) Settle() (done bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return false, nil
	}
	err, c.failed = c.failed, nil
	return true, err
}

// Busy reports whether an async frame is executing.
func (c *CPU) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Wait blocks until any background frame has finished.
func (c *CPU) Wait() { c.wg.Wait() }

// Close waits for background work. The device must not be used afterwards.
func (c *CPU) Close() error {
	c.wg.Wait()
	return nil
}

func validate(ds []kernel.Dispatch) error {
	for i, d := range ds {
		switch {
		case d.Program == nil || d.Program.Descriptor == nil:
			return fmt.Errorf("%w: dispatch %d has no program", ErrRejected, i)
		case d.Program.Descriptor.Body == nil:
			return fmt.Errorf("%w: dispatch %d (%s) has no body", ErrRejected, i, d.Program.Entry())
		case d.Bindings == nil || len(d.Bindings.Bound()) == 0:
			return fmt.Errorf("%w: dispatch %d (%s) has no bindings", ErrRejected, i, d.Program.Entry())
		case d.GroupsX <= 0 || d.GroupsY <= 0:
			return fmt.Errorf("%w: dispatch %d (%s) has empty extent %dx%d",
				ErrRejected, i, d.Program.Entry(), d.GroupsX, d.GroupsY)
		case d.Repeat <= 0:
			return fmt.Errorf("%w: dispatch %d (%s) repeat %d", ErrRejected, i, d.Program.Entry(), d.Repeat)
		}
		size := d.Bindings.Size()
		for _, g := range d.Bindings.Bound() {
			if g.Size() != size {
				return fmt.Errorf("%w: dispatch %d (%s) binds grids of different sizes",
					ErrRejected, i, d.Program.Entry())
			}
		}
		if d.GroupsX*kernel.TileSize < size.W || d.GroupsY*kernel.TileSize < size.H {
			return fmt.Errorf("%w: dispatch %d (%s) extent %dx%d does not cover %dx%d",
				ErrRejected, i, d.Program.Entry(), d.GroupsX, d.GroupsY, size.W, size.H)
		}
	}
	return nil
}

func (c *CPU) run(frame uint64, ds []kernel.Dispatch) error {
	saved := checkpoint(ds)
	for _, d := range ds {
		for r := 0; r < d.Repeat; r++ {
			if err := c.dispatch(d); err != nil {
				for _, cp := range saved {
					cp.Restore()
				}
				c.log.Error("frame aborted", "frame", frame, "entry", d.Program.Entry(), "err", err)
				return err
			}
		}
	}
	c.log.Debug("frame executed", "frame", frame, "dispatches", len(ds))
	return nil
}

// checkpoint saves every distinct grid bound by the frame.
func checkpoint(ds []kernel.Dispatch) []core.Checkpoint {
	seen := make(map[*core.Grid]bool)
	var saved []core.Checkpoint
	for _, d := range ds {
		for _, g := range d.Bindings.Bound() {
			if !seen[g] {
				seen[g] = true
				saved = append(saved, g.Checkpoint())
			}
		}
	}
	return saved
}

// dispatch runs one pass of d. Bound grids are staged first and swapped only
// when every workgroup completed.
func (c *CPU) dispatch(d kernel.Dispatch) error {
	b := d.Bindings
	size := b.Size()
	body := d.Program.Descriptor.Body
	entry := d.Program.Entry()

	b.Stage()
	var g errgroup.Group
	g.SetLimit(c.workers)
	for gy := 0; gy < d.GroupsY; gy++ {
		for gx := 0; gx < d.GroupsX; gx++ {
			x0, y0 := gx*kernel.TileSize, gy*kernel.TileSize
			g.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("%w: %s at tile (%d,%d): %v", ErrKernelPanic, entry, x0, y0, r)
					}
				}()
				x1 := min(x0+kernel.TileSize, size.W)
				y1 := min(y0+kernel.TileSize, size.H)
				for y := y0; y < y1; y++ {
					for x := x0; x < x1; x++ {
						body(b, x, y)
					}
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	b.Swap()
	c.dispatches.Add(1)
	return nil
}
