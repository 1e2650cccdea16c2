package kernel

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedCompiler blocks each entry point until its gate is released.
type gatedCompiler struct {
	gates map[string]chan error
}

func (g *gatedCompiler) Compile(ctx context.Context, _ Source, d *Descriptor) (*Program, error) {
	select {
	case err := <-g.gates[d.Entry]:
		if err != nil {
			return nil, err
		}
		return &Program{Descriptor: d}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func sources() fstest.MapFS {
	return fstest.MapFS{"fill.wgsl": {Data: []byte(fillSource)}}
}

func waitFor(t *testing.T, tr *Tracker, h Handle, kind StatusKind) Status {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s := tr.Status(h); s.Kind == kind {
			return s
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("kernel %d never reached %s (last %s)", h, kind, tr.Status(h).Kind)
	return Status{}
}

func TestTrackerRegisterIsIdempotent(t *testing.T) {
	tr := NewTracker(StaticCompiler{}, sources(), nil)
	defer tr.Close()

	a := tr.Register(fillDescriptor("init"))
	b := tr.Register(fillDescriptor("init"))
	c := tr.Register(fillDescriptor("update"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, 2, tr.Len())
}

func TestTrackerReportsPendingUntilCompiled(t *testing.T) {
	gc := &gatedCompiler{gates: map[string]chan error{"init": make(chan error, 1)}}
	tr := NewTracker(gc, sources(), nil)
	defer tr.Close()

	h := tr.Register(fillDescriptor("init"))
	assert.Equal(t, Pending, tr.Status(h).Kind)
	assert.Nil(t, tr.Program(h))

	gc.gates["init"] <- nil
	waitFor(t, tr, h, Ready)
	require.NotNil(t, tr.Program(h))
	assert.Equal(t, "init", tr.Program(h).Entry())
}

func TestTrackerReportsFailure(t *testing.T) {
	boom := errors.New("boom")
	gc := &gatedCompiler{gates: map[string]chan error{"init": make(chan error, 1)}}
	tr := NewTracker(gc, sources(), nil)
	defer tr.Close()

	h := tr.Register(fillDescriptor("init"))
	gc.gates["init"] <- boom
	s := waitFor(t, tr, h, Failed)
	assert.ErrorIs(t, s.Err, boom)
	assert.Nil(t, tr.Program(h))
}

func TestTrackerMissingSourceFails(t *testing.T) {
	tr := NewTracker(StaticCompiler{}, fstest.MapFS{}, nil)
	defer tr.Close()

	h := tr.Register(fillDescriptor("init"))
	require.NoError(t, tr.Wait(context.Background()))
	s := tr.Status(h)
	assert.Equal(t, Failed, s.Kind)
	assert.Error(t, s.Err)
}

func TestTrackerUnknownHandle(t *testing.T) {
	tr := NewTracker(StaticCompiler{}, sources(), nil)
	defer tr.Close()
	assert.Equal(t, Failed, tr.Status(Handle(5)).Kind)
	assert.Nil(t, tr.Program(Handle(-1)))
}

func TestTrackerCloseCancelsPendingCompiles(t *testing.T) {
	gc := &gatedCompiler{gates: map[string]chan error{"init": make(chan error)}}
	tr := NewTracker(gc, sources(), nil)
	h := tr.Register(fillDescriptor("init"))
	tr.Close()
	assert.Equal(t, Failed, tr.Status(h).Kind)
}
