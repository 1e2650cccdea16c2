package kernel

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/gogpu/naga"
)

// Source is the text of a kernel source file.
type Source struct {
	Name string
	Text string
}

// Program is a compiled, dispatchable kernel.
type Program struct {
	Descriptor *Descriptor
	// SPIRV holds the compiled module words when a shader compiler produced
	// them. The CPU device ignores it.
	SPIRV []uint32
}

// Entry returns the entry point the program was compiled for.
func (p *Program) Entry() string { return p.Descriptor.Entry }

// Compiler turns a descriptor and its source into a Program.
type Compiler interface {
	Compile(ctx context.Context, src Source, d *Descriptor) (*Program, error)
}

// ErrNoBody reports a descriptor without a host implementation.
var ErrNoBody = errors.New("kernel: entry point has no body")

var (
	entryPattern   = regexp.MustCompile(`@compute\s*@workgroup_size\(\s*(\d+)\s*,\s*(\d+)\s*(?:,\s*(\d+)\s*)?\)\s*fn\s+(\w+)\s*\(`)
	bindingPattern = regexp.MustCompile(`@group\(\s*0\s*\)\s*@binding\(\s*(\d+)\s*\)`)
)

// NagaCompiler validates entry points and bindings in WGSL sources and
// compiles each distinct source once to SPIR-V with naga.
type NagaCompiler struct {
	mu      sync.Mutex
	modules map[string]*module
}

type module struct {
	once  sync.Once
	spirv []uint32
	err   error
}

// NewNagaCompiler returns a compiler with an empty module cache.
func NewNagaCompiler() *NagaCompiler {
	return &NagaCompiler{modules: make(map[string]*module)}
}

// Compile implements Compiler.
func (c *NagaCompiler) Compile(ctx context.Context, src Source, d *Descriptor) (*Program, error) {
	if d.Body == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoBody, d.Entry)
	}
	if err := CheckSource(src, d); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := c.module(src.Text)
	m.once.Do(func() {
		m.spirv, m.err = compileSPIRV(src.Text)
	})
	if m.err != nil {
		return nil, fmt.Errorf("kernel %s: %s: %w", d.Entry, src.Name, m.err)
	}
	return &Program{Descriptor: d, SPIRV: m.spirv}, nil
}

func (c *NagaCompiler) module(text string) *module {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.modules == nil {
		c.modules = make(map[string]*module)
	}
	m, ok := c.modules[text]
	if !ok {
		m = &module{}
		c.modules[text] = m
	}
	return m
}

func compileSPIRV(text string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(text)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}
	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// CheckSource verifies that src declares d's entry point as a compute stage
// with d's workgroup tile and declares every slot d binds.
func CheckSource(src Source, d *Descriptor) error {
	found := false
	for _, m := range entryPattern.FindAllStringSubmatch(src.Text, -1) {
		if m[4] != d.Entry {
			continue
		}
		found = true
		x, _ := strconv.Atoi(m[1])
		y, _ := strconv.Atoi(m[2])
		if x != d.Tile[0] || y != d.Tile[1] {
			return fmt.Errorf("kernel %s: %s declares workgroup %dx%d, expected %dx%d",
				d.Entry, src.Name, x, y, d.Tile[0], d.Tile[1])
		}
	}
	if !found {
		return fmt.Errorf("kernel %s: entry point not found in %s", d.Entry, src.Name)
	}
	declared := make(map[int]bool)
	for _, m := range bindingPattern.FindAllStringSubmatch(src.Text, -1) {
		slot, _ := strconv.Atoi(m[1])
		declared[slot] = true
	}
	for _, b := range d.Bindings {
		if !declared[b.Slot] {
			return fmt.Errorf("kernel %s: %s does not declare binding %d", d.Entry, src.Name, b.Slot)
		}
	}
	return nil
}

// StaticCompiler marks every descriptor with a body as ready without
// compiling shader code. Entries listed in Fail are rejected with the
// associated error.
type StaticCompiler struct {
	Fail map[string]error
}

// Compile implements Compiler.
func (c StaticCompiler) Compile(ctx context.Context, _ Source, d *Descriptor) (*Program, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := c.Fail[d.Entry]; ok {
		if err == nil {
			err = fmt.Errorf("kernel %s: forced failure", d.Entry)
		}
		return nil, err
	}
	if d.Body == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoBody, d.Entry)
	}
	return &Program{Descriptor: d}, nil
}
