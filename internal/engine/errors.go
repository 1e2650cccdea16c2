package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration reports a simulation that cannot be constructed.
	ErrConfiguration = errors.New("engine: invalid configuration")
	// ErrCompileFailed reports a kernel that will never become dispatchable.
	ErrCompileFailed = errors.New("engine: kernel compile failed")
	// ErrDispatch reports a frame the backend did not accept.
	ErrDispatch = errors.New("engine: dispatch failed")
	// ErrClosed reports use of a closed simulation.
	ErrClosed = errors.New("engine: simulation closed")
)

// ConfigError describes a rejected construction parameter.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("engine: invalid %s: %s", e.Field, e.Reason)
}

// Is reports ErrConfiguration.
func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

func configErrorf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// CompileError carries the kernel that moved a simulation to StateFailed.
type CompileError struct {
	Variant string
	Entry   string
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("engine: %s kernel %q failed to compile: %v", e.Variant, e.Entry, e.Err)
}

// Is reports ErrCompileFailed.
func (e *CompileError) Is(target error) bool { return target == ErrCompileFailed }

func (e *CompileError) Unwrap() error { return e.Err }

// DispatchError wraps a backend failure for one frame.
type DispatchError struct {
	Frame uint64
	Err   error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("engine: frame %d: %v", e.Frame, e.Err)
}

// Is reports ErrDispatch.
func (e *DispatchError) Is(target error) bool { return target == ErrDispatch }

func (e *DispatchError) Unwrap() error { return e.Err }
