// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/extcomp"
	"github.com/gogpu/extcomp/buffer"
	"github.com/gogpu/extcomp/registry"
)

// ErrNotResolved indicates a CPU computation value was requested before
// Resolve ran.
var ErrNotResolved = errors.New("compute: cpu computation not resolved")

// CpuComputation evaluates one originating computation on the CPU by
// invoking the scene delegate. The delegate runs at most once; every
// primvar source sharing the computation reads from the same resolved
// value set.
//
// CpuComputation is safe for concurrent use.
type CpuComputation struct {
	id          extcomp.Path
	delegate    extcomp.SceneDelegate
	numElements int

	once sync.Once

	// mu guards values and err so Value may race the first Resolve.
	mu     sync.RWMutex
	values map[string]extcomp.Value
	err    error
}

// NewCpuComputation creates a CPU computation for the computation at id.
func NewCpuComputation(id extcomp.Path, delegate extcomp.SceneDelegate, numElements int) *CpuComputation {
	return &CpuComputation{
		id:          id,
		delegate:    delegate,
		numElements: numElements,
	}
}

// ID returns the originating computation's path.
func (c *CpuComputation) ID() extcomp.Path { return c.id }

// Resolve invokes the delegate and captures the computation's output
// values. Only the first call does work; later calls return the same
// result.
func (c *CpuComputation) Resolve() error {
	c.once.Do(func() {
		values, err := c.delegate.InvokeComputation(c.id)
		if err != nil {
			c.mu.Lock()
			c.err = fmt.Errorf("compute: invoke %s: %w", c.id, err)
			c.mu.Unlock()
			return
		}
		if values == nil {
			values = map[string]extcomp.Value{}
		}
		c.mu.Lock()
		c.values = values
		c.mu.Unlock()

		slogger().Debug("compute: cpu computation resolved",
			"id", c.id,
			"outputs", len(values))
	})

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Value returns the resolved value of the named output. Calling Value
// before Resolve has completed returns ErrNotResolved.
func (c *CpuComputation) Value(output string) (extcomp.Value, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.values == nil {
		if c.err != nil {
			return extcomp.Value{}, c.err
		}
		return extcomp.Value{}, ErrNotResolved
	}
	v, ok := c.values[output]
	if !ok {
		return extcomp.Value{}, fmt.Errorf("%w: %s on %s",
			extcomp.ErrUnknownOutput, output, c.id)
	}
	return v, nil
}

// Execute implements Computation. CPU computations record no GPU work;
// executing one resolves its values.
func (c *CpuComputation) Execute(_ buffer.Range, _ *registry.Registry) error {
	return c.Resolve()
}

// DispatchCount implements Computation. CPU computations dispatch nothing.
func (c *CpuComputation) DispatchCount() int { return 0 }

// NumOutputElements implements Computation.
func (c *CpuComputation) NumOutputElements() int { return c.numElements }

// BufferSpecs implements Computation. The data-carrying primvar sources
// describe the layout.
func (c *CpuComputation) BufferSpecs() []buffer.Spec { return nil }
