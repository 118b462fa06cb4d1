// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package extcomp

import (
	"errors"
	"fmt"

	"github.com/gogpu/extcomp/buffer"
	"github.com/gogpu/extcomp/registry"
)

// Scene errors.
var (
	// ErrUnknownComputation indicates a delegate was asked about a
	// computation id it does not advertise.
	ErrUnknownComputation = errors.New("extcomp: unknown computation")

	// ErrUnknownOutput indicates a computation value was requested for an
	// output name the computation does not produce.
	ErrUnknownOutput = errors.New("extcomp: unknown computation output")
)

// Path identifies a prim or computation in the scene hierarchy.
// The empty path is invalid.
type Path string

// IsEmpty reports whether the path is the invalid empty path.
func (p Path) IsEmpty() bool { return p == "" }

// String returns the path text.
func (p Path) String() string { return string(p) }

// PrimvarDescriptor declares that one of a prim's primvars is produced by
// a computation output rather than authored directly.
type PrimvarDescriptor struct {
	// Name is the primvar name on the prim (e.g. "points").
	Name string

	// SourceComputationID is the path of the computation producing the
	// value.
	SourceComputationID Path

	// SourceOutputName is the computation output feeding this primvar.
	SourceOutputName string

	// ValueType is the primvar's element format.
	ValueType buffer.Format
}

// ComputationInput declares one input of a computation. An input either
// names an aggregated attribute the allocator already holds (chained from
// another computation's output range) or is produced on the CPU by the
// delegate.
type ComputationInput struct {
	// Name is the input attribute name inside the kernel.
	Name string

	// SourceComputationID, when non-empty, names the upstream computation
	// whose output range carries this input.
	SourceComputationID Path

	// SourceOutputName is the upstream output name when chained.
	SourceOutputName string
}

// Computation is one kernel advertised by the scene delegate.
type Computation interface {
	// ID returns the computation's path.
	ID() Path

	// DispatchCount returns the number of kernel invocations to launch.
	DispatchCount() int

	// ElementCount returns the number of output elements produced.
	ElementCount() int

	// KernelSource returns the compute kernel source, or "" when the
	// computation runs on the CPU.
	KernelSource() string

	// Inputs returns the computation's input declarations.
	Inputs() []ComputationInput
}

// DeviceComputation is a Computation whose chained inputs live in an
// allocated device buffer range.
type DeviceComputation interface {
	Computation

	// InputRange returns the range holding the computation's aggregated
	// inputs, or nil when it has none.
	InputRange() buffer.Range
}

// Value is a CPU-side computed value: raw bytes in a known format.
type Value struct {
	Format buffer.Format
	Data   []byte
}

// NumElements returns how many elements of the value's format the data
// holds.
func (v Value) NumElements() int {
	size := v.Format.ByteSize()
	if size == 0 {
		return 0
	}
	return len(v.Data) / size
}

// SceneDelegate answers scene queries during computation graph building.
type SceneDelegate interface {
	// RenderIndex returns the render index this delegate populates.
	RenderIndex() RenderIndex

	// InvokeComputation runs a CPU computation and returns its outputs by
	// name.
	InvokeComputation(id Path) (map[string]Value, error)
}

// RenderIndex resolves computation ids and owns the shared resource
// registry.
type RenderIndex interface {
	// Computation returns the computation at id, or nil if absent.
	Computation(id Path) Computation

	// ResourceRegistry returns the device-object registry shared by all
	// computations.
	ResourceRegistry() *registry.Registry
}

// StaticComputation is a Computation backed by fixed fields, for scenes
// assembled in code.
type StaticComputation struct {
	Path           Path
	Dispatches     int
	Elements       int
	Kernel         string
	InputDecls     []ComputationInput
	AggregateRange buffer.Range
}

// ID implements Computation.
func (c *StaticComputation) ID() Path { return c.Path }

// DispatchCount implements Computation.
func (c *StaticComputation) DispatchCount() int { return c.Dispatches }

// ElementCount implements Computation.
func (c *StaticComputation) ElementCount() int { return c.Elements }

// KernelSource implements Computation.
func (c *StaticComputation) KernelSource() string { return c.Kernel }

// Inputs implements Computation.
func (c *StaticComputation) Inputs() []ComputationInput { return c.InputDecls }

// InputRange implements DeviceComputation.
func (c *StaticComputation) InputRange() buffer.Range { return c.AggregateRange }

// MapRenderIndex is a RenderIndex over an in-memory computation map.
type MapRenderIndex struct {
	Computations map[Path]Computation
	Registry     *registry.Registry
}

// Computation implements RenderIndex.
func (m *MapRenderIndex) Computation(id Path) Computation {
	return m.Computations[id]
}

// ResourceRegistry implements RenderIndex.
func (m *MapRenderIndex) ResourceRegistry() *registry.Registry {
	return m.Registry
}

// StaticDelegate is a SceneDelegate over a MapRenderIndex with canned CPU
// computation results.
type StaticDelegate struct {
	Index *MapRenderIndex

	// Values maps computation id to its CPU outputs.
	Values map[Path]map[string]Value

	// InvokeErr, when set, is returned by every InvokeComputation call.
	InvokeErr error
}

// RenderIndex implements SceneDelegate.
func (d *StaticDelegate) RenderIndex() RenderIndex { return d.Index }

// InvokeComputation implements SceneDelegate.
func (d *StaticDelegate) InvokeComputation(id Path) (map[string]Value, error) {
	if d.InvokeErr != nil {
		return nil, d.InvokeErr
	}
	values, ok := d.Values[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownComputation, id)
	}
	return values, nil
}
