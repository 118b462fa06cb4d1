// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/extcomp"
	"github.com/gogpu/extcomp/buffer"
	"github.com/gogpu/extcomp/registry"
)

// Execution errors.
var (
	// ErrNilOutputRange indicates Execute was called without an output
	// range.
	ErrNilOutputRange = errors.New("compute: output range must not be nil")

	// ErrNilRegistry indicates Execute was called without a registry.
	ErrNilRegistry = errors.New("compute: registry must not be nil")

	// ErrMissingProgram indicates the computation's kernel program is
	// absent; the dispatch is aborted without side effects.
	ErrMissingProgram = errors.New("compute: computation has no compiled program")

	// ErrNotDeviceCapable indicates a GPU computation was requested for a
	// computation that does not expose device-resident inputs.
	ErrNotDeviceCapable = errors.New("compute: computation is not device-capable")
)

// Computation is a dispatchable computation produced by the graph builder.
type Computation interface {
	// Execute records the computation's work against outputRange.
	Execute(outputRange buffer.Range, reg *registry.Registry) error

	// DispatchCount returns the workgroup count of the dispatch.
	DispatchCount() int

	// NumOutputElements returns the number of output elements produced.
	NumOutputElements() int

	// BufferSpecs returns the output specs this computation describes to
	// the allocator itself. GPU computations return nil; their companion
	// reserve-only buffer sources describe the layout instead.
	BufferSpecs() []buffer.Spec
}

// GpuComputation executes one originating computation on the GPU: it
// builds the binding layout against the frame's output range, resolves the
// pipeline and resource bindings through the registry caches, and records
// bind/upload/dispatch commands on the shared compute command stream.
//
// A GpuComputation may be executed again on a later frame; the binding
// layout is rebuilt each time since buffer identities can change between
// frames. Concurrent Execute calls on the same GpuComputation are not
// supported; distinct computations may execute concurrently.
type GpuComputation struct {
	id            extcomp.Path
	resource      *ComputationResource
	dispatchCount int
	numElements   int

	// layoutErr records the most recent soft layout failure. The dispatch
	// proceeded without the offending attribute.
	layoutErr       error
	invalidBindings int
}

// NewGpuComputation creates a GPU computation over an already-built
// resource. Most callers use CreateGpuComputation instead.
func NewGpuComputation(id extcomp.Path, resource *ComputationResource, dispatchCount, numElements int) *GpuComputation {
	return &GpuComputation{
		id:            id,
		resource:      resource,
		dispatchCount: dispatchCount,
		numElements:   numElements,
	}
}

// ID returns the originating computation's path.
func (c *GpuComputation) ID() extcomp.Path { return c.id }

// Resource returns the computation's resource.
func (c *GpuComputation) Resource() *ComputationResource { return c.resource }

// DispatchCount implements Computation.
func (c *GpuComputation) DispatchCount() int { return c.dispatchCount }

// NumOutputElements implements Computation.
func (c *GpuComputation) NumOutputElements() int { return c.numElements }

// BufferSpecs implements Computation. GPU computations do not describe
// output layout to the allocator; the reserve-only buffer sources do.
func (c *GpuComputation) BufferSpecs() []buffer.Spec { return nil }

// LayoutError returns the soft layout failure recorded by the most recent
// Execute, or nil. The dispatch still ran; the offending attribute
// contributed neither constants nor a binding.
func (c *GpuComputation) LayoutError() error { return c.layoutErr }

// InvalidBindings returns how many attributes the most recent Execute
// skipped for unresolved bindings.
func (c *GpuComputation) InvalidBindings() int { return c.invalidBindings }

// Execute implements Computation. It builds the binding layout over
// outputRange and the resource's input ranges, resolves the pipeline and
// resource bindings through reg's caches, and records the dispatch:
// debug scope push, bind resources, bind pipeline, upload constants,
// dispatch (DispatchCount, 1), debug scope pop.
func (c *GpuComputation) Execute(outputRange buffer.Range, reg *registry.Registry) error {
	if outputRange == nil {
		return ErrNilOutputRange
	}
	if reg == nil {
		return ErrNilRegistry
	}

	program := c.resource.Program()
	if program == nil {
		return ErrMissingProgram
	}

	layout := buildBindingLayout(program.Binder(), outputRange,
		c.resource.Outputs(), c.resource.Inputs())
	c.layoutErr = layout.err
	c.invalidBindings = layout.invalidBindings

	pipeFp := registry.NewFingerprint().
		Combine(program.ID()).
		Combine(uint64(layout.constantsSize()))
	pipeline, err := reg.GetOrCreatePipeline(pipeFp, func() (*registry.Pipeline, error) {
		return c.createPipeline(reg.Device(), program, layout.constantsSize())
	})
	if err != nil {
		return fmt.Errorf("compute: resolve pipeline for %s: %w", c.id, err)
	}

	bindings, err := reg.GetOrCreateResourceBindings(layout.fingerprint, func() (*registry.ResourceBindings, error) {
		return c.createBindings(reg.Device(), program, layout.buffers)
	})
	if err != nil {
		return fmt.Errorf("compute: resolve bindings for %s: %w", c.id, err)
	}

	cmds := reg.GlobalComputeCmds()
	cmds.PushDebugGroup(string(c.id))
	defer cmds.PopDebugGroup()

	cmds.BindResources(bindings)
	cmds.BindPipeline(pipeline)
	cmds.SetConstantValues(layout.uniforms)
	if err := cmds.Dispatch(uint32(c.dispatchCount), 1); err != nil {
		return fmt.Errorf("compute: dispatch %s: %w", c.id, err)
	}

	slogger().Debug("compute: executed",
		"id", c.id,
		"dispatch_count", c.dispatchCount,
		"constants", len(layout.uniforms),
		"bound_buffers", len(layout.buffers),
		"invalid_bindings", layout.invalidBindings)
	return nil
}

// createPipeline is the pipeline-cache factory: it runs at most once per
// pipeline fingerprint.
func (c *GpuComputation) createPipeline(device registry.Device, program *KernelProgram, constantsSize int) (*registry.Pipeline, error) {
	handle, err := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  program.Name(),
		Layout: program.PipelineLayout(),
		Compute: hal.ComputeState{
			Module:     program.Module(),
			EntryPoint: "main",
		},
	})
	if err != nil {
		return nil, err
	}

	slogger().Debug("compute: pipeline created",
		"id", c.id,
		"program", program.Name(),
		"constants_bytes", constantsSize)
	return registry.NewPipeline(handle, program.ConstantsLayout(), constantsSize, program.Name()), nil
}

// createBindings is the bindings-cache factory: it runs at most once per
// bindings fingerprint, building one bind group over the buffers the
// layout pass collected.
func (c *GpuComputation) createBindings(device registry.Device, program *KernelProgram, buffers []boundBuffer) (*registry.ResourceBindings, error) {
	entries := make([]gputypes.BindGroupEntry, 0, len(buffers))
	for _, b := range buffers {
		var raw uintptr
		if b.handle != nil {
			raw = b.handle.NativeHandle()
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding: b.location,
			Resource: gputypes.BufferBinding{
				Buffer: raw,
				Offset: 0,
				Size:   0, // 0 = entire buffer
			},
		})
	}

	handle, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   program.Name() + "_resources_bg",
		Layout:  program.ResourceLayout(),
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}

	slogger().Debug("compute: resource bindings created",
		"id", c.id,
		"buffers", len(buffers))
	return registry.NewResourceBindings(handle, program.Name()), nil
}

// CreateGpuComputation builds the GPU computation for sourceComp and the
// primvar descriptors it feeds. It compiles the kernel program with one
// output per descriptor, bound under the descriptor's source output name,
// and collects the input ranges of sourceComp plus every computation it
// declares as an input, deduplicated by range identity.
//
// Returns ErrNotDeviceCapable if sourceComp does not expose device-
// resident inputs.
func CreateGpuComputation(delegate extcomp.SceneDelegate, sourceComp extcomp.Computation, descs []extcomp.PrimvarDescriptor) (*GpuComputation, error) {
	deviceComp, ok := sourceComp.(extcomp.DeviceComputation)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotDeviceCapable, sourceComp.ID())
	}

	renderIndex := delegate.RenderIndex()
	reg := renderIndex.ResourceRegistry()

	inputs := collectInputRanges(renderIndex, deviceComp)

	program, err := NewKernelProgram(reg.Device(), string(sourceComp.ID()),
		sourceComp.KernelSource(), descs, inputs)
	if err != nil {
		return nil, fmt.Errorf("compute: build kernel for %s: %w", sourceComp.ID(), err)
	}

	slogger().Debug("compute: gpu computation created",
		"id", sourceComp.ID(),
		"primvars", debugPrimvarNames(descs),
		"input_ranges", len(inputs),
		"elements", sourceComp.ElementCount())

	resource := NewComputationResource(program, descs, inputs)
	return NewGpuComputation(sourceComp.ID(), resource,
		sourceComp.DispatchCount(), sourceComp.ElementCount()), nil
}

// collectInputRanges gathers the device ranges feeding comp: its own
// input range plus the ranges of every computation its inputs chain from.
// A range already collected is not added twice.
func collectInputRanges(renderIndex extcomp.RenderIndex, comp extcomp.DeviceComputation) []buffer.Range {
	var ranges []buffer.Range

	add := func(rng buffer.Range) {
		if rng == nil {
			return
		}
		for _, existing := range ranges {
			if existing == rng {
				return
			}
		}
		ranges = append(ranges, rng)
	}

	add(comp.InputRange())

	for _, input := range comp.Inputs() {
		if input.SourceComputationID.IsEmpty() {
			continue
		}
		upstream := renderIndex.Computation(input.SourceComputationID)
		if upstream == nil {
			continue
		}
		if upstreamDev, ok := upstream.(extcomp.DeviceComputation); ok {
			add(upstreamDev.InputRange())
		}
	}

	return ranges
}

// debugPrimvarNames formats descriptor names for log lines.
func debugPrimvarNames(descs []extcomp.PrimvarDescriptor) string {
	names := make([]string, 0, len(descs))
	for _, d := range descs {
		names = append(names, d.Name)
	}
	return strings.Join(names, ", ")
}
