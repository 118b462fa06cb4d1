// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"github.com/gogpu/extcomp"
	"github.com/gogpu/extcomp/buffer"
)

// ComputationResource ties a compiled kernel program to the output primvar
// descriptors and input ranges of one originating computation. The full
// descriptors are kept because each output carries two names: the primvar
// name resolving the output range and the source output name resolving the
// kernel binding. It is created by CreateGpuComputation, owned by the
// computation, and shared read-only thereafter.
type ComputationResource struct {
	program *KernelProgram
	outputs []extcomp.PrimvarDescriptor
	inputs  []buffer.Range
}

// NewComputationResource creates a resource over the given program, output
// primvar descriptors, and input ranges.
func NewComputationResource(program *KernelProgram, outputs []extcomp.PrimvarDescriptor, inputs []buffer.Range) *ComputationResource {
	return &ComputationResource{
		program: program,
		outputs: outputs,
		inputs:  inputs,
	}
}

// Program returns the compiled kernel program, or nil if compilation
// never succeeded.
func (r *ComputationResource) Program() *KernelProgram { return r.program }

// Outputs returns the output primvar descriptors in descriptor order.
// Callers must not mutate the returned slice.
func (r *ComputationResource) Outputs() []extcomp.PrimvarDescriptor { return r.outputs }

// Inputs returns the input ranges in collection order.
// Callers must not mutate the returned slice.
func (r *ComputationResource) Inputs() []buffer.Range { return r.inputs }
