// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package compute builds and executes extension computations: kernel
// programs compiled from WGSL, the binding layout that feeds them, the
// GPU and CPU computation objects, and the graph builder that turns dirty
// primvar descriptors into computations and buffer sources.
package compute

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/extcomp"
	"github.com/gogpu/extcomp/buffer"
	"github.com/gogpu/extcomp/registry"
)

// Kernel program errors.
var (
	// ErrEmptyKernel indicates a kernel program was requested for a
	// computation with no kernel source.
	ErrEmptyKernel = errors.New("compute: empty kernel source")

	// ErrNoBindings indicates the kernel declares no buffer bindings.
	ErrNoBindings = errors.New("compute: kernel has no buffer bindings")
)

// BindingKind classifies a shader buffer binding.
type BindingKind int

const (
	// BindingInvalid marks an unresolved binding.
	BindingInvalid BindingKind = iota

	// BindingStorageBuffer is a read-write storage buffer (outputs).
	BindingStorageBuffer

	// BindingReadOnlyStorageBuffer is a read-only storage buffer (inputs).
	BindingReadOnlyStorageBuffer

	// BindingUniformBuffer is a uniform buffer. Computation inputs never
	// use this kind; an input resolved to it is a configuration error.
	BindingUniformBuffer
)

// String returns the binding kind name.
func (k BindingKind) String() string {
	switch k {
	case BindingStorageBuffer:
		return "storage"
	case BindingReadOnlyStorageBuffer:
		return "read_only_storage"
	case BindingUniformBuffer:
		return "uniform"
	default:
		return "invalid"
	}
}

// Binding is one resolved shader binding: its binding point within
// group(0) and its access classification.
type Binding struct {
	Location uint32
	Kind     BindingKind
	Writable bool
}

// Valid reports whether the binding resolved.
func (b Binding) Valid() bool { return b.Kind != BindingInvalid }

// Binder maps logical attribute names to their binding points in the
// compiled kernel. Binding points are assigned deterministically: outputs
// first in declaration order, then input attributes in range-then-attribute
// order; a name already assigned keeps its first assignment.
type Binder struct {
	bindings map[string]Binding
	ordered  []string
}

// NewBinder creates an empty binder.
func NewBinder() *Binder {
	return &Binder{bindings: make(map[string]Binding)}
}

// Assign adds a binding for name at the next free binding point.
// Assigning a name twice keeps the first binding.
func (b *Binder) Assign(name string, kind BindingKind, writable bool) {
	if _, ok := b.bindings[name]; ok {
		return
	}
	b.bindings[name] = Binding{
		Location: uint32(len(b.ordered)),
		Kind:     kind,
		Writable: writable,
	}
	b.ordered = append(b.ordered, name)
}

// Binding returns the binding for name. The zero Binding (invalid) is
// returned for unknown names.
func (b *Binder) Binding(name string) Binding {
	return b.bindings[name]
}

// Len returns the number of assigned bindings.
func (b *Binder) Len() int { return len(b.ordered) }

// Names returns the assigned names in binding-point order.
// Callers must not mutate the returned slice.
func (b *Binder) Names() []string { return b.ordered }

// programIDs assigns process-unique identities to kernel programs.
// Identity feeds the pipeline fingerprint.
var programIDs atomic.Uint64

// KernelProgram is a compiled compute kernel plus the layouts a dispatch
// needs: the resource bind group layout at group(0), the constant-block
// layout at group(1), and the pipeline layout spanning both.
type KernelProgram struct {
	id   uint64
	name string

	module          hal.ShaderModule
	resourceLayout  hal.BindGroupLayout
	constantsLayout hal.BindGroupLayout
	pipelineLayout  hal.PipelineLayout

	binder *Binder
}

// kernelOutputName returns the binder key for an output descriptor: the
// source computation's output name, which is what the kernel declares.
// A descriptor without one falls back to the primvar name.
func kernelOutputName(desc extcomp.PrimvarDescriptor) string {
	if desc.SourceOutputName != "" {
		return desc.SourceOutputName
	}
	return desc.Name
}

// NewKernelProgram compiles wgsl and creates the program's layouts.
// Binding points are assigned from the outputs' source output names
// (writable) then the attributes of each input range (read-only),
// matching the order the binding layout builder walks them.
func NewKernelProgram(device registry.Device, name, wgsl string, outputs []extcomp.PrimvarDescriptor, inputs []buffer.Range) (*KernelProgram, error) {
	if wgsl == "" {
		return nil, ErrEmptyKernel
	}

	binder := NewBinder()
	for _, desc := range outputs {
		binder.Assign(kernelOutputName(desc), BindingStorageBuffer, true)
	}
	for _, rng := range inputs {
		if rng == nil {
			continue
		}
		for _, nr := range rng.Resources() {
			binder.Assign(nr.Name, BindingReadOnlyStorageBuffer, false)
		}
	}
	if binder.Len() == 0 {
		return nil, ErrNoBindings
	}

	spirv, err := compileToSPIRV(wgsl)
	if err != nil {
		return nil, fmt.Errorf("compute: compile kernel %q: %w", name, err)
	}

	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: name,
		Source: hal.ShaderSource{
			SPIRV: spirv,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("compute: create shader module %q: %w", name, err)
	}

	resourceLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   name + "_resources_bgl",
		Entries: resourceLayoutEntries(binder),
	})
	if err != nil {
		device.DestroyShaderModule(module)
		return nil, fmt.Errorf("compute: create resource layout %q: %w", name, err)
	}

	constantsLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: name + "_constants_bgl",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		device.DestroyBindGroupLayout(resourceLayout)
		device.DestroyShaderModule(module)
		return nil, fmt.Errorf("compute: create constants layout %q: %w", name, err)
	}

	pipelineLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            name + "_pl",
		BindGroupLayouts: []hal.BindGroupLayout{resourceLayout, constantsLayout},
	})
	if err != nil {
		device.DestroyBindGroupLayout(constantsLayout)
		device.DestroyBindGroupLayout(resourceLayout)
		device.DestroyShaderModule(module)
		return nil, fmt.Errorf("compute: create pipeline layout %q: %w", name, err)
	}

	p := &KernelProgram{
		id:              programIDs.Add(1),
		name:            name,
		module:          module,
		resourceLayout:  resourceLayout,
		constantsLayout: constantsLayout,
		pipelineLayout:  pipelineLayout,
		binder:          binder,
	}

	slogger().Debug("compute: kernel program created",
		"name", name,
		"bindings", binder.Len(),
		"spirv_words", len(spirv))
	return p, nil
}

// ID returns the program's process-unique identity.
func (p *KernelProgram) ID() uint64 { return p.id }

// Name returns the program's debug name.
func (p *KernelProgram) Name() string { return p.name }

// Module returns the compiled shader module.
func (p *KernelProgram) Module() hal.ShaderModule { return p.module }

// ResourceLayout returns the bind group layout at group(0).
func (p *KernelProgram) ResourceLayout() hal.BindGroupLayout { return p.resourceLayout }

// ConstantsLayout returns the bind group layout at group(1).
func (p *KernelProgram) ConstantsLayout() hal.BindGroupLayout { return p.constantsLayout }

// PipelineLayout returns the pipeline layout.
func (p *KernelProgram) PipelineLayout() hal.PipelineLayout { return p.pipelineLayout }

// Binder returns the program's resource binder.
func (p *KernelProgram) Binder() *Binder { return p.binder }

// Destroy releases the program's device objects.
func (p *KernelProgram) Destroy(device registry.Device) {
	if p.pipelineLayout != nil {
		device.DestroyPipelineLayout(p.pipelineLayout)
		p.pipelineLayout = nil
	}
	if p.constantsLayout != nil {
		device.DestroyBindGroupLayout(p.constantsLayout)
		p.constantsLayout = nil
	}
	if p.resourceLayout != nil {
		device.DestroyBindGroupLayout(p.resourceLayout)
		p.resourceLayout = nil
	}
	if p.module != nil {
		device.DestroyShaderModule(p.module)
		p.module = nil
	}
}

// resourceLayoutEntries builds the group(0) layout entries from the binder.
func resourceLayoutEntries(binder *Binder) []gputypes.BindGroupLayoutEntry {
	entries := make([]gputypes.BindGroupLayoutEntry, 0, binder.Len())
	for _, name := range binder.Names() {
		b := binder.Binding(name)
		bindingType := gputypes.BufferBindingTypeReadOnlyStorage
		if b.Writable {
			bindingType = gputypes.BufferBindingTypeStorage
		}
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    b.Location,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: bindingType},
		})
	}
	return entries
}

// compileToSPIRV compiles WGSL source to SPIR-V words.
// SPIR-V is little-endian 32-bit words.
func compileToSPIRV(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, err
	}

	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirvCode, nil
}
