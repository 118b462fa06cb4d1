// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package registry provides the shared device-object registry for extension
// computations: fingerprint-keyed caches over compute pipelines and resource
// bind groups, plus the compute command stream that records and submits
// dispatches.
//
// The registry does not talk to the HAL directly. It works against narrow
// Device and Queue interfaces; WrapDevice and WrapQueue adapt a live
// hal.Device/hal.Queue pair, and tests substitute in-memory fakes.
package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/extcomp/buffer"
)

// Registry errors.
var (
	// ErrNilDevice indicates the registry was constructed without a device.
	ErrNilDevice = errors.New("registry: device must not be nil")

	// ErrNilQueue indicates the registry was constructed without a queue.
	ErrNilQueue = errors.New("registry: queue must not be nil")
)

// Device is the subset of GPU device operations the computation core needs.
// The wrapper returned by WrapDevice adapts a hal.Device; tests implement
// this interface directly.
type Device interface {
	// CreateBuffer allocates a device buffer.
	CreateBuffer(desc *hal.BufferDescriptor) (buffer.Handle, error)

	// DestroyBuffer releases a buffer created by CreateBuffer.
	DestroyBuffer(buf buffer.Handle)

	// CreateShaderModule compiles a shader module from source.
	CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error)

	// DestroyShaderModule releases a shader module.
	DestroyShaderModule(module hal.ShaderModule)

	// CreateBindGroupLayout creates a bind group layout.
	CreateBindGroupLayout(desc *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error)

	// DestroyBindGroupLayout releases a bind group layout.
	DestroyBindGroupLayout(layout hal.BindGroupLayout)

	// CreateBindGroup creates a bind group over device buffers.
	CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error)

	// DestroyBindGroup releases a bind group.
	DestroyBindGroup(group hal.BindGroup)

	// CreatePipelineLayout creates a pipeline layout.
	CreatePipelineLayout(desc *hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error)

	// DestroyPipelineLayout releases a pipeline layout.
	DestroyPipelineLayout(layout hal.PipelineLayout)

	// CreateComputePipeline creates a compute pipeline.
	CreateComputePipeline(desc *hal.ComputePipelineDescriptor) (hal.ComputePipeline, error)

	// DestroyComputePipeline releases a compute pipeline.
	DestroyComputePipeline(pipeline hal.ComputePipeline)

	// CreateCommandEncoder creates a command encoder for recording.
	CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (CommandEncoder, error)

	// CreateFence creates a fence for submission tracking.
	CreateFence() (hal.Fence, error)

	// DestroyFence releases a fence.
	DestroyFence(fence hal.Fence)

	// Wait blocks until the fence reaches value or timeout elapses.
	// Returns false if the timeout elapsed first.
	Wait(fence hal.Fence, value uint64, timeout time.Duration) (bool, error)
}

// Queue is the subset of GPU queue operations the computation core needs.
type Queue interface {
	// WriteBuffer schedules a CPU-to-GPU copy into buf at offset.
	WriteBuffer(buf buffer.Handle, offset uint64, data []byte)

	// Submit submits command buffers, signaling fence with value on
	// completion.
	Submit(cmdBufs []hal.CommandBuffer, fence hal.Fence, value uint64) error
}

// CommandEncoder records GPU commands into a command buffer.
type CommandEncoder interface {
	// BeginEncoding starts recording under the given debug label.
	BeginEncoding(label string) error

	// BeginComputePass opens a compute pass.
	BeginComputePass(desc *hal.ComputePassDescriptor) ComputePassEncoder

	// EndEncoding finishes recording and returns the command buffer.
	EndEncoding() (hal.CommandBuffer, error)

	// DiscardEncoding abandons recording without producing a buffer.
	DiscardEncoding()
}

// ComputePassEncoder records commands within one compute pass.
type ComputePassEncoder interface {
	// SetPipeline binds the compute pipeline.
	SetPipeline(pipeline hal.ComputePipeline)

	// SetBindGroup binds a bind group at the given group index.
	SetBindGroup(index uint32, group hal.BindGroup, dynamicOffsets []uint32)

	// Dispatch launches workgroups.
	Dispatch(x, y, z uint32)

	// End closes the pass.
	End()
}

// Pipeline is a cached compute pipeline together with the layout of its
// constant block. Two executions whose pipeline fingerprints are equal share
// one Pipeline instance; pointer identity is the sharing witness.
type Pipeline struct {
	handle          hal.ComputePipeline
	constantsLayout hal.BindGroupLayout
	constantsSize   int
	debugName       string
}

// NewPipeline wraps a created compute pipeline for caching.
// constantsLayout is the bind group layout of the constant block at
// group(1) and constantsSize its byte size.
func NewPipeline(handle hal.ComputePipeline, constantsLayout hal.BindGroupLayout, constantsSize int, debugName string) *Pipeline {
	return &Pipeline{
		handle:          handle,
		constantsLayout: constantsLayout,
		constantsSize:   constantsSize,
		debugName:       debugName,
	}
}

// Handle returns the underlying compute pipeline.
func (p *Pipeline) Handle() hal.ComputePipeline { return p.handle }

// ConstantsLayout returns the bind group layout of the constant block.
func (p *Pipeline) ConstantsLayout() hal.BindGroupLayout { return p.constantsLayout }

// ConstantsSize returns the byte size of the constant block.
func (p *Pipeline) ConstantsSize() int { return p.constantsSize }

// DebugName returns the label the pipeline was created with.
func (p *Pipeline) DebugName() string { return p.debugName }

// ResourceBindings is a cached resource bind group. Executions whose bound
// buffer sets fingerprint equal share one instance.
type ResourceBindings struct {
	handle    hal.BindGroup
	debugName string
}

// NewResourceBindings wraps a created bind group for caching.
func NewResourceBindings(handle hal.BindGroup, debugName string) *ResourceBindings {
	return &ResourceBindings{handle: handle, debugName: debugName}
}

// Handle returns the underlying bind group.
func (b *ResourceBindings) Handle() hal.BindGroup { return b.handle }

// DebugName returns the label the bind group was created with.
func (b *ResourceBindings) DebugName() string { return b.debugName }

// Registry owns the fingerprint-keyed device-object caches and the global
// compute command stream. One registry serves one device for the lifetime
// of the render index.
//
// Registry is safe for concurrent use.
type Registry struct {
	device Device
	queue  Queue

	pipelines *InstanceRegistry[*Pipeline]
	bindings  *InstanceRegistry[*ResourceBindings]

	mu   sync.Mutex
	cmds *ComputeCmds
}

// Stats aggregates cache statistics across the registry.
type Stats struct {
	Pipelines InstanceStats
	Bindings  InstanceStats
}

// New creates a registry over the given device and queue.
func New(device Device, queue Queue) (*Registry, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	if queue == nil {
		return nil, ErrNilQueue
	}
	return &Registry{
		device:    device,
		queue:     queue,
		pipelines: NewInstanceRegistry[*Pipeline](),
		bindings:  NewInstanceRegistry[*ResourceBindings](),
	}, nil
}

// Device returns the registry's device.
func (r *Registry) Device() Device { return r.device }

// Queue returns the registry's queue.
func (r *Registry) Queue() Queue { return r.queue }

// GetOrCreatePipeline returns the pipeline cached under fp, running create
// to build it on first use. At most one create runs per fingerprint; all
// concurrent callers receive the same *Pipeline.
func (r *Registry) GetOrCreatePipeline(fp Fingerprint, create func() (*Pipeline, error)) (*Pipeline, error) {
	return r.pipelines.GetOrCreate(fp, create)
}

// GetOrCreateResourceBindings returns the resource bind group cached under
// fp, running create to build it on first use.
func (r *Registry) GetOrCreateResourceBindings(fp Fingerprint, create func() (*ResourceBindings, error)) (*ResourceBindings, error) {
	return r.bindings.GetOrCreate(fp, create)
}

// GlobalComputeCmds returns the shared compute command stream, creating it
// on first use. All computations for a commit record into this one stream
// so their dispatches submit together.
func (r *Registry) GlobalComputeCmds() *ComputeCmds {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmds == nil {
		r.cmds = newComputeCmds(r.device, r.queue)
	}
	return r.cmds
}

// Commit submits the global compute command stream and waits for the GPU
// to finish. It is a no-op if nothing was recorded.
func (r *Registry) Commit() error {
	r.mu.Lock()
	cmds := r.cmds
	r.mu.Unlock()

	if cmds == nil {
		return nil
	}
	return cmds.Submit()
}

// Clear drops all cached device objects, destroying them on the device.
// Called on device loss; subsequent GetOrCreate calls rebuild.
func (r *Registry) Clear() {
	// The constants layout is owned by the kernel program, not the cached
	// pipeline; only the pipeline handle is destroyed here.
	r.pipelines.Clear(func(p *Pipeline) {
		if p.handle != nil {
			r.device.DestroyComputePipeline(p.handle)
		}
	})
	r.bindings.Clear(func(b *ResourceBindings) {
		if b.handle != nil {
			r.device.DestroyBindGroup(b.handle)
		}
	})

	slogger().Debug("registry: caches cleared")
}

// Stats returns cache statistics for the registry.
func (r *Registry) Stats() Stats {
	return Stats{
		Pipelines: r.pipelines.Stats(),
		Bindings:  r.bindings.Stats(),
	}
}
