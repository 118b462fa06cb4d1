// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package registry

import (
	"fmt"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/extcomp/buffer"
)

// WrapDevice adapts a hal.Device to the registry's Device interface.
func WrapDevice(device hal.Device) Device {
	return &halDevice{dev: device}
}

// WrapQueue adapts a hal.Queue to the registry's Queue interface.
func WrapQueue(queue hal.Queue) Queue {
	return &halQueue{q: queue}
}

// NewFromProvider creates a registry over the shared GPU device of an
// external provider (e.g., a gogpu canvas context). The provider must
// expose HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue.
func NewFromProvider(provider gpucontext.DeviceProvider) (*Registry, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("registry: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("registry: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("registry: provider HalQueue is not hal.Queue")
	}
	return New(WrapDevice(device), WrapQueue(queue))
}

// halDevice adapts hal.Device to the narrow Device interface.
type halDevice struct {
	dev hal.Device
}

func (d *halDevice) CreateBuffer(desc *hal.BufferDescriptor) (buffer.Handle, error) {
	buf, err := d.dev.CreateBuffer(desc)
	if err != nil || buf == nil {
		return nil, err
	}
	return buf, nil
}

func (d *halDevice) DestroyBuffer(buf buffer.Handle) {
	if hb, ok := buf.(hal.Buffer); ok {
		d.dev.DestroyBuffer(hb)
	}
}

func (d *halDevice) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	return d.dev.CreateShaderModule(desc)
}

func (d *halDevice) DestroyShaderModule(module hal.ShaderModule) {
	d.dev.DestroyShaderModule(module)
}

func (d *halDevice) CreateBindGroupLayout(desc *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	return d.dev.CreateBindGroupLayout(desc)
}

func (d *halDevice) DestroyBindGroupLayout(layout hal.BindGroupLayout) {
	d.dev.DestroyBindGroupLayout(layout)
}

func (d *halDevice) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	return d.dev.CreateBindGroup(desc)
}

func (d *halDevice) DestroyBindGroup(group hal.BindGroup) {
	d.dev.DestroyBindGroup(group)
}

func (d *halDevice) CreatePipelineLayout(desc *hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	return d.dev.CreatePipelineLayout(desc)
}

func (d *halDevice) DestroyPipelineLayout(layout hal.PipelineLayout) {
	d.dev.DestroyPipelineLayout(layout)
}

func (d *halDevice) CreateComputePipeline(desc *hal.ComputePipelineDescriptor) (hal.ComputePipeline, error) {
	return d.dev.CreateComputePipeline(desc)
}

func (d *halDevice) DestroyComputePipeline(pipeline hal.ComputePipeline) {
	d.dev.DestroyComputePipeline(pipeline)
}

func (d *halDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (CommandEncoder, error) {
	encoder, err := d.dev.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	return &halEncoder{enc: encoder}, nil
}

func (d *halDevice) CreateFence() (hal.Fence, error) {
	return d.dev.CreateFence()
}

func (d *halDevice) DestroyFence(fence hal.Fence) {
	d.dev.DestroyFence(fence)
}

func (d *halDevice) Wait(fence hal.Fence, value uint64, timeout time.Duration) (bool, error) {
	return d.dev.Wait(fence, value, timeout)
}

// halQueue adapts hal.Queue to the narrow Queue interface.
type halQueue struct {
	q hal.Queue
}

func (q *halQueue) WriteBuffer(buf buffer.Handle, offset uint64, data []byte) {
	if hb, ok := buf.(hal.Buffer); ok {
		q.q.WriteBuffer(hb, offset, data)
	}
}

func (q *halQueue) Submit(cmdBufs []hal.CommandBuffer, fence hal.Fence, value uint64) error {
	return q.q.Submit(cmdBufs, fence, value)
}

// halEncoder adapts hal.CommandEncoder to the narrow CommandEncoder
// interface.
type halEncoder struct {
	enc hal.CommandEncoder
}

func (e *halEncoder) BeginEncoding(label string) error {
	return e.enc.BeginEncoding(label)
}

func (e *halEncoder) BeginComputePass(desc *hal.ComputePassDescriptor) ComputePassEncoder {
	return e.enc.BeginComputePass(desc)
}

func (e *halEncoder) EndEncoding() (hal.CommandBuffer, error) {
	return e.enc.EndEncoding()
}

func (e *halEncoder) DiscardEncoding() {
	e.enc.DiscardEncoding()
}
