// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package registry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/extcomp/buffer"
)

// Command stream errors.
var (
	// ErrNoPipeline indicates Dispatch was called with no pipeline bound.
	ErrNoPipeline = errors.New("registry: no compute pipeline bound")

	// ErrNoBindings indicates Dispatch was called with no resources bound.
	ErrNoBindings = errors.New("registry: no resource bindings bound")

	// ErrSubmitTimeout indicates the GPU did not signal completion in time.
	ErrSubmitTimeout = errors.New("registry: gpu submit timed out")
)

// submitTimeout is the maximum time to wait for submitted GPU work.
const submitTimeout = 5 * time.Second

// minBufferSize is the smallest buffer the HAL will allocate.
const minBufferSize = 4

// ComputeCmds records compute dispatches into one command stream and
// submits them as a batch. A dispatch is assembled statefully: bind
// resources, bind a pipeline, set the constant values, then Dispatch.
//
// Constant values travel in a per-dispatch uniform buffer at group(1)
// binding(0). A fresh buffer per dispatch keeps earlier dispatches in the
// same batch from seeing later constants; the buffers are released after
// Submit.
//
// ComputeCmds is safe for concurrent use; each Dispatch records
// atomically with respect to others.
type ComputeCmds struct {
	mu     sync.Mutex
	device Device
	queue  Queue

	encoder  CommandEncoder
	encoding bool

	labels    []string
	pipeline  *Pipeline
	bindings  *ResourceBindings
	constants []byte

	// Per-batch transient objects, released on Submit.
	transientBufs   []buffer.Handle
	transientGroups []hal.BindGroup
	cmdBufs         []hal.CommandBuffer

	dispatches int
}

// newComputeCmds creates an idle command stream.
func newComputeCmds(device Device, queue Queue) *ComputeCmds {
	return &ComputeCmds{device: device, queue: queue}
}

// PushDebugGroup opens a debug scope. The innermost scope labels the
// compute passes recorded inside it.
func (c *ComputeCmds) PushDebugGroup(label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.labels = append(c.labels, label)
}

// PopDebugGroup closes the innermost debug scope.
func (c *ComputeCmds) PopDebugGroup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.labels) > 0 {
		c.labels = c.labels[:len(c.labels)-1]
	}
}

// BindResources sets the resource bind group for the next dispatch.
func (c *ComputeCmds) BindResources(bindings *ResourceBindings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings = bindings
}

// BindPipeline sets the compute pipeline for the next dispatch.
func (c *ComputeCmds) BindPipeline(pipeline *Pipeline) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pipeline = pipeline
}

// SetConstantValues stages the constant block for the next dispatch as
// little-endian int32 words.
func (c *ComputeCmds) SetConstantValues(values []int32) {
	buf := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.constants = buf
}

// Dispatch records one compute dispatch of (x, y, 1) workgroups using the
// currently bound pipeline, resources, and constants. The recorded work
// runs when Submit is called.
func (c *ComputeCmds) Dispatch(x, y uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pipeline == nil {
		return ErrNoPipeline
	}
	if c.bindings == nil {
		return ErrNoBindings
	}

	if err := c.ensureEncodingLocked(); err != nil {
		return err
	}

	constantsGroup, err := c.uploadConstantsLocked()
	if err != nil {
		return err
	}

	pass := c.encoder.BeginComputePass(&hal.ComputePassDescriptor{
		Label: c.currentLabelLocked(),
	})
	pass.SetPipeline(c.pipeline.Handle())
	pass.SetBindGroup(0, c.bindings.Handle(), nil)
	if constantsGroup != nil {
		pass.SetBindGroup(1, constantsGroup, nil)
	}
	pass.Dispatch(x, y, 1)
	pass.End()

	c.dispatches++

	slogger().Debug("compute cmds: dispatch recorded",
		"label", c.currentLabelLocked(),
		"pipeline", c.pipeline.DebugName(),
		"workgroups_x", x,
		"workgroups_y", y,
		"constants_bytes", len(c.constants))
	return nil
}

// Submit ends encoding, submits the recorded dispatches, and blocks until
// the GPU signals completion. Transient constant buffers and bind groups
// are released afterwards. Submit with nothing recorded is a no-op.
func (c *ComputeCmds) Submit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.encoding {
		return nil
	}

	cmdBuf, err := c.encoder.EndEncoding()
	if err != nil {
		c.releaseTransientsLocked()
		c.resetLocked()
		return fmt.Errorf("registry: end encoding: %w", err)
	}
	c.cmdBufs = append(c.cmdBufs, cmdBuf)

	err = c.submitAndWaitLocked()

	c.releaseTransientsLocked()
	c.resetLocked()
	return err
}

// Dispatches returns the number of dispatches recorded since the last
// Submit.
func (c *ComputeCmds) Dispatches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dispatches
}

// currentLabelLocked returns the innermost debug scope label, or a
// default when no scope is open. Caller holds c.mu.
func (c *ComputeCmds) currentLabelLocked() string {
	if len(c.labels) == 0 {
		return "extcomp"
	}
	return c.labels[len(c.labels)-1]
}

// ensureEncodingLocked lazily creates the command encoder and begins
// recording. Caller holds c.mu.
func (c *ComputeCmds) ensureEncodingLocked() error {
	if c.encoding {
		return nil
	}

	encoder, err := c.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "extcomp",
	})
	if err != nil {
		return fmt.Errorf("registry: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("extcomp"); err != nil {
		return fmt.Errorf("registry: begin encoding: %w", err)
	}

	c.encoder = encoder
	c.encoding = true
	return nil
}

// uploadConstantsLocked writes the staged constant block into a fresh
// uniform buffer and wraps it in a bind group matching the bound
// pipeline's constants layout. Returns nil if the pipeline takes no
// constants. Caller holds c.mu.
func (c *ComputeCmds) uploadConstantsLocked() (hal.BindGroup, error) {
	if c.pipeline.ConstantsSize() == 0 {
		return nil, nil
	}

	size := uint64(len(c.constants))
	if size < minBufferSize {
		size = minBufferSize
	}

	buf, err := c.device.CreateBuffer(&hal.BufferDescriptor{
		Label: c.pipeline.DebugName() + "_constants",
		Size:  size,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("registry: create constants buffer: %w", err)
	}
	c.transientBufs = append(c.transientBufs, buf)

	if len(c.constants) > 0 {
		c.queue.WriteBuffer(buf, 0, c.constants)
	}

	var raw uintptr
	if buf != nil {
		raw = buf.NativeHandle()
	}
	group, err := c.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  c.pipeline.DebugName() + "_constants_bg",
		Layout: c.pipeline.ConstantsLayout(),
		Entries: []gputypes.BindGroupEntry{
			{
				Binding: 0,
				Resource: gputypes.BufferBinding{
					Buffer: raw,
					Offset: 0,
					Size:   0, // 0 = entire buffer
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("registry: create constants bind group: %w", err)
	}
	c.transientGroups = append(c.transientGroups, group)
	return group, nil
}

// submitAndWaitLocked submits the recorded command buffers and waits on a
// fence. Caller holds c.mu.
func (c *ComputeCmds) submitAndWaitLocked() error {
	fence, err := c.device.CreateFence()
	if err != nil {
		return fmt.Errorf("registry: create fence: %w", err)
	}
	defer c.device.DestroyFence(fence)

	if err := c.queue.Submit(c.cmdBufs, fence, 1); err != nil {
		return fmt.Errorf("registry: submit: %w", err)
	}

	ok, err := c.device.Wait(fence, 1, submitTimeout)
	if err != nil {
		return fmt.Errorf("registry: wait for gpu: %w", err)
	}
	if !ok {
		return ErrSubmitTimeout
	}

	slogger().Debug("compute cmds: batch submitted",
		"dispatches", c.dispatches)
	return nil
}

// releaseTransientsLocked destroys per-batch constant buffers and bind
// groups. Caller holds c.mu.
func (c *ComputeCmds) releaseTransientsLocked() {
	for _, g := range c.transientGroups {
		if g != nil {
			c.device.DestroyBindGroup(g)
		}
	}
	for _, b := range c.transientBufs {
		if b != nil {
			c.device.DestroyBuffer(b)
		}
	}
	c.transientGroups = nil
	c.transientBufs = nil
}

// resetLocked returns the stream to idle. Caller holds c.mu.
func (c *ComputeCmds) resetLocked() {
	c.encoder = nil
	c.encoding = false
	c.cmdBufs = nil
	c.pipeline = nil
	c.bindings = nil
	c.constants = nil
	c.dispatches = 0
}
