// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package buffer models device-visible attribute storage for extension
// computations: typed resources inside allocated buffer ranges, and the
// buffer sources that feed the allocator's commit pass.
//
// The package does not allocate device memory itself. Ranges are produced
// by an external buffer allocator; this package holds non-owning views.
package buffer

import "sync/atomic"

// Handle is a device buffer as exposed by the HAL.
// hal.Buffer from gogpu/wgpu satisfies it.
type Handle interface {
	// NativeHandle returns the backend-specific buffer handle.
	NativeHandle() uintptr
}

// resourceIDs assigns process-unique identities to resources.
// Identity, not content, keys the resource-bindings cache.
var resourceIDs atomic.Uint64

// Resource is one named attribute's view into a device buffer: the buffer
// handle plus the byte offset, byte stride, and format of the attribute.
//
// Resources are created by the buffer allocator when a range is committed.
// The computation core holds them only for the duration of one execution.
type Resource struct {
	handle Handle
	id     uint64
	offset int
	stride int
	format Format
}

// NewResource creates a resource view over a device buffer.
// Each resource receives a process-unique identity used for cache
// fingerprinting; two views of the same allocation must share one
// Resource to share identity.
func NewResource(handle Handle, offset, stride int, format Format) *Resource {
	return &Resource{
		handle: handle,
		id:     resourceIDs.Add(1),
		offset: offset,
		stride: stride,
		format: format,
	}
}

// Handle returns the underlying device buffer, or nil if the resource
// has no backing allocation.
func (r *Resource) Handle() Handle { return r.handle }

// ID returns the resource's process-unique identity.
func (r *Resource) ID() uint64 { return r.id }

// Offset returns the byte offset of the attribute within the buffer.
func (r *Resource) Offset() int { return r.offset }

// Stride returns the byte stride between consecutive elements.
func (r *Resource) Stride() int { return r.stride }

// Format returns the attribute's value type.
func (r *Resource) Format() Format { return r.format }

// Valid reports whether the resource is backed by a device buffer.
func (r *Resource) Valid() bool {
	return r != nil && r.handle != nil
}
