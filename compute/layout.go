// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"errors"
	"fmt"

	"github.com/gogpu/extcomp"
	"github.com/gogpu/extcomp/buffer"
	"github.com/gogpu/extcomp/registry"
)

// ErrUnsupportedLayout indicates an input attribute resolved to a binding
// kind the dense storage-buffer indexing scheme cannot address.
var ErrUnsupportedLayout = errors.New("compute: unsupported input memory layout")

// boundBuffer is one device buffer the dispatch binds: the buffer, its
// binding point, and its access mode. The layout builder collects these in
// the same pass that emits the constant block, so the bindings cache
// factory never re-walks the attributes.
type boundBuffer struct {
	name     string
	handle   buffer.Handle
	location uint32
	writable bool
}

// bindingLayout is the product of one layout-builder pass: the packed
// constant block, the bindings fingerprint over the bound buffer
// identities, the buffers to bind, and the failures encountered.
type bindingLayout struct {
	// uniforms is the packed constant block: the destination element
	// offset, then (component offset, component stride) per valid output,
	// then (component offset, component count) per valid input.
	uniforms []int32

	// fingerprint combines the identities of every bound buffer, outputs
	// first in descriptor order, then inputs in range-then-attribute order.
	fingerprint registry.Fingerprint

	// buffers lists the bound buffers in the same order the fingerprint
	// combined them.
	buffers []boundBuffer

	// invalidBindings counts attributes skipped for an unresolved binding
	// point or missing device buffer.
	invalidBindings int

	// err records the first unsupported-layout error, if any. The layout
	// is still usable; the offending attribute contributed nothing.
	err error
}

// buildBindingLayout walks the output primvar descriptors against
// outputRange and then every input range, emitting each attribute's
// constant-block entries, its fingerprint contribution, and its buffer
// binding together. One pass produces all three, so the constant block
// and the fingerprint cannot disagree about which attributes participate.
//
// An output carries two names: its primvar name resolves the resource in
// outputRange, while the source computation's output name resolves the
// binding point in the compiled kernel.
//
// An attribute whose binding point or device buffer does not resolve, or
// whose format has no component size, is skipped and counted; the
// remaining attributes are unaffected. An input attribute bound to a
// non-storage binding kind records ErrUnsupportedLayout and is skipped
// likewise.
func buildBindingLayout(binder *Binder, outputRange buffer.Range, outputs []extcomp.PrimvarDescriptor, inputs []buffer.Range) bindingLayout {
	layout := bindingLayout{
		uniforms:    []int32{int32(outputRange.ElementOffset())},
		fingerprint: registry.NewFingerprint(),
	}

	for _, desc := range outputs {
		res := outputRange.Resource(desc.Name)
		binding := binder.Binding(kernelOutputName(desc))
		if !binding.Valid() || !res.Valid() {
			layout.invalidBindings++
			slogger().Warn("compute: output binding unresolved, skipping",
				"name", desc.Name)
			continue
		}

		compSize := int32(res.Format().ComponentSize())
		if compSize == 0 {
			layout.invalidBindings++
			slogger().Warn("compute: output format has no component size, skipping",
				"name", desc.Name,
				"format", res.Format().String())
			continue
		}

		layout.uniforms = append(layout.uniforms,
			int32(res.Offset())/compSize,
			int32(res.Stride())/compSize)
		layout.fingerprint = layout.fingerprint.Combine(res.ID())
		layout.buffers = append(layout.buffers, boundBuffer{
			name:     desc.Name,
			handle:   res.Handle(),
			location: binding.Location,
			writable: true,
		})
	}

	for _, rng := range inputs {
		if rng == nil {
			continue
		}
		for _, nr := range rng.Resources() {
			res := nr.Resource
			binding := binder.Binding(nr.Name)
			if !binding.Valid() || !res.Valid() {
				layout.invalidBindings++
				slogger().Warn("compute: input binding unresolved, skipping",
					"name", nr.Name)
				continue
			}

			compSize := int32(res.Format().ComponentSize())
			if compSize == 0 {
				layout.invalidBindings++
				slogger().Warn("compute: input format has no component size, skipping",
					"name", nr.Name,
					"format", res.Format().String())
				continue
			}

			// Inputs are indexed with an implicit dense stride; only
			// storage-class bindings carry that layout.
			if binding.Kind != BindingStorageBuffer && binding.Kind != BindingReadOnlyStorageBuffer {
				if layout.err == nil {
					layout.err = fmt.Errorf("%w: input %q bound as %s",
						ErrUnsupportedLayout, nr.Name, binding.Kind)
				}
				slogger().Error("compute: unsupported input layout, skipping",
					"name", nr.Name,
					"kind", binding.Kind.String())
				continue
			}

			layout.uniforms = append(layout.uniforms,
				int32(rng.ByteOffset(nr.Name)+res.Offset())/compSize,
				int32(res.Format().ComponentCount()))
			layout.fingerprint = layout.fingerprint.Combine(res.ID())
			layout.buffers = append(layout.buffers, boundBuffer{
				name:     nr.Name,
				handle:   res.Handle(),
				location: binding.Location,
				writable: false,
			})
		}
	}

	return layout
}

// constantsSize returns the constant block's byte size.
func (l *bindingLayout) constantsSize() int {
	return len(l.uniforms) * 4
}
