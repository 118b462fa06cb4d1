// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package buffer

// Spec names an attribute and its format so an allocator can reserve
// space for it before any data exists.
type Spec struct {
	Name   string
	Format Format
}

// Source produces (or merely reserves) data for one attribute during the
// allocator's commit pass. Sources queued by the computation graph builder
// come in two flavors: reserve-only sources for GPU-computed primvars,
// where the dispatch fills the range, and data-carrying sources for
// CPU-computed primvars.
type Source interface {
	// Name returns the destination attribute name.
	Name() string

	// BufferSpecs returns the specs this source wants allocated.
	BufferSpecs() []Spec

	// NumElements returns the element count the source will fill.
	NumElements() int

	// Resolve produces the source's data. For reserve-only sources it is
	// a no-op. Resolve may be called more than once; work happens once.
	Resolve() error

	// Data returns the resolved bytes, or nil for reserve-only sources.
	Data() []byte
}
