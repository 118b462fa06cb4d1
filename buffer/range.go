// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package buffer

// NamedResource pairs an attribute name with its resource view.
// The order of NamedResources in a range is significant: constant-block
// layout and bindings fingerprints are built by walking it in order.
type NamedResource struct {
	Name     string
	Resource *Resource
}

// Range is an allocated region of device memory holding one or more named
// attributes. Ranges are produced and owned by an external buffer
// allocator; the computation core only reads them.
type Range interface {
	// ElementOffset returns the element index at which this range's data
	// begins within its aggregated buffer.
	ElementOffset() int

	// Resource returns the resource for the named attribute,
	// or nil if the range does not hold it.
	Resource(name string) *Resource

	// Resources returns all named resources in their layout order.
	// Callers must not mutate the returned slice.
	Resources() []NamedResource

	// ByteOffset returns the byte offset of the named attribute's data
	// within the aggregated buffer, or 0 if the attribute is absent.
	ByteOffset(name string) int
}

// StaticRange is a Range with a fixed set of resources, suitable for
// allocators that aggregate attributes up front.
type StaticRange struct {
	elementOffset int
	resources     []NamedResource
	byteOffsets   map[string]int
	index         map[string]int
}

// NewStaticRange creates an empty range starting at the given element offset.
func NewStaticRange(elementOffset int) *StaticRange {
	return &StaticRange{
		elementOffset: elementOffset,
		byteOffsets:   make(map[string]int),
		index:         make(map[string]int),
	}
}

// AddResource appends a named attribute to the range. byteOffset is the
// attribute's byte offset within the aggregated buffer. Adding a name twice
// replaces the earlier entry but keeps its position.
func (s *StaticRange) AddResource(name string, byteOffset int, res *Resource) *StaticRange {
	if i, ok := s.index[name]; ok {
		s.resources[i].Resource = res
		s.byteOffsets[name] = byteOffset
		return s
	}
	s.index[name] = len(s.resources)
	s.resources = append(s.resources, NamedResource{Name: name, Resource: res})
	s.byteOffsets[name] = byteOffset
	return s
}

// ElementOffset implements Range.
func (s *StaticRange) ElementOffset() int { return s.elementOffset }

// Resource implements Range.
func (s *StaticRange) Resource(name string) *Resource {
	if i, ok := s.index[name]; ok {
		return s.resources[i].Resource
	}
	return nil
}

// Resources implements Range.
func (s *StaticRange) Resources() []NamedResource { return s.resources }

// ByteOffset implements Range.
func (s *StaticRange) ByteOffset(name string) int { return s.byteOffsets[name] }
