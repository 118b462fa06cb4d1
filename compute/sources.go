// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"errors"
	"fmt"

	"github.com/gogpu/extcomp"
	"github.com/gogpu/extcomp/buffer"
)

// ErrFormatMismatch indicates a CPU computation produced a value whose
// format differs from the primvar's declared type.
var ErrFormatMismatch = errors.New("compute: computed value format mismatch")

// GpuPrimvarSource is a reserve-only buffer source for a GPU-computed
// primvar: it advertises the primvar's spec and element count to the
// allocator but produces no data; the dispatch fills the range.
type GpuPrimvarSource struct {
	name        string
	format      buffer.Format
	numElements int
}

// NewGpuPrimvarSource creates a reserve-only source for one primvar.
func NewGpuPrimvarSource(name string, format buffer.Format, numElements int) *GpuPrimvarSource {
	return &GpuPrimvarSource{name: name, format: format, numElements: numElements}
}

// Name implements buffer.Source.
func (s *GpuPrimvarSource) Name() string { return s.name }

// BufferSpecs implements buffer.Source.
func (s *GpuPrimvarSource) BufferSpecs() []buffer.Spec {
	return []buffer.Spec{{Name: s.name, Format: s.format}}
}

// NumElements implements buffer.Source.
func (s *GpuPrimvarSource) NumElements() int { return s.numElements }

// Resolve implements buffer.Source. Reserve-only sources have no data to
// produce.
func (s *GpuPrimvarSource) Resolve() error { return nil }

// Data implements buffer.Source. Always nil: the GPU writes the range.
func (s *GpuPrimvarSource) Data() []byte { return nil }

// CpuComputationSource resolves a CPU computation during the allocator's
// commit pass, ahead of the primvar sources that read its values. It
// reserves nothing itself.
type CpuComputationSource struct {
	comp *CpuComputation
}

// NewCpuComputationSource wraps comp for the commit pass.
func NewCpuComputationSource(comp *CpuComputation) *CpuComputationSource {
	return &CpuComputationSource{comp: comp}
}

// Name implements buffer.Source.
func (s *CpuComputationSource) Name() string { return string(s.comp.ID()) }

// BufferSpecs implements buffer.Source. The computation source allocates
// nothing.
func (s *CpuComputationSource) BufferSpecs() []buffer.Spec { return nil }

// NumElements implements buffer.Source.
func (s *CpuComputationSource) NumElements() int { return 0 }

// Resolve implements buffer.Source.
func (s *CpuComputationSource) Resolve() error { return s.comp.Resolve() }

// Data implements buffer.Source.
func (s *CpuComputationSource) Data() []byte { return nil }

// CpuPrimvarSource is a data-carrying buffer source for a CPU-computed
// primvar: on resolve it pulls the computation's output value and carries
// its bytes into the allocator.
type CpuPrimvarSource struct {
	name         string
	format       buffer.Format
	sourceOutput string
	comp         *CpuComputation

	data []byte
}

// NewCpuPrimvarSource creates a data-carrying source for one primvar fed
// by the named output of comp.
func NewCpuPrimvarSource(name string, format buffer.Format, sourceOutput string, comp *CpuComputation) *CpuPrimvarSource {
	return &CpuPrimvarSource{
		name:         name,
		format:       format,
		sourceOutput: sourceOutput,
		comp:         comp,
	}
}

// Name implements buffer.Source.
func (s *CpuPrimvarSource) Name() string { return s.name }

// BufferSpecs implements buffer.Source.
func (s *CpuPrimvarSource) BufferSpecs() []buffer.Spec {
	return []buffer.Spec{{Name: s.name, Format: s.format}}
}

// NumElements implements buffer.Source.
func (s *CpuPrimvarSource) NumElements() int {
	if s.data == nil {
		return s.comp.NumOutputElements()
	}
	return extcomp.Value{Format: s.format, Data: s.data}.NumElements()
}

// Resolve implements buffer.Source. It resolves the computation, then
// captures the bytes of the output feeding this primvar. A value whose
// format differs from the declared type is rejected.
func (s *CpuPrimvarSource) Resolve() error {
	if err := s.comp.Resolve(); err != nil {
		return err
	}

	v, err := s.comp.Value(s.sourceOutput)
	if err != nil {
		return err
	}
	if v.Format != s.format {
		return fmt.Errorf("%w: primvar %q declared %s, computed %s",
			ErrFormatMismatch, s.name, s.format, v.Format)
	}

	s.data = v.Data
	return nil
}

// Data implements buffer.Source.
func (s *CpuPrimvarSource) Data() []byte { return s.data }
