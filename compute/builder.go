// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"github.com/gogpu/extcomp"
	"github.com/gogpu/extcomp/buffer"
)

// PrimvarComputations is the product of one graph-builder pass for one
// prim: the computations to execute and the buffer sources to queue for
// the allocator's commit pass.
type PrimvarComputations struct {
	// Sources are data-carrying sources for CPU-computed primvars.
	Sources []buffer.Source

	// ReserveOnlySources reserve space for GPU-computed primvars; the
	// dispatches in Computations fill them.
	ReserveOnlySources []buffer.Source

	// SeparateSources resolve CPU computations ahead of the primvar
	// sources that read their values.
	SeparateSources []buffer.Source

	// Computations holds at most one computation per originating
	// computation with a dirty primvar.
	Computations []Computation
}

// BuildForPrimvars walks a prim's computed-primvar descriptors and builds
// the computations and buffer sources its dirty primvars need this pass.
//
// Descriptors are grouped by originating computation, keeping descriptor
// order within a group and first-appearance order across groups. A group
// whose computation is missing or declares zero elements produces
// nothing. Within a surviving group, only dirty primvars (per tracker,
// defaulting to extcomp.BitmaskTracker) produce sources; the group's
// computation is built lazily when its first dirty primvar appears, and
// appended exactly once. Computations with kernel source take the GPU
// path (reserve-only sources); the rest evaluate on the CPU through the
// delegate (data-carrying sources).
func BuildForPrimvars(primID extcomp.Path, delegate extcomp.SceneDelegate, primvars []extcomp.PrimvarDescriptor, dirtyBits extcomp.DirtyBits, tracker extcomp.DirtyTracker) *PrimvarComputations {
	if tracker == nil {
		tracker = extcomp.BitmaskTracker{}
	}

	result := &PrimvarComputations{}
	renderIndex := delegate.RenderIndex()

	// Group descriptors by originating computation, first appearance
	// first.
	var order []extcomp.Path
	groups := make(map[extcomp.Path][]extcomp.PrimvarDescriptor)
	for _, desc := range primvars {
		id := desc.SourceComputationID
		if _, ok := groups[id]; !ok {
			order = append(order, id)
		}
		groups[id] = append(groups[id], desc)
	}

	for _, id := range order {
		group := groups[id]

		sourceComp := renderIndex.Computation(id)
		if sourceComp == nil {
			slogger().Warn("compute: source computation missing, skipping group",
				"prim", primID,
				"computation", id)
			continue
		}
		if sourceComp.ElementCount() == 0 {
			slogger().Debug("compute: zero-element computation, skipping group",
				"prim", primID,
				"computation", id)
			continue
		}

		if sourceComp.KernelSource() != "" {
			buildGpuGroup(result, primID, delegate, sourceComp, group, dirtyBits, tracker)
		} else {
			buildCpuGroup(result, primID, delegate, sourceComp, group, dirtyBits, tracker)
		}
	}

	return result
}

// buildGpuGroup emits one GpuComputation and a reserve-only source per
// dirty primvar for a kernel-backed group. If the computation cannot be
// built the whole group is skipped.
func buildGpuGroup(result *PrimvarComputations, primID extcomp.Path, delegate extcomp.SceneDelegate, sourceComp extcomp.Computation, group []extcomp.PrimvarDescriptor, dirtyBits extcomp.DirtyBits, tracker extcomp.DirtyTracker) {
	var gpuComp *GpuComputation

	for _, desc := range group {
		if !tracker.IsDirty(primID, desc.Name, dirtyBits) {
			continue
		}

		if gpuComp == nil {
			comp, err := CreateGpuComputation(delegate, sourceComp, group)
			if err != nil {
				slogger().Error("compute: gpu computation build failed, skipping group",
					"computation", sourceComp.ID(),
					"primvars", debugPrimvarNames(group),
					"error", err)
				return
			}
			gpuComp = comp
			result.Computations = append(result.Computations, gpuComp)
		}

		result.ReserveOnlySources = append(result.ReserveOnlySources,
			NewGpuPrimvarSource(desc.Name, desc.ValueType, sourceComp.ElementCount()))
	}
}

// buildCpuGroup emits one CpuComputation, its commit-pass resolver, and a
// data-carrying source per dirty primvar for a delegate-evaluated group.
func buildCpuGroup(result *PrimvarComputations, primID extcomp.Path, delegate extcomp.SceneDelegate, sourceComp extcomp.Computation, group []extcomp.PrimvarDescriptor, dirtyBits extcomp.DirtyBits, tracker extcomp.DirtyTracker) {
	var cpuComp *CpuComputation

	for _, desc := range group {
		if !tracker.IsDirty(primID, desc.Name, dirtyBits) {
			continue
		}

		if cpuComp == nil {
			cpuComp = NewCpuComputation(sourceComp.ID(), delegate, sourceComp.ElementCount())
			result.Computations = append(result.Computations, cpuComp)
			result.SeparateSources = append(result.SeparateSources,
				NewCpuComputationSource(cpuComp))
		}

		result.Sources = append(result.Sources,
			NewCpuPrimvarSource(desc.Name, desc.ValueType, desc.SourceOutputName, cpuComp))
	}
}
