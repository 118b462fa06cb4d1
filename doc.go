// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package extcomp computes primvar data with GPU compute kernels.
//
// A scene delegate advertises computations: named kernels that read input
// attributes and write output primvars. The compute package turns dirty
// primvars into buffer sources and GPU dispatches; the registry package
// caches the device objects those dispatches share; the buffer package
// models the attribute storage the kernels read and write.
//
// This package holds the scene-facing vocabulary: prim paths, primvar
// descriptors, the computation and delegate interfaces, and the dirty-bit
// tracking that drives recomputation.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/extcomp"
//		"github.com/gogpu/extcomp/compute"
//	)
//
//	// Describe which primvars a prim sources from computations.
//	primvars := []extcomp.PrimvarDescriptor{
//		{Name: "points", SourceComputationID: "/skinning", SourceOutputName: "skinnedPoints", ValueType: buffer.FormatFloat32x3},
//	}
//
//	// Build the computation graph for this frame's dirty bits.
//	result := compute.BuildForPrimvars("/mesh", delegate, primvars, extcomp.DirtyPoints, nil)
//
//	// Allocate result.ReserveOnlySources, then execute each computation
//	// against its output range.
//	for _, comp := range result.Computations {
//		comp.Execute(outputRange, reg)
//	}
//
// # Architecture
//
// The module is organized into:
//   - extcomp: scene-facing types (paths, descriptors, delegates, dirty bits)
//   - buffer: attribute storage views and buffer sources
//   - registry: fingerprint-keyed device-object caches and the command stream
//   - compute: kernel programs, binding layout, GPU/CPU computations, graph builder
package extcomp

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0-alpha.1"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0

	// VersionPrerelease is the prerelease identifier
	VersionPrerelease = "alpha.1"
)
