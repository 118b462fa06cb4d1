// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package extcomp

// DirtyBits is a bitmask of invalidated prim state. The computation graph
// builder recomputes only primvars whose bit is set.
type DirtyBits uint64

// Dirty state bits.
const (
	// DirtyClean marks nothing invalid.
	DirtyClean DirtyBits = 0

	// DirtyPoints marks the "points" primvar invalid.
	DirtyPoints DirtyBits = 1 << iota

	// DirtyNormals marks the "normals" primvar invalid.
	DirtyNormals

	// DirtyWidths marks the "widths" primvar invalid.
	DirtyWidths

	// DirtyPrimvar marks all other primvars invalid.
	DirtyPrimvar
)

// Has reports whether all bits in mask are set.
func (d DirtyBits) Has(mask DirtyBits) bool { return d&mask == mask }

// DirtyTracker decides whether a named primvar on a prim is invalid under
// a dirty bitmask. Renderers with their own dirty vocabularies supply
// their own tracker; the prim id lets them discriminate per prim.
type DirtyTracker interface {
	// IsDirty reports whether the named primvar on the prim at id needs
	// recomputation.
	IsDirty(id Path, name string, bits DirtyBits) bool
}

// BitmaskTracker is the default DirtyTracker. The well-known primvars
// "points", "normals", and "widths" map to their dedicated bits; every
// other name maps to DirtyPrimvar. The prim id does not participate.
type BitmaskTracker struct{}

// IsDirty implements DirtyTracker.
func (BitmaskTracker) IsDirty(_ Path, name string, bits DirtyBits) bool {
	switch name {
	case "points":
		return bits.Has(DirtyPoints)
	case "normals":
		return bits.Has(DirtyNormals)
	case "widths":
		return bits.Has(DirtyWidths)
	default:
		return bits.Has(DirtyPrimvar)
	}
}
