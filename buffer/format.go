// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package buffer

import "fmt"

// Format describes the value type of one attribute stored in a buffer:
// a scalar component type plus a component count. Compute kernels index
// attribute arrays in component units, so the component size of a format
// determines how byte offsets and strides are converted before upload.
type Format int

const (
	// FormatUndefined is the zero value and matches no attribute.
	FormatUndefined Format = iota

	// FormatInt32 is a single signed 32-bit integer.
	FormatInt32

	// FormatInt32x2 is a vector of two signed 32-bit integers.
	FormatInt32x2

	// FormatInt32x3 is a vector of three signed 32-bit integers.
	FormatInt32x3

	// FormatInt32x4 is a vector of four signed 32-bit integers.
	FormatInt32x4

	// FormatUint32 is a single unsigned 32-bit integer.
	FormatUint32

	// FormatFloat32 is a single 32-bit float.
	FormatFloat32

	// FormatFloat32x2 is a vector of two 32-bit floats.
	FormatFloat32x2

	// FormatFloat32x3 is a vector of three 32-bit floats (points, normals).
	FormatFloat32x3

	// FormatFloat32x4 is a vector of four 32-bit floats.
	FormatFloat32x4
)

// String returns the lowercase wgsl-style name of the format.
func (f Format) String() string {
	switch f {
	case FormatInt32:
		return "int32"
	case FormatInt32x2:
		return "int32x2"
	case FormatInt32x3:
		return "int32x3"
	case FormatInt32x4:
		return "int32x4"
	case FormatUint32:
		return "uint32"
	case FormatFloat32:
		return "float32"
	case FormatFloat32x2:
		return "float32x2"
	case FormatFloat32x3:
		return "float32x3"
	case FormatFloat32x4:
		return "float32x4"
	case FormatUndefined:
		return "undefined"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ComponentCount returns the number of scalar components in the format.
// FormatUndefined has zero components.
func (f Format) ComponentCount() int {
	switch f {
	case FormatInt32, FormatUint32, FormatFloat32:
		return 1
	case FormatInt32x2, FormatFloat32x2:
		return 2
	case FormatInt32x3, FormatFloat32x3:
		return 3
	case FormatInt32x4, FormatFloat32x4:
		return 4
	default:
		return 0
	}
}

// ComponentSize returns the byte size of one scalar component.
// All supported formats use 32-bit components.
func (f Format) ComponentSize() int {
	if f == FormatUndefined {
		return 0
	}
	return 4
}

// ByteSize returns the byte size of one element of the format.
func (f Format) ByteSize() int {
	return f.ComponentSize() * f.ComponentCount()
}

// Valid reports whether the format describes a usable attribute type.
func (f Format) Valid() bool {
	return f != FormatUndefined && f.ComponentCount() > 0
}
