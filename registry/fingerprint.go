// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package registry

// FNV-1a constants, shared with hash/fnv.
const (
	fnvOffset64 = 14695981039346656037
	fnvPrime64  = 1099511628211
)

// Fingerprint is a 64-bit combined hash over an ordered sequence of
// device-object identities. Equal fingerprints mean the referenced device
// objects are interchangeable for caching purposes; the hash is trusted to
// be collision-free within a session and cache hits are not re-validated.
type Fingerprint uint64

// NewFingerprint returns the hash seed for an empty identity sequence.
func NewFingerprint() Fingerprint {
	return Fingerprint(fnvOffset64)
}

// Combine folds one 64-bit identity into the fingerprint using FNV-1a
// over its little-endian bytes. Combining is order-sensitive.
func (f Fingerprint) Combine(id uint64) Fingerprint {
	h := uint64(f)
	for i := 0; i < 8; i++ {
		h ^= id & 0xff
		h *= fnvPrime64
		id >>= 8
	}
	return Fingerprint(h)
}
