// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package registry

import (
	"sync"
	"sync/atomic"
)

// Shard configuration.
const (
	// instanceShardCount is the number of shards for reduced lock
	// contention. Must be a power of 2 for fast modulo via bitwise AND.
	instanceShardCount = 16

	// instanceShardMask selects a shard from a fingerprint.
	instanceShardMask = instanceShardCount - 1
)

// InstanceRegistry is a fingerprint-keyed memoization table over shared
// device objects. It guarantees at-most-one creation per fingerprint even
// under concurrent requesters: the first caller's create function runs and
// its result is published; everyone else receives the same instance.
//
// Entries are never evicted. They live until Clear, which the owning
// registry calls on device loss.
//
// InstanceRegistry is safe for concurrent use.
type InstanceRegistry[V any] struct {
	shards [instanceShardCount]*instanceShard[V]

	// Statistics (atomic for zero-allocation reads)
	hits   atomic.Uint64
	misses atomic.Uint64
}

// instanceShard is a single shard. Each shard has its own mutex so
// creations for different fingerprints rarely contend.
type instanceShard[V any] struct {
	mu      sync.RWMutex
	entries map[Fingerprint]V
}

// InstanceStats reports cache behavior of an InstanceRegistry.
type InstanceStats struct {
	Len    int
	Hits   uint64
	Misses uint64
}

// NewInstanceRegistry creates an empty instance registry.
func NewInstanceRegistry[V any]() *InstanceRegistry[V] {
	r := &InstanceRegistry[V]{}
	for i := range r.shards {
		r.shards[i] = &instanceShard[V]{entries: make(map[Fingerprint]V)}
	}
	return r
}

// shard returns the shard holding a fingerprint.
func (r *InstanceRegistry[V]) shard(fp Fingerprint) *instanceShard[V] {
	return r.shards[uint64(fp)&instanceShardMask]
}

// Get returns the instance for fp if one has been published.
func (r *InstanceRegistry[V]) Get(fp Fingerprint) (V, bool) {
	shard := r.shard(fp)
	shard.mu.RLock()
	v, ok := shard.entries[fp]
	shard.mu.RUnlock()

	if ok {
		r.hits.Add(1)
		return v, true
	}
	r.misses.Add(1)
	var zero V
	return zero, false
}

// GetOrCreate returns the instance for fp, creating it with create on
// first use. The create function runs with the shard lock held, so exactly
// one creation happens per fingerprint no matter how many goroutines race
// here; concurrent requesters for the same fingerprint block until the
// entry is published. If create fails, nothing is published and the error
// is returned; a later caller may try again.
func (r *InstanceRegistry[V]) GetOrCreate(fp Fingerprint, create func() (V, error)) (V, error) {
	shard := r.shard(fp)

	// Fast path: already published.
	shard.mu.RLock()
	v, ok := shard.entries[fp]
	shard.mu.RUnlock()
	if ok {
		r.hits.Add(1)
		return v, nil
	}

	shard.mu.Lock()
	defer shard.mu.Unlock()

	// Re-check after acquiring the write lock: another goroutine may have
	// published the entry while we waited.
	if v, ok := shard.entries[fp]; ok {
		r.hits.Add(1)
		return v, nil
	}

	r.misses.Add(1)

	v, err := create()
	if err != nil {
		var zero V
		return zero, err
	}
	shard.entries[fp] = v
	return v, nil
}

// Len returns the total number of published instances.
func (r *InstanceRegistry[V]) Len() int {
	total := 0
	for _, shard := range r.shards {
		shard.mu.RLock()
		total += len(shard.entries)
		shard.mu.RUnlock()
	}
	return total
}

// Clear removes all instances, invoking destroy (if non-nil) on each so
// the caller can release the underlying device objects.
func (r *InstanceRegistry[V]) Clear(destroy func(V)) {
	for _, shard := range r.shards {
		shard.mu.Lock()
		if destroy != nil {
			for _, v := range shard.entries {
				destroy(v)
			}
		}
		shard.entries = make(map[Fingerprint]V)
		shard.mu.Unlock()
	}
}

// Stats returns current registry statistics.
func (r *InstanceRegistry[V]) Stats() InstanceStats {
	return InstanceStats{
		Len:    r.Len(),
		Hits:   r.hits.Load(),
		Misses: r.misses.Load(),
	}
}
