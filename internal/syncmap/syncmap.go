// Package syncmap provides a typed map guarded by a RWMutex.
package syncmap

import (
	"maps"
	"sync"
)

// Map is a type-safe concurrent map. It suits read-heavy workloads whose
// key and value types are known at compile time.
type Map[K comparable, V any] struct {
	m  map[K]V
	mu sync.RWMutex
}

// New creates an empty Map.
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{m: make(map[K]V)}
}

// Load returns the value stored for key and whether it was present.
func (sm *Map[K, V]) Load(key K) (value V, ok bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	value, ok = sm.m[key]
	return
}

// Store sets the value for a key.
func (sm *Map[K, V]) Store(key K, value V) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.m[key] = value
}

// LoadOrStore returns the existing value for key if present. Otherwise it
// stores and returns value. loaded reports which happened.
func (sm *Map[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	sm.mu.RLock()
	actual, loaded = sm.m[key]
	sm.mu.RUnlock()
	if loaded {
		return actual, true
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	// Another writer may have won between the two locks.
	if actual, loaded = sm.m[key]; loaded {
		return actual, true
	}
	sm.m[key] = value
	return value, false
}

// LoadAndDelete removes key and returns the value it held.
func (sm *Map[K, V]) LoadAndDelete(key K) (value V, ok bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	value, ok = sm.m[key]
	delete(sm.m, key)
	return
}

// Update replaces the value of an existing key with fn(value) under the
// write lock. It returns the new value and false when key is absent.
func (sm *Map[K, V]) Update(key K, fn func(current V) V) (V, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	current, ok := sm.m[key]
	if !ok {
		return current, false
	}
	next := fn(current)
	sm.m[key] = next
	return next, true
}

// Compute stores fn(current, ok) for key under the write lock, where ok
// reports whether key was present, and returns the stored value.
func (sm *Map[K, V]) Compute(key K, fn func(current V, ok bool) V) V {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	current, ok := sm.m[key]
	next := fn(current, ok)
	sm.m[key] = next
	return next
}

// Delete deletes the value for a key.
func (sm *Map[K, V]) Delete(key K) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.m, key)
}

// Snapshot returns a copy of the current contents.
func (sm *Map[K, V]) Snapshot() map[K]V {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return maps.Clone(sm.m)
}

// Clear removes every entry.
func (sm *Map[K, V]) Clear() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	clear(sm.m)
}

// Len returns the number of items in the map.
func (sm *Map[K, V]) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.m)
}
