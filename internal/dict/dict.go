package dict

import (
	"iter"

	"kestrel/internal/scope"
	"kestrel/internal/vector"
)

// Dict is a flat dictionary that enumerates keys in first-insertion order.
// Used where both lookup and declaration order matter: struct members,
// enum tags, parameter lists.
type Dict[V any] struct {
	m    *scope.Map[V]
	keys *vector.Vector[string]
}

// New creates an empty dictionary.
func New[V any]() *Dict[V] {
	return &Dict[V]{
		m:    scope.New[V](),
		keys: vector.New[string](),
	}
}

// Put binds key to value. A key seen before keeps its original position.
func (d *Dict[V]) Put(key string, value V) {
	if _, ok := d.m.GetLocal(key); !ok {
		d.keys.Push(key)
	}
	d.m.Put(key, value)
}

// Get returns the value bound to key.
func (d *Dict[V]) Get(key string) (V, bool) {
	return d.m.GetLocal(key)
}

// Has reports whether key is bound.
func (d *Dict[V]) Has(key string) bool {
	_, ok := d.m.GetLocal(key)
	return ok
}

// Len reports the number of keys.
func (d *Dict[V]) Len() int { return d.keys.Len() }

// Keys returns the keys in insertion order. The vector is a copy.
func (d *Dict[V]) Keys() *vector.Vector[string] {
	return d.keys.Copy()
}

// Delete unbinds key and drops it from the key order. O(n) in the number
// of keys.
func (d *Dict[V]) Delete(key string) bool {
	if !d.m.Remove(key) {
		return false
	}
	kept := vector.NewCap[string](d.keys.Len())
	for _, k := range d.keys.All() {
		if k != key {
			kept.Push(k)
		}
	}
	d.keys = kept
	return true
}

// All yields (key, value) pairs in key order.
func (d *Dict[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, k := range d.keys.All() {
			v, _ := d.m.GetLocal(k)
			if !yield(k, v) {
				return
			}
		}
	}
}
