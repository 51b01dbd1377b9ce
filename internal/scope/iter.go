package scope

import (
	"iter"

	"kestrel/internal/vector"
)

// Binding is one item produced by iterating a scope chain.
type Binding[V any] struct {
	Key   string
	Value V
	// Level is the number of parent hops from the iterated map to the map
	// that supplied Value.
	Level int
	// Shadows is set when the key is also bound further out in the chain
	// (PolicyVisible) or, under PolicyAll, when a nearer level rebinds it.
	Shadows bool
}

// Iterator walks a scope chain root first, each level in local insertion
// order. It is one-shot: once Next reports false it stays exhausted.
//
// Bindings removed while iterating are skipped; bindings added to a level
// that is already being walked are not visited.
type Iterator[V any] struct {
	from   *Map[V]
	policy Policy
	levels *vector.Vector[*Map[V]]
	cur    *Map[V]
	order  []*entry[V]
	pos    int
	seen   *Map[struct{}]
	done   bool
}

// Iter starts an iteration over m using its configured policy.
func (m *Map[V]) Iter() *Iterator[V] {
	return m.IterPolicy(m.cfg.policy)
}

// IterPolicy starts an iteration over m with an explicit policy.
func (m *Map[V]) IterPolicy(p Policy) *Iterator[V] {
	chain := vector.New[*Map[V]]()
	for cur := m; cur != nil; cur = cur.parent {
		chain.Push(cur)
	}
	it := &Iterator[V]{
		from:   m,
		policy: p,
		levels: chain.Reverse(),
	}
	if p == PolicyVisible && m.parent != nil {
		it.seen = New[struct{}]()
	}
	return it
}

func (it *Iterator[V]) advanceLevel() bool {
	lvl, err := it.levels.Shift()
	if err != nil {
		return false
	}
	it.cur = lvl
	it.order = lvl.order
	it.pos = 0
	return true
}

// NextBinding returns the next binding, or false when the chain is exhausted.
func (it *Iterator[V]) NextBinding() (Binding[V], bool) {
	for !it.done {
		if it.pos >= len(it.order) {
			if !it.advanceLevel() {
				it.done = true
				break
			}
			continue
		}
		e := it.order[it.pos]
		it.pos++
		if e.dead {
			continue
		}
		if it.policy == PolicyAll {
			return Binding[V]{
				Key:     e.key,
				Value:   e.value,
				Level:   it.from.depth - it.cur.depth,
				Shadows: it.rebound(e.key),
			}, true
		}
		if it.seen != nil {
			if _, dup := it.seen.GetLocal(e.key); dup {
				continue
			}
			it.seen.Put(e.key, struct{}{})
		}
		value, hops, _ := it.from.Resolve(e.key)
		return Binding[V]{
			Key:     e.key,
			Value:   value,
			Level:   hops,
			Shadows: hops < it.from.depth-it.cur.depth,
		}, true
	}
	var zero Binding[V]
	return zero, false
}

// rebound reports whether a map nearer to the iteration origin than the
// current level binds key.
func (it *Iterator[V]) rebound(key string) bool {
	for m := it.from; m != nil && m != it.cur; m = m.parent {
		if _, ok := m.GetLocal(key); ok {
			return true
		}
	}
	return false
}

// Next returns the next key and value, or ok == false at the end.
func (it *Iterator[V]) Next() (key string, value V, ok bool) {
	b, ok := it.NextBinding()
	if !ok {
		return "", value, false
	}
	return b.Key, b.Value, true
}

// All yields the visible (key, value) pairs of m in iteration order.
func (m *Map[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		it := m.Iter()
		for {
			k, v, ok := it.Next()
			if !ok || !yield(k, v) {
				return
			}
		}
	}
}

// Bindings yields every binding produced under policy p.
func (m *Map[V]) Bindings(p Policy) iter.Seq[Binding[V]] {
	return func(yield func(Binding[V]) bool) {
		it := m.IterPolicy(p)
		for {
			b, ok := it.NextBinding()
			if !ok || !yield(b) {
				return
			}
		}
	}
}

// Keys returns the keys produced by iterating m, in order.
func (m *Map[V]) Keys() *vector.Vector[string] {
	keys := vector.NewCap[string](m.live)
	for k := range m.All() {
		keys.Push(k)
	}
	return keys
}

// Local yields only the bindings stored in m itself, in insertion order.
func (m *Map[V]) Local() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		order := m.order
		for _, e := range order {
			if e.dead {
				continue
			}
			if !yield(e.key, e.value) {
				return
			}
		}
	}
}
