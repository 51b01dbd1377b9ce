package scope

import (
	"fmt"

	"fortio.org/safecast"
)

const (
	defaultBuckets    = 16
	defaultLoadFactor = 0.75
	// tombstones are only compacted once there are at least this many
	minCompact = 16
)

type entry[V any] struct {
	key   string
	value V
	hash  uint32
	seq   uint32 // local insertion index
	next  *entry[V]
	dead  bool
}

// Map is a string-keyed hash table with an optional parent. Reads that miss
// locally fall through to the parent chain; writes and removals always stay
// local, so a child binding shadows an ancestor without altering it.
//
// The parent is not owned: it must stay alive for as long as the child is
// read or iterated. Chains are acyclic by construction (NewChild only links
// to an existing map).
type Map[V any] struct {
	parent  *Map[V]
	depth   int
	buckets []*entry[V]
	mask    uint32
	// order records entries in first-insertion order; removed entries stay
	// as tombstones until compacted.
	order   []*entry[V]
	live    int
	dead    int
	nextSeq uint32
	resizes int
	cfg     config
}

// New creates an empty map without a parent.
func New[V any](opts ...Option) *Map[V] {
	return newMap[V](nil, defaultConfig(), opts)
}

// NewChild creates an empty map that delegates missed lookups to parent.
// Load factor and iteration policy are inherited unless overridden.
func NewChild[V any](parent *Map[V], opts ...Option) *Map[V] {
	cfg := defaultConfig()
	if parent != nil {
		cfg.loadFactor = parent.cfg.loadFactor
		cfg.policy = parent.cfg.policy
	}
	return newMap(parent, cfg, opts)
}

func newMap[V any](parent *Map[V], cfg config, opts []Option) *Map[V] {
	for _, opt := range opts {
		opt(&cfg)
	}
	m := &Map[V]{
		parent: parent,
		cfg:    cfg,
	}
	m.setBuckets(make([]*entry[V], cfg.buckets))
	if parent != nil {
		m.depth = parent.depth + 1
	}
	return m
}

// Parent returns the enclosing map or nil.
func (m *Map[V]) Parent() *Map[V] { return m.parent }

// Depth reports the number of ancestors (0 for a root map).
func (m *Map[V]) Depth() int { return m.depth }

// Policy returns the iteration policy of this map.
func (m *Map[V]) Policy() Policy { return m.cfg.policy }

// Len reports the number of local bindings.
func (m *Map[V]) Len() int { return m.live }

// hashKey is 32-bit FNV-1a.
func hashKey(key string) uint32 {
	h := uint32(2166136261)
	for i := 0; i < len(key); i++ {
		h ^= uint32(key[i])
		h *= 16777619
	}
	return h
}

// setBuckets installs a power-of-two bucket array and its slot mask.
func (m *Map[V]) setBuckets(buckets []*entry[V]) {
	mask, err := safecast.Conv[uint32](len(buckets) - 1)
	if err != nil {
		panic(fmt.Errorf("scope bucket count %d: %w", len(buckets), err))
	}
	m.buckets = buckets
	m.mask = mask
}

func (m *Map[V]) slot(h uint32) int {
	return int(h & m.mask)
}

func (m *Map[V]) find(key string, h uint32) *entry[V] {
	for e := m.buckets[m.slot(h)]; e != nil; e = e.next {
		if e.hash == h && e.key == key {
			return e
		}
	}
	return nil
}

// GetLocal looks key up in this map only.
func (m *Map[V]) GetLocal(key string) (V, bool) {
	if e := m.find(key, hashKey(key)); e != nil {
		return e.value, true
	}
	var zero V
	return zero, false
}

// Get looks key up locally and then along the parent chain.
// The boolean is false when no map in the chain binds key.
func (m *Map[V]) Get(key string) (V, bool) {
	v, _, ok := m.Resolve(key)
	return v, ok
}

// Resolve is Get that also reports how many parent hops were needed.
func (m *Map[V]) Resolve(key string) (V, int, bool) {
	h := hashKey(key)
	hops := 0
	for cur := m; cur != nil; cur = cur.parent {
		if e := cur.find(key, h); e != nil {
			return e.value, hops, true
		}
		hops++
	}
	var zero V
	return zero, 0, false
}

// Has reports whether key is visible from m.
func (m *Map[V]) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Put binds key to value in this map. Re-binding an existing local key
// replaces its value but keeps its insertion position.
func (m *Map[V]) Put(key string, value V) {
	h := hashKey(key)
	if e := m.find(key, h); e != nil {
		e.value = value
		return
	}
	if float64(m.live+1) > m.cfg.loadFactor*float64(len(m.buckets)) && len(m.buckets) < MaxBuckets {
		m.rehash(len(m.buckets) * 2)
	}
	e := &entry[V]{key: key, value: value, hash: h, seq: m.nextSeq}
	next, err := safecast.Conv[uint32](uint64(m.nextSeq) + 1)
	if err != nil {
		panic(fmt.Errorf("scope insertion index overflow: %w", err))
	}
	m.nextSeq = next
	i := m.slot(h)
	e.next = m.buckets[i]
	m.buckets[i] = e
	m.order = append(m.order, e)
	m.live++
}

// Remove drops the local binding for key. It reports whether one existed.
// Ancestor bindings are never touched.
func (m *Map[V]) Remove(key string) bool {
	h := hashKey(key)
	i := m.slot(h)
	var prev *entry[V]
	for e := m.buckets[i]; e != nil; prev, e = e, e.next {
		if e.hash != h || e.key != key {
			continue
		}
		if prev == nil {
			m.buckets[i] = e.next
		} else {
			prev.next = e.next
		}
		e.next = nil
		e.dead = true
		m.live--
		m.dead++
		if m.dead >= minCompact && m.dead > m.live {
			m.compact()
		}
		return true
	}
	return false
}

// rehash relinks every live entry into a bucket array of size n.
// The insertion order record is left alone.
func (m *Map[V]) rehash(n int) {
	old := m.buckets
	m.setBuckets(make([]*entry[V], n))
	for _, head := range old {
		for e := head; e != nil; {
			next := e.next
			i := m.slot(e.hash)
			e.next = m.buckets[i]
			m.buckets[i] = e
			e = next
		}
	}
	m.resizes++
}

// compact drops tombstones from the order record. A fresh slice is built so
// iterators holding the old one stay valid.
func (m *Map[V]) compact() {
	order := make([]*entry[V], 0, m.live)
	for _, e := range m.order {
		if !e.dead {
			order = append(order, e)
		}
	}
	m.order = order
	m.dead = 0
}

// Clear drops every local binding.
func (m *Map[V]) Clear() {
	for _, e := range m.order {
		e.dead = true
		e.next = nil
	}
	clear(m.buckets)
	m.order = nil
	m.live = 0
	m.dead = 0
}

// Stats describes the local hash table layout.
type Stats struct {
	Buckets      int
	Entries      int
	Tombstones   int
	Resizes      int
	LongestChain int
	Depth        int
}

// Load returns entries per bucket.
func (s Stats) Load() float64 {
	if s.Buckets == 0 {
		return 0
	}
	return float64(s.Entries) / float64(s.Buckets)
}

// Stats reports the current table layout of m (parents excluded).
func (m *Map[V]) Stats() Stats {
	st := Stats{
		Buckets:    len(m.buckets),
		Entries:    m.live,
		Tombstones: m.dead,
		Resizes:    m.resizes,
		Depth:      m.depth,
	}
	for _, head := range m.buckets {
		n := 0
		for e := head; e != nil; e = e.next {
			n++
		}
		if n > st.LongestChain {
			st.LongestChain = n
		}
	}
	return st
}
