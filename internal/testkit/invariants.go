package testkit

import (
	"fmt"

	"kestrel/internal/dict"
	"kestrel/internal/scope"
)

// CheckScopeInvariants runs the structural checks every scope map must pass,
// using only its public surface:
// 1) the local order holds each live key once and agrees with GetLocal and Len
// 2) visible iteration yields every key reachable through the chain exactly
// once, with the value Get returns
// 3) PolicyAll yields exactly the sum of the local sizes along the chain
// 4) table statistics are consistent with the entry count
func CheckScopeInvariants[V comparable](m *scope.Map[V]) error {
	if m == nil {
		return fmt.Errorf("nil map")
	}

	// 1) local order
	local := 0
	seen := make(map[string]struct{}, m.Len())
	for k, v := range m.Local() {
		if _, dup := seen[k]; dup {
			return fmt.Errorf("local order repeats %q", k)
		}
		seen[k] = struct{}{}
		got, ok := m.GetLocal(k)
		if !ok || got != v {
			return fmt.Errorf("local order has %q=%v but GetLocal gives %v (present %v)", k, v, got, ok)
		}
		local++
	}
	if local != m.Len() {
		return fmt.Errorf("local order has %d live entries, Len() = %d", local, m.Len())
	}

	// 2) visible iteration covers the union of the chain
	reachable := make(map[string]struct{})
	total := 0
	for cur := m; cur != nil; cur = cur.Parent() {
		for k := range cur.Local() {
			reachable[k] = struct{}{}
		}
		total += cur.Len()
	}
	visible := make(map[string]struct{}, len(reachable))
	for b := range m.Bindings(scope.PolicyVisible) {
		if _, dup := visible[b.Key]; dup {
			return fmt.Errorf("visible iteration repeats %q", b.Key)
		}
		visible[b.Key] = struct{}{}
		want, hops, ok := m.Resolve(b.Key)
		if !ok || want != b.Value || hops != b.Level {
			return fmt.Errorf("visible binding %q=%v at level %d, Resolve gives %v at %d (present %v)",
				b.Key, b.Value, b.Level, want, hops, ok)
		}
	}
	if len(visible) != len(reachable) {
		return fmt.Errorf("visible iteration yields %d keys, chain binds %d", len(visible), len(reachable))
	}

	// 3) PolicyAll keeps duplicates
	all := 0
	for range m.Bindings(scope.PolicyAll) {
		all++
	}
	if all != total {
		return fmt.Errorf("PolicyAll yields %d bindings, chain holds %d", all, total)
	}

	// 4) stats
	st := m.Stats()
	if st.Entries != m.Len() {
		return fmt.Errorf("stats entries %d, Len() %d", st.Entries, m.Len())
	}
	if st.Buckets <= 0 || st.Buckets&(st.Buckets-1) != 0 {
		return fmt.Errorf("bucket count %d is not a power of two", st.Buckets)
	}
	if st.Buckets > scope.MaxBuckets {
		return fmt.Errorf("bucket count %d exceeds %d", st.Buckets, scope.MaxBuckets)
	}
	if st.LongestChain > st.Entries {
		return fmt.Errorf("longest chain %d exceeds entries %d", st.LongestChain, st.Entries)
	}
	if st.Depth != m.Depth() {
		return fmt.Errorf("stats depth %d, Depth() %d", st.Depth, m.Depth())
	}
	return nil
}

// CheckDictInvariants verifies that the key order of d and its bindings
// describe the same set, in the same order.
func CheckDictInvariants[V comparable](d *dict.Dict[V]) error {
	if d == nil {
		return fmt.Errorf("nil dict")
	}
	keys := d.Keys()
	if keys.Len() != d.Len() {
		return fmt.Errorf("keys has %d entries, Len() = %d", keys.Len(), d.Len())
	}
	i := 0
	for k, v := range d.All() {
		want, err := keys.Get(i)
		if err != nil {
			return fmt.Errorf("key order shorter than iteration: %w", err)
		}
		if want != k {
			return fmt.Errorf("iteration position %d is %q, key order says %q", i, k, want)
		}
		got, ok := d.Get(k)
		if !ok || got != v {
			return fmt.Errorf("iterated %q=%v but Get gives %v (present %v)", k, v, got, ok)
		}
		i++
	}
	if i != keys.Len() {
		return fmt.Errorf("iteration yields %d keys, key order has %d", i, keys.Len())
	}
	return nil
}
