package scope

import (
	"math"
	"slices"
	"strconv"
	"testing"
)

func TestMapAbsentPutRemove(t *testing.T) {
	m := New[int]()
	if _, ok := m.Get("abc"); ok {
		t.Fatalf("expected abc to be absent")
	}
	m.Put("abc", 0)
	v, ok := m.Get("abc")
	if !ok || v != 0 {
		t.Fatalf("Get(abc) = %d, %v; want 0, true", v, ok)
	}
	if !m.Remove("abc") {
		t.Fatalf("Remove(abc) = false")
	}
	if _, ok := m.Get("abc"); ok {
		t.Fatalf("abc still present after Remove")
	}
	if m.Remove("abc") {
		t.Fatalf("second Remove(abc) = true")
	}
}

func TestMapTenThousandKeys(t *testing.T) {
	const n = 10000
	m := New[int]()
	for i := 0; i < n; i++ {
		k := strconv.Itoa(i)
		m.Put(k, i)
		if v, ok := m.Get(k); !ok || v != i {
			t.Fatalf("Get(%s) = %d, %v", k, v, ok)
		}
	}
	// insert again
	for i := 0; i < 1000; i++ {
		k := strconv.Itoa(i)
		m.Put(k, i)
		if v, _ := m.Get(k); v != i {
			t.Fatalf("Get(%s) after re-put = %d", k, v)
		}
	}
	if m.Len() != n {
		t.Fatalf("Len() = %d, want %d", m.Len(), n)
	}

	seen := make([]int, n)
	for _, v := range m.All() {
		seen[v]++
	}
	for i, c := range seen {
		if c != 1 {
			t.Fatalf("value %d visited %d times", i, c)
		}
	}

	st := m.Stats()
	if st.Load() > defaultLoadFactor {
		t.Fatalf("load %.2f exceeds threshold", st.Load())
	}
	if st.Resizes == 0 {
		t.Fatalf("expected the table to grow")
	}

	for i := 0; i < n; i++ {
		k := strconv.Itoa(i)
		if v, _ := m.Get(k); v != i {
			t.Fatalf("Get(%s) = %d before remove", k, v)
		}
		m.Remove(k)
		if _, ok := m.Get(k); ok {
			t.Fatalf("Get(%s) present after remove", k)
		}
	}
	if m.Len() != 0 {
		t.Fatalf("Len() = %d after removing everything", m.Len())
	}
	count := 0
	for range m.All() {
		count++
	}
	if count != 0 {
		t.Fatalf("iterated %d entries on empty map", count)
	}
}

func TestMapOverwriteKeepsPosition(t *testing.T) {
	m := New[string]()
	m.Put("a", "1")
	m.Put("b", "2")
	m.Put("c", "3")
	m.Put("a", "10")
	var keys, vals []string
	for k, v := range m.All() {
		keys = append(keys, k)
		vals = append(vals, v)
	}
	if !slices.Equal(keys, []string{"a", "b", "c"}) {
		t.Fatalf("keys = %v", keys)
	}
	if !slices.Equal(vals, []string{"10", "2", "3"}) {
		t.Fatalf("values = %v", vals)
	}
}

func TestMapOrderSurvivesResize(t *testing.T) {
	m := New[int](WithBuckets(2))
	var want []string
	for i := 0; i < 500; i++ {
		k := "k" + strconv.Itoa(i*7919%1000)
		m.Put(k, i)
		want = append(want, k)
	}
	if got := m.Keys().Items(); !slices.Equal(got, want) {
		t.Fatalf("iteration order changed across resizes")
	}
}

func TestMapOrderAfterRemoveAndReinsert(t *testing.T) {
	m := New[int]()
	for i := 0; i < 40; i++ {
		m.Put(strconv.Itoa(i), i)
	}
	// drop enough to trigger compaction
	for i := 0; i < 30; i++ {
		m.Remove(strconv.Itoa(i))
	}
	m.Put("0", 100)
	var got []string
	for k := range m.All() {
		got = append(got, k)
	}
	want := []string{"30", "31", "32", "33", "34", "35", "36", "37", "38", "39", "0"}
	if !slices.Equal(got, want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	if st := m.Stats(); st.Tombstones >= minCompact {
		t.Fatalf("tombstones = %d, expected compaction", st.Tombstones)
	}
}

func TestMapStack(t *testing.T) {
	m1 := New[int]()
	m1.Put("x", 1)
	m1.Put("y", 2)
	if v, _ := m1.Get("x"); v != 1 {
		t.Fatalf("m1.Get(x) = %d", v)
	}

	m2 := NewChild(m1)
	if v, _ := m2.Get("x"); v != 1 {
		t.Fatalf("m2.Get(x) = %d, want 1", v)
	}
	m2.Put("x", 3)
	if v, _ := m2.Get("x"); v != 3 {
		t.Fatalf("m2.Get(x) = %d, want 3", v)
	}
	if v, _ := m1.Get("x"); v != 1 {
		t.Fatalf("m1.Get(x) = %d, want 1", v)
	}

	it := m2.Iter()
	if k, v, _ := it.Next(); k != "x" || v != 3 {
		t.Fatalf("first = %s=%d, want x=3", k, v)
	}
	if k, v, _ := it.Next(); k != "y" || v != 2 {
		t.Fatalf("second = %s=%d, want y=2", k, v)
	}
	if k, _, ok := it.Next(); ok {
		t.Fatalf("expected end of iteration, got %q", k)
	}
	if _, _, ok := it.Next(); ok {
		t.Fatalf("exhausted iterator yielded again")
	}

	// parent iteration is unaffected by the child
	var parent []int
	for _, v := range m1.All() {
		parent = append(parent, v)
	}
	if !slices.Equal(parent, []int{1, 2}) {
		t.Fatalf("parent values = %v", parent)
	}
}

func TestMapRemoveIsLocal(t *testing.T) {
	m1 := New[int]()
	m1.Put("x", 1)
	m2 := NewChild(m1)
	if m2.Remove("x") {
		t.Fatalf("child removed a parent binding")
	}
	if v, ok := m2.Get("x"); !ok || v != 1 {
		t.Fatalf("m2.Get(x) = %d, %v", v, ok)
	}
	m2.Put("x", 5)
	m2.Remove("x")
	if v, _ := m2.Get("x"); v != 1 {
		t.Fatalf("after local remove m2.Get(x) = %d, want parent's 1", v)
	}
	if _, ok := m2.GetLocal("x"); ok {
		t.Fatalf("GetLocal(x) found a parent binding")
	}
}

func TestMapResolveHops(t *testing.T) {
	root := New[string]()
	root.Put("a", "root")
	mid := NewChild(root)
	mid.Put("b", "mid")
	leaf := NewChild(mid)
	if leaf.Depth() != 2 || leaf.Parent() != mid {
		t.Fatalf("Depth() = %d", leaf.Depth())
	}
	cases := []struct {
		key  string
		want string
		hops int
		ok   bool
	}{
		{"a", "root", 2, true},
		{"b", "mid", 1, true},
		{"c", "", 0, false},
	}
	for _, tc := range cases {
		v, hops, ok := leaf.Resolve(tc.key)
		if v != tc.want || hops != tc.hops || ok != tc.ok {
			t.Fatalf("Resolve(%s) = %q, %d, %v", tc.key, v, hops, ok)
		}
	}
}

func TestMapPolicies(t *testing.T) {
	root := New[int]()
	root.Put("x", 1)
	root.Put("y", 2)
	child := NewChild(root)
	child.Put("z", 9)
	child.Put("x", 3)

	var visible []Binding[int]
	for b := range child.Bindings(PolicyVisible) {
		visible = append(visible, b)
	}
	wantVisible := []Binding[int]{
		{Key: "x", Value: 3, Level: 0, Shadows: true},
		{Key: "y", Value: 2, Level: 1},
		{Key: "z", Value: 9, Level: 0},
	}
	if !slices.Equal(visible, wantVisible) {
		t.Fatalf("visible = %+v", visible)
	}

	var all []Binding[int]
	for b := range child.Bindings(PolicyAll) {
		all = append(all, b)
	}
	wantAll := []Binding[int]{
		{Key: "x", Value: 1, Level: 1, Shadows: true},
		{Key: "y", Value: 2, Level: 1},
		{Key: "z", Value: 9, Level: 0},
		{Key: "x", Value: 3, Level: 0},
	}
	if !slices.Equal(all, wantAll) {
		t.Fatalf("all = %+v", all)
	}

	inherit := NewChild(New[int](WithPolicy(PolicyAll)))
	if inherit.Policy() != PolicyAll {
		t.Fatalf("child did not inherit policy")
	}
}

func TestMapMutationDuringIteration(t *testing.T) {
	m := New[int]()
	for i := 0; i < 5; i++ {
		m.Put(strconv.Itoa(i), i)
	}
	var got []string
	for k := range m.All() {
		got = append(got, k)
		if k == "1" {
			m.Remove("3")
			m.Put("late", 99)
		}
	}
	if !slices.Equal(got, []string{"0", "1", "2", "4"}) {
		t.Fatalf("keys = %v", got)
	}
}

func TestMapClear(t *testing.T) {
	m := New[int]()
	m.Put("a", 1)
	m.Put("b", 2)
	m.Clear()
	if m.Len() != 0 || m.Has("a") {
		t.Fatalf("Clear left bindings")
	}
	m.Put("c", 3)
	if got := m.Keys().Items(); !slices.Equal(got, []string{"c"}) {
		t.Fatalf("keys = %v", got)
	}
}

func TestParsePolicy(t *testing.T) {
	cases := []struct {
		in   string
		want Policy
		err  bool
	}{
		{"visible", PolicyVisible, false},
		{"ALL", PolicyAll, false},
		{"", PolicyVisible, false},
		{"first", PolicyVisible, true},
	}
	for _, tc := range cases {
		got, err := ParsePolicy(tc.in)
		if (err != nil) != tc.err || got != tc.want {
			t.Fatalf("ParsePolicy(%q) = %v, %v", tc.in, got, err)
		}
	}
}

func TestWithBucketsRoundsUp(t *testing.T) {
	m := New[int](WithBuckets(100), WithLoadFactor(2))
	if st := m.Stats(); st.Buckets != 128 {
		t.Fatalf("Buckets = %d, want 128", st.Buckets)
	}
	for i := 0; i < 256; i++ {
		m.Put(strconv.Itoa(i), i)
	}
	if st := m.Stats(); st.Resizes != 0 {
		t.Fatalf("Resizes = %d with load factor 2", st.Resizes)
	}
	m.Put("overflow", 1)
	if st := m.Stats(); st.Resizes != 1 || st.Buckets != 256 {
		t.Fatalf("stats after overflow = %+v", st)
	}
}

func TestWithBucketsClamps(t *testing.T) {
	for _, n := range []int{MaxBuckets + 1, 1 << 40, 1<<62 + 1, math.MaxInt} {
		c := defaultConfig()
		WithBuckets(n)(&c)
		if c.buckets != MaxBuckets {
			t.Fatalf("WithBuckets(%d) = %d, want %d", n, c.buckets, MaxBuckets)
		}
	}
}

func TestGrowthStopsAtMaxBuckets(t *testing.T) {
	m := New[int]()
	m.setBuckets(make([]*entry[int], MaxBuckets))
	m.cfg.loadFactor = 1.0 / MaxBuckets
	m.Put("a", 1)
	m.Put("b", 2)
	if st := m.Stats(); st.Buckets != MaxBuckets || st.Resizes != 0 {
		t.Fatalf("stats = %+v", st)
	}
	if v, ok := m.Get("b"); !ok || v != 2 {
		t.Fatalf("Get(b) = %v, %v", v, ok)
	}
}
