package dict

import (
	"slices"
	"testing"
)

func TestDictBasic(t *testing.T) {
	d := New[int]()
	if _, ok := d.Get("abc"); ok {
		t.Fatalf("expected abc to be absent")
	}
	d.Put("abc", 50)
	d.Put("xyz", 70)
	if v, _ := d.Get("abc"); v != 50 {
		t.Fatalf("Get(abc) = %d, want 50", v)
	}
	if v, _ := d.Get("xyz"); v != 70 {
		t.Fatalf("Get(xyz) = %d, want 70", v)
	}
	if d.Keys().Len() != 2 {
		t.Fatalf("Keys().Len() = %d, want 2", d.Keys().Len())
	}
	if got := d.Keys().Items(); !slices.Equal(got, []string{"abc", "xyz"}) {
		t.Fatalf("Keys() = %v", got)
	}
}

func TestDictRePutKeepsOrder(t *testing.T) {
	d := New[string]()
	d.Put("abc", "a")
	d.Put("xyz", "x")
	d.Put("abc", "again")
	if got := d.Keys().Items(); !slices.Equal(got, []string{"abc", "xyz"}) {
		t.Fatalf("Keys() = %v", got)
	}
	if d.Len() != 2 {
		t.Fatalf("Len() = %d", d.Len())
	}
	if v, _ := d.Get("abc"); v != "again" {
		t.Fatalf("Get(abc) = %q", v)
	}
}

func TestDictKeysIsACopy(t *testing.T) {
	d := New[int]()
	d.Put("a", 1)
	keys := d.Keys()
	keys.Push("bogus")
	if d.Len() != 1 {
		t.Fatalf("mutating Keys() leaked into the dict")
	}
}

func TestDictDelete(t *testing.T) {
	d := New[int]()
	for i, k := range []string{"a", "b", "c"} {
		d.Put(k, i)
	}
	if !d.Delete("b") {
		t.Fatalf("Delete(b) = false")
	}
	if d.Delete("missing") {
		t.Fatalf("Delete(missing) = true")
	}
	if d.Has("b") {
		t.Fatalf("b still bound")
	}
	d.Put("b", 7)
	var keys []string
	var vals []int
	for k, v := range d.All() {
		keys = append(keys, k)
		vals = append(vals, v)
	}
	if !slices.Equal(keys, []string{"a", "c", "b"}) || !slices.Equal(vals, []int{0, 2, 7}) {
		t.Fatalf("All() = %v %v", keys, vals)
	}
}

func TestDictKeysMatchBindings(t *testing.T) {
	d := New[int]()
	for i := 0; i < 500; i++ {
		d.Put(string(rune('a'+i%26))+string(rune('a'+i%7)), i)
	}
	seen := map[string]bool{}
	for _, k := range d.Keys().All() {
		if seen[k] {
			t.Fatalf("duplicate key %q", k)
		}
		seen[k] = true
		if !d.Has(k) {
			t.Fatalf("key %q listed but unbound", k)
		}
	}
	if len(seen) != d.Len() {
		t.Fatalf("keys %d != Len %d", len(seen), d.Len())
	}
}
