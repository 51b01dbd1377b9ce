package dict_test

import (
	"testing"

	"kestrel/internal/dict"
	"kestrel/internal/testkit"
)

func TestDictInvariantsAfterDeletes(t *testing.T) {
	d := dict.New[string]()
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		d.Put(k, k+k)
	}
	d.Delete("b")
	d.Put("a", "again")
	d.Delete("e")
	d.Put("f", "ff")
	if err := testkit.CheckDictInvariants(d); err != nil {
		t.Fatalf("invariants: %v", err)
	}
	if got := d.Keys().Items(); len(got) != 4 || got[0] != "a" || got[3] != "f" {
		t.Fatalf("keys = %v", got)
	}
}
