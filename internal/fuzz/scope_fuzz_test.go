package fuzztests

import (
	"strconv"
	"testing"

	"kestrel/internal/scope"
	"kestrel/internal/testkit"
)

const fuzzKeys = 24

// level mirrors the bindings of one scope map.
type level struct {
	values map[string]int
}

// FuzzMapOps drives a scope chain with a byte-coded operation stream and
// compares every lookup with a plain model.
//
//	op%5 == 0,1  put key(next byte) = position
//	op%5 == 2    remove key(next byte)
//	op%5 == 3    open a child scope
//	op%5 == 4    close the innermost scope
func FuzzMapOps(f *testing.F) {
	f.Add([]byte{0, 1, 0, 2, 3, 0, 1, 2, 1, 4})
	f.Add([]byte{3, 3, 3, 0, 5, 4, 4, 2, 5})
	f.Add([]byte("put put remove open close"))
	f.Fuzz(func(t *testing.T, ops []byte) {
		if len(ops) > maxFuzzInput {
			ops = ops[:maxFuzzInput]
		}
		maps := []*scope.Map[int]{scope.New[int](scope.WithBuckets(2), scope.WithLoadFactor(1))}
		model := []level{{values: map[string]int{}}}

		for i := 0; i < len(ops); i++ {
			op := ops[i] % 5
			key := ""
			if op <= 2 && i+1 < len(ops) {
				i++
				key = "k" + strconv.Itoa(int(ops[i])%fuzzKeys)
			}
			top := len(maps) - 1
			switch op {
			case 0, 1:
				if key == "" {
					continue
				}
				maps[top].Put(key, i)
				model[top].values[key] = i
			case 2:
				if key == "" {
					continue
				}
				_, want := model[top].values[key]
				if got := maps[top].Remove(key); got != want {
					t.Fatalf("Remove(%q) = %v, model says %v", key, got, want)
				}
				delete(model[top].values, key)
			case 3:
				maps = append(maps, scope.NewChild(maps[top]))
				model = append(model, level{values: map[string]int{}})
			case 4:
				if top == 0 {
					continue
				}
				maps = maps[:top]
				model = model[:top]
			}
		}

		inner := maps[len(maps)-1]
		for k := range fuzzKeys {
			key := "k" + strconv.Itoa(k)
			want, wantOK, wantHops := 0, false, 0
			for j := len(model) - 1; j >= 0; j-- {
				if v, ok := model[j].values[key]; ok {
					want, wantOK, wantHops = v, true, len(model)-1-j
					break
				}
			}
			got, hops, ok := inner.Resolve(key)
			if ok != wantOK || (ok && (got != want || hops != wantHops)) {
				t.Fatalf("Resolve(%q) = %d, %d, %v; model %d, %d, %v", key, got, hops, ok, want, wantHops, wantOK)
			}
		}
		if err := testkit.CheckScopeInvariants(inner); err != nil {
			t.Fatalf("invariants: %v", err)
		}
	})
}
