package vector

import (
	"errors"
	"slices"
	"testing"
)

func TestVectorPushGetLen(t *testing.T) {
	list := New[int]()
	if list.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", list.Len())
	}
	list.Push(1)
	if list.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", list.Len())
	}
	list.Push(2)
	if list.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", list.Len())
	}
	for i, want := range []int{1, 2} {
		got, err := list.Get(i)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if got != want {
			t.Fatalf("Get(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestVectorGetOutOfBounds(t *testing.T) {
	list := Of("a", "b")
	for _, i := range []int{-1, 2, 100} {
		if _, err := list.Get(i); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("Get(%d) err = %v, want ErrOutOfBounds", i, err)
		}
	}
	if err := list.Set(5, "x"); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("Set(5) err = %v, want ErrOutOfBounds", err)
	}
	if err := list.Set(1, "z"); err != nil {
		t.Fatalf("Set(1): %v", err)
	}
	if got := list.Items(); !slices.Equal(got, []string{"a", "z"}) {
		t.Fatalf("Items() = %v", got)
	}
}

func TestVectorEmptyErrors(t *testing.T) {
	list := New[int]()
	ops := map[string]func() (int, error){
		"pop":   list.Pop,
		"shift": list.Shift,
		"head":  list.Head,
		"tail":  list.Tail,
	}
	for name, op := range ops {
		if _, err := op(); !errors.Is(err, ErrEmpty) {
			t.Fatalf("%s on empty: err = %v, want ErrEmpty", name, err)
		}
	}
}

func TestVectorCopyIsIndependent(t *testing.T) {
	list := Of(1, 2)
	cp := list.Copy()
	if cp.Len() != 2 {
		t.Fatalf("copy Len() = %d, want 2", cp.Len())
	}
	list.Push(3)
	if err := list.Set(0, 10); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := cp.Items(); !slices.Equal(got, []int{1, 2}) {
		t.Fatalf("copy changed after source mutation: %v", got)
	}
	cp.Push(99)
	if got := list.Items(); !slices.Equal(got, []int{10, 2, 3}) {
		t.Fatalf("source changed after copy mutation: %v", got)
	}
}

func TestVectorReverse(t *testing.T) {
	list := Of(1, 2)
	rev := list.Reverse()
	if rev.Len() != 2 {
		t.Fatalf("rev Len() = %d", rev.Len())
	}
	if v, _ := rev.Pop(); v != 1 {
		t.Fatalf("Pop() = %d, want 1", v)
	}
	if rev.Len() != 1 {
		t.Fatalf("rev Len() = %d, want 1", rev.Len())
	}
	if v, _ := rev.Pop(); v != 2 {
		t.Fatalf("Pop() = %d, want 2", v)
	}
	if rev.Len() != 0 {
		t.Fatalf("rev Len() = %d, want 0", rev.Len())
	}
	if got := list.Items(); !slices.Equal(got, []int{1, 2}) {
		t.Fatalf("Reverse mutated receiver: %v", got)
	}

	abc := Of("a", "b", "c").Reverse()
	if got := abc.Items(); !slices.Equal(got, []string{"c", "b", "a"}) {
		t.Fatalf("Reverse = %v", got)
	}
	if New[string]().Reverse().Len() != 0 {
		t.Fatalf("reverse of empty not empty")
	}
}

func TestVectorShiftHeadTail(t *testing.T) {
	list2 := Of(5, 6)
	if v, _ := list2.Shift(); v != 5 {
		t.Fatalf("Shift() = %d, want 5", v)
	}
	if v, _ := list2.Shift(); v != 6 {
		t.Fatalf("Shift() = %d, want 6", v)
	}

	list3 := New[int]()
	list3.Push(1)
	if h, _ := list3.Head(); h != 1 {
		t.Fatalf("Head() = %d", h)
	}
	if tl, _ := list3.Tail(); tl != 1 {
		t.Fatalf("Tail() = %d", tl)
	}
	list3.Push(2)
	if h, _ := list3.Head(); h != 1 {
		t.Fatalf("Head() = %d", h)
	}
	if tl, _ := list3.Tail(); tl != 2 {
		t.Fatalf("Tail() = %d", tl)
	}
}

func TestVectorShiftKeepsOrderAcrossGrowth(t *testing.T) {
	v := New[int]()
	next, expect := 0, 0
	pushes, removals := 0, 0
	for round := 0; round < 200; round++ {
		for i := 0; i < 7; i++ {
			v.Push(next)
			next++
			pushes++
		}
		for i := 0; i < 5; i++ {
			got, err := v.Shift()
			if err != nil {
				t.Fatalf("Shift: %v", err)
			}
			if got != expect {
				t.Fatalf("Shift() = %d, want %d", got, expect)
			}
			expect++
			removals++
		}
		if v.Len() != pushes-removals {
			t.Fatalf("Len() = %d, want %d", v.Len(), pushes-removals)
		}
		if v.Cap() < v.Len() {
			t.Fatalf("Cap() %d < Len() %d", v.Cap(), v.Len())
		}
	}
	for i, got := range v.All() {
		if got != expect+i {
			t.Fatalf("element %d = %d, want %d", i, got, expect+i)
		}
	}
	// Storage stays proportional to the live window rather than the total pushed.
	if v.Cap() > 4*v.Len() {
		t.Fatalf("Cap() = %d for %d live elements", v.Cap(), v.Len())
	}
}

func TestVectorPushPopAccounting(t *testing.T) {
	v := NewCap[string](0)
	for i := 0; i < 100; i++ {
		v.Push("x")
	}
	ok := 0
	for i := 0; i < 130; i++ {
		var err error
		if i%2 == 0 {
			_, err = v.Pop()
		} else {
			_, err = v.Shift()
		}
		if err == nil {
			ok++
		}
	}
	if ok != 100 || v.Len() != 0 {
		t.Fatalf("successful removals = %d, Len() = %d", ok, v.Len())
	}
}

func TestVectorAppendAndClear(t *testing.T) {
	a := Of(1, 2)
	b := Of(3, 4)
	if _, err := b.Shift(); err != nil {
		t.Fatalf("Shift: %v", err)
	}
	a.Append(b)
	a.Append(nil)
	if got := a.Items(); !slices.Equal(got, []int{1, 2, 4}) {
		t.Fatalf("Append = %v", got)
	}
	a.Clear()
	if a.Len() != 0 {
		t.Fatalf("Clear left %d elements", a.Len())
	}
	a.Push(7)
	if v, _ := a.Head(); v != 7 {
		t.Fatalf("Head() after Clear = %d", v)
	}
}

func TestVectorAllStopsEarly(t *testing.T) {
	v := Of(1, 2, 3, 4)
	seen := 0
	for _, x := range v.All() {
		seen++
		if x == 2 {
			break
		}
	}
	if seen != 2 {
		t.Fatalf("iterated %d elements, want 2", seen)
	}
}
