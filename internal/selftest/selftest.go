// Package selftest exercises the containers end to end: a quick check that a
// build works on the host, and a set of workloads for timing them.
package selftest

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"kestrel/internal/buffer"
	"kestrel/internal/dict"
	"kestrel/internal/scope"
	"kestrel/internal/trace"
	"kestrel/internal/vector"
)

// ErrFailed wraps every assertion failure.
var ErrFailed = errors.New("selftest failed")

// Check is one named self-test.
type Check struct {
	Name string
	Run  func() error
}

// Checks lists the self-tests in the order Run executes them.
func Checks() []Check {
	return []Check{
		{Name: "buffer", Run: checkBuffer},
		{Name: "list", Run: checkList},
		{Name: "map", Run: checkMap},
		{Name: "map-stack", Run: checkMapStack},
		{Name: "dict", Run: checkDict},
	}
}

// Run executes every check and stops at the first failure.
func Run(ctx context.Context) error {
	tr := trace.FromContext(ctx)
	parent := trace.CurrentSpan(ctx)
	for _, c := range Checks() {
		if err := ctx.Err(); err != nil {
			return err
		}
		span := trace.Begin(tr, trace.TierPass, "selftest:"+c.Name, parent)
		err := c.Run()
		if err != nil {
			span.End("failed")
			return fmt.Errorf("%s: %w", c.Name, err)
		}
		span.End("ok")
	}
	return nil
}

func failf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFailed, fmt.Sprintf(format, args...))
}

func expectString(what, want, got string) error {
	if want != got {
		return failf("%s: expected %q but got %q", what, want, got)
	}
	return nil
}

func expectInt(what string, want, got int) error {
	if want != got {
		return failf("%s: expected %d but got %d", what, want, got)
	}
	return nil
}

func checkBuffer() error {
	b := buffer.New()
	b.AppendByte('a')
	b.AppendByte('b')
	b.AppendByte(0)
	if err := expectString("buffer body", "ab", b.CString()); err != nil {
		return err
	}

	b2 := buffer.New()
	b2.AppendByte('.')
	b2.Printf("%s", "0123456789")
	return expectString("buffer printf", ".0123456789", b2.Body())
}

func checkList() error {
	var errs []error
	expect := func(what string, want int, got int, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", what, err))
			return
		}
		if e := expectInt(what, want, got); e != nil {
			errs = append(errs, e)
		}
	}

	list := vector.New[int]()
	expect("empty len", 0, list.Len(), nil)
	list.Push(1)
	expect("len after push", 1, list.Len(), nil)
	list.Push(2)
	expect("len after second push", 2, list.Len(), nil)

	cp := list.Copy()
	expect("copy len", 2, cp.Len(), nil)
	v, err := cp.Get(0)
	expect("copy[0]", 1, v, err)
	v, err = cp.Get(1)
	expect("copy[1]", 2, v, err)

	rev := list.Reverse()
	expect("reverse len", 2, rev.Len(), nil)
	v, err = rev.Pop()
	expect("reverse pop", 1, v, err)
	expect("len after pop", 1, rev.Len(), nil)
	v, err = rev.Pop()
	expect("reverse second pop", 2, v, err)
	expect("len after second pop", 0, rev.Len(), nil)

	list2 := vector.Of(5, 6)
	v, err = list2.Shift()
	expect("shift", 5, v, err)
	v, err = list2.Shift()
	expect("second shift", 6, v, err)

	list3 := vector.Of(1)
	v, err = list3.Head()
	expect("head", 1, v, err)
	v, err = list3.Tail()
	expect("tail", 1, v, err)
	list3.Push(2)
	v, err = list3.Head()
	expect("head after push", 1, v, err)
	v, err = list3.Tail()
	expect("tail after push", 2, v, err)

	list4 := vector.New[int]()
	list4.Push(1)
	list4.Push(2)
	v, err = list4.Get(0)
	expect("get 0", 1, v, err)
	v, err = list4.Get(1)
	expect("get 1", 2, v, err)

	if _, err := list4.Get(2); !errors.Is(err, vector.ErrOutOfBounds) {
		errs = append(errs, failf("get past the end: expected out of bounds, got %v", err))
	}
	return errors.Join(errs...)
}

const mapKeys = 10000

func checkMap() error {
	m := scope.New[int]()
	if _, ok := m.Get("abc"); ok {
		return failf("empty map returned a value")
	}

	for i := range mapKeys {
		k := strconv.Itoa(i)
		m.Put(k, i)
		if got, ok := m.Get(k); !ok || got != i {
			return failf("put %s: read back %d (present %v)", k, got, ok)
		}
	}
	for i := range 1000 {
		k := strconv.Itoa(i)
		m.Put(k, i)
		if got, _ := m.Get(k); got != i {
			return failf("re-put %s: read back %d", k, got)
		}
	}
	if m.Len() != mapKeys {
		return failf("len: expected %d but got %d", mapKeys, m.Len())
	}

	seen := make([]bool, mapKeys)
	for _, v := range m.All() {
		if seen[v] {
			return failf("iterator visited %d twice", v)
		}
		seen[v] = true
	}
	for i, ok := range seen {
		if !ok {
			return failf("iterator skipped %d", i)
		}
	}

	for i := range mapKeys {
		k := strconv.Itoa(i)
		if got, _ := m.Get(k); got != i {
			return failf("before remove %s: expected %d but got %d", k, i, got)
		}
		m.Remove(k)
		if _, ok := m.Get(k); ok {
			return failf("%s still present after remove", k)
		}
	}
	return nil
}

func checkMapStack() error {
	m1 := scope.New[int]()
	m1.Put("x", 1)
	m1.Put("y", 2)
	if v, _ := m1.Get("x"); v != 1 {
		return failf("m1.x: expected 1 but got %d", v)
	}

	m2 := scope.NewChild(m1)
	if v, _ := m2.Get("x"); v != 1 {
		return failf("m2.x through parent: expected 1 but got %d", v)
	}
	m2.Put("x", 3)
	if v, _ := m2.Get("x"); v != 3 {
		return failf("m2.x: expected 3 but got %d", v)
	}
	if v, _ := m1.Get("x"); v != 1 {
		return failf("m1.x after child put: expected 1 but got %d", v)
	}

	it := m2.Iter()
	for _, want := range []string{"x", "y"} {
		k, _, ok := it.Next()
		if !ok {
			return failf("iterator ended before %q", want)
		}
		if err := expectString("iteration", want, k); err != nil {
			return err
		}
	}
	if k, _, ok := it.Next(); ok {
		return failf("iterator yielded extra key %q", k)
	}
	return nil
}

func checkDict() error {
	d := dict.New[int]()
	if _, ok := d.Get("abc"); ok {
		return failf("empty dict returned a value")
	}
	d.Put("abc", 50)
	d.Put("xyz", 70)
	if v, _ := d.Get("abc"); v != 50 {
		return failf("abc: expected 50 but got %d", v)
	}
	if v, _ := d.Get("xyz"); v != 70 {
		return failf("xyz: expected 70 but got %d", v)
	}
	return expectInt("dict keys", 2, d.Keys().Len())
}
