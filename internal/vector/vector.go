package vector

import (
	"errors"
	"fmt"
	"iter"
)

var (
	// ErrOutOfBounds reports an index outside [0, Len).
	ErrOutOfBounds = errors.New("index out of bounds")
	// ErrEmpty reports a pop/shift/peek on an empty vector.
	ErrEmpty = errors.New("empty collection")
)

const minCapacity = 4

// Vector is a growable ordered sequence of opaque values.
//
// Live elements occupy data[head:]. Shift advances head instead of moving
// the remaining elements; the dead prefix is dropped the next time the
// storage has to grow.
type Vector[T any] struct {
	data []T
	head int
}

// New returns an empty vector.
func New[T any]() *Vector[T] {
	return &Vector[T]{}
}

// NewCap returns an empty vector with room for n elements.
func NewCap[T any](n int) *Vector[T] {
	if n < 0 {
		n = 0
	}
	return &Vector[T]{data: make([]T, 0, n)}
}

// Of builds a vector holding items in order.
func Of[T any](items ...T) *Vector[T] {
	v := NewCap[T](len(items))
	v.data = append(v.data, items...)
	return v
}

// Len reports the number of live elements.
func (v *Vector[T]) Len() int { return len(v.data) - v.head }

// Cap reports the number of live elements the vector can hold before growing.
func (v *Vector[T]) Cap() int { return cap(v.data) - v.head }

func (v *Vector[T]) outOfBounds(i int) error {
	return fmt.Errorf("%w: index %d, length %d", ErrOutOfBounds, i, v.Len())
}

func emptyErr(op string) error {
	return fmt.Errorf("%s: %w", op, ErrEmpty)
}

// Get returns the element at index i.
func (v *Vector[T]) Get(i int) (T, error) {
	if i < 0 || i >= v.Len() {
		var zero T
		return zero, v.outOfBounds(i)
	}
	return v.data[v.head+i], nil
}

// Set replaces the element at index i.
func (v *Vector[T]) Set(i int, value T) error {
	if i < 0 || i >= v.Len() {
		return v.outOfBounds(i)
	}
	v.data[v.head+i] = value
	return nil
}

// reserve guarantees room for n more elements, doubling capacity and
// compacting away the shifted-out prefix.
func (v *Vector[T]) reserve(n int) {
	if len(v.data)+n <= cap(v.data) {
		return
	}
	live := v.Len()
	next := cap(v.data) - v.head
	if next < minCapacity {
		next = minCapacity
	}
	for next < live+n {
		next *= 2
	}
	data := make([]T, live, next)
	copy(data, v.data[v.head:])
	v.data = data
	v.head = 0
}

// Push appends value at the tail.
func (v *Vector[T]) Push(value T) {
	v.reserve(1)
	v.data = append(v.data, value)
}

// Append pushes every element of other, in order.
func (v *Vector[T]) Append(other *Vector[T]) {
	if other == nil || other.Len() == 0 {
		return
	}
	src := other.data[other.head:]
	v.reserve(len(src))
	v.data = append(v.data, src...)
}

// Pop removes and returns the tail element.
func (v *Vector[T]) Pop() (T, error) {
	var zero T
	if v.Len() == 0 {
		return zero, emptyErr("pop")
	}
	last := len(v.data) - 1
	value := v.data[last]
	v.data[last] = zero
	v.data = v.data[:last]
	if v.Len() == 0 {
		v.data = v.data[:0]
		v.head = 0
	}
	return value, nil
}

// Shift removes and returns the head element in O(1).
func (v *Vector[T]) Shift() (T, error) {
	var zero T
	if v.Len() == 0 {
		return zero, emptyErr("shift")
	}
	value := v.data[v.head]
	v.data[v.head] = zero
	v.head++
	if v.Len() == 0 {
		v.data = v.data[:0]
		v.head = 0
	}
	return value, nil
}

// Head returns the first element without removing it.
func (v *Vector[T]) Head() (T, error) {
	if v.Len() == 0 {
		var zero T
		return zero, emptyErr("head")
	}
	return v.data[v.head], nil
}

// Tail returns the last element without removing it.
func (v *Vector[T]) Tail() (T, error) {
	if v.Len() == 0 {
		var zero T
		return zero, emptyErr("tail")
	}
	return v.data[len(v.data)-1], nil
}

// Copy returns an independent vector with the same elements.
func (v *Vector[T]) Copy() *Vector[T] {
	return Of(v.data[v.head:]...)
}

// Reverse returns a new vector with the elements in reverse order.
// The receiver is left untouched.
func (v *Vector[T]) Reverse() *Vector[T] {
	n := v.Len()
	out := NewCap[T](n)
	for i := len(v.data) - 1; i >= v.head; i-- {
		out.data = append(out.data, v.data[i])
	}
	return out
}

// Items returns a copy of the live elements.
func (v *Vector[T]) Items() []T {
	out := make([]T, v.Len())
	copy(out, v.data[v.head:])
	return out
}

// All yields (index, element) pairs from head to tail.
func (v *Vector[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < v.Len(); i++ {
			if !yield(i, v.data[v.head+i]) {
				return
			}
		}
	}
}

// Clear drops every element but keeps the storage.
func (v *Vector[T]) Clear() {
	clear(v.data)
	v.data = v.data[:0]
	v.head = 0
}
