// Package memarray provides the growable element store underneath the
// gap buffer. An Array owns its backing slice exclusively; callers
// address it by physical offset and the Array never shrinks.
package memarray

import (
	"fmt"
	"log"
)

// DefaultBlockSize is used when a caller asks for a block size < 1.
const DefaultBlockSize = 256

// fatalf aborts the process. Replaced in tests.
var fatalf = log.Fatalf

// Array is a reallocating store of T with amortized O(1) growth.
type Array[T any] struct {
	data      []T
	blockSize int

	// alloc returns a zeroed slice of n elements or false when the
	// allocation could not be satisfied.
	alloc func(n int) ([]T, bool)
}

// New returns an empty Array whose capacity grows in multiples of
// blockSize.
func New[T any](blockSize int) *Array[T] {
	if blockSize < 1 {
		blockSize = DefaultBlockSize
	}
	return &Array[T]{
		blockSize: blockSize,
		alloc:     makeSlice[T],
	}
}

func makeSlice[T any](n int) (s []T, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s, ok = nil, false
		}
	}()
	return make([]T, n), true
}

// Cap returns the number of addressable elements.
func (a *Array[T]) Cap() int { return len(a.data) }

func (a *Array[T]) roundUp(n int) int {
	return (n + a.blockSize - 1) / a.blockSize * a.blockSize
}

// EnsureCapacity guarantees Cap() >= n on return. It prefers doubling
// the current capacity. When an allocation fails, the increment is
// halved (kept block aligned) until only the exact minimum is left.
// If even that cannot be allocated the process is aborted.
func (a *Array[T]) EnsureCapacity(n int) {
	c := len(a.data)
	if n <= c {
		return
	}
	inc := a.roundUp(max(2*c, n) - c)
	for {
		size := c + inc
		if size < n {
			size = n
		}
		if s, ok := a.alloc(size); ok {
			copy(s, a.data)
			a.data = s
			return
		}
		if size == n {
			fatalf("memarray: out of memory growing to %d elements", n)
			return
		}
		next := a.roundUp(inc / 2)
		if next >= inc {
			next = n - c
		}
		inc = next
	}
}

func (a *Array[T]) check(op string, pos, n int) {
	if pos < 0 || n < 0 || pos+n > len(a.data) {
		panic(fmt.Sprintf("internal error: memarray.%s: [%d, %d) outside capacity %d", op, pos, pos+n, len(a.data)))
	}
}

// At returns the element at physical offset pos.
func (a *Array[T]) At(pos int) T {
	a.check("At", pos, 1)
	return a.data[pos]
}

// Set overwrites the element at physical offset pos.
func (a *Array[T]) Set(pos int, v T) {
	a.check("Set", pos, 1)
	a.data[pos] = v
}

// CopyIn overwrites [dst, dst+len(src)) with src.
func (a *Array[T]) CopyIn(dst int, src []T) {
	a.check("CopyIn", dst, len(src))
	copy(a.data[dst:], src)
}

// Move copies n elements from src to dst. The ranges may overlap.
func (a *Array[T]) Move(dst, src, n int) {
	a.check("Move", src, n)
	a.check("Move", dst, n)
	copy(a.data[dst:dst+n], a.data[src:src+n])
}

// Slice returns a view of [pos, pos+n). The view is invalidated by the
// next EnsureCapacity that grows the Array.
func (a *Array[T]) Slice(pos, n int) []T {
	a.check("Slice", pos, n)
	return a.data[pos : pos+n : pos+n]
}
