// Package gapbuffer implements a gap buffer: a sequence stored in two
// runs around an unused gap so that repeated edits near the same place
// cost O(1) amortized.
//
// The buffer is laid out in its store as
//
//	+-----------------+~~~~~~~~~~~~~+-----------------+
//	| [0, gapPos)     |     gap     | [gapPos, Len()) |
//	+-----------------+~~~~~~~~~~~~~+-----------------+
//	                  ^gapPos       ^gapPos+gapSize
//
// Moving the gap is the only O(n) operation and happens at most once
// per edit.
package gapbuffer

import (
	"fmt"

	"github.com/rjkroege/membuffer/internal/memarray"
)

// Buffer is a gap buffer of T. It is not safe for concurrent use.
type Buffer[T any] struct {
	store   *memarray.Array[T]
	gapPos  int
	gapSize int
}

// New returns an empty Buffer whose store grows in blockSize steps.
func New[T any](blockSize int) *Buffer[T] {
	return &Buffer[T]{store: memarray.New[T](blockSize)}
}

// NewFrom returns a Buffer pre-sized to hold a copy of data.
func NewFrom[T any](data []T, blockSize int) *Buffer[T] {
	b := New[T](blockSize)
	b.Insert(0, data)
	return b
}

// Len returns the logical number of elements.
func (b *Buffer[T]) Len() int { return b.store.Cap() - b.gapSize }

// GapPos returns the logical position of the gap.
func (b *Buffer[T]) GapPos() int { return b.gapPos }

// GapSize returns the number of unused elements in the gap.
func (b *Buffer[T]) GapSize() int { return b.gapSize }

func (b *Buffer[T]) check(op string, pos, n int) {
	if pos < 0 || n < 0 || pos+n > b.Len() {
		panic(fmt.Sprintf("internal error: gapbuffer.%s: [%d, %d) outside [0, %d)", op, pos, pos+n, b.Len()))
	}
}

func (b *Buffer[T]) physical(pos int) int {
	if pos < b.gapPos {
		return pos
	}
	return pos + b.gapSize
}

// At returns the element at logical position pos.
func (b *Buffer[T]) At(pos int) T {
	b.check("At", pos, 1)
	return b.store.At(b.physical(pos))
}

// Ptr returns a pointer to the element at logical position pos. It is
// valid until the next Insert.
func (b *Buffer[T]) Ptr(pos int) *T {
	b.check("Ptr", pos, 1)
	return &b.store.Slice(b.physical(pos), 1)[0]
}

// moveGap moves the gap so that it starts at logical position pos.
func (b *Buffer[T]) moveGap(pos int) {
	switch {
	case pos < b.gapPos:
		b.store.Move(pos+b.gapSize, pos, b.gapPos-pos)
	case pos > b.gapPos:
		b.store.Move(b.gapPos, b.gapPos+b.gapSize, pos-b.gapPos)
	}
	b.gapPos = pos
}

// growGap makes the gap at least n elements wide.
func (b *Buffer[T]) growGap(n int) {
	if b.gapSize >= n {
		return
	}
	oldCap := b.store.Cap()
	tail := oldCap - b.gapPos - b.gapSize
	b.store.EnsureCapacity(b.Len() + n)
	newCap := b.store.Cap()
	b.store.Move(newCap-tail, b.gapPos+b.gapSize, tail)
	b.gapSize += newCap - oldCap
}

// Range returns a contiguous view of [start, start+n). When the range
// straddles the gap, the gap is first moved to whichever edge of the
// range is closer. The view is valid until the next edit.
func (b *Buffer[T]) Range(start, n int) []T {
	b.check("Range", start, n)
	if n == 0 {
		return nil
	}
	if start < b.gapPos && start+n > b.gapPos {
		if b.gapPos-start <= start+n-b.gapPos {
			b.moveGap(start)
		} else {
			b.moveGap(start + n)
		}
	}
	return b.store.Slice(b.physical(start), n)
}

// Insert copies data into the buffer at logical position pos.
func (b *Buffer[T]) Insert(pos int, data []T) {
	b.check("Insert", pos, 0)
	if len(data) == 0 {
		return
	}
	b.moveGap(pos)
	b.growGap(len(data))
	b.store.CopyIn(b.gapPos, data)
	b.gapPos += len(data)
	b.gapSize -= len(data)
}

// Remove deletes [pos, pos+n). The removed elements become part of the
// gap.
func (b *Buffer[T]) Remove(pos, n int) {
	b.check("Remove", pos, n)
	if n == 0 {
		return
	}
	b.moveGap(pos)
	b.gapSize += n
}

// Clear empties the buffer without releasing its store.
func (b *Buffer[T]) Clear() {
	b.gapPos = 0
	b.gapSize = b.store.Cap()
}

// Runs returns the live contents as the runs before and after the gap
// without moving it.
func (b *Buffer[T]) Runs() (before, after []T) {
	end := b.gapPos + b.gapSize
	return b.store.Slice(0, b.gapPos), b.store.Slice(end, b.store.Cap()-end)
}

// Contents returns a copy of the logical contents.
func (b *Buffer[T]) Contents() []T {
	before, after := b.Runs()
	c := make([]T, 0, len(before)+len(after))
	c = append(c, before...)
	return append(c, after...)
}

// String implements fmt.Stringer for debugging.
func (b *Buffer[T]) String() string {
	before, after := b.Runs()
	return fmt.Sprintf("%v[gap %d]%v", before, b.gapSize, after)
}
