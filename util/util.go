// Package util holds small helpers shared by the membuffer packages.
package util

import (
	"bytes"
	"log"
)

// InternalError reports a violated contract. Callers are expected to
// have validated positions and history state, so there is nothing to
// recover from.
func InternalError(s string, err error) {
	log.Panicf("membuffer: %s: %v\n", s, err)
}

// CountLines returns the number of '\n' bytes in b and the index of
// the last one, or -1 if there is none.
func CountLines(b []byte) (n int, last int) {
	last = -1
	for {
		i := bytes.IndexByte(b[last+1:], '\n')
		if i < 0 {
			return n, last
		}
		n++
		last += i + 1
	}
}
