package textdata

import (
	"errors"
	"fmt"
)

// ErrNotObserver is returned by DelObserver for an observer that was
// never added or has already been removed.
var ErrNotObserver = errors.New("textdata: observer not registered")

var errNegativeOffset = errors.New("textdata: negative offset")

type errReentrant string

func (e errReentrant) Error() string {
	return fmt.Sprintf("mutation from within %s", string(e))
}

type errOutOfRange struct {
	pos, n, len int
}

func (e errOutOfRange) Error() string {
	return fmt.Sprintf("[%d, %d) outside [0, %d]", e.pos, e.pos+e.n, e.len)
}
