package textdata

import (
	"fmt"
	"strings"
	"testing"
)

type markState struct {
	pos, line, column int
}

func (s markState) String() string {
	return fmt.Sprintf("pos %d (%d:%d)", s.pos, s.line, s.column)
}

func stateOf(m *Mark) markState {
	return markState{m.Pos(), m.Line(), m.Column()}
}

// naiveState computes line and column for pos by scanning s from the
// start.
func naiveState(s string, pos int) markState {
	before := s[:pos]
	return markState{
		pos:    pos,
		line:   strings.Count(before, "\n"),
		column: pos - (strings.LastIndexByte(before, '\n') + 1),
	}
}

func checkMark(t *testing.T, name string, m *Mark, want markState) {
	t.Helper()
	if got := stateOf(m); got != want {
		t.Errorf("%s: got %v want %v", name, got, want)
	}
}

func checkText(t *testing.T, name string, td *TextData, want string) {
	t.Helper()
	if got := td.String(); got != want {
		t.Errorf("%s: text got %q want %q", name, got, want)
	}
	if got, want := td.NumberOfLines(), strings.Count(want, "\n"); got != want {
		t.Errorf("%s: NumberOfLines got %d want %d", name, got, want)
	}
}

func mustPanic(t *testing.T, name string, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s did not panic", name)
		}
	}()
	f()
}

func newText(s string) *TextData {
	td := New(8)
	td.Load(strings.NewReader(s))
	td.FlushPendingUpdates()
	return td
}

type recorder struct {
	name string
	tape *[]string
	got  []Update
	on   func(td *TextData)
}

func (r *recorder) Updated(td *TextData, u Update) {
	r.got = append(r.got, u)
	if r.tape != nil {
		*r.tape = append(*r.tape, r.name)
	}
	if r.on != nil {
		r.on(td)
	}
}
