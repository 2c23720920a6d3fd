package textdata

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
	"unicode"
)

func TestInsertRemove(t *testing.T) {
	td := New(4)
	m := td.CreateMark(0)

	td.InsertAt(m, []byte("hello"))
	checkText(t, "#0", td, "hello")
	checkMark(t, "#0", m, markState{5, 0, 5})

	td.InsertAt(m, []byte(" world\n"))
	checkText(t, "#1", td, "hello world\n")
	checkMark(t, "#1", m, markState{12, 1, 0})

	m.MoveTo(5)
	td.RemoveAt(m, 6)
	checkText(t, "#2", td, "hello\n")
	checkMark(t, "#2", m, markState{5, 0, 5})

	td.RemoveAt(m, 0)
	if got := td.InsertAt(m, nil); got != 0 {
		t.Errorf("empty insert returned %d", got)
	}
	checkText(t, "#3", td, "hello\n")

	mustPanic(t, "RemoveAt past end", func() { td.RemoveAt(m, 2) })
}

func TestLoad(t *testing.T) {
	td := newText("old text")
	m := td.CreateMark(4)

	n, err := td.Load(strings.NewReader("one\ntwo\n"))
	if err != nil || n != 8 {
		t.Fatalf("Load: %d, %v", n, err)
	}
	checkText(t, "load", td, "one\ntwo\n")
	checkMark(t, "load", m, markState{0, 0, 0})
	if u, ok := td.PendingUpdate(); !ok || u != (Update{0, 8, 8}) {
		t.Errorf("Load pending update: %v, %v", u, ok)
	}

	boom := errors.New("boom")
	if _, err := td.Load(iotest.ErrReader(boom)); !errors.Is(err, boom) {
		t.Errorf("Load error: got %v want %v", err, boom)
	}
	checkText(t, "failed load", td, "one\ntwo\n")

	td.Clear()
	checkText(t, "clear", td, "")
}

func TestWriteToDoesNotMoveGap(t *testing.T) {
	td := newText("0123456789")
	m := td.CreateMark(4)
	td.InsertAt(m, []byte("ab"))
	gap := td.buf.GapPos()

	var b bytes.Buffer
	n, err := td.WriteTo(&b)
	if err != nil || n != 12 {
		t.Fatalf("WriteTo: %d, %v", n, err)
	}
	if got, want := b.String(), "0123ab456789"; got != want {
		t.Errorf("WriteTo got %q want %q", got, want)
	}
	if td.buf.GapPos() != gap {
		t.Errorf("WriteTo moved the gap from %d to %d", gap, td.buf.GapPos())
	}
}

func TestReadAtAndCopy(t *testing.T) {
	td := newText("0123456789")
	m := td.CreateMark(5)
	td.InsertAt(m, []byte("x"))

	p := make([]byte, 4)
	n, err := td.ReadAt(p, 3)
	if err != nil || string(p[:n]) != "34x5" {
		t.Errorf("ReadAt(3) = %q, %v", p[:n], err)
	}
	n, err = td.ReadAt(p, 9)
	if err != io.EOF || string(p[:n]) != "89" {
		t.Errorf("ReadAt(9) = %q, %v", p[:n], err)
	}
	if n, err := td.ReadAt(p, 11); n != 0 || err != io.EOF {
		t.Errorf("ReadAt(11) = %d, %v", n, err)
	}
	if _, err := td.ReadAt(p, -1); err == nil {
		t.Error("ReadAt(-1) succeeded")
	}

	if got, want := string(td.Copy(4, 3)), "4x5"; got != want {
		t.Errorf("Copy got %q want %q", got, want)
	}
	if got, want := string(td.Range(4, 3)), "4x5"; got != want {
		t.Errorf("Range got %q want %q", got, want)
	}
}

func TestInsertFilter(t *testing.T) {
	td := New(8)
	m := td.CreateMark(0)

	calls := 0
	td.SetInsertFilter(func(b []byte) []byte {
		calls++
		return bytes.Map(unicode.ToUpper, b)
	})
	if got := td.InsertAt(m, []byte("abc")); got != 3 {
		t.Errorf("filtered insert returned %d", got)
	}
	checkText(t, "upper", td, "ABC")
	if calls != 1 {
		t.Errorf("filter called %d times", calls)
	}

	td.FlushPendingUpdates()
	td.SetInsertFilter(func(b []byte) []byte {
		return bytes.TrimFunc(b, func(r rune) bool { return !unicode.IsDigit(r) })
	})
	if got := td.InsertAt(m, []byte("xyz")); got != 0 {
		t.Errorf("rejected insert returned %d", got)
	}
	if td.HasPendingUpdates() {
		t.Error("rejected insert produced an update")
	}
	td.InsertUnfilteredAt(m, []byte("xyz"))
	checkText(t, "unfiltered", td, "ABCxyz")

	td.SetInsertFilter(func(b []byte) []byte {
		td.RemoveAt(m, 0)
		return b
	})
	mustPanic(t, "mutating filter", func() { td.InsertAt(m, []byte("q")) })

	td.SetInsertFilter(nil)
	td.InsertAt(m, []byte("q"))
	checkText(t, "after panic", td, "ABCxyzq")
}
