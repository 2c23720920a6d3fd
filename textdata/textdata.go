// Package textdata is the addressable unit of editable text: a gap
// buffer of bytes, a table of marks that stay valid across every
// insert and delete, line accounting, and batched change notification
// for observers.
//
// TextData is single-threaded and not reentrant. Observers and insert
// filters must not mutate the TextData that invoked them; doing so
// panics.
package textdata

import (
	"bytes"
	"io"

	"github.com/rjkroege/membuffer/gapbuffer"
	"github.com/rjkroege/membuffer/util"
)

// InsertFilter may transform bytes about to be inserted. Returning an
// empty slice rejects the insertion. It is called exactly once per
// InsertAt.
type InsertFilter func(b []byte) []byte

// TextData is a gap buffer of bytes with marks and line accounting.
type TextData struct {
	buf           *gapbuffer.Buffer[byte]
	numberOfLines int // count of '\n' bytes in buf
	marks         []markEntry

	pending bool
	changed Update

	observers []Observer
	filter    InsertFilter

	// busy names the callback currently running. Mutation is refused
	// while it is set.
	busy string
}

var _ io.ReaderAt = (*TextData)(nil)
var _ io.WriterTo = (*TextData)(nil)

// New returns an empty TextData whose storage grows in blockSize steps.
func New(blockSize int) *TextData {
	return &TextData{buf: gapbuffer.New[byte](blockSize)}
}

// Len returns the number of bytes.
func (td *TextData) Len() int { return td.buf.Len() }

// NumberOfLines returns the number of line-ending bytes. The text after
// the last '\n' is line NumberOfLines() and is not counted.
func (td *TextData) NumberOfLines() int { return td.numberOfLines }

// At returns the byte at pos.
func (td *TextData) At(pos int) byte { return td.buf.At(pos) }

// Range returns a view of [pos, pos+n). It may move the gap and is
// invalidated by the next edit.
func (td *TextData) Range(pos, n int) []byte { return td.buf.Range(pos, n) }

// Copy returns a copy of [pos, pos+n) without moving the gap.
func (td *TextData) Copy(pos, n int) []byte {
	td.checkRange("Copy", pos, n)
	a, b := td.span(pos, pos+n)
	c := make([]byte, 0, n)
	c = append(c, a...)
	return append(c, b...)
}

// String returns the whole text.
func (td *TextData) String() string {
	return string(td.buf.Contents())
}

// ReadAt implements io.ReaderAt.
func (td *TextData) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errNegativeOffset
	}
	if off >= int64(td.Len()) {
		return 0, io.EOF
	}
	end := min(int(off)+len(p), td.Len())
	a, b := td.span(int(off), end)
	n := copy(p, a)
	n += copy(p[n:], b)
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteTo writes the text to w sequentially. It does not move the gap.
func (td *TextData) WriteTo(w io.Writer) (int64, error) {
	before, after := td.buf.Runs()
	n, err := w.Write(before)
	if err != nil {
		return int64(n), err
	}
	m, err := w.Write(after)
	return int64(n + m), err
}

// Load replaces the contents with everything read from r. All marks
// move to the start of the text. On a read error the contents are left
// unchanged.
func (td *TextData) Load(r io.Reader) (int64, error) {
	td.checkMutable("Load")
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	td.replaceAll(data)
	return int64(len(data)), nil
}

// Clear removes all text. All marks move to 0.
func (td *TextData) Clear() {
	td.checkMutable("Clear")
	td.replaceAll(nil)
}

func (td *TextData) replaceAll(data []byte) {
	oldLen := td.Len()
	td.buf.Clear()
	td.buf.Insert(0, data)
	td.numberOfLines = bytes.Count(data, newline)
	for i := range td.marks {
		td.marks[i].pos, td.marks[i].line, td.marks[i].column = 0, 0, 0
	}
	td.accumulate(0, oldLen, len(data))
}

// SetInsertFilter installs f, replacing any previous filter. A nil f
// removes it.
func (td *TextData) SetInsertFilter(f InsertFilter) {
	td.filter = f
}

// InsertAt inserts b at m after passing it through the insert filter.
// It returns the number of bytes actually inserted. Marks at m's
// position, m included, end up after the inserted text.
func (td *TextData) InsertAt(m *Mark, b []byte) int {
	td.checkMutable("InsertAt")
	if td.filter != nil {
		b = td.runFilter(b)
	}
	return td.InsertUnfilteredAt(m, b)
}

func (td *TextData) runFilter(b []byte) []byte {
	td.busy = "insert filter"
	defer func() { td.busy = "" }()
	return td.filter(b)
}

// InsertUnfilteredAt inserts b at m bypassing the insert filter. It is
// used to replay history, whose bytes were filtered when first typed.
func (td *TextData) InsertUnfilteredAt(m *Mark, b []byte) int {
	td.checkMutable("InsertUnfilteredAt")
	if len(b) == 0 {
		return 0
	}
	e := m.entry()
	nl, last := util.CountLines(b)
	newEndColumn := e.column + len(b)
	if nl > 0 {
		newEndColumn = len(b) - last - 1
	}
	ed := edit{
		begin:        e.pos,
		oldEnd:       e.pos,
		newAmount:    len(b),
		beginLine:    e.line,
		beginColumn:  e.column,
		lineDelta:    nl,
		oldEndLine:   e.line,
		oldEndColumn: e.column,
		newEndColumn: newEndColumn,
	}

	td.buf.Insert(ed.begin, b)
	td.numberOfLines += nl
	td.updateMarksForEdit(ed)
	td.accumulate(ed.begin, ed.oldEnd, ed.newAmount)
	return len(b)
}

// RemoveAt deletes n bytes starting at m.
func (td *TextData) RemoveAt(m *Mark, n int) {
	td.checkMutable("RemoveAt")
	e := m.entry()
	td.checkRange("RemoveAt", e.pos, n)
	if n == 0 {
		return
	}
	nl := td.countNewlines(e.pos, e.pos+n)
	oldEndColumn := e.column + n
	if nl > 0 {
		oldEndColumn = e.pos + n - td.lastNewline(e.pos, e.pos+n) - 1
	}
	ed := edit{
		begin:        e.pos,
		oldEnd:       e.pos + n,
		newAmount:    0,
		beginLine:    e.line,
		beginColumn:  e.column,
		lineDelta:    -nl,
		oldEndLine:   e.line + nl,
		oldEndColumn: oldEndColumn,
		newEndColumn: e.column,
	}

	td.buf.Remove(ed.begin, n)
	td.numberOfLines -= nl
	td.updateMarksForEdit(ed)
	td.accumulate(ed.begin, ed.oldEnd, ed.newAmount)
}

func (td *TextData) checkMutable(op string) {
	if td.busy != "" {
		util.InternalError("TextData."+op, errReentrant(td.busy))
	}
}

func (td *TextData) checkRange(op string, pos, n int) {
	if pos < 0 || n < 0 || pos+n > td.Len() {
		util.InternalError("TextData."+op, errOutOfRange{pos, n, td.Len()})
	}
}

var newline = []byte{'\n'}

// span returns the parts of [from, to) before and after the gap
// without moving it.
func (td *TextData) span(from, to int) (a, b []byte) {
	before, after := td.buf.Runs()
	g := len(before)
	if from < g {
		a = before[from:min(to, g)]
	}
	if to > g {
		b = after[max(from, g)-g : to-g]
	}
	return a, b
}

func (td *TextData) countNewlines(from, to int) int {
	a, b := td.span(from, to)
	return bytes.Count(a, newline) + bytes.Count(b, newline)
}

// lastNewline returns the position of the last '\n' in [from, to) or -1.
func (td *TextData) lastNewline(from, to int) int {
	a, b := td.span(from, to)
	if i := bytes.LastIndexByte(b, '\n'); i >= 0 {
		return to - len(b) + i
	}
	if i := bytes.LastIndexByte(a, '\n'); i >= 0 {
		return from + i
	}
	return -1
}

// firstNewline returns the position of the first '\n' in [from, to) or -1.
func (td *TextData) firstNewline(from, to int) int {
	a, b := td.span(from, to)
	if i := bytes.IndexByte(a, '\n'); i >= 0 {
		return from + i
	}
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		return to - len(b) + i
	}
	return -1
}

// lineStart returns the position of the beginning of the line holding pos.
func (td *TextData) lineStart(pos int) int {
	return td.lastNewline(0, pos) + 1
}

// lineEnd returns the position of the '\n' ending the line holding pos,
// or Len() for the last line.
func (td *TextData) lineEnd(pos int) int {
	if i := td.firstNewline(pos, td.Len()); i >= 0 {
		return i
	}
	return td.Len()
}
