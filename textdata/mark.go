package textdata

import (
	"errors"

	"github.com/rjkroege/membuffer/util"
)

// markEntry is one slot of the mark table. A slot with inUse == 0 is
// free and its position fields are stale.
type markEntry struct {
	pos    int
	line   int
	column int // bytes since the start of line
	inUse  int // number of live *Mark handles
}

// Mark is a handle on a position in a TextData. Marks keep their
// position, line and column correct across every edit. Several handles
// may share one table slot through Clone.
type Mark struct {
	td       *TextData
	idx      int
	released bool
}

// edit describes a single primitive change for updateMarksForEdit.
// Columns are those before the edit except newEndColumn, which is the
// column just past the inserted text afterwards.
type edit struct {
	begin, oldEnd, newAmount int
	beginLine, beginColumn   int
	lineDelta                int
	oldEndLine, oldEndColumn int
	newEndColumn             int
}

// CreateMark returns a new mark at pos.
func (td *TextData) CreateMark(pos int) *Mark {
	td.checkRange("CreateMark", pos, 0)
	idx := -1
	for i := range td.marks {
		if td.marks[i].inUse == 0 {
			idx = i
			break
		}
	}
	if idx < 0 {
		td.marks = append(td.marks, markEntry{})
		idx = len(td.marks) - 1
	}
	e := &td.marks[idx]
	*e = markEntry{inUse: 1}
	e.line = td.lineOf(*e, pos)
	e.column = pos - td.lineStart(pos)
	e.pos = pos
	return &Mark{td: td, idx: idx}
}

// NumberOfMarks returns the number of table slots in use.
func (td *TextData) NumberOfMarks() int {
	n := 0
	for _, e := range td.marks {
		if e.inUse > 0 {
			n++
		}
	}
	return n
}

func (m *Mark) entry() *markEntry {
	if m.released {
		util.InternalError("Mark", errors.New("use of released mark"))
	}
	return &m.td.marks[m.idx]
}

// Clone returns another handle on the same slot. The slot stays alive
// until every handle is released.
func (m *Mark) Clone() *Mark {
	m.entry().inUse++
	return &Mark{td: m.td, idx: m.idx}
}

// Release gives up the handle. The table slot becomes reusable once
// its last handle is released.
func (m *Mark) Release() {
	m.entry().inUse--
	m.released = true
}

// Pos returns the byte offset of the mark.
func (m *Mark) Pos() int { return m.entry().pos }

// Line returns the 0-based line of the mark.
func (m *Mark) Line() int { return m.entry().line }

// Column returns the byte offset of the mark from the start of its line.
func (m *Mark) Column() int { return m.entry().column }

// TextData returns the text the mark belongs to.
func (m *Mark) TextData() *TextData { return m.td }

// MoveTo moves the mark to pos. The line is recomputed from whichever of
// the text start, the mark itself, or the text end is nearest.
func (m *Mark) MoveTo(pos int) {
	m.td.checkRange("Mark.MoveTo", pos, 0)
	e := m.entry()
	e.line = m.td.lineOf(*e, pos)
	e.column = pos - m.td.lineStart(pos)
	e.pos = pos
}

// lineOf returns the line holding pos, counting newlines from the
// nearest known anchor.
func (td *TextData) lineOf(e markEntry, pos int) int {
	fromStart := pos
	fromEnd := td.Len() - pos
	fromMark := pos - e.pos
	if fromMark < 0 {
		fromMark = -fromMark
	}

	switch {
	case fromMark <= fromStart && fromMark <= fromEnd:
		if pos >= e.pos {
			return e.line + td.countNewlines(e.pos, pos)
		}
		return e.line - td.countNewlines(pos, e.pos)
	case fromStart <= fromEnd:
		return td.countNewlines(0, pos)
	default:
		return td.numberOfLines - td.countNewlines(pos, td.Len())
	}
}

// MoveToLineAndColumn moves the mark to column bytes into line. A line
// past the last one selects the last line. A column past the end of the
// line selects the end of the line.
func (m *Mark) MoveToLineAndColumn(line, column int) {
	td := m.td
	e := m.entry()
	line = max(0, min(line, td.numberOfLines))
	column = max(0, column)

	// Pick the anchor line start closest to line.
	at, begin := 0, 0
	if d := abs(line - e.line); d < line {
		at, begin = e.line, e.pos-e.column
	}
	if td.numberOfLines-line < abs(line-at) {
		at, begin = td.numberOfLines, td.lineStart(td.Len())
	}
	for ; at < line; at++ {
		begin = td.firstNewline(begin, td.Len()) + 1
	}
	for ; at > line; at-- {
		begin = td.lineStart(begin - 1)
	}

	end := td.lineEnd(begin)
	column = min(column, end-begin)
	e.pos, e.line, e.column = begin+column, line, column
}

// MoveToBeginOfLine moves the mark to column 0 of its line.
func (m *Mark) MoveToBeginOfLine() {
	e := m.entry()
	e.pos -= e.column
	e.column = 0
}

// MoveToEndOfLine moves the mark onto the '\n' ending its line, or to
// the end of the text on the last line.
func (m *Mark) MoveToEndOfLine() {
	e := m.entry()
	end := m.td.lineEnd(e.pos)
	e.column += end - e.pos
	e.pos = end
}

// MoveToNextLineBegin moves the mark to the start of the following line.
// It reports false and leaves the mark alone on the last line.
func (m *Mark) MoveToNextLineBegin() bool {
	e := m.entry()
	nl := m.td.firstNewline(e.pos, m.td.Len())
	if nl < 0 {
		return false
	}
	e.pos, e.line, e.column = nl+1, e.line+1, 0
	return true
}

// MoveToPrevLineBegin moves the mark to the start of the preceding line.
// It reports false and leaves the mark alone on line 0.
func (m *Mark) MoveToPrevLineBegin() bool {
	e := m.entry()
	if e.line == 0 {
		return false
	}
	begin := e.pos - e.column
	e.pos, e.line, e.column = m.td.lineStart(begin-1), e.line-1, 0
	return true
}

// updateMarksForEdit brings every live mark up to date after ed.
// Marks before the edit are untouched. Marks inside the replaced range
// collapse onto its start. Marks at or after its old end shift by the
// size difference, and those that shared the old end's line get a new
// column.
func (td *TextData) updateMarksForEdit(ed edit) {
	delta := ed.newAmount - (ed.oldEnd - ed.begin)
	for i := range td.marks {
		m := &td.marks[i]
		if m.inUse == 0 {
			continue
		}
		switch {
		case m.pos < ed.begin:
		case m.pos < ed.oldEnd:
			m.pos, m.line, m.column = ed.begin, ed.beginLine, ed.beginColumn
		default:
			if m.line == ed.oldEndLine {
				m.column = ed.newEndColumn + m.column - ed.oldEndColumn
			}
			m.pos += delta
			m.line += ed.lineDelta
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
