// Package file is the model of one editable file: a textdata.TextData
// holding the text, an undo.History of the edits made to it, and the
// details of its disk backing.
//
// Every edit goes through File so that it is recorded. Undo and Redo
// work a section at a time. A section is closed by Mark.
package file

import (
	"github.com/rjkroege/membuffer/textdata"
	"github.com/rjkroege/membuffer/undo"
)

// File is a text with an editing history and a name on disk.
type File struct {
	text    *textdata.TextData
	history *undo.History
	details *DiskDetails

	// cursor is the mark used for position based edits and replay.
	cursor *textdata.Mark
}

// NewFile returns an empty, clean File named name. Its storage grows in
// blockSize steps.
func NewFile(name string, blockSize int) *File {
	td := textdata.New(blockSize)
	return &File{
		text:    td,
		history: undo.New(blockSize),
		details: &DiskDetails{Name: name},
		cursor:  td.CreateMark(0),
	}
}

// Text returns the underlying text for marks, observers and filters.
// Edits must be made through the File.
func (f *File) Text() *textdata.TextData { return f.text }

// History returns the editing history.
func (f *File) History() *undo.History { return f.history }

// Details returns the disk backing.
func (f *File) Details() *DiskDetails { return f.details }

// Name returns the name of the backing file.
func (f *File) Name() string { return f.details.Name }

// SetName changes the backing file. What is on disk under the new name
// is unknown, so saving over an existing file requires force.
func (f *File) SetName(name string) {
	if name == f.details.Name {
		return
	}
	f.details = &DiskDetails{Name: name}
}

// Nbyte returns the length of the text in bytes.
func (f *File) Nbyte() int { return f.text.Len() }

func (f *File) String() string { return f.text.String() }

// InsertAt inserts b at m and records the insertion. The insert filter
// of the text may change or reject b. It returns the number of bytes
// inserted.
func (f *File) InsertAt(m *textdata.Mark, b []byte) int {
	n := f.text.InsertAt(m, b)
	f.history.RecordInsert(m.Pos()-n, n)
	return n
}

// DeleteAt deletes n bytes at m and records the deletion.
func (f *File) DeleteAt(m *textdata.Mark, n int) {
	if n == 0 {
		return
	}
	f.history.RecordDelete(m.Pos(), f.text.Copy(m.Pos(), n))
	f.text.RemoveAt(m, n)
}

// Insert inserts b at q0.
func (f *File) Insert(q0 int, b []byte) int {
	f.cursor.MoveTo(q0)
	return f.InsertAt(f.cursor, b)
}

// Delete deletes [q0, q1).
func (f *File) Delete(q0, q1 int) {
	f.cursor.MoveTo(q0)
	f.DeleteAt(f.cursor, q1-q0)
}

// Replace replaces [q0, q1) with b.
func (f *File) Replace(q0, q1 int, b []byte) int {
	f.Delete(q0, q1)
	return f.Insert(q0, b)
}

// Mark closes the current undo section. The next edit starts a new one.
func (f *File) Mark() {
	f.history.SetSectionMark()
}

// Undo reverts the most recent section. It returns the range of the text
// affected by the last change reverted and whether anything was undone.
func (f *File) Undo() (q0, q1 int, ok bool) {
	for !f.history.IsFirstAction() {
		a := f.history.Undo(replay{f})
		q0, q1, ok = a.Pos, a.Pos, true
		if a.Type == undo.Delete {
			q1 = a.Pos + a.Len
		}
		if f.history.IsPreviousActionSectionSeparator() {
			break
		}
	}
	return q0, q1, ok
}

// Redo replays the next undone section.
func (f *File) Redo() (q0, q1 int, ok bool) {
	for !f.history.IsLastAction() {
		a := f.history.Redo(replay{f})
		q0, q1, ok = a.Pos, a.Pos, true
		if a.Type == undo.Insert {
			q1 = a.Pos + a.Len
		}
		if f.history.IsPreviousActionSectionSeparator() {
			break
		}
	}
	return q0, q1, ok
}

// HasUndoableChanges returns true if there are changes to the File
// that can be undone.
func (f *File) HasUndoableChanges() bool { return !f.history.IsFirstAction() }

// HasRedoableChanges returns true if there are entries in the Redo
// log that can be redone.
func (f *File) HasRedoableChanges() bool { return !f.history.IsLastAction() }

// Dirty reports whether the text differs from the last load or save.
func (f *File) Dirty() bool { return !f.history.IsPreviousActionSavedState() }

// Clean marks the current state as the saved one.
func (f *File) Clean() { f.history.SetPreviousActionToSavedState() }

// replay applies history actions to the text without recording them.
type replay struct{ f *File }

func (r replay) InsertBytes(pos int, b []byte) {
	r.f.cursor.MoveTo(pos)
	r.f.text.InsertUnfilteredAt(r.f.cursor, b)
}

func (r replay) RemoveBytes(pos, n int) {
	r.f.cursor.MoveTo(pos)
	r.f.text.RemoveAt(r.f.cursor, n)
}

func (r replay) ReadBytes(pos, n int) []byte { return r.f.text.Copy(pos, n) }
