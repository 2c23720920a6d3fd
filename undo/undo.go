// Package undo records edits to a text as a log of insert and delete
// actions that can be undone and redone.
//
// A History does not own the text. Callers record each edit as they
// make it, and Undo and Redo replay one action at a time against a
// Target. Consecutive keystrokes merge into a single action: typing
// extends an insert, and backspacing or deleting forward extends a
// delete. Grouping several actions into one user-visible step is done
// by the caller with section marks.
//
// The bytes needed to replay actions live in one gap buffer laid out as
//
//	[ deleted bytes of undoable actions | inserted bytes of redoable actions ]
//	                                    ^split
//
// both halves in action order, so that the bytes of the action next to
// be undone end at split and those of the action next to be redone
// start there. Undo and Redo only ever edit the buffer at split.
package undo

import (
	"fmt"

	"github.com/rjkroege/membuffer/gapbuffer"
)

// ActionType distinguishes the two kinds of edits.
type ActionType int

const (
	Insert ActionType = iota
	Delete
)

func (t ActionType) String() string {
	switch t {
	case Insert:
		return "Insert"
	case Delete:
		return "Delete"
	}
	return fmt.Sprintf("ActionType(%d)", int(t))
}

// Flags qualify an action.
type Flags uint8

const (
	// SectionMark ends a user-visible undo step.
	SectionMark Flags = 1 << iota
	// MergeStop prevents the next edit from merging into this action.
	MergeStop
)

// Action is one entry of the log. For an Insert, Len bytes were added
// at Pos. For a Delete, Len bytes were removed starting at Pos.
type Action struct {
	Type  ActionType
	Pos   int
	Len   int
	Flags Flags
}

const (
	savedNowhere     = -1 // saved before any action
	savedUnreachable = -2 // the saved action was truncated away
)

// Target is the text a History replays actions against.
type Target interface {
	InsertBytes(pos int, b []byte)
	RemoveBytes(pos, n int)
	ReadBytes(pos, n int) []byte
}

// History is an undo/redo log. The zero value is not usable; use New.
type History struct {
	actions []Action
	next    int // actions[:next] are undoable, actions[next:] redoable
	saved   int // index of the action that was last when saved

	data  *gapbuffer.Buffer[byte]
	split int
}

// New returns an empty History whose replay buffer grows in blockSize
// steps.
func New(blockSize int) *History {
	return &History{
		saved: savedNowhere,
		data:  gapbuffer.New[byte](blockSize),
	}
}

// Reset forgets every action. The current state becomes the saved one.
func (h *History) Reset() {
	h.actions = h.actions[:0]
	h.next = 0
	h.saved = savedNowhere
	h.data.Clear()
	h.split = 0
}

// Len returns the number of actions in the log.
func (h *History) Len() int { return len(h.actions) }

// Next returns the index of the action that Redo would replay.
func (h *History) Next() int { return h.next }

// Action returns the i-th action of the log.
func (h *History) Action(i int) Action { return h.actions[i] }

// DataLen returns the number of bytes held for replay.
func (h *History) DataLen() int { return h.data.Len() }

// truncate discards the redoable actions and their bytes.
func (h *History) truncate() {
	if h.next == len(h.actions) {
		return
	}
	if h.saved >= h.next {
		h.saved = savedUnreachable
	}
	h.actions = h.actions[:h.next]
	h.data.Remove(h.split, h.data.Len()-h.split)
}

// mergeable returns the previous action when a new edit of type t may
// be folded into it.
func (h *History) mergeable(t ActionType) *Action {
	if h.next == 0 || h.saved == h.next-1 {
		return nil
	}
	p := &h.actions[h.next-1]
	if p.Type != t || p.Flags != 0 {
		return nil
	}
	return p
}

func (h *History) push(a Action) {
	h.actions = append(h.actions, a)
	h.next++
}

// RecordInsert records that n bytes were inserted at pos. Call it for
// every insertion, before or after making it.
func (h *History) RecordInsert(pos, n int) {
	if n <= 0 {
		return
	}
	h.truncate()
	if p := h.mergeable(Insert); p != nil && pos == p.Pos+p.Len {
		p.Len += n
		return
	}
	h.push(Action{Type: Insert, Pos: pos, Len: n})
}

// RecordDelete records that b is about to be deleted from pos. Call it
// before making the deletion.
func (h *History) RecordDelete(pos int, b []byte) {
	n := len(b)
	if n == 0 {
		return
	}
	h.truncate()

	// A delete that touches the point of the previous one extends it:
	// the part before that point precedes the previously deleted bytes
	// and the rest follows them.
	if p := h.mergeable(Delete); p != nil && pos <= p.Pos && p.Pos <= pos+n {
		k := p.Pos - pos
		h.data.Insert(h.split-p.Len, b[:k])
		h.data.Insert(h.split+k, b[k:])
		h.split += n
		p.Pos = pos
		p.Len += n
		return
	}

	h.data.Insert(h.split, b)
	h.split += n
	h.push(Action{Type: Delete, Pos: pos, Len: n})
}

// Undo reverts the previous action on t and returns it. It panics when
// there is nothing to undo.
func (h *History) Undo(t Target) Action {
	if h.next == 0 {
		panic("internal error: undo.History.Undo: nothing to undo")
	}
	h.next--
	a := h.actions[h.next]
	switch a.Type {
	case Insert:
		h.data.Insert(h.split, t.ReadBytes(a.Pos, a.Len))
		t.RemoveBytes(a.Pos, a.Len)
	case Delete:
		h.split -= a.Len
		t.InsertBytes(a.Pos, h.take(h.split, a.Len))
	}
	return a
}

// Redo replays the next undone action on t and returns it. It panics
// when there is nothing to redo.
func (h *History) Redo(t Target) Action {
	if h.next == len(h.actions) {
		panic("internal error: undo.History.Redo: nothing to redo")
	}
	a := h.actions[h.next]
	h.next++
	switch a.Type {
	case Insert:
		t.InsertBytes(a.Pos, h.take(h.split, a.Len))
	case Delete:
		h.data.Insert(h.split, t.ReadBytes(a.Pos, a.Len))
		h.split += a.Len
		t.RemoveBytes(a.Pos, a.Len)
	}
	return a
}

// take removes and returns n bytes of replay data starting at pos.
func (h *History) take(pos, n int) []byte {
	b := append([]byte(nil), h.data.Range(pos, n)...)
	h.data.Remove(pos, n)
	return b
}

func (h *History) setFlag(f Flags) {
	if h.next > 0 {
		h.actions[h.next-1].Flags |= f
	}
}

// SetMergeStop keeps the next edit from merging into the previous
// action.
func (h *History) SetMergeStop() { h.setFlag(MergeStop) }

// SetSectionMark ends the current undo step at the previous action.
func (h *History) SetSectionMark() { h.setFlag(SectionMark) }

// IsPreviousActionSectionSeparator reports whether undoing further
// would cross into an earlier step. It is true at the start of the log.
func (h *History) IsPreviousActionSectionSeparator() bool {
	return h.next == 0 || h.actions[h.next-1].Flags&SectionMark != 0
}

// IsFirstAction reports whether there is nothing to undo.
func (h *History) IsFirstAction() bool { return h.next == 0 }

// IsLastAction reports whether there is nothing to redo.
func (h *History) IsLastAction() bool { return h.next == len(h.actions) }

// SetPreviousActionToSavedState records the current position in the log
// as the one matching the saved text.
func (h *History) SetPreviousActionToSavedState() { h.saved = h.next - 1 }

// IsPreviousActionSavedState reports whether the log is at the saved
// position. Text identical to the saved text but reached at another
// position in the log reports false.
func (h *History) IsPreviousActionSavedState() bool { return h.saved == h.next-1 }
