package textdata

// Update describes a change as a single replacement: the bytes
// [Begin, OldEnd) of the text as it was at the previous flush were
// replaced by Amount bytes starting at Begin.
type Update struct {
	Begin  int
	OldEnd int
	Amount int
}

// Observer is told about batched changes by FlushPendingUpdates.
// Implementations must be comparable so that they can be removed.
type Observer interface {
	Updated(td *TextData, u Update)
}

// AddObserver registers o. Observers are called in registration order.
func (td *TextData) AddObserver(o Observer) {
	td.observers = append(td.observers, o)
}

// DelObserver unregisters o. It may be called from within Updated.
func (td *TextData) DelObserver(o Observer) error {
	for i, p := range td.observers {
		if p == o {
			td.observers = append(td.observers[:i:i], td.observers[i+1:]...)
			return nil
		}
	}
	return ErrNotObserver
}

func (td *TextData) isObserver(o Observer) bool {
	for _, p := range td.observers {
		if p == o {
			return true
		}
	}
	return false
}

// HasPendingUpdates reports whether there were edits since the last flush.
func (td *TextData) HasPendingUpdates() bool { return td.pending }

// PendingUpdate returns the change accumulated since the last flush.
func (td *TextData) PendingUpdate() (Update, bool) {
	return td.changed, td.pending
}

// FlushPendingUpdates delivers the accumulated change, if any, to every
// observer and resets the accumulator. An observer removed by an
// earlier one during the same flush is not called.
func (td *TextData) FlushPendingUpdates() {
	if !td.pending {
		return
	}
	u := td.changed
	td.pending = false
	td.changed = Update{}

	snapshot := append([]Observer(nil), td.observers...)
	td.busy = "observer"
	defer func() { td.busy = "" }()
	for _, o := range snapshot {
		if td.isObserver(o) {
			o.Updated(td, u)
		}
	}
}

// accumulate folds the replacement of [begin, oldEnd) by amount bytes,
// given in current coordinates, into the pending change, which is kept
// in coordinates of the text at the last flush.
func (td *TextData) accumulate(begin, oldEnd, amount int) {
	if !td.pending {
		td.changed = Update{Begin: begin, OldEnd: oldEnd, Amount: amount}
		td.pending = true
		return
	}
	c := td.changed
	lo := min(c.Begin, begin)
	hi := max(c.Begin+c.Amount, oldEnd)
	td.changed = Update{
		Begin:  lo,
		OldEnd: hi - c.Amount + (c.OldEnd - c.Begin),
		Amount: hi + amount - (oldEnd - begin) - lo,
	}
}
