package fsys

import (
	"sort"
	"sync"

	"github.com/rjkroege/membuffer/file"
	"github.com/rjkroege/membuffer/textdata"
)

// entry is a served file and the range its addr file selects.
type entry struct {
	id    int
	f     *file.File
	addr0 *textdata.Mark
	addr1 *textdata.Mark
}

func (e *entry) setAddr(q0, q1 int) {
	e.addr0.MoveTo(q0)
	e.addr1.MoveTo(q1)
}

// changeObserver forwards batched text changes of one file.
type changeObserver struct {
	id       int
	onChange func(id int, u textdata.Update)
}

func (o *changeObserver) Updated(td *textdata.TextData, u textdata.Update) {
	o.onChange(o.id, u)
}

// Registry is the set of files served, keyed by a small integer id.
// Files are not safe for concurrent use so every access to one happens
// with the Registry locked.
type Registry struct {
	mu        sync.Mutex
	blockSize int
	lastID    int
	entries   map[int]*entry

	// OnChange, if set before files are added, is told about every
	// batch of changes to a file.
	OnChange func(id int, u textdata.Update)
}

// NewRegistry returns an empty Registry whose files grow in blockSize
// steps.
func NewRegistry(blockSize int) *Registry {
	return &Registry{
		blockSize: blockSize,
		entries:   make(map[int]*entry),
	}
}

// Add serves f and returns its id.
func (r *Registry) Add(f *file.File) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addLocked(f)
}

func (r *Registry) addLocked(f *file.File) int {
	r.lastID++
	td := f.Text()
	e := &entry{
		id:    r.lastID,
		f:     f,
		addr0: td.CreateMark(0),
		addr1: td.CreateMark(0),
	}
	// The observer only hears about edits made from now on.
	td.FlushPendingUpdates()
	if r.OnChange != nil {
		td.AddObserver(&changeObserver{id: e.id, onChange: r.OnChange})
	}
	r.entries[e.id] = e
	return e.id
}

// New serves a new empty file called name and returns its id.
func (r *Registry) New(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addLocked(file.NewFile(name, r.blockSize))
}

// Open serves the named file from disk and returns its id.
func (r *Registry) Open(name string) (int, error) {
	f := file.NewFile(name, r.blockSize)
	if err := f.LoadFile(name); err != nil {
		return 0, err
	}
	return r.Add(f), nil
}

// IDs returns the ids of all files in increasing order.
func (r *Registry) IDs() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Exists reports whether id names a served file.
func (r *Registry) Exists(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	return ok
}

// With calls fn with the file id while holding the Registry lock.
func (r *Registry) With(id int, fn func(f *file.File) error) error {
	return r.do(id, func(e *entry) error { return fn(e.f) })
}

func (r *Registry) do(id int, fn func(e *entry) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return ErrNotExist
	}
	return fn(e)
}

// removeLocked stops serving id.
func (r *Registry) removeLocked(id int) {
	e, ok := r.entries[id]
	if !ok {
		return
	}
	e.addr0.Release()
	e.addr1.Release()
	delete(r.entries, id)
}
