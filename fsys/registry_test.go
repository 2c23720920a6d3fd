package fsys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rjkroege/membuffer/file"
	"github.com/rjkroege/membuffer/textdata"
)

func TestOnChangeSkipsLoad(t *testing.T) {
	name := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(name, []byte("loaded\n"), 0644); err != nil {
		t.Fatal(err)
	}

	reg := NewRegistry(16)
	var changes []textdata.Update
	reg.OnChange = func(id int, u textdata.Update) { changes = append(changes, u) }
	id, err := reg.Open(name)
	if err != nil {
		t.Fatal(err)
	}
	reg.With(id, func(f *file.File) error {
		if f.Text().HasPendingUpdates() {
			t.Error("load still pending after Open")
		}
		f.Insert(7, []byte("typed\n"))
		f.Text().FlushPendingUpdates()
		return nil
	})

	want := []textdata.Update{{Begin: 7, OldEnd: 7, Amount: 6}}
	if diff := cmp.Diff(want, changes); diff != "" {
		t.Errorf("changes (-want +got):\n%s", diff)
	}
}
