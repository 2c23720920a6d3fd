package file

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"
)

func readFile(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("reading %s: %v", name, err)
	}
	return string(b)
}

func TestLoadSave(t *testing.T) {
	name := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(name, []byte("one\n"), 0644); err != nil {
		t.Fatal(err)
	}

	f := NewFile("", 16)
	if err := f.LoadFile(name); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	check(t, "loaded", f, &stateSummary{false, false, false, "one\n"})
	if want, _ := HashFor(name); f.Details().Hash != want {
		t.Error("hash of loaded file not recorded")
	}

	f.Insert(4, []byte("two\n"))
	check(t, "edited", f, &stateSummary{true, false, true, "one\ntwo\n"})

	if err := f.Save(false); err != nil {
		t.Fatalf("Save: %v", err)
	}
	check(t, "saved", f, &stateSummary{true, false, false, "one\ntwo\n"})
	if got := readFile(t, name); got != "one\ntwo\n" {
		t.Errorf("saved contents %q", got)
	}
	if want, _ := HashFor(name); f.Details().Hash != want || want == (Hash{}) {
		t.Error("hash not updated by Save")
	}

	f.Undo()
	check(t, "undo after save", f, &stateSummary{false, true, true, "one\n"})
	f.Redo()
	check(t, "redo to saved", f, &stateSummary{true, false, false, "one\ntwo\n"})
}

func TestSaveRefusesChangedOnDisk(t *testing.T) {
	name := filepath.Join(t.TempDir(), "b.txt")
	if err := os.WriteFile(name, []byte("mine"), 0644); err != nil {
		t.Fatal(err)
	}
	f := NewFile("", 16)
	if err := f.LoadFile(name); err != nil {
		t.Fatal(err)
	}
	f.Insert(4, []byte("!"))

	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(name, later, later); err != nil {
		t.Fatal(err)
	}
	if err := f.Save(false); err != nil {
		t.Errorf("Save after touch: %v", err)
	}

	if err := os.WriteFile(name, []byte("theirs"), 0644); err != nil {
		t.Fatal(err)
	}
	even := later.Add(time.Hour)
	if err := os.Chtimes(name, even, even); err != nil {
		t.Fatal(err)
	}
	f.Insert(5, []byte("!"))
	if err := f.Save(false); !errors.Is(err, ErrChangedOnDisk) {
		t.Errorf("Save over changed file: got %v want %v", err, ErrChangedOnDisk)
	}
	if got := readFile(t, name); got != "theirs" {
		t.Errorf("refused save wrote %q", got)
	}
	if err := f.Save(true); err != nil {
		t.Errorf("forced Save: %v", err)
	}
	if got := readFile(t, name); got != "mine!!" {
		t.Errorf("forced save wrote %q", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "new.txt")
	f := NewFile("", 16)
	f.Insert(0, []byte("stale"))

	if err := f.LoadFile(name); err != nil {
		t.Fatalf("LoadFile of missing file: %v", err)
	}
	check(t, "missing", f, &stateSummary{false, false, false, ""})
	if f.Name() != name {
		t.Errorf("name got %q want %q", f.Name(), name)
	}

	f.Insert(0, []byte("fresh"))
	if err := f.Save(false); err != nil {
		t.Fatalf("Save of new file: %v", err)
	}
	if got := readFile(t, name); got != "fresh" {
		t.Errorf("saved %q", got)
	}
}

func TestSaveAsExistingRequiresForce(t *testing.T) {
	dir := t.TempDir()
	other := filepath.Join(dir, "other.txt")
	if err := os.WriteFile(other, []byte("keep"), 0644); err != nil {
		t.Fatal(err)
	}
	f := NewFile(filepath.Join(dir, "mine.txt"), 16)
	f.Insert(0, []byte("text"))

	if err := f.SaveAs(other, false); !errors.Is(err, ErrChangedOnDisk) {
		t.Errorf("SaveAs over existing file: %v", err)
	}
	if err := f.SaveAs(other, true); err != nil {
		t.Errorf("forced SaveAs: %v", err)
	}
	if got := readFile(t, other); got != "text" {
		t.Errorf("saved %q", got)
	}
}

func TestSaveErrors(t *testing.T) {
	f := NewFile("", 16)
	if err := f.Save(true); !errors.Is(err, ErrNoName) {
		t.Errorf("Save without name: %v", err)
	}

	f.Insert(0, []byte("kept"))
	boom := errors.New("boom")
	if _, err := f.Load(iotest.ErrReader(boom), true); !errors.Is(err, boom) {
		t.Errorf("Load error: %v", err)
	}
	check(t, "failed load", f, &stateSummary{true, false, true, "kept"})

	if _, err := f.Load(strings.NewReader("new"), false); err != nil {
		t.Fatal(err)
	}
	check(t, "load", f, &stateSummary{false, false, false, "new"})
}
