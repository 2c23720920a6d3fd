package file

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type stateSummary struct {
	HasUndoableChanges bool
	HasRedoableChanges bool
	Dirty              bool
	Contents           string
}

func summarize(f *File) stateSummary {
	return stateSummary{
		HasUndoableChanges: f.HasUndoableChanges(),
		HasRedoableChanges: f.HasRedoableChanges(),
		Dirty:              f.Dirty(),
		Contents:           f.String(),
	}
}

func check(t *testing.T, testname string, f *File, want *stateSummary) {
	t.Helper()
	if diff := cmp.Diff(*want, summarize(f)); diff != "" {
		t.Errorf("%s: state mismatch (-want +got):\n%s", testname, diff)
	}
}

func checkRange(t *testing.T, testname string, q0, q1 int, ok bool, want0, want1 int) {
	t.Helper()
	if !ok || q0 != want0 || q1 != want1 {
		t.Errorf("%s: got [%d, %d) %v want [%d, %d) true", testname, q0, q1, ok, want0, want1)
	}
}
