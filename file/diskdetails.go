package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// DiskDetails ties a File to its backing file on disk.
type DiskDetails struct {
	Name string
	Info os.FileInfo // nil until the file was read from or written to disk
	Hash Hash        // Used to check if the file has changed on disk since loaded.
}

// UpdateInfo updates the info to d if the file hash hasn't changed.
func (d *DiskDetails) UpdateInfo(filename string, info os.FileInfo) error {
	h, err := HashFor(filename)
	if err != nil {
		return fmt.Errorf("failed to compute hash for %v: %w", filename, err)
	}
	if h == d.Hash {
		d.Info = info
	}
	return nil
}

// ChangedOnDisk reports whether the named file no longer holds what was
// last read or written. A missing file has not changed. A file whose
// modification time moved but whose contents are the same has not
// changed either; its info is refreshed.
func (d *DiskDetails) ChangedOnDisk() (bool, error) {
	info, err := os.Stat(d.Name)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if d.Info != nil && info.ModTime().Equal(d.Info.ModTime()) && info.Size() == d.Info.Size() {
		return false, nil
	}
	if err := d.UpdateInfo(d.Name, info); err != nil {
		return false, err
	}
	// UpdateInfo only takes info when the contents match.
	return d.Info != info, nil
}
