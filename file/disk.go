package file

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

var (
	// ErrNoName is returned when saving a File without a name.
	ErrNoName = errors.New("file has no name")

	// ErrChangedOnDisk is returned by a save that would overwrite
	// changes made to the file on disk since it was read.
	ErrChangedOnDisk = errors.New("file changed on disk since last read")
)

// Load replaces the text with the contents of r and forgets the
// history. The File is clean afterwards. If setHash is true, the hash
// of what was read becomes the reference for detecting changes on disk.
func (f *File) Load(r io.Reader, setHash bool) (int, error) {
	h := newHasher()
	n, err := f.text.Load(io.TeeReader(r, h))
	if err != nil {
		return 0, err
	}
	if setHash {
		f.details.Hash = h.Digest()
	}
	f.history.Reset()
	return int(n), nil
}

// LoadFile reads the named file and makes it the backing of f. A file
// that does not exist yet leaves f empty.
func (f *File) LoadFile(name string) error {
	fd, err := os.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		f.text.Clear()
		f.history.Reset()
		f.details = &DiskDetails{Name: name}
		return nil
	}
	if err != nil {
		return err
	}
	defer fd.Close()

	info, err := fd.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s: is a directory", name)
	}
	f.details = &DiskDetails{Name: name}
	if _, err := f.Load(fd, true); err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	f.details.Info = info
	return nil
}

// Save writes the text to the backing file. Unless force is set it
// refuses with ErrChangedOnDisk when the file was changed by someone
// else since it was last read or written.
func (f *File) Save(force bool) error {
	if f.details.Name == "" {
		return ErrNoName
	}
	if !force {
		changed, err := f.details.ChangedOnDisk()
		if err != nil {
			return err
		}
		if changed {
			return fmt.Errorf("%s: %w", f.details.Name, ErrChangedOnDisk)
		}
	}

	fd, err := os.Create(f.details.Name)
	if err != nil {
		return err
	}
	h := newHasher()
	if _, err := f.text.WriteTo(io.MultiWriter(fd, h)); err != nil {
		fd.Close()
		return fmt.Errorf("writing %s: %w", f.details.Name, err)
	}
	info, err := fd.Stat()
	if cerr := fd.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	f.details.Hash = h.Digest()
	f.details.Info = info
	f.Clean()
	return nil
}

// SaveAs renames f to name and saves it.
func (f *File) SaveAs(name string, force bool) error {
	f.SetName(name)
	return f.Save(force)
}
