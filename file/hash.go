package file

import (
	"crypto/sha1"
	"hash"
	"io"
	"os"
)

// Hash is the sha1 digest of a file's contents.
type Hash [sha1.Size]byte

// hasher computes a Hash of everything written to it.
type hasher struct {
	hash.Hash
}

func newHasher() hasher { return hasher{sha1.New()} }

// Digest returns the Hash of what was written so far.
func (w hasher) Digest() (h Hash) {
	copy(h[:], w.Sum(nil))
	return h
}

// HashFor returns the digest of the named file.
func HashFor(filename string) (Hash, error) {
	fd, err := os.Open(filename)
	if err != nil {
		return Hash{}, err
	}
	defer fd.Close()

	w := newHasher()
	if _, err := io.Copy(w, fd); err != nil {
		return Hash{}, err
	}
	return w.Digest(), nil
}
