package document

import (
	"fmt"

	"github.com/circuitsetup/sidconf/internal/storage/hashcache"
)

// FileReader reads a whole named file.
type FileReader interface {
	ReadFile(name string) ([]byte, error)
}

// FileWriter replaces a whole named file.
type FileWriter interface {
	WriteFile(name string, data []byte) error
}

// Read loads and parses name from r. The returned hash covers the raw bytes
// as read and is returned even when parsing fails, so a malformed file can
// still be recognised as unchanged.
func Read(r FileReader, name string) (*Document, uint32, error) {
	raw, err := r.ReadFile(name)
	if err != nil {
		return nil, 0, err
	}
	h := hashcache.Sum(raw)
	doc, err := Parse(raw)
	if err != nil {
		return nil, h, fmt.Errorf("%s: %w", name, err)
	}
	return doc, h, nil
}

// Write serializes b and stores it as name on w, unless its hash equals
// prior (non-zero), in which case storage is not touched. It returns the
// content hash and whether a physical write happened.
func Write(w FileWriter, name string, b *Builder, prior uint32) (uint32, bool, error) {
	raw, err := b.Bytes()
	if err != nil {
		return 0, false, err
	}
	h := hashcache.Sum(raw)
	if prior != 0 && prior == h {
		return h, false, nil
	}
	if err := w.WriteFile(name, raw); err != nil {
		return h, false, err
	}
	return h, true, nil
}
