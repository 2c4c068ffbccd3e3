// Package medium abstracts the storage media settings are kept on.
//
// A device has an internal flash file system and an optional removable
// card. Each is a Medium; a Selector decides per record class which medium
// a record is read from and written to.
package medium

import (
	"errors"
	"io/fs"
	"strings"
)

var (
	// ErrUnavailable is returned by operations on a medium that is not mounted.
	ErrUnavailable = errors.New("medium: not available")

	// ErrReadOnly is returned when writing to a medium that refuses writes.
	ErrReadOnly = errors.New("medium: read-only")

	// ErrInvalidName is returned for record names that are not a single
	// path element.
	ErrInvalidName = errors.New("medium: invalid record name")
)

// Medium is one storage backend holding named records.
//
// ReadFile reports a missing record with an error matching fs.ErrNotExist.
// Remove of a missing record is not an error.
type Medium interface {
	Name() string
	Mount() error
	Available() bool
	Exists(name string) bool
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte) error
	Remove(name string) error
	List() ([]string, error)
	Format() error
	Unmount() error
}

// IsNotExist reports whether err means the record does not exist.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// checkName accepts plain file names with an optional leading slash, as
// written by older firmware.
func checkName(name string) (string, error) {
	name = strings.TrimPrefix(name, "/")
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\\x00") {
		return "", ErrInvalidName
	}
	return name, nil
}
