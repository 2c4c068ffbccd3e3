package medium

import (
	"fmt"
	"io/fs"
	"sort"
)

// MemMedium keeps records in memory. It counts physical writes and can be
// told to fail, which makes it the medium of choice for tests.
type MemMedium struct {
	name    string
	files   map[string][]byte
	present bool
	mounted bool

	// ReadOnly makes WriteFile, Remove and Format fail with ErrReadOnly.
	ReadOnly bool

	// FailWrites makes WriteFile fail with the given error.
	FailWrites error

	// FailMount makes Mount fail with the given error until Format is called.
	FailMount error

	writes  map[string]int
	removes int
	formats int
}

// NewMemMedium returns an empty, present medium. It is unavailable until
// mounted.
func NewMemMedium(name string) *MemMedium {
	return &MemMedium{
		name:    name,
		files:   make(map[string][]byte),
		writes:  make(map[string]int),
		present: true,
	}
}

// NewAbsentMedium returns a medium that never mounts, standing in for an
// empty card slot.
func NewAbsentMedium(name string) *MemMedium {
	m := NewMemMedium(name)
	m.present = false
	return m
}

// Name returns the medium name.
func (m *MemMedium) Name() string { return m.name }

// Mount makes a present medium available.
func (m *MemMedium) Mount() error {
	if !m.present {
		return fmt.Errorf("%s: %w: not inserted", m.name, ErrUnavailable)
	}
	if m.FailMount != nil {
		return m.FailMount
	}
	m.mounted = true
	return nil
}

// Available reports whether the medium is mounted.
func (m *MemMedium) Available() bool { return m.mounted }

// Exists reports whether the record exists.
func (m *MemMedium) Exists(name string) bool {
	n, err := checkName(name)
	if err != nil || !m.mounted {
		return false
	}
	_, ok := m.files[n]
	return ok
}

// ReadFile returns a copy of the record.
func (m *MemMedium) ReadFile(name string) ([]byte, error) {
	if !m.mounted {
		return nil, ErrUnavailable
	}
	n, err := checkName(name)
	if err != nil {
		return nil, err
	}
	b, ok := m.files[n]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: n, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), b...), nil
}

// WriteFile stores a copy of data.
func (m *MemMedium) WriteFile(name string, data []byte) error {
	if !m.mounted {
		return ErrUnavailable
	}
	if m.ReadOnly {
		return ErrReadOnly
	}
	if m.FailWrites != nil {
		return m.FailWrites
	}
	n, err := checkName(name)
	if err != nil {
		return err
	}
	m.files[n] = append([]byte(nil), data...)
	m.writes[n]++
	return nil
}

// Remove deletes the record if present.
func (m *MemMedium) Remove(name string) error {
	if !m.mounted {
		return ErrUnavailable
	}
	if m.ReadOnly {
		return ErrReadOnly
	}
	n, err := checkName(name)
	if err != nil {
		return err
	}
	if _, ok := m.files[n]; ok {
		delete(m.files, n)
		m.removes++
	}
	return nil
}

// List returns the record names in lexical order.
func (m *MemMedium) List() ([]string, error) {
	if !m.mounted {
		return nil, ErrUnavailable
	}
	names := make([]string, 0, len(m.files))
	for n := range m.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// Format erases all records and leaves the medium mounted.
func (m *MemMedium) Format() error {
	if !m.present {
		return fmt.Errorf("%s: %w: not inserted", m.name, ErrUnavailable)
	}
	if m.ReadOnly {
		return ErrReadOnly
	}
	m.files = make(map[string][]byte)
	m.FailMount = nil
	m.mounted = true
	m.formats++
	return nil
}

// Unmount makes the medium unavailable. Records are kept, so a test can
// mount it again to simulate a reboot.
func (m *MemMedium) Unmount() error {
	m.mounted = false
	return nil
}

// Put stores a record without counting it as a write, regardless of mount
// state. It is meant for seeding test fixtures.
func (m *MemMedium) Put(name string, data []byte) {
	n, _ := checkName(name)
	m.files[n] = append([]byte(nil), data...)
}

// Get returns a record regardless of mount state.
func (m *MemMedium) Get(name string) ([]byte, bool) {
	n, _ := checkName(name)
	b, ok := m.files[n]
	return b, ok
}

// Writes returns the number of physical writes of name.
func (m *MemMedium) Writes(name string) int {
	n, _ := checkName(name)
	return m.writes[n]
}

// TotalWrites returns the number of physical writes of all records.
func (m *MemMedium) TotalWrites() int {
	total := 0
	for _, c := range m.writes {
		total += c
	}
	return total
}

// Formats returns how often the medium was formatted.
func (m *MemMedium) Formats() int { return m.formats }

// ResetCounters zeroes the write counters.
func (m *MemMedium) ResetCounters() {
	m.writes = make(map[string]int)
	m.removes = 0
	m.formats = 0
}
