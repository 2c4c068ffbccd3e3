package medium

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const tempSuffix = ".tmp"

// DirConfig configures a directory-backed medium.
type DirConfig struct {
	// Name identifies the medium in logs ("flash", "card").
	Name string

	// Root is the directory holding the records.
	Root string

	// Create makes Mount create Root when it is missing. A card medium
	// leaves this unset so a missing directory means "no card inserted".
	Create bool
}

// DirMedium stores each record as a file under a root directory.
// Writes go to a temporary file that is synced and renamed into place, so a
// reader sees either the old or the new record.
type DirMedium struct {
	cfg     DirConfig
	logger  *slog.Logger
	mounted bool
}

// NewDirMedium creates a directory medium. It is unavailable until mounted.
func NewDirMedium(cfg DirConfig, logger *slog.Logger) *DirMedium {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Name == "" {
		cfg.Name = filepath.Base(cfg.Root)
	}
	return &DirMedium{cfg: cfg, logger: logger.With("medium", cfg.Name)}
}

// Name returns the medium name.
func (m *DirMedium) Name() string { return m.cfg.Name }

// Root returns the backing directory.
func (m *DirMedium) Root() string { return m.cfg.Root }

// Mount checks the root directory, creating it if configured to.
func (m *DirMedium) Mount() error {
	if m.cfg.Root == "" {
		return fmt.Errorf("%s: %w: no root configured", m.cfg.Name, ErrUnavailable)
	}
	info, err := os.Stat(m.cfg.Root)
	switch {
	case err == nil && info.IsDir():
	case err == nil:
		return fmt.Errorf("%s: %s is not a directory", m.cfg.Name, m.cfg.Root)
	case errors.Is(err, fs.ErrNotExist) && m.cfg.Create:
		if err := os.MkdirAll(m.cfg.Root, 0o750); err != nil {
			return fmt.Errorf("%s: create root: %w", m.cfg.Name, err)
		}
	default:
		return fmt.Errorf("%s: %w: %v", m.cfg.Name, ErrUnavailable, err)
	}
	m.removeTemps()
	m.mounted = true
	m.logger.Debug("medium mounted", "root", m.cfg.Root)
	return nil
}

// removeTemps deletes leftovers of interrupted writes.
func (m *DirMedium) removeTemps() {
	entries, err := os.ReadDir(m.cfg.Root)
	if err != nil {
		return
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), tempSuffix) {
			_ = os.Remove(filepath.Join(m.cfg.Root, e.Name()))
		}
	}
}

// Available reports whether the medium is mounted.
func (m *DirMedium) Available() bool { return m.mounted }

func (m *DirMedium) path(name string) (string, error) {
	if !m.mounted {
		return "", ErrUnavailable
	}
	n, err := checkName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(m.cfg.Root, n), nil
}

// Exists reports whether the record exists.
func (m *DirMedium) Exists(name string) bool {
	p, err := m.path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// ReadFile returns the record contents.
func (m *DirMedium) ReadFile(name string) ([]byte, error) {
	p, err := m.path(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// WriteFile atomically replaces the record.
func (m *DirMedium) WriteFile(name string, data []byte) error {
	p, err := m.path(name)
	if err != nil {
		return err
	}

	tempPath := p + tempSuffix
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("%s: create temp file: %w", m.cfg.Name, err)
	}
	defer os.Remove(tempPath)

	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("%s: write %s: %w", m.cfg.Name, name, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("%s: sync %s: %w", m.cfg.Name, name, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("%s: close %s: %w", m.cfg.Name, name, err)
	}
	if err := os.Rename(tempPath, p); err != nil {
		return fmt.Errorf("%s: rename %s: %w", m.cfg.Name, name, err)
	}
	return nil
}

// Remove deletes the record if present.
func (m *DirMedium) Remove(name string) error {
	p, err := m.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: remove %s: %w", m.cfg.Name, name, err)
	}
	return nil
}

// List returns the record names in lexical order.
func (m *DirMedium) List() ([]string, error) {
	if !m.mounted {
		return nil, ErrUnavailable
	}
	entries, err := os.ReadDir(m.cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("%s: list: %w", m.cfg.Name, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasSuffix(e.Name(), tempSuffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Format erases the medium and leaves it mounted and empty.
func (m *DirMedium) Format() error {
	if m.cfg.Root == "" {
		return fmt.Errorf("%s: %w: no root configured", m.cfg.Name, ErrUnavailable)
	}
	m.logger.Warn("formatting medium", "root", m.cfg.Root)
	if err := os.RemoveAll(m.cfg.Root); err != nil {
		return fmt.Errorf("%s: format: %w", m.cfg.Name, err)
	}
	if err := os.MkdirAll(m.cfg.Root, 0o750); err != nil {
		return fmt.Errorf("%s: format: %w", m.cfg.Name, err)
	}
	m.mounted = true
	return nil
}

// Unmount makes the medium unavailable.
func (m *DirMedium) Unmount() error {
	m.mounted = false
	return nil
}
