package config

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"

	"github.com/circuitsetup/sidconf/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *AgentConfig) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	return errors.Join(
		verifyMedia(&cfg.Media, &cfg.Badger),
		verifySave(&cfg.Save),
		verifyMetrics(&cfg.Metrics),
		verifyLog(&cfg.Log),
	)
}

func verifyMedia(m *MediaSection, b *BadgerSection) error {
	var errs []error
	switch m.Backend {
	case BackendDir, BackendBadger:
	default:
		errs = append(errs, fmt.Errorf("media.backend %q: want %q or %q", m.Backend, BackendDir, BackendBadger))
	}
	if m.Flash == "" && !(m.Backend == BackendBadger && b.InMemory) {
		errs = append(errs, errors.New("media.flash is required"))
	}
	if m.Card != "" && m.Flash != "" && filepath.Clean(m.Card) == filepath.Clean(m.Flash) {
		errs = append(errs, errors.New("media.card and media.flash must differ"))
	}
	if b.Discard <= 0 || b.Discard >= 1 {
		errs = append(errs, fmt.Errorf("badger.discard %v: want a ratio between 0 and 1", b.Discard))
	}
	if b.GC < 0 {
		errs = append(errs, errors.New("badger.gc must not be negative"))
	}
	return errors.Join(errs...)
}

func verifySave(s *SaveSection) error {
	var errs []error
	if s.Delay < 0 {
		errs = append(errs, errors.New("save.delay must not be negative"))
	}
	if s.Interval < 0 {
		errs = append(errs, errors.New("save.interval must not be negative"))
	}
	if s.Tick <= 0 {
		errs = append(errs, errors.New("save.tick must be positive"))
	}
	return errors.Join(errs...)
}

func verifyMetrics(m *MetricsSection) error {
	if m.Addr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(m.Addr); err != nil {
		return fmt.Errorf("metrics.addr %q: %w", m.Addr, err)
	}
	if !strings.HasPrefix(m.Path, "/") {
		return fmt.Errorf("metrics.path %q must start with /", m.Path)
	}
	return nil
}

func verifyLog(l *LogSection) error {
	var errs []error
	if !logger.ValidLevel(l.Level) {
		errs = append(errs, fmt.Errorf("log.level %q is not a level", l.Level))
	}
	switch l.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: want text or json", l.Format))
	}
	return errors.Join(errs...)
}
