// Package registry owns the device settings and their persistence.
//
// A Registry is the single configuration context of the process. It is
// created by the composition root, booted once, handed by reference to the
// collaborators that read or change settings, and closed once at shutdown.
// Every save recomputes a content hash and writes only when it differs from
// the hash last persisted, which keeps wear on the flash medium low.
//
// A Registry is not safe for concurrent use. All calls must come from one
// goroutine.
package registry

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/circuitsetup/sidconf/internal/core/domain"
	"github.com/circuitsetup/sidconf/internal/settings/migrate"
	"github.com/circuitsetup/sidconf/internal/storage/hashcache"
	"github.com/circuitsetup/sidconf/internal/storage/medium"
	"github.com/circuitsetup/sidconf/internal/storage/record"
)

// Metrics receives persistence events. Implementations must not block.
type Metrics interface {
	RecordWritten(record, medium string)
	RecordSkipped(record string)
	RecordCorrupt(record, medium string)
	WriteFailed(record, medium string)
	Migrated(artifact string, converted bool)
}

type noopMetrics struct{}

func (noopMetrics) RecordWritten(string, string) {}
func (noopMetrics) RecordSkipped(string)         {}
func (noopMetrics) RecordCorrupt(string, string) {}
func (noopMetrics) WriteFailed(string, string)   {}
func (noopMetrics) Migrated(string, bool)        {}

// Options configures a Registry.
type Options struct {
	// Flash is the internal medium. Required.
	Flash medium.Medium

	// Card is the removable medium. Nil means no card slot.
	Card medium.Medium

	Logger  *slog.Logger
	Metrics Metrics

	// Migrate overrides the build-time migration switches.
	Migrate migrate.Options

	// SaveDelay is how long a scheduled save waits for further changes.
	// Default: 0 (saved on the next Tick).
	SaveDelay time.Duration

	// MinSaveInterval limits deferred saves to one per interval.
	// Default: 0 (no limit).
	MinSaveInterval time.Duration

	// Random is the entropy source for a new device identity.
	// Default: crypto/rand.
	Random io.Reader

	// Now returns the current time. Default: time.Now.
	Now func() time.Time
}

// Registry holds every settings group of the device.
type Registry struct {
	sel     *medium.Selector
	hashes  *hashcache.Cache
	engine  *migrate.Engine
	logger  *slog.Logger
	metrics Metrics
	random  io.Reader
	now     func() time.Time

	primary   *domain.PrimaryConfig
	secondary domain.SecondaryGroup
	tertiary  domain.TertiaryGroup
	ip        domain.IPOverride
	id        domain.DeviceIdentity
	keys      domain.LearnedKeyTable

	haveSecondary bool
	haveTertiary  bool
	haveKeys      bool

	saveDelay time.Duration
	limiter   *rate.Limiter
	pending   map[Group]time.Time

	mount  medium.MountReport
	booted bool
}

// New creates a registry holding compiled defaults. Call Boot to mount the
// media and load stored settings.
func New(opts Options) (*Registry, error) {
	if opts.Flash == nil {
		return nil, errors.New("registry: flash medium is required")
	}
	card := opts.Card
	if card == nil {
		card = medium.NewAbsentMedium("card")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	limit := rate.Inf
	if opts.MinSaveInterval > 0 {
		limit = rate.Every(opts.MinSaveInterval)
	}

	sel := medium.NewSelector(opts.Flash, card, logger)
	return &Registry{
		sel:       sel,
		hashes:    hashcache.New(),
		engine:    migrate.NewEngine(sel, opts.Migrate, logger),
		logger:    logger.With("component", "registry"),
		metrics:   metrics,
		random:    opts.Random,
		now:       now,
		primary:   domain.NewPrimaryConfig(),
		secondary: domain.DefaultSecondary(),
		tertiary:  domain.DefaultTertiary(),
		saveDelay: opts.SaveDelay,
		limiter:   rate.NewLimiter(limit, 1),
		pending:   make(map[Group]time.Time),
	}, nil
}

// Selector exposes the medium policy, for status reporting.
func (r *Registry) Selector() *medium.Selector { return r.sel }

// Mount returns the media state found at boot.
func (r *Registry) Mount() medium.MountReport { return r.mount }

// Close flushes pending saves and unmounts the media.
func (r *Registry) Close() error {
	flushErr := r.Flush()
	unmountErr := r.sel.Unmount()
	r.booted = false
	return errors.Join(flushErr, unmountErr)
}

// loadBinary returns the payload of the first valid copy of name along the
// read order of class. It returns ErrRecordNotFound when there is none, or
// ErrRecordCorrupt when only damaged copies were found.
func (r *Registry) loadBinary(name string, class medium.Class) ([]byte, medium.Medium, error) {
	corrupt := false
	for _, m := range r.sel.ReadOrder(class) {
		frame, err := m.ReadFile(name)
		if err != nil {
			if !medium.IsNotExist(err) {
				r.logger.Warn("read failed", "record", name, "medium", m.Name(), "error", err)
			}
			continue
		}
		payload, err := record.Decode(frame)
		if err != nil {
			corrupt = true
			r.metrics.RecordCorrupt(name, m.Name())
			r.logger.Warn("bad record", "record", name, "medium", m.Name(), "error", err)
			continue
		}
		return payload, m, nil
	}
	if corrupt {
		return nil, nil, domain.ErrRecordCorrupt.WithDetails(name)
	}
	return nil, nil, domain.ErrRecordNotFound.WithDetails(name)
}

// saveBinary frames payload and writes it to the target medium of class.
// With useCache set, the write is skipped when the payload hash matches the
// hash last persisted. It reports whether a physical write happened.
func (r *Registry) saveBinary(name string, class medium.Class, payload []byte, useCache bool) (bool, error) {
	hash, changed := r.hashes.Changed(name, payload)
	if useCache && !changed {
		r.metrics.RecordSkipped(name)
		r.logger.Debug("record up to date, not writing", "record", name, "hash", fmt.Sprintf("%08x", hash))
		return false, nil
	}

	m, err := r.sel.WriteTarget(class)
	if err != nil {
		r.logger.Info("no medium for record, not saving", "record", name)
		return false, domain.ErrMediumUnavailable.WithCause(err).WithDetails(name)
	}

	frame, err := record.Encode(payload)
	if err != nil {
		return false, domain.ErrWriteFailed.WithCause(err).WithDetails(name)
	}
	if err := m.WriteFile(name, frame); err != nil {
		r.metrics.WriteFailed(name, m.Name())
		r.logger.Error("write failed", "record", name, "medium", m.Name(), "error", err)
		return false, domain.ErrWriteFailed.Wrapf(err, "%s on %s", name, m.Name())
	}
	r.hashes.Commit(name, hash)
	r.metrics.RecordWritten(name, m.Name())
	r.logger.Debug("record written", "record", name, "medium", m.Name(), "bytes", len(frame))
	return true, nil
}

// removeFrom deletes name from the target medium of class and forgets its
// hash.
func (r *Registry) removeFrom(name string, class medium.Class) error {
	r.hashes.Invalidate(name)
	m, err := r.sel.WriteTarget(class)
	if err != nil {
		return nil
	}
	if err := m.Remove(name); err != nil {
		return domain.ErrWriteFailed.Wrapf(err, "remove %s on %s", name, m.Name())
	}
	return nil
}

func clampUint16(v int) uint16 {
	switch {
	case v < 0:
		return 0
	case v > math.MaxUint16:
		return math.MaxUint16
	}
	return uint16(v)
}
