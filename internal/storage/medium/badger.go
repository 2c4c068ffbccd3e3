package medium

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
)

// recordPrefix namespaces record keys inside the database.
var recordPrefix = []byte("rec/")

// BadgerConfig configures a Badger-backed medium.
type BadgerConfig struct {
	// Name identifies the medium in logs and metrics.
	Name string

	// Dir is the database directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps the database in RAM. Used by tests.
	InMemory bool

	// SyncWrites fsyncs every update. Default: true.
	SyncWrites bool

	// GCInterval is the interval between value log GC runs.
	// Default: 10m
	GCInterval time.Duration

	// GCThreshold is the discard ratio passed to RunValueLogGC.
	// Default: 0.5
	GCThreshold float64
}

// DefaultBadgerConfig returns the defaults for a flash store in dir.
func DefaultBadgerConfig(dir string) BadgerConfig {
	return BadgerConfig{
		Name:        "flash",
		Dir:         dir,
		SyncWrites:  true,
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
	}
}

// BadgerMedium keeps records as keys in an embedded Badger database. It
// gives the flash medium crash-safe updates on hosts where the settings
// directory lives on a shared file system.
type BadgerMedium struct {
	cfg    BadgerConfig
	logger *slog.Logger

	mu sync.RWMutex
	db *badger.DB

	lastGCTime atomic.Int64 // Unix milliseconds
	gcRuns     atomic.Uint64

	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsLastGCTime   prometheus.Gauge
	metricsGCRuns       prometheus.Counter

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewBadgerMedium creates a Badger medium. The database is opened by Mount.
func NewBadgerMedium(cfg BadgerConfig, logger *slog.Logger) *BadgerMedium {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Name == "" {
		cfg.Name = "flash"
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = 10 * time.Minute
	}
	if cfg.GCThreshold <= 0 || cfg.GCThreshold >= 1 {
		cfg.GCThreshold = 0.5
	}
	return &BadgerMedium{cfg: cfg, logger: logger.With("medium", cfg.Name)}
}

// Name returns the medium name.
func (m *BadgerMedium) Name() string { return m.cfg.Name }

// Mount opens the database and starts the GC loop.
func (m *BadgerMedium) Mount() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		return nil
	}
	if m.cfg.Dir == "" && !m.cfg.InMemory {
		return fmt.Errorf("%s: %w: dir is required", m.cfg.Name, ErrUnavailable)
	}

	opts := badger.DefaultOptions(m.cfg.Dir)
	if m.cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: m.logger}
	opts.SyncWrites = m.cfg.SyncWrites
	// Settings records are tiny; keep the footprint small.
	opts.BlockCacheSize = 1 << 20
	opts.IndexCacheSize = 0
	opts.MemTableSize = 8 << 20
	opts.ValueThreshold = 1 << 10
	opts.ValueLogFileSize = 16 << 20
	opts.NumMemtables = 1
	opts.NumLevelZeroTables = 1
	opts.NumLevelZeroTablesStall = 2

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("%s: open db: %w", m.cfg.Name, err)
	}
	m.db = db
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	go m.gcLoop(m.stopCh, m.doneCh)

	m.logger.Info("badger medium mounted",
		"dir", m.cfg.Dir,
		"in_memory", m.cfg.InMemory,
		"gc_interval", m.cfg.GCInterval)
	return nil
}

// Available reports whether the database is open.
func (m *BadgerMedium) Available() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db != nil
}

func recordKey(name string) ([]byte, error) {
	n, err := checkName(name)
	if err != nil {
		return nil, err
	}
	return append(append([]byte(nil), recordPrefix...), n...), nil
}

// Exists reports whether the record exists.
func (m *BadgerMedium) Exists(name string) bool {
	_, err := m.ReadFile(name)
	return err == nil
}

// ReadFile returns the record value.
func (m *BadgerMedium) ReadFile(name string) ([]byte, error) {
	key, err := recordKey(name)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.db == nil {
		return nil, ErrUnavailable
	}

	var value []byte
	err = m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// WriteFile stores the record in a single transaction.
func (m *BadgerMedium) WriteFile(name string, data []byte) error {
	key, err := recordKey(name)
	if err != nil {
		return err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.db == nil {
		return ErrUnavailable
	}

	value := append([]byte(nil), data...)
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// Remove deletes the record if present.
func (m *BadgerMedium) Remove(name string) error {
	key, err := recordKey(name)
	if err != nil {
		return err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.db == nil {
		return ErrUnavailable
	}

	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// List returns the record names in key order.
func (m *BadgerMedium) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.db == nil {
		return nil, ErrUnavailable
	}

	var names []string
	err := m.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = recordPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			names = append(names, string(bytes.TrimPrefix(key, recordPrefix)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Format drops every key. A database that cannot be opened has its
// directory removed and is recreated empty.
func (m *BadgerMedium) Format() error {
	m.logger.Warn("formatting medium")
	if !m.Available() {
		if err := m.Mount(); err != nil {
			if m.cfg.InMemory {
				return err
			}
			if err := os.RemoveAll(m.cfg.Dir); err != nil {
				return fmt.Errorf("%s: format: %w", m.cfg.Name, err)
			}
			return m.Mount()
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.db.DropAll(); err != nil {
		return fmt.Errorf("%s: format: %w", m.cfg.Name, err)
	}
	return nil
}

// GC runs value log garbage collection until nothing is left to rewrite.
func (m *BadgerMedium) GC() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runGC()
}

// runGC does the work of GC. Caller holds m.mu.
func (m *BadgerMedium) runGC() error {
	if m.db == nil {
		return ErrUnavailable
	}

	runs := 0
	for !m.cfg.InMemory {
		err := m.db.RunValueLogGC(m.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
				break
			}
			return fmt.Errorf("%s: gc: %w", m.cfg.Name, err)
		}
		runs++
	}

	m.lastGCTime.Store(time.Now().UnixMilli())
	m.gcRuns.Add(1)
	if m.metricsGCRuns != nil {
		m.metricsGCRuns.Inc()
	}
	m.logger.Debug("gc completed", "rewrites", runs)
	return nil
}

// GCRuns returns the number of completed GC passes.
func (m *BadgerMedium) GCRuns() uint64 { return m.gcRuns.Load() }

// Unmount stops the GC loop and closes the database.
func (m *BadgerMedium) Unmount() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return nil
	}

	close(m.stopCh)
	<-m.doneCh

	err := m.db.Close()
	m.db = nil
	if err != nil {
		return fmt.Errorf("%s: close db: %w", m.cfg.Name, err)
	}
	m.logger.Info("badger medium unmounted")
	return nil
}

// RegisterMetrics registers database size and GC metrics.
// Call once, before Mount.
func (m *BadgerMedium) RegisterMetrics(registry prometheus.Registerer) *BadgerMedium {
	labels := prometheus.Labels{"medium": m.cfg.Name}

	m.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "sid",
		Subsystem:   "badger",
		Name:        "lsm_size_bytes",
		Help:        "Badger LSM tree size in bytes",
		ConstLabels: labels,
	})
	m.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "sid",
		Subsystem:   "badger",
		Name:        "value_log_size_bytes",
		Help:        "Badger value log size in bytes",
		ConstLabels: labels,
	})
	m.metricsLastGCTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "sid",
		Subsystem:   "badger",
		Name:        "last_gc_timestamp_seconds",
		Help:        "Unix timestamp of the last Badger GC run",
		ConstLabels: labels,
	})
	m.metricsGCRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "sid",
		Subsystem:   "badger",
		Name:        "gc_runs_total",
		Help:        "Number of completed Badger GC passes",
		ConstLabels: labels,
	})

	registry.MustRegister(
		m.metricsLSMSize,
		m.metricsValueLogSize,
		m.metricsLastGCTime,
		m.metricsGCRuns,
	)
	return m
}

// updateMetrics refreshes the size gauges. Caller holds m.mu.
func (m *BadgerMedium) updateMetrics() {
	if m.metricsLSMSize == nil || m.db == nil {
		return
	}
	lsm, vlog := m.db.Size()
	m.metricsLSMSize.Set(float64(lsm))
	m.metricsValueLogSize.Set(float64(vlog))
	if last := m.lastGCTime.Load(); last > 0 {
		m.metricsLastGCTime.Set(float64(last) / 1000.0)
	}
}

// gcLoop runs periodic garbage collection and metric refresh.
func (m *BadgerMedium) gcLoop(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(m.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if m.cfg.InMemory {
				continue
			}
			if err := m.gcLocked(); err != nil {
				m.logger.Error("auto gc failed", "error", err)
			}

		case <-stopCh:
			return
		}
	}
}

// gcLocked runs GC if the medium is not being unmounted. Unmount holds m.mu
// while waiting for the loop, so the loop must not block on it.
func (m *BadgerMedium) gcLocked() error {
	if !m.mu.TryRLock() {
		return nil
	}
	defer m.mu.RUnlock()
	if m.db == nil {
		return nil
	}
	err := m.runGC()
	m.updateMetrics()
	return err
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
