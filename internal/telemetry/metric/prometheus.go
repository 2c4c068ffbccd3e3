package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sid"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Persistence metrics
	RecordWrites  *prometheus.CounterVec
	RecordSkips   *prometheus.CounterVec
	CorruptCopies *prometheus.CounterVec
	WriteFailures *prometheus.CounterVec

	// Migration metrics
	Migrations *prometheus.CounterVec

	// Agent metrics
	Ticks         prometheus.Counter
	BootTimestamp prometheus.Gauge
}

// NewRegistry creates a registry with the Go runtime and process collectors
// and every settings metric registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		registry: reg,
		RecordWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "record_writes_total",
			Help:      "Physical record writes by record and medium.",
		}, []string{"record", "medium"}),
		RecordSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "record_skips_total",
			Help:      "Saves skipped because the content hash was unchanged.",
		}, []string{"record"}),
		CorruptCopies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "record_corrupt_total",
			Help:      "Stored copies rejected by the checksum.",
		}, []string{"record", "medium"}),
		WriteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "write_failures_total",
			Help:      "Record writes that failed.",
		}, []string{"record", "medium"}),
		Migrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "migrate",
			Name:      "artifacts_total",
			Help:      "Legacy records found, by artifact and outcome.",
		}, []string{"artifact", "outcome"}),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "ticks_total",
			Help:      "Deferred-save scheduler ticks.",
		}),
		BootTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "boot_timestamp_seconds",
			Help:      "Unix time the settings were loaded.",
		}),
	}

	reg.MustRegister(
		r.RecordWrites,
		r.RecordSkips,
		r.CorruptCopies,
		r.WriteFailures,
		r.Migrations,
		r.Ticks,
		r.BootTimestamp,
	)
	return r
}

var (
	globalRegistry *Registry
	globalOnce     sync.Once
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// Handler returns an HTTP handler for the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// Handler returns an HTTP handler serving this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registerer exposes the underlying registry so other packages can add
// their own collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Gatherer exposes the underlying registry for tests and exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// RecordWritten counts a physical write.
func (r *Registry) RecordWritten(record, medium string) {
	r.RecordWrites.WithLabelValues(record, medium).Inc()
}

// RecordSkipped counts a save avoided by the change hash.
func (r *Registry) RecordSkipped(record string) {
	r.RecordSkips.WithLabelValues(record).Inc()
}

// RecordCorrupt counts a stored copy that failed its checksum.
func (r *Registry) RecordCorrupt(record, medium string) {
	r.CorruptCopies.WithLabelValues(record, medium).Inc()
}

// WriteFailed counts a failed write.
func (r *Registry) WriteFailed(record, medium string) {
	r.WriteFailures.WithLabelValues(record, medium).Inc()
}

// Migrated counts a legacy record that was found.
func (r *Registry) Migrated(artifact string, converted bool) {
	outcome := "discarded"
	if converted {
		outcome = "converted"
	}
	r.Migrations.WithLabelValues(artifact, outcome).Inc()
}
