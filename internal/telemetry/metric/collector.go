package metric

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// State is a snapshot of the settings store, published by the goroutine
// that owns the registry.
type State struct {
	FlashMounted     bool
	CardMounted      bool
	ReadOnlyFlash    bool
	SelectableOnCard bool
	PendingSaves     int
	IPOverride       bool
	LearnedKeys      bool
}

// Collector reports the last published State on every scrape. Scrapes run
// on the HTTP goroutine and never touch the registry itself.
type Collector struct {
	mu    sync.RWMutex
	state State

	media   *prometheus.Desc
	mode    *prometheus.Desc
	pending *prometheus.Desc
	present *prometheus.Desc
}

// NewCollector creates a new state collector.
func NewCollector() *Collector {
	return &Collector{
		media: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "media", "mounted"),
			"Whether a storage medium is mounted.",
			[]string{"medium"}, nil),
		mode: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "media", "mode"),
			"Operating mode flags of the medium selector.",
			[]string{"mode"}, nil),
		pending: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "pending_saves"),
			"Groups waiting for a deferred save.",
			nil, nil),
		present: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "record_present"),
			"Whether an optional record is configured.",
			[]string{"record"}, nil),
	}
}

// Update publishes a new snapshot.
func (c *Collector) Update(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Snapshot returns the last published state.
func (c *Collector) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.media
	ch <- c.mode
	ch <- c.pending
	ch <- c.present
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.Snapshot()
	ch <- prometheus.MustNewConstMetric(c.media, prometheus.GaugeValue, b2f(s.FlashMounted), "flash")
	ch <- prometheus.MustNewConstMetric(c.media, prometheus.GaugeValue, b2f(s.CardMounted), "card")
	ch <- prometheus.MustNewConstMetric(c.mode, prometheus.GaugeValue, b2f(s.ReadOnlyFlash), "read_only_flash")
	ch <- prometheus.MustNewConstMetric(c.mode, prometheus.GaugeValue, b2f(s.SelectableOnCard), "selectable_on_card")
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(s.PendingSaves))
	ch <- prometheus.MustNewConstMetric(c.present, prometheus.GaugeValue, b2f(s.IPOverride), "ipoverride")
	ch <- prometheus.MustNewConstMetric(c.present, prometheus.GaugeValue, b2f(s.LearnedKeys), "learnedkeys")
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
