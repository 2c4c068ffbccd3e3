package config

import "time"

// Default configuration values.
const (
	DefaultFlashDir = "/var/lib/sid/flash"
	DefaultCardDir  = "/media/sd"
	DefaultBackend  = BackendDir

	DefaultBadgerGC      = 10 * time.Minute
	DefaultBadgerDiscard = 0.5

	DefaultSaveDelay    = 2 * time.Second
	DefaultSaveInterval = 10 * time.Second
	DefaultSaveTick     = 500 * time.Millisecond

	DefaultMetricsPath = "/metrics"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	DefaultShutdownTimeout = 10 * time.Second
)

// Flash backends.
const (
	BackendDir    = "dir"
	BackendBadger = "badger"
)

// Default returns the default agent configuration.
func Default() *AgentConfig {
	return &AgentConfig{
		Media: MediaSection{
			Flash:   DefaultFlashDir,
			Card:    DefaultCardDir,
			Backend: DefaultBackend,
		},
		Badger: BadgerSection{
			GC:      DefaultBadgerGC,
			Discard: DefaultBadgerDiscard,
		},
		Save: SaveSection{
			Delay:    DefaultSaveDelay,
			Interval: DefaultSaveInterval,
			Tick:     DefaultSaveTick,
		},
		Metrics: MetricsSection{
			Path: DefaultMetricsPath,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Shutdown: ShutdownSection{
			Timeout: DefaultShutdownTimeout,
		},
	}
}

// DefaultMap returns Default as dotted keys, the lowest confloader layer.
func DefaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"media.flash":      d.Media.Flash,
		"media.card":       d.Media.Card,
		"media.backend":    d.Media.Backend,
		"badger.gc":        d.Badger.GC.String(),
		"badger.discard":   d.Badger.Discard,
		"save.delay":       d.Save.Delay.String(),
		"save.interval":    d.Save.Interval.String(),
		"save.tick":        d.Save.Tick.String(),
		"metrics.path":     d.Metrics.Path,
		"log.level":        d.Log.Level,
		"log.format":       d.Log.Format,
		"shutdown.timeout": d.Shutdown.Timeout.String(),
	}
}
