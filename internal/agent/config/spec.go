package config

import "time"

// AgentConfig is the root configuration for sidconf-agent.
type AgentConfig struct {
	Media    MediaSection    `koanf:"media" yaml:"media"`
	Badger   BadgerSection   `koanf:"badger" yaml:"badger"`
	Save     SaveSection     `koanf:"save" yaml:"save"`
	Migrate  MigrateSection  `koanf:"migrate" yaml:"migrate"`
	Metrics  MetricsSection  `koanf:"metrics" yaml:"metrics"`
	Log      LogSection      `koanf:"log" yaml:"log"`
	Shutdown ShutdownSection `koanf:"shutdown" yaml:"shutdown"`
}

// MediaSection locates the two storage media.
type MediaSection struct {
	// Flash is the internal medium: a directory, or the Badger database
	// directory when Backend is "badger".
	Flash string `koanf:"flash" yaml:"flash"`

	// Card is the mount point of the removable card. Empty means the
	// device has no card slot.
	Card string `koanf:"card" yaml:"card"`

	// Backend selects the flash implementation: "dir" or "badger".
	Backend string `koanf:"backend" yaml:"backend"`
}

// BadgerSection tunes the Badger flash backend.
type BadgerSection struct {
	GC       time.Duration `koanf:"gc" yaml:"gc"`
	Discard  float64       `koanf:"discard" yaml:"discard"`
	NoSync   bool          `koanf:"nosync" yaml:"nosync"`
	InMemory bool          `koanf:"inmemory" yaml:"inmemory"`
}

// SaveSection controls deferred saves.
type SaveSection struct {
	// Delay is how long a scheduled save waits for further changes.
	Delay time.Duration `koanf:"delay" yaml:"delay"`

	// Interval is the minimum time between two deferred saves.
	Interval time.Duration `koanf:"interval" yaml:"interval"`

	// Tick is the scheduler period.
	Tick time.Duration `koanf:"tick" yaml:"tick"`
}

// MigrateSection overrides the build-time migration switches.
type MigrateSection struct {
	Disabled bool `koanf:"disabled" yaml:"disabled"`
	Purge    bool `koanf:"purge" yaml:"purge"`
}

// MetricsSection configures the Prometheus endpoint. An empty Addr
// disables it.
type MetricsSection struct {
	Addr string `koanf:"addr" yaml:"addr"`
	Path string `koanf:"path" yaml:"path"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// ShutdownSection bounds the shutdown hooks.
type ShutdownSection struct {
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
}
