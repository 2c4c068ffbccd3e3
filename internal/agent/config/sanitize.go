package config

import "strings"

// Sanitize returns a normalized copy of cfg. Case is folded, paths are
// trimmed and zero durations take their defaults. The input is not
// modified.
func Sanitize(cfg *AgentConfig) *AgentConfig {
	out := *cfg

	out.Media.Flash = strings.TrimSpace(out.Media.Flash)
	out.Media.Card = strings.TrimSpace(out.Media.Card)
	out.Media.Backend = strings.ToLower(strings.TrimSpace(out.Media.Backend))
	if out.Media.Backend == "" {
		out.Media.Backend = DefaultBackend
	}

	if out.Badger.GC == 0 {
		out.Badger.GC = DefaultBadgerGC
	}
	if out.Badger.Discard == 0 {
		out.Badger.Discard = DefaultBadgerDiscard
	}
	if out.Save.Tick == 0 {
		out.Save.Tick = DefaultSaveTick
	}
	if out.Shutdown.Timeout <= 0 {
		out.Shutdown.Timeout = DefaultShutdownTimeout
	}

	out.Metrics.Addr = strings.TrimSpace(out.Metrics.Addr)
	if out.Metrics.Path == "" {
		out.Metrics.Path = DefaultMetricsPath
	}

	out.Log.Level = strings.ToLower(strings.TrimSpace(out.Log.Level))
	out.Log.Format = strings.ToLower(strings.TrimSpace(out.Log.Format))
	if out.Log.Level == "" {
		out.Log.Level = DefaultLogLevel
	}
	if out.Log.Format == "" {
		out.Log.Format = DefaultLogFormat
	}
	return &out
}
