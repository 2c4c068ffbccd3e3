package agent

import (
	"log/slog"

	agentconfig "github.com/circuitsetup/sidconf/internal/agent/config"
	"github.com/circuitsetup/sidconf/internal/infra/confloader"
	"github.com/circuitsetup/sidconf/internal/telemetry/logger"
)

// WatchConfig reloads the configuration file behind loader when it changes.
// Only the log level is applied at runtime; media and save timing are
// fixed at boot. It returns nil when loader has no file.
func WatchConfig(loader *confloader.Loader, log *slog.Logger) (*confloader.Watcher, error) {
	path := loader.Path()
	if path == "" {
		return nil, nil
	}
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		w.Stop()
		return nil, err
	}
	w.OnChange(func(string) {
		cfg, err := Reload(loader)
		if err != nil {
			log.Warn("configuration change ignored", "path", path, "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	w.StartAsync()
	return w, nil
}

// Reload reads the configuration again and verifies it.
func Reload(loader *confloader.Loader) (*agentconfig.AgentConfig, error) {
	var cfg agentconfig.AgentConfig
	if err := loader.Reload(&cfg); err != nil {
		return nil, err
	}
	out := agentconfig.Sanitize(&cfg)
	if err := agentconfig.Verify(out); err != nil {
		return nil, err
	}
	return out, nil
}
