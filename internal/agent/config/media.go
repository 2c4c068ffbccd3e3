package config

import (
	"log/slog"

	"github.com/circuitsetup/sidconf/internal/settings/migrate"
	"github.com/circuitsetup/sidconf/internal/settings/registry"
	"github.com/circuitsetup/sidconf/internal/storage/medium"
)

// Media holds the media built from a configuration.
type Media struct {
	Flash medium.Medium
	Card  medium.Medium

	// Badger is the flash medium when the badger backend is selected.
	Badger *medium.BadgerMedium
}

// BuildMedia creates the unmounted media described by cfg.
func BuildMedia(cfg *AgentConfig, logger *slog.Logger) Media {
	var out Media

	switch cfg.Media.Backend {
	case BackendBadger:
		bc := medium.DefaultBadgerConfig(cfg.Media.Flash)
		bc.InMemory = cfg.Badger.InMemory
		bc.SyncWrites = !cfg.Badger.NoSync
		bc.GCInterval = cfg.Badger.GC
		bc.GCThreshold = cfg.Badger.Discard
		out.Badger = medium.NewBadgerMedium(bc, logger)
		out.Flash = out.Badger
	default:
		out.Flash = medium.NewDirMedium(medium.DirConfig{
			Name:   "flash",
			Root:   cfg.Media.Flash,
			Create: true,
		}, logger)
	}

	if cfg.Media.Card != "" {
		out.Card = medium.NewDirMedium(medium.DirConfig{
			Name: "card",
			Root: cfg.Media.Card,
		}, logger)
	}
	return out
}

// RegistryOptions maps cfg onto registry options for the given media.
func RegistryOptions(cfg *AgentConfig, m Media, logger *slog.Logger, metrics registry.Metrics) registry.Options {
	opts := registry.Options{
		Flash:           m.Flash,
		Card:            m.Card,
		Logger:          logger,
		Metrics:         metrics,
		SaveDelay:       cfg.Save.Delay,
		MinSaveInterval: cfg.Save.Interval,
		Migrate: migrate.Options{
			Disabled: cfg.Migrate.Disabled,
			Purge:    cfg.Migrate.Purge,
		},
	}
	return opts
}
