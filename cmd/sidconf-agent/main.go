package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/circuitsetup/sidconf/internal/agent"
	agentconfig "github.com/circuitsetup/sidconf/internal/agent/config"
	"github.com/circuitsetup/sidconf/internal/infra/buildinfo"
	"github.com/circuitsetup/sidconf/internal/infra/confloader"
	"github.com/circuitsetup/sidconf/internal/infra/shutdown"
	"github.com/circuitsetup/sidconf/internal/telemetry/logger"
	"github.com/circuitsetup/sidconf/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", os.Getenv("SID_CONFIG"), "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("sidconf-agent %s\n", buildinfo.String())
		return nil
	}

	loader := confloader.NewLoader(
		confloader.WithConfigFile(*configFile),
		confloader.WithDefaults(agentconfig.DefaultMap()),
	)
	cfg, err := agent.Reload(loader)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.NewSlog(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	logger.SetDefault(logger.Wrap(log))
	slog.SetDefault(log)

	log.Info("starting sidconf-agent",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", *configFile,
		"backend", cfg.Media.Backend)

	a, err := agent.New(cfg, log, metric.Global())
	if err != nil {
		return err
	}
	if _, err := a.Boot(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- a.Run(ctx) }()

	// Hooks run in reverse order: the settings are flushed last.
	sh := shutdown.NewHandler(cfg.Shutdown.Timeout, log)
	sh.OnShutdown("settings", func(ctx context.Context) error {
		cancel()
		select {
		case err := <-runErr:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	if srv := a.MetricsServer(); srv != nil {
		sh.OnShutdown("metrics server", srv.Shutdown)
		go func() {
			log.Info("metrics listening", "addr", srv.Addr, "path", cfg.Metrics.Path)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server error", "error", err)
			}
		}()
	}

	w, err := agent.WatchConfig(loader, log)
	if err != nil {
		log.Warn("configuration file not watched", "error", err)
	} else if w != nil {
		sh.OnShutdown("config watcher", func(context.Context) error { return w.Stop() })
	}

	log.Info("agent started")
	if err := sh.Wait(context.Background()); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	log.Info("agent stopped")
	return nil
}
