package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	agentconfig "github.com/circuitsetup/sidconf/internal/agent/config"
	"github.com/circuitsetup/sidconf/internal/settings/registry"
	"github.com/circuitsetup/sidconf/internal/telemetry/metric"
)

// ErrStopped is returned by Do after Run has returned.
var ErrStopped = errors.New("agent: stopped")

type op struct {
	fn   func(*registry.Registry) error
	done chan error
}

// Agent owns a booted registry.
type Agent struct {
	cfg       *agentconfig.AgentConfig
	logger    *slog.Logger
	reg       *registry.Registry
	media     agentconfig.Media
	metrics   *metric.Registry
	collector *metric.Collector

	ops     chan op
	stopped chan struct{}
}

// New builds the media and registry described by cfg and registers the
// agent's collectors with metrics.
func New(cfg *agentconfig.AgentConfig, logger *slog.Logger, metrics *metric.Registry) (*Agent, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = metric.NewRegistry()
	}

	media := agentconfig.BuildMedia(cfg, logger)
	if media.Badger != nil {
		media.Badger.RegisterMetrics(metrics.Registerer())
	}

	reg, err := registry.New(agentconfig.RegistryOptions(cfg, media, logger, metrics))
	if err != nil {
		return nil, fmt.Errorf("create registry: %w", err)
	}

	collector := metric.NewCollector()
	if err := metrics.Registerer().Register(collector); err != nil {
		return nil, fmt.Errorf("register collector: %w", err)
	}

	return &Agent{
		cfg:       cfg,
		logger:    logger.With("component", "agent"),
		reg:       reg,
		media:     media,
		metrics:   metrics,
		collector: collector,
		ops:       make(chan op),
		stopped:   make(chan struct{}),
	}, nil
}

// Boot mounts the media and loads every settings group. It must be called
// before Run is started.
func (a *Agent) Boot() (registry.BootReport, error) {
	rep := a.reg.Boot()
	a.metrics.BootTimestamp.SetToCurrentTime()
	a.publish()

	a.logger.Info("settings loaded",
		"flash", rep.Mount.Flash,
		"card", rep.Mount.Card,
		"read_only_flash", rep.Mount.ReadOnlyFlash,
		"primary_rewritten", rep.PrimaryRewritten,
		"identity_created", rep.IdentityCreated,
		"identity", a.reg.Identity().String(),
		"migrations", len(rep.Migrations),
		"purged", rep.Purged)

	if !a.reg.Selector().Available() {
		a.logger.Warn("no storage medium mounted, running on defaults")
	}
	return rep, nil
}

// Run drives the save scheduler until ctx is cancelled, then flushes
// pending saves and unmounts the media.
func (a *Agent) Run(ctx context.Context) error {
	defer close(a.stopped)

	tick := a.cfg.Save.Tick
	if tick <= 0 {
		tick = agentconfig.DefaultSaveTick
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return a.close()
		case now := <-ticker.C:
			a.step(now)
		case o := <-a.ops:
			o.done <- o.fn(a.reg)
			a.publish()
		}
	}
}

func (a *Agent) step(now time.Time) {
	a.metrics.Ticks.Inc()
	if n := a.reg.Tick(now); n > 0 {
		a.logger.Debug("deferred saves written", "groups", n)
	}
	a.publish()
}

func (a *Agent) close() error {
	a.logger.Info("flushing settings")
	err := a.reg.Close()
	a.publish()
	if err != nil && !registry.IsUnavailable(err) {
		return fmt.Errorf("close settings: %w", err)
	}
	return nil
}

// Do runs fn on the goroutine that owns the registry and returns its
// error. It fails with ErrStopped once Run has returned.
func (a *Agent) Do(ctx context.Context, fn func(*registry.Registry) error) error {
	o := op{fn: fn, done: make(chan error, 1)}
	select {
	case a.ops <- o:
	case <-a.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-o.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stopped is closed when Run returns.
func (a *Agent) Stopped() <-chan struct{} {
	return a.stopped
}

// State returns the last published snapshot.
func (a *Agent) State() metric.State {
	return a.collector.Snapshot()
}

func (a *Agent) publish() {
	sel := a.reg.Selector()
	_, keys := a.reg.LearnedKeys()
	a.collector.Update(metric.State{
		FlashMounted:     sel.HaveFlash(),
		CardMounted:      sel.HaveCard(),
		ReadOnlyFlash:    sel.ReadOnlyFlash(),
		SelectableOnCard: sel.SelectableOnCard(),
		PendingSaves:     len(a.reg.Pending()),
		IPOverride:       a.reg.IPOverride().IsSet(),
		LearnedKeys:      keys,
	})
}

// MetricsServer returns an HTTP server for the metrics endpoint, or nil
// when no address is configured.
func (a *Agent) MetricsServer() *http.Server {
	if a.cfg.Metrics.Addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle(a.cfg.Metrics.Path, a.metrics.Handler())
	return &http.Server{
		Addr:              a.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
