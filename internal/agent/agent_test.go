package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	agentconfig "github.com/circuitsetup/sidconf/internal/agent/config"
	"github.com/circuitsetup/sidconf/internal/core/domain"
	"github.com/circuitsetup/sidconf/internal/settings/registry"
	"github.com/circuitsetup/sidconf/internal/telemetry/metric"
)

func testConfig(t *testing.T) *agentconfig.AgentConfig {
	t.Helper()
	root := t.TempDir()
	cfg := agentconfig.Default()
	cfg.Media.Flash = filepath.Join(root, "flash")
	cfg.Media.Card = filepath.Join(root, "card")
	cfg.Save.Delay = 10 * time.Millisecond
	cfg.Save.Interval = 0
	cfg.Save.Tick = 5 * time.Millisecond
	if err := os.MkdirAll(cfg.Media.Card, 0o755); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func newAgent(t *testing.T, cfg *agentconfig.AgentConfig) *Agent {
	t.Helper()
	a, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), metric.NewRegistry())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := a.Boot(); err != nil {
		t.Fatalf("Boot() error = %v", err)
	}
	return a
}

func start(t *testing.T, a *Agent) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- a.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-a.Stopped()
	})
	return cancel, errc
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestAgent_Boot(t *testing.T) {
	cfg := testConfig(t)
	a := newAgent(t, cfg)

	s := a.State()
	if !s.FlashMounted || !s.CardMounted || !s.SelectableOnCard {
		t.Errorf("State() = %+v", s)
	}
	if !exists(filepath.Join(cfg.Media.Flash, domain.RecordPrimary)) {
		t.Error("primary document not written at boot")
	}
}

func TestAgent_Boot_NoMedia(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.Media.Flash = filepath.Join(blocker, "flash")
	cfg.Media.Card = ""

	a := newAgent(t, cfg)
	cancel, errc := start(t, a)

	var brightness uint16
	err := a.Do(context.Background(), func(r *registry.Registry) error {
		r.StageSecondary(func(g *domain.SecondaryGroup) { g.Brightness = 4 })
		brightness = r.Secondary().Brightness
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if brightness != 4 {
		t.Errorf("Brightness = %d, want 4", brightness)
	}
	if s := a.State(); s.FlashMounted || s.CardMounted {
		t.Errorf("State() = %+v, want no media", s)
	}

	cancel()
	if err := <-errc; err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestAgent_DeferredSave(t *testing.T) {
	cfg := testConfig(t)
	a := newAgent(t, cfg)
	start(t, a)

	err := a.Do(context.Background(), func(r *registry.Registry) error {
		r.StageSecondary(func(g *domain.SecondaryGroup) { g.Brightness = 4 })
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	path := filepath.Join(cfg.Media.Card, domain.RecordSecondary)
	waitFor(t, func() bool { return exists(path) })
	waitFor(t, func() bool { return a.State().PendingSaves == 0 })
}

func TestAgent_FlushOnStop(t *testing.T) {
	cfg := testConfig(t)
	cfg.Save.Delay = time.Hour
	a := newAgent(t, cfg)
	cancel, errc := start(t, a)

	err := a.Do(context.Background(), func(r *registry.Registry) error {
		r.StageTertiary(func(g *domain.TertiaryGroup) { g.IdleMode = 2 })
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got := a.State().PendingSaves; got != 1 {
		t.Errorf("PendingSaves = %d, want 1", got)
	}

	cancel()
	if err := <-errc; err != nil {
		t.Errorf("Run() error = %v", err)
	}
	if !exists(filepath.Join(cfg.Media.Card, domain.RecordTertiary)) {
		t.Error("pending tertiary save not flushed on stop")
	}

	err = a.Do(context.Background(), func(*registry.Registry) error { return nil })
	if !errors.Is(err, ErrStopped) {
		t.Errorf("Do() after stop error = %v, want ErrStopped", err)
	}
}

func TestAgent_DoError(t *testing.T) {
	a := newAgent(t, testConfig(t))
	start(t, a)

	err := a.Do(context.Background(), func(r *registry.Registry) error {
		return r.SetIdleMode(9)
	})
	if !errors.Is(err, domain.ErrFieldOutOfRange) {
		t.Errorf("Do() error = %v, want ErrFieldOutOfRange", err)
	}
}

func TestAgent_Ticks(t *testing.T) {
	metrics := metric.NewRegistry()
	a, err := New(testConfig(t), slog.New(slog.NewTextHandler(io.Discard, nil)), metrics)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := a.Boot(); err != nil {
		t.Fatalf("Boot() error = %v", err)
	}
	start(t, a)

	rec := httptest.NewRecorder()
	waitFor(t, func() bool {
		rec = httptest.NewRecorder()
		metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		return strings.Contains(rec.Body.String(), "sid_agent_ticks_total") &&
			!strings.Contains(rec.Body.String(), "sid_agent_ticks_total 0")
	})
	if !strings.Contains(rec.Body.String(), `sid_media_mounted{medium="card"} 1`) {
		t.Errorf("missing media gauge:\n%s", rec.Body.String())
	}
}

func TestAgent_MetricsServer(t *testing.T) {
	cfg := testConfig(t)
	a := newAgent(t, cfg)
	if a.MetricsServer() != nil {
		t.Error("MetricsServer() should be nil without an address")
	}

	cfg.Metrics.Addr = "127.0.0.1:0"
	cfg.Metrics.Path = "/m"
	srv := a.MetricsServer()
	if srv == nil {
		t.Fatal("MetricsServer() = nil")
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/m", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "sid_store_pending_saves 0") {
		t.Errorf("missing pending gauge:\n%s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unconfigured path status = %d, want 404", rec.Code)
	}
}
