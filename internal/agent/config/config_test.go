package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/circuitsetup/sidconf/internal/infra/confloader"
	"github.com/circuitsetup/sidconf/internal/storage/medium"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Media.Flash", cfg.Media.Flash, DefaultFlashDir},
		{"Media.Card", cfg.Media.Card, DefaultCardDir},
		{"Media.Backend", cfg.Media.Backend, BackendDir},
		{"Badger.GC", cfg.Badger.GC, DefaultBadgerGC},
		{"Save.Delay", cfg.Save.Delay, DefaultSaveDelay},
		{"Save.Interval", cfg.Save.Interval, DefaultSaveInterval},
		{"Save.Tick", cfg.Save.Tick, DefaultSaveTick},
		{"Metrics.Addr", cfg.Metrics.Addr, ""},
		{"Log.Level", cfg.Log.Level, DefaultLogLevel},
		{"Log.Format", cfg.Log.Format, DefaultLogFormat},
		{"Shutdown.Timeout", cfg.Shutdown.Timeout, DefaultShutdownTimeout},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if err := Verify(cfg); err != nil {
		t.Errorf("Verify(Default()) error = %v", err)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*AgentConfig)
		wantErr string
	}{
		{"unknown backend", func(c *AgentConfig) { c.Media.Backend = "sqlite" }, "media.backend"},
		{"missing flash", func(c *AgentConfig) { c.Media.Flash = "" }, "media.flash is required"},
		{"in-memory badger needs no path", func(c *AgentConfig) {
			c.Media.Flash = ""
			c.Media.Backend = BackendBadger
			c.Badger.InMemory = true
		}, ""},
		{"card equals flash", func(c *AgentConfig) { c.Media.Card = c.Media.Flash + "/" }, "must differ"},
		{"discard ratio", func(c *AgentConfig) { c.Badger.Discard = 1 }, "badger.discard"},
		{"negative delay", func(c *AgentConfig) { c.Save.Delay = -time.Second }, "save.delay"},
		{"zero tick", func(c *AgentConfig) { c.Save.Tick = 0 }, "save.tick"},
		{"bad metrics addr", func(c *AgentConfig) { c.Metrics.Addr = "9100" }, "metrics.addr"},
		{"good metrics addr", func(c *AgentConfig) { c.Metrics.Addr = ":9100" }, ""},
		{"bad metrics path", func(c *AgentConfig) {
			c.Metrics.Addr = ":9100"
			c.Metrics.Path = "metrics"
		}, "metrics.path"},
		{"bad level", func(c *AgentConfig) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *AgentConfig) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := Verify(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Verify() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Verify() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_Nil(t *testing.T) {
	if err := Verify(nil); err == nil {
		t.Error("Verify(nil) should fail")
	}
}

func TestSanitize(t *testing.T) {
	cfg := &AgentConfig{
		Media: MediaSection{Flash: " /data/flash ", Backend: " Badger "},
		Log:   LogSection{Level: "DEBUG"},
	}

	out := Sanitize(cfg)

	if cfg.Media.Backend != " Badger " {
		t.Error("Sanitize() modified its input")
	}
	if out.Media.Flash != "/data/flash" {
		t.Errorf("Flash = %q", out.Media.Flash)
	}
	if out.Media.Backend != BackendBadger {
		t.Errorf("Backend = %q, want %q", out.Media.Backend, BackendBadger)
	}
	if out.Log.Level != "debug" || out.Log.Format != DefaultLogFormat {
		t.Errorf("Log = %+v", out.Log)
	}
	if out.Save.Tick != DefaultSaveTick || out.Badger.Discard != DefaultBadgerDiscard {
		t.Errorf("zero values not defaulted: %+v %+v", out.Save, out.Badger)
	}
	if out.Shutdown.Timeout != DefaultShutdownTimeout {
		t.Errorf("Shutdown.Timeout = %v", out.Shutdown.Timeout)
	}
}

func TestLoad_FileEnvDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sidconf.yaml")
	content := `
media:
  backend: badger
save:
  delay: 5s
metrics:
  addr: 127.0.0.1:9100
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SID_LOG_LEVEL", "debug")

	l := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithDefaults(DefaultMap()),
	)
	var cfg AgentConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Media.Backend != BackendBadger {
		t.Errorf("Backend = %q", cfg.Media.Backend)
	}
	if cfg.Media.Flash != DefaultFlashDir {
		t.Errorf("Flash = %q, want default", cfg.Media.Flash)
	}
	if cfg.Save.Delay != 5*time.Second {
		t.Errorf("Save.Delay = %v, want 5s", cfg.Save.Delay)
	}
	if cfg.Save.Tick != DefaultSaveTick {
		t.Errorf("Save.Tick = %v, want default", cfg.Save.Tick)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug from env", cfg.Log.Level)
	}
	if err := Verify(&cfg); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestBuildMedia(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	cfg.Media.Flash = filepath.Join(dir, "flash")
	cfg.Media.Card = ""
	m := BuildMedia(cfg, nil)
	if _, ok := m.Flash.(*medium.DirMedium); !ok {
		t.Errorf("Flash = %T, want *medium.DirMedium", m.Flash)
	}
	if m.Card != nil || m.Badger != nil {
		t.Errorf("unexpected media: %+v", m)
	}

	cfg.Media.Backend = BackendBadger
	cfg.Media.Card = filepath.Join(dir, "card")
	m = BuildMedia(cfg, nil)
	if m.Badger == nil || m.Flash != m.Badger {
		t.Errorf("badger backend not selected: %+v", m)
	}
	if m.Card == nil || m.Card.Name() != "card" {
		t.Errorf("Card = %v", m.Card)
	}

	opts := RegistryOptions(cfg, m, nil, nil)
	if opts.Flash != m.Flash || opts.Card != m.Card {
		t.Error("RegistryOptions() did not carry the media")
	}
	if opts.SaveDelay != cfg.Save.Delay || opts.MinSaveInterval != cfg.Save.Interval {
		t.Errorf("RegistryOptions() timing = %v/%v", opts.SaveDelay, opts.MinSaveInterval)
	}
}
