package confloader

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestNewWatcher(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	if w.watcher == nil {
		t.Error("watcher is nil")
	}
	if w.settle != DefaultSettle {
		t.Errorf("settle = %v, want %v", w.settle, DefaultSettle)
	}
}

func TestNewWatcher_Options(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	w, err := NewWatcher(WithWatcherLogger(logger), WithSettle(0))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	if w.logger != logger {
		t.Error("WithWatcherLogger() option not applied")
	}
	if w.settle != 0 {
		t.Errorf("settle = %v, want 0", w.settle)
	}
}

func TestWatcher_Watch_NonexistentDir(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	if err := w.Watch("/nonexistent/path/sidconf.yaml"); err == nil {
		t.Error("Watch() expected error for nonexistent directory")
	}
}

func TestWatcher_StopTwice(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.StartAsync()
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestWatcher_NotifyAllCallbacks(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	var mu sync.Mutex
	count := 0
	for i := 0; i < 3; i++ {
		w.OnChange(func(string) {
			mu.Lock()
			count++
			mu.Unlock()
		})
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.notifyCallbacks("/etc/sid/sidconf.yaml")
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if count != 150 {
		t.Errorf("callbacks ran %d times, want 150", count)
	}
}

func TestWatcher_CallbackAddsCallback(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	var got []string
	w.OnChange(func(path string) {
		got = append(got, "first")
		w.OnChange(func(string) { got = append(got, "late") })
	})

	w.notifyCallbacks("/etc/sid/sidconf.yaml")
	if len(got) != 1 || got[0] != "first" {
		t.Fatalf("first notify ran %v, want [first]", got)
	}

	got = nil
	w.notifyCallbacks("/etc/sid/sidconf.yaml")
	if len(got) != 2 || got[0] != "first" || got[1] != "late" {
		t.Errorf("second notify ran %v, want [first late]", got)
	}
}

func startWatcher(t *testing.T, settle time.Duration) (string, string, <-chan string) {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "sidconf.yaml")
	if err := os.WriteFile(cfg, []byte("log:\n  level: info\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	w, err := NewWatcher(WithSettle(settle))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if err := w.Watch(cfg); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	changed := make(chan string, 16)
	w.OnChange(func(path string) {
		select {
		case changed <- path:
		default:
		}
	})
	w.StartAsync()
	t.Cleanup(func() { w.Stop() })
	time.Sleep(50 * time.Millisecond)
	return dir, cfg, changed
}

func TestWatcher_FileChange(t *testing.T) {
	_, cfg, changed := startWatcher(t, 0)

	if err := os.WriteFile(cfg, []byte("log:\n  level: debug\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	select {
	case path := <-changed:
		if path != cfg {
			t.Errorf("path = %q, want %q", path, cfg)
		}
	case <-time.After(2 * time.Second):
		t.Error("callback not triggered within timeout")
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir, _, changed := startWatcher(t, 0)

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	select {
	case path := <-changed:
		t.Errorf("unexpected callback for %q", path)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_SettleCoalescesWrites(t *testing.T) {
	_, cfg, changed := startWatcher(t, 150*time.Millisecond)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(cfg, []byte("log:\n  level: warn\n"), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("callback not triggered within timeout")
	}
	select {
	case <-changed:
		t.Error("burst of writes should produce one callback")
	case <-time.After(400 * time.Millisecond):
	}
}
