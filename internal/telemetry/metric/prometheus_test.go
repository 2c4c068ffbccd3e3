package metric

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.registry == nil {
		t.Error("registry field is nil")
	}
	if r.RecordWrites == nil {
		t.Error("RecordWrites is nil")
	}
	if r.RecordSkips == nil {
		t.Error("RecordSkips is nil")
	}
	if r.Migrations == nil {
		t.Error("Migrations is nil")
	}
}

func TestGlobal(t *testing.T) {
	r1 := Global()
	r2 := Global()
	if r1 != r2 {
		t.Error("Global() should return the same instance")
	}
}

func TestHandler(t *testing.T) {
	h := Handler()
	if h == nil {
		t.Fatal("Handler() returned nil")
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	body, _ := io.ReadAll(rec.Body)
	bodyStr := string(body)

	if !strings.Contains(bodyStr, "go_goroutines") {
		t.Error("expected go_goroutines metric")
	}
	if !strings.Contains(bodyStr, "process_") {
		t.Error("expected process metrics")
	}
}

func TestPersistenceMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordWritten("sid2cfg", "card")
	r.RecordWritten("sid2cfg", "card")
	r.RecordWritten("sidconfig.json", "flash")
	r.RecordSkipped("sid2cfg")
	r.RecordCorrupt("sid2cfg", "card")
	r.WriteFailed("sidid", "flash")

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"writes sid2cfg/card", testutil.ToFloat64(r.RecordWrites.WithLabelValues("sid2cfg", "card")), 2},
		{"writes primary/flash", testutil.ToFloat64(r.RecordWrites.WithLabelValues("sidconfig.json", "flash")), 1},
		{"skips", testutil.ToFloat64(r.RecordSkips.WithLabelValues("sid2cfg")), 1},
		{"corrupt", testutil.ToFloat64(r.CorruptCopies.WithLabelValues("sid2cfg", "card")), 1},
		{"failures", testutil.ToFloat64(r.WriteFailures.WithLabelValues("sidid", "flash")), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestMigrationMetrics(t *testing.T) {
	r := NewRegistry()

	r.Migrated("sidbricfg.json", true)
	r.Migrated("sidipcfg.json", false)

	if got := testutil.ToFloat64(r.Migrations.WithLabelValues("sidbricfg.json", "converted")); got != 1 {
		t.Errorf("converted = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.Migrations.WithLabelValues("sidipcfg.json", "discarded")); got != 1 {
		t.Errorf("discarded = %v, want 1", got)
	}
}

func TestRegistryHandler(t *testing.T) {
	r := NewRegistry()
	r.RecordWritten("sid3cfg", "card")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `sid_store_record_writes_total{medium="card",record="sid3cfg"} 1`) {
		t.Errorf("expected write counter in output, got:\n%s", body)
	}
}
