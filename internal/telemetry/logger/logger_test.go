package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func decodeLine(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(b, &entry); err != nil {
		t.Fatalf("not a JSON log line: %v\n%s", err, b)
	}
	return entry
}

func TestNewSlog_Formats(t *testing.T) {
	tests := []struct {
		format string
		json   bool
	}{
		{"json", true},
		{"JSON", true},
		{"text", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			NewSlog(Config{Level: "info", Format: tt.format, Output: &buf}).
				Info("record written", "record", "sid2cfg", "medium", "card")

			isJSON := json.Valid(bytes.TrimSpace(buf.Bytes()))
			if isJSON != tt.json {
				t.Errorf("JSON output = %v, want %v: %s", isJSON, tt.json, buf.String())
			}
			if !strings.Contains(buf.String(), "sid2cfg") {
				t.Errorf("missing attribute: %s", buf.String())
			}
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		level string
		log   func(string, ...any)
	}{
		{"DEBUG", l.Debug},
		{"INFO", l.Info},
		{"WARN", l.Warn},
		{"ERROR", l.Error},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			tt.log("save skipped", "record", "sid3cfg")

			entry := decodeLine(t, buf.Bytes())
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
			if entry["record"] != "sid3cfg" {
				t.Errorf("record = %v", entry["record"])
			}
		})
	}
}

func TestLogger_WithAndSlog(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Format: "json", Output: &buf})

	l.With("component", "registry").Info("settings loaded")
	if entry := decodeLine(t, buf.Bytes()); entry["component"] != "registry" {
		t.Errorf("component = %v", entry["component"])
	}

	buf.Reset()
	l.Slog().Info("through slog", "medium", "flash")
	if entry := decodeLine(t, buf.Bytes()); entry["medium"] != "flash" {
		t.Errorf("medium = %v", entry["medium"])
	}

	buf.Reset()
	l.WithContext(context.Background()).Warn("with context")
	if buf.Len() == 0 {
		t.Error("WithContext logger wrote nothing")
	}
}

func TestSetLevel_AppliesToExistingLoggers(t *testing.T) {
	t.Cleanup(func() { SetLevel("info") })

	var buf bytes.Buffer
	l := NewSlog(Config{Level: "error", Format: "json", Output: &buf})

	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info logged at error level: %s", buf.String())
	}

	SetLevel("debug")
	l.Debug("shown")
	if buf.Len() == 0 {
		t.Error("debug not logged after SetLevel(debug)")
	}
}

func TestGetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel("info") })

	tests := []struct {
		in   string
		want string
	}{
		{"debug", "debug"},
		{"TRACE", "debug"},
		{"info", "info"},
		{" warning ", "warn"},
		{"Error", "error"},
		{"loud", "info"},
		{"", "info"},
	}
	for _, tt := range tests {
		SetLevel(tt.in)
		if got := GetLevel(); got != tt.want {
			t.Errorf("SetLevel(%q): GetLevel() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidLevel(t *testing.T) {
	for _, l := range []string{"debug", "trace", "info", "warn", "warning", "error", "WARN"} {
		if !ValidLevel(l) {
			t.Errorf("ValidLevel(%q) = false", l)
		}
	}
	for _, l := range []string{"", "loud", "fatal"} {
		if ValidLevel(l) {
			t.Errorf("ValidLevel(%q) = true", l)
		}
	}
}

func TestLogger_RedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Format: "json", Output: &buf})

	l.Info("primary field set", "pass", "hunter22", "appw", "12345678", "hostName", "sid")

	entry := decodeLine(t, buf.Bytes())
	for _, key := range []string{"pass", "appw"} {
		if entry[key] != redactedValue {
			t.Errorf("%s = %v, want redacted", key, entry[key])
		}
	}
	if entry["hostName"] != "sid" {
		t.Errorf("hostName = %v", entry["hostName"])
	}
}

func TestDefault(t *testing.T) {
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Format: "text", Output: &buf})
	SetDefault(l)
	Default().Info("default replaced")
	if !strings.Contains(buf.String(), "default replaced") {
		t.Errorf("Default() did not use the new logger: %q", buf.String())
	}

	Discard().Error("dropped")
}
