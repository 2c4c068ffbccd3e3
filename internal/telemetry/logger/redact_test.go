package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestRedactSensitive_SensitiveKeyName(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		key   string
		value string
	}{
		{"pass", "wifi-secret"},
		{"password", "hunter2"},
		{"appw", "12345678"},
		{"mqttUser", "bob:pw"},
		{"clientSecret", "abc"},
		{"credential", "cred123"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			buf.Reset()
			l.Info("test", tt.key, tt.value)

			var logEntry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
				t.Fatalf("Failed to parse JSON log: %v", err)
			}

			val, ok := logEntry[tt.key].(string)
			if !ok {
				t.Fatalf("Expected %s field in log", tt.key)
			}
			if val != redactedValue {
				t.Errorf("Key %q should be redacted, got %q", tt.key, val)
			}
		})
	}
}

func TestRedactSensitive_NormalValues(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Info("settings", "ssid", "home", "keyOK", "0x20df22dd", "pass", "")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}

	if v := logEntry["ssid"]; v != "home" {
		t.Errorf("ssid should not be redacted, got: %v", v)
	}
	if v := logEntry["keyOK"]; v != "0x20df22dd" {
		t.Errorf("learned key codes should not be redacted, got: %v", v)
	}
	if v := logEntry["pass"]; v != "" {
		t.Errorf("empty credential should stay empty, got: %v", v)
	}
}

func TestRedactSensitive_Group(t *testing.T) {
	a := slog.Group("network", slog.String("pass", "secret"), slog.String("hostName", "sid"))
	got := redactSensitive(a).Value.Group()

	if got[0].Value.String() != redactedValue {
		t.Errorf("pass in group = %q, want redacted", got[0].Value.String())
	}
	if got[1].Value.String() != "sid" {
		t.Errorf("hostName in group = %q, want sid", got[1].Value.String())
	}
}

func TestRedactField(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"pass", "secret", redactedValue},
		{"appw", "", ""},
		{"hostName", "sid", "sid"},
		{"mqttUser", "me:pw", redactedValue},
	}
	for _, tt := range tests {
		if got := RedactField(tt.key, tt.value); got != tt.want {
			t.Errorf("RedactField(%q, %q) = %q, want %q", tt.key, tt.value, got, tt.want)
		}
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"pass", true},
		{"PASSWORD", true},
		{"appw", true},
		{"mqttUser", true},
		{"mqttServer", false},
		{"ssid", false},
		{"hostName", false},
		{"keySTAR", false},
	}
	for _, tt := range tests {
		if got := IsSensitiveKey(tt.key); got != tt.want {
			t.Errorf("IsSensitiveKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestMaskValue(t *testing.T) {
	tests := []struct {
		value, want string
	}{
		{"", "***"},
		{"abcd", "***"},
		{"abcdef", "a***f"},
	}
	for _, tt := range tests {
		if got := MaskValue(tt.value); got != tt.want {
			t.Errorf("MaskValue(%q) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
