package logger

import (
	"log/slog"
	"strings"
)

// Key fragments naming credentials. Matching is case-insensitive and by
// substring, so "pass" also covers "password" and "wifiPass".
var sensitiveKeyPatterns = []string{
	"pass",
	"appw",
	"mqttuser",
	"secret",
	"credential",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive masks string attributes whose key names a credential.
// Empty values are left alone so "not set" stays visible.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		if a.Value.String() != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}
	return a
}

// RedactField returns value, or a placeholder when key names a credential
// and value is not empty. The command line tool uses it when printing
// settings.
func RedactField(key, value string) string {
	if value != "" && IsSensitiveKey(key) {
		return redactedValue
	}
	return value
}

// MaskValue keeps the first and last character of a value and hides the
// rest. Values of four bytes or less are hidden completely.
func MaskValue(value string) string {
	if len(value) <= 4 {
		return "***"
	}
	return value[:1] + "***" + value[len(value)-1:]
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
