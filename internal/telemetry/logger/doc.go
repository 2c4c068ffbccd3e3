// Package logger provides structured logging for the SID settings tools.
//
//   - logger.go: slog-based logger, output formats and runtime level
//   - hclog.go: bridge onto a go-hclog logger for the command line tool
//   - context.go: context-carried logger and operation name
//   - redact.go: masking of credentials in log attributes
//
// Every handler built here redacts attributes whose key names a credential
// (the WiFi and access point passwords, the message broker user), so
// settings can be logged field by field without leaking them.
package logger
