// Package main provides the entry point for sidconf-agent.
//
// The agent boots the SID settings from the flash and card media, keeps
// them loaded, and writes deferred saves in the background. On SIGINT or
// SIGTERM it flushes every pending save before unmounting.
//
// Usage:
//
//	sidconf-agent [flags]
//	sidconf-agent --config /etc/sid/agent.yaml
//
// Configuration comes from compiled defaults, the optional YAML file and
// SID_ environment variables, in that order. Changes to the log level in
// the file apply without a restart.
package main
