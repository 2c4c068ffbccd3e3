// Package config defines the sidconf-agent configuration.
//
//   - spec.go: AgentConfig and its sections
//   - default.go: compiled defaults
//   - verify.go: validation
//   - sanitize.go: normalization before use or logging
//   - media.go: building the storage media and registry options
//
// Configuration is loaded with internal/infra/confloader from a YAML file
// and SID_ environment variables.
package config
