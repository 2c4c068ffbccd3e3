// Package command defines the sidconf-cli commands using urfave/cli/v2.
//
//   - root.go: application, global flags, registry session
//   - settings.go: show, get, set
//   - groups.go: secondary, tertiary
//   - network.go: ip, keys
//   - move.go: relocation of the selectable records
//   - record.go: raw binary record inspection and encoding
//   - version.go: build information
//
// Every command that touches settings boots a registry over the configured
// media, exactly as the agent does, and closes it afterwards so deferred
// saves reach storage before the process exits.
package command
