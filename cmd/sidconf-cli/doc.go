// Package main provides the entry point for sidconf-cli.
//
// The CLI opens the same media as the agent and works on the stored
// settings directly:
//
//   - show, get and set primary settings
//   - change the secondary and tertiary groups
//   - manage the static IP override and learned remote keys
//   - move the selectable records between flash and card
//   - inspect and build binary record files
//
// Usage:
//
//	sidconf-cli [global flags] command [flags]
//	sidconf-cli --flash ./flash --card ./sd show -o yaml
//	sidconf-cli set hostName=sid2 wifiConRetries=5
//
// Do not run it against media the agent has mounted.
package main
