// Package confloader loads the agent configuration.
//
// Values are layered with koanf. Later layers win:
//
//  1. Defaults supplied by the caller through LoadMap
//  2. A YAML file
//  3. Environment variables with the SID_ prefix
//
// An environment variable maps onto a dotted key by dropping the prefix,
// lower-casing and replacing underscores with dots, so SID_SAVE_DELAY sets
// save.delay. Keys therefore never contain underscores.
//
// Watcher reports edits to the configuration file so a running agent can
// re-apply the settings that are safe to change live.
package confloader
