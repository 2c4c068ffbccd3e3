//go:build sid_nomigrate

package migrate

const compiledIn = false
