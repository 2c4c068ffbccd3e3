//go:build sid_purgelegacy

package migrate

const purgeByDefault = true
