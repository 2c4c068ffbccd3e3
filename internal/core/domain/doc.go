// Package domain defines the settings data model for the SID controller.
//
// Domain models are pure values without IO dependencies. This package
// contains:
//
//   - PrimaryConfig: named string fields of the primary document, driven
//     by a declarative field table
//   - SecondaryGroup, TertiaryGroup: small binary preference groups
//   - IPOverride: static network configuration
//   - DeviceIdentity: the once-generated 32-bit device ID
//   - LearnedKeyTable: learned IR remote codes
//   - Errors: coded settings errors
//
// Record and marker names used on storage media are defined in records.go.
package domain
