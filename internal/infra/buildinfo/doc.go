// Package buildinfo reports the version of the sidconf binaries.
//
// Release builds set the variables with ldflags:
//
//	go build -ldflags "-X github.com/circuitsetup/sidconf/internal/infra/buildinfo.Version=v1.2.0"
//
// Development builds fall back to the module and VCS data recorded by the
// Go toolchain.
package buildinfo
