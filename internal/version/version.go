// Package version exposes the build-time version string, set via -ldflags
// by the magefile's Build target.
package version

// version is overwritten at build time with -X. It stays "v0.0.0" for
// `go run` and test binaries.
var version = "v0.0.0"

// Value returns the running binary's version string.
func Value() string {
	return version
}
