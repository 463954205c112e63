// Package version reports the scribe build: the release set with
// -ldflags and the VCS stamp the Go toolchain embeds.
//
//	go build -ldflags "-X github.com/kbukum/scribekit/version.Version=v1.2.0"
package version
