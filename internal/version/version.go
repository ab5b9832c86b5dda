// Package version holds the build version, set with
// -ldflags "-X github.com/okian/rbcfuse/internal/version.Version=v1.2.3".
package version

// Version of the rbc-combine build.
var Version = "dev"
