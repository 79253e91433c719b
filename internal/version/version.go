// Package version provides build version information for the application.
// This is a separate package so the api client can report it without
// importing cli.
package version

// Version is the build version string, set by ldflags during build.
var Version = "v0.1.0-dev"

// BuildTime is the build timestamp, set by ldflags during build.
var BuildTime = "unknown"

// UserAgent is sent with every Box API request.
func UserAgent() string {
	return "box-browse/" + Version
}
