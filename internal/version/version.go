package version

// Version is the current application version.
// This value is injected at build time for release builds.
var Version = "0.1.0-dev"
