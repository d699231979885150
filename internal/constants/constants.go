// Package constants holds application-wide defaults shared by the CLI
// commands.
package constants

// AppName is the application name used in notifications and metrics.
const AppName = "picobot"

// MetricsNamespace is the Prometheus namespace for all metrics.
const MetricsNamespace = "picobot"

// DefaultEnvPath is the default path to the .env file.
const DefaultEnvPath = "./.env"

// DefaultConfigPath is the default path to the config.toml file.
const DefaultConfigPath = "./config.toml"

// DefaultVersion is the version reported when none is set at build time.
const DefaultVersion = "0.1.0-dev"

// DefaultBuildTime is the build time reported when none is set at build time.
const DefaultBuildTime = "unknown"

// DefaultGitCommit is the commit reported when none is set at build time.
const DefaultGitCommit = "unknown"

// DefaultGoVersion is the Go version reported when none is set at build time.
const DefaultGoVersion = "unknown"
