// Package config provides configuration loading and validation for picobot.
// It supports TOML configuration files with environment variable expansion,
// default values, and comprehensive validation.
//
// Configuration structure:
//   - [workspace]: Workspace directory
//   - [logging]: Logging level, format, and output
//   - [crontab]: Job table source (managed file or user crontab) and notifier command
//   - [events]: Event notification queue file
//   - [memory]: Note store file
//   - [dispatch]: Handler execution limits
//   - [search]: Web search handler settings
//   - [llm]: Model provider used for second-turn generation
//   - [runner]: In-process firing engine for serve mode
//   - [metrics]: Prometheus endpoint settings
//
// Environment variables can be referenced using ${VAR} or ${VAR:default}
// syntax, for example: path = "${PICOBOT_HOME:~/.picobot}"
package config

import (
	"path/filepath"
	"time"
)

// Config represents the main application configuration.
type Config struct {
	Workspace WorkspaceConfig `toml:"workspace"`
	Logging   LoggingConfig   `toml:"logging"`
	Crontab   CrontabConfig   `toml:"crontab"`
	Events    EventsConfig    `toml:"events"`
	Memory    MemoryConfig    `toml:"memory"`
	Dispatch  DispatchConfig  `toml:"dispatch"`
	Search    SearchConfig    `toml:"search"`
	LLM       LLMConfig       `toml:"llm"`
	Runner    RunnerConfig    `toml:"runner"`
	Metrics   MetricsConfig   `toml:"metrics"`
}

// WorkspaceConfig holds the workspace directory settings.
type WorkspaceConfig struct {
	Path string `toml:"path"`
}

// LoggingConfig holds the logging settings.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// CrontabConfig holds the job table settings.
//
// Source selects the backend: "file" keeps a managed crontab-format file
// under Path; "crontab" edits the invoking user's crontab via the crontab
// binary. NotifierCommand is the command written into managed entries; its
// presence in a line is what marks the line as owned by picobot.
type CrontabConfig struct {
	Source          string `toml:"source"`
	Path            string `toml:"path"`
	NotifierCommand string `toml:"notifier_command"`
}

// EventsConfig holds the event notification queue settings.
type EventsConfig struct {
	File string `toml:"file"`
}

// MemoryConfig holds the note store settings.
type MemoryConfig struct {
	File string `toml:"file"`
}

// DispatchConfig holds directive execution settings.
type DispatchConfig struct {
	HandlerTimeoutSeconds int `toml:"handler_timeout_seconds"`
}

// SearchConfig holds the web search handler settings.
type SearchConfig struct {
	Enabled        bool   `toml:"enabled"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxResults     int    `toml:"max_results"`
	UserAgent      string `toml:"user_agent"`
}

// LLMConfig holds the model provider settings for the follow-up turn.
type LLMConfig struct {
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
}

// RunnerConfig holds the in-process firing engine settings for serve mode.
type RunnerConfig struct {
	Enabled            bool `toml:"enabled"`
	TickSeconds        int  `toml:"tick_seconds"`
	PruneIntervalHours int  `toml:"prune_interval_hours"`
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled    bool   `toml:"enabled"`
	ListenAddr string `toml:"listen_addr"`
}

// Timeout returns the search HTTP timeout as a duration.
func (c SearchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// HandlerTimeout returns the per-directive execution limit as a duration.
func (c DispatchConfig) HandlerTimeout() time.Duration {
	return time.Duration(c.HandlerTimeoutSeconds) * time.Second
}

// Tick returns the runner tick interval as a duration.
func (c RunnerConfig) Tick() time.Duration {
	return time.Duration(c.TickSeconds) * time.Second
}

// PruneInterval returns the periodic prune interval as a duration.
func (c RunnerConfig) PruneInterval() time.Duration {
	return time.Duration(c.PruneIntervalHours) * time.Hour
}

// CrontabPath returns the resolved path of the managed job table file.
func (c *Config) CrontabPath() string {
	if c.Crontab.Path != "" {
		return c.Crontab.Path
	}
	return filepath.Join(c.Workspace.Path, "crontab")
}

// EventsPath returns the resolved path of the event queue file.
func (c *Config) EventsPath() string {
	if c.Events.File != "" {
		return c.Events.File
	}
	return filepath.Join(c.Workspace.Path, "events.log")
}

// MemoryPath returns the resolved path of the note store file.
func (c *Config) MemoryPath() string {
	if c.Memory.File != "" {
		return c.Memory.File
	}
	return filepath.Join(c.Workspace.Path, "memory.txt")
}
