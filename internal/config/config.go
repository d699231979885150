package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load reads the configuration from a TOML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := expandEnvVars(&cfg); err != nil {
		return nil, fmt.Errorf("failed to expand environment variables: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() []error {
	var errors []error

	if c.Workspace.Path == "" {
		errors = append(errors, fmt.Errorf("workspace.path is required"))
	} else if err := validatePath(c.Workspace.Path, "workspace.path"); err != nil {
		errors = append(errors, err)
	}

	switch c.Crontab.Source {
	case "file", "crontab":
	default:
		errors = append(errors, fmt.Errorf("invalid crontab.source: %s (expected: file, crontab)", c.Crontab.Source))
	}

	if c.Crontab.NotifierCommand == "" {
		errors = append(errors, fmt.Errorf("crontab.notifier_command is required"))
	} else if strings.ContainsAny(c.Crontab.NotifierCommand, ";\n") {
		errors = append(errors, fmt.Errorf("crontab.notifier_command must be a single command without ';'"))
	}

	if c.Logging.Level == "" {
		errors = append(errors, fmt.Errorf("logging.level is required"))
	} else {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[strings.ToLower(c.Logging.Level)] {
			errors = append(errors, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
		}
	}

	if c.Logging.Format == "" {
		errors = append(errors, fmt.Errorf("logging.format is required"))
	} else {
		validFormats := map[string]bool{"json": true, "text": true}
		if !validFormats[strings.ToLower(c.Logging.Format)] {
			errors = append(errors, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
		}
	}

	if c.Logging.Output == "" {
		errors = append(errors, fmt.Errorf("logging.output is required"))
	}

	if c.Dispatch.HandlerTimeoutSeconds <= 0 {
		errors = append(errors, fmt.Errorf("dispatch.handler_timeout_seconds must be positive"))
	}

	if c.Search.Enabled && c.Search.TimeoutSeconds <= 0 {
		errors = append(errors, fmt.Errorf("search.timeout_seconds must be positive when search is enabled"))
	}

	switch c.LLM.Provider {
	case "", "mock":
	default:
		errors = append(errors, fmt.Errorf("invalid llm.provider: %s (expected: mock)", c.LLM.Provider))
	}

	if c.Runner.Enabled && c.Runner.TickSeconds <= 0 {
		errors = append(errors, fmt.Errorf("runner.tick_seconds must be positive when runner is enabled"))
	}

	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		errors = append(errors, fmt.Errorf("metrics.listen_addr is required when metrics is enabled"))
	}

	return errors
}

func validatePath(path, fieldName string) error {
	if path == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	if strings.HasPrefix(path, "~") {
		return nil
	}

	if strings.Contains(path, "..") {
		return fmt.Errorf("%s contains potentially dangerous path traversal sequence", fieldName)
	}

	return nil
}

// applyDefaults fills in default values for unset fields.
func applyDefaults(c *Config) {
	if c.Workspace.Path == "" {
		c.Workspace.Path = "~/.picobot"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}

	if c.Crontab.Source == "" {
		c.Crontab.Source = "file"
	}
	if c.Crontab.NotifierCommand == "" {
		c.Crontab.NotifierCommand = "picobot notify"
	}

	if c.Dispatch.HandlerTimeoutSeconds == 0 {
		c.Dispatch.HandlerTimeoutSeconds = 30
	}

	if c.Search.TimeoutSeconds == 0 {
		c.Search.TimeoutSeconds = 20
	}
	if c.Search.MaxResults == 0 {
		c.Search.MaxResults = 5
	}
	if c.Search.UserAgent == "" {
		c.Search.UserAgent = "Mozilla/5.0 (compatible; picobot/0.1)"
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = "mock"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 4096
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}

	if c.Runner.TickSeconds == 0 {
		c.Runner.TickSeconds = 30
	}
	if c.Runner.PruneIntervalHours == 0 {
		c.Runner.PruneIntervalHours = 24
	}

	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = "127.0.0.1:9190"
	}
}

// expandEnvVars expands environment references and home paths in the config.
func expandEnvVars(c *Config) error {
	c.Workspace.Path = expandHome(expandEnv(c.Workspace.Path))
	c.Crontab.Path = expandHome(expandEnv(c.Crontab.Path))
	c.Events.File = expandHome(expandEnv(c.Events.File))
	c.Memory.File = expandHome(expandEnv(c.Memory.File))
	c.Logging.Output = expandHome(expandEnv(c.Logging.Output))
	return nil
}

// expandEnv expands an environment variable reference of the form ${VAR:default}.
func expandEnv(s string) string {
	if !strings.HasPrefix(s, "${") {
		return s
	}

	end := strings.Index(s, "}")
	if end == -1 {
		return s
	}

	content := s[2:end]
	rest := s[end+1:]
	if parts := strings.SplitN(content, ":", 2); len(parts) == 2 {
		key := parts[0]
		defaultVal := parts[1]
		if val := os.Getenv(key); val != "" {
			return val + rest
		}
		return defaultVal + rest
	}

	return os.Getenv(content) + rest
}

// expandHome expands a leading ~ in a path.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
