package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/picobot/picobot/internal/config"
	"github.com/picobot/picobot/internal/constants"
	"github.com/picobot/picobot/internal/crontab"
	"github.com/picobot/picobot/internal/llm"
	"github.com/picobot/picobot/internal/logger"
)

// loadEnvFile exports KEY=VALUE pairs from the local .env file, if present.
func loadEnvFile() {
	data, err := os.ReadFile(constants.DefaultEnvPath)
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if key, value, found := strings.Cut(line, "="); found {
			os.Setenv(strings.TrimSpace(key), strings.TrimSpace(value))
		}
	}
}

// initApp loads the configuration and builds the logger. Validation failures
// are printed and terminate the process; every command shares this path.
func initApp(configPath, logLevelOverride string) (*config.Config, *logger.Logger) {
	loadEnvFile()

	if configPath == "" {
		configPath = constants.DefaultConfigPath
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("❌ Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if logLevelOverride != "" {
		cfg.Logging.Level = logLevelOverride
	}

	if errors := cfg.Validate(); len(errors) > 0 {
		fmt.Printf("❌ Configuration validation failed:\n")
		for _, e := range errors {
			fmt.Printf("  - %v\n", e)
		}
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Printf("❌ Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	return cfg, log
}

// newJobTableAdapter builds the adapter for the configured source.
func newJobTableAdapter(cfg *config.Config, log *logger.Logger, metrics *crontab.Metrics) *crontab.Adapter {
	var source crontab.Source
	switch cfg.Crontab.Source {
	case "crontab":
		source = crontab.NewExecSource()
	default:
		source = crontab.NewFileSource(cfg.CrontabPath())
	}
	return crontab.New(source, cfg.Crontab.NotifierCommand, cfg.EventsPath(), log, metrics)
}

// newProvider builds the configured model provider. The mock provider is the
// only built-in backend; real backends register here.
func newProvider(cfg *config.Config) (llm.Provider, error) {
	switch cfg.LLM.Provider {
	case "", "mock":
		return llm.NewEchoProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.LLM.Provider)
	}
}
