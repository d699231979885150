package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/picobot/picobot/internal/constants"
	"github.com/picobot/picobot/internal/crontab"
	"github.com/picobot/picobot/internal/events"
	"github.com/picobot/picobot/internal/logger"
	"github.com/picobot/picobot/internal/schedule"
	"github.com/picobot/picobot/internal/version"
)

var (
	serveConfigPath string
	serveLogLevel   string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reminder firing engine",
	Long: `Run Picobot in serve mode: the in-process runner fires due reminders
into the event queue, expired one-shots are pruned periodically, and
Prometheus metrics are exposed when enabled.

Use serve when the system crontab is not driving the job table itself.`,
	Run: serveHandler,
}

func serveHandler(cmd *cobra.Command, args []string) {
	cfg, log := initApp(serveConfigPath, serveLogLevel)

	log.Info("🚀 "+version.FormatStartupMessage(),
		logger.Field{Key: "git_commit", Value: GitCommit},
		logger.Field{Key: "workspace", Value: cfg.Workspace.Path},
		logger.Field{Key: "crontab_source", Value: cfg.Crontab.Source},
		logger.Field{Key: "runner_enabled", Value: cfg.Runner.Enabled})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	crontabMetrics := crontab.InitMetrics(constants.MetricsNamespace, registry)

	adapter := newJobTableAdapter(cfg, log, crontabMetrics)
	scheduler := schedule.NewScheduler(adapter, log)
	queue := events.NewQueue(cfg.EventsPath())
	notifier := events.NewNotifier(queue, log)

	if cfg.Metrics.Enabled {
		server := &http.Server{
			Addr:    cfg.Metrics.ListenAddr,
			Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}
		go func() {
			log.Info("📊 Metrics endpoint listening",
				logger.Field{Key: "addr", Value: cfg.Metrics.ListenAddr})
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("Metrics endpoint failed", err)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	if cfg.Runner.Enabled {
		runner := schedule.NewRunner(adapter, notifier, cfg.Runner.Tick(), log)
		go func() {
			if err := runner.Run(ctx); err != nil && err != context.Canceled {
				log.Error("Runner stopped unexpectedly", err)
			}
		}()
	} else {
		log.Warn("Runner is disabled; reminders fire only through the system crontab")
	}

	// Periodic prune keeps elapsed one-shots from piling up in the table.
	go func() {
		ticker := time.NewTicker(cfg.Runner.PruneInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if _, err := scheduler.Prune(ctx, now); err != nil {
					log.ErrorCtx(ctx, "Periodic prune failed", err)
				}
			}
		}
	}()

	sig := <-sigChan
	log.Info("Shutting down",
		logger.Field{Key: "signal", Value: sig.String()})
	cancel()
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "Path to configuration file")
	serveCmd.Flags().StringVarP(&serveLogLevel, "log-level", "l", "", "Override log level (debug, info, warn, error)")
}
