package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/picobot/picobot/internal/schedule"
)

var pruneConfigPath string

// pruneCmd represents the prune command
var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired one-shot reminders from the job table",
	Long: `Remove one-shot reminders whose year-guarded fire time has already
passed. Such entries can never fire again; pruning keeps the job table
from accumulating them. Recurring reminders and foreign crontab lines are
never touched.`,
	Run: pruneHandler,
}

func pruneHandler(cmd *cobra.Command, args []string) {
	cfg, log := initApp(pruneConfigPath, "")

	adapter := newJobTableAdapter(cfg, log, nil)
	scheduler := schedule.NewScheduler(adapter, log)

	pruned, err := scheduler.Prune(context.Background(), time.Now())
	if err != nil {
		log.Error("Prune failed", err)
		os.Exit(1)
	}
	fmt.Printf("Pruned %d expired reminder(s)\n", pruned)
}

func init() {
	pruneCmd.Flags().StringVarP(&pruneConfigPath, "config", "c", "", "Path to configuration file")
}
