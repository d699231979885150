package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/picobot/picobot/internal/events"
)

var notifyConfigPath string

// notifyCmd represents the notify command. Managed job table entries invoke
// it when they fire; `picobot notify` is the default notifier command marker
// in the table.
var notifyCmd = &cobra.Command{
	Use:   "notify <message>",
	Short: "Record a fired reminder",
	Long: `Append a reminder message to the event notification queue and show a
silent desktop notification when notify-send is available. This is the
command crontab entries created by Picobot run at their scheduled time.`,
	Args: cobra.MinimumNArgs(1),
	Run:  notifyHandler,
}

func notifyHandler(cmd *cobra.Command, args []string) {
	cfg, log := initApp(notifyConfigPath, "")

	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		fmt.Fprintln(os.Stderr, "Empty message")
		os.Exit(1)
	}

	// The crontab entry's own echo fragment appends to the event queue;
	// this command only covers the silent desktop channel.
	notifier := events.NewNotifier(events.NewQueue(cfg.EventsPath()), log)
	notifier.Notify(context.Background(), message)
}

func init() {
	notifyCmd.Flags().StringVarP(&notifyConfigPath, "config", "c", "", "Path to configuration file")
}
