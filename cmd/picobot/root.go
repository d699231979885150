package main

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "picobot",
	Short: "Picobot - directive engine and reminder scheduler",
	Long: `Picobot turns a chat model's in-band directives into real side effects:
scheduled reminders in the system job table, long-term notes, web searches
and follow-up answers. It is the engine between a conversational model and
the machine it runs on.`,
	Version: Version,
}

func init() {
	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(pruneCmd)
}
