package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/picobot/picobot/internal/directive"
	"github.com/picobot/picobot/internal/dispatch"
	"github.com/picobot/picobot/internal/llm"
	"github.com/picobot/picobot/internal/memory"
	"github.com/picobot/picobot/internal/processor"
	"github.com/picobot/picobot/internal/schedule"
	"github.com/picobot/picobot/internal/websearch"
)

var (
	chatConfigPath string
	chatSession    string
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Process one message through the directive engine",
	Long: `Send one message through the full loop: model generation, directive
extraction and dispatch, and the follow-up turn when an outcome needs model
interpretation. The residual text and any follow-up answer are printed.

The message is read from the arguments, or from stdin when omitted.`,
	Args: cobra.ArbitraryArgs,
	Run:  chatHandler,
}

func chatHandler(cmd *cobra.Command, args []string) {
	cfg, log := initApp(chatConfigPath, "")

	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		data, err := os.ReadFile("/dev/stdin")
		if err != nil {
			fmt.Fprintf(os.Stderr, "No message given and stdin unreadable: %v\n", err)
			os.Exit(1)
		}
		message = strings.TrimSpace(string(data))
	}
	if message == "" {
		fmt.Fprintln(os.Stderr, "Empty message")
		os.Exit(1)
	}

	provider, err := newProvider(cfg)
	if err != nil {
		log.Error("Failed to initialize model provider", err)
		os.Exit(1)
	}

	adapter := newJobTableAdapter(cfg, log, nil)
	scheduler := schedule.NewScheduler(adapter, log)
	store := memory.NewStore(cfg.MemoryPath())

	registry := dispatch.NewRegistry()
	for _, h := range []dispatch.Handler{
		&dispatch.ScheduleCreateHandler{Scheduler: scheduler},
		&dispatch.ScheduleDeleteHandler{Scheduler: scheduler},
		&dispatch.MemoryWriteHandler{Store: store},
		&dispatch.MemoryDeleteHandler{Store: store},
		&dispatch.SearchHandler{Client: websearch.NewClient(cfg.Search, log), Enabled: cfg.Search.Enabled},
		&dispatch.MathHandler{},
	} {
		if err := registry.Register(h); err != nil {
			log.Error("Failed to register handler", err)
			os.Exit(1)
		}
	}

	extractor := directive.NewExtractor(log)
	dispatcher := dispatch.New(extractor, registry, cfg.Dispatch.HandlerTimeout(), log, nil)
	proc := processor.New(provider, dispatcher, extractor, cfg.LLM, log)

	result, err := proc.Process(context.Background(), chatSession,
		[]llm.Message{{Role: llm.RoleUser, Content: message}}, time.Now())
	if err != nil {
		log.Error("Message processing failed", err)
		os.Exit(1)
	}

	if result.UserText != "" {
		fmt.Println(result.UserText)
	}
	for _, o := range result.Outcomes {
		status := "ok"
		if !o.Success {
			status = "failed"
		}
		fmt.Printf("  [%s] %s\n", status, o.Detail)
	}
	if result.FollowUpText != "" {
		fmt.Println(result.FollowUpText)
	}
}

func init() {
	chatCmd.Flags().StringVarP(&chatConfigPath, "config", "c", "", "Path to configuration file")
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "default", "Session identifier")
}
