// Package main provides the orchestra binary entry point. Orchestra runs
// multi-agent planning workflows: a planner agent drafts a plan, reviewer
// agents critique it in parallel, and the user steers revision rounds at
// persisted checkpoints.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "orchestra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "orchestra",
		Short: "Multi-agent plan review workflows",
		Long: `Orchestra coordinates LLM CLI tools (claude, codex, gemini) through a
checkpointed planning workflow.

A planner agent drafts a development plan, three reviewer agents critique it
in parallel, and you decide at each checkpoint: edit the plan, consolidate the
reviews, request a revision, or approve. Every step is persisted, so suspended
workflows survive restarts.`,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newRunCmd(&configPath, &logLevel))
	cmd.AddCommand(newListCmd(&configPath, &logLevel))
	cmd.AddCommand(newHistoryCmd(&configPath, &logLevel))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

// newLogger builds the process logger. An explicit flag level overrides the
// configured one.
func newLogger(configured, flag string) *slog.Logger {
	levelName := configured
	if flag != "" {
		levelName = flag
	}

	level := slog.LevelInfo
	switch strings.ToLower(levelName) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
