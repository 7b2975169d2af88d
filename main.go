package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// version is stamped at build time
	version = "dev"

	// memoryStore swaps PostgreSQL for the in-process stores
	memoryStore bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lifeos",
	Short: "Personal life-management backend",
	Long: `lifeos captures free text into typed items (tasks, events, ideas, references),
serves the dashboard API and sends the morning and night briefs.

Configuration is read from the environment and an optional .env file.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&memoryStore, "memory", false, "use in-memory stores instead of PostgreSQL (development only)")
}
