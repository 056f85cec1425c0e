// Package main is the entry point for the hwbot CLI.
//
// Usage:
//
//	hwbot run -c hwbot.yaml   # Poll the status API and notify the chat
//	hwbot check               # Validate credentials and settings
//	hwbot version             # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "hwbot",
	Short: "Homework review status notifier for Telegram",
	Long: `hwbot polls the homework review API and posts every status change
to a Telegram chat.

Credentials are read from the environment (or a .env file):
  PRACTICUM_TOKEN   OAuth token for the homework status API
  TELEGRAM_TOKEN    bot token
  TELEGRAM_CHAT_ID  numeric id of the chat to notify

Example settings (all keys optional):
  poll_interval: 10m
  request_timeout: 30s
  logging:
    level: debug
    file: { enabled: true, path: ./hwbot.log }`,
	SilenceUsage: true,
}

// Execute runs the root command and exits 1 on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "hwbot %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", commit)
		fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to settings file (JSON or YAML)")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading credentials")
	rootCmd.AddCommand(versionCmd)
}
