package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hwbot/internal/app"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start polling",
	Long: `Start the poll loop. It runs until interrupted (Ctrl+C) or it
receives SIGTERM; both stop it gracefully.

Example:
  hwbot run
  hwbot run -c /etc/hwbot/hwbot.yaml --env-file /etc/hwbot/env`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")

	a, err := app.New(app.Options{ConfigPath: cfgPath, EnvFile: envFile})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.Run(ctx)
}
