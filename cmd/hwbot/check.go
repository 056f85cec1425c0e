package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hwbot/internal/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate credentials and settings",
	Long: `Load the env file and the settings file, report missing credentials
and print the effective endpoint and schedule. Exits 1 on any problem.
No request is sent.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	out := cmd.OutOrStdout()

	if err := config.LoadEnvFile(envFile); err != nil {
		return err
	}
	settings, err := config.NewManager(cfgPath).Load()
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	creds, err := config.LoadCredentials()
	if err != nil {
		return fmt.Errorf("credentials: %w", err)
	}

	spec, _ := settings.Schedule()
	timeout, _ := settings.RequestTimeoutOrDefault()
	if cfgPath == "" {
		cfgPath = "(defaults)"
	}
	fmt.Fprintf(out, "settings:  %s\n", cfgPath)
	fmt.Fprintf(out, "endpoint:  %s\n", settings.EndpointOrDefault())
	fmt.Fprintf(out, "schedule:  %s\n", spec)
	fmt.Fprintf(out, "timeout:   %s\n", timeout)

	if missing := creds.Missing(); len(missing) > 0 {
		fmt.Fprintf(out, "missing:   %s\n", strings.Join(missing, ", "))
		return errors.New("credentials incomplete")
	}
	fmt.Fprintln(out, "credentials: ok")
	return nil
}
