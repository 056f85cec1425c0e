package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCheckWith(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append([]string{"check"}, args...))
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return buf.String(), err
}

func unsetCredentials(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PRACTICUM_TOKEN", "TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID"} {
		t.Setenv(k, "x")
		_ = os.Unsetenv(k)
	}
}

func TestCheckReportsMissingCredentials(t *testing.T) {
	unsetCredentials(t)
	envFile := filepath.Join(t.TempDir(), "none.env")

	out, err := runCheckWith(t, "--env-file", envFile, "--config", "")
	if err == nil {
		t.Fatal("expected failure")
	}
	if !strings.Contains(out, "PRACTICUM_TOKEN, TELEGRAM_TOKEN, TELEGRAM_CHAT_ID") {
		t.Fatalf("output does not list missing variables:\n%s", out)
	}
}

func TestCheckUsesEnvFileAndSettings(t *testing.T) {
	unsetCredentials(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("PRACTICUM_TOKEN=p\nTELEGRAM_TOKEN=t\nTELEGRAM_CHAT_ID=5\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := filepath.Join(dir, "hwbot.yaml")
	if err := os.WriteFile(cfg, []byte("poll_interval: 5m\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := runCheckWith(t, "--env-file", envFile, "--config", cfg)
	if err != nil {
		t.Fatalf("check failed: %v\n%s", err, out)
	}
	for _, want := range []string{"schedule:  every 5m0s", "credentials: ok"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}
