package logx

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	kit "hwbot/internal/transport"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARNING ", zerolog.WarnLevel},
		{"critical", zerolog.FatalLevel},
		{"Error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.raw, zerolog.InfoLevel); got != tt.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestRenderRecord(t *testing.T) {
	t.Parallel()
	got := renderRecord([]byte(`{"level":"error","time":"x","caller":"a/b.go:1","message":"cycle failed","err":"boom","comp":"poller"}`))
	want := "ERROR cycle failed\ncomp: poller\nerr: boom"
	if got != want {
		t.Fatalf("renderRecord = %q, want %q", got, want)
	}

	if got := renderRecord([]byte(`{"level":"fatal","message":"missing"}`)); got != "CRITICAL missing" {
		t.Fatalf("fatal rendered as %q", got)
	}
	if got := renderRecord([]byte("  not json  ")); got != "not json" {
		t.Fatalf("raw fallback = %q", got)
	}
	long := renderRecord([]byte(strings.Repeat("я", telegramMaxRunes+50)))
	if n := len([]rune(long)); n != telegramMaxRunes {
		t.Fatalf("clipped to %d runes, want %d", n, telegramMaxRunes)
	}
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return string(b)
}

func TestFileSinkTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	if err := os.WriteFile(path, []byte("stale line\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	svc, log := New(Config{Level: "info", File: FileConfig{Enabled: true, Path: path, Truncate: true}}, nil)
	log.Info("fresh start")
	_ = svc.Close()

	got := readLog(t, path)
	if strings.Contains(got, "stale line") || !strings.Contains(got, "fresh start") {
		t.Fatalf("unexpected file content %q", got)
	}
}

func TestApplyChangesLevelForExistingLoggers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	cfg := Config{Level: "info", File: FileConfig{Enabled: true, Path: path}}
	svc, log := New(cfg, nil)
	defer svc.Close()

	derived := log.With(String("comp", "poller"))
	derived.Debug("hidden")
	cfg.Level = "debug"
	svc.Apply(cfg)
	derived.Debug("shown")
	derived.Critical("still running")

	got := readLog(t, path)
	if strings.Contains(got, "hidden") {
		t.Fatalf("debug record written at info level: %q", got)
	}
	for _, want := range []string{`"message":"shown"`, `"comp":"poller"`, `"level":"fatal"`, `"caller":"logx/logx_test.go:`} {
		if !strings.Contains(got, want) {
			t.Fatalf("log missing %s: %q", want, got)
		}
	}
}

func TestZeroLoggerIsSilent(t *testing.T) {
	t.Parallel()
	var l Logger
	if !l.IsZero() || Nop().IsZero() {
		t.Fatal("IsZero mismatch")
	}
	l.With(String("k", "v")).Error("dropped")
}

type captureSender struct {
	mu    sync.Mutex
	texts []string
	to    []kit.ChatTarget
}

func (c *captureSender) SendText(_ context.Context, to kit.ChatTarget, text string, _ *kit.SendOptions) (kit.MessageRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
	c.to = append(c.to, to)
	return kit.MessageRef{Chat: to.Chat}, nil
}

func (c *captureSender) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.texts)
}

func waitFor(c *captureSender, n int) {
	deadline := time.Now().Add(2 * time.Second)
	for c.count() < n && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
}

func TestTelegramSinkForwardsToOwnChat(t *testing.T) {
	sender := &captureSender{}
	svc, log := New(Config{
		Level:    "debug",
		File:     FileConfig{Enabled: true, Path: filepath.Join(t.TempDir(), "x.log")},
		Telegram: TelegramConfig{Enabled: true, Chat: "-100500", MinLevel: "error", RatePerSec: 10},
	}, nil)
	defer svc.Close()
	svc.SetSender(sender)

	log.Info("quiet")
	log.Error("loud", String("comp", "test"))

	waitFor(sender, 1)
	time.Sleep(50 * time.Millisecond)
	if n := sender.count(); n != 1 {
		t.Fatalf("forwarded %d records, want 1", n)
	}
	sender.mu.Lock()
	defer sender.mu.Unlock()
	if !strings.HasPrefix(sender.texts[0], "ERROR loud") {
		t.Fatalf("unexpected forwarded text %q", sender.texts[0])
	}
	if sender.to[0].Chat != "-100500" {
		t.Fatalf("target chat = %q, want -100500", sender.to[0].Chat)
	}
}

func TestTelegramSinkWithoutChatDropsRecords(t *testing.T) {
	sender := &captureSender{}
	svc, log := New(Config{
		Level:    "debug",
		File:     FileConfig{Enabled: true, Path: filepath.Join(t.TempDir(), "x.log")},
		Telegram: TelegramConfig{Enabled: true, MinLevel: "debug"},
	}, sender)

	log.Error("nowhere to go")
	_ = svc.Close()
	if n := sender.count(); n != 0 {
		t.Fatalf("forwarded %d records without a chat", n)
	}
}
