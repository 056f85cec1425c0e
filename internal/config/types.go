package config

import (
	"fmt"
	"strings"
	"time"

	"hwbot/internal/practicum"
	"hwbot/internal/poller"
	logx "hwbot/pkg/logx"
)

// Settings is the optional settings file. Every field has a default, so an
// absent file is equivalent to "{}".
type Settings struct {
	// Endpoint is the homework status API URL.
	Endpoint string `json:"endpoint,omitempty"`
	// PollInterval accepts a duration ("10m"), HH:MM ("00:10") or a cron
	// expression ("*/10 * * * *").
	PollInterval string `json:"poll_interval,omitempty"`
	// RequestTimeout bounds a single API request.
	RequestTimeout string `json:"request_timeout,omitempty"`
	// Timezone is an IANA name used for cron schedules. Empty means local time.
	Timezone string `json:"timezone,omitempty"`

	Logging LoggingSettings `json:"logging"`
}

type LoggingSettings struct {
	Level    string              `json:"level,omitempty"`
	Console  *bool               `json:"console,omitempty"`
	File     FileLogSettings     `json:"file"`
	Telegram TelegramLogSettings `json:"telegram"`
}

type FileLogSettings struct {
	Enabled  *bool  `json:"enabled,omitempty"`
	Path     string `json:"path,omitempty"`
	Truncate *bool  `json:"truncate,omitempty"`
}

// TelegramLogSettings configures the log sink. It posts to its own ChatID,
// never to the notification chat, so log records cannot mix with statuses or
// bypass the error dedup there.
type TelegramLogSettings struct {
	Enabled    bool   `json:"enabled,omitempty"`
	ChatID     string `json:"chat_id,omitempty"`
	MinLevel   string `json:"min_level,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultLogLevel       = "debug"
	DefaultLogPath        = "./hwbot.log"
)

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// EndpointOrDefault returns the configured endpoint or the public API URL.
func (s *Settings) EndpointOrDefault() string {
	if e := strings.TrimSpace(s.Endpoint); e != "" {
		return e
	}
	return practicum.DefaultEndpoint
}

func (s *Settings) RequestTimeoutOrDefault() (time.Duration, error) {
	return parseDuration("request_timeout", s.RequestTimeout, DefaultRequestTimeout)
}

// Schedule parses poll_interval. Empty means every poller.DefaultInterval.
func (s *Settings) Schedule() (poller.ParsedSpec, error) {
	spec, err := poller.ParseSchedule(s.PollInterval)
	if err != nil {
		return poller.ParsedSpec{}, fmt.Errorf("poll_interval: %w", err)
	}
	return spec, nil
}

// Location resolves timezone. Empty means time.Local.
func (s *Settings) Location() (*time.Location, error) {
	tz := strings.TrimSpace(s.Timezone)
	if tz == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}

// Validate checks every field that has a parser, so a bad file is rejected
// before anything is committed.
func (s *Settings) Validate() error {
	if _, err := s.RequestTimeoutOrDefault(); err != nil {
		return err
	}
	spec, err := s.Schedule()
	if err != nil {
		return err
	}
	loc, err := s.Location()
	if err != nil {
		return err
	}
	if _, err := spec.Schedule(loc); err != nil {
		return fmt.Errorf("poll_interval: %w", err)
	}
	if s.Logging.Telegram.RatePerSec < 0 {
		return fmt.Errorf("logging.telegram.rate_per_sec must be >= 0")
	}
	if s.Logging.Telegram.Enabled && strings.TrimSpace(s.Logging.Telegram.ChatID) == "" {
		return fmt.Errorf("logging.telegram.chat_id is required when the sink is enabled")
	}
	return nil
}

// LogConfig maps logging settings onto logx.Config, filling defaults.
// Console and file logging are on by default and the file is truncated on
// start; the Telegram sink is opt-in.
func (l LoggingSettings) LogConfig() logx.Config {
	level := strings.TrimSpace(l.Level)
	if level == "" {
		level = DefaultLogLevel
	}
	path := strings.TrimSpace(l.File.Path)
	if path == "" {
		path = DefaultLogPath
	}
	minLevel := strings.TrimSpace(l.Telegram.MinLevel)
	if minLevel == "" {
		minLevel = "error"
	}
	rps := l.Telegram.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	return logx.Config{
		Level:   level,
		Console: boolOr(l.Console, true),
		File: logx.FileConfig{
			Enabled:  boolOr(l.File.Enabled, true),
			Path:     path,
			Truncate: boolOr(l.File.Truncate, true),
		},
		Telegram: logx.TelegramConfig{
			Enabled:    l.Telegram.Enabled,
			Chat:       strings.TrimSpace(l.Telegram.ChatID),
			MinLevel:   minLevel,
			RatePerSec: rps,
		},
	}
}
