package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	logx "hwbot/pkg/logx"
)

// ErrMissingCredentials is returned when any required credential is absent.
var ErrMissingCredentials = errors.New("missing required credentials")

// Credentials come from the process environment only.
//
// TelegramChatID is kept as text: Telegram accepts both numeric ids and
// public @usernames, and the adapter decides which one it is.
type Credentials struct {
	PracticumToken string `env:"PRACTICUM_TOKEN"`
	TelegramToken  string `env:"TELEGRAM_TOKEN"`
	TelegramChatID string `env:"TELEGRAM_CHAT_ID"`
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("env file %s: %w", path, err)
	}
	return nil
}

// LoadCredentials reads credentials from the environment. Absent variables
// stay zero; use Missing to find them.
func LoadCredentials() (Credentials, error) {
	var c Credentials
	if err := env.Parse(&c); err != nil {
		return Credentials{}, err
	}
	c.PracticumToken = strings.TrimSpace(c.PracticumToken)
	c.TelegramToken = strings.TrimSpace(c.TelegramToken)
	c.TelegramChatID = strings.TrimSpace(c.TelegramChatID)
	return c, nil
}

// Missing lists the names of absent credentials in a fixed order.
func (c Credentials) Missing() []string {
	var out []string
	if c.PracticumToken == "" {
		out = append(out, "PRACTICUM_TOKEN")
	}
	if c.TelegramToken == "" {
		out = append(out, "TELEGRAM_TOKEN")
	}
	if c.TelegramChatID == "" {
		out = append(out, "TELEGRAM_CHAT_ID")
	}
	return out
}

// Check logs every missing credential at critical level and returns
// ErrMissingCredentials if there were any.
func (c Credentials) Check(log logx.Logger) error {
	missing := c.Missing()
	for _, name := range missing {
		log.Critical("required environment variable is missing", logx.String("name", name))
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}
