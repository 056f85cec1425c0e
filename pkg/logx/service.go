package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	kit "hwbot/internal/transport"
)

type Config struct {
	Level    string
	Console  bool
	File     FileConfig
	Telegram TelegramConfig
}

type FileConfig struct {
	Enabled bool
	Path    string
	// Truncate empties the file when it is opened instead of appending.
	Truncate bool
}

// TelegramConfig forwards records at or above MinLevel to Chat.
type TelegramConfig struct {
	Enabled    bool
	Chat       string
	MinLevel   string
	RatePerSec int
}

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

// Service owns the sinks. Apply rebuilds them; loggers handed out earlier
// pick up the change on their next record.
type Service struct {
	mu   sync.Mutex
	root atomic.Pointer[zerolog.Logger]
	file *os.File
	tg   *telegramSink
}

// New applies cfg and returns the service and its root logger. sender may
// be nil until SetSender is called; the Telegram sink drops records until then.
func New(cfg Config, sender kit.Sender) (*Service, Logger) {
	zerolog.TimeFieldFormat = timeFormat
	s := &Service{tg: newTelegramSink(sender)}
	s.Apply(cfg)
	return s, s.Logger()
}

func (s *Service) Logger() Logger { return Logger{src: s.root.Load} }

// SetSender attaches the chat sender used by the Telegram sink.
func (s *Service) SetSender(sender kit.Sender) { s.tg.setSender(sender) }

func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sinks []io.Writer
	if cfg.Console {
		sinks = append(sinks, consoleWriter())
	}

	var file *os.File
	if cfg.File.Enabled {
		f, err := openLogFile(cfg.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logx: %v\n", err)
		} else {
			file = f
			sinks = append(sinks, zerolog.SyncWriter(f))
		}
	}

	s.tg.configure(cfg.Telegram)
	if cfg.Telegram.Enabled {
		sinks = append(sinks, s.tg)
	}
	if len(sinks) == 0 {
		sinks = append(sinks, consoleWriter())
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(sinks...)).
		Level(parseLevel(cfg.Level, zerolog.InfoLevel)).
		With().Timestamp().Logger()
	s.root.Store(&zl)

	// Swap the file only after the new root is live.
	if s.file != nil {
		_ = s.file.Close()
	}
	s.file = file
}

// Close stops the Telegram sink and closes the log file.
func (s *Service) Close() error {
	s.tg.stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func openLogFile(cfg FileConfig) (*os.File, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = "./hwbot.log"
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if cfg.Truncate {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %q: %w", path, err)
	}
	return f, nil
}

func consoleWriter() io.Writer {
	return zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: timeFormat}
}
