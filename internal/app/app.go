// Package app wires settings, credentials, logging, the status API client,
// the Telegram sender and the poll loop into one runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"hwbot/internal/config"
	"hwbot/internal/notifier"
	"hwbot/internal/poller"
	"hwbot/internal/practicum"
	"hwbot/internal/runtime/supervisor"
	kit "hwbot/internal/transport"
	"hwbot/internal/transport/telegram"
	logx "hwbot/pkg/logx"
	"hwbot/pkg/systemd"
)

const (
	shutdownTimeout     = 10 * time.Second
	telegramHTTPTimeout = 30 * time.Second
)

type Options struct {
	// ConfigPath is the optional settings file (JSON or YAML).
	ConfigPath string
	// EnvFile is loaded into the environment before credentials are read.
	EnvFile string

	// Fetcher and Sender replace the status API client and the Telegram
	// adapter when set.
	Fetcher poller.Fetcher
	Sender  kit.Sender
}

type App struct {
	cfgm  *config.Manager
	creds config.Credentials

	log  logx.Logger
	logs *logx.Service

	client *practicum.Client
	loop   *poller.Loop
	spec   poller.ParsedSpec

	mu       sync.Mutex
	settings *config.Settings
	reason   StopReason
}

// New loads settings, starts logging, then reads credentials and builds every
// component.
//
// Logging comes up right after settings, so env file and credential failures
// reach the configured sinks. Missing credentials are logged at critical level
// and returned as config.ErrMissingCredentials before the status API client or
// the loop is built, so no request is ever made.
func New(opts Options) (*App, error) {
	cfgm := config.NewManager(opts.ConfigPath)
	settings, err := cfgm.Load()
	if err != nil {
		err = fmt.Errorf("settings: %w", err)
		logx.NewConsole("INFO").Critical("program stopped", logx.Err(err))
		return nil, err
	}

	// The Telegram sink stays silent until SetSender below.
	logSvc, log := logx.New(settings.Logging.LogConfig(), nil)
	fail := func(err error) (*App, error) {
		log.Critical("program stopped", logx.Err(err))
		_ = logSvc.Close()
		return nil, err
	}

	if err := config.LoadEnvFile(opts.EnvFile); err != nil {
		return fail(err)
	}
	creds, err := config.LoadCredentials()
	if err != nil {
		return fail(fmt.Errorf("credentials: %w", err))
	}
	if err := creds.Check(log); err != nil {
		return fail(err)
	}

	sender := opts.Sender
	if sender == nil {
		ad, err := telegram.New(telegram.Config{
			Token:       creds.TelegramToken,
			HTTPTimeout: telegramHTTPTimeout,
		}, log.With(logx.String("comp", "telegram")))
		if err != nil {
			return fail(err)
		}
		sender = ad
	}
	logSvc.SetSender(sender)
	log = log.With(logx.String("comp", "app"))

	a := &App{
		cfgm:     cfgm,
		creds:    creds,
		log:      log,
		logs:     logSvc,
		settings: settings,
	}
	if err := a.build(opts, sender, kit.ChatTarget{Chat: creds.TelegramChatID}); err != nil {
		return fail(err)
	}
	return a, nil
}

func (a *App) build(opts Options, sender kit.Sender, to kit.ChatTarget) error {
	s := a.settings

	fetcher := opts.Fetcher
	if fetcher == nil {
		timeout, err := s.RequestTimeoutOrDefault()
		if err != nil {
			return err
		}
		c, err := practicum.NewClient(practicum.Config{
			Endpoint: s.EndpointOrDefault(),
			Token:    a.creds.PracticumToken,
			Timeout:  timeout,
		}, nil)
		if err != nil {
			return err
		}
		a.client = c
		fetcher = c
	}

	spec, err := s.Schedule()
	if err != nil {
		return err
	}
	loc, err := s.Location()
	if err != nil {
		return err
	}
	sched, err := spec.Schedule(loc)
	if err != nil {
		return err
	}
	a.spec = spec

	n := notifier.New(sender, to, a.log.With(logx.String("comp", "notifier")))
	a.loop = poller.New(fetcher, n,
		poller.WithSchedule(sched),
		poller.WithLogger(a.log.With(logx.String("comp", "poller"))),
		poller.WithObserver(a.observe),
	)
	return nil
}

func (a *App) Logger() logx.Logger { return a.log }

// Schedule reports the effective poll schedule.
func (a *App) Schedule() poller.ParsedSpec { return a.spec }

// StopReason reports why the last Run returned.
func (a *App) StopReason() StopReason {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reason
}

// Run starts the poll loop and the settings watcher and blocks until ctx is
// canceled or a component fails. Logging is flushed and closed on return.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	sup := supervisor.New(ctx, a.log.With(logx.String("comp", "supervisor")))

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "settings")))
	updates := a.cfgm.Subscribe(1)
	defer a.cfgm.Unsubscribe(updates)

	sup.Go("settings.watch", a.cfgm.Watch)
	sup.Go("settings.apply", func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case s, ok := <-updates:
				if !ok {
					return nil
				}
				a.applySettings(s)
			}
		}
	})
	sup.Go("poller", a.loop.Run)
	if wd := systemd.WatchdogInterval(); wd > 0 {
		sup.Go("systemd.watchdog", func(ctx context.Context) error {
			watchdog(ctx, wd/2)
			return nil
		})
	}

	a.log.Info("started",
		logx.String("schedule", a.spec.String()),
		logx.String("chat", a.creds.TelegramChatID),
		logx.String("settings", a.cfgm.Path()),
	)
	_ = systemd.Ready()
	_ = systemd.Status("polling " + a.spec.String())

	<-sup.Context().Done()

	reason := StopSignal
	if sup.Err() != nil {
		reason = StopFatalError
	}
	a.mu.Lock()
	a.reason = reason
	a.mu.Unlock()

	a.log.Info("stopping", logx.String("reason", string(reason)))
	_ = systemd.Stopping()

	waitCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := sup.Wait(waitCtx)
	if errors.Is(err, context.DeadlineExceeded) {
		a.log.Warn("shutdown timed out", logx.Int64("still_running", sup.Running()))
		return nil
	}
	if err != nil {
		a.log.Critical("stopped on error", logx.Err(err))
		return err
	}
	a.log.Info("stopped", logx.Int64("cursor", a.loop.Cursor()))
	return nil
}

func (a *App) applySettings(s *config.Settings) {
	a.mu.Lock()
	prev := a.settings
	a.settings = s
	a.mu.Unlock()

	changed, attrs, restart := config.SummarizeChange(prev, s)
	if len(changed) == 0 {
		return
	}
	a.log.Info("settings reloaded", append([]logx.Field{logx.String("changed", strings.Join(changed, ","))}, attrs...)...)
	for _, c := range changed {
		if c == "logging" {
			lc := s.Logging.LogConfig()
			// Keep what this run already wrote.
			lc.File.Truncate = false
			a.logs.Apply(lc)
		}
	}
	if restart {
		a.log.Warn("some settings only take effect after restart", logx.String("changed", strings.Join(changed, ",")))
	}
}

func (a *App) observe(rep poller.CycleReport) {
	status := fmt.Sprintf("last cycle %s at %s, cursor %d",
		rep.Outcome, rep.Started.Format(time.RFC3339), rep.CursorAfter)
	if rep.Err != nil {
		status += ": " + rep.Err.Error()
	}
	_ = systemd.Status(status)
}

func (a *App) close() {
	if a.client != nil {
		a.client.Close()
	}
	_ = a.logs.Close()
}

func watchdog(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = systemd.Watchdog()
		}
	}
}
