// Package poller runs the fetch → validate → format → notify cycle.
//
// The loop is strictly sequential: one cycle at a time, then a sleep until the
// schedule's next activation. Loop state (cursor, last reported error) is owned
// by the goroutine calling Run and needs no locking.
package poller

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"hwbot/internal/practicum"
	logx "hwbot/pkg/logx"
)

// Fetcher returns the status payload for everything changed since cursor.
type Fetcher interface {
	Fetch(ctx context.Context, cursor int64) (practicum.Payload, error)
}

// Notifier delivers a message and reports whether it was accepted.
type Notifier interface {
	Notify(ctx context.Context, text string) bool
}

type Outcome int

const (
	// OutcomeFailed means the cycle ended with an error.
	OutcomeFailed Outcome = iota
	// OutcomeNothingNew means the status list was empty.
	OutcomeNothingNew
	// OutcomeDelivered means a status message was delivered and the cursor may have moved.
	OutcomeDelivered
	// OutcomeUndelivered means a status message was built but the chat did not accept it.
	OutcomeUndelivered
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNothingNew:
		return "nothing_new"
	case OutcomeDelivered:
		return "delivered"
	case OutcomeUndelivered:
		return "undelivered"
	default:
		return "failed"
	}
}

// PanicError is a panic recovered inside a cycle.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// CycleReport summarizes one RunOnce call.
type CycleReport struct {
	ID           string
	Started      time.Time
	Took         time.Duration
	Outcome      Outcome
	Err          error
	CursorBefore int64
	CursorAfter  int64
	// ErrorNotified is set when the cycle's error message was delivered.
	ErrorNotified bool
	// ErrorSuppressed is set when the error text matched the last delivered one.
	ErrorSuppressed bool
}

const errorTemplate = "Program malfunction: %v"

// ErrorMessage renders the chat message for a failed cycle.
func ErrorMessage(err error) string { return fmt.Sprintf(errorTemplate, err) }

type Loop struct {
	fetch  Fetcher
	notify Notifier
	sched  cron.Schedule
	log    logx.Logger

	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
	observe func(CycleReport)

	cursor  int64
	lastErr string
}

type Option func(*Loop)

// WithSchedule sets when the next cycle starts. Defaults to every DefaultInterval.
func WithSchedule(s cron.Schedule) Option {
	return func(l *Loop) {
		if s != nil {
			l.sched = s
		}
	}
}

func WithLogger(log logx.Logger) Option { return func(l *Loop) { l.log = log } }

// WithObserver registers a callback invoked after every cycle.
func WithObserver(fn func(CycleReport)) Option { return func(l *Loop) { l.observe = fn } }

// WithClock replaces time.Now and the context-aware sleep (tests).
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Loop) {
		if now != nil {
			l.now = now
		}
		if sleep != nil {
			l.sleep = sleep
		}
	}
}

// WithCursor sets the initial cursor. The default is 0 (epoch).
func WithCursor(c int64) Option { return func(l *Loop) { l.cursor = c } }

func New(f Fetcher, n Notifier, opts ...Option) *Loop {
	l := &Loop{
		fetch:  f,
		notify: n,
		sched:  cron.Every(DefaultInterval),
		now:    time.Now,
		sleep:  sleepCtx,
	}
	for _, o := range opts {
		o(l)
	}
	if l.log.IsZero() {
		l.log = logx.Nop()
	}
	return l
}

func (l *Loop) Cursor() int64 { return l.cursor }

// LastError returns the last error message that reached the chat.
func (l *Loop) LastError() string { return l.lastErr }

// Cycle runs fetch → validate → format → notify once.
//
// The cursor moves to the payload's current_date only after the status
// message was delivered. An empty status list leaves it untouched even when
// current_date is present. Panics are returned as *PanicError.
func (l *Loop) Cycle(ctx context.Context) (out Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = OutcomeFailed, &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()

	payload, err := l.fetch.Fetch(ctx, l.cursor)
	if err != nil {
		return OutcomeFailed, err
	}
	items, err := practicum.Validate(payload)
	if err != nil {
		return OutcomeFailed, err
	}
	if len(items) == 0 {
		return OutcomeNothingNew, nil
	}
	msg, err := practicum.Format(items[0])
	if err != nil {
		return OutcomeFailed, err
	}
	if !l.notify.Notify(ctx, msg) {
		return OutcomeUndelivered, nil
	}
	if d, ok := payload.CurrentDate(); ok {
		l.cursor = d
	}
	return OutcomeDelivered, nil
}

// RunOnce runs one cycle and handles its error: log it, then notify the chat
// unless the same text was the last one delivered.
func (l *Loop) RunOnce(ctx context.Context) CycleReport {
	rep := CycleReport{ID: uuid.NewString(), Started: l.now(), CursorBefore: l.cursor}
	log := l.log.With(logx.String("cycle_id", rep.ID))

	rep.Outcome, rep.Err = l.Cycle(ctx)
	switch {
	case rep.Err == nil:
		log.Debug("cycle finished",
			logx.String("outcome", rep.Outcome.String()),
			logx.Int64("cursor", l.cursor),
		)
	case ctx.Err() != nil:
		// Shutting down; the failure is ours, not the API's.
		log.Debug("cycle interrupted", logx.Err(rep.Err))
	default:
		l.reportError(ctx, log, &rep)
	}

	rep.CursorAfter = l.cursor
	rep.Took = l.now().Sub(rep.Started)
	if l.observe != nil {
		l.observe(rep)
	}
	return rep
}

func (l *Loop) reportError(ctx context.Context, log logx.Logger, rep *CycleReport) {
	fields := []logx.Field{logx.Err(rep.Err), logx.Int64("cursor", l.cursor)}
	if pe, ok := rep.Err.(*PanicError); ok {
		fields = append(fields, logx.String("stack", pe.Stack))
	}
	log.Error("cycle failed", fields...)

	msg := ErrorMessage(rep.Err)
	if msg == l.lastErr {
		rep.ErrorSuppressed = true
		log.Debug("error already reported; not notifying again")
		return
	}
	if l.notify.Notify(ctx, msg) {
		l.lastErr = msg
		rep.ErrorNotified = true
	}
}

// Run cycles until ctx is canceled, sleeping between cycles whatever the outcome.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("poll loop started", logx.Int64("cursor", l.cursor))
	for ctx.Err() == nil {
		l.RunOnce(ctx)
		d := l.nextDelay()
		l.log.Trace("sleeping", logx.Duration("delay", d))
		if err := l.sleep(ctx, d); err != nil {
			break
		}
	}
	l.log.Info("poll loop stopped", logx.Int64("cursor", l.cursor))
	return nil
}

func (l *Loop) nextDelay() time.Duration {
	// cron rounds Every down to whole seconds from now; a flat interval is exact.
	if cd, ok := l.sched.(cron.ConstantDelaySchedule); ok {
		return cd.Delay
	}
	now := l.now()
	next := l.sched.Next(now)
	if next.IsZero() {
		// cron returns zero for expressions that never fire (e.g. Feb 30).
		return DefaultInterval
	}
	d := next.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
