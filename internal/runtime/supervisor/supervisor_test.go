package supervisor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	logx "hwbot/pkg/logx"
)

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestPanicIsRecoveredAndCancelsOthers(t *testing.T) {
	t.Parallel()
	s := New(context.Background(), logx.Nop())

	s.Go("loop", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	s.Go("bad", func(context.Context) error { panic("boom") })

	err := s.Wait(waitCtx(t))
	if err == nil || !strings.Contains(err.Error(), "panic in bad: boom") {
		t.Fatalf("Wait() = %v, want panic error", err)
	}
	if s.Running() != 0 {
		t.Fatalf("Running() = %d, want 0", s.Running())
	}
}

func TestParentCancelIsCleanStop(t *testing.T) {
	t.Parallel()
	parent, cancel := context.WithCancel(context.Background())
	s := New(parent, logx.Logger{})
	s.Go("watcher", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	cancel()
	if err := s.Wait(waitCtx(t)); err != nil {
		t.Fatalf("Wait() = %v, want nil", err)
	}
}

func TestFirstErrorWins(t *testing.T) {
	t.Parallel()
	first := errors.New("first")
	s := New(context.Background(), logx.Nop())
	s.Go("a", func(context.Context) error { return first })

	if err := s.Wait(waitCtx(t)); !errors.Is(err, first) {
		t.Fatalf("Wait() = %v, want wrapped %v", err, first)
	}
	if s.Context().Err() == nil {
		t.Fatal("failure did not cancel the context")
	}

	s.Go("b", func(context.Context) error { return errors.New("second") })
	_ = s.Wait(waitCtx(t))
	if !errors.Is(s.Err(), first) {
		t.Fatalf("Err() = %v, want first error kept", s.Err())
	}
}

func TestWaitHonorsDeadline(t *testing.T) {
	t.Parallel()
	s := New(context.Background(), logx.Nop())
	release := make(chan struct{})
	s.Go("stuck", func(context.Context) error {
		<-release
		return nil
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait() = %v, want DeadlineExceeded", err)
	}
	if s.Running() != 1 {
		t.Fatalf("Running() = %d, want 1", s.Running())
	}
}
