package logx

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	kit "hwbot/internal/transport"
)

const (
	telegramQueueSize   = 64
	telegramSendTimeout = 10 * time.Second
	telegramMaxRunes    = 3500
)

// telegramSink is a zerolog.LevelWriter that queues records for a chat. A
// full queue, a spent rate budget or a missing chat drops the record, so
// logging never waits on the network.
type telegramSink struct {
	mu      sync.Mutex
	sender  kit.Sender
	to      kit.ChatTarget
	min     zerolog.Level
	limiter *rate.Limiter

	queue    chan string
	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

func newTelegramSink(sender kit.Sender) *telegramSink {
	ctx, cancel := context.WithCancel(context.Background())
	t := &telegramSink{
		sender: sender,
		min:    zerolog.ErrorLevel,
		queue:  make(chan string, telegramQueueSize),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go t.run(ctx)
	return t
}

func (t *telegramSink) setSender(s kit.Sender) {
	t.mu.Lock()
	t.sender = s
	t.mu.Unlock()
}

func (t *telegramSink) configure(cfg TelegramConfig) {
	rps := max(1, cfg.RatePerSec)
	t.mu.Lock()
	t.to = kit.ChatTarget{Chat: cfg.Chat}
	t.min = parseLevel(cfg.MinLevel, zerolog.ErrorLevel)
	t.limiter = rate.NewLimiter(rate.Limit(rps), rps)
	t.mu.Unlock()
}

func (t *telegramSink) Write(p []byte) (int, error) {
	return t.WriteLevel(zerolog.NoLevel, p)
}

func (t *telegramSink) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	t.mu.Lock()
	ok := level >= t.min && !t.to.IsZero() && t.limiter != nil && t.limiter.Allow()
	t.mu.Unlock()
	if !ok {
		return len(p), nil
	}
	select {
	case t.queue <- renderRecord(p):
	default:
	}
	return len(p), nil
}

func (t *telegramSink) run(ctx context.Context) {
	defer close(t.done)
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-t.queue:
			t.mu.Lock()
			sender, to := t.sender, t.to
			t.mu.Unlock()
			if sender == nil || to.IsZero() {
				continue
			}
			sctx, cancel := context.WithTimeout(ctx, telegramSendTimeout)
			_, _ = sender.SendText(sctx, to, text, &kit.SendOptions{DisablePreview: true})
			cancel()
		}
	}
}

func (t *telegramSink) stop() {
	t.stopOnce.Do(func() {
		t.cancel()
		<-t.done
	})
}

// renderRecord turns a zerolog JSON line into "LEVEL message" followed by
// sorted "key: value" lines. time and caller are left out.
func renderRecord(p []byte) string {
	var rec map[string]any
	if err := json.Unmarshal(p, &rec); err != nil {
		return clip(strings.TrimSpace(string(p)))
	}

	var b strings.Builder
	if lvl, _ := rec[zerolog.LevelFieldName].(string); lvl != "" {
		if lvl == zerolog.LevelFatalValue {
			lvl = "critical"
		}
		b.WriteString(strings.ToUpper(lvl))
		b.WriteByte(' ')
	}
	msg, _ := rec[zerolog.MessageFieldName].(string)
	b.WriteString(msg)

	keys := make([]string, 0, len(rec))
	for k := range rec {
		switch k {
		case zerolog.LevelFieldName, zerolog.MessageFieldName, zerolog.TimestampFieldName, "caller":
		default:
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n%s: %v", k, rec[k])
	}
	return clip(b.String())
}

func clip(s string) string {
	rs := []rune(s)
	if len(rs) <= telegramMaxRunes {
		return s
	}
	return string(rs[:telegramMaxRunes-1]) + "…"
}
