package telegram

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	kit "hwbot/internal/transport"
	logx "hwbot/pkg/logx"
)

type Config struct {
	Token string
	// HTTPTimeout bounds a single Bot API call. Defaults to 15s.
	HTTPTimeout time.Duration
	// URL overrides the Bot API base URL (tests, self-hosted API servers).
	URL string
}

// Adapter is a send-only Telegram client.
//
// The bot is created offline: no getMe round trip happens at construction, so a
// flaky network at startup surfaces as a delivery failure instead of a crash.
type Adapter struct {
	cfg Config
	log logx.Logger
	bot *tele.Bot
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		URL:     cfg.URL,
		Token:   cfg.Token,
		Client:  &http.Client{Timeout: timeout},
		Offline: true,
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Adapter{cfg: cfg, log: log, bot: b}, nil
}

const telegramTextLimit = 4000

// splitTelegramText splits long messages into chunks that are safe to send to Telegram.
// It prefers newline boundaries and (best-effort) avoids splitting inside HTML tags when ParseMode is HTML.
func splitTelegramText(s string, limit int, parseMode string) []string {
	if limit <= 0 {
		limit = telegramTextLimit
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}

	out := make([]string, 0, (len(rs)+limit-1)/limit)
	start := 0
	for start < len(rs) {
		end := min(start+limit, len(rs))

		// Prefer splitting on a newline near the end of the window.
		if end < len(rs) {
			for i := end - 1; i > start; i-- {
				// Avoid extremely small chunks.
				if rs[i] == '\n' && i-start >= limit/3 {
					end = i + 1
					break
				}
			}
		}

		if strings.EqualFold(parseMode, "HTML") && end < len(rs) {
			end = backOffDanglingTag(rs, start, end)
		}

		out = append(out, strings.TrimRight(string(rs[start:end]), "\n"))

		start = end
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
	}
	return out
}

// backOffDanglingTag moves end before an unclosed '<' inside rs[start:end].
func backOffDanglingTag(rs []rune, start, end int) int {
	lastOpen, lastClose := -1, -1
	for i := start; i < end; i++ {
		switch rs[i] {
		case '<':
			lastOpen = i
		case '>':
			lastClose = i
		}
	}
	if lastOpen <= lastClose || lastOpen <= start+1 {
		return end
	}
	return lastOpen
}

// username addresses a public chat or channel by its @name.
type username string

func (u username) Recipient() string { return "@" + strings.TrimPrefix(string(u), "@") }

// recipient maps a chat target to telebot: integers are chat ids, anything
// else is treated as a username.
func recipient(to kit.ChatTarget) (tele.Recipient, error) {
	s := to.String()
	if s == "" {
		return nil, errors.New("telegram: empty chat")
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return tele.ChatID(id), nil
	}
	return username(s), nil
}

func (a *Adapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if opt == nil {
		opt = &kit.SendOptions{}
	}
	chat, err := recipient(to)
	if err != nil {
		return kit.MessageRef{}, err
	}

	var first kit.MessageRef
	for i, chunk := range splitTelegramText(text, telegramTextLimit, opt.ParseMode) {
		if err := ctx.Err(); err != nil {
			return first, err
		}

		msg, err := a.bot.Send(chat, chunk, &tele.SendOptions{
			ParseMode:             opt.ParseMode,
			DisableWebPagePreview: opt.DisablePreview,
		})
		if err != nil {
			return first, err
		}
		if i == 0 {
			first = kit.MessageRef{Chat: chat.Recipient(), MessageID: msg.ID}
		}
	}
	a.log.Trace("message sent", logx.String("chat", first.Chat), logx.Int("message_id", first.MessageID))
	return first, nil
}
