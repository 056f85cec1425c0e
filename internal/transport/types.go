package transport

import (
	"context"
	"strings"
)

// ChatTarget names the destination chat: a numeric id ("-100123456") or a
// public username ("@my_channel").
type ChatTarget struct {
	Chat string
}

func (t ChatTarget) IsZero() bool { return strings.TrimSpace(t.Chat) == "" }

func (t ChatTarget) String() string { return strings.TrimSpace(t.Chat) }

type MessageRef struct {
	Chat      string
	MessageID int
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// Sender is the outbound half of a chat adapter.
//
// The bot only ever pushes messages, so there is no update stream here.
type Sender interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
}
