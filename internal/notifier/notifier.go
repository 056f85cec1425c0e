// Package notifier delivers text messages to the configured chat.
//
// Delivery failures stop here: they are logged and reported as false, so a
// Telegram outage can never break the poll loop.
package notifier

import (
	"context"

	kit "hwbot/internal/transport"
	logx "hwbot/pkg/logx"
)

type Notifier struct {
	sender kit.Sender
	to     kit.ChatTarget
	log    logx.Logger
}

func New(sender kit.Sender, to kit.ChatTarget, log logx.Logger) *Notifier {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Notifier{sender: sender, to: to, log: log}
}

// Notify sends text and reports whether the chat accepted it.
func (n *Notifier) Notify(ctx context.Context, text string) bool {
	if _, err := n.sender.SendText(ctx, n.to, text, &kit.SendOptions{DisablePreview: true}); err != nil {
		n.log.Error("message delivery failed",
			logx.Err(err),
			logx.String("chat", n.to.String()),
			logx.Int("text_len", len(text)),
		)
		return false
	}
	n.log.Debug("message sent", logx.String("text", text))
	return true
}
