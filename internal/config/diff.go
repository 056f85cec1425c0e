package config

import (
	"strings"

	logx "hwbot/pkg/logx"
)

// SummarizeChange returns the changed top-level sections, safe structured
// attrs for logging, and whether any changed section is only read at startup.
func SummarizeChange(oldS, newS *Settings) ([]string, []logx.Field, bool) {
	if oldS == nil {
		oldS = &Settings{}
	}
	if newS == nil {
		newS = &Settings{}
	}

	changed := make([]string, 0, 5)
	attrs := make([]logx.Field, 0, 10)
	restart := false

	if strings.TrimSpace(oldS.Endpoint) != strings.TrimSpace(newS.Endpoint) {
		changed = append(changed, "endpoint")
		attrs = append(attrs, logx.String("endpoint", newS.EndpointOrDefault()))
		restart = true
	}
	if strings.TrimSpace(oldS.PollInterval) != strings.TrimSpace(newS.PollInterval) ||
		strings.TrimSpace(oldS.Timezone) != strings.TrimSpace(newS.Timezone) {
		changed = append(changed, "schedule")
		attrs = append(attrs,
			logx.String("poll_interval", strings.TrimSpace(newS.PollInterval)),
			logx.String("timezone", strings.TrimSpace(newS.Timezone)),
		)
		restart = true
	}
	if strings.TrimSpace(oldS.RequestTimeout) != strings.TrimSpace(newS.RequestTimeout) {
		changed = append(changed, "request_timeout")
		attrs = append(attrs, logx.String("request_timeout", strings.TrimSpace(newS.RequestTimeout)))
		restart = true
	}

	oldL, newL := oldS.Logging.LogConfig(), newS.Logging.LogConfig()
	if oldL != newL {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newL.Level),
			logx.Bool("logx.console", newL.Console),
			logx.Bool("logx.file_enabled", newL.File.Enabled),
			logx.Bool("logx.telegram_enabled", newL.Telegram.Enabled),
		)
	}
	return changed, attrs, restart
}
