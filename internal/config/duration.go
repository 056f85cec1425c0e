package config

import (
	"fmt"
	"strings"
	"time"
)

// parseDuration parses a Go duration setting. Empty or zero yields def.
func parseDuration(key, raw string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", key)
	}
	if d == 0 {
		return def, nil
	}
	return d, nil
}
