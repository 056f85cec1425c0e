// Package systemd reports service state to the systemd manager via sd_notify.
//
// All calls are no-ops when the process is not started by systemd
// (NOTIFY_SOCKET unset), so callers never need to branch on the environment.
package systemd

import (
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Ready tells systemd that startup finished (Type=notify units).
func Ready() error {
	_, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	return err
}

// Stopping tells systemd that a graceful shutdown has begun.
func Stopping() error {
	_, err := daemon.SdNotify(false, daemon.SdNotifyStopping)
	return err
}

// Watchdog pings the service watchdog.
func Watchdog() error {
	_, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog)
	return err
}

// Status sets the free-form status line shown by `systemctl status`.
func Status(s string) error {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\n", " ")
	if s == "" {
		return nil
	}
	_, err := daemon.SdNotify(false, "STATUS="+s)
	return err
}

// WatchdogInterval returns the configured WatchdogSec, or 0 if the watchdog is off.
func WatchdogInterval() time.Duration {
	d, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		return 0
	}
	return d
}
