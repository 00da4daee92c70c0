package watcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"time"
)

// notifyTimeout bounds a single desktop notification.
const notifyTimeout = 5 * time.Second

// Notify shows alert as a desktop notification (osascript on macOS,
// notify-send elsewhere) and falls back to a line on stderr when no
// notifier is available or it fails.
func Notify(ctx context.Context, alert Alert) error {
	name, args := notifyCommand(runtime.GOOS, alert)
	if name == "" {
		return notifyFallback(os.Stderr, alert)
	}
	if _, err := exec.LookPath(name); err != nil {
		return notifyFallback(os.Stderr, alert)
	}

	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	if err := exec.CommandContext(ctx, name, args...).Run(); err != nil {
		return notifyFallback(os.Stderr, alert)
	}
	return nil
}

// notifyCommand returns the notifier invocation for goos, or "" when the
// platform has none.
func notifyCommand(goos string, alert Alert) (string, []string) {
	switch goos {
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title "repohealth" subtitle %q`, alert.Message, alert.Title)
		return "osascript", []string{"-e", script}
	case "linux", "freebsd", "openbsd", "netbsd":
		return "notify-send", []string{"--app-name=repohealth", "--urgency=" + urgency(alert.Level), "repohealth: " + alert.Title, alert.Message}
	default:
		return "", nil
	}
}

// urgency maps an alert level to a notify-send urgency.
func urgency(level string) string {
	switch level {
	case "critical":
		return "critical"
	case "warning":
		return "normal"
	default:
		return "low"
	}
}

func notifyFallback(w io.Writer, alert Alert) error {
	_, err := fmt.Fprintf(w, "[%s] %s: %s\n", alert.Level, alert.Title, alert.Message)
	return err
}
