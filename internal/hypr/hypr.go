// Package hypr wraps the hyprctl commands dictate uses for focus lookup,
// paste dispatch, and notifications.
package hypr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// SignatureEnv is set by Hyprland for every client process in the session.
const SignatureEnv = "HYPRLAND_INSTANCE_SIGNATURE"

// Available reports whether the current process runs inside a Hyprland session.
func Available() bool {
	return strings.TrimSpace(os.Getenv(SignatureEnv)) != ""
}

// Icon selects the glyph hyprctl notify draws next to the text.
type Icon int

const (
	IconNone    Icon = -1
	IconWarning Icon = 0
	IconInfo    Icon = 1
	IconHint    Icon = 2
	IconError   Icon = 3
	IconOK      Icon = 5
)

const defaultNotifyColor = "rgb(89b4fa)"

// Notification is one `hyprctl dispatch notify` call.
type Notification struct {
	Icon    Icon
	Timeout time.Duration
	Color   string
	Text    string
}

func (n Notification) args() []string {
	color := strings.TrimSpace(n.Color)
	if color == "" {
		color = defaultNotifyColor
	}
	return []string{
		"--quiet", "dispatch", "notify",
		strconv.Itoa(int(n.Icon)),
		strconv.FormatInt(n.Timeout.Milliseconds(), 10),
		color,
		n.Text,
	}
}

// Notify shows n on the focused monitor.
func Notify(ctx context.Context, n Notification) error {
	return runHyprctl(ctx, n.args()...)
}

// DismissNotify dismisses active Hyprland notifications.
func DismissNotify(ctx context.Context) error {
	return runHyprctl(ctx, "--quiet", "dispatch", "dismissnotify")
}

func runHyprctl(ctx context.Context, args ...string) error {
	_, err := runHyprctlOutput(ctx, args...)
	return err
}

func runHyprctlOutput(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "hyprctl", args...).CombinedOutput()
	if err == nil {
		return out, nil
	}
	if detail := strings.TrimSpace(string(out)); detail != "" {
		return nil, fmt.Errorf("hyprctl %s failed: %w (%s)", strings.Join(args, " "), err, detail)
	}
	return nil, fmt.Errorf("hyprctl %s failed: %w", strings.Join(args, " "), err)
}
