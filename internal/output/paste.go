package output

import (
	"context"
	"time"

	"github.com/rbright/dictate/internal/hypr"
)

const (
	pasteWindowAttempts = 5
	pasteWindowDelay    = 10 * time.Millisecond
)

// defaultPaste presses shortcut in the focused Hyprland window. It targets
// the window by address so a focus change mid-dispatch cannot redirect it.
func defaultPaste(ctx context.Context, shortcut string) error {
	window, err := hypr.WaitActiveWindow(ctx, pasteWindowAttempts, pasteWindowDelay)
	if err != nil {
		return err
	}
	return hypr.SendShortcut(ctx, shortcut, window.Address)
}
