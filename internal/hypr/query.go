package hypr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ActiveWindow is the subset of `hyprctl -j activewindow` used for paste
// targeting and profile matching.
type ActiveWindow struct {
	Address      string `json:"address"`
	Class        string `json:"class"`
	InitialClass string `json:"initialClass"`
}

// WindowClass returns the class used for profile matching: the current class,
// falling back to the initial class when the client clears it.
func (w ActiveWindow) WindowClass() string {
	if w.Class != "" {
		return w.Class
	}
	return w.InitialClass
}

type monitor struct {
	Name    string `json:"name"`
	Focused bool   `json:"focused"`
}

func queryJSON[T any](ctx context.Context, target string) (T, error) {
	var out T
	raw, err := runHyprctlOutput(ctx, "-j", target)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode hyprctl %s json: %w", target, err)
	}
	return out, nil
}

// QueryActiveWindow returns the focused client. A window without an address
// (empty workspace, layer surface) is an error.
func QueryActiveWindow(ctx context.Context) (ActiveWindow, error) {
	window, err := queryJSON[ActiveWindow](ctx, "activewindow")
	if err != nil {
		return ActiveWindow{}, err
	}
	window.Address = strings.TrimSpace(window.Address)
	window.Class = strings.TrimSpace(window.Class)
	window.InitialClass = strings.TrimSpace(window.InitialClass)
	if window.Address == "" {
		return ActiveWindow{}, errors.New("hyprctl activewindow returned empty address")
	}
	return window, nil
}

// WaitActiveWindow polls QueryActiveWindow up to attempts times. Focus can
// briefly be unset right after a notification or clipboard owner changes.
func WaitActiveWindow(ctx context.Context, attempts int, delay time.Duration) (ActiveWindow, error) {
	attempts = max(attempts, 1)

	var lastErr error
	for i := range attempts {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ActiveWindow{}, ctx.Err()
			case <-time.After(delay):
			}
		}
		window, err := QueryActiveWindow(ctx)
		if err == nil {
			return window, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ActiveWindow{}, ctxErr
		}
		lastErr = err
	}
	return ActiveWindow{}, fmt.Errorf("resolve active window: %w", lastErr)
}

// QueryFocusedMonitor returns the focused monitor name, or the first monitor
// when none reports focus.
func QueryFocusedMonitor(ctx context.Context) (string, error) {
	monitors, err := queryJSON[[]monitor](ctx, "monitors")
	if err != nil {
		return "", err
	}
	if len(monitors) == 0 {
		return "", errors.New("hyprctl monitors returned no outputs")
	}
	for _, mon := range monitors {
		if mon.Focused {
			return strings.TrimSpace(mon.Name), nil
		}
	}
	return strings.TrimSpace(monitors[0].Name), nil
}

// ShortcutPayload renders a sendshortcut argument aimed at one window, e.g.
// "CTRL,V,address:0xabc".
func ShortcutPayload(keys string, windowAddress string) (string, error) {
	keys = strings.TrimSpace(keys)
	if keys == "" {
		return "", errors.New("paste shortcut cannot be empty")
	}
	address := strings.TrimSpace(windowAddress)
	if address == "" {
		return "", errors.New("window address is required")
	}
	return keys + ",address:" + address, nil
}

// SendShortcut presses keys in the window at windowAddress.
func SendShortcut(ctx context.Context, keys string, windowAddress string) error {
	payload, err := ShortcutPayload(keys, windowAddress)
	if err != nil {
		return err
	}
	return runHyprctl(ctx, "--quiet", "dispatch", "sendshortcut", payload)
}
