package indicator

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/rbright/dictate/internal/hypr"
)

type notice struct {
	style
	text string
}

// surface is where notices are drawn.
type surface interface {
	show(context.Context, notice) error
	dismiss(context.Context) error
}

type hyprSurface struct{}

func (hyprSurface) show(ctx context.Context, n notice) error {
	return hypr.Notify(ctx, hypr.Notification{
		Icon:    n.icon,
		Timeout: n.timeout,
		Color:   n.color,
		Text:    n.text,
	})
}

func (hyprSurface) dismiss(ctx context.Context) error {
	return hypr.DismissNotify(ctx)
}

const (
	notificationsService = "org.freedesktop.Notifications"
	notificationsPath    = "/org/freedesktop/Notifications"
)

// desktopSurface posts freedesktop notifications through busctl. Each
// notice replaces the previous one so state changes update a single bubble.
type desktopSurface struct {
	appName string

	mu sync.Mutex
	id uint32
}

func newDesktopSurface(appName string) *desktopSurface {
	appName = strings.TrimSpace(appName)
	if appName == "" {
		appName = "dictate-indicator"
	}
	return &desktopSurface{appName: appName}
}

func (d *desktopSurface) show(ctx context.Context, n notice) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Notify(app_name, replaces_id, app_icon, summary, body, actions, hints, expire_timeout)
	out, err := busctl(ctx, "Notify", "susssasa{sv}i",
		d.appName,
		strconv.FormatUint(uint64(d.id), 10),
		"",
		n.text,
		"",
		"0",
		"0",
		strconv.FormatInt(n.timeout.Milliseconds(), 10),
	)
	if err != nil {
		return err
	}
	id, err := parseNotificationID(out)
	if err != nil {
		return err
	}
	d.id = id
	return nil
}

func (d *desktopSurface) dismiss(ctx context.Context) error {
	d.mu.Lock()
	id := d.id
	d.id = 0
	d.mu.Unlock()

	if id == 0 {
		return nil
	}
	_, err := busctl(ctx, "CloseNotification", "u", strconv.FormatUint(uint64(id), 10))
	return err
}

func busctl(ctx context.Context, method string, args ...string) ([]byte, error) {
	argv := append([]string{"--user", "call", notificationsService, notificationsPath, notificationsService, method}, args...)
	out, err := exec.CommandContext(ctx, "busctl", argv...).CombinedOutput()
	if err != nil {
		if detail := strings.TrimSpace(string(out)); detail != "" {
			return nil, fmt.Errorf("busctl %s: %w (%s)", method, err, detail)
		}
		return nil, fmt.Errorf("busctl %s: %w", method, err)
	}
	return out, nil
}

// parseNotificationID reads busctl's "u 42" reply.
func parseNotificationID(out []byte) (uint32, error) {
	fields := strings.Fields(string(out))
	if len(fields) != 2 || fields[0] != "u" {
		return 0, errors.New("unexpected Notify reply: " + strconv.Quote(strings.TrimSpace(string(out))))
	}
	id, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse notification id %q: %w", fields[1], err)
	}
	return uint32(id), nil
}
