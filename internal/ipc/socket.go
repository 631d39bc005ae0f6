package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// SocketName is the session socket file inside XDG_RUNTIME_DIR.
const SocketName = "dictate.sock"

// ErrAlreadyRunning means another process owns the session socket and answers on it.
var ErrAlreadyRunning = errors.New("dictate session already running")

func RuntimeSocketPath() (string, error) {
	runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if runtimeDir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(runtimeDir, SocketName), nil
}

// Acquirer claims the session socket for a new owner.
type Acquirer struct {
	ProbeTimeout time.Duration
	Retries      int
	Logger       *slog.Logger
}

// DefaultAcquirer is tuned for a CLI invocation racing a previous owner that
// may still be shutting down.
func DefaultAcquirer(logger *slog.Logger) Acquirer {
	return Acquirer{ProbeTimeout: 180 * time.Millisecond, Retries: 8, Logger: logger}
}

// Acquire listens on path. When the address is taken it probes the current
// holder: a live owner yields ErrAlreadyRunning, an unreachable one is
// treated as a stale file and removed before retrying.
func (a Acquirer) Acquire(ctx context.Context, path string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure runtime socket dir: %w", err)
	}

	for attempt := 0; ; attempt++ {
		listener, err := net.Listen("unix", path)
		if err == nil {
			_ = os.Chmod(path, 0o600)
			return listener, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("listen unix %s: %w", path, err)
		}

		alive, probeErr := Probe(ctx, path, a.ProbeTimeout)
		if probeErr != nil {
			return nil, fmt.Errorf("probe existing socket %s: %w", path, probeErr)
		}
		if alive {
			return nil, ErrAlreadyRunning
		}

		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale socket %s: %w", path, err)
		}
		if a.Logger != nil {
			a.Logger.Warn("removed stale session socket", "path", path, "attempt", attempt)
		}

		if attempt >= a.Retries {
			return nil, fmt.Errorf("failed to acquire socket %s after %d retries", path, a.Retries)
		}
		backoff := time.Duration(25*(attempt+1)) * time.Millisecond
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
