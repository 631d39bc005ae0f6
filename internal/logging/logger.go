// Package logging writes runtime diagnostics as JSON lines under the XDG
// state directory.
package logging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	logName = "log.jsonl"

	// DefaultMaxBytes is the size at which the log is rotated on open.
	DefaultMaxBytes int64 = 5 << 20
)

type Options struct {
	// Verbose lowers the level to debug.
	Verbose bool
	// MaxBytes overrides DefaultMaxBytes. Negative disables rotation.
	MaxBytes int64
}

// Runtime owns the logger and the file behind it.
type Runtime struct {
	Logger *slog.Logger
	Path   string
	closer io.Closer
}

func (r Runtime) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Discard returns a runtime whose logger drops every record.
func Discard() Runtime {
	return Runtime{Logger: slog.New(slog.DiscardHandler)}
}

// New opens $XDG_STATE_HOME/dictate/log.jsonl for append, rotating it to
// log.jsonl.1 first when it has grown past the size limit. Every record
// carries the process id so concurrent invocations can be told apart.
func New(opts Options) (Runtime, error) {
	path, err := resolveLogPath()
	if err != nil {
		return Runtime{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return Runtime{}, fmt.Errorf("create log dir: %w", err)
	}

	limit := opts.MaxBytes
	if limit == 0 {
		limit = DefaultMaxBytes
	}
	if err := rotate(path, limit); err != nil {
		return Runtime{}, err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return Runtime{}, fmt.Errorf("open log: %w", err)
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})).
		With("pid", os.Getpid())
	return Runtime{Logger: logger, Path: path, closer: f}, nil
}

// rotate renames path to path.1 when it is at least limit bytes.
func rotate(path string, limit int64) error {
	if limit < 0 {
		return nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat log: %w", err)
	}
	if info.Size() < limit {
		return nil
	}
	if err := os.Rename(path, path+".1"); err != nil {
		return fmt.Errorf("rotate log: %w", err)
	}
	return nil
}

func resolveLogPath() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return filepath.Join(xdg, "dictate", logName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve log path: %w", err)
	}
	return filepath.Join(home, ".local", "state", "dictate", logName), nil
}
