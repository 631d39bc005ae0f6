// Package output delivers processed text to the focused application.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rbright/dictate/internal/config"
)

const (
	clipboardTimeout    = 2 * time.Second
	pasteCmdTimeout     = 2 * time.Second
	defaultPasteTimeout = 1200 * time.Millisecond
	typeTimeout         = 10 * time.Second
)

// Deliverer applies output side effects for one typing method.
type Deliverer struct {
	config config.Config
	logger *slog.Logger
}

// NewDeliverer constructs a deliverer from runtime config.
func NewDeliverer(cfg config.Config, logger *slog.Logger) *Deliverer {
	return &Deliverer{config: cfg, logger: logger}
}

// Deliver sends text using method ("clipboard" or "type"; empty selects the
// configured method) and returns the exact text delivered.
func (d *Deliverer) Deliver(ctx context.Context, text string, method string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	text = d.format(text)

	if method == "" {
		method = d.config.Typing.Method
	}
	switch method {
	case config.TypingType:
		return text, d.typeText(ctx, text)
	case config.TypingClipboard, "":
		return text, d.clipboardPaste(ctx, text)
	default:
		return "", fmt.Errorf("unknown typing method %q", method)
	}
}

// format applies output options such as the trailing separator space.
func (d *Deliverer) format(text string) string {
	if !d.config.Output.TrailingSpace {
		return text
	}
	if strings.HasSuffix(text, " ") || strings.HasSuffix(text, "\n") {
		return text
	}
	return text + " "
}

// typeText feeds text to the configured typing command on stdin.
func (d *Deliverer) typeText(ctx context.Context, text string) error {
	typeCtx, cancel := context.WithTimeout(ctx, typeTimeout)
	defer cancel()
	if err := runCommandWithInput(typeCtx, d.config.Typing.TypeCmd.Argv, text); err != nil {
		return fmt.Errorf("type text: %w", err)
	}
	return nil
}

// clipboardPaste writes text to the clipboard and optionally dispatches paste.
// Paste failures leave the clipboard set and are only logged.
func (d *Deliverer) clipboardPaste(ctx context.Context, text string) error {
	clipboardCtx, clipboardCancel := context.WithTimeout(ctx, clipboardTimeout)
	defer clipboardCancel()
	if err := setClipboard(clipboardCtx, d.config.Clipboard.Argv, text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}

	if !d.config.Paste.Enable {
		return nil
	}

	if len(d.config.PasteCmd.Argv) > 0 {
		pasteCtx, pasteCancel := context.WithTimeout(ctx, pasteCmdTimeout)
		defer pasteCancel()
		if err := runCommandWithInput(pasteCtx, d.config.PasteCmd.Argv, ""); err != nil {
			d.logPasteFailure(err)
		}
		return nil
	}

	pasteCtx, pasteCancel := context.WithTimeout(ctx, defaultPasteTimeout)
	defer pasteCancel()
	if err := defaultPaste(pasteCtx, d.config.Paste.Shortcut); err != nil {
		d.logPasteFailure(err)
	}
	return nil
}

// logPasteFailure records paste errors while preserving clipboard success semantics.
func (d *Deliverer) logPasteFailure(err error) {
	if d.logger == nil || err == nil {
		return
	}
	d.logger.Error("paste dispatch failed; clipboard remains set", "error", err.Error())
}
