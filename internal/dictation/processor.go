package dictation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rbright/dictate/internal/config"
	"github.com/rbright/dictate/internal/history"
	"github.com/rbright/dictate/internal/hypr"
	"github.com/rbright/dictate/internal/pipeline"
	"github.com/rbright/dictate/internal/profile"
	"github.com/rbright/dictate/internal/session"
)

// Modes recorded in history entries.
const (
	ModeToggle     = "toggle"
	ModeContinuous = "continuous"
)

// Deliverer sends final text to the focused application.
type Deliverer interface {
	Deliver(ctx context.Context, text string, method string) (string, error)
}

// HistorySink records delivered dictations.
type HistorySink interface {
	Append(entry history.Entry) (history.Entry, error)
}

// WindowLookup returns the focused window class used for profile matching.
type WindowLookup func(ctx context.Context) (string, error)

// HyprWindowClass resolves the focused window class through hyprctl.
func HyprWindowClass(ctx context.Context) (string, error) {
	window, err := hypr.QueryActiveWindow(ctx)
	if err != nil {
		return "", err
	}
	return window.WindowClass(), nil
}

// ProcessorOptions carries optional collaborators.
type ProcessorOptions struct {
	Logger   *slog.Logger
	History  HistorySink
	Window   WindowLookup
	Observer pipeline.Observer
	Mode     string
}

// Processor turns a raw transcript into delivered text: profile lookup,
// post-processing pipeline, delivery, then history.
type Processor struct {
	cfg     config.Config
	deliver Deliverer
	opts    ProcessorOptions
}

// NewProcessor builds a processor for cfg.
func NewProcessor(cfg config.Config, deliver Deliverer, opts ProcessorOptions) *Processor {
	if opts.Mode == "" {
		opts.Mode = ModeToggle
	}
	return &Processor{cfg: cfg, deliver: deliver, opts: opts}
}

// Commit implements session.Committer.
func (p *Processor) Commit(ctx context.Context, stop session.StopResult) (string, error) {
	return p.Process(ctx, stop.Transcript, pipeline.Metadata{
		ModelUsed: stop.Model,
		Duration:  stop.AudioDuration,
	})
}

// Process runs one transcript through the pipeline and delivers the result.
// Text that post-processing reduces to nothing is not delivered.
func (p *Processor) Process(ctx context.Context, transcript string, meta pipeline.Metadata) (string, error) {
	if meta.WindowClass == "" {
		meta.WindowClass = p.windowClass(ctx)
	}
	overrides := profile.Resolve(p.cfg.Profiles, meta.WindowClass)
	if !overrides.Empty() {
		p.logDebug("profile matched", "window_class", meta.WindowClass, "rule", overrides.Rule)
	}

	steps := pipeline.Build(p.cfg, overrides, pipeline.Options{
		Logger:   p.opts.Logger,
		Observer: p.opts.Observer,
	})
	out := steps.Process(ctx, pipeline.NewContext(transcript, meta))
	if strings.TrimSpace(out.Text) == "" {
		p.logDebug("nothing left to deliver after processing", "original", out.Original())
		return "", nil
	}

	method := p.cfg.Typing.Method
	if overrides.TypingMethod != nil {
		method = *overrides.TypingMethod
	}
	if p.deliver == nil {
		return "", session.ErrPipelineUnavailable
	}
	delivered, err := p.deliver.Deliver(ctx, out.Text, method)
	if err != nil {
		return "", fmt.Errorf("deliver text: %w", err)
	}

	p.record(out)
	return delivered, nil
}

// windowClass looks up the focused window only when profiles can use it.
func (p *Processor) windowClass(ctx context.Context) string {
	if !p.cfg.Profiles.Enabled || p.opts.Window == nil {
		return ""
	}
	class, err := p.opts.Window(ctx)
	if err != nil {
		p.logDebug("window class lookup failed", "error", err.Error())
		return ""
	}
	return class
}

// record appends to history; failures are logged and never fail delivery.
func (p *Processor) record(out pipeline.Context) {
	if p.opts.History == nil {
		return
	}
	_, err := p.opts.History.Append(history.Entry{
		Text:        out.Text,
		Original:    out.Original(),
		Model:       out.ModelUsed,
		Duration:    out.Duration.Seconds(),
		WindowClass: out.WindowClass,
		Mode:        p.opts.Mode,
	})
	if err != nil && p.opts.Logger != nil {
		p.opts.Logger.Warn("history append failed", "error", err.Error())
	}
}

func (p *Processor) logDebug(message string, args ...any) {
	if p.opts.Logger == nil {
		return
	}
	p.opts.Logger.Debug(message, args...)
}
