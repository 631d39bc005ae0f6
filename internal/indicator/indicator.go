// Package indicator handles visual state notifications and audio cue playback.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/dictate/internal/config"
	"github.com/rbright/dictate/internal/hypr"
)

// Controller is the session-facing indicator contract.
type Controller interface {
	ShowRecording(context.Context)
	ShowTranscribing(context.Context)
	ShowProcessing(context.Context)
	ShowListening(context.Context)
	ShowError(context.Context, string)
	CueStop(context.Context)
	CueComplete(context.Context)
	CueCancel(context.Context)
	Hide(context.Context)
	FocusedMonitor() string
}

const (
	dispatchTimeout     = 400 * time.Millisecond
	stickyTimeout       = 5 * time.Minute
	defaultErrorTimeout = 1200 * time.Millisecond
)

type phase int

const (
	phaseRecording phase = iota
	phaseListening
	phaseTranscribing
	phaseProcessing
	phaseError
)

type style struct {
	icon    hypr.Icon
	timeout time.Duration
	color   string
}

// Colors are from the Catppuccin Mocha palette. Listening never times out
// because continuous sessions have no natural end.
var styles = map[phase]style{
	phaseRecording:    {icon: hypr.IconInfo, timeout: stickyTimeout, color: "rgb(89b4fa)"},
	phaseListening:    {icon: hypr.IconInfo, timeout: 0, color: "rgb(a6e3a1)"},
	phaseTranscribing: {icon: hypr.IconInfo, timeout: stickyTimeout, color: "rgb(cba6f7)"},
	phaseProcessing:   {icon: hypr.IconInfo, timeout: stickyTimeout, color: "rgb(f9e2af)"},
	phaseError:        {icon: hypr.IconError, color: "rgb(f38ba8)"},
}

// Indicator renders session state on the configured surface and plays cues.
// Display failures are logged at debug level and never reach the session.
type Indicator struct {
	enabled      bool
	surface      surface
	text         messages
	errorTimeout time.Duration
	cues         *cuePlayer
	logger       *slog.Logger

	mu             sync.Mutex
	focusedMonitor string
}

var _ Controller = (*Indicator)(nil)

// New builds an indicator for the backend named in cfg ("hypr" or "desktop").
func New(cfg config.IndicatorConfig, logger *slog.Logger) *Indicator {
	var s surface = hyprSurface{}
	if strings.EqualFold(strings.TrimSpace(cfg.Backend), "desktop") {
		s = newDesktopSurface(cfg.DesktopAppName)
	}

	errorTimeout := time.Duration(cfg.ErrorTimeoutMS) * time.Millisecond
	if errorTimeout <= 0 {
		errorTimeout = defaultErrorTimeout
	}

	return &Indicator{
		enabled:      cfg.Enable,
		surface:      s,
		text:         newMessages(cfg),
		errorTimeout: errorTimeout,
		cues:         newCuePlayer(cfg, logger),
		logger:       logger,
	}
}

func (i *Indicator) ShowRecording(ctx context.Context) {
	i.cues.play(cueStart)
	i.trackMonitor(ctx)
	i.show(ctx, phaseRecording, i.text.recording)
}

// ShowListening marks the start of a continuous session.
func (i *Indicator) ShowListening(ctx context.Context) {
	i.cues.play(cueStart)
	i.trackMonitor(ctx)
	i.show(ctx, phaseListening, i.text.listening)
}

func (i *Indicator) ShowTranscribing(ctx context.Context) {
	i.show(ctx, phaseTranscribing, i.text.transcribing)
}

func (i *Indicator) ShowProcessing(ctx context.Context) {
	i.show(ctx, phaseProcessing, i.text.processing)
}

// ShowError shows text, or the configured error text when text is empty.
func (i *Indicator) ShowError(ctx context.Context, text string) {
	if text == "" {
		text = i.text.errorText
	}
	i.show(ctx, phaseError, text)
}

func (i *Indicator) CueStop(context.Context)     { i.cues.play(cueStop) }
func (i *Indicator) CueComplete(context.Context) { i.cues.play(cueComplete) }
func (i *Indicator) CueCancel(context.Context)   { i.cues.play(cueCancel) }

func (i *Indicator) Hide(ctx context.Context) {
	if !i.enabled {
		return
	}
	i.dispatch(ctx, i.surface.dismiss)
}

// FocusedMonitor returns the monitor captured when the session began.
func (i *Indicator) FocusedMonitor() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.focusedMonitor
}

func (i *Indicator) show(ctx context.Context, p phase, text string) {
	if !i.enabled {
		return
	}
	st := styles[p]
	if p == phaseError {
		st.timeout = i.errorTimeout
	}
	i.dispatch(ctx, func(ctx context.Context) error {
		return i.surface.show(ctx, notice{style: st, text: text})
	})
}

// trackMonitor records the focused monitor once per session.
func (i *Indicator) trackMonitor(ctx context.Context) {
	if !i.enabled || i.FocusedMonitor() != "" {
		return
	}

	monitor, err := hypr.QueryFocusedMonitor(ctx)
	if err != nil {
		i.debug("indicator focused monitor query failed", err)
		return
	}

	i.mu.Lock()
	if i.focusedMonitor == "" {
		i.focusedMonitor = monitor
	}
	i.mu.Unlock()
}

func (i *Indicator) dispatch(ctx context.Context, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		i.debug("indicator dispatch failed", err)
	}
}

func (i *Indicator) debug(message string, err error) {
	if i.logger != nil && err != nil {
		i.logger.Debug(message, "error", err.Error())
	}
}
