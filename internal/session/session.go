// Package session coordinates dictation lifecycle state, actions, and commit flow.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/dictate/internal/fsm"
	"github.com/rbright/dictate/internal/ipc"
)

// hideTimeout bounds the indicator teardown after a session ends.
const hideTimeout = 800 * time.Millisecond

type action int

const (
	actionStop action = iota + 1
	actionCancel
)

// Result is the complete lifecycle output returned by one Run invocation.
type Result struct {
	State             fsm.State
	Transcript        string
	Text              string
	Cancelled         bool
	Err               error
	AudioDevice       string
	BytesCaptured     int64
	Model             string
	AudioDuration     time.Duration
	TranscribeLatency time.Duration
	StartedAt         time.Time
	FinishedAt        time.Time
	FocusedMonitor    string
}

// Indicator is the session-facing subset of indicator behavior.
type Indicator interface {
	ShowRecording(context.Context)
	ShowTranscribing(context.Context)
	ShowProcessing(context.Context)
	ShowError(context.Context, string)
	CueStop(context.Context)
	CueComplete(context.Context)
	CueCancel(context.Context)
	Hide(context.Context)
	FocusedMonitor() string
}

// noopIndicator preserves session flow when no indicator is wired.
type noopIndicator struct{}

func (noopIndicator) ShowRecording(context.Context)     {}
func (noopIndicator) ShowTranscribing(context.Context)  {}
func (noopIndicator) ShowProcessing(context.Context)    {}
func (noopIndicator) ShowError(context.Context, string) {}
func (noopIndicator) CueStop(context.Context)           {}
func (noopIndicator) CueComplete(context.Context)       {}
func (noopIndicator) CueCancel(context.Context)         {}
func (noopIndicator) Hide(context.Context)              {}
func (noopIndicator) FocusedMonitor() string            { return "" }

// Controller orchestrates session state transitions and side effects.
type Controller struct {
	logger     *slog.Logger
	transcribe Transcriber
	commit     Committer
	indicator  Indicator

	mu    sync.RWMutex
	state fsm.State

	actions chan action
}

// NewController constructs a session controller with safe default fallbacks.
func NewController(
	logger *slog.Logger,
	transcriber Transcriber,
	committer Committer,
	indicator Indicator,
) *Controller {
	if transcriber == nil {
		transcriber = PlaceholderTranscriber{}
	}
	if committer == nil {
		committer = CommitFunc(passthrough)
	}
	if indicator == nil {
		indicator = noopIndicator{}
	}

	return &Controller{
		logger:     logger,
		transcribe: transcriber,
		commit:     committer,
		indicator:  indicator,
		state:      fsm.StateIdle,
		actions:    make(chan action, 1),
	}
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// transition applies one FSM event to the controller state.
func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// Run drives one toggle session: it starts capture, waits for stop, cancel,
// or context cancellation, then transcribes and commits. Run always leaves
// the controller idle.
func (c *Controller) Run(ctx context.Context) Result {
	result := Result{StartedAt: time.Now()}

	if err := c.transition(fsm.EventStart); err != nil {
		result.Err = err
		return c.finish(result)
	}

	c.indicator.ShowRecording(ctx)

	if err := c.transcribe.Start(ctx); err != nil {
		return c.fail(result, "Unable to start recording", err)
	}

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), hideTimeout)
		defer cancel()
		c.indicator.Hide(cleanupCtx)
	}()

	var next action
	select {
	case <-ctx.Done():
		_ = c.transcribe.Cancel(context.WithoutCancel(ctx))
		c.indicator.CueCancel(context.WithoutCancel(ctx))
		return c.fail(result, "Cancelled", ctx.Err())
	case next = <-c.actions:
	}

	switch next {
	case actionStop:
		return c.stop(ctx, result)
	case actionCancel:
		_ = c.transcribe.Cancel(context.WithoutCancel(ctx))
		c.indicator.CueCancel(context.WithoutCancel(ctx))
		_ = c.transition(fsm.EventCancel)
		result.Cancelled = true
		return c.finish(result)
	default:
		return c.fail(result, "", fmt.Errorf("unknown action %d", next))
	}
}

// stop transcribes captured audio and hands the transcript to the committer.
func (c *Controller) stop(ctx context.Context, result Result) Result {
	if err := c.transition(fsm.EventStop); err != nil {
		return c.fail(result, "", err)
	}
	c.indicator.ShowTranscribing(ctx)

	stopResult, err := c.transcribe.StopAndTranscribe(ctx)
	c.indicator.CueStop(context.WithoutCancel(ctx))
	result = withStop(result, stopResult)
	switch {
	case err != nil:
		return c.fail(result, "Speech recognition failed", err)
	case strings.TrimSpace(stopResult.Transcript) == "":
		return c.fail(result, "No speech detected", ErrEmptyTranscript)
	}

	if err := c.transition(fsm.EventTranscribed); err != nil {
		return c.fail(result, "", err)
	}
	c.indicator.ShowProcessing(ctx)

	text, err := c.commit.Commit(ctx, stopResult)
	if err != nil {
		return c.fail(result, "Output dispatch failed", err)
	}
	result.Text = text
	c.indicator.CueComplete(context.WithoutCancel(ctx))

	if err := c.transition(fsm.EventProcessed); err != nil {
		result.Err = err
	}
	return c.finish(result)
}

// fail shows notice (when set), passes through error back to idle, and
// finishes result with err.
func (c *Controller) fail(result Result, notice string, err error) Result {
	if notice != "" {
		c.indicator.ShowError(context.Background(), notice)
	}
	if c.logger != nil {
		c.logger.Debug("session failed", "state", string(c.State()), "error", err.Error())
	}
	_ = c.transition(fsm.EventFail)
	_ = c.transition(fsm.EventReset)
	result.Err = err
	return c.finish(result)
}

func withStop(result Result, stop StopResult) Result {
	result.Transcript = stop.Transcript
	result.AudioDevice = stop.AudioDevice
	result.BytesCaptured = stop.BytesCaptured
	result.Model = stop.Model
	result.AudioDuration = stop.AudioDuration
	result.TranscribeLatency = stop.TranscribeLatency
	return result
}

// finish stamps the terminal state and completion time onto result.
func (c *Controller) finish(result Result) Result {
	result.State = c.State()
	result.FinishedAt = time.Now()
	result.FocusedMonitor = c.indicator.FocusedMonitor()
	return result
}

// Handle serves IPC commands for the active owner session.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return ipc.Response{OK: true, State: string(c.State()), Message: "status"}
	case ipc.CommandToggle:
		return c.requestStop("toggle")
	case ipc.CommandStop:
		return c.requestStop("stop")
	case ipc.CommandCancel:
		return c.requestCancel()
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

// requestStop enqueues a stop action when state permits it.
func (c *Controller) requestStop(source string) ipc.Response {
	state := c.State()
	if state.Busy() {
		return ipc.Response{OK: false, State: string(state), Error: "already " + string(state)}
	}
	if state != fsm.StateRecording {
		return ipc.Response{OK: false, State: string(state), Error: fmt.Sprintf("cannot %s from state %s", source, state)}
	}

	select {
	case c.actions <- actionStop:
		return ipc.Response{OK: true, State: string(state), Message: "stop requested"}
	default:
		return ipc.Response{OK: true, State: string(state), Message: "stop already requested"}
	}
}

// requestCancel enqueues a cancel action when state permits it.
func (c *Controller) requestCancel() ipc.Response {
	state := c.State()
	if state.Busy() {
		return ipc.Response{OK: false, State: string(state), Error: "cannot cancel while " + string(state)}
	}
	if state != fsm.StateRecording {
		return ipc.Response{OK: false, State: string(state), Error: fmt.Sprintf("cannot cancel from state %s", state)}
	}

	select {
	case c.actions <- actionCancel:
		return ipc.Response{OK: true, State: string(state), Message: "cancel requested"}
	default:
		return ipc.Response{OK: true, State: string(state), Message: "cancel already requested"}
	}
}

// IsPipelineUnavailable reports whether an error represents missing transcriber wiring.
func IsPipelineUnavailable(err error) bool {
	return errors.Is(err, ErrPipelineUnavailable)
}
