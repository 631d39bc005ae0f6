// Package continuous runs hands-free dictation: capture is cut into segments
// at silence boundaries and each voiced segment is transcribed and delivered.
package continuous

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/rbright/dictate/internal/audio"
	"github.com/rbright/dictate/internal/config"
	"github.com/rbright/dictate/internal/ipc"
	"github.com/rbright/dictate/internal/metrics"
	"github.com/rbright/dictate/internal/pipeline"
	"github.com/rbright/dictate/internal/transcribe"
)

// Mode is reported on the session socket while continuous dictation runs.
const Mode = "continuous"

const (
	stateListening = "listening"
	stateStopping  = "stopping"

	defaultNotifyEvery = 10 * time.Second
	segmentQueue       = 4
)

// ErrNotRunning is returned by Stop and Cancel before Run has opened capture.
var ErrNotRunning = errors.New("continuous dictation not running")

// Capture is a live PCM stream. Stop closes Chunks.
type Capture interface {
	Chunks() <-chan []byte
	Stop() error
}

// Source opens a capture stream.
type Source func(ctx context.Context) (Capture, error)

// Transcriber turns a WAV file into text.
type Transcriber interface {
	TranscribeFile(ctx context.Context, path string, prompt string) (transcribe.Result, error)
}

// Processor post-processes and delivers one transcript.
type Processor interface {
	Process(ctx context.Context, transcript string, meta pipeline.Metadata) (string, error)
}

// Notifier surfaces loop state to the user.
type Notifier interface {
	ShowListening(context.Context)
	ShowError(context.Context, string)
	Hide(context.Context)
}

// Options carries optional collaborators.
type Options struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Notifier Notifier
	// NotifyEvery bounds how often segment failures reach the notifier.
	NotifyEvery time.Duration
	// TempDir holds per-segment WAV uploads; empty means os.TempDir.
	TempDir string
}

// Summary counts what one Run did.
type Summary struct {
	Segments  int
	Delivered int
	Dropped   int
	Failed    int
}

// Loop owns one continuous dictation run.
type Loop struct {
	cfg         config.ContinuousConfig
	source      Source
	stt         Transcriber
	proc        Processor
	prompt      string
	opts        Options
	notifyLimit *rate.Limiter

	mu       sync.Mutex
	capture  Capture
	cancel   context.CancelFunc
	stopping bool
	summary  Summary
}

// New builds a loop from runtime config.
func New(cfg config.Config, source Source, stt Transcriber, proc Processor, opts Options) *Loop {
	if opts.NotifyEvery <= 0 {
		opts.NotifyEvery = defaultNotifyEvery
	}
	l := &Loop{
		cfg:         cfg.Continuous,
		source:      source,
		stt:         stt,
		proc:        proc,
		opts:        opts,
		notifyLimit: rate.NewLimiter(rate.Every(opts.NotifyEvery), 1),
	}

	phrases, _, err := config.BuildVocabPhrases(cfg)
	if err != nil {
		l.logWarn("vocabulary hints disabled", "error", err.Error())
	} else {
		l.prompt = transcribe.VocabPrompt(phrases)
	}
	return l
}

// Run captures until Stop, Cancel, or ctx cancellation. Stop transcribes the
// final partial segment before returning; Cancel and ctx cancellation discard
// it. Segment failures are logged and never end the run.
func (l *Loop) Run(ctx context.Context) (Summary, error) {
	if l.source == nil || l.stt == nil || l.proc == nil {
		return Summary{}, errors.New("continuous dictation requires capture, transcriber, and processor")
	}

	segmenter, err := NewSegmenter(l.cfg)
	if err != nil {
		return Summary{}, fmt.Errorf("configure silence detection: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	capture, err := l.source(runCtx)
	if err != nil {
		return Summary{}, fmt.Errorf("start capture: %w", err)
	}
	l.begin(capture, cancel)
	defer l.end()

	go func() {
		<-runCtx.Done()
		_ = capture.Stop()
	}()

	l.notifyListening(runCtx)
	l.logInfo("continuous dictation started",
		"silence_threshold", l.cfg.SilenceThreshold,
		"silence_duration", l.cfg.SilenceWindow().String(),
		"max_chunk", l.cfg.MaxChunk().String())

	segments := make(chan Segment, segmentQueue)
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer close(segments)
		for chunk := range capture.Chunks() {
			seg, ok := segmenter.Push(chunk)
			if !ok {
				continue
			}
			if err := l.dispatch(gctx, segments, seg); err != nil {
				return err
			}
		}
		if gctx.Err() != nil {
			return nil
		}
		if seg, ok := segmenter.Flush(); ok {
			return l.dispatch(gctx, segments, seg)
		}
		return nil
	})

	g.Go(func() error {
		for seg := range segments {
			if gctx.Err() != nil {
				continue
			}
			l.handle(gctx, seg)
		}
		return nil
	})

	err = g.Wait()
	l.hide()

	summary := l.Summary()
	l.logInfo("continuous dictation stopped",
		"segments", summary.Segments,
		"delivered", summary.Delivered,
		"dropped", summary.Dropped,
		"failed", summary.Failed)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return summary, ctxErr
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return summary, err
	}
	return summary, nil
}

// Stop ends capture; the buffered tail is still transcribed.
func (l *Loop) Stop() error {
	l.mu.Lock()
	capture := l.capture
	if capture != nil {
		l.stopping = true
	}
	l.mu.Unlock()

	if capture == nil {
		return ErrNotRunning
	}
	return capture.Stop()
}

// Cancel ends capture and abandons queued segments.
func (l *Loop) Cancel() error {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()

	if cancel == nil {
		return ErrNotRunning
	}
	cancel()
	return nil
}

// Summary returns the counters accumulated so far.
func (l *Loop) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.summary
}

// Handle serves session socket commands while the loop runs.
func (l *Loop) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		l.mu.Lock()
		running, stopping := l.capture != nil, l.stopping
		l.mu.Unlock()
		if !running {
			return ipc.Response{OK: false, Mode: Mode, Error: ErrNotRunning.Error()}
		}
		state := stateListening
		if stopping {
			state = stateStopping
		}
		return ipc.Response{OK: true, State: state, Mode: Mode}
	case ipc.CommandStop, ipc.CommandToggle:
		if err := l.Stop(); err != nil {
			return ipc.Response{OK: false, Mode: Mode, Error: err.Error()}
		}
		return ipc.Response{OK: true, State: stateStopping, Mode: Mode, Message: "continuous dictation stopping"}
	case ipc.CommandCancel:
		if err := l.Cancel(); err != nil {
			return ipc.Response{OK: false, Mode: Mode, Error: err.Error()}
		}
		return ipc.Response{OK: true, State: stateStopping, Mode: Mode, Message: "continuous dictation cancelled"}
	default:
		return ipc.Response{OK: false, Mode: Mode, Error: fmt.Sprintf("unknown command %q", req.Command)}
	}
}

func (l *Loop) begin(capture Capture, cancel context.CancelFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.capture = capture
	l.cancel = cancel
	l.stopping = false
	l.summary = Summary{}
}

func (l *Loop) end() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.capture = nil
	l.cancel = nil
}

// dispatch queues voiced segments and counts the rest as dropped.
func (l *Loop) dispatch(ctx context.Context, out chan<- Segment, seg Segment) error {
	if !seg.Transcribable() {
		l.count(func(s *Summary) { s.Dropped++ })
		l.opts.Metrics.RecordDroppedSegment()
		l.logDebug("segment dropped", "index", seg.Index, "reason", seg.Reason, "bytes", len(seg.PCM), "voiced", seg.Voiced)
		return nil
	}

	l.count(func(s *Summary) { s.Segments++ })
	l.opts.Metrics.RecordSegment(seg.Reason, seg.Duration)
	select {
	case out <- seg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// handle transcribes and delivers one segment. Failures are logged and
// surfaced through the rate-limited notifier.
func (l *Loop) handle(ctx context.Context, seg Segment) {
	text, err := l.transcribe(ctx, seg)
	if err != nil {
		l.fail(ctx, seg, err)
		return
	}
	if strings.TrimSpace(text.Text) == "" {
		l.opts.Metrics.RecordDictation(Mode, metrics.OutcomeEmpty)
		l.logDebug("segment transcribed to nothing", "index", seg.Index)
		return
	}

	delivered, err := l.proc.Process(ctx, text.Text, pipeline.Metadata{
		ModelUsed: text.Model,
		Duration:  seg.Duration,
	})
	if err != nil {
		l.fail(ctx, seg, err)
		return
	}
	if delivered == "" {
		l.opts.Metrics.RecordDictation(Mode, metrics.OutcomeEmpty)
		return
	}

	l.count(func(s *Summary) { s.Delivered++ })
	l.opts.Metrics.RecordDictation(Mode, metrics.OutcomeDelivered)
	l.logInfo("segment delivered",
		"index", seg.Index,
		"reason", seg.Reason,
		"audio_ms", seg.Duration.Milliseconds(),
		"transcribe_ms", text.Latency.Milliseconds(),
		"chars", len(delivered))
}

func (l *Loop) transcribe(ctx context.Context, seg Segment) (transcribe.Result, error) {
	path, err := audio.WriteTempWAV(l.opts.TempDir, seg.PCM)
	if err != nil {
		return transcribe.Result{}, err
	}
	defer os.Remove(path)

	result, err := l.stt.TranscribeFile(ctx, path, l.prompt)
	if err != nil {
		return transcribe.Result{}, fmt.Errorf("transcribe segment: %w", err)
	}
	l.opts.Metrics.RecordTranscription(result.Latency)
	return result, nil
}

func (l *Loop) fail(ctx context.Context, seg Segment, err error) {
	if ctx.Err() != nil {
		return
	}
	l.count(func(s *Summary) { s.Failed++ })
	l.opts.Metrics.RecordDictation(Mode, metrics.OutcomeFailed)
	l.logError("segment failed", "index", seg.Index, "error", err.Error())

	if l.opts.Notifier != nil && l.notifyLimit.Allow() {
		l.opts.Notifier.ShowError(ctx, err.Error())
	}
}

func (l *Loop) count(update func(*Summary)) {
	l.mu.Lock()
	update(&l.summary)
	l.mu.Unlock()
}

func (l *Loop) notifyListening(ctx context.Context) {
	if l.opts.Notifier != nil {
		l.opts.Notifier.ShowListening(ctx)
	}
}

func (l *Loop) hide() {
	if l.opts.Notifier != nil {
		l.opts.Notifier.Hide(context.Background())
	}
}

func (l *Loop) logInfo(message string, args ...any) {
	if l.opts.Logger != nil {
		l.opts.Logger.Info(message, args...)
	}
}

func (l *Loop) logWarn(message string, args ...any) {
	if l.opts.Logger != nil {
		l.opts.Logger.Warn(message, args...)
	}
}

func (l *Loop) logError(message string, args ...any) {
	if l.opts.Logger != nil {
		l.opts.Logger.Error(message, args...)
	}
}

func (l *Loop) logDebug(message string, args ...any) {
	if l.opts.Logger != nil {
		l.opts.Logger.Debug(message, args...)
	}
}
