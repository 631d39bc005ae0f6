package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/rbright/dictate/internal/audio"
	"github.com/rbright/dictate/internal/cli"
	"github.com/rbright/dictate/internal/config"
	"github.com/rbright/dictate/internal/continuous"
	"github.com/rbright/dictate/internal/dictation"
	"github.com/rbright/dictate/internal/history"
	"github.com/rbright/dictate/internal/indicator"
	"github.com/rbright/dictate/internal/ipc"
	"github.com/rbright/dictate/internal/metrics"
	"github.com/rbright/dictate/internal/output"
	"github.com/rbright/dictate/internal/session"
	"github.com/rbright/dictate/internal/transcribe"
)

func (r Runner) commandToggle(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return exitFailure
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.CommandToggle)
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return exitFailure
		}
		if resp.Message != "" {
			fmt.Fprintln(r.Stdout, resp.Message)
		}
		return exitOK
	}

	listener, err := ipc.DefaultAcquirer(logger).Acquire(ctx, socketPath)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			resp, _, forwardErr := tryForward(ctx, socketPath, ipc.CommandToggle)
			if forwardErr != nil {
				fmt.Fprintf(r.Stderr, "error: %v\n", forwardErr)
				return exitFailure
			}
			if resp.Message != "" {
				fmt.Fprintln(r.Stdout, resp.Message)
			}
			return exitOK
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return exitFailure
	}
	defer releaseSocket(listener, socketPath)

	transcriber := dictation.NewTranscriber(cfg, logger, newRecorder(cfg, logger), transcribe.NewClient(cfg.Transcriber, logger))
	processor := newProcessor(cfg, logger, dictation.ModeToggle, nil)
	indicatorCtl := indicator.New(cfg.Indicator, logger)
	controller := session.NewController(logger, transcriber, processor, indicatorCtl)

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, controller)
	}()

	result := controller.Run(ctx)
	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return exitFailure
	}

	logSessionResult(logger, result)

	if result.Cancelled {
		fmt.Fprintln(r.Stdout, "cancelled")
		return exitOK
	}
	if result.Err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", result.Err)
		return exitFailure
	}
	if text := strings.TrimSpace(result.Text); text != "" {
		fmt.Fprintln(r.Stdout, text)
	}

	return exitOK
}

func (r Runner) commandContinuous(ctx context.Context, cfg config.Config, opts cli.ContinuousOptions, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return exitFailure
	}

	listener, err := ipc.DefaultAcquirer(logger).Acquire(ctx, socketPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return exitFailure
	}
	defer releaseSocket(listener, socketPath)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var m *metrics.Metrics
	addr := strings.TrimSpace(opts.MetricsAddr)
	if addr == "" {
		addr = strings.TrimSpace(cfg.Continuous.MetricsAddr)
	}
	if addr != "" {
		m = metrics.New()
		go func() {
			if err := m.Serve(runCtx, addr, logger); err != nil {
				logger.Error("metrics endpoint failed", "addr", addr, "error", err.Error())
			}
		}()
	}

	recorder := newRecorder(cfg, logger)
	source := func(ctx context.Context) (continuous.Capture, error) {
		recording, err := recorder.Record(ctx, audio.CaptureOptions{})
		if err != nil {
			return nil, err
		}
		return recording, nil
	}

	loop := continuous.New(cfg, source, transcribe.NewClient(cfg.Transcriber, logger), newProcessor(cfg, logger, dictation.ModeContinuous, m), continuous.Options{
		Logger:   logger,
		Metrics:  m,
		Notifier: indicator.New(cfg.Indicator, logger),
	})

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(runCtx, listener, loop)
	}()

	fmt.Fprintln(r.Stderr, "Continuous dictation started. Pause to commit a segment; run `dictate stop` or press Ctrl+C to finish.")
	summary, runErr := loop.Run(runCtx)
	cancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return exitFailure
	}

	fmt.Fprintf(r.Stdout, "delivered %d of %d segment(s), %d failed, %d silent\n",
		summary.Delivered, summary.Segments, summary.Failed, summary.Dropped)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		fmt.Fprintf(r.Stderr, "error: %v\n", runErr)
		return exitFailure
	}
	return exitOK
}

func newRecorder(cfg config.Config, logger *slog.Logger) dictation.PulseRecorder {
	return dictation.PulseRecorder{
		Input:    cfg.Audio.Input,
		Fallback: cfg.Audio.Fallback,
		Logger:   logger,
	}
}

// newProcessor wires delivery, history, and window lookup for one mode.
func newProcessor(cfg config.Config, logger *slog.Logger, mode string, m *metrics.Metrics) *dictation.Processor {
	opts := dictation.ProcessorOptions{
		Logger:   logger,
		Window:   dictation.HyprWindowClass,
		Observer: m.StepObserver(),
		Mode:     mode,
	}
	if cfg.History.Enabled {
		opts.History = history.NewStore(cfg.History.Path, cfg.History.MaxEntries)
	}
	return dictation.NewProcessor(cfg, output.NewDeliverer(cfg, logger), opts)
}

func releaseSocket(listener net.Listener, socketPath string) {
	_ = listener.Close()
	_ = os.Remove(socketPath)
}

func logSessionResult(logger *slog.Logger, result session.Result) {
	if logger == nil {
		return
	}
	fields := []any{
		"state", result.State,
		"cancelled", result.Cancelled,
		"started_at", result.StartedAt.Format(time.RFC3339Nano),
		"finished_at", result.FinishedAt.Format(time.RFC3339Nano),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
		"audio_device", result.AudioDevice,
		"bytes_captured", result.BytesCaptured,
		"audio_ms", result.AudioDuration.Milliseconds(),
		"model", result.Model,
		"transcript_length", len(result.Transcript),
		"delivered_length", len(result.Text),
		"transcribe_latency_ms", result.TranscribeLatency.Milliseconds(),
		"focused_monitor", result.FocusedMonitor,
	}

	if result.Err != nil {
		logger.Error("session failed", append(fields, "error", result.Err.Error())...)
		return
	}
	logger.Info("session complete", fields...)
}
