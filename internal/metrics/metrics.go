// Package metrics exposes Prometheus counters and histograms for dictation.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes recorded on dictate_dictations_total.
const (
	OutcomeDelivered = "delivered"
	OutcomeEmpty     = "empty"
	OutcomeFailed    = "failed"
)

// Segment cut reasons recorded on dictate_segments_total.
const (
	ReasonSilence = "silence"
	ReasonMaxLen  = "max_length"
	ReasonEnd     = "end"
)

// Metrics holds every dictate collector on a private registry so several
// instances can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	Dictations        *prometheus.CounterVec
	StepDuration      *prometheus.HistogramVec
	Segments          *prometheus.CounterVec
	SegmentsDropped   prometheus.Counter
	TranscribeLatency prometheus.Histogram
	AudioDuration     prometheus.Histogram
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Dictations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dictate_dictations_total",
			Help: "Dictations processed, by mode and outcome",
		}, []string{"mode", "outcome"}),
		StepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dictate_pipeline_step_duration_seconds",
			Help:    "Time spent in each post-processing step",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs to ~26s
		}, []string{"step"}),
		Segments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dictate_segments_total",
			Help: "Continuous-mode segments sent for transcription, by cut reason",
		}, []string{"reason"}),
		SegmentsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "dictate_segments_dropped_total",
			Help: "Continuous-mode segments discarded as silence",
		}),
		TranscribeLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dictate_transcribe_duration_seconds",
			Help:    "Duration of transcription requests",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}),
		AudioDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dictate_audio_duration_seconds",
			Help:    "Length of audio sent for transcription",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s to ~1 minute
		}),
	}
}

// RecordDictation counts one processed dictation. Safe on a nil receiver.
func (m *Metrics) RecordDictation(mode string, outcome string) {
	if m == nil {
		return
	}
	m.Dictations.WithLabelValues(mode, outcome).Inc()
}

// RecordStep observes one pipeline step duration.
func (m *Metrics) RecordStep(step string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.StepDuration.WithLabelValues(step).Observe(elapsed.Seconds())
}

// RecordSegment counts a voiced segment and its audio length.
func (m *Metrics) RecordSegment(reason string, audio time.Duration) {
	if m == nil {
		return
	}
	m.Segments.WithLabelValues(reason).Inc()
	m.AudioDuration.Observe(audio.Seconds())
}

// RecordDroppedSegment counts a segment discarded without transcription.
func (m *Metrics) RecordDroppedSegment() {
	if m == nil {
		return
	}
	m.SegmentsDropped.Inc()
}

// RecordTranscription observes one transcription request latency.
func (m *Metrics) RecordTranscription(latency time.Duration) {
	if m == nil {
		return
	}
	m.TranscribeLatency.Observe(latency.Seconds())
}

// StepObserver adapts RecordStep to a pipeline observer. A nil Metrics yields
// a nil observer.
func (m *Metrics) StepObserver() func(step string, elapsed time.Duration) {
	if m == nil {
		return nil
	}
	return m.RecordStep
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if logger != nil {
		logger.Info("metrics endpoint listening", "addr", addr)
	}
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
