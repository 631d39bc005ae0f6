// Package dictation wires capture, transcription, post-processing, and
// delivery into the session and continuous-mode collaborators.
package dictation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rbright/dictate/internal/audio"
	"github.com/rbright/dictate/internal/config"
	"github.com/rbright/dictate/internal/session"
	"github.com/rbright/dictate/internal/transcribe"
)

// minAudioBytes is the smallest capture worth sending for transcription.
const minAudioBytes = 1000

// SpeechToText turns a WAV file into text.
type SpeechToText interface {
	TranscribeFile(ctx context.Context, path string, prompt string) (transcribe.Result, error)
}

// Transcriber owns one capture -> WAV -> transcription pass per session.
type Transcriber struct {
	cfg      config.Config
	logger   *slog.Logger
	recorder Recorder
	stt      SpeechToText
	prompt   string

	mu        sync.Mutex
	started   bool
	recording Recording
	drained   chan struct{}
}

// NewTranscriber constructs a session transcriber from runtime config.
func NewTranscriber(cfg config.Config, logger *slog.Logger, recorder Recorder, stt SpeechToText) *Transcriber {
	t := &Transcriber{cfg: cfg, logger: logger, recorder: recorder, stt: stt}
	phrases, _, err := config.BuildVocabPhrases(cfg)
	if err != nil {
		t.logWarn(fmt.Sprintf("vocabulary hints disabled: %v", err))
	} else {
		t.prompt = transcribe.VocabPrompt(phrases)
	}
	return t
}

// Start opens a capture stream that retains PCM until stop.
func (t *Transcriber) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return fmt.Errorf("transcriber already started")
	}
	if t.recorder == nil || t.stt == nil {
		return session.ErrPipelineUnavailable
	}

	recording, err := t.recorder.Record(ctx, audio.CaptureOptions{RetainPCM: true})
	if err != nil {
		return err
	}

	t.recording = recording
	t.drained = make(chan struct{})
	t.started = true
	go drain(recording.Chunks(), t.drained)
	return nil
}

// StopAndTranscribe stops capture and transcribes everything recorded.
// Captures shorter than minAudioBytes yield an empty transcript.
func (t *Transcriber) StopAndTranscribe(ctx context.Context) (session.StopResult, error) {
	recording, drained, ok := t.takeRecording()
	if !ok {
		return session.StopResult{}, session.ErrPipelineUnavailable
	}

	_ = recording.Stop()
	<-drained

	pcm := recording.RawPCM()
	t.writeDebugAudio(pcm)

	result := session.StopResult{
		AudioDevice:   recording.DeviceName(),
		BytesCaptured: recording.BytesCaptured(),
		Model:         t.cfg.Transcriber.Model,
		AudioDuration: audio.PCMDuration(len(pcm)),
	}
	if len(pcm) < minAudioBytes {
		t.logDebug("capture too short to transcribe", "bytes", len(pcm))
		return result, nil
	}

	wavPath, err := audio.WriteTempWAV("", pcm)
	if err != nil {
		return result, err
	}
	defer os.Remove(wavPath)

	transcribed, err := t.stt.TranscribeFile(ctx, wavPath, t.prompt)
	if err != nil {
		return result, fmt.Errorf("transcribe audio: %w", err)
	}

	result.Transcript = transcribed.Text
	result.TranscribeLatency = transcribed.Latency
	if transcribed.Model != "" {
		result.Model = transcribed.Model
	}
	return result, nil
}

// Cancel stops capture immediately and discards the audio.
func (t *Transcriber) Cancel(_ context.Context) error {
	recording, drained, ok := t.takeRecording()
	if !ok {
		return nil
	}
	_ = recording.Stop()
	<-drained
	t.writeDebugAudio(recording.RawPCM())
	return nil
}

// takeRecording detaches the active recording so the transcriber can start again.
func (t *Transcriber) takeRecording() (Recording, chan struct{}, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.started || t.recording == nil {
		return nil, nil, false
	}
	recording, drained := t.recording, t.drained
	t.recording, t.drained, t.started = nil, nil, false
	return recording, drained, true
}

// drain consumes chunks until capture closes the channel.
func drain(chunks <-chan []byte, done chan<- struct{}) {
	defer close(done)
	for range chunks {
	}
}

func (t *Transcriber) logWarn(message string) {
	if t.logger == nil {
		return
	}
	t.logger.Warn(message)
}

func (t *Transcriber) logDebug(message string, args ...any) {
	if t.logger == nil {
		return
	}
	t.logger.Debug(message, args...)
}

// writeDebugAudio writes raw PCM to a WAV file when debug.audio_dump is enabled.
func (t *Transcriber) writeDebugAudio(rawPCM []byte) {
	if !t.cfg.Debug.EnableAudioDump || len(rawPCM) == 0 {
		return
	}

	path, err := debugPath("audio", "wav")
	if err != nil {
		t.logWarn(fmt.Sprintf("unable to create debug audio dump: %v", err))
		return
	}
	if err := audio.WriteWAVFile(path, rawPCM); err != nil {
		t.logWarn(fmt.Sprintf("unable to write debug audio dump: %v", err))
	}
}

// debugPath returns a timestamped artifact path under state/dictate/debug.
func debugPath(prefix string, extension string) (string, error) {
	stateDir, err := resolveStateDir()
	if err != nil {
		return "", err
	}
	debugDir := filepath.Join(stateDir, "dictate", "debug")
	if err := os.MkdirAll(debugDir, 0o700); err != nil {
		return "", fmt.Errorf("create debug dir: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405.000")
	return filepath.Join(debugDir, fmt.Sprintf("%s-%s.%s", prefix, timestamp, extension)), nil
}

// resolveStateDir returns XDG_STATE_HOME or its ~/.local/state fallback.
func resolveStateDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for state: %w", err)
	}
	return filepath.Join(home, ".local", "state"), nil
}
