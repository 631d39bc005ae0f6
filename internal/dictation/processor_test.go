package dictation

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/dictate/internal/config"
	"github.com/rbright/dictate/internal/history"
	"github.com/rbright/dictate/internal/pipeline"
	"github.com/rbright/dictate/internal/session"
)

type fakeDeliverer struct {
	text   string
	method string
	calls  int
	err    error
}

func (f *fakeDeliverer) Deliver(_ context.Context, text string, method string) (string, error) {
	f.calls++
	f.text = text
	f.method = method
	if f.err != nil {
		return "", f.err
	}
	return text + " ", nil
}

type failingHistory struct{}

func (failingHistory) Append(history.Entry) (history.Entry, error) {
	return history.Entry{}, errors.New("disk full")
}

func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }

func TestProcessorCommitRunsPipelineDeliversAndRecords(t *testing.T) {
	store := history.NewStore(filepath.Join(t.TempDir(), "history.jsonl"), 10)
	deliver := &fakeDeliverer{}
	processor := NewProcessor(config.Default(), deliver, ProcessorOptions{History: store})

	text, err := processor.Commit(context.Background(), session.StopResult{
		Transcript:    "hello comma world period",
		Model:         "base.en",
		AudioDuration: 1500 * time.Millisecond,
	})
	require.NoError(t, err)
	require.Equal(t, "Hello, world. ", text)
	require.Equal(t, "Hello, world.", deliver.text)
	require.Equal(t, config.TypingClipboard, deliver.method)

	entries, err := store.Recent(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "Hello, world.", entries[0].Text)
	require.Equal(t, "hello comma world period", entries[0].Original)
	require.Equal(t, "base.en", entries[0].Model)
	require.InDelta(t, 1.5, entries[0].Duration, 1e-9)
	require.Equal(t, ModeToggle, entries[0].Mode)
}

func TestProcessorAppliesProfileOverrides(t *testing.T) {
	cfg := config.Default()
	cfg.Profiles.Enabled = true
	cfg.Profiles.Rules = []config.ProfileRule{{
		WindowClass:    "term",
		TypingMethod:   strPtr(config.TypingType),
		AutoCapitalize: boolPtr(false),
	}}

	deliver := &fakeDeliverer{}
	processor := NewProcessor(cfg, deliver, ProcessorOptions{
		Window: func(context.Context) (string, error) { return "Gnome-Terminal", nil },
	})

	_, err := processor.Process(context.Background(), "ls dash la period", pipeline.Metadata{})
	require.NoError(t, err)
	require.Equal(t, config.TypingType, deliver.method)
	require.Equal(t, "ls — la.", deliver.text)
}

func TestProcessorSkipsWindowLookupWhenProfilesDisabled(t *testing.T) {
	called := false
	processor := NewProcessor(config.Default(), &fakeDeliverer{}, ProcessorOptions{
		Window: func(context.Context) (string, error) {
			called = true
			return "kitty", nil
		},
	})

	_, err := processor.Process(context.Background(), "hi", pipeline.Metadata{})
	require.NoError(t, err)
	require.False(t, called)
}

func TestProcessorWindowLookupFailureUsesDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Profiles.Enabled = true
	cfg.Profiles.Rules = []config.ProfileRule{{WindowClass: ".*", TypingMethod: strPtr(config.TypingType)}}

	deliver := &fakeDeliverer{}
	processor := NewProcessor(cfg, deliver, ProcessorOptions{
		Window: func(context.Context) (string, error) { return "", errors.New("no hyprland") },
	})

	_, err := processor.Process(context.Background(), "hi", pipeline.Metadata{})
	require.NoError(t, err)
	require.Equal(t, config.TypingClipboard, deliver.method)
}

func TestProcessorSkipsDeliveryWhenNothingRemains(t *testing.T) {
	deliver := &fakeDeliverer{}
	processor := NewProcessor(config.Default(), deliver, ProcessorOptions{})

	text, err := processor.Process(context.Background(), "scratch that", pipeline.Metadata{})
	require.NoError(t, err)
	require.Empty(t, text)
	require.Zero(t, deliver.calls)
}

func TestProcessorDeliveryFailure(t *testing.T) {
	store := history.NewStore(filepath.Join(t.TempDir(), "history.jsonl"), 10)
	processor := NewProcessor(config.Default(), &fakeDeliverer{err: errors.New("no clipboard")}, ProcessorOptions{History: store})

	_, err := processor.Process(context.Background(), "hello", pipeline.Metadata{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "deliver text")

	entries, err := store.Recent(0)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestProcessorHistoryFailureIsNotFatal(t *testing.T) {
	processor := NewProcessor(config.Default(), &fakeDeliverer{}, ProcessorOptions{History: failingHistory{}})

	text, err := processor.Process(context.Background(), "hello", pipeline.Metadata{})
	require.NoError(t, err)
	require.Equal(t, "Hello ", text)
}

func TestProcessorReportsStepTimingsAndMode(t *testing.T) {
	store := history.NewStore(filepath.Join(t.TempDir(), "history.jsonl"), 10)
	var steps []string
	processor := NewProcessor(config.Default(), &fakeDeliverer{}, ProcessorOptions{
		History:  store,
		Mode:     ModeContinuous,
		Observer: func(step string, _ time.Duration) { steps = append(steps, step) },
	})

	_, err := processor.Process(context.Background(), "hi", pipeline.Metadata{WindowClass: "kitty"})
	require.NoError(t, err)
	require.Equal(t, []string{pipeline.StepVoiceCommands, pipeline.StepAutoCapitalize}, steps)

	entries, err := store.Recent(1)
	require.NoError(t, err)
	require.Equal(t, ModeContinuous, entries[0].Mode)
	require.Equal(t, "kitty", entries[0].WindowClass)
}

func TestProcessorWithoutDelivererIsUnavailable(t *testing.T) {
	_, err := NewProcessor(config.Default(), nil, ProcessorOptions{}).Process(context.Background(), "hi", pipeline.Metadata{})
	require.ErrorIs(t, err, session.ErrPipelineUnavailable)
}
