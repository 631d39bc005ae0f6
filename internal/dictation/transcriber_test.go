package dictation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"

	"github.com/rbright/dictate/internal/audio"
	"github.com/rbright/dictate/internal/config"
	"github.com/rbright/dictate/internal/session"
	"github.com/rbright/dictate/internal/transcribe"
)

type fakeRecording struct {
	chunks  chan []byte
	pcm     []byte
	stopped int
	once    sync.Once
}

func newFakeRecording(pcm []byte) *fakeRecording {
	r := &fakeRecording{chunks: make(chan []byte, 4), pcm: pcm}
	r.chunks <- pcm
	return r
}

func (r *fakeRecording) Chunks() <-chan []byte { return r.chunks }
func (r *fakeRecording) RawPCM() []byte        { return r.pcm }
func (r *fakeRecording) BytesCaptured() int64  { return int64(len(r.pcm)) }
func (r *fakeRecording) DeviceName() string    { return "Test Mic (alsa_input.test)" }

func (r *fakeRecording) Stop() error {
	r.stopped++
	r.once.Do(func() { close(r.chunks) })
	return nil
}

type fakeRecorder struct {
	recording *fakeRecording
	err       error
	opts      audio.CaptureOptions
}

func (f *fakeRecorder) Record(_ context.Context, opts audio.CaptureOptions) (Recording, error) {
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.recording, nil
}

type fakeSTT struct {
	text    string
	err     error
	prompt  string
	samples int
	calls   int
}

func (f *fakeSTT) TranscribeFile(_ context.Context, path string, prompt string) (transcribe.Result, error) {
	f.calls++
	f.prompt = prompt

	file, err := os.Open(path)
	if err != nil {
		return transcribe.Result{}, err
	}
	defer file.Close()
	buf, err := wav.NewDecoder(file).FullPCMBuffer()
	if err != nil {
		return transcribe.Result{}, err
	}
	f.samples = len(buf.Data)

	if f.err != nil {
		return transcribe.Result{}, f.err
	}
	return transcribe.Result{Text: f.text, Model: "small.en", Latency: 150 * time.Millisecond}, nil
}

func TestTranscriberStopTranscribesRetainedAudio(t *testing.T) {
	cfg := config.Default()
	cfg.Vocab.GlobalSets = []string{"names"}
	cfg.Vocab.Sets = map[string]config.VocabSet{"names": {Name: "names", Boost: 10, Phrases: []string{"Hyprland", "dictate"}}}

	pcm := make([]byte, audio.BytesPerSecond/2)
	recorder := &fakeRecorder{recording: newFakeRecording(pcm)}
	stt := &fakeSTT{text: "hello world"}
	tr := NewTranscriber(cfg, nil, recorder, stt)

	require.NoError(t, tr.Start(context.Background()))
	require.True(t, recorder.opts.RetainPCM)
	require.Error(t, tr.Start(context.Background()))

	result, err := tr.StopAndTranscribe(context.Background())
	require.NoError(t, err)
	require.Equal(t, "hello world", result.Transcript)
	require.Equal(t, "Test Mic (alsa_input.test)", result.AudioDevice)
	require.Equal(t, int64(len(pcm)), result.BytesCaptured)
	require.Equal(t, "small.en", result.Model)
	require.Equal(t, 500*time.Millisecond, result.AudioDuration)
	require.Equal(t, 150*time.Millisecond, result.TranscribeLatency)

	require.Equal(t, 1, stt.calls)
	require.Equal(t, len(pcm)/audio.BytesPerSample, stt.samples)
	require.Equal(t, "Hyprland, dictate", stt.prompt)
	require.Equal(t, 1, recorder.recording.stopped)
}

func TestTranscriberShortCaptureSkipsTranscription(t *testing.T) {
	recorder := &fakeRecorder{recording: newFakeRecording(make([]byte, minAudioBytes-2))}
	stt := &fakeSTT{text: "never"}
	tr := NewTranscriber(config.Default(), nil, recorder, stt)

	require.NoError(t, tr.Start(context.Background()))
	result, err := tr.StopAndTranscribe(context.Background())
	require.NoError(t, err)
	require.Empty(t, result.Transcript)
	require.Zero(t, stt.calls)
}

func TestTranscriberTranscriptionFailure(t *testing.T) {
	recorder := &fakeRecorder{recording: newFakeRecording(make([]byte, 4000))}
	tr := NewTranscriber(config.Default(), nil, recorder, &fakeSTT{err: errors.New("server down")})

	require.NoError(t, tr.Start(context.Background()))
	result, err := tr.StopAndTranscribe(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "transcribe audio")
	require.Equal(t, int64(4000), result.BytesCaptured)
}

func TestTranscriberStopWithoutStart(t *testing.T) {
	tr := NewTranscriber(config.Default(), nil, &fakeRecorder{}, &fakeSTT{})
	_, err := tr.StopAndTranscribe(context.Background())
	require.ErrorIs(t, err, session.ErrPipelineUnavailable)
	require.NoError(t, tr.Cancel(context.Background()))
}

func TestTranscriberStartWithoutCollaborators(t *testing.T) {
	tr := NewTranscriber(config.Default(), nil, nil, nil)
	require.ErrorIs(t, tr.Start(context.Background()), session.ErrPipelineUnavailable)
}

func TestTranscriberStartPropagatesRecorderError(t *testing.T) {
	tr := NewTranscriber(config.Default(), nil, &fakeRecorder{err: errors.New("no source")}, &fakeSTT{})
	err := tr.Start(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "no source")
}

func TestTranscriberCancelDiscardsAudioAndAllowsRestart(t *testing.T) {
	recorder := &fakeRecorder{recording: newFakeRecording(make([]byte, 4000))}
	stt := &fakeSTT{text: "x"}
	tr := NewTranscriber(config.Default(), nil, recorder, stt)

	require.NoError(t, tr.Start(context.Background()))
	require.NoError(t, tr.Cancel(context.Background()))
	require.Zero(t, stt.calls)

	recorder.recording = newFakeRecording(make([]byte, 4000))
	require.NoError(t, tr.Start(context.Background()))
	_, err := tr.StopAndTranscribe(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stt.calls)
}

func TestTranscriberWritesDebugAudioDump(t *testing.T) {
	stateHome := t.TempDir()
	t.Setenv("XDG_STATE_HOME", stateHome)

	cfg := config.Default()
	cfg.Debug.EnableAudioDump = true
	recorder := &fakeRecorder{recording: newFakeRecording(make([]byte, 4000))}
	tr := NewTranscriber(cfg, nil, recorder, &fakeSTT{text: "ok"})

	require.NoError(t, tr.Start(context.Background()))
	_, err := tr.StopAndTranscribe(context.Background())
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(stateHome, "dictate", "debug", "audio-*.wav"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestDescribeDevice(t *testing.T) {
	require.Equal(t, "Elgato (alsa_input.wave3)", describeDevice(audio.Device{Description: "Elgato", ID: "alsa_input.wave3"}))
	require.Equal(t, "Elgato", describeDevice(audio.Device{Description: "Elgato"}))
	require.Equal(t, "alsa_input.wave3", describeDevice(audio.Device{ID: "alsa_input.wave3"}))
}

func TestResolveStateDirUsesXDGStateHome(t *testing.T) {
	xdgStateHome := t.TempDir()
	t.Setenv("XDG_STATE_HOME", xdgStateHome)
	t.Setenv("HOME", t.TempDir())

	dir, err := resolveStateDir()
	require.NoError(t, err)
	require.Equal(t, xdgStateHome, dir)
}

func TestResolveStateDirFallsBackToHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("HOME", home)

	dir, err := resolveStateDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".local", "state"), dir)
}

func TestDebugPathCreatesDirectory(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	path, err := debugPath("audio", "wav")
	require.NoError(t, err)
	require.DirExists(t, filepath.Dir(path))
	require.Contains(t, path, string(filepath.Separator)+"dictate"+string(filepath.Separator)+"debug"+string(filepath.Separator))
	require.Contains(t, filepath.Base(path), "audio-")
	require.Equal(t, ".wav", filepath.Ext(path))
}
