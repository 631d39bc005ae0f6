package transcribe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/dictate/internal/config"
)

func testConfig(endpoint string) config.TranscriberConfig {
	cfg := config.Default().Transcriber
	cfg.Endpoint = endpoint + "/"
	cfg.Retries = 2
	cfg.TimeoutMS = 2000
	return cfg
}

func fastClient(cfg config.TranscriberConfig) *Client {
	client := NewClient(cfg, nil)
	client.http.RetryWaitMin = time.Millisecond
	client.http.RetryWaitMax = 5 * time.Millisecond
	return client
}

func TestTranscribePostsMultipartForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		require.Equal(t, "base.en", r.FormValue("model"))
		require.Equal(t, "en", r.FormValue("language"))
		require.Equal(t, "json", r.FormValue("response_format"))
		require.Equal(t, "dictate, Hyprland", r.FormValue("prompt"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "clip.wav", header.Filename)
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, []byte("RIFFdata"), data)

		_, _ = w.Write([]byte(`{"text":"  hello world \n"}`))
	}))
	defer server.Close()

	prompt := VocabPrompt([]config.VocabPhrase{{Phrase: "dictate", Boost: 10}, {Phrase: "Hyprland", Boost: 5}})
	result, err := fastClient(testConfig(server.URL)).Transcribe(context.Background(), Request{
		Audio:    []byte("RIFFdata"),
		Filename: "clip.wav",
		Prompt:   prompt,
	})
	require.NoError(t, err)
	require.Equal(t, "hello world", result.Text)
	require.Equal(t, "base.en", result.Model)
	require.Greater(t, result.Latency, time.Duration(0))
}

func TestTranscribeRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"text":"third time"}`))
	}))
	defer server.Close()

	result, err := fastClient(testConfig(server.URL)).Transcribe(context.Background(), Request{Audio: []byte("x")})
	require.NoError(t, err)
	require.Equal(t, "third time", result.Text)
	require.Equal(t, int32(3), calls.Load())
}

func TestTranscribeGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Retries = 1
	_, err := fastClient(cfg).Transcribe(context.Background(), Request{Audio: []byte("x")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "transcription request failed")
	require.Equal(t, int32(2), calls.Load())
}

func TestTranscribeClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "unknown model", http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := fastClient(testConfig(server.URL)).Transcribe(context.Background(), Request{Audio: []byte("x")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "400")
	require.Contains(t, err.Error(), "unknown model")
	require.Equal(t, int32(1), calls.Load())
}

func TestTranscribeMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"text":`))
	}))
	defer server.Close()

	_, err := fastClient(testConfig(server.URL)).Transcribe(context.Background(), Request{Audio: []byte("x")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode transcription response")
}

func TestTranscribeEmptyAudio(t *testing.T) {
	_, err := fastClient(testConfig("http://127.0.0.1:1")).Transcribe(context.Background(), Request{})
	require.ErrorIs(t, err, ErrEmptyAudio)
}

func TestTranscribeFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		require.Equal(t, "take.wav", header.Filename)
		_, _ = w.Write([]byte(`{"text":"from disk"}`))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "take.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o600))

	result, err := fastClient(testConfig(server.URL)).TranscribeFile(context.Background(), path, "")
	require.NoError(t, err)
	require.Equal(t, "from disk", result.Text)
}

func TestHealth(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()
	require.NoError(t, fastClient(testConfig(healthy.URL)).Health(context.Background()))

	unhealthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer unhealthy.Close()
	err := fastClient(testConfig(unhealthy.URL)).Health(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "503")
}

func TestVocabPrompt(t *testing.T) {
	require.Empty(t, VocabPrompt(nil))
	require.Equal(t, "one", VocabPrompt([]config.VocabPhrase{{Phrase: "one"}}))
}
