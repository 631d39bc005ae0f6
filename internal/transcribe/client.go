// Package transcribe sends recorded audio to an OpenAI-compatible whisper server.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/rbright/dictate/internal/config"
)

const (
	responseFormatJSON = "json"
	maxErrorBodyBytes  = 512
	retryWaitMin       = 250 * time.Millisecond
	retryWaitMax       = 2 * time.Second
)

// ErrEmptyAudio is returned when Transcribe is called without audio bytes.
var ErrEmptyAudio = errors.New("no audio to transcribe")

// Request is one transcription call.
type Request struct {
	// Audio is a complete WAV file.
	Audio    []byte
	Filename string
	Prompt   string
}

// Result is the server's transcription.
type Result struct {
	Text    string
	Model   string
	Latency time.Duration
}

type responsePayload struct {
	Text string `json:"text"`
}

// Client posts multipart transcription requests with retry on transient failure.
type Client struct {
	cfg  config.TranscriberConfig
	http *retryablehttp.Client
}

// NewClient builds a client for cfg. A nil logger silences retry logging.
func NewClient(cfg config.TranscriberConfig, logger *slog.Logger) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = cfg.Retries
	httpClient.RetryWaitMin = retryWaitMin
	httpClient.RetryWaitMax = retryWaitMax
	httpClient.HTTPClient.Timeout = cfg.Timeout()
	httpClient.Logger = nil
	if logger != nil {
		httpClient.Logger = logger
	}

	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return &Client{cfg: cfg, http: httpClient}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

// TranscribeFile reads a WAV file from disk and transcribes it.
func (c *Client) TranscribeFile(ctx context.Context, path string, prompt string) (Result, error) {
	audio, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read audio file: %w", err)
	}
	return c.Transcribe(ctx, Request{Audio: audio, Filename: filepath.Base(path), Prompt: prompt})
}

// Transcribe posts req and returns the trimmed transcript text.
func (c *Client) Transcribe(ctx context.Context, req Request) (Result, error) {
	if len(req.Audio) == 0 {
		return Result{}, ErrEmptyAudio
	}

	body, contentType, err := c.multipartBody(req)
	if err != nil {
		return Result{}, err
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+c.cfg.Path, body)
	if err != nil {
		return Result{}, fmt.Errorf("build transcription request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read transcription response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("transcription server returned %d: %s", resp.StatusCode, snippet(payload))
	}

	var decoded responsePayload
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return Result{}, fmt.Errorf("decode transcription response: %w", err)
	}

	return Result{
		Text:    strings.TrimSpace(decoded.Text),
		Model:   c.cfg.Model,
		Latency: time.Since(started),
	}, nil
}

// Health reports whether the server answers its health path with 2xx.
// It does not retry.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+c.cfg.HealthPath, nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.http.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("transcriber unreachable at %s: %w", c.cfg.Endpoint, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("transcriber health returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) multipartBody(req Request) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	filename := req.Filename
	if filename == "" {
		filename = "audio.wav"
	}
	fileWriter, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := fileWriter.Write(req.Audio); err != nil {
		return nil, "", fmt.Errorf("write audio data: %w", err)
	}

	fields := [][2]string{
		{"model", c.cfg.Model},
		{"response_format", responseFormatJSON},
	}
	if c.cfg.Language != "" {
		fields = append(fields, [2]string{"language", c.cfg.Language})
	}
	if req.Prompt != "" {
		fields = append(fields, [2]string{"prompt", req.Prompt})
	}
	for _, field := range fields {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", field[0], err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

// VocabPrompt renders vocabulary hints as a whisper initial prompt.
func VocabPrompt(phrases []config.VocabPhrase) string {
	if len(phrases) == 0 {
		return ""
	}
	parts := make([]string, 0, len(phrases))
	for _, phrase := range phrases {
		parts = append(parts, phrase.Phrase)
	}
	return strings.Join(parts, ", ")
}

func snippet(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBodyBytes {
		text = text[:maxErrorBodyBytes] + "..."
	}
	return text
}
