package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateSendsNonStreamingRequest(t *testing.T) {
	var got GenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/generate", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"model":"llama3.2","response":"  Cleaned.  ","done":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", time.Second)
	resp, err := client.Generate(context.Background(), GenerateRequest{Model: "llama3.2", Prompt: "fix:\n\nraw", Stream: true})
	require.NoError(t, err)
	require.Equal(t, "  Cleaned.  ", resp.Response)
	require.True(t, resp.Done)
	require.Equal(t, GenerateRequest{Model: "llama3.2", Prompt: "fix:\n\nraw", Stream: false}, got)
}

func TestGenerateReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, time.Second).Generate(context.Background(), GenerateRequest{Model: "missing"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
	require.Contains(t, err.Error(), "model not found")
}

func TestGenerateRejectsMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, time.Second).Generate(context.Background(), GenerateRequest{Model: "m"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode generate response")
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	require.NoError(t, NewClient(server.URL, time.Second).Ping(context.Background()))

	server.Close()
	require.Error(t, NewClient(server.URL, time.Second).Ping(context.Background()))
}
