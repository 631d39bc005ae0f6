package doctor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/dictate/internal/config"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestReportOKAllPassing(t *testing.T) {
	report := Report{Checks: []Check{{Name: "one", Pass: true}, {Name: "two", Pass: true}}}
	require.True(t, report.OK())
}

func TestCheckEnv(t *testing.T) {
	t.Setenv("TEST_DOCTOR_ENV", "wayland")

	check := checkEnv(
		"TEST_DOCTOR_ENV",
		func(v string) bool { return strings.EqualFold(v, "wayland") },
		"looks good",
		"unexpected",
	)

	require.True(t, check.Pass)
	require.Equal(t, "looks good", check.Message)
}

func TestConfigCheckReportsDefaultsAndWarnings(t *testing.T) {
	check := configCheck(config.Loaded{Path: "/tmp/none.jsonc"})
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "using defaults")

	check = configCheck(config.Loaded{Path: "/tmp/config.jsonc", Exists: true, Warnings: []config.Warning{{Message: "x"}}})
	require.Contains(t, check.Message, "1 warning(s)")
}

func TestCheckCommandEmpty(t *testing.T) {
	check := checkCommand(nil, "clipboard_cmd")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "command is empty")
}

func TestCheckBinaryFound(t *testing.T) {
	check := checkBinary("sh", "shell available")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "shell available")
}

func TestCheckBinaryMissing(t *testing.T) {
	check := checkBinary("definitely-not-a-real-binary", "unused")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "binary not found")
}

func TestCheckCommandUsesBinaryFromPath(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "fake-bin")
	require.NoError(t, os.WriteFile(scriptPath, []byte("#!/usr/bin/env bash\nexit 0\n"), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	check := checkCommand([]string{"fake-bin", "--arg"}, "clipboard_cmd")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "clipboard_cmd command is available")
}

func TestOutputChecksForTypeMethod(t *testing.T) {
	cfg := config.Default()
	cfg.Typing.Method = config.TypingType
	cfg.Typing.TypeCmd = config.CommandConfig{Raw: "sh -c cat", Argv: []string{"sh", "-c", "cat"}}

	checks := outputChecks(cfg)
	require.Len(t, checks, 1)
	require.Equal(t, "sh", checks[0].Name)
	require.Contains(t, checks[0].Message, "typing.type_cmd")
}

func TestOutputChecksFallBackToSystemClipboard(t *testing.T) {
	cfg := config.Default()
	cfg.Clipboard = config.CommandConfig{}
	cfg.Paste.Enable = false

	checks := outputChecks(cfg)
	require.Len(t, checks, 1)
	require.Equal(t, "clipboard", checks[0].Name)
}

func TestCheckTranscriberReady(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default().Transcriber
	cfg.Endpoint = server.URL + "/"

	check := checkTranscriber(context.Background(), cfg)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "ready at")
	require.Contains(t, check.Message, "base.en")
}

func TestCheckTranscriberFailureStatusCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default().Transcriber
	cfg.Endpoint = server.URL

	check := checkTranscriber(context.Background(), cfg)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "503")
}

func TestCheckTranscriberEmptyEndpoint(t *testing.T) {
	cfg := config.Default().Transcriber
	cfg.Endpoint = " "

	check := checkTranscriber(context.Background(), cfg)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "endpoint is empty")
}

func TestCheckLLM(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	t.Cleanup(server.Close)

	cfg := config.Default().Pipeline.LLM
	cfg.Enabled = true
	cfg.Endpoint = server.URL
	cfg.Model = "llama3.2"

	check := checkLLM(context.Background(), cfg)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "llama3.2")

	cfg.Model = ""
	check = checkLLM(context.Background(), cfg)
	require.False(t, check.Pass)
}

func TestCheckAudioSelectionFailureWithInvalidPulseServer(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	check := checkAudioSelection(context.Background(), config.Default())
	require.False(t, check.Pass)
	require.Contains(t, check.Name, "audio.device")
}

func checkNames(report Report) map[string]bool {
	names := map[string]bool{}
	for _, check := range report.Checks {
		names[check.Name] = true
	}
	return names
}

func TestRunUsesPasteCmdOverrideCheck(t *testing.T) {
	binDir := t.TempDir()
	fakePaste := filepath.Join(binDir, "fake-paste")
	require.NoError(t, os.WriteFile(fakePaste, []byte("#!/usr/bin/env sh\nexit 0\n"), 0o755))
	t.Setenv("PATH", binDir+":"+os.Getenv("PATH"))
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	t.Setenv("XDG_SESSION_TYPE", "wayland")
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "abc123")

	cfg := config.Default()
	cfg.Paste.Enable = true
	cfg.PasteCmd = config.CommandConfig{Raw: fakePaste, Argv: []string{"fake-paste"}}
	cfg.Transcriber.Endpoint = ""

	names := checkNames(Run(context.Background(), config.Loaded{Path: "/tmp/config.jsonc", Config: cfg}))
	require.True(t, names["fake-paste"])
	require.False(t, names["hyprctl"])
	require.True(t, names["transcriber"])
	require.False(t, names["pipeline.llm"])
}

func TestRunUsesHyprctlWhenPasteCmdUnset(t *testing.T) {
	binDir := t.TempDir()
	fakeHypr := filepath.Join(binDir, "hyprctl")
	require.NoError(t, os.WriteFile(fakeHypr, []byte("#!/usr/bin/env sh\nexit 0\n"), 0o755))
	t.Setenv("PATH", binDir+":"+os.Getenv("PATH"))
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	t.Setenv("XDG_SESSION_TYPE", "wayland")
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "abc123")

	cfg := config.Default()
	cfg.Paste.Enable = true
	cfg.PasteCmd = config.CommandConfig{}
	cfg.Transcriber.Endpoint = ""
	cfg.Pipeline.LLM.Enabled = true

	names := checkNames(Run(context.Background(), config.Loaded{Path: "/tmp/config.jsonc", Config: cfg}))
	require.True(t, names["hyprctl"])
	require.True(t, names["pipeline.llm"])
}
