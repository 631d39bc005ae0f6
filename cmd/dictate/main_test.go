package main

import (
	"errors"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"
)

const childEnv = "DICTATE_MAIN_CHILD"

// TestMain lets the test binary re-exec itself as the dictate command.
func TestMain(m *testing.M) {
	if os.Getenv(childEnv) == "1" {
		main()
		return
	}
	os.Exit(m.Run())
}

func dictate(t *testing.T, args ...string) (string, int) {
	t.Helper()

	cmd := exec.Command(os.Args[0], args...)
	cmd.Env = append(os.Environ(), childEnv+"=1", "XDG_RUNTIME_DIR="+t.TempDir())
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return string(out), exitErr.ExitCode()
	}
	require.NoError(t, err, string(out))
	return string(out), 0
}

func TestHelpExitsZero(t *testing.T) {
	out, code := dictate(t, "--help")
	require.Zero(t, code, out)
	require.Contains(t, out, "Usage:")
}

func TestUnknownCommandIsUsageError(t *testing.T) {
	out, code := dictate(t, "transcribe-everything")
	require.Equal(t, 2, code)
	require.Contains(t, out, "unknown command")
}

func TestVersionPrintsProgramName(t *testing.T) {
	out, code := dictate(t, "version")
	require.Zero(t, code, out)
	require.Contains(t, out, "dictate ")
}
