package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveLogPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)
	path, err := resolveLogPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(state, "dictate", "log.jsonl"), path)

	t.Setenv("XDG_STATE_HOME", "  ")
	path, err = resolveLogPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".local", "state", "dictate", "log.jsonl"), path)
}

func readLog(t *testing.T, rt Runtime) string {
	t.Helper()
	require.NoError(t, rt.Close())
	data, err := os.ReadFile(rt.Path)
	require.NoError(t, err)
	return string(data)
}

func TestNewWritesInfoRecordsWithPID(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	rt, err := New(Options{})
	require.NoError(t, err)
	rt.Logger.Info("segment delivered", "chars", 42)
	rt.Logger.Debug("pipeline step")

	contents := readLog(t, rt)
	require.Contains(t, contents, `"msg":"segment delivered"`)
	require.Contains(t, contents, `"chars":42`)
	require.Regexp(t, `"pid":\d+`, contents)
	require.NotContains(t, contents, "pipeline step")

	info, err := os.Stat(rt.Path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestVerboseKeepsDebugRecords(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	rt, err := New(Options{Verbose: true})
	require.NoError(t, err)
	rt.Logger.Debug("pipeline step", "step", "voice_commands")

	contents := readLog(t, rt)
	require.Contains(t, contents, `"level":"DEBUG"`)
	require.Contains(t, contents, `"step":"voice_commands"`)
}

func TestNewRotatesOversizedLog(t *testing.T) {
	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)
	path := filepath.Join(state, "dictate", "log.jsonl")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 64)), 0o600))

	rt, err := New(Options{MaxBytes: 64})
	require.NoError(t, err)
	rt.Logger.Info("fresh")

	require.NotContains(t, readLog(t, rt), "xxxx")
	old, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	require.Len(t, old, 64)
}

func TestNewAppendsBelowLimitOrWhenRotationDisabled(t *testing.T) {
	for _, limit := range []int64{1024, -1} {
		state := t.TempDir()
		t.Setenv("XDG_STATE_HOME", state)
		path := filepath.Join(state, "dictate", "log.jsonl")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
		require.NoError(t, os.WriteFile(path, []byte("{\"msg\":\"earlier\"}\n"), 0o600))

		rt, err := New(Options{MaxBytes: limit})
		require.NoError(t, err)
		rt.Logger.Info("later")

		contents := readLog(t, rt)
		require.Contains(t, contents, "earlier", limit)
		require.Contains(t, contents, "later", limit)
		require.NoFileExists(t, path+".1")
	}
}

func TestDiscard(t *testing.T) {
	rt := Discard()
	rt.Logger.Info("dropped")
	require.Empty(t, rt.Path)
	require.NoError(t, rt.Close())
}
