package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePathPrecedence(t *testing.T) {
	explicit := "/tmp/custom.jsonc"
	resolved, err := ResolvePath(explicit)
	require.NoError(t, err)
	require.Equal(t, explicit, resolved)

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(xdg, "dictate", "config.jsonc"), resolved)

	t.Setenv("XDG_CONFIG_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config", "dictate", "config.jsonc"), resolved)
}

func TestResolvePathPrefersJSONCOverYAML(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	dir := filepath.Join(xdg, "dictate")
	require.NoError(t, os.MkdirAll(dir, 0o700))

	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("paste:\n  enable: false\n"), 0o600))
	resolved, err := ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, yamlPath, resolved)

	jsoncPath := filepath.Join(dir, "config.jsonc")
	require.NoError(t, os.WriteFile(jsoncPath, []byte("{}"), 0o600))
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, jsoncPath, resolved)
}

func TestLoadMissingConfigUsesDefaultsWithWarning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.jsonc")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, loaded.Path)
	require.False(t, loaded.Exists)
	require.Equal(t, Default(), loaded.Config)
	require.NotEmpty(t, loaded.Warnings)
	require.Contains(t, loaded.Warnings[0].Message, "not found")
}

func TestLoadExistingJSONCParsesAndValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	contents := `
{
  "transcriber": {
    "endpoint": "http://127.0.0.1:9000",
    "model": "large-v3"
  },
  "audio": {
    "input": "default",
    "fallback": "default"
  },
  "paste": {
    "enable": false
  }
}
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, path, loaded.Path)
	require.Equal(t, "http://127.0.0.1:9000", loaded.Config.Transcriber.Endpoint)
	require.Equal(t, "large-v3", loaded.Config.Transcriber.Model)
	require.False(t, loaded.Config.Paste.Enable)
}

func TestLoadImplicitPathUsesYAMLFile(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	yamlPath := filepath.Join(xdg, "dictate", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(yamlPath), 0o700))
	require.NoError(t, os.WriteFile(yamlPath, []byte("paste:\n  enable: false\n"), 0o600))

	loaded, err := Load("")
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, yamlPath, loaded.Path)
	require.False(t, loaded.Config.Paste.Enable)
}

func TestLoadParseErrorIncludesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jsonc")
	require.NoError(t, os.WriteFile(path, []byte("{ not-json }"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse config")
	require.Contains(t, err.Error(), path)
}

func TestInitWritesTemplateOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.jsonc")

	written, err := Init(path)
	require.NoError(t, err)
	require.Equal(t, path, written)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, Template(), string(content))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, err = Init(path)
	require.ErrorIs(t, err, ErrConfigExists)
}
