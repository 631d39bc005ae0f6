package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Loaded is a parsed config together with where it came from.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	// Exists is false when no file was found and Config holds defaults.
	Exists bool
}

// Load resolves the config path and parses the file on top of Default.
// A missing file is not an error.
func Load(explicitPath string) (Loaded, error) {
	path, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}
	loaded := Loaded{Path: path, Config: Default()}

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		loaded.Warnings = []Warning{{Message: fmt.Sprintf("config file %q not found; using defaults", path)}}
		return loaded, nil
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %q: %w", path, err)
	}

	loaded.Config, loaded.Warnings, err = Parse(string(content), loaded.Config)
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	loaded.Exists = true
	return loaded, nil
}

var ErrConfigExists = errors.New("config file already exists")

// Init writes Template to the resolved config path. It never overwrites an
// existing file; the path is returned alongside ErrConfigExists.
func Init(explicitPath string) (string, error) {
	path, err := ResolvePath(explicitPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return path, fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	if err != nil {
		return "", fmt.Errorf("create config %q: %w", path, err)
	}
	if _, err := f.WriteString(Template()); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write config %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write config %q: %w", path, err)
	}
	return path, nil
}
