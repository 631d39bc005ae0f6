package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	configFileName     = "config.jsonc"
	yamlConfigFileName = "config.yaml"
)

// ResolvePath applies CLI/XDG/home fallback rules for the config location.
//
// Inside the config directory config.jsonc wins; config.yaml is used only when
// it exists and config.jsonc does not.
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}

	dir, err := configDir()
	if err != nil {
		return "", err
	}

	primary := filepath.Join(dir, configFileName)
	if fileExists(primary) {
		return primary, nil
	}
	if alternate := filepath.Join(dir, yamlConfigFileName); fileExists(alternate) {
		return alternate, nil
	}
	return primary, nil
}

func configDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "dictate"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}

	return filepath.Join(home, ".config", "dictate"), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
