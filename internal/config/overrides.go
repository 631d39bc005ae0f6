package config

import (
	"fmt"
	"strings"
)

// Overrides carries command-line flags that take precedence over file values.
type Overrides struct {
	TypingMethod string
	NoPipeline   bool
}

// ApplyOverrides returns cfg with CLI overrides applied and revalidated.
func ApplyOverrides(cfg Config, overrides Overrides) (Config, error) {
	if method := strings.ToLower(strings.TrimSpace(overrides.TypingMethod)); method != "" {
		cfg.Typing.Method = method
	}
	if overrides.NoPipeline {
		cfg.Pipeline.AutoCapitalize = false
		cfg.Pipeline.VoiceCommands = false
		cfg.Pipeline.LLM.Enabled = false
	}
	if _, err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("apply overrides: %w", err)
	}
	return cfg, nil
}
