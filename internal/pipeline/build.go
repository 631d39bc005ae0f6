package pipeline

import (
	"log/slog"

	"github.com/rbright/dictate/internal/config"
	"github.com/rbright/dictate/internal/profile"
)

// Options carries optional collaborators for Build.
type Options struct {
	Logger   *slog.Logger
	Observer Observer
}

// Build selects steps from cfg and per-application overrides.
//
// Order is fixed: voice commands, auto-capitalize, custom replacements, LLM
// cleanup. A profile override replaces the configured value for its field.
func Build(cfg config.Config, overrides profile.Overrides, opts Options) *Pipeline {
	steps := make([]Step, 0, 4)

	voiceCommands := cfg.Pipeline.VoiceCommands && cfg.VoiceCommands.Enabled
	if overrides.VoiceCommands != nil {
		voiceCommands = *overrides.VoiceCommands
	}
	if voiceCommands {
		steps = append(steps, NewVoiceCommandStep(cfg.VoiceCommands.Custom))
	}

	autoCapitalize := cfg.Pipeline.AutoCapitalize
	if overrides.AutoCapitalize != nil {
		autoCapitalize = *overrides.AutoCapitalize
	}
	if autoCapitalize {
		steps = append(steps, AutoCapitalizeStep{})
	}

	if len(cfg.Pipeline.CustomReplacements) > 0 {
		steps = append(steps, NewCustomReplacementStep(cfg.Pipeline.CustomReplacements, opts.Logger))
	}

	if cfg.Pipeline.LLM.Enabled {
		steps = append(steps, NewLLMCleanupStep(cfg.Pipeline.LLM, opts.Logger))
	}

	p := New(steps...)
	if opts.Observer != nil {
		p = p.WithObserver(opts.Observer)
	}
	return p
}
