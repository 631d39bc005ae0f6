package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// filePayload mirrors the on-disk schema. Nil fields keep base values.
type filePayload struct {
	Transcriber   *payloadTranscriber   `json:"transcriber" yaml:"transcriber"`
	Audio         *payloadAudio         `json:"audio" yaml:"audio"`
	Typing        *payloadTyping        `json:"typing" yaml:"typing"`
	Paste         *payloadPaste         `json:"paste" yaml:"paste"`
	Output        *payloadOutput        `json:"output" yaml:"output"`
	Pipeline      *payloadPipeline      `json:"pipeline" yaml:"pipeline"`
	VoiceCommands *payloadVoiceCommands `json:"voice_commands" yaml:"voice_commands"`
	Continuous    *payloadContinuous    `json:"continuous" yaml:"continuous"`
	Profiles      *payloadProfiles      `json:"profiles" yaml:"profiles"`
	History       *payloadHistory       `json:"history" yaml:"history"`
	Indicator     *payloadIndicator     `json:"indicator" yaml:"indicator"`

	ClipboardCmd *string       `json:"clipboard_cmd" yaml:"clipboard_cmd"`
	PasteCmd     *string       `json:"paste_cmd" yaml:"paste_cmd"`
	Vocab        *payloadVocab `json:"vocab" yaml:"vocab"`
	Debug        *payloadDebug `json:"debug" yaml:"debug"`
}

type payloadTranscriber struct {
	Endpoint   *string `json:"endpoint" yaml:"endpoint"`
	Path       *string `json:"path" yaml:"path"`
	HealthPath *string `json:"health_path" yaml:"health_path"`
	Model      *string `json:"model" yaml:"model"`
	Language   *string `json:"language" yaml:"language"`
	TimeoutMS  *int    `json:"timeout_ms" yaml:"timeout_ms"`
	Retries    *int    `json:"retries" yaml:"retries"`
}

type payloadAudio struct {
	Input    *string `json:"input" yaml:"input"`
	Fallback *string `json:"fallback" yaml:"fallback"`
}

type payloadTyping struct {
	Method  *string `json:"method" yaml:"method"`
	TypeCmd *string `json:"type_cmd" yaml:"type_cmd"`
}

type payloadPaste struct {
	Enable   *bool   `json:"enable" yaml:"enable"`
	Shortcut *string `json:"shortcut" yaml:"shortcut"`
}

type payloadOutput struct {
	TrailingSpace *bool `json:"trailing_space" yaml:"trailing_space"`
}

type payloadPipeline struct {
	AutoCapitalize     *bool                `json:"auto_capitalize" yaml:"auto_capitalize"`
	VoiceCommands      *bool                `json:"voice_commands" yaml:"voice_commands"`
	CustomReplacements []payloadReplacement `json:"custom_replacements" yaml:"custom_replacements"`
	LLM                *payloadLLM          `json:"llm" yaml:"llm"`
}

type payloadReplacement struct {
	Pattern     string `json:"pattern" yaml:"pattern"`
	Replacement string `json:"replacement" yaml:"replacement"`
}

type payloadLLM struct {
	Enabled   *bool   `json:"enabled" yaml:"enabled"`
	Endpoint  *string `json:"endpoint" yaml:"endpoint"`
	Model     *string `json:"model" yaml:"model"`
	Prompt    *string `json:"prompt" yaml:"prompt"`
	TimeoutMS *int    `json:"timeout_ms" yaml:"timeout_ms"`
}

type payloadVoiceCommands struct {
	Enabled *bool                 `json:"enabled" yaml:"enabled"`
	Custom  []payloadVoiceCommand `json:"custom" yaml:"custom"`
}

type payloadVoiceCommand struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

type payloadContinuous struct {
	SilenceThreshold *float64 `json:"silence_threshold" yaml:"silence_threshold"`
	SilenceDuration  *float64 `json:"silence_duration" yaml:"silence_duration"`
	MaxChunkDuration *float64 `json:"max_chunk_duration" yaml:"max_chunk_duration"`
	MetricsAddr      *string  `json:"metrics_addr" yaml:"metrics_addr"`
}

type payloadProfiles struct {
	Enabled *bool                `json:"enabled" yaml:"enabled"`
	Rules   []payloadProfileRule `json:"rules" yaml:"rules"`
}

type payloadProfileRule struct {
	WindowClass    string  `json:"window_class" yaml:"window_class"`
	TypingMethod   *string `json:"typing_method" yaml:"typing_method"`
	AutoCapitalize *bool   `json:"auto_capitalize" yaml:"auto_capitalize"`
	VoiceCommands  *bool   `json:"voice_commands" yaml:"voice_commands"`
}

type payloadHistory struct {
	Enabled    *bool   `json:"enabled" yaml:"enabled"`
	Path       *string `json:"path" yaml:"path"`
	MaxEntries *int    `json:"max_entries" yaml:"max_entries"`
}

type payloadIndicator struct {
	Enable            *bool   `json:"enable" yaml:"enable"`
	Backend           *string `json:"backend" yaml:"backend"`
	DesktopAppName    *string `json:"desktop_app_name" yaml:"desktop_app_name"`
	SoundEnable       *bool   `json:"sound_enable" yaml:"sound_enable"`
	SoundStartFile    *string `json:"sound_start_file" yaml:"sound_start_file"`
	SoundStopFile     *string `json:"sound_stop_file" yaml:"sound_stop_file"`
	SoundCompleteFile *string `json:"sound_complete_file" yaml:"sound_complete_file"`
	SoundCancelFile   *string `json:"sound_cancel_file" yaml:"sound_cancel_file"`
	Height            *int    `json:"height" yaml:"height"`
	TextRecording     *string `json:"text_recording" yaml:"text_recording"`
	TextListening     *string `json:"text_listening" yaml:"text_listening"`
	TextProcessing    *string `json:"text_processing" yaml:"text_processing"`
	TextError         *string `json:"text_error" yaml:"text_error"`
	ErrorTimeoutMS    *int    `json:"error_timeout_ms" yaml:"error_timeout_ms"`
}

type payloadVocab struct {
	Global     *stringList                `json:"global" yaml:"global"`
	MaxPhrases *int                       `json:"max_phrases" yaml:"max_phrases"`
	Sets       map[string]payloadVocabSet `json:"sets" yaml:"sets"`
}

type payloadVocabSet struct {
	Boost   *float64 `json:"boost" yaml:"boost"`
	Phrases []string `json:"phrases" yaml:"phrases"`
}

type payloadDebug struct {
	AudioDump *bool `json:"audio_dump" yaml:"audio_dump"`
}

// stringList accepts either a list of strings or one comma-delimited string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = splitCommaList(single)
		return nil
	}

	return fmt.Errorf("expected string array or comma-delimited string")
}

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*l = list
		return nil
	case yaml.ScalarNode:
		*l = splitCommaList(value.Value)
		return nil
	default:
		return fmt.Errorf("line %d: expected string array or comma-delimited string", value.Line)
	}
}

func splitCommaList(single string) []string {
	parts := strings.Split(single, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func (payload filePayload) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if t := payload.Transcriber; t != nil {
		setString(&cfg.Transcriber.Endpoint, t.Endpoint)
		setString(&cfg.Transcriber.Path, t.Path)
		setString(&cfg.Transcriber.HealthPath, t.HealthPath)
		setString(&cfg.Transcriber.Model, t.Model)
		setString(&cfg.Transcriber.Language, t.Language)
		if t.TimeoutMS != nil {
			cfg.Transcriber.TimeoutMS = *t.TimeoutMS
		}
		if t.Retries != nil {
			cfg.Transcriber.Retries = *t.Retries
		}
	}

	if payload.Audio != nil {
		if payload.Audio.Input != nil {
			cfg.Audio.Input = *payload.Audio.Input
		}
		if payload.Audio.Fallback != nil {
			cfg.Audio.Fallback = *payload.Audio.Fallback
		}
	}

	if payload.Typing != nil {
		if payload.Typing.Method != nil {
			cfg.Typing.Method = strings.ToLower(strings.TrimSpace(*payload.Typing.Method))
		}
		if payload.Typing.TypeCmd != nil {
			command, err := parseCommand("typing.type_cmd", *payload.Typing.TypeCmd)
			if err != nil {
				return nil, err
			}
			cfg.Typing.TypeCmd = command
		}
	}

	if payload.Paste != nil {
		if payload.Paste.Enable != nil {
			cfg.Paste.Enable = *payload.Paste.Enable
		}
		setString(&cfg.Paste.Shortcut, payload.Paste.Shortcut)
	}

	if payload.Output != nil && payload.Output.TrailingSpace != nil {
		cfg.Output.TrailingSpace = *payload.Output.TrailingSpace
	}

	if p := payload.Pipeline; p != nil {
		if p.AutoCapitalize != nil {
			cfg.Pipeline.AutoCapitalize = *p.AutoCapitalize
		}
		if p.VoiceCommands != nil {
			cfg.Pipeline.VoiceCommands = *p.VoiceCommands
		}
		if p.CustomReplacements != nil {
			var rules []ReplacementRule
			for _, rule := range p.CustomReplacements {
				rules = append(rules, ReplacementRule{Pattern: rule.Pattern, Replacement: rule.Replacement})
			}
			cfg.Pipeline.CustomReplacements = rules
		}
		if llm := p.LLM; llm != nil {
			if llm.Enabled != nil {
				cfg.Pipeline.LLM.Enabled = *llm.Enabled
			}
			setString(&cfg.Pipeline.LLM.Endpoint, llm.Endpoint)
			setString(&cfg.Pipeline.LLM.Model, llm.Model)
			if llm.Prompt != nil {
				cfg.Pipeline.LLM.Prompt = *llm.Prompt
			}
			if llm.TimeoutMS != nil {
				cfg.Pipeline.LLM.TimeoutMS = *llm.TimeoutMS
			}
		}
	}

	if vc := payload.VoiceCommands; vc != nil {
		if vc.Enabled != nil {
			cfg.VoiceCommands.Enabled = *vc.Enabled
		}
		if vc.Custom != nil {
			var custom []VoiceCommand
			for i, entry := range vc.Custom {
				from := strings.TrimSpace(entry.From)
				if from == "" {
					warnings = append(warnings, Warning{Message: fmt.Sprintf("voice_commands.custom[%d] has an empty phrase; skipping", i)})
					continue
				}
				custom = append(custom, VoiceCommand{From: from, To: entry.To})
			}
			cfg.VoiceCommands.Custom = custom
		}
	}

	if c := payload.Continuous; c != nil {
		if c.SilenceThreshold != nil {
			cfg.Continuous.SilenceThreshold = *c.SilenceThreshold
		}
		if c.SilenceDuration != nil {
			cfg.Continuous.SilenceDuration = *c.SilenceDuration
		}
		if c.MaxChunkDuration != nil {
			cfg.Continuous.MaxChunkDuration = *c.MaxChunkDuration
		}
		setString(&cfg.Continuous.MetricsAddr, c.MetricsAddr)
	}

	if pr := payload.Profiles; pr != nil {
		if pr.Enabled != nil {
			cfg.Profiles.Enabled = *pr.Enabled
		}
		if pr.Rules != nil {
			var rules []ProfileRule
			for _, rule := range pr.Rules {
				out := ProfileRule{
					WindowClass:    rule.WindowClass,
					AutoCapitalize: rule.AutoCapitalize,
					VoiceCommands:  rule.VoiceCommands,
				}
				if rule.TypingMethod != nil {
					method := strings.ToLower(strings.TrimSpace(*rule.TypingMethod))
					out.TypingMethod = &method
				}
				rules = append(rules, out)
			}
			cfg.Profiles.Rules = rules
		}
	}

	if h := payload.History; h != nil {
		if h.Enabled != nil {
			cfg.History.Enabled = *h.Enabled
		}
		if h.Path != nil {
			cfg.History.Path = expandHome(strings.TrimSpace(*h.Path))
		}
		if h.MaxEntries != nil {
			cfg.History.MaxEntries = *h.MaxEntries
		}
	}

	if ind := payload.Indicator; ind != nil {
		if ind.Enable != nil {
			cfg.Indicator.Enable = *ind.Enable
		}
		setString(&cfg.Indicator.Backend, ind.Backend)
		setString(&cfg.Indicator.DesktopAppName, ind.DesktopAppName)
		if ind.SoundEnable != nil {
			cfg.Indicator.SoundEnable = *ind.SoundEnable
		}
		setPath(&cfg.Indicator.SoundStartFile, ind.SoundStartFile)
		setPath(&cfg.Indicator.SoundStopFile, ind.SoundStopFile)
		setPath(&cfg.Indicator.SoundCompleteFile, ind.SoundCompleteFile)
		setPath(&cfg.Indicator.SoundCancelFile, ind.SoundCancelFile)
		if ind.Height != nil {
			cfg.Indicator.Height = *ind.Height
		}
		if ind.TextRecording != nil {
			cfg.Indicator.TextRecording = *ind.TextRecording
		}
		if ind.TextListening != nil {
			cfg.Indicator.TextListening = *ind.TextListening
		}
		if ind.TextProcessing != nil {
			cfg.Indicator.TextProcessing = *ind.TextProcessing
		}
		if ind.TextError != nil {
			cfg.Indicator.TextError = *ind.TextError
		}
		if ind.ErrorTimeoutMS != nil {
			cfg.Indicator.ErrorTimeoutMS = *ind.ErrorTimeoutMS
		}
	}

	if payload.ClipboardCmd != nil {
		command, err := parseCommand("clipboard_cmd", *payload.ClipboardCmd)
		if err != nil {
			return nil, err
		}
		cfg.Clipboard = command
	}

	if payload.PasteCmd != nil {
		command, err := parseCommand("paste_cmd", *payload.PasteCmd)
		if err != nil {
			return nil, err
		}
		cfg.PasteCmd = command
	}

	if payload.Vocab != nil {
		if payload.Vocab.Global != nil {
			cfg.Vocab.GlobalSets = cfg.Vocab.GlobalSets[:0]
			for _, name := range *payload.Vocab.Global {
				name = strings.TrimSpace(name)
				if name == "" {
					continue
				}
				cfg.Vocab.GlobalSets = append(cfg.Vocab.GlobalSets, name)
			}
		}
		if payload.Vocab.MaxPhrases != nil {
			cfg.Vocab.MaxPhrases = *payload.Vocab.MaxPhrases
		}
		if payload.Vocab.Sets != nil {
			sets := make(map[string]VocabSet, len(cfg.Vocab.Sets)+len(payload.Vocab.Sets))
			for name, set := range cfg.Vocab.Sets {
				sets[name] = set
			}
			for name, set := range payload.Vocab.Sets {
				trimmedName := strings.TrimSpace(name)
				if trimmedName == "" {
					return nil, fmt.Errorf("vocab.sets contains an empty set name")
				}

				entry := VocabSet{Name: trimmedName, Phrases: append([]string(nil), set.Phrases...)}
				if set.Boost != nil {
					entry.Boost = *set.Boost
				}
				sets[trimmedName] = entry
			}
			cfg.Vocab.Sets = sets
		}
	}

	if payload.Debug != nil && payload.Debug.AudioDump != nil {
		cfg.Debug.EnableAudioDump = *payload.Debug.AudioDump
	}

	return warnings, nil
}

func setString(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}

func setPath(dst *string, value *string) {
	if value != nil {
		*dst = expandHome(strings.TrimSpace(*value))
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
