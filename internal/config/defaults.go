package config

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultLLMPrompt = "Clean up this dictated text, fixing grammar while preserving meaning:"

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	typeCmd := "wtype -"

	return Config{
		Transcriber: TranscriberConfig{
			Endpoint:   "http://127.0.0.1:8000",
			Path:       "/v1/audio/transcriptions",
			HealthPath: "/health",
			Model:      "base.en",
			Language:   "en",
			TimeoutMS:  60000,
			Retries:    2,
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Typing: TypingConfig{
			Method:  TypingClipboard,
			TypeCmd: mustCommand(typeCmd),
		},
		Paste:  PasteConfig{Enable: true, Shortcut: "CTRL,V"},
		Output: OutputConfig{TrailingSpace: true},
		Pipeline: PipelineConfig{
			AutoCapitalize: true,
			VoiceCommands:  true,
			LLM: LLMConfig{
				Enabled:   false,
				Endpoint:  "http://localhost:11434",
				Model:     "",
				Prompt:    defaultLLMPrompt,
				TimeoutMS: 30000,
			},
		},
		VoiceCommands: VoiceCommandsConfig{Enabled: true},
		Continuous: ContinuousConfig{
			SilenceThreshold: 0.03,
			SilenceDuration:  1.5,
			MaxChunkDuration: 30,
		},
		Profiles: ProfilesConfig{Enabled: false},
		History: HistoryConfig{
			Enabled:    true,
			Path:       defaultHistoryPath(),
			MaxEntries: 10000,
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        "hypr",
			DesktopAppName: "dictate-indicator",
			SoundEnable:    true,
			Height:         28,
			ErrorTimeoutMS: 1600,
		},
		// Empty clipboard_cmd selects the system clipboard backend.
		Clipboard: CommandConfig{},
		Vocab: VocabConfig{
			GlobalSets: nil,
			Sets:       map[string]VocabSet{},
			MaxPhrases: 256,
		},
		Debug: DebugConfig{},
	}
}

func defaultHistoryPath() string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdg != "" {
		return filepath.Join(xdg, "dictate", "history.jsonl")
	}
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return filepath.Join(os.TempDir(), "dictate", "history.jsonl")
	}
	return filepath.Join(home, ".local", "share", "dictate", "history.jsonl")
}
