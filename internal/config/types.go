// Package config resolves, parses, validates, and defaults dictate configuration.
package config

import "time"

// Config is the fully materialized runtime configuration used by dictate.
type Config struct {
	Transcriber   TranscriberConfig
	Audio         AudioConfig
	Typing        TypingConfig
	Paste         PasteConfig
	Output        OutputConfig
	Pipeline      PipelineConfig
	VoiceCommands VoiceCommandsConfig
	Continuous    ContinuousConfig
	Profiles      ProfilesConfig
	History       HistoryConfig
	Indicator     IndicatorConfig
	Clipboard     CommandConfig
	PasteCmd      CommandConfig
	Vocab         VocabConfig
	Debug         DebugConfig
}

// TranscriberConfig points at an OpenAI-compatible whisper transcription server.
type TranscriberConfig struct {
	Endpoint   string
	Path       string
	HealthPath string
	Model      string
	Language   string
	TimeoutMS  int
	Retries    int
}

// Timeout returns the per-request transcription deadline.
func (c TranscriberConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// Typing methods accepted by typing.method and profile overrides.
const (
	TypingClipboard = "clipboard"
	TypingType      = "type"
)

// TypingConfig selects how processed text reaches the focused application.
type TypingConfig struct {
	Method  string
	TypeCmd CommandConfig
}

// PasteConfig controls post-commit paste behavior.
type PasteConfig struct {
	Enable   bool
	Shortcut string
}

// OutputConfig controls delivered-text formatting.
type OutputConfig struct {
	TrailingSpace bool
}

// PipelineConfig toggles post-processing steps.
type PipelineConfig struct {
	AutoCapitalize     bool
	VoiceCommands      bool
	CustomReplacements []ReplacementRule
	LLM                LLMConfig
}

// ReplacementRule is one ordered regular-expression rewrite.
type ReplacementRule struct {
	Pattern     string
	Replacement string
}

// LLMConfig controls the optional Ollama cleanup step.
type LLMConfig struct {
	Enabled   bool
	Endpoint  string
	Model     string
	Prompt    string
	TimeoutMS int
}

// Timeout returns the cleanup request deadline.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// VoiceCommandsConfig controls spoken punctuation and user-defined phrases.
type VoiceCommandsConfig struct {
	Enabled bool
	Custom  []VoiceCommand
}

// VoiceCommand maps a spoken phrase to its replacement.
type VoiceCommand struct {
	From string
	To   string
}

// ContinuousConfig controls silence-segmented continuous dictation.
type ContinuousConfig struct {
	SilenceThreshold float64
	SilenceDuration  float64
	MaxChunkDuration float64
	MetricsAddr      string
}

// SilenceWindow returns the silence duration that closes a segment.
func (c ContinuousConfig) SilenceWindow() time.Duration {
	return time.Duration(c.SilenceDuration * float64(time.Second))
}

// MaxChunk returns the forced segment cut length.
func (c ContinuousConfig) MaxChunk() time.Duration {
	return time.Duration(c.MaxChunkDuration * float64(time.Second))
}

// ProfilesConfig controls per-application overrides.
type ProfilesConfig struct {
	Enabled bool
	Rules   []ProfileRule
}

// ProfileRule matches a window class and carries optional overrides.
type ProfileRule struct {
	WindowClass    string
	TypingMethod   *string
	AutoCapitalize *bool
	VoiceCommands  *bool
}

// HistoryConfig controls the on-disk dictation history.
type HistoryConfig struct {
	Enabled    bool
	Path       string
	MaxEntries int
}

// IndicatorConfig controls visual indicator and audio cue behavior.
type IndicatorConfig struct {
	Enable            bool
	Backend           string
	DesktopAppName    string
	SoundEnable       bool
	SoundStartFile    string
	SoundStopFile     string
	SoundCompleteFile string
	SoundCancelFile   string
	Height            int
	TextRecording     string
	TextListening     string
	TextProcessing    string
	TextError         string
	ErrorTimeoutMS    int
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// VocabConfig controls enabled vocabulary sets used as transcription hints.
type VocabConfig struct {
	GlobalSets []string
	Sets       map[string]VocabSet
	MaxPhrases int
}

// VocabSet is one named phrase group with a shared boost value.
type VocabSet struct {
	Name    string
	Boost   float64
	Phrases []string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

// VocabPhrase is one deduplicated vocabulary hint and its winning boost.
type VocabPhrase struct {
	Phrase string
	Boost  float64
}
