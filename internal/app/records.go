package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rbright/dictate/internal/cli"
	"github.com/rbright/dictate/internal/config"
	"github.com/rbright/dictate/internal/history"
)

func (r Runner) commandHistory(cfg config.Config, opts cli.HistoryOptions) int {
	if !cfg.History.Enabled {
		fmt.Fprintln(r.Stderr, "warning: history.enabled is false; showing existing entries only")
	}

	store := history.NewStore(cfg.History.Path, cfg.History.MaxEntries)

	var (
		entries []history.Entry
		err     error
	)
	if query := strings.TrimSpace(opts.Search); query != "" {
		entries, err = store.Search(query)
		if err == nil && opts.Last > 0 && len(entries) > opts.Last {
			entries = entries[:opts.Last]
		}
	} else {
		entries, err = store.Recent(opts.Last)
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return exitFailure
	}

	if len(entries) == 0 {
		fmt.Fprintln(r.Stdout, "no history entries")
		return exitOK
	}
	for _, entry := range entries {
		fmt.Fprintln(r.Stdout, formatHistoryEntry(entry))
	}
	return exitOK
}

func formatHistoryEntry(entry history.Entry) string {
	var b strings.Builder
	b.WriteString(entry.Timestamp.Local().Format("2006-01-02 15:04:05"))
	if entry.Mode != "" {
		fmt.Fprintf(&b, " [%s]", entry.Mode)
	}
	if entry.Duration > 0 {
		fmt.Fprintf(&b, " (%.1fs)", entry.Duration)
	}
	b.WriteString("  ")
	b.WriteString(entry.Text)
	return b.String()
}

// commandConfigFile handles `config --init` and `config --path`, which must
// work even when the existing file does not parse.
func (r Runner) commandConfigFile(parsed cli.Parsed) int {
	if parsed.Config.Path {
		path, err := config.ResolvePath(parsed.Global.ConfigPath)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return exitFailure
		}
		fmt.Fprintln(r.Stdout, path)
		return exitOK
	}

	path, err := config.Init(parsed.Global.ConfigPath)
	if err != nil {
		if errors.Is(err, config.ErrConfigExists) {
			fmt.Fprintf(r.Stderr, "error: %s already exists; remove it first to regenerate\n", path)
			return exitFailure
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return exitFailure
	}
	fmt.Fprintf(r.Stdout, "wrote %s\n", path)
	return exitOK
}

// describeConfig renders the effective configuration as key = value lines.
func describeConfig(loaded config.Loaded) string {
	cfg := loaded.Config
	source := loaded.Path
	if !loaded.Exists {
		source += " (not found, defaults)"
	}

	rows := [][2]string{
		{"config", source},
		{"transcriber.endpoint", cfg.Transcriber.Endpoint + cfg.Transcriber.Path},
		{"transcriber.model", cfg.Transcriber.Model},
		{"transcriber.language", cfg.Transcriber.Language},
		{"transcriber.timeout", cfg.Transcriber.Timeout().String()},
		{"audio.input", cfg.Audio.Input},
		{"audio.fallback", cfg.Audio.Fallback},
		{"typing.method", cfg.Typing.Method},
		{"typing.type_cmd", cfg.Typing.TypeCmd.Raw},
		{"clipboard_cmd", orDefault(cfg.Clipboard.Raw, "(system clipboard)")},
		{"paste.enable", fmt.Sprint(cfg.Paste.Enable)},
		{"paste_cmd", orDefault(cfg.PasteCmd.Raw, "(hyprctl sendshortcut "+cfg.Paste.Shortcut+")")},
		{"output.trailing_space", fmt.Sprint(cfg.Output.TrailingSpace)},
		{"pipeline.voice_commands", fmt.Sprint(cfg.Pipeline.VoiceCommands && cfg.VoiceCommands.Enabled)},
		{"pipeline.auto_capitalize", fmt.Sprint(cfg.Pipeline.AutoCapitalize)},
		{"pipeline.custom_replacements", fmt.Sprint(len(cfg.Pipeline.CustomReplacements))},
		{"pipeline.llm", describeLLM(cfg.Pipeline.LLM)},
		{"voice_commands.custom", fmt.Sprint(len(cfg.VoiceCommands.Custom))},
		{"continuous.silence_threshold", fmt.Sprint(cfg.Continuous.SilenceThreshold)},
		{"continuous.silence_duration", cfg.Continuous.SilenceWindow().String()},
		{"continuous.max_chunk_duration", cfg.Continuous.MaxChunk().String()},
		{"continuous.metrics_addr", orDefault(cfg.Continuous.MetricsAddr, "(disabled)")},
		{"profiles", fmt.Sprintf("enabled=%t rules=%d", cfg.Profiles.Enabled, len(cfg.Profiles.Rules))},
		{"history", fmt.Sprintf("enabled=%t path=%s max_entries=%d", cfg.History.Enabled, cfg.History.Path, cfg.History.MaxEntries)},
		{"indicator", fmt.Sprintf("enable=%t backend=%s sound=%t", cfg.Indicator.Enable, cfg.Indicator.Backend, cfg.Indicator.SoundEnable)},
		{"vocab.global", orDefault(strings.Join(cfg.Vocab.GlobalSets, ", "), "(none)")},
		{"debug.audio_dump", fmt.Sprint(cfg.Debug.EnableAudioDump)},
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row[0]))
	}

	var b strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&b, "%-*s = %s\n", width, row[0], row[1])
	}
	return b.String()
}

func describeLLM(cfg config.LLMConfig) string {
	if !cfg.Enabled {
		return "disabled"
	}
	return fmt.Sprintf("%s via %s (timeout %s)", cfg.Model, cfg.Endpoint, cfg.Timeout())
}

func orDefault(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
