// Package cli defines the dictate command tree and parses arguments into an
// invocation without running it.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rbright/dictate/internal/config"
)

type Command string

const (
	CommandToggle     Command = "toggle"
	CommandStop       Command = "stop"
	CommandCancel     Command = "cancel"
	CommandStatus     Command = "status"
	CommandContinuous Command = "continuous"
	CommandHistory    Command = "history"
	CommandConfig     Command = "config"
	CommandDevices    Command = "devices"
	CommandDoctor     Command = "doctor"
	CommandVersion    Command = "version"
	CommandHelp       Command = "help"
)

// Global holds flags accepted by every command.
type Global struct {
	ConfigPath   string
	TypingMethod string
	NoPipeline   bool
	Verbose      bool
}

// HistoryOptions selects what `history` prints.
type HistoryOptions struct {
	Last   int
	Search string
}

// ConfigOptions selects what `config` does.
type ConfigOptions struct {
	Init bool
	Path bool
	Show bool
}

// ContinuousOptions tunes `continuous`.
type ContinuousOptions struct {
	MetricsAddr string
}

// Parsed is one resolved invocation.
type Parsed struct {
	Command    Command
	ShowHelp   bool
	Help       string
	Global     Global
	History    HistoryOptions
	Config     ConfigOptions
	Continuous ContinuousOptions
}

// Overrides returns the config overrides carried by global flags.
func (p Parsed) Overrides() config.Overrides {
	return config.Overrides{
		TypingMethod: p.Global.TypingMethod,
		NoPipeline:   p.Global.NoPipeline,
	}
}

const defaultHistoryLast = 10

// Parse resolves args against the command tree. Errors are usage errors.
func Parse(args []string) (Parsed, error) {
	parsed := Parsed{}
	root := newRoot("dictate", &parsed)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		return Parsed{}, err
	}
	if parsed.Command == "" {
		parsed.Command = CommandHelp
		parsed.ShowHelp = true
		parsed.Help = root.UsageString()
	}
	return parsed, nil
}

// HelpText renders top-level usage.
func HelpText(binaryName string) string {
	return newRoot(binaryName, &Parsed{}).UsageString()
}

func newRoot(binaryName string, parsed *Parsed) *cobra.Command {
	var showVersion bool

	root := &cobra.Command{
		Use:   binaryName,
		Short: "Push-to-talk and continuous dictation for Wayland",
		Long: `dictate records speech, sends it to a whisper transcription server, cleans
the transcript up (spoken punctuation, capitalization, replacements, optional
LLM pass), and types or pastes the result into the focused window.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				parsed.Command = CommandVersion
				return nil
			}
			parsed.Command = CommandHelp
			parsed.ShowHelp = true
			parsed.Help = cmd.UsageString()
			return nil
		},
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return validateGlobal(parsed.Global)
		},
	}
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetHelpFunc(func(cmd *cobra.Command, _ []string) {
		parsed.Command = CommandHelp
		parsed.ShowHelp = true
		parsed.Help = cmd.UsageString()
	})
	root.CompletionOptions.DisableDefaultCmd = true

	flags := root.PersistentFlags()
	flags.StringVar(&parsed.Global.ConfigPath, "config", "", "config file path (default: $XDG_CONFIG_HOME/dictate/config.jsonc)")
	flags.StringVar(&parsed.Global.TypingMethod, "typing-method", "", "override typing.method (clipboard|type)")
	flags.BoolVar(&parsed.Global.NoPipeline, "no-pipeline", false, "deliver raw transcripts without post-processing")
	flags.BoolVarP(&parsed.Global.Verbose, "verbose", "v", false, "debug logging")
	root.Flags().BoolVar(&showVersion, "version", false, "show version")

	root.AddCommand(
		leaf(parsed, CommandToggle, "Start recording, or stop and commit when already recording"),
		leaf(parsed, CommandStop, "Stop the active recording and commit the transcript"),
		leaf(parsed, CommandCancel, "Cancel the active recording and discard audio"),
		leaf(parsed, CommandStatus, "Print the current session state"),
		continuousCommand(parsed),
		historyCommand(parsed),
		configCommand(parsed),
		leaf(parsed, CommandDevices, "List available input devices"),
		leaf(parsed, CommandDoctor, "Run configuration and environment checks"),
		leaf(parsed, CommandVersion, "Print version information"),
	)
	return root
}

func leaf(parsed *Parsed, command Command, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(command),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			parsed.Command = command
			return nil
		},
	}
}

func continuousCommand(parsed *Parsed) *cobra.Command {
	cmd := leaf(parsed, CommandContinuous, "Dictate hands-free, cutting segments at pauses")
	cmd.Flags().StringVar(&parsed.Continuous.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides continuous.metrics_addr)")
	return cmd
}

func historyCommand(parsed *Parsed) *cobra.Command {
	cmd := leaf(parsed, CommandHistory, "Show recent dictations")
	cmd.Flags().IntVarP(&parsed.History.Last, "last", "n", defaultHistoryLast, "number of entries to show (0 for all)")
	cmd.Flags().StringVarP(&parsed.History.Search, "search", "s", "", "case-insensitive text search")
	cmd.RunE = func(*cobra.Command, []string) error {
		if parsed.History.Last < 0 {
			return fmt.Errorf("--last must not be negative, got %d", parsed.History.Last)
		}
		parsed.Command = CommandHistory
		return nil
	}
	return cmd
}

func configCommand(parsed *Parsed) *cobra.Command {
	cmd := leaf(parsed, CommandConfig, "Create, locate, or show the config file")
	cmd.Flags().BoolVar(&parsed.Config.Init, "init", false, "write a commented default config")
	cmd.Flags().BoolVar(&parsed.Config.Path, "path", false, "print the resolved config path")
	cmd.Flags().BoolVar(&parsed.Config.Show, "show", false, "print the effective configuration")
	cmd.MarkFlagsMutuallyExclusive("init", "path", "show")
	cmd.RunE = func(*cobra.Command, []string) error {
		if !parsed.Config.Init && !parsed.Config.Path && !parsed.Config.Show {
			parsed.Config.Show = true
		}
		parsed.Command = CommandConfig
		return nil
	}
	return cmd
}

func validateGlobal(global Global) error {
	method := strings.ToLower(strings.TrimSpace(global.TypingMethod))
	switch method {
	case "", config.TypingClipboard, config.TypingType:
		return nil
	default:
		return errors.New("--typing-method must be clipboard or type")
	}
}
