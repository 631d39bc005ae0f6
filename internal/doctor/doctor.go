// Package doctor runs runtime readiness diagnostics for config, tools, audio,
// the transcription server, and the optional LLM endpoint.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/rbright/dictate/internal/audio"
	"github.com/rbright/dictate/internal/config"
	"github.com/rbright/dictate/internal/hypr"
	"github.com/rbright/dictate/internal/ollama"
	"github.com/rbright/dictate/internal/transcribe"
)

const probeTimeout = 2 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded) Report {
	checks := []Check{configCheck(cfg)}

	checks = append(checks, checkEnv("XDG_SESSION_TYPE", func(v string) bool {
		return strings.EqualFold(strings.TrimSpace(v), "wayland")
	}, "session type is wayland", "expected XDG_SESSION_TYPE=wayland"))

	checks = append(checks, checkEnv(hypr.SignatureEnv, func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "Hyprland session detected", hypr.SignatureEnv+" is empty"))

	checks = append(checks, outputChecks(cfg.Config)...)
	checks = append(checks, checkAudioSelection(ctx, cfg.Config))
	checks = append(checks, checkTranscriber(ctx, cfg.Config.Transcriber))

	if cfg.Config.Pipeline.LLM.Enabled {
		checks = append(checks, checkLLM(ctx, cfg.Config.Pipeline.LLM))
	}

	return Report{Checks: checks}
}

func configCheck(cfg config.Loaded) Check {
	if !cfg.Exists {
		return Check{Name: "config", Pass: true, Message: fmt.Sprintf("no file at %q, using defaults", cfg.Path)}
	}
	message := fmt.Sprintf("loaded %q", cfg.Path)
	if n := len(cfg.Warnings); n > 0 {
		message = fmt.Sprintf("%s with %d warning(s)", message, n)
	}
	return Check{Name: "config", Pass: true, Message: message}
}

// outputChecks validates the tools the configured typing method needs.
func outputChecks(cfg config.Config) []Check {
	if cfg.Typing.Method == config.TypingType {
		return []Check{checkCommand(cfg.Typing.TypeCmd.Argv, "typing.type_cmd")}
	}

	checks := []Check{}
	if len(cfg.Clipboard.Argv) > 0 {
		checks = append(checks, checkCommand(cfg.Clipboard.Argv, "clipboard_cmd"))
	} else {
		checks = append(checks, checkSystemClipboard())
	}

	if cfg.Paste.Enable {
		if len(cfg.PasteCmd.Argv) > 0 {
			checks = append(checks, checkCommand(cfg.PasteCmd.Argv, "paste_cmd"))
		} else {
			checks = append(checks, checkBinary("hyprctl", "default paste path requires hyprctl"))
		}
	}
	return checks
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkSystemClipboard reports whether the built-in clipboard fallback has a
// backend (wl-copy, xclip, or xsel).
func checkSystemClipboard() Check {
	if clipboard.Unsupported {
		return Check{Name: "clipboard", Pass: false, Message: "clipboard_cmd is empty and no system clipboard tool was found"}
	}
	return Check{Name: "clipboard", Pass: true, Message: "using system clipboard"}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkTranscriber probes the transcription server health endpoint.
func checkTranscriber(ctx context.Context, cfg config.TranscriberConfig) Check {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return Check{Name: "transcriber", Pass: false, Message: "transcriber.endpoint is empty"}
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	client := transcribe.NewClient(cfg, nil)
	if err := client.Health(probeCtx); err != nil {
		return Check{Name: "transcriber", Pass: false, Message: err.Error()}
	}
	return Check{Name: "transcriber", Pass: true, Message: fmt.Sprintf("ready at %s (model %s)", cfg.Endpoint, client.Model())}
}

// checkLLM probes the Ollama endpoint used by the cleanup step.
func checkLLM(ctx context.Context, cfg config.LLMConfig) Check {
	if strings.TrimSpace(cfg.Model) == "" {
		return Check{Name: "pipeline.llm", Pass: false, Message: "pipeline.llm.model is empty"}
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := ollama.NewClient(cfg.Endpoint, probeTimeout).Ping(probeCtx); err != nil {
		return Check{Name: "pipeline.llm", Pass: false, Message: fmt.Sprintf("ollama unreachable at %s: %v", cfg.Endpoint, err)}
	}
	return Check{Name: "pipeline.llm", Pass: true, Message: fmt.Sprintf("ollama ready at %s (model %s)", cfg.Endpoint, cfg.Model)}
}
