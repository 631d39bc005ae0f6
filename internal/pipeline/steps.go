package pipeline

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rbright/dictate/internal/config"
	"github.com/rbright/dictate/internal/ollama"
	"github.com/rbright/dictate/internal/voice"
)

// Step names, in the order Build places them.
const (
	StepVoiceCommands      = "voice_commands"
	StepAutoCapitalize     = "auto_capitalize"
	StepCustomReplacements = "custom_replacements"
	StepLLMCleanup         = "llm_cleanup"
)

// VoiceCommandStep rewrites spoken punctuation and editing commands.
type VoiceCommandStep struct {
	engine *voice.Engine
}

// NewVoiceCommandStep compiles the builtin vocabulary plus custom phrases.
func NewVoiceCommandStep(custom []config.VoiceCommand) *VoiceCommandStep {
	phrases := make([]voice.Phrase, 0, len(custom))
	for _, c := range custom {
		phrases = append(phrases, voice.Phrase{From: c.From, To: c.To})
	}
	return &VoiceCommandStep{engine: voice.NewEngine(phrases)}
}

func (s *VoiceCommandStep) Name() string { return StepVoiceCommands }

func (s *VoiceCommandStep) Apply(_ context.Context, in Context) Context {
	in.Text = s.engine.Apply(in.Text)
	return in
}

var (
	sentenceStart = regexp.MustCompile(`[.!?]\s+[a-z]`)
	lineStart     = regexp.MustCompile(`\n\s*[a-z]`)
)

// AutoCapitalizeStep uppercases the first letter of the text and of each
// sentence or line.
type AutoCapitalizeStep struct{}

func (AutoCapitalizeStep) Name() string { return StepAutoCapitalize }

func (AutoCapitalizeStep) Apply(_ context.Context, in Context) Context {
	in.Text = Capitalize(in.Text)
	return in
}

// Capitalize is idempotent: Capitalize(Capitalize(s)) == Capitalize(s).
func Capitalize(text string) string {
	if text == "" {
		return text
	}

	first, size := utf8.DecodeRuneInString(text)
	if upper := unicode.ToUpper(first); upper != first {
		text = string(upper) + text[size:]
	}

	text = sentenceStart.ReplaceAllStringFunc(text, upperLastByte)
	return lineStart.ReplaceAllStringFunc(text, upperLastByte)
}

// upperLastByte uppercases the trailing ASCII letter of a match.
func upperLastByte(match string) string {
	last := len(match) - 1
	return match[:last] + strings.ToUpper(match[last:])
}

type replacement struct {
	pattern     *regexp.Regexp
	replacement string
}

// CustomReplacementStep applies user regular-expression rules in order.
type CustomReplacementStep struct {
	rules []replacement
}

// NewCustomReplacementStep compiles rules once. Empty or invalid patterns are
// skipped so one bad rule never disables the rest.
func NewCustomReplacementStep(rules []config.ReplacementRule, logger *slog.Logger) *CustomReplacementStep {
	step := &CustomReplacementStep{}
	for i, rule := range rules {
		if rule.Pattern == "" {
			continue
		}
		pattern, err := regexp.Compile(rule.Pattern)
		if err != nil {
			if logger != nil {
				logger.Debug("skipping invalid custom replacement", "index", i, "pattern", rule.Pattern, "error", err.Error())
			}
			continue
		}
		step.rules = append(step.rules, replacement{pattern: pattern, replacement: rule.Replacement})
	}
	return step
}

func (s *CustomReplacementStep) Name() string { return StepCustomReplacements }

func (s *CustomReplacementStep) Apply(_ context.Context, in Context) Context {
	for _, rule := range s.rules {
		in.Text = rule.pattern.ReplaceAllString(in.Text, rule.replacement)
	}
	return in
}

// Generator produces an LLM completion. *ollama.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, req ollama.GenerateRequest) (ollama.GenerateResponse, error)
}

// LLMCleanupStep asks a local model to tidy the text. Failures keep the input.
type LLMCleanupStep struct {
	generator Generator
	model     string
	prompt    string
	timeout   time.Duration
	logger    *slog.Logger
}

// NewLLMCleanupStep builds the cleanup step against an Ollama endpoint.
func NewLLMCleanupStep(cfg config.LLMConfig, logger *slog.Logger) *LLMCleanupStep {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &LLMCleanupStep{
		generator: ollama.NewClient(cfg.Endpoint, timeout),
		model:     strings.TrimSpace(cfg.Model),
		prompt:    cfg.Prompt,
		timeout:   timeout,
		logger:    logger,
	}
}

func (s *LLMCleanupStep) Name() string { return StepLLMCleanup }

func (s *LLMCleanupStep) Apply(ctx context.Context, in Context) Context {
	if s.model == "" || strings.TrimSpace(in.Text) == "" {
		return in
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.generator.Generate(reqCtx, ollama.GenerateRequest{
		Model:  s.model,
		Prompt: s.prompt + "\n\n" + in.Text,
	})
	if err != nil {
		s.logWarn("llm cleanup failed; keeping text", "model", s.model, "error", err.Error())
		return in
	}

	cleaned := strings.TrimSpace(resp.Response)
	if cleaned == "" {
		s.logWarn("llm cleanup returned empty text; keeping text", "model", s.model)
		return in
	}
	in.Text = cleaned
	return in
}

func (s *LLMCleanupStep) logWarn(message string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Warn(message, args...)
}
