package config

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// backslashGroup finds sed-style group references, which Go expands literally.
var backslashGroup = regexp.MustCompile(`\\[0-9]`)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if err := validateTranscriber(cfg.Transcriber); err != nil {
		return nil, err
	}

	switch cfg.Typing.Method {
	case TypingClipboard:
	case TypingType:
		if len(cfg.Typing.TypeCmd.Argv) == 0 {
			return nil, fmt.Errorf("typing.type_cmd must not be empty when typing.method=type")
		}
	default:
		return nil, fmt.Errorf("typing.method must be one of: clipboard, type")
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Indicator.Backend))
	if backend == "" {
		return nil, fmt.Errorf("indicator.backend must not be empty")
	}
	if backend != "hypr" && backend != "desktop" {
		return nil, fmt.Errorf("indicator.backend must be one of: hypr, desktop")
	}
	if backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.Height <= 0 {
		return nil, fmt.Errorf("indicator.height must be > 0")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}
	if cfg.Vocab.MaxPhrases <= 0 {
		return nil, fmt.Errorf("vocab.max_phrases must be > 0")
	}
	if cfg.Clipboard.Raw != "" && len(cfg.Clipboard.Argv) == 0 {
		return nil, fmt.Errorf("clipboard_cmd is configured but empty")
	}

	if cfg.Paste.Enable && cfg.PasteCmd.Raw != "" && len(cfg.PasteCmd.Argv) == 0 {
		return nil, fmt.Errorf("paste_cmd is configured but empty")
	}
	if cfg.Paste.Enable && len(cfg.PasteCmd.Argv) == 0 && strings.TrimSpace(cfg.Paste.Shortcut) == "" {
		return nil, fmt.Errorf("paste.shortcut must not be empty when paste.enable=true and paste_cmd is unset")
	}

	llmWarnings, err := validateLLM(cfg.Pipeline.LLM)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, llmWarnings...)

	for i, rule := range cfg.Pipeline.CustomReplacements {
		if rule.Pattern == "" {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("pipeline.custom_replacements[%d] has an empty pattern; rule is ignored", i)})
			continue
		}
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("pipeline.custom_replacements[%d] pattern %q is invalid; rule is ignored: %v", i, rule.Pattern, err)})
			continue
		}
		if backslashGroup.MatchString(rule.Replacement) {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("pipeline.custom_replacements[%d] replacement %q uses \\N group references; write $N instead", i, rule.Replacement)})
		}
	}

	if err := validateContinuous(cfg.Continuous); err != nil {
		return nil, err
	}

	for i, rule := range cfg.Profiles.Rules {
		if rule.WindowClass == "" {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("profiles.rules[%d] has an empty window_class; rule is ignored", i)})
		} else if _, err := regexp.Compile(rule.WindowClass); err != nil {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("profiles.rules[%d] window_class %q is invalid; rule is ignored: %v", i, rule.WindowClass, err)})
		}
		if rule.TypingMethod != nil && *rule.TypingMethod != TypingClipboard && *rule.TypingMethod != TypingType {
			return nil, fmt.Errorf("profiles.rules[%d].typing_method must be one of: clipboard, type", i)
		}
	}

	if cfg.History.Enabled {
		if strings.TrimSpace(cfg.History.Path) == "" {
			return nil, fmt.Errorf("history.path must not be empty when history.enabled=true")
		}
		if cfg.History.MaxEntries <= 0 {
			return nil, fmt.Errorf("history.max_entries must be > 0")
		}
	}

	_, vocabWarnings, err := BuildVocabPhrases(cfg)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, vocabWarnings...)

	return warnings, nil
}

func validateTranscriber(t TranscriberConfig) error {
	if err := validateHTTPEndpoint("transcriber.endpoint", t.Endpoint); err != nil {
		return err
	}
	if !strings.HasPrefix(t.Path, "/") {
		return fmt.Errorf("transcriber.path must start with '/'")
	}
	if !strings.HasPrefix(t.HealthPath, "/") {
		return fmt.Errorf("transcriber.health_path must start with '/'")
	}
	if strings.TrimSpace(t.Model) == "" {
		return fmt.Errorf("transcriber.model must not be empty")
	}
	if t.TimeoutMS <= 0 {
		return fmt.Errorf("transcriber.timeout_ms must be > 0")
	}
	if t.Retries < 0 {
		return fmt.Errorf("transcriber.retries must be >= 0")
	}
	return nil
}

func validateLLM(llm LLMConfig) ([]Warning, error) {
	if !llm.Enabled {
		return nil, nil
	}
	if err := validateHTTPEndpoint("pipeline.llm.endpoint", llm.Endpoint); err != nil {
		return nil, err
	}
	if llm.TimeoutMS <= 0 {
		return nil, fmt.Errorf("pipeline.llm.timeout_ms must be > 0")
	}
	if strings.TrimSpace(llm.Model) == "" {
		return []Warning{{Message: "pipeline.llm.enabled=true but pipeline.llm.model is empty; cleanup is skipped"}}, nil
	}
	return nil, nil
}

func validateContinuous(c ContinuousConfig) error {
	if c.SilenceThreshold < 0 || c.SilenceThreshold > 1 {
		return fmt.Errorf("continuous.silence_threshold must be within [0, 1]")
	}
	if c.SilenceDuration <= 0 {
		return fmt.Errorf("continuous.silence_duration must be > 0")
	}
	if c.MaxChunkDuration <= 0 {
		return fmt.Errorf("continuous.max_chunk_duration must be > 0")
	}
	return nil
}

func validateHTTPEndpoint(key string, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%s must not be empty", key)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", key)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", key)
	}
	return nil
}

// BuildVocabPhrases merges enabled vocab sets into a deterministic hint list.
//
// Duplicate phrases keep the highest boost. The result is ordered by boost
// descending, then phrase.
func BuildVocabPhrases(cfg Config) ([]VocabPhrase, []Warning, error) {
	enabledSets := cfg.Vocab.GlobalSets
	if len(enabledSets) == 0 {
		return nil, nil, nil
	}

	type candidate struct {
		boost float64
		from  string
	}

	warnings := make([]Warning, 0)
	selected := make(map[string]candidate)

	for _, name := range enabledSets {
		set, ok := cfg.Vocab.Sets[name]
		if !ok {
			return nil, nil, fmt.Errorf("vocab.global references unknown set %q", name)
		}
		for _, phrase := range set.Phrases {
			phrase = strings.TrimSpace(phrase)
			if phrase == "" {
				continue
			}
			if existing, exists := selected[phrase]; exists {
				if set.Boost > existing.boost {
					warnings = append(warnings, Warning{Message: fmt.Sprintf("phrase %q present in %q and %q; using higher boost %.2f", phrase, existing.from, name, set.Boost)})
					selected[phrase] = candidate{boost: set.Boost, from: name}
				}
				continue
			}
			selected[phrase] = candidate{boost: set.Boost, from: name}
		}
	}

	if len(selected) > cfg.Vocab.MaxPhrases {
		return nil, nil, fmt.Errorf("vocabulary phrase count %d exceeds vocab.max_phrases=%d", len(selected), cfg.Vocab.MaxPhrases)
	}

	phrases := make([]VocabPhrase, 0, len(selected))
	for phrase, c := range selected {
		phrases = append(phrases, VocabPhrase{Phrase: phrase, Boost: c.boost})
	}

	sort.Slice(phrases, func(i, j int) bool {
		if phrases[i].Boost == phrases[j].Boost {
			return phrases[i].Phrase < phrases[j].Phrase
		}
		return phrases[i].Boost > phrases[j].Boost
	})

	return phrases, warnings, nil
}
