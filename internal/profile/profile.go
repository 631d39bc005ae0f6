// Package profile resolves per-application pipeline and output overrides.
package profile

import (
	"regexp"

	"github.com/rbright/dictate/internal/config"
)

// Overrides holds the fields a matching rule sets. Nil means "not overridden".
type Overrides struct {
	TypingMethod   *string
	AutoCapitalize *bool
	VoiceCommands  *bool
	// Rule is the window-class pattern that matched, empty when none did.
	Rule string
}

// Empty reports whether no override field is set.
func (o Overrides) Empty() bool {
	return o.TypingMethod == nil && o.AutoCapitalize == nil && o.VoiceCommands == nil
}

// Matcher holds precompiled profile rules. It is immutable and safe for
// concurrent use.
type Matcher struct {
	enabled bool
	rules   []compiledRule
}

type compiledRule struct {
	pattern *regexp.Regexp
	rule    config.ProfileRule
}

// NewMatcher compiles cfg rules. Rules with empty or invalid patterns are dropped.
func NewMatcher(cfg config.ProfilesConfig) *Matcher {
	m := &Matcher{enabled: cfg.Enabled}
	for _, rule := range cfg.Rules {
		if rule.WindowClass == "" {
			continue
		}
		pattern, err := regexp.Compile("(?i)" + rule.WindowClass)
		if err != nil {
			continue
		}
		m.rules = append(m.rules, compiledRule{pattern: pattern, rule: rule})
	}
	return m
}

// Match returns the overrides of the first rule whose pattern occurs anywhere
// in windowClass.
func (m *Matcher) Match(windowClass string) Overrides {
	if m == nil || !m.enabled || windowClass == "" {
		return Overrides{}
	}
	for _, compiled := range m.rules {
		if !compiled.pattern.MatchString(windowClass) {
			continue
		}
		return Overrides{
			TypingMethod:   compiled.rule.TypingMethod,
			AutoCapitalize: compiled.rule.AutoCapitalize,
			VoiceCommands:  compiled.rule.VoiceCommands,
			Rule:           compiled.rule.WindowClass,
		}
	}
	return Overrides{}
}

// Resolve compiles cfg and matches windowClass in one call.
func Resolve(cfg config.ProfilesConfig, windowClass string) Overrides {
	return NewMatcher(cfg).Match(windowClass)
}
