package profile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/dictate/internal/config"
)

func ptr[T any](v T) *T { return &v }

func terminalProfiles() config.ProfilesConfig {
	return config.ProfilesConfig{
		Enabled: true,
		Rules: []config.ProfileRule{
			{WindowClass: ""},
			{WindowClass: "(unclosed"},
			{WindowClass: "term", TypingMethod: ptr("type"), AutoCapitalize: ptr(false)},
			{WindowClass: "xterm", TypingMethod: ptr("clipboard")},
		},
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	got := Resolve(terminalProfiles(), "xterm")
	require.NotNil(t, got.TypingMethod)
	require.Equal(t, "type", *got.TypingMethod)
	require.NotNil(t, got.AutoCapitalize)
	require.False(t, *got.AutoCapitalize)
	require.Nil(t, got.VoiceCommands)
	require.Equal(t, "term", got.Rule)
}

func TestResolveIsCaseInsensitiveSubstring(t *testing.T) {
	got := Resolve(terminalProfiles(), "Gnome-Terminal")
	require.False(t, got.Empty())
	require.Equal(t, "type", *got.TypingMethod)
}

func TestResolveNoMatch(t *testing.T) {
	require.True(t, Resolve(terminalProfiles(), "firefox").Empty())
}

func TestResolveDisabledOrEmptyClass(t *testing.T) {
	cfg := terminalProfiles()
	require.True(t, Resolve(cfg, "").Empty())

	cfg.Enabled = false
	require.True(t, Resolve(cfg, "kitty-term").Empty())
}

func TestResolveRegexPatterns(t *testing.T) {
	cfg := config.ProfilesConfig{
		Enabled: true,
		Rules: []config.ProfileRule{
			{WindowClass: "^(kitty|alacritty)$", VoiceCommands: ptr(false)},
		},
	}
	got := Resolve(cfg, "Alacritty")
	require.NotNil(t, got.VoiceCommands)
	require.False(t, *got.VoiceCommands)
	require.True(t, Resolve(cfg, "kitty-dev").Empty())
}

func TestNilMatcherMatchesNothing(t *testing.T) {
	var m *Matcher
	require.True(t, m.Match("kitty").Empty())
}
