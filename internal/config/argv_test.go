package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitArgv(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr string
	}{
		{name: "empty", input: "", want: nil},
		{name: "simple", input: "wl-copy --trim-newline", want: []string{"wl-copy", "--trim-newline"}},
		{name: "collapses whitespace", input: "  wtype \t - ", want: []string{"wtype", "-"}},
		{name: "double quotes", input: `ydotool type "hello world"`, want: []string{"ydotool", "type", "hello world"}},
		{name: "single quotes are literal", input: `printf '%s\n'`, want: []string{"printf", `%s\n`}},
		{name: "escaped quote in double quotes", input: `echo "say \"hi\""`, want: []string{"echo", `say "hi"`}},
		{name: "other escapes in double quotes kept", input: `echo "a\tb"`, want: []string{"echo", `a\tb`}},
		{name: "escaped space", input: `mycmd hello\ world`, want: []string{"mycmd", "hello world"}},
		{name: "empty quoted argument", input: `xdotool type ''`, want: []string{"xdotool", "type", ""}},
		{name: "adjacent quoting joins", input: `a"b c"'d'`, want: []string{"ab cd"}},
		{name: "leading comment", input: `# wl-copy --trim-newline`, want: nil},
		{name: "unterminated double quote", input: `mycmd "oops`, wantErr: "unterminated quote"},
		{name: "unterminated single quote", input: `mycmd 'oops`, wantErr: "unterminated quote"},
		{name: "unterminated escape", input: `mycmd hello\`, wantErr: "unterminated escape"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := splitArgv(tc.input)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestSplitArgvExpandsHomeOnProgramOnly(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := splitArgv("~/bin/paste ~/notes")
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(home, "bin", "paste"), "~/notes"}, got)
}

func TestParseCommandNamesKeyOnError(t *testing.T) {
	_, err := parseCommand("clipboard_cmd", `wl-copy "`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid clipboard_cmd")

	cmd, err := parseCommand("paste_cmd", "hyprctl dispatch sendshortcut CTRL,V,")
	require.NoError(t, err)
	require.Equal(t, "hyprctl dispatch sendshortcut CTRL,V,", cmd.Raw)
	require.Len(t, cmd.Argv, 4)
}

func TestMustCommandPanicsOnInvalidInput(t *testing.T) {
	require.Panics(t, func() {
		_ = mustCommand(`mycmd "unterminated`)
	})
}
