package config

import (
	"fmt"
	"strings"
	"unicode"
)

type argvState int

const (
	argvPlain argvState = iota
	argvEscape
	argvSingle
	argvDouble
	argvDoubleEscape
)

// splitArgv splits a command line using POSIX shell quoting. Single quotes
// are literal; inside double quotes a backslash only escapes `"` and `\`.
// Nothing is expanded except a leading ~ on the program path. Blank input and
// commented-out commands yield nil.
func splitArgv(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "#") {
		return nil, nil
	}

	var (
		argv   []string
		word   strings.Builder
		inWord bool
		state  = argvPlain
	)

	for _, r := range input {
		switch state {
		case argvEscape:
			word.WriteRune(r)
			state = argvPlain
		case argvSingle:
			if r == '\'' {
				state = argvPlain
			} else {
				word.WriteRune(r)
			}
		case argvDouble:
			switch r {
			case '"':
				state = argvPlain
			case '\\':
				state = argvDoubleEscape
			default:
				word.WriteRune(r)
			}
		case argvDoubleEscape:
			if r != '"' && r != '\\' {
				word.WriteRune('\\')
			}
			word.WriteRune(r)
			state = argvDouble
		default:
			switch {
			case unicode.IsSpace(r):
				if inWord {
					argv = append(argv, word.String())
					word.Reset()
					inWord = false
				}
				continue
			case r == '\\':
				state = argvEscape
			case r == '\'':
				state = argvSingle
			case r == '"':
				state = argvDouble
			default:
				word.WriteRune(r)
			}
		}
		inWord = true
	}

	switch state {
	case argvEscape:
		return nil, fmt.Errorf("unterminated escape sequence in command: %q", input)
	case argvSingle, argvDouble, argvDoubleEscape:
		return nil, fmt.Errorf("unterminated quote in command: %q", input)
	}
	if inWord {
		argv = append(argv, word.String())
	}

	argv[0] = expandHome(argv[0])
	return argv, nil
}

func parseCommand(key string, raw string) (CommandConfig, error) {
	argv, err := splitArgv(raw)
	if err != nil {
		return CommandConfig{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return CommandConfig{Raw: raw, Argv: argv}, nil
}

// mustCommand is for built-in defaults only.
func mustCommand(raw string) CommandConfig {
	cmd, err := parseCommand("default command", raw)
	if err != nil {
		panic(err)
	}
	return cmd
}
