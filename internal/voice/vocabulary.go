// Package voice rewrites spoken punctuation and editing commands in dictated text.
package voice

import "strings"

// Kind classifies how a replacement is spaced against surrounding text.
type Kind int

const (
	// KindLiteral is padded with a space on both sides.
	KindLiteral Kind = iota
	// KindAttachLeft binds to the preceding word (". , ? ! : ;").
	KindAttachLeft
	// KindWhitespace is emitted verbatim (newline, blank line, tab).
	KindWhitespace
	// KindOpen takes a leading space only ("(" and the quote glyph).
	KindOpen
	// KindClose takes a trailing space only.
	KindClose
)

func (k Kind) String() string {
	switch k {
	case KindAttachLeft:
		return "attach-left"
	case KindWhitespace:
		return "whitespace"
	case KindOpen:
		return "bracket-open"
	case KindClose:
		return "bracket-close"
	default:
		return "literal"
	}
}

// Phrase maps a spoken phrase to replacement text.
type Phrase struct {
	From string
	To   string
}

// Builtin is the default spoken-punctuation table keyed by lowercase phrase.
var Builtin = map[string]string{
	"period":            ".",
	"full stop":         ".",
	"comma":             ",",
	"question mark":     "?",
	"exclamation mark":  "!",
	"exclamation point": "!",
	"colon":             ":",
	"semicolon":         ";",
	"dash":              "—",
	"hyphen":            "-",
	"ellipsis":          "...",
	"open quote":        "\"",
	"close quote":       "\"",
	"open paren":        "(",
	"close paren":       ")",
	"new line":          "\n",
	"new paragraph":     "\n\n",
	"tab":               "\t",
	"ampersand":         "&",
	"at sign":           "@",
	"hashtag":           "#",
	"dollar sign":       "$",
	"percent sign":      "%",
	"asterisk":          "*",
	"underscore":        "_",
	"plus sign":         "+",
	"equals sign":       "=",
	"slash":             "/",
	"backslash":         "\\",
}

// ActionPhrases delete the clause spoken immediately before them.
var ActionPhrases = []string{"delete that", "scratch that", "undo that"}

// Vocabulary merges Builtin with custom phrases. Custom entries win on a
// case-insensitive key collision; blank phrases are ignored.
func Vocabulary(custom []Phrase) map[string]string {
	merged := make(map[string]string, len(Builtin)+len(custom))
	for phrase, replacement := range Builtin {
		merged[phrase] = replacement
	}
	for _, p := range custom {
		key := strings.ToLower(strings.TrimSpace(p.From))
		if key == "" {
			continue
		}
		merged[key] = p.To
	}
	return merged
}

// Classify reports the spacing class of a replacement.
func Classify(replacement string) Kind {
	switch replacement {
	case ".", ",", "?", "!", ":", ";":
		return KindAttachLeft
	case "\n", "\n\n", "\t":
		return KindWhitespace
	case "(", "\"":
		return KindOpen
	case ")":
		return KindClose
	default:
		return KindLiteral
	}
}

// closes reports whether an opening glyph also serves as a closing one.
func closes(replacement string) bool {
	return replacement == ")" || replacement == "\""
}
