package voice

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	actionPattern = compileActionPattern()

	collapseSpaces   = regexp.MustCompile(`[ \t]{2,}`)
	spaceBeforePunct = regexp.MustCompile(` +([.,?!:;])`)
	spaceBeforeBreak = regexp.MustCompile(` +\n`)
	spaceAfterParen  = regexp.MustCompile(`\( `)
	spaceBeforeParen = regexp.MustCompile(` \)`)
)

// Engine applies a compiled vocabulary. It is immutable and safe for
// concurrent use.
type Engine struct {
	vocab   map[string]string
	pattern *regexp.Regexp
}

// NewEngine compiles the builtin vocabulary merged with custom phrases.
func NewEngine(custom []Phrase) *Engine {
	vocab := Vocabulary(custom)

	phrases := make([]string, 0, len(vocab))
	for phrase := range vocab {
		phrases = append(phrases, phrase)
	}
	// Longest first so "new paragraph" wins over shorter overlapping keys.
	sort.Slice(phrases, func(i, j int) bool {
		if len(phrases[i]) != len(phrases[j]) {
			return len(phrases[i]) > len(phrases[j])
		}
		return phrases[i] < phrases[j]
	})

	alternatives := make([]string, len(phrases))
	for i, phrase := range phrases {
		alternatives[i] = regexp.QuoteMeta(phrase)
	}

	// RE2's \b only knows ASCII word characters, so the trailing edge is
	// matched as a non-word rune and the leading edge checked in substitute.
	return &Engine{
		vocab:   vocab,
		pattern: regexp.MustCompile(`(?i)\s*(` + strings.Join(alternatives, "|") + `)(?:[^\p{L}\p{M}\p{N}_]|$)`),
	}
}

// Apply rewrites text using the builtin vocabulary merged with custom.
func Apply(text string, custom []Phrase) string {
	return NewEngine(custom).Apply(text)
}

// Apply runs the action pass, the substitution pass, and spacing cleanup.
func (e *Engine) Apply(text string) string {
	if text == "" {
		return text
	}

	text = applyActions(text)
	text = e.substitute(text)
	return normalize(text)
}

// Lookup returns the replacement for a spoken phrase.
func (e *Engine) Lookup(phrase string) (string, bool) {
	replacement, ok := e.vocab[strings.ToLower(strings.TrimSpace(phrase))]
	return replacement, ok
}

func compileActionPattern() *regexp.Regexp {
	quoted := make([]string, len(ActionPhrases))
	for i, phrase := range ActionPhrases {
		quoted[i] = regexp.QuoteMeta(phrase)
	}
	return regexp.MustCompile(`(?i)` + strings.Join(quoted, "|"))
}

func applyActions(text string) string {
	// Every pass removes at least one phrase, bounding the loop by input length.
	for limit := len(text); limit >= 0; limit-- {
		loc := actionPattern.FindStringIndex(text)
		if loc == nil {
			break
		}
		before := removeLastClause(strings.TrimRightFunc(text[:loc[0]], unicode.IsSpace))
		after := strings.TrimLeftFunc(text[loc[1]:], unicode.IsSpace)
		text = before + after
	}
	return text
}

// removeLastClause keeps text through the last sentence or line boundary.
func removeLastClause(text string) string {
	text = strings.TrimRightFunc(text, unicode.IsSpace)
	if text == "" {
		return ""
	}
	idx := strings.LastIndexAny(text, ".!?\n")
	switch {
	case idx < 0:
		return ""
	case text[idx] == '\n':
		return text[:idx+1]
	default:
		return text[:idx+1] + " "
	}
}

func (e *Engine) substitute(text string) string {
	var out strings.Builder
	out.Grow(len(text))
	last, pos := 0, 0
	for pos < len(text) {
		loc := e.pattern.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start, phraseStart, phraseEnd := pos+loc[0], pos+loc[2], pos+loc[3]
		if !wordEdge(text, phraseStart) {
			_, size := utf8.DecodeRuneInString(text[phraseStart:])
			pos = phraseStart + size
			continue
		}
		end := len(text) - len(strings.TrimLeft(text[phraseEnd:], asciiSpace))

		out.WriteString(text[last:start])
		out.WriteString(e.render(text[phraseStart:phraseEnd], start == 0))
		last, pos = end, end
	}
	if last == 0 {
		return text
	}
	out.WriteString(text[last:])
	return out.String()
}

// asciiSpace is the set RE2 matches with \s.
const asciiSpace = " \t\n\v\f\r"

// wordEdge reports whether a phrase may start at byte offset i.
func wordEdge(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsNumber(r)
}

func (e *Engine) render(matched string, atStart bool) string {
	replacement, ok := e.Lookup(matched)
	if !ok {
		replacement = matched
	}

	switch Classify(replacement) {
	case KindAttachLeft:
		return replacement + " "
	case KindWhitespace:
		return replacement
	case KindOpen:
		if !atStart {
			return " " + replacement
		}
		// The quote glyph opens and closes; at text start it renders as a closer.
		if closes(replacement) {
			return replacement + " "
		}
		return replacement
	case KindClose:
		return replacement + " "
	default:
		return " " + replacement + " "
	}
}

func normalize(text string) string {
	text = collapseSpaces.ReplaceAllString(text, " ")
	text = spaceBeforePunct.ReplaceAllString(text, "$1")
	text = spaceBeforeBreak.ReplaceAllString(text, "\n")
	text = spaceAfterParen.ReplaceAllString(text, "(")
	text = spaceBeforeParen.ReplaceAllString(text, ")")
	return strings.TrimSpace(text)
}
