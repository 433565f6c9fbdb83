package highlight

import (
	"strings"
	"unicode/utf8"
)

// matcher reports how many bytes of line, starting at pos, a rule
// consumes (0 for no match) and the state to carry when the construct
// is still open at the end of the line.
type matcher func(line string, pos int) (int, ScanState)

// Rule is one entry of the ordered rule table.
type Rule struct {
	Name     string
	Category Category
	match    matcher
}

// Rules is evaluated in order at every position; the first match wins.
var Rules = []Rule{
	{Name: "line-comment", Category: Comment, match: matchLineComment},
	{Name: "block-comment", Category: Comment, match: matchBlockComment},
	{Name: "heading", Category: Heading, match: matchHeading},
	{Name: "strong", Category: Strong, match: spanMatcher('*', StateStrong)},
	{Name: "emphasis", Category: Emphasis, match: spanMatcher('_', StateEmphasis)},
	{Name: "literal", Category: Literal, match: spanMatcher('`', StateLiteral)},
	{Name: "directive", Category: Directive, match: matchDirective},
	{Name: "math", Category: MathSpan, match: spanMatcher('$', StateMath)},
	{Name: "bracket", Category: Bracket, match: matchBracket},
}

// closers describe how a carried state ends on a following line.
var closers = map[ScanState]struct {
	marker   string
	category Category
}{
	StateBlockComment: {"*/", Comment},
	StateStrong:       {"*", Strong},
	StateEmphasis:     {"_", Emphasis},
	StateLiteral:      {"`", Literal},
	StateMath:         {"$", MathSpan},
}

// TokenizeLine splits line into categorized tokens, starting in state.
// The returned tokens are sorted, non-overlapping and cover the line.
// The returned state must be passed when tokenizing the next line.
func TokenizeLine(line string, state ScanState) ([]Token, ScanState) {
	var tokens []Token
	pos := 0

	if c, ok := closers[state]; ok {
		idx := strings.Index(line, c.marker)
		if idx < 0 {
			if line != "" {
				tokens = append(tokens, Token{Start: 0, End: len(line), Category: c.category})
			}
			return tokens, state
		}
		pos = idx + len(c.marker)
		tokens = append(tokens, Token{Start: 0, End: pos, Category: c.category})
	}
	state = StateNormal

	for pos < len(line) {
		matched := false
		for _, r := range Rules {
			n, next := r.match(line, pos)
			if n == 0 {
				continue
			}
			tokens = appendToken(tokens, Token{Start: pos, End: pos + n, Category: r.Category})
			pos += n
			state = next
			matched = true
			break
		}
		if !matched {
			_, size := utf8.DecodeRuneInString(line[pos:])
			tokens = appendToken(tokens, Token{Start: pos, End: pos + size, Category: Plain})
			pos += size
		}
	}
	return tokens, state
}

// Tokenize tokenizes a whole buffer, one token slice per line.
func Tokenize(buffer string) [][]Token {
	lines := strings.Split(buffer, "\n")
	out := make([][]Token, len(lines))
	state := StateNormal
	for i, line := range lines {
		out[i], state = TokenizeLine(line, state)
	}
	return out
}

// appendToken merges adjacent plain tokens.
func appendToken(tokens []Token, t Token) []Token {
	if t.Category == Plain && len(tokens) > 0 {
		last := &tokens[len(tokens)-1]
		if last.Category == Plain && last.End == t.Start {
			last.End = t.End
			return tokens
		}
	}
	return append(tokens, t)
}

func matchLineComment(line string, pos int) (int, ScanState) {
	if strings.HasPrefix(line[pos:], "//") {
		return len(line) - pos, StateNormal
	}
	return 0, StateNormal
}

func matchBlockComment(line string, pos int) (int, ScanState) {
	if !strings.HasPrefix(line[pos:], "/*") {
		return 0, StateNormal
	}
	if idx := strings.Index(line[pos+2:], "*/"); idx >= 0 {
		return idx + 4, StateNormal
	}
	return len(line) - pos, StateBlockComment
}

func matchHeading(line string, pos int) (int, ScanState) {
	if pos != 0 {
		return 0, StateNormal
	}
	n := 0
	for n < len(line) && line[n] == '=' {
		n++
	}
	if n == 0 || n == len(line) || !isSpace(line[n]) {
		return 0, StateNormal
	}
	return n + 1, StateNormal
}

// spanMatcher matches marker...marker with no embedded marker. An opener
// followed by another marker or by the end of the line is not a span.
func spanMatcher(marker byte, open ScanState) matcher {
	return func(line string, pos int) (int, ScanState) {
		if line[pos] != marker || pos+1 >= len(line) || line[pos+1] == marker {
			return 0, StateNormal
		}
		if idx := strings.IndexByte(line[pos+1:], marker); idx >= 0 {
			return idx + 2, StateNormal
		}
		return len(line) - pos, open
	}
}

func matchDirective(line string, pos int) (int, ScanState) {
	if line[pos] != '#' || pos+1 >= len(line) || !isIdentStart(line[pos+1]) {
		return 0, StateNormal
	}
	n := 2
	for pos+n < len(line) && isIdentPart(line[pos+n]) {
		n++
	}
	return n, StateNormal
}

func matchBracket(line string, pos int) (int, ScanState) {
	switch line[pos] {
	case '[', ']', '(', ')', '{', '}':
		return 1, StateNormal
	}
	return 0, StateNormal
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\f' || b == '\v'
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}
