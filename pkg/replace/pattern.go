// Package replace implements find and replace over a whole buffer.
//
// A Pattern is either a literal substring or a regular expression with
// JavaScript (ECMAScript) semantics. Both ReplaceFirst and ReplaceAll
// take the same Pattern, so switching between them never changes what
// matches.
package replace

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// Pattern errors
var (
	ErrEmptyPattern   = errors.New("search pattern cannot be empty")
	ErrInvalidPattern = errors.New("invalid regular expression")
)

// MatchTimeout bounds a single regex evaluation.
var MatchTimeout = 2 * time.Second

// Pattern describes what to search for.
type Pattern struct {
	Text       string `json:"text" yaml:"text"`
	Regex      bool   `json:"regex" yaml:"regex"`
	IgnoreCase bool   `json:"ignore_case" yaml:"ignore_case"`
}

// Literal returns a case-sensitive literal pattern.
func Literal(text string) Pattern {
	return Pattern{Text: text}
}

// Regex returns a regular expression pattern.
func Regex(expr string) Pattern {
	return Pattern{Text: expr, Regex: true}
}

func (p Pattern) String() string {
	if p.Regex {
		return "/" + p.Text + "/"
	}
	return fmt.Sprintf("%q", p.Text)
}

// PatternError reports a regular expression that failed to compile.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid regular expression %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInvalidPattern) hold.
func (e *PatternError) Is(target error) bool { return target == ErrInvalidPattern }

// Validate checks the pattern without searching.
func (p Pattern) Validate() error {
	_, err := p.compile()
	return err
}

// compile returns nil for plain case-sensitive literals, which are
// handled with the strings package.
func (p Pattern) compile() (*regexp2.Regexp, error) {
	if p.Text == "" {
		return nil, ErrEmptyPattern
	}
	if !p.Regex && !p.IgnoreCase {
		return nil, nil
	}
	expr := p.Text
	if !p.Regex {
		expr = regexp2.Escape(expr)
	}
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	if p.IgnoreCase {
		opts |= regexp2.IgnoreCase
	}
	re, err := regexp2.Compile(expr, opts)
	if err != nil {
		return nil, &PatternError{Pattern: p.Text, Err: err}
	}
	re.MatchTimeout = MatchTimeout
	return re, nil
}

// replacement adapts the user's replacement text to the pattern kind:
// literal patterns insert it verbatim, so substitution markers are escaped.
func (p Pattern) replacement(r string) string {
	if p.Regex {
		return r
	}
	return strings.ReplaceAll(r, "$", "$$")
}
