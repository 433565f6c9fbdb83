package replace

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// Match is a byte range of the buffer.
type Match struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// ReplaceFirst replaces the first match of p. When nothing matches the
// buffer is returned unchanged and matched is false.
func ReplaceFirst(buffer string, p Pattern, replacement string) (string, bool, error) {
	re, err := p.compile()
	if err != nil {
		return buffer, false, err
	}
	if re == nil {
		idx := strings.Index(buffer, p.Text)
		if idx < 0 {
			return buffer, false, nil
		}
		return buffer[:idx] + replacement + buffer[idx+len(p.Text):], true, nil
	}

	m, err := re.FindStringMatch(buffer)
	if err != nil {
		return buffer, false, fmt.Errorf("failed to search: %w", err)
	}
	if m == nil {
		return buffer, false, nil
	}
	out, err := re.Replace(buffer, p.replacement(replacement), -1, 1)
	if err != nil {
		return buffer, false, fmt.Errorf("failed to replace: %w", err)
	}
	return out, true, nil
}

// ReplaceAll replaces every non-overlapping match, left to right, and
// returns the number of replacements. Zero matches is not an error.
func ReplaceAll(buffer string, p Pattern, replacement string) (string, int, error) {
	re, err := p.compile()
	if err != nil {
		return buffer, 0, err
	}
	if re == nil {
		count := strings.Count(buffer, p.Text)
		if count == 0 {
			return buffer, 0, nil
		}
		return strings.ReplaceAll(buffer, p.Text, replacement), count, nil
	}

	count, err := countMatches(re, buffer)
	if err != nil {
		return buffer, 0, err
	}
	if count == 0 {
		return buffer, 0, nil
	}
	out, err := re.Replace(buffer, p.replacement(replacement), -1, -1)
	if err != nil {
		return buffer, 0, fmt.Errorf("failed to replace: %w", err)
	}
	return out, count, nil
}

// Find returns all non-overlapping matches as byte ranges.
func Find(buffer string, p Pattern) ([]Match, error) {
	re, err := p.compile()
	if err != nil {
		return nil, err
	}
	var matches []Match
	if re == nil {
		offset := 0
		for {
			idx := strings.Index(buffer[offset:], p.Text)
			if idx < 0 {
				break
			}
			start := offset + idx
			matches = append(matches, Match{Start: start, End: start + len(p.Text)})
			offset = start + len(p.Text)
		}
		return matches, nil
	}

	// regexp2 reports rune offsets
	offsets := runeOffsets(buffer)
	m, err := re.FindStringMatch(buffer)
	for m != nil && err == nil {
		matches = append(matches, Match{
			Start: offsets[m.Index],
			End:   offsets[m.Index+m.Length],
		})
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	return matches, nil
}

func countMatches(re *regexp2.Regexp, buffer string) (int, error) {
	count := 0
	m, err := re.FindStringMatch(buffer)
	for m != nil && err == nil {
		count++
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to search: %w", err)
	}
	return count, nil
}

// runeOffsets maps rune index to byte offset, including the end.
func runeOffsets(s string) []int {
	offsets := make([]int, 0, utf8.RuneCountInString(s)+1)
	for i := range s {
		offsets = append(offsets, i)
	}
	return append(offsets, len(s))
}

// Engine remembers the last search so the find bar can be reopened with it.
type Engine struct {
	last Pattern
}

// NewEngine creates an engine with no remembered search.
func NewEngine() *Engine {
	return &Engine{}
}

// LastPattern returns the most recent pattern passed to the engine.
func (e *Engine) LastPattern() Pattern {
	return e.last
}

// ReplaceFirst remembers p and delegates to ReplaceFirst.
func (e *Engine) ReplaceFirst(buffer string, p Pattern, replacement string) (string, bool, error) {
	e.last = p
	return ReplaceFirst(buffer, p, replacement)
}

// ReplaceAll remembers p and delegates to ReplaceAll.
func (e *Engine) ReplaceAll(buffer string, p Pattern, replacement string) (string, int, error) {
	e.last = p
	return ReplaceAll(buffer, p, replacement)
}

// Find remembers p and delegates to Find.
func (e *Engine) Find(buffer string, p Pattern) ([]Match, error) {
	e.last = p
	return Find(buffer, p)
}
