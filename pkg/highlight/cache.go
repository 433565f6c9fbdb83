package highlight

import "strings"

// LineCache holds tokens and scan states for every line of a buffer.
// Update rescans from the first changed line and stops as soon as a
// line past the edit is entered with the same state as before, since
// everything after it is then unchanged.
type LineCache struct {
	lines     []string
	entry     []ScanState
	exit      []ScanState
	tokens    [][]Token
	rescanned int
}

// NewLineCache creates an empty cache.
func NewLineCache() *LineCache {
	return &LineCache{}
}

// Update brings the cache in line with buffer and returns the number of
// lines that were tokenized.
func (c *LineCache) Update(buffer string) int {
	newLines := strings.Split(buffer, "\n")
	oldLines := c.lines
	n := len(newLines)

	prefix := 0
	for prefix < len(oldLines) && prefix < n && oldLines[prefix] == newLines[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(oldLines)-prefix && suffix < n-prefix &&
		oldLines[len(oldLines)-1-suffix] == newLines[n-1-suffix] {
		suffix++
	}

	entry := make([]ScanState, n)
	exit := make([]ScanState, n)
	tokens := make([][]Token, n)
	copy(entry, c.entry[:prefix])
	copy(exit, c.exit[:prefix])
	copy(tokens, c.tokens[:prefix])

	// old index of a suffix line i is i+shift
	shift := len(oldLines) - n
	state := StateNormal
	if prefix > 0 {
		state = exit[prefix-1]
	}

	rescanned := 0
	i := prefix
	for ; i < n; i++ {
		if i >= n-suffix && c.entry[i+shift] == state {
			break
		}
		entry[i] = state
		tokens[i], state = TokenizeLine(newLines[i], state)
		exit[i] = state
		rescanned++
	}
	for ; i < n; i++ {
		old := i + shift
		entry[i], exit[i], tokens[i] = c.entry[old], c.exit[old], c.tokens[old]
	}

	c.lines, c.entry, c.exit, c.tokens = newLines, entry, exit, tokens
	c.rescanned = rescanned
	return rescanned
}

// Len returns the number of cached lines.
func (c *LineCache) Len() int {
	return len(c.lines)
}

// Line returns the tokens of line i.
func (c *LineCache) Line(i int) []Token {
	if i < 0 || i >= len(c.tokens) {
		return nil
	}
	return c.tokens[i]
}

// Text returns the source text of line i.
func (c *LineCache) Text(i int) string {
	if i < 0 || i >= len(c.lines) {
		return ""
	}
	return c.lines[i]
}

// State returns the state line i was tokenized with.
func (c *LineCache) State(i int) ScanState {
	if i < 0 || i >= len(c.entry) {
		return StateNormal
	}
	return c.entry[i]
}

// Rescanned returns the line count tokenized by the last Update.
func (c *LineCache) Rescanned() int {
	return c.rescanned
}
