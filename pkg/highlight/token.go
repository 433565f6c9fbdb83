// Package highlight tokenizes Typst-like markup for display.
//
// Tokenization is line based. Each line is scanned with the state left
// behind by the previous line, so constructs such as block comments can
// span several lines. The tokenizer never fails: unterminated constructs
// simply extend to the end of the buffer.
package highlight

// Category classifies a token for display.
type Category uint8

const (
	Plain Category = iota
	Comment
	Heading
	Strong
	Emphasis
	Literal
	Directive
	MathSpan
	Bracket
)

var categoryNames = [...]string{
	Plain:     "plain",
	Comment:   "comment",
	Heading:   "heading",
	Strong:    "strong",
	Emphasis:  "emphasis",
	Literal:   "literal",
	Directive: "directive",
	MathSpan:  "mathSpan",
	Bracket:   "bracket",
}

// String returns the category name.
func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// MarshalText lets categories print by name in json and yaml output.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Token is a categorized span of a line. Start and End are byte offsets,
// End exclusive.
type Token struct {
	Start    int      `json:"start" yaml:"start"`
	End      int      `json:"end" yaml:"end"`
	Category Category `json:"category" yaml:"category"`
}

// Len returns the token length in bytes.
func (t Token) Len() int {
	return t.End - t.Start
}

// Text returns the token's text within line.
func (t Token) Text(line string) string {
	return line[t.Start:t.End]
}

// ScanState is carried from the end of one line to the start of the next.
type ScanState uint8

const (
	StateNormal ScanState = iota
	StateBlockComment
	StateStrong
	StateEmphasis
	StateLiteral
	StateMath
)

// String returns a readable state name.
func (s ScanState) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateBlockComment:
		return "block-comment"
	case StateStrong:
		return "strong"
	case StateEmphasis:
		return "emphasis"
	case StateLiteral:
		return "literal"
	case StateMath:
		return "math"
	}
	return "unknown"
}
