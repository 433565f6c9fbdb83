package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func tok(start, end int, c Category) Token {
	return Token{Start: start, End: end, Category: c}
}

func TestTokenizeLine(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		state     ScanState
		want      []Token
		wantState ScanState
	}{
		{
			name: "line comment covers whole line",
			line: "// comment",
			want: []Token{tok(0, 10, Comment)},
		},
		{
			name: "strong plain emphasis",
			line: "*bold* and _em_",
			want: []Token{tok(0, 6, Strong), tok(6, 11, Plain), tok(11, 15, Emphasis)},
		},
		{
			name: "heading covers marker run only",
			line: "= Title",
			want: []Token{tok(0, 2, Heading), tok(2, 7, Plain)},
		},
		{
			name: "second level heading",
			line: "== Section",
			want: []Token{tok(0, 3, Heading), tok(3, 10, Plain)},
		},
		{
			name: "equals without space is not a heading",
			line: "=no",
			want: []Token{tok(0, 3, Plain)},
		},
		{
			name: "heading only at start of line",
			line: "a = b",
			want: []Token{tok(0, 5, Plain)},
		},
		{
			name: "directive and brackets",
			line: "#set text(size: 11pt)",
			want: []Token{
				tok(0, 4, Directive), tok(4, 9, Plain), tok(9, 10, Bracket),
				tok(10, 20, Plain), tok(20, 21, Bracket),
			},
		},
		{
			name: "math and literal",
			line: "$x^2$ and `code`",
			want: []Token{tok(0, 5, MathSpan), tok(5, 10, Plain), tok(10, 16, Literal)},
		},
		{
			name: "inline block comment",
			line: "a /* b */ c",
			want: []Token{tok(0, 2, Plain), tok(2, 9, Comment), tok(9, 11, Plain)},
		},
		{
			name: "trailing line comment",
			line: "x // y",
			want: []Token{tok(0, 2, Plain), tok(2, 6, Comment)},
		},
		{
			name: "empty span markers are plain",
			line: "**",
			want: []Token{tok(0, 2, Plain)},
		},
		{
			name: "hash without identifier is plain",
			line: "# 1",
			want: []Token{tok(0, 3, Plain)},
		},
		{
			name: "strong wins over directive inside it",
			line: "*#b*",
			want: []Token{tok(0, 4, Strong)},
		},
		{
			name: "multibyte plain text",
			line: "é*x*",
			want: []Token{tok(0, 2, Plain), tok(2, 5, Strong)},
		},
		{
			name:      "unterminated block comment carries",
			line:      "a /* open",
			want:      []Token{tok(0, 2, Plain), tok(2, 9, Comment)},
			wantState: StateBlockComment,
		},
		{
			name:      "unterminated strong carries",
			line:      "2 * 3",
			want:      []Token{tok(0, 2, Plain), tok(2, 5, Strong)},
			wantState: StateStrong,
		},
		{
			name:      "block comment continues through line",
			line:      "still inside",
			state:     StateBlockComment,
			want:      []Token{tok(0, 12, Comment)},
			wantState: StateBlockComment,
		},
		{
			name:  "block comment closes mid line",
			line:  "end */ #b",
			state: StateBlockComment,
			want:  []Token{tok(0, 6, Comment), tok(6, 7, Plain), tok(7, 9, Directive)},
		},
		{
			name:  "no heading after carried span closes",
			line:  "$= x",
			state: StateMath,
			want:  []Token{tok(0, 1, MathSpan), tok(1, 4, Plain)},
		},
		{
			name:      "empty line keeps carried state",
			line:      "",
			state:     StateLiteral,
			want:      nil,
			wantState: StateLiteral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, state := TokenizeLine(tt.line, tt.state)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantState, state)
		})
	}
}

func TestTokenizeLinePartitionsLine(t *testing.T) {
	lines := []string{
		"= Heading with *bold* and _em_ #fn(x)[y] $a$ `b` // tail",
		"plain text only",
		"/* a */ /* b",
		"#let x = {1 + 2}",
		"ünïcödé *strong* ünïcödé",
	}
	for _, line := range lines {
		tokens, _ := TokenizeLine(line, StateNormal)
		pos := 0
		for _, tk := range tokens {
			assert.Equal(t, pos, tk.Start, "gap or overlap in %q", line)
			assert.Greater(t, tk.End, tk.Start)
			pos = tk.End
		}
		assert.Equal(t, len(line), pos, "tokens do not reach end of %q", line)
	}
}

func TestTokenizeLineIsDeterministic(t *testing.T) {
	line := "*a* _b_ `c` $d$ #e [f] // g"
	first, s1 := TokenizeLine(line, StateNormal)
	second, s2 := TokenizeLine(line, StateNormal)
	assert.Equal(t, first, second)
	assert.Equal(t, s1, s2)
}

func TestTokenizeBufferThreadsState(t *testing.T) {
	lines := Tokenize("a /* start\nmiddle\nend */ b")
	assert.Len(t, lines, 3)
	assert.Equal(t, []Token{tok(0, 2, Plain), tok(2, 10, Comment)}, lines[0])
	assert.Equal(t, []Token{tok(0, 6, Comment)}, lines[1])
	assert.Equal(t, []Token{tok(0, 6, Comment), tok(6, 8, Plain)}, lines[2])
}

func TestTokenizeUnterminatedRunsToEndOfBuffer(t *testing.T) {
	lines := Tokenize("text `open\nmore\nlast")
	assert.Equal(t, []Token{tok(0, 5, Plain), tok(5, 10, Literal)}, lines[0])
	assert.Equal(t, []Token{tok(0, 4, Literal)}, lines[1])
	assert.Equal(t, []Token{tok(0, 4, Literal)}, lines[2])
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "mathSpan", MathSpan.String())
	assert.Equal(t, "plain", Plain.String())
	assert.Equal(t, "unknown", Category(200).String())
	assert.Equal(t, "block-comment", StateBlockComment.String())
}
