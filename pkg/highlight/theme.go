package highlight

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme maps categories to terminal styles.
type Theme struct {
	styles map[Category]lipgloss.Style
}

// DefaultTheme returns the built-in dark terminal theme.
func DefaultTheme() Theme {
	base := lipgloss.NewStyle().TabWidth(lipgloss.NoTabConversion)
	return Theme{styles: map[Category]lipgloss.Style{
		Comment:   base.Foreground(lipgloss.Color("243")).Italic(true),
		Heading:   base.Foreground(lipgloss.Color("212")).Bold(true),
		Strong:    base.Bold(true),
		Emphasis:  base.Italic(true),
		Literal:   base.Foreground(lipgloss.Color("114")),
		Directive: base.Foreground(lipgloss.Color("75")),
		MathSpan:  base.Foreground(lipgloss.Color("215")),
		Bracket:   base.Foreground(lipgloss.Color("245")),
	}}
}

// WithStyle returns a copy of the theme with the style for c replaced.
func (t Theme) WithStyle(c Category, s lipgloss.Style) Theme {
	styles := make(map[Category]lipgloss.Style, len(t.styles)+1)
	for k, v := range t.styles {
		styles[k] = v
	}
	styles[c] = s
	return Theme{styles: styles}
}

// RenderLine styles line according to its tokens. Plain text is left as is.
func (t Theme) RenderLine(line string, tokens []Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		text := tok.Text(line)
		if style, ok := t.styles[tok.Category]; ok {
			b.WriteString(style.Render(text))
			continue
		}
		b.WriteString(text)
	}
	return b.String()
}

// Render tokenizes and styles a whole buffer.
func (t Theme) Render(buffer string) string {
	lines := strings.Split(buffer, "\n")
	out := make([]string, len(lines))
	state := StateNormal
	for i, line := range lines {
		var tokens []Token
		tokens, state = TokenizeLine(line, state)
		out[i] = t.RenderLine(line, tokens)
	}
	return strings.Join(out, "\n")
}
