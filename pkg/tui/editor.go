package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/highlight"
)

// Editor is the Typst source pane. It edits through a textarea and can
// switch to a read-only view with syntax highlighting.
type Editor struct {
	textarea    textarea.Model
	cache       *highlight.LineCache
	theme       highlight.Theme
	highlighted bool
	focused     bool
	width       int
	height      int
}

// NewEditor creates an editor pane.
func NewEditor() *Editor {
	ta := textarea.New()
	ta.Placeholder = "Start typing Typst markup..."
	ta.ShowLineNumbers = true
	ta.Prompt = "  "
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.Focus()

	return &Editor{
		textarea: ta,
		cache:    highlight.NewLineCache(),
		theme:    highlight.DefaultTheme(),
		focused:  true,
	}
}

// SetValue replaces the text, moving the cursor to the end.
func (e *Editor) SetValue(text string) {
	e.textarea.SetValue(text)
}

// Value returns the edited text.
func (e *Editor) Value() string {
	return e.textarea.Value()
}

// SetSize sets the pane's outer size.
func (e *Editor) SetSize(width, height int) {
	e.width = width
	e.height = height
	e.textarea.SetWidth(max(width-4, 1))
	e.textarea.SetHeight(max(height-4, 1))
}

// Focus gives the editor keyboard focus.
func (e *Editor) Focus() tea.Cmd {
	e.focused = true
	return e.textarea.Focus()
}

// Blur removes keyboard focus.
func (e *Editor) Blur() {
	e.focused = false
	e.textarea.Blur()
}

// ToggleHighlight switches between editing and the highlighted view.
func (e *Editor) ToggleHighlight() {
	e.highlighted = !e.highlighted
}

// Highlighted reports whether the highlighted view is shown.
func (e *Editor) Highlighted() bool {
	return e.highlighted
}

// Update forwards a message to the textarea. It reports whether the text
// changed. The highlighted view is read-only.
func (e *Editor) Update(msg tea.Msg) (bool, tea.Cmd) {
	if e.highlighted {
		if _, ok := msg.(tea.KeyMsg); ok {
			return false, nil
		}
	}
	before := e.textarea.Value()
	var cmd tea.Cmd
	e.textarea, cmd = e.textarea.Update(msg)
	return e.textarea.Value() != before, cmd
}

// View renders the pane.
func (e *Editor) View(title string) string {
	header := GetActiveHeaderStyle(e.focused).Render(title)
	if e.highlighted {
		header += DescriptionStyle.Render("  (highlighted, read-only)")
	}

	var body string
	if e.highlighted {
		body = e.highlightedView()
	} else {
		body = e.textarea.View()
	}
	return PaneBorderStyle(e.focused).
		Width(max(e.width-2, 1)).
		Height(max(e.height-2, 1)).
		Render(header + "\n" + body)
}

func (e *Editor) highlightedView() string {
	e.cache.Update(e.textarea.Value())
	rows := max(e.height-4, 1)
	total := e.cache.Len()

	// keep the cursor line in view
	start := 0
	if line := e.textarea.Line(); line >= rows {
		start = line - rows + 1
	}
	end := min(start+rows, total)

	gutter := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorVeryDim))
	width := len(fmt.Sprint(total))
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		num := gutter.Render(fmt.Sprintf("%*d ", width, i+1))
		lines = append(lines, num+e.theme.RenderLine(e.cache.Text(i), e.cache.Line(i)))
	}
	return strings.Join(lines, "\n")
}
