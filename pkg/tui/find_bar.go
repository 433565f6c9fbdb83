package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/replace"
)

// FindAction tells the app what a key press in the find bar asked for.
type FindAction int

const (
	FindActionNone FindAction = iota
	FindActionChanged
	FindActionReplaceOne
	FindActionReplaceAll
	FindActionClose
)

const (
	fieldFind = iota
	fieldReplace
)

// FindBar is the find and replace strip shown above the editor.
type FindBar struct {
	find        textinput.Model
	replace     textinput.Model
	regex       bool
	ignoreCase  bool
	showReplace bool
	field       int
	active      bool
	width       int
	matches     int
	err         error
}

// NewFindBar creates a closed find bar.
func NewFindBar() *FindBar {
	find := textinput.New()
	find.Placeholder = "Find..."
	find.Prompt = ""
	find.CharLimit = 500
	find.Width = 30

	repl := textinput.New()
	repl.Placeholder = "Replace with..."
	repl.Prompt = ""
	repl.CharLimit = 500
	repl.Width = 30

	return &FindBar{find: find, replace: repl}
}

// Open shows the bar, prefilled with the last pattern used.
func (f *FindBar) Open(withReplace bool, last replace.Pattern) tea.Cmd {
	f.active = true
	f.showReplace = withReplace
	f.field = fieldFind
	if f.find.Value() == "" && last.Text != "" {
		f.find.SetValue(last.Text)
		f.regex = last.Regex
		f.ignoreCase = last.IgnoreCase
	}
	f.find.CursorEnd()
	f.replace.Blur()
	return f.find.Focus()
}

// Close hides the bar. Its inputs keep their values for the next Open.
func (f *FindBar) Close() {
	f.active = false
	f.find.Blur()
	f.replace.Blur()
}

// Active reports whether the bar is open.
func (f *FindBar) Active() bool {
	return f.active
}

// ShowsReplace reports whether the replace field is visible.
func (f *FindBar) ShowsReplace() bool {
	return f.showReplace
}

// SetWidth sets the total width available to the bar.
func (f *FindBar) SetWidth(width int) {
	f.width = width
	inputWidth := (width - 40) / 2
	if inputWidth < 10 {
		inputWidth = 10
	}
	f.find.Width = inputWidth
	f.replace.Width = inputWidth
}

// Pattern returns the pattern described by the current inputs.
func (f *FindBar) Pattern() replace.Pattern {
	return replace.Pattern{
		Text:       f.find.Value(),
		Regex:      f.regex,
		IgnoreCase: f.ignoreCase,
	}
}

// Replacement returns the replace field text.
func (f *FindBar) Replacement() string {
	return f.replace.Value()
}

// SetMatches records the match count shown next to the inputs.
func (f *FindBar) SetMatches(n int, err error) {
	f.matches = n
	f.err = err
}

// Update handles a key press while the bar is open.
func (f *FindBar) Update(msg tea.KeyMsg) (FindAction, tea.Cmd) {
	switch msg.String() {
	case "esc":
		f.Close()
		return FindActionClose, nil
	case "tab", "shift+tab":
		if !f.showReplace {
			return FindActionNone, nil
		}
		if f.field == fieldFind {
			f.field = fieldReplace
			f.find.Blur()
			return FindActionNone, f.replace.Focus()
		}
		f.field = fieldFind
		f.replace.Blur()
		return FindActionNone, f.find.Focus()
	case "alt+r":
		f.regex = !f.regex
		return FindActionChanged, nil
	case "alt+i":
		f.ignoreCase = !f.ignoreCase
		return FindActionChanged, nil
	case "enter":
		if f.showReplace {
			return FindActionReplaceOne, nil
		}
		return FindActionNone, nil
	case "ctrl+a":
		if f.showReplace {
			return FindActionReplaceAll, nil
		}
		return FindActionNone, nil
	}

	var cmd tea.Cmd
	if f.field == fieldReplace {
		f.replace, cmd = f.replace.Update(msg)
		return FindActionNone, cmd
	}
	before := f.find.Value()
	f.find, cmd = f.find.Update(msg)
	if f.find.Value() != before {
		return FindActionChanged, cmd
	}
	return FindActionNone, cmd
}

// View renders the bar with consistent styling
func (f *FindBar) View() string {
	if !f.active {
		return ""
	}

	icon := lipgloss.NewStyle().
		Background(lipgloss.Color(ColorActive)).
		Foreground(lipgloss.Color(ColorWhite)).
		Bold(true).
		Padding(0, 1).
		Render("⌕")

	parts := []string{icon, " ", f.find.View()}
	if f.showReplace {
		parts = append(parts, "  →  ", f.replace.View())
	}
	parts = append(parts, "  ", toggle(".*", f.regex), " ", toggle("Aa", !f.ignoreCase), "  ", f.matchLabel())

	content := lipgloss.JoinHorizontal(lipgloss.Center, parts...)
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorActive)).
		Padding(0, 1)
	if f.width > 4 {
		style = style.Width(f.width - 2)
	}
	return style.Render(content)
}

func (f *FindBar) matchLabel() string {
	switch {
	case f.err != nil:
		return ErrorStyle.Render("invalid pattern")
	case f.find.Value() == "":
		return DescriptionStyle.Render("")
	case f.matches == 0:
		return DescriptionStyle.Render("no matches")
	case f.matches == 1:
		return DescriptionStyle.Render("1 match")
	}
	return DescriptionStyle.Render(fmt.Sprintf("%d matches", f.matches))
}

func toggle(label string, on bool) string {
	if on {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorActive)).
			Bold(true).
			Render(label)
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorInactive)).
		Render(label)
}
