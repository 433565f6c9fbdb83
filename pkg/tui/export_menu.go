package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
)

var formatLabels = map[models.ExportFormat]string{
	models.FormatPDF:  "PDF document",
	models.FormatHTML: "Standalone HTML page",
	models.FormatDOCX: "Word document (source only)",
	models.FormatSVG:  "SVG image (first page)",
}

// ExportMenu lets the user pick an export format.
type ExportMenu struct {
	formats []models.ExportFormat
	cursor  int
	active  bool
}

// NewExportMenu creates a hidden menu over all export formats.
func NewExportMenu() *ExportMenu {
	return &ExportMenu{formats: models.ExportFormats()}
}

// Open shows the menu.
func (m *ExportMenu) Open() {
	m.active = true
}

// Close hides the menu.
func (m *ExportMenu) Close() {
	m.active = false
}

// Active reports whether the menu is shown.
func (m *ExportMenu) Active() bool {
	return m.active
}

// Update handles a key press and returns the chosen format, if any.
func (m *ExportMenu) Update(msg tea.KeyMsg) (models.ExportFormat, bool) {
	switch msg.String() {
	case "esc":
		m.Close()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.formats)-1 {
			m.cursor++
		}
	case "enter":
		m.Close()
		return m.formats[m.cursor], true
	default:
		// first letter of a format picks it directly
		for _, f := range m.formats {
			if msg.String() == string(f[:1]) {
				m.Close()
				return f, true
			}
		}
	}
	return "", false
}

// View renders the menu.
func (m *ExportMenu) View() string {
	if !m.active {
		return ""
	}
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Export"))
	b.WriteString("\n\n")
	for i, f := range m.formats {
		line := "[" + string(f[:1]) + "] " + strings.ToUpper(string(f)) + "  " + DescriptionStyle.Render(formatLabels[f])
		if i == m.cursor {
			b.WriteString(SelectedStyle.Render("> ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("enter export • esc cancel"))
	return ActiveBorderStyle.Padding(1, 2).Render(b.String())
}
