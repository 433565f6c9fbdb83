package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/catalog"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
)

// Gallery is the template picker: category tabs over a fuzzy-filtered
// template list.
type Gallery struct {
	all        []models.TemplateDescriptor
	categories []string
	category   int
	search     textinput.Model
	visible    []models.TemplateDescriptor
	cursor     int
	active     bool
	loading    bool
	err        error
}

// NewGallery creates a hidden gallery.
func NewGallery() *Gallery {
	ti := textinput.New()
	ti.Placeholder = "Filter templates..."
	ti.Prompt = "⌕ "
	ti.CharLimit = 100
	ti.Width = 40
	return &Gallery{search: ti, categories: []string{catalog.AllCategories}}
}

// Open shows the gallery. Templates arrive later through SetTemplates.
func (g *Gallery) Open() tea.Cmd {
	g.active = true
	g.loading = len(g.all) == 0
	g.err = nil
	return g.search.Focus()
}

// Close hides the gallery.
func (g *Gallery) Close() {
	g.active = false
	g.search.Blur()
}

// Active reports whether the gallery is shown.
func (g *Gallery) Active() bool {
	return g.active
}

// SetTemplates installs the catalog listing.
func (g *Gallery) SetTemplates(list []models.TemplateDescriptor, err error) {
	g.loading = false
	g.err = err
	if err != nil {
		return
	}
	g.all = list
	g.categories = catalog.Categories(list)
	if g.category >= len(g.categories) {
		g.category = 0
	}
	g.refilter()
}

// Category returns the selected category tab.
func (g *Gallery) Category() string {
	return g.categories[g.category]
}

// Visible returns the templates that pass the current filters.
func (g *Gallery) Visible() []models.TemplateDescriptor {
	return g.visible
}

// Selected returns the template under the cursor.
func (g *Gallery) Selected() (models.TemplateDescriptor, bool) {
	if g.cursor < 0 || g.cursor >= len(g.visible) {
		return models.TemplateDescriptor{}, false
	}
	return g.visible[g.cursor], true
}

func (g *Gallery) refilter() {
	list := catalog.FilterCategory(g.all, g.Category())
	if q := strings.TrimSpace(g.search.Value()); q != "" {
		list = catalog.SearchDescriptors(list, q)
	}
	g.visible = list
	if g.cursor >= len(g.visible) {
		g.cursor = len(g.visible) - 1
	}
	if g.cursor < 0 {
		g.cursor = 0
	}
}

// Update handles a key press. It returns true when the selected template
// should be loaded.
func (g *Gallery) Update(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "esc":
		g.Close()
		return false, nil
	case "enter":
		if _, ok := g.Selected(); ok {
			g.Close()
			return true, nil
		}
		return false, nil
	case "left", "shift+tab":
		g.category = (g.category - 1 + len(g.categories)) % len(g.categories)
		g.refilter()
		return false, nil
	case "right", "tab":
		g.category = (g.category + 1) % len(g.categories)
		g.refilter()
		return false, nil
	case "up", "ctrl+p":
		if g.cursor > 0 {
			g.cursor--
		}
		return false, nil
	case "down", "ctrl+n":
		if g.cursor < len(g.visible)-1 {
			g.cursor++
		}
		return false, nil
	}

	before := g.search.Value()
	var cmd tea.Cmd
	g.search, cmd = g.search.Update(msg)
	if g.search.Value() != before {
		g.cursor = 0
		g.refilter()
	}
	return false, cmd
}

// View renders the gallery as a centered dialog.
func (g *Gallery) View(width, height int) string {
	if !g.active {
		return ""
	}
	if width > 80 {
		width = 80
	}
	contentWidth := width - 6

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Templates"))
	b.WriteString("\n\n")

	tabs := make([]string, len(g.categories))
	for i, c := range g.categories {
		tabs[i] = TabStyle(i == g.category).Render(c)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")
	b.WriteString(g.search.View())
	b.WriteString("\n\n")

	switch {
	case g.err != nil:
		b.WriteString(ErrorStyle.Render("Failed to load templates"))
	case g.loading:
		b.WriteString(EmptyStyle.Render("Loading templates..."))
	case len(g.visible) == 0:
		b.WriteString(EmptyStyle.Render("No templates match"))
	default:
		rows := (height - 14) / 2
		if rows < 1 {
			rows = 1
		}
		start := 0
		if g.cursor >= rows {
			start = g.cursor - rows + 1
		}
		end := start + rows
		if end > len(g.visible) {
			end = len(g.visible)
		}
		for i := start; i < end; i++ {
			t := g.visible[i]
			name := t.Name + "  " + DescriptionStyle.Render(t.Category)
			if i == g.cursor {
				b.WriteString(SelectedStyle.Render("> " + t.Name))
				b.WriteString("  " + DescriptionStyle.Render(t.Category))
			} else {
				b.WriteString(NormalStyle.Render("  ") + name)
			}
			b.WriteString("\n")
			b.WriteString(lipgloss.NewStyle().Width(contentWidth).Render(DescriptionStyle.Render("  " + t.Description)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("←/→ category • ↑/↓ select • enter load • esc close"))
	return ActiveBorderStyle.Width(width).Padding(1, 2).Render(b.String())
}
