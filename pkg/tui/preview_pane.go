package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/preview"
)

// PreviewPane summarizes the latest compile. Pages are rendered to the
// preview file for a browser; the terminal shows page count, compiler
// errors and the document outline.
type PreviewPane struct {
	viewport viewport.Model
	spinner  spinner.Model
	result   models.RenderResult
	has      bool
	phase    preview.Phase
	outline  []string
	path     string
	width    int
	height   int
}

// NewPreviewPane creates an empty pane. path is where the browser preview
// is written; empty disables the hint.
func NewPreviewPane(path string) *PreviewPane {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return &PreviewPane{
		viewport: viewport.New(0, 0),
		spinner:  s,
		path:     path,
	}
}

// SetSize sets the pane's outer size.
func (p *PreviewPane) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.viewport.Width = max(width-4, 1)
	p.viewport.Height = max(height-6, 1)
	p.refresh()
}

// SetResult installs a published compile result together with the source
// it was compiled from.
func (p *PreviewPane) SetResult(r models.RenderResult, source string) {
	p.result = r
	p.has = true
	p.outline = outline(source)
	p.refresh()
}

// Result returns the displayed result.
func (p *PreviewPane) Result() (models.RenderResult, bool) {
	return p.result, p.has
}

// SetPhase records the sync phase for the newest version.
func (p *PreviewPane) SetPhase(phase preview.Phase) {
	p.phase = phase
}

// Busy reports whether a compile is pending or running.
func (p *PreviewPane) Busy() bool {
	return p.phase == preview.Pending || p.phase == preview.InFlight
}

// Tick starts the spinner.
func (p *PreviewPane) Tick() tea.Cmd {
	return p.spinner.Tick
}

// Update forwards spinner ticks and scroll keys.
func (p *PreviewPane) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return cmd
	default:
		var cmd tea.Cmd
		p.viewport, cmd = p.viewport.Update(msg)
		return cmd
	}
}

func (p *PreviewPane) refresh() {
	width := max(p.viewport.Width, 10)
	var b strings.Builder

	switch {
	case !p.has:
		b.WriteString(EmptyStyle.Render("Waiting for first compile..."))
	case !p.result.OK():
		b.WriteString(ErrorStyle.Render("Compilation Error"))
		b.WriteString("\n\n")
		b.WriteString(wordwrap.String(p.result.Err, width))
	default:
		fmt.Fprintf(&b, "%s\n", NormalStyle.Render(pageCount(p.result.Pages)))
		if len(p.outline) > 0 {
			b.WriteString("\n")
			b.WriteString(HeaderStyle.Render("Outline"))
			b.WriteString("\n")
			for _, h := range p.outline {
				b.WriteString(wordwrap.String(h, width))
				b.WriteString("\n")
			}
		}
	}

	if p.path != "" {
		b.WriteString("\n\n")
		b.WriteString(HelpStyle.Render(wordwrap.String("Open "+p.path+" in a browser for the rendered pages.", width)))
	}
	p.viewport.SetContent(b.String())
}

// View renders the pane.
func (p *PreviewPane) View() string {
	status := HeaderStyle.Render("Preview")
	switch {
	case p.Busy():
		status += " " + p.spinner.View() + DescriptionStyle.Render(" compiling")
	case p.has && !p.result.OK():
		status += " " + ErrorStyle.Render("×")
	case p.has:
		status += " " + ConfirmSafeStyle.Render("✓")
	}
	content := status + "\n\n" + p.viewport.View()
	return InactiveBorderStyle.Width(max(p.width-2, 1)).Height(max(p.height-2, 1)).Render(content)
}

func pageCount(n int) string {
	switch n {
	case 0:
		return "Nothing to render"
	case 1:
		return "1 page"
	}
	return fmt.Sprintf("%d pages", n)
}

// outline lists the headings of a Typst source, indented by level.
func outline(source string) []string {
	var out []string
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		level := 0
		for level < len(trimmed) && trimmed[level] == '=' {
			level++
		}
		if level == 0 || level >= len(trimmed) || trimmed[level] != ' ' {
			continue
		}
		title := strings.TrimSpace(trimmed[level:])
		if title == "" {
			continue
		}
		out = append(out, strings.Repeat("  ", level-1)+title)
	}
	return out
}
