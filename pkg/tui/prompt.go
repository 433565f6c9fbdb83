package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
)

// PromptPurpose says what a submitted title is for.
type PromptPurpose int

const (
	PromptNewDocument PromptPurpose = iota
	PromptSaveAs
	PromptRename
)

// TitlePrompt asks for a document title.
type TitlePrompt struct {
	input   textinput.Model
	purpose PromptPurpose
	target  string // document id for renames
	label   string
	active  bool
	err     error
}

// NewTitlePrompt creates a hidden title prompt.
func NewTitlePrompt() *TitlePrompt {
	ti := textinput.New()
	ti.Placeholder = "Document title"
	ti.CharLimit = models.MaxTitleLength
	ti.Width = 40
	ti.Prompt = "> "
	return &TitlePrompt{input: ti}
}

// Open shows the prompt with an initial value.
func (p *TitlePrompt) Open(purpose PromptPurpose, target, initial string) tea.Cmd {
	p.purpose = purpose
	p.target = target
	p.active = true
	p.err = nil
	switch purpose {
	case PromptSaveAs:
		p.label = "Save document as"
	case PromptRename:
		p.label = "Rename document"
	default:
		p.label = "New document"
	}
	p.input.SetValue(initial)
	p.input.CursorEnd()
	return p.input.Focus()
}

// Close hides the prompt.
func (p *TitlePrompt) Close() {
	p.active = false
	p.input.Blur()
}

// Active reports whether the prompt is shown.
func (p *TitlePrompt) Active() bool {
	return p.active
}

// Purpose returns what the prompt was opened for.
func (p *TitlePrompt) Purpose() PromptPurpose {
	return p.purpose
}

// Target returns the document id a rename applies to.
func (p *TitlePrompt) Target() string {
	return p.target
}

// Update handles a key press. It returns the entered title and true when
// the user submits a valid title.
func (p *TitlePrompt) Update(msg tea.KeyMsg) (string, bool, tea.Cmd) {
	switch msg.String() {
	case "esc":
		p.Close()
		return "", false, nil
	case "enter":
		title := strings.TrimSpace(p.input.Value())
		if err := models.ValidateTitle(title); err != nil {
			p.err = err
			return "", false, nil
		}
		p.Close()
		return title, true, nil
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	p.err = nil
	return "", false, cmd
}

// View renders the prompt inside a bordered box.
func (p *TitlePrompt) View(width int) string {
	if !p.active {
		return ""
	}
	var b strings.Builder
	b.WriteString(GetActiveHeaderStyle(true).Render(p.label))
	b.WriteString("\n\n")
	b.WriteString(p.input.View())
	b.WriteString("\n\n")
	if p.err != nil {
		b.WriteString(ErrorStyle.Render(p.err.Error()))
	} else {
		b.WriteString(HelpStyle.Render("enter confirm • esc cancel"))
	}

	if width > 60 {
		width = 60
	}
	return ActiveBorderStyle.Width(width).Padding(1, 2).Render(b.String())
}
