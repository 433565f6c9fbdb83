package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
)

// SidebarAction is what a key press in the document list asked for.
type SidebarAction int

const (
	SidebarNone SidebarAction = iota
	SidebarOpen
	SidebarDelete
	SidebarRename
	SidebarNew
	SidebarLeave
)

// Sidebar lists saved documents, most recently updated first.
type Sidebar struct {
	docs    []models.Document
	cursor  int
	offset  int
	focused bool
	current string
	now     func() time.Time
}

// NewSidebar creates an empty document list.
func NewSidebar() *Sidebar {
	return &Sidebar{now: time.Now}
}

// SetDocuments replaces the listed documents, keeping the cursor on the
// same document where possible.
func (s *Sidebar) SetDocuments(docs []models.Document) {
	var selectedID string
	if sel, ok := s.Selected(); ok {
		selectedID = sel.ID
	}
	s.docs = docs
	s.cursor = 0
	for i, d := range docs {
		if d.ID == selectedID {
			s.cursor = i
			break
		}
	}
}

// SetCurrent marks the document bound to the editor.
func (s *Sidebar) SetCurrent(id string) {
	s.current = id
}

// Len returns the number of listed documents.
func (s *Sidebar) Len() int {
	return len(s.docs)
}

// Focus gives the list keyboard focus.
func (s *Sidebar) Focus() {
	s.focused = true
}

// Blur removes keyboard focus.
func (s *Sidebar) Blur() {
	s.focused = false
}

// Focused reports whether the list has focus.
func (s *Sidebar) Focused() bool {
	return s.focused
}

// Selected returns the document under the cursor.
func (s *Sidebar) Selected() (models.Document, bool) {
	if s.cursor < 0 || s.cursor >= len(s.docs) {
		return models.Document{}, false
	}
	return s.docs[s.cursor], true
}

// Update handles a key press while the list has focus.
func (s *Sidebar) Update(msg tea.KeyMsg) SidebarAction {
	switch msg.String() {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(s.docs)-1 {
			s.cursor++
		}
	case "home", "g":
		s.cursor = 0
	case "end", "G":
		s.cursor = len(s.docs) - 1
		if s.cursor < 0 {
			s.cursor = 0
		}
	case "enter":
		if _, ok := s.Selected(); ok {
			return SidebarOpen
		}
	case "d", "ctrl+d", "delete":
		if _, ok := s.Selected(); ok {
			return SidebarDelete
		}
	case "r", "ctrl+r":
		if _, ok := s.Selected(); ok {
			return SidebarRename
		}
	case "n", "ctrl+n":
		return SidebarNew
	case "esc", "tab", "ctrl+o":
		return SidebarLeave
	}
	return SidebarNone
}

// View renders the list into a pane of the given size.
func (s *Sidebar) View(width, height int) string {
	contentWidth := width - 4
	if contentWidth < 8 {
		contentWidth = 8
	}
	rows := height - 4
	if rows < 1 {
		rows = 1
	}

	var b strings.Builder
	b.WriteString(GetActiveHeaderStyle(s.focused).Render(fmt.Sprintf("Documents (%d)", len(s.docs))))
	b.WriteString("\n\n")

	if len(s.docs) == 0 {
		b.WriteString(EmptyStyle.Render("No saved documents"))
		b.WriteString("\n")
		b.WriteString(HelpStyle.Render("ctrl+n to create one"))
		return PaneBorderStyle(s.focused).Width(width - 2).Height(height - 2).Render(b.String())
	}

	// keep the cursor visible, two lines per entry
	visible := rows / 2
	if visible < 1 {
		visible = 1
	}
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+visible {
		s.offset = s.cursor - visible + 1
	}

	end := s.offset + visible
	if end > len(s.docs) {
		end = len(s.docs)
	}
	for i := s.offset; i < end; i++ {
		d := s.docs[i]
		marker := "  "
		if d.ID == s.current {
			marker = "• "
		}
		title := truncate.StringWithTail(marker+d.Title, uint(contentWidth), "…")
		updated := "  " + humanize.RelTime(d.UpdatedAt, s.now(), "ago", "from now")

		if i == s.cursor && s.focused {
			b.WriteString(SelectedStyle.Render(title))
		} else {
			b.WriteString(NormalStyle.Render(title))
		}
		b.WriteString("\n")
		b.WriteString(DescriptionStyle.Render(updated))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	return PaneBorderStyle(s.focused).Width(width - 2).Height(height - 2).Render(b.String())
}
