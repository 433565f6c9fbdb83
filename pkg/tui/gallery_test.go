package tui

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
)

var testTemplates = []models.TemplateDescriptor{
	{ID: "blank", Name: "Blank Document", Description: "Start from scratch", Category: "Basic"},
	{ID: "resume", Name: "Resume / CV", Description: "Professional resume", Category: "Professional"},
	{ID: "letter", Name: "Formal Letter", Description: "Business correspondence", Category: "Professional"},
	{ID: "math", Name: "Math Notes", Description: "Equations and proofs", Category: "Academic"},
}

func TestGalleryCategories(t *testing.T) {
	g := NewGallery()
	g.Open()
	assert.Contains(t, g.View(80, 40), "Loading templates...")

	g.SetTemplates(testTemplates, nil)
	assert.Equal(t, "All", g.Category())
	assert.Len(t, g.Visible(), 4)

	tests := []struct {
		key      string
		category string
		ids      []string
	}{
		{"right", "Basic", []string{"blank"}},
		{"right", "Professional", []string{"resume", "letter"}},
		{"right", "Academic", []string{"math"}},
		{"right", "All", []string{"blank", "resume", "letter", "math"}},
		{"left", "Academic", []string{"math"}},
	}
	for _, tt := range tests {
		g.Update(key(tt.key))
		assert.Equal(t, tt.category, g.Category())
		var ids []string
		for _, d := range g.Visible() {
			ids = append(ids, d.ID)
		}
		assert.Equal(t, tt.ids, ids)
	}
}

func TestGallerySearchAndSelect(t *testing.T) {
	g := NewGallery()
	g.Open()
	g.SetTemplates(testTemplates, nil)

	g.Update(key("down"))
	sel, ok := g.Selected()
	require.True(t, ok)
	assert.Equal(t, "resume", sel.ID)

	g.Update(key("letter"))
	sel, ok = g.Selected()
	require.True(t, ok)
	assert.Equal(t, "letter", sel.ID)

	load, _ := g.Update(key("enter"))
	assert.True(t, load)
	assert.False(t, g.Active())

	g.Open()
	g.Update(key("zzzqqq"))
	assert.Empty(t, g.Visible())
	load, _ = g.Update(key("enter"))
	assert.False(t, load)
	assert.Contains(t, g.View(80, 40), "No templates match")
}

func TestGalleryLoadError(t *testing.T) {
	g := NewGallery()
	g.Open()
	g.SetTemplates(nil, errors.New("boom"))
	assert.Contains(t, g.View(80, 40), "Failed to load templates")
}

func TestSidebar(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewSidebar()
	s.now = func() time.Time { return now }
	assert.Contains(t, s.View(30, 20), "No saved documents")

	docs := []models.Document{
		{ID: "a", Title: "Alpha", UpdatedAt: now.Add(-2 * time.Hour)},
		{ID: "b", Title: "Beta", UpdatedAt: now.Add(-3 * 24 * time.Hour)},
	}
	s.SetDocuments(docs)
	s.Focus()

	assert.Equal(t, SidebarNone, s.Update(key("down")))
	sel, _ := s.Selected()
	assert.Equal(t, "b", sel.ID)

	// the cursor follows the selected document when the list changes
	s.SetDocuments([]models.Document{docs[1], docs[0]})
	sel, _ = s.Selected()
	assert.Equal(t, "b", sel.ID)

	view := s.View(30, 20)
	assert.Contains(t, view, "Documents (2)")
	assert.Contains(t, view, "2 hours ago")
	assert.Contains(t, view, "3 days ago")

	assert.Equal(t, SidebarOpen, s.Update(key("enter")))
	assert.Equal(t, SidebarDelete, s.Update(key("d")))
	assert.Equal(t, SidebarRename, s.Update(key("r")))
	assert.Equal(t, SidebarLeave, s.Update(key("esc")))
}
