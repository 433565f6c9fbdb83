package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/replace"
)

func TestFindBarActions(t *testing.T) {
	tests := []struct {
		name        string
		withReplace bool
		keys        []string
		want        FindAction
	}{
		{"typing changes pattern", false, []string{"abc"}, FindActionChanged},
		{"regex toggle", false, []string{"alt+r"}, FindActionChanged},
		{"ignore case toggle", false, []string{"alt+i"}, FindActionChanged},
		{"enter without replace", false, []string{"enter"}, FindActionNone},
		{"enter replaces one", true, []string{"enter"}, FindActionReplaceOne},
		{"replace all", true, []string{"ctrl+a"}, FindActionReplaceAll},
		{"replace all needs replace field", false, []string{"ctrl+a"}, FindActionNone},
		{"typing in replace field", true, []string{"tab", "x"}, FindActionNone},
		{"escape closes", true, []string{"esc"}, FindActionClose},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFindBar()
			f.Open(tt.withReplace, replace.Pattern{})

			var action FindAction
			for _, k := range tt.keys {
				action, _ = f.Update(key(k))
			}
			assert.Equal(t, tt.want, action)
		})
	}
}

func TestFindBarPattern(t *testing.T) {
	f := NewFindBar()
	f.Open(true, replace.Pattern{Text: "col(ou)?r", Regex: true})
	assert.True(t, f.Active())
	assert.Equal(t, replace.Pattern{Text: "col(ou)?r", Regex: true}, f.Pattern())

	f.Update(key("alt+i"))
	assert.True(t, f.Pattern().IgnoreCase)

	f.Update(key("tab"))
	f.Update(key("hue"))
	assert.Equal(t, "hue", f.Replacement())
	assert.Equal(t, "col(ou)?r", f.Pattern().Text)

	f.Close()
	assert.False(t, f.Active())
	assert.Empty(t, f.View())

	// a reopened bar keeps what was typed
	f.Open(false, replace.Literal("other"))
	assert.Equal(t, "col(ou)?r", f.Pattern().Text)
}

func TestFindBarMatchLabel(t *testing.T) {
	f := NewFindBar()
	f.Open(false, replace.Literal("x"))

	f.SetMatches(0, nil)
	assert.Contains(t, f.View(), "no matches")
	f.SetMatches(1, nil)
	assert.Contains(t, f.View(), "1 match")
	f.SetMatches(3, nil)
	assert.Contains(t, f.View(), "3 matches")
	f.SetMatches(0, replace.ErrInvalidPattern)
	assert.Contains(t, f.View(), "invalid pattern")
}
