package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/session"
)

// StatusFeedback represents a temporary status message
type StatusFeedback struct {
	Message   string
	Icon      string
	ShowUntil time.Time
	Type      StatusType
	seq       int
}

// StatusType represents the type of status message
type StatusType int

const (
	StatusTypeSuccess StatusType = iota
	StatusTypeWarning
	StatusTypeError
	StatusTypeInfo
)

// StatusManager manages temporary status messages
type StatusManager struct {
	CurrentStatus   *StatusFeedback
	DefaultDuration time.Duration
	now             func() time.Time
	seq             int
}

// NewStatusManager creates a new status manager
func NewStatusManager() *StatusManager {
	return &StatusManager{
		DefaultDuration: 2 * time.Second,
		now:             time.Now,
	}
}

// ShowFeedback displays a status message with an icon. The returned command
// clears it once the display duration has passed.
func (sm *StatusManager) ShowFeedback(icon, message string, statusType StatusType) tea.Cmd {
	sm.seq++
	sm.CurrentStatus = &StatusFeedback{
		Message:   message,
		Icon:      icon,
		ShowUntil: sm.now().Add(sm.DefaultDuration),
		Type:      statusType,
		seq:       sm.seq,
	}

	seq := sm.seq
	return tea.Tick(sm.DefaultDuration, func(time.Time) tea.Msg {
		return ClearStatusMsg{seq: seq}
	})
}

// ShowSuccess shows a success message
func (sm *StatusManager) ShowSuccess(message string) tea.Cmd {
	return sm.ShowFeedback("✓", message, StatusTypeSuccess)
}

// ShowWarning shows a warning message
func (sm *StatusManager) ShowWarning(message string) tea.Cmd {
	return sm.ShowFeedback("⚠", message, StatusTypeWarning)
}

// ShowError shows an error message
func (sm *StatusManager) ShowError(message string) tea.Cmd {
	return sm.ShowFeedback("×", message, StatusTypeError)
}

// ShowInfo shows an info message
func (sm *StatusManager) ShowInfo(message string) tea.Cmd {
	return sm.ShowFeedback("ℹ", message, StatusTypeInfo)
}

// ShowNotification maps a session notification onto the matching feedback.
func (sm *StatusManager) ShowNotification(n session.Notification) tea.Cmd {
	switch n.Level {
	case session.LevelSuccess:
		return sm.ShowSuccess(n.Message)
	case session.LevelWarning:
		return sm.ShowWarning(n.Message)
	case session.LevelError:
		return sm.ShowError(n.Message)
	default:
		return sm.ShowInfo(n.Message)
	}
}

// Handle clears the status when msg belongs to the message on display. A
// clear scheduled for an older message is ignored.
func (sm *StatusManager) Handle(msg ClearStatusMsg) {
	if sm.CurrentStatus != nil && sm.CurrentStatus.seq == msg.seq {
		sm.CurrentStatus = nil
	}
}

// Clear removes the current status
func (sm *StatusManager) Clear() {
	sm.CurrentStatus = nil
}

// IsActive checks if a status is currently showing
func (sm *StatusManager) IsActive() bool {
	if sm.CurrentStatus == nil {
		return false
	}
	if sm.now().After(sm.CurrentStatus.ShowUntil) {
		sm.CurrentStatus = nil
		return false
	}
	return true
}

// GetStatus returns the current status message if active
func (sm *StatusManager) GetStatus() (string, bool) {
	if !sm.IsActive() {
		return "", false
	}
	return fmt.Sprintf("%s %s", sm.CurrentStatus.Icon, sm.CurrentStatus.Message), true
}

// ClearStatusMsg is sent to clear the status
type ClearStatusMsg struct {
	seq int
}
