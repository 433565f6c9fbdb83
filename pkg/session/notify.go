package session

import (
	"fmt"
	"time"
)

// Level is the severity of a notification.
type Level uint8

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	}
	return "info"
}

// Notification is a short user-facing message about a command outcome.
type Notification struct {
	Level   Level
	Message string
	At      time.Time
}

// Notifier receives notifications. It is called without session locks
// held.
type Notifier func(Notification)

func (s *Session) emit(level Level, format string, args ...any) {
	if s.notify == nil {
		return
	}
	s.notify(Notification{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
		At:      s.now(),
	})
}
