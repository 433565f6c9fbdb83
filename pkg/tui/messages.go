package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/session"
)

// notificationMsg carries a session notification into the update loop.
type notificationMsg session.Notification

// previewMsg carries a published compile result.
type previewMsg models.RenderResult

type documentsMsg struct {
	docs []models.Document
	err  error
}

type templatesMsg struct {
	list []models.TemplateDescriptor
	err  error
}

// openedMsg carries a fetched or newly created document. The buffer is
// only replaced when it reaches the update loop.
type openedMsg struct {
	doc     *models.Document
	created bool
	err     error
}

type templateLoadedMsg struct {
	tpl *models.Template
	err error
}

type deletedMsg struct {
	id  string
	err error
}

// documentMsg follows an operation that changed the document list.
type documentMsg struct {
	doc *models.Document
	err error
}

type exportedMsg struct {
	path string
	err  error
}

type previewWrittenMsg struct {
	err error
}

// waitNotification delivers the next notification. It is re-armed after
// every delivery.
func waitNotification(ch <-chan session.Notification) tea.Cmd {
	return func() tea.Msg {
		return notificationMsg(<-ch)
	}
}

// waitPreview delivers the next published preview result.
func waitPreview(ch <-chan models.RenderResult) tea.Cmd {
	return func() tea.Msg {
		return previewMsg(<-ch)
	}
}

// notifyInto returns a notifier that never blocks the session. Messages
// beyond the buffer are dropped.
func notifyInto(ch chan session.Notification) session.Notifier {
	return func(n session.Notification) {
		select {
		case ch <- n:
		default:
		}
	}
}

// publishInto returns a publisher that keeps only the newest result
// waiting in ch.
func publishInto(ch chan models.RenderResult) func(models.RenderResult) {
	return func(r models.RenderResult) {
		for {
			select {
			case ch <- r:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	}
}
