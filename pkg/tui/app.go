// Package tui is the terminal editor: a Typst source pane, a document
// list, a preview summary and the find, template, export and title
// dialogs around them.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/files"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/render"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/session"
)

type mode int

const (
	modeEdit mode = iota
	modeDocuments
	modeFind
	modePrompt
	modeGallery
	modeExport
	modeConfirm
)

const (
	sidebarWidth       = 30
	previewRefreshSecs = 2
)

// Config holds the editor's display settings.
type Config struct {
	// PreviewPath receives a self-refreshing HTML page with the rendered
	// preview. Empty disables it.
	PreviewPath string
	// ExportDir is where exported artifacts are written.
	ExportDir   string
	ShowSidebar bool
	ShowPreview bool
	Logger      *zap.Logger
}

// App is the root bubbletea model.
type App struct {
	sess *session.Session
	cfg  Config
	log  *zap.Logger

	notes   chan session.Notification
	results chan models.RenderResult

	editor  *Editor
	sidebar *Sidebar
	preview *PreviewPane
	find    *FindBar
	prompt  *TitlePrompt
	gallery *Gallery
	export  *ExportMenu
	confirm *ConfirmationModel
	status  *StatusManager
	writer  *previewWriter

	mode        mode
	width       int
	height      int
	showSidebar bool
	showPreview bool
	quitting    bool

	copy func(string) error
}

// New creates the editor around a fresh session built from deps.
func New(deps session.Deps, cfg Config, opts ...session.Option) *App {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = "."
	}

	a := &App{
		cfg:         cfg,
		log:         log.Named("tui"),
		notes:       make(chan session.Notification, 32),
		results:     make(chan models.RenderResult, 1),
		editor:      NewEditor(),
		sidebar:     NewSidebar(),
		preview:     NewPreviewPane(cfg.PreviewPath),
		find:        NewFindBar(),
		prompt:      NewTitlePrompt(),
		gallery:     NewGallery(),
		export:      NewExportMenu(),
		confirm:     NewConfirmation(),
		status:      NewStatusManager(),
		writer:      &previewWriter{path: cfg.PreviewPath},
		showSidebar: cfg.ShowSidebar,
		showPreview: cfg.ShowPreview,
		copy:        clipboard.WriteAll,
	}

	opts = append(opts,
		session.WithNotifier(notifyInto(a.notes)),
		session.WithPublisher(publishInto(a.results)),
	)
	a.sess = session.New(deps, opts...)
	a.editor.SetValue(a.sess.Buffer().Text)
	return a
}

// Session returns the editing session behind the app.
func (a *App) Session() *session.Session {
	return a.sess
}

// Close stops the session's preview pipeline.
func (a *App) Close() {
	a.sess.Close()
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		waitNotification(a.notes),
		waitPreview(a.results),
		a.preview.Tick(),
		a.refreshDocumentsCmd(),
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC && a.mode != modeConfirm {
			return a, a.requestQuit()
		}
		return a, a.handleKey(msg)

	case notificationMsg:
		cmd := a.status.ShowNotification(session.Notification(msg))
		return a, tea.Batch(cmd, waitNotification(a.notes))

	case ClearStatusMsg:
		a.status.Handle(msg)
		return a, nil

	case previewMsg:
		r := models.RenderResult(msg)
		a.preview.SetResult(r, a.sess.Buffer().Text)
		a.preview.SetPhase(a.sess.PreviewStatus().Phase)
		return a, tea.Batch(a.writePreviewCmd(r), waitPreview(a.results))

	case previewWrittenMsg:
		if msg.err != nil {
			a.log.Warn("failed to write preview file", zap.Error(msg.err))
		}
		return a, nil

	case spinner.TickMsg:
		a.preview.SetPhase(a.sess.PreviewStatus().Phase)
		return a, a.preview.Update(msg)

	case documentsMsg:
		if msg.err == nil {
			a.sidebar.SetDocuments(msg.docs)
		}
		return a, nil

	case templatesMsg:
		a.gallery.SetTemplates(msg.list, msg.err)
		return a, nil

	case openedMsg:
		if msg.err != nil {
			return a, nil
		}
		if msg.created {
			a.sess.InstallCreated(msg.doc)
		} else {
			a.sess.InstallDocument(msg.doc)
		}
		a.syncEditor()
		a.sidebar.SetDocuments(a.sess.Documents())
		return a, nil

	case templateLoadedMsg:
		if msg.err == nil {
			a.sess.ApplyTemplate(msg.tpl)
			a.syncEditor()
		}
		return a, nil

	case deletedMsg:
		if msg.err != nil {
			return a, nil
		}
		a.sess.ForgetDocument(msg.id)
		a.syncEditor()
		a.sidebar.SetDocuments(a.sess.Documents())
		return a, nil

	case documentMsg:
		a.syncEditor()
		a.sidebar.SetDocuments(a.sess.Documents())
		return a, nil

	case exportedMsg:
		if msg.err != nil {
			return a, a.status.ShowError(fmt.Sprintf("Export failed: %v", msg.err))
		}
		if msg.path != "" {
			return a, a.status.ShowSuccess("Exported to " + msg.path)
		}
		return a, nil
	}

	changed, cmd := a.editor.Update(msg)
	if changed {
		a.sess.ApplyEdit(a.editor.Value())
	}
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch a.mode {
	case modeConfirm:
		cmd := a.confirm.Update(msg)
		if !a.confirm.Active() && a.mode == modeConfirm {
			a.setMode(modeEdit)
		}
		return cmd

	case modeFind:
		return a.handleFindKey(msg)

	case modePrompt:
		title, ok, cmd := a.prompt.Update(msg)
		if ok {
			a.setMode(modeEdit)
			return a.submitTitle(title)
		}
		if !a.prompt.Active() {
			a.setMode(modeEdit)
		}
		return cmd

	case modeGallery:
		load, cmd := a.gallery.Update(msg)
		if load {
			a.setMode(modeEdit)
			if t, ok := a.gallery.Selected(); ok {
				return a.loadTemplateCmd(t.ID)
			}
		}
		if !a.gallery.Active() {
			a.setMode(modeEdit)
		}
		return cmd

	case modeExport:
		format, ok := a.export.Update(msg)
		if !a.export.Active() {
			a.setMode(modeEdit)
		}
		if ok {
			return a.exportCmd(format)
		}
		return nil

	case modeDocuments:
		return a.handleSidebarKey(msg)
	}

	return a.handleEditKey(msg)
}

func (a *App) handleEditKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+s":
		if a.sess.Document() == nil {
			a.setMode(modePrompt)
			return a.prompt.Open(PromptSaveAs, "", "")
		}
		return a.saveCmd()
	case "alt+s":
		title := ""
		if doc := a.sess.Document(); doc != nil {
			title = doc.Title
		}
		a.setMode(modePrompt)
		return a.prompt.Open(PromptSaveAs, "", title)
	case "ctrl+n":
		a.setMode(modePrompt)
		return a.prompt.Open(PromptNewDocument, "", "")
	case "ctrl+f":
		a.setMode(modeFind)
		return tea.Batch(a.find.Open(false, a.sess.LastPattern()), a.countMatches())
	case "ctrl+h":
		a.setMode(modeFind)
		return tea.Batch(a.find.Open(true, a.sess.LastPattern()), a.countMatches())
	case "ctrl+z":
		if a.sess.Undo() {
			a.syncEditor()
		}
		return nil
	case "ctrl+y":
		if a.sess.Redo() {
			a.syncEditor()
		}
		return nil
	case "ctrl+t":
		a.setMode(modeGallery)
		return tea.Batch(a.gallery.Open(), a.templatesCmd())
	case "ctrl+e":
		a.setMode(modeExport)
		a.export.Open()
		return nil
	case "ctrl+l":
		a.editor.ToggleHighlight()
		return nil
	case "ctrl+b":
		a.showSidebar = !a.showSidebar
		a.layout()
		return nil
	case "ctrl+o":
		if !a.showSidebar {
			a.showSidebar = true
			a.layout()
		}
		a.setMode(modeDocuments)
		return a.refreshDocumentsCmd()
	case "ctrl+r":
		a.sess.FlushPreview()
		a.preview.SetPhase(a.sess.PreviewStatus().Phase)
		return nil
	case "alt+c":
		return a.copyToClipboard(a.sess.Buffer().Text, "Copied document to clipboard")
	case "alt+p":
		r, ok := a.preview.Result()
		if !ok {
			return a.status.ShowWarning("No preview yet")
		}
		return a.copyToClipboard(r.HTML, "Copied preview HTML to clipboard")
	}

	changed, cmd := a.editor.Update(msg)
	if changed {
		a.sess.ApplyEdit(a.editor.Value())
	}
	return cmd
}

func (a *App) handleFindKey(msg tea.KeyMsg) tea.Cmd {
	action, cmd := a.find.Update(msg)
	switch action {
	case FindActionClose:
		a.setMode(modeEdit)
	case FindActionChanged:
		return tea.Batch(cmd, a.countMatches())
	case FindActionReplaceOne:
		if _, err := a.sess.ReplaceFirst(a.find.Pattern(), a.find.Replacement()); err == nil {
			a.syncEditor()
		}
		return a.countMatches()
	case FindActionReplaceAll:
		if _, err := a.sess.ReplaceAll(a.find.Pattern(), a.find.Replacement()); err == nil {
			a.syncEditor()
		}
		return a.countMatches()
	}
	return cmd
}

func (a *App) handleSidebarKey(msg tea.KeyMsg) tea.Cmd {
	switch a.sidebar.Update(msg) {
	case SidebarOpen:
		doc, _ := a.sidebar.Selected()
		a.setMode(modeEdit)
		return a.openDocument(doc)
	case SidebarDelete:
		doc, _ := a.sidebar.Selected()
		a.setMode(modeConfirm)
		a.confirm.Show(ConfirmationConfig{
			Title:       "Delete document?",
			Message:     fmt.Sprintf("%q will be permanently deleted.", doc.Title),
			Warning:     "This cannot be undone.",
			Destructive: true,
			Width:       min(60, max(a.width-4, 30)),
		}, func() tea.Cmd {
			a.setMode(modeDocuments)
			return a.deleteCmd(doc.ID)
		}, func() tea.Cmd {
			a.setMode(modeDocuments)
			return nil
		})
		return nil
	case SidebarRename:
		doc, _ := a.sidebar.Selected()
		a.setMode(modePrompt)
		return a.prompt.Open(PromptRename, doc.ID, doc.Title)
	case SidebarNew:
		a.setMode(modePrompt)
		return a.prompt.Open(PromptNewDocument, "", "")
	case SidebarLeave:
		a.setMode(modeEdit)
	}
	return nil
}

// openDocument opens doc, asking first when the buffer has unsaved
// changes.
func (a *App) openDocument(doc models.Document) tea.Cmd {
	if !a.sess.Dirty() {
		return a.openCmd(doc.ID)
	}
	a.setMode(modeConfirm)
	a.confirm.Show(ConfirmationConfig{
		Title:       "Discard changes?",
		Message:     fmt.Sprintf("Open %q without saving the current buffer?", doc.Title),
		Destructive: true,
		YesLabel:    "Discard",
		NoLabel:     "Keep editing",
		Width:       min(60, max(a.width-4, 30)),
	}, func() tea.Cmd {
		return a.openCmd(doc.ID)
	}, nil)
	return nil
}

func (a *App) requestQuit() tea.Cmd {
	if !a.sess.Dirty() {
		a.quitting = true
		return tea.Quit
	}
	a.setMode(modeConfirm)
	a.confirm.Show(ConfirmationConfig{
		Title:       "Unsaved changes",
		Message:     "Quit and lose unsaved changes?",
		Destructive: true,
		YesLabel:    "Exit",
		NoLabel:     "Stay",
		Width:       min(60, max(a.width-4, 30)),
	}, func() tea.Cmd {
		a.quitting = true
		return tea.Quit
	}, nil)
	return nil
}

func (a *App) submitTitle(title string) tea.Cmd {
	switch a.prompt.Purpose() {
	case PromptRename:
		return a.renameCmd(a.prompt.Target(), title)
	case PromptSaveAs:
		return a.saveAsCmd(title)
	default:
		return a.newDocumentCmd(title)
	}
}

func (a *App) setMode(m mode) {
	a.mode = m
	if m == modeDocuments {
		a.sidebar.Focus()
	} else {
		a.sidebar.Blur()
	}
	if m == modeEdit {
		a.editor.Focus()
	} else {
		a.editor.Blur()
	}
}

// syncEditor reloads the editor from the session after the buffer was
// replaced outside the editor.
func (a *App) syncEditor() {
	text := a.sess.Buffer().Text
	if a.editor.Value() != text {
		a.editor.SetValue(text)
	}
	if doc := a.sess.Document(); doc != nil {
		a.sidebar.SetCurrent(doc.ID)
	} else {
		a.sidebar.SetCurrent("")
	}
}

func (a *App) countMatches() tea.Cmd {
	p := a.find.Pattern()
	if p.Text == "" {
		a.find.SetMatches(0, nil)
		return nil
	}
	matches, err := a.sess.Find(p)
	a.find.SetMatches(len(matches), err)
	return nil
}

func (a *App) copyToClipboard(text, message string) tea.Cmd {
	if err := a.copy(text); err != nil {
		a.log.Warn("clipboard write failed", zap.Error(err))
		return a.status.ShowError("Failed to copy to clipboard")
	}
	return a.status.ShowSuccess(message)
}

func (a *App) layout() {
	if a.width == 0 || a.height == 0 {
		return
	}
	top := 0
	if a.find.Active() {
		top = 3
	}
	a.find.SetWidth(a.width)
	paneHeight := max(a.height-top-2, 3)

	remaining := a.width
	if a.showSidebar {
		remaining -= sidebarWidth
	}
	editorWidth := remaining
	if a.showPreview {
		previewWidth := remaining * 2 / 5
		editorWidth = remaining - previewWidth
		a.preview.SetSize(previewWidth, paneHeight)
	}
	a.editor.SetSize(editorWidth, paneHeight)
}

func (a *App) View() string {
	if a.quitting {
		return ""
	}
	if a.width == 0 {
		return "Loading..."
	}

	bottom := a.statusBar() + "\n" + a.helpLine()

	var overlay string
	switch a.mode {
	case modeConfirm:
		overlay = a.confirm.View()
	case modePrompt:
		overlay = a.prompt.View(a.width - 4)
	case modeGallery:
		overlay = a.gallery.View(a.width-4, a.height-2)
	case modeExport:
		overlay = a.export.View()
	}
	if overlay != "" {
		return lipgloss.Place(a.width, a.height-2, lipgloss.Center, lipgloss.Center, overlay) + "\n" + bottom
	}

	a.layout()
	paneHeight := max(a.height-2, 3)
	if a.find.Active() {
		paneHeight -= 3
	}

	var panes []string
	if a.showSidebar {
		panes = append(panes, a.sidebar.View(sidebarWidth, paneHeight))
	}
	panes = append(panes, a.editor.View(a.documentTitle()))
	if a.showPreview {
		panes = append(panes, a.preview.View())
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, panes...)
	if a.find.Active() {
		body = a.find.View() + "\n" + body
	}
	return body + "\n" + bottom
}

func (a *App) documentTitle() string {
	if doc := a.sess.Document(); doc != nil {
		return doc.Title
	}
	return "Untitled"
}

func (a *App) statusBar() string {
	st := a.sess.Stats()
	title := a.documentTitle()
	if st.Dirty {
		title += " " + DirtyStyle.Render("•")
	}
	left := BrandStyle.Render("Rapid Typst") + StatusBarStyle.Render(fmt.Sprintf("%s lines | %s characters | %s",
		humanize.Comma(int64(st.Lines)), humanize.Comma(int64(st.Characters)), title))

	right := ""
	if msg, ok := a.status.GetStatus(); ok {
		right = msg
	}
	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-1, 1)
	return left + strings.Repeat(" ", gap) + right
}

func (a *App) helpLine() string {
	var help string
	switch a.mode {
	case modeFind:
		help = "esc close • alt+r regex • alt+i ignore case"
		if a.find.ShowsReplace() {
			help += " • tab switch field • enter replace • ctrl+a replace all"
		}
	case modeDocuments:
		help = "↑/↓ select • enter open • r rename • d delete • n new • esc back"
	default:
		help = "ctrl+s save • ctrl+n new • ctrl+o documents • ctrl+t templates • ctrl+f find • ctrl+h replace • ctrl+e export • ctrl+z/y undo/redo • ctrl+c quit"
	}
	return HelpStyle.Render(help)
}

// IO runs off the update loop. Outcomes are reported through session
// notifications. Commands never replace the buffer themselves: anything
// that does is installed by Update, after keys typed in the meantime.

func (a *App) refreshDocumentsCmd() tea.Cmd {
	return func() tea.Msg {
		err := a.sess.RefreshDocuments(context.Background())
		return documentsMsg{docs: a.sess.Documents(), err: err}
	}
}

func (a *App) templatesCmd() tea.Cmd {
	return func() tea.Msg {
		list, err := a.sess.Templates(context.Background())
		return templatesMsg{list: list, err: err}
	}
}

func (a *App) saveCmd() tea.Cmd {
	return func() tea.Msg {
		doc, err := a.sess.Save(context.Background())
		return documentMsg{doc: doc, err: err}
	}
}

func (a *App) saveAsCmd(title string) tea.Cmd {
	return func() tea.Msg {
		doc, err := a.sess.SaveAs(context.Background(), title)
		return documentMsg{doc: doc, err: err}
	}
}

func (a *App) newDocumentCmd(title string) tea.Cmd {
	return func() tea.Msg {
		doc, err := a.sess.CreateDocument(context.Background(), title)
		return openedMsg{doc: doc, created: true, err: err}
	}
}

func (a *App) openCmd(id string) tea.Cmd {
	return func() tea.Msg {
		doc, err := a.sess.FetchDocument(context.Background(), id)
		return openedMsg{doc: doc, err: err}
	}
}

func (a *App) renameCmd(id, title string) tea.Cmd {
	return func() tea.Msg {
		doc, err := a.sess.RenameDocument(context.Background(), id, title)
		return documentMsg{doc: doc, err: err}
	}
}

func (a *App) deleteCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return deletedMsg{id: id, err: a.sess.DeleteStored(context.Background(), id)}
	}
}

func (a *App) loadTemplateCmd(id string) tea.Cmd {
	return func() tea.Msg {
		tpl, err := a.sess.FetchTemplate(context.Background(), id)
		return templateLoadedMsg{tpl: tpl, err: err}
	}
}

func (a *App) exportCmd(format models.ExportFormat) tea.Cmd {
	dir := a.cfg.ExportDir
	return func() tea.Msg {
		art, err := a.sess.Export(context.Background(), format)
		if err != nil {
			// the session already reported it
			return exportedMsg{}
		}
		path := filepath.Join(dir, art.Filename)
		if err := files.WriteFile(path, art.Data); err != nil {
			return exportedMsg{err: err}
		}
		return exportedMsg{path: path}
	}
}

func (a *App) writePreviewCmd(r models.RenderResult) tea.Cmd {
	if a.cfg.PreviewPath == "" {
		return nil
	}
	return func() tea.Msg {
		return previewWrittenMsg{err: a.writer.write(r)}
	}
}

// previewWriter writes the browser preview page. Results older than the
// last one written are skipped.
type previewWriter struct {
	mu   sync.Mutex
	path string
	last uint64
}

func (w *previewWriter) write(r models.RenderResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if r.Version < w.last {
		return nil
	}
	w.last = r.Version
	return files.WriteFile(w.path, []byte(render.PreviewPage(r.HTML, previewRefreshSecs)))
}
