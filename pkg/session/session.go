// Package session is the editor's composition root. A Session owns the
// buffer and its version counter, the bound document, undo history,
// find/replace and the preview pipeline, and turns every user command
// into one atomic buffer change plus a notification.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rivo/uniseg"
	"go.uber.org/zap"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/catalog"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/history"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/preview"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/render"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/replace"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/store"
)

var (
	// ErrTitleRequired is returned by Save when no document is bound.
	ErrTitleRequired = errors.New("a title is required to save this document")
	// ErrNoDocument is returned by commands that need a bound document.
	ErrNoDocument = errors.New("no document is open")
	// ErrNoExporter is returned by Export when no exporter is configured.
	ErrNoExporter = errors.New("export is not available")
)

// Recents records which documents were opened.
type Recents interface {
	Touch(id, title string, at time.Time) error
	Forget(id string) error
}

// Deps are the collaborators of a Session. Store, Catalog and Compiler
// are required.
type Deps struct {
	Store    store.Store
	Catalog  *catalog.Catalog
	Compiler preview.Compiler
	Exporter render.Exporter
	Recents  Recents
	Logger   *zap.Logger
}

// Buffer is the editor text at a version.
type Buffer struct {
	Text    string
	Version uint64
}

// Stats summarizes the buffer for the status bar.
type Stats struct {
	Lines      int
	Characters int
	Title      string
	Version    uint64
	Dirty      bool
}

// Artifact is an exported document.
type Artifact struct {
	Format   models.ExportFormat
	Filename string
	Data     []byte
}

// Session is the editor state. Commands are expected to come from one
// goroutine; preview results may be delivered on others.
type Session struct {
	mu sync.Mutex

	deps    Deps
	log     *zap.Logger
	notify  Notifier
	now     func() time.Time
	initial string

	hist    *history.History
	engine  *replace.Engine
	preview *preview.Sync

	buf   Buffer
	doc   *models.Document
	saved string
	docs  []models.Document
	// deleted holds ids that undo must not bind again.
	deleted map[string]bool
}

type config struct {
	delay          time.Duration
	historyLimit   int
	coalesce       time.Duration
	coalesceSet    bool
	initial        string
	notifier       Notifier
	publisher      func(models.RenderResult)
	previewOptions []preview.Option
	now            func() time.Time
}

// Option configures a Session.
type Option func(*config)

// WithDelay sets the preview debounce delay.
func WithDelay(d time.Duration) Option {
	return func(c *config) { c.delay = d }
}

// WithHistoryLimit bounds the undo stack.
func WithHistoryLimit(n int) Option {
	return func(c *config) { c.historyLimit = n }
}

// WithCoalesceWindow sets how long consecutive typing merges into one
// undo step. Zero disables merging.
func WithCoalesceWindow(d time.Duration) Option {
	return func(c *config) {
		c.coalesce = d
		c.coalesceSet = true
	}
}

// WithDefaultContent sets the buffer used for new and reset documents.
func WithDefaultContent(text string) Option {
	return func(c *config) { c.initial = text }
}

// WithNotifier sets the receiver of user-facing notifications.
func WithNotifier(n Notifier) Option {
	return func(c *config) { c.notifier = n }
}

// WithPublisher receives every accepted preview result.
func WithPublisher(fn func(models.RenderResult)) Option {
	return func(c *config) { c.publisher = fn }
}

// WithPreviewOptions passes extra options to the preview pipeline.
func WithPreviewOptions(opts ...preview.Option) Option {
	return func(c *config) { c.previewOptions = append(c.previewOptions, opts...) }
}

// WithNow overrides the clock used for timestamps.
func WithNow(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// New creates a session holding the default content, unbound.
func New(deps Deps, opts ...Option) *Session {
	cfg := config{
		delay:   preview.DefaultDelay,
		initial: models.DefaultContent,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("session")

	histOpts := []history.Option{}
	if cfg.historyLimit > 0 {
		histOpts = append(histOpts, history.WithLimit(cfg.historyLimit))
	}
	if cfg.coalesceSet {
		histOpts = append(histOpts, history.WithCoalesceWindow(cfg.coalesce))
	}

	previewOpts := []preview.Option{
		preview.WithDelay(cfg.delay),
		preview.WithLogger(deps.Logger),
	}
	if cfg.publisher != nil {
		previewOpts = append(previewOpts, preview.WithPublisher(cfg.publisher))
	}
	previewOpts = append(previewOpts, cfg.previewOptions...)

	s := &Session{
		deps:    deps,
		log:     log,
		notify:  cfg.notifier,
		now:     cfg.now,
		initial: cfg.initial,
		hist:    history.New(cfg.initial, histOpts...),
		engine:  replace.NewEngine(),
		preview: preview.New(deps.Compiler, previewOpts...),
		buf:     Buffer{Text: cfg.initial, Version: 1},
		saved:   cfg.initial,
	}
	s.preview.Edit(s.buf.Version, s.buf.Text)
	return s
}

// Close stops the preview pipeline.
func (s *Session) Close() {
	s.preview.Close()
}

// Buffer returns the current text and version.
func (s *Session) Buffer() Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf
}

// Document returns a copy of the bound document, or nil when unsaved.
func (s *Session) Document() *models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return nil
	}
	d := *s.doc
	return &d
}

// Dirty reports whether the buffer differs from what was last opened or
// saved.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Text != s.saved
}

// CanUndo reports whether Undo would change the buffer.
func (s *Session) CanUndo() bool { return s.hist.CanUndo() }

// CanRedo reports whether Redo would change the buffer.
func (s *Session) CanRedo() bool { return s.hist.CanRedo() }

// Stats counts lines and user-perceived characters of the buffer.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Lines:      strings.Count(s.buf.Text, "\n") + 1,
		Characters: uniseg.GraphemeClusterCount(s.buf.Text),
		Version:    s.buf.Version,
		Dirty:      s.buf.Text != s.saved,
	}
	if s.doc != nil {
		st.Title = s.doc.Title
	}
	return st
}

// setTextLocked installs text as a new version and records it in history.
// It reports false when text equals the buffer.
func (s *Session) setTextLocked(text string, kind history.Kind) bool {
	if text == s.buf.Text {
		return false
	}
	s.hist.Record(text, kind)
	s.advanceLocked(text)
	return true
}

// resetTextLocked replaces the buffer and starts a fresh history, as when
// a document is opened.
func (s *Session) resetTextLocked(text string) {
	s.hist.Reset(text)
	s.saved = text
	s.advanceLocked(text)
	s.preview.Flush()
}

func (s *Session) advanceLocked(text string) {
	s.buf.Version++
	s.buf.Text = text
	s.preview.Edit(s.buf.Version, text)
}

// ApplyEdit replaces the buffer with text typed by the user. Consecutive
// edits coalesce into one undo step.
func (s *Session) ApplyEdit(text string) Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setTextLocked(text, history.KindTyping)
	return s.buf
}

// Undo reverts the last undo step. It reports false when there is
// nothing to undo.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.hist.UndoStep()
	if !ok {
		return false
	}
	if st.Kind == history.KindTemplate {
		s.rebindLocked(st.Data)
	}
	s.advanceLocked(st.Text)
	return true
}

// Redo reapplies the last undone step. It reports false when there is
// nothing to redo.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.hist.RedoStep()
	if !ok {
		return false
	}
	if st.Kind == history.KindTemplate {
		s.doc = nil
	}
	s.advanceLocked(st.Text)
	return true
}

// rebindLocked restores the binding a template load replaced, unless
// that document has been deleted since.
func (s *Session) rebindLocked(data any) {
	prev, _ := data.(*models.Document)
	if prev == nil || s.deleted[prev.ID] {
		return
	}
	d := *prev
	for _, listed := range s.docs {
		if listed.ID == d.ID {
			d.Title = listed.Title
			d.UpdatedAt = listed.UpdatedAt
			break
		}
	}
	s.doc = &d
}

// Find returns the byte ranges matching p.
func (s *Session) Find(p replace.Pattern) ([]replace.Match, error) {
	s.mu.Lock()
	text := s.buf.Text
	s.mu.Unlock()
	return s.engine.Find(text, p)
}

// LastPattern returns the most recent search pattern.
func (s *Session) LastPattern() replace.Pattern {
	return s.engine.LastPattern()
}

// ReplaceFirst replaces the first match of p as one undo step.
func (s *Session) ReplaceFirst(p replace.Pattern, replacement string) (bool, error) {
	s.mu.Lock()
	out, matched, err := s.engine.ReplaceFirst(s.buf.Text, p, replacement)
	if err == nil && matched {
		s.setTextLocked(out, history.KindReplace)
	}
	s.mu.Unlock()

	switch {
	case err != nil:
		s.emit(LevelError, "Invalid search: %v", err)
	case !matched:
		s.emit(LevelInfo, "No match found")
	default:
		s.emit(LevelSuccess, "Replaced one occurrence")
	}
	return matched, err
}

// ReplaceAll replaces every match of p as one undo step and returns the
// number of replacements.
func (s *Session) ReplaceAll(p replace.Pattern, replacement string) (int, error) {
	s.mu.Lock()
	out, n, err := s.engine.ReplaceAll(s.buf.Text, p, replacement)
	if err == nil && n > 0 {
		s.setTextLocked(out, history.KindReplace)
	}
	s.mu.Unlock()

	switch {
	case err != nil:
		s.emit(LevelError, "Invalid search: %v", err)
	case n == 0:
		s.emit(LevelInfo, "No match found")
	default:
		s.emit(LevelSuccess, "Replaced %s of %q", plural(n, "occurrence"), p.Text)
	}
	return n, err
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// Document and template commands come in two halves. The first half
// (CreateDocument, FetchDocument, DeleteStored, FetchTemplate) talks to
// the store or catalog and leaves the buffer alone, so a shell can run it
// off its update loop. The second half (InstallCreated, InstallDocument,
// ForgetDocument, ApplyTemplate) changes the buffer and must run where
// edits are applied. NewDocument, OpenDocument, DeleteDocument and
// LoadTemplate run both halves in order.

// NewDocument creates a document with the default content, binds it and
// loads it into the buffer.
func (s *Session) NewDocument(ctx context.Context, title string) (*models.Document, error) {
	doc, err := s.CreateDocument(ctx, title)
	if err != nil {
		return nil, err
	}
	s.InstallCreated(doc)
	return doc, nil
}

// CreateDocument stores a new document with the default content.
func (s *Session) CreateDocument(ctx context.Context, title string) (*models.Document, error) {
	if err := models.ValidateTitle(title); err != nil {
		s.emit(LevelError, "%s", titleMessage(err))
		return nil, err
	}
	doc, err := s.deps.Store.Create(ctx, title, s.initial)
	if err != nil {
		s.log.Error("create failed", zap.Error(err))
		s.emit(LevelError, "Failed to create document")
		return nil, err
	}
	s.log.Info("document created", zap.String("id", doc.ID))
	return doc, nil
}

// InstallCreated binds a document returned by CreateDocument.
func (s *Session) InstallCreated(doc *models.Document) {
	s.install(doc)
	s.emit(LevelSuccess, "Document created")
}

// OpenDocument loads a stored document into the buffer and compiles its
// preview immediately.
func (s *Session) OpenDocument(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.FetchDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	s.InstallDocument(doc)
	return doc, nil
}

// FetchDocument reads a stored document.
func (s *Session) FetchDocument(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.deps.Store.Get(ctx, id)
	if err != nil {
		s.log.Warn("open failed", zap.String("id", id), zap.Error(err))
		s.emit(LevelError, "Failed to open document")
		return nil, err
	}
	return doc, nil
}

// InstallDocument binds doc, loads its content with a fresh history and
// compiles the preview immediately.
func (s *Session) InstallDocument(doc *models.Document) {
	s.install(doc)
	s.emit(LevelSuccess, "Opened %q", doc.Title)
}

func (s *Session) install(doc *models.Document) {
	s.mu.Lock()
	s.bindLocked(doc)
	s.resetTextLocked(doc.Content)
	s.docs = upsert(s.docs, *doc)
	delete(s.deleted, doc.ID)
	s.mu.Unlock()

	s.touchRecent(doc)
}

// Save writes the buffer to the bound document. Without a bound document
// it returns ErrTitleRequired and the caller should use SaveAs.
func (s *Session) Save(ctx context.Context) (*models.Document, error) {
	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return nil, ErrTitleRequired
	}
	id, text := s.doc.ID, s.buf.Text
	s.mu.Unlock()

	doc, err := s.deps.Store.Update(ctx, id, text)
	if err != nil {
		s.log.Error("save failed", zap.String("id", id), zap.Error(err))
		s.emit(LevelError, "Failed to save document")
		return nil, err
	}

	s.mu.Lock()
	if s.doc != nil && s.doc.ID == id {
		s.bindLocked(doc)
		s.saved = text
	}
	s.docs = upsert(s.docs, *doc)
	s.mu.Unlock()

	s.log.Info("document saved", zap.String("id", id))
	s.emit(LevelSuccess, "Document saved")
	return doc, nil
}

// SaveAs stores the buffer as a new document with title and binds it.
func (s *Session) SaveAs(ctx context.Context, title string) (*models.Document, error) {
	if err := models.ValidateTitle(title); err != nil {
		s.emit(LevelError, "%s", titleMessage(err))
		return nil, err
	}

	s.mu.Lock()
	text := s.buf.Text
	s.mu.Unlock()

	doc, err := s.deps.Store.Create(ctx, title, text)
	if err != nil {
		s.log.Error("save as failed", zap.Error(err))
		s.emit(LevelError, "Failed to save document")
		return nil, err
	}

	s.mu.Lock()
	s.bindLocked(doc)
	s.saved = text
	s.docs = upsert(s.docs, *doc)
	s.mu.Unlock()

	s.touchRecent(doc)
	s.log.Info("document saved", zap.String("id", doc.ID))
	s.emit(LevelSuccess, "Document saved")
	return doc, nil
}

// RenameDocument changes the title of a stored document.
func (s *Session) RenameDocument(ctx context.Context, id, title string) (*models.Document, error) {
	if err := models.ValidateTitle(title); err != nil {
		s.emit(LevelError, "%s", titleMessage(err))
		return nil, err
	}
	doc, err := s.deps.Store.Rename(ctx, id, title)
	if err != nil {
		s.emit(LevelError, "Failed to rename document")
		return nil, err
	}

	s.mu.Lock()
	if s.doc != nil && s.doc.ID == id {
		s.doc.Title = doc.Title
		s.doc.UpdatedAt = doc.UpdatedAt
	}
	s.docs = upsert(s.docs, *doc)
	s.mu.Unlock()

	s.emit(LevelSuccess, "Renamed to %q", doc.Title)
	return doc, nil
}

// DeleteDocument removes a stored document. Deleting the bound document
// unbinds it and resets the buffer to the default content.
func (s *Session) DeleteDocument(ctx context.Context, id string) error {
	if err := s.DeleteStored(ctx, id); err != nil {
		return err
	}
	s.ForgetDocument(id)
	return nil
}

// DeleteStored removes a document from the store and the recent list.
func (s *Session) DeleteStored(ctx context.Context, id string) error {
	if err := s.deps.Store.Delete(ctx, id); err != nil {
		s.log.Warn("delete failed", zap.String("id", id), zap.Error(err))
		s.emit(LevelError, "Failed to delete document")
		return err
	}
	if s.deps.Recents != nil {
		if err := s.deps.Recents.Forget(id); err != nil {
			s.log.Warn("failed to update recent files", zap.Error(err))
		}
	}
	s.log.Info("document deleted", zap.String("id", id))
	return nil
}

// ForgetDocument drops a deleted document from the session. When it is
// bound the buffer returns to the default content.
func (s *Session) ForgetDocument(id string) {
	s.mu.Lock()
	s.docs = remove(s.docs, id)
	if s.deleted == nil {
		s.deleted = make(map[string]bool)
	}
	s.deleted[id] = true
	if s.doc != nil && s.doc.ID == id {
		s.doc = nil
		s.resetTextLocked(s.initial)
	}
	s.mu.Unlock()

	s.emit(LevelSuccess, "Document deleted")
}

// RefreshDocuments reloads the document listing from the store.
func (s *Session) RefreshDocuments(ctx context.Context) error {
	docs, err := s.deps.Store.List(ctx)
	if err != nil {
		s.log.Warn("failed to load documents", zap.Error(err))
		return err
	}
	s.mu.Lock()
	s.docs = docs
	s.mu.Unlock()
	return nil
}

// Documents returns the cached listing, most recently updated first.
func (s *Session) Documents() []models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// Templates returns the template listing.
func (s *Session) Templates(ctx context.Context) ([]models.TemplateDescriptor, error) {
	list, err := s.deps.Catalog.List(ctx)
	if err != nil {
		s.emit(LevelError, "Failed to load templates")
		return nil, err
	}
	return list, nil
}

// TemplateCategories returns "All" followed by the template categories.
func (s *Session) TemplateCategories(ctx context.Context) ([]string, error) {
	cats, err := s.deps.Catalog.Categories(ctx)
	if err != nil {
		s.emit(LevelError, "Failed to load templates")
		return nil, err
	}
	return cats, nil
}

// LoadTemplate replaces the buffer with a template. The result is an
// unsaved buffer; undoing the load restores the previous document.
func (s *Session) LoadTemplate(ctx context.Context, id string) (*models.Template, error) {
	tpl, err := s.FetchTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	s.ApplyTemplate(tpl)
	return tpl, nil
}

// FetchTemplate reads a template from the catalog.
func (s *Session) FetchTemplate(ctx context.Context, id string) (*models.Template, error) {
	tpl, err := s.deps.Catalog.Template(ctx, id)
	if err != nil {
		s.log.Warn("template load failed", zap.String("template", id), zap.Error(err))
		s.emit(LevelError, "Failed to load template")
		return nil, err
	}
	return tpl, nil
}

// ApplyTemplate replaces the buffer with tpl and unbinds the document.
func (s *Session) ApplyTemplate(tpl *models.Template) {
	s.mu.Lock()
	prev := s.doc
	if tpl.Content != s.buf.Text {
		s.hist.RecordWith(tpl.Content, history.KindTemplate, prev)
		s.advanceLocked(tpl.Content)
	}
	s.doc = nil
	s.mu.Unlock()

	s.emit(LevelSuccess, "Loaded %q template", tpl.Name)
}

// Export renders the buffer in format.
func (s *Session) Export(ctx context.Context, format models.ExportFormat) (*Artifact, error) {
	if s.deps.Exporter == nil {
		s.emit(LevelError, "Export failed: %v", ErrNoExporter)
		return nil, ErrNoExporter
	}

	s.mu.Lock()
	text := s.buf.Text
	s.mu.Unlock()

	data, err := s.deps.Exporter.Export(ctx, text, format)
	if err != nil {
		s.log.Warn("export failed", zap.String("format", string(format)), zap.Error(err))
		s.emit(LevelError, "Export failed: %v", err)
		return nil, err
	}
	s.emit(LevelSuccess, "Exported as %s", strings.ToUpper(string(format)))
	return &Artifact{Format: format, Filename: format.Filename(), Data: data}, nil
}

// FlushPreview compiles the current version without waiting for the
// debounce delay.
func (s *Session) FlushPreview() bool {
	return s.preview.Flush()
}

// WaitPreview blocks until the preview shows the current version.
func (s *Session) WaitPreview(ctx context.Context) (models.RenderResult, error) {
	s.mu.Lock()
	version := s.buf.Version
	s.mu.Unlock()
	return s.preview.Wait(ctx, version)
}

// Preview returns the displayed preview result, if any.
func (s *Session) Preview() (models.RenderResult, bool) {
	return s.preview.Active()
}

// PreviewStatus returns the preview phase for the current version.
func (s *Session) PreviewStatus() preview.Status {
	return s.preview.State()
}

func (s *Session) bindLocked(doc *models.Document) {
	d := *doc
	s.doc = &d
}

func (s *Session) touchRecent(doc *models.Document) {
	if s.deps.Recents == nil {
		return
	}
	if err := s.deps.Recents.Touch(doc.ID, doc.Title, s.now()); err != nil {
		s.log.Warn("failed to update recent files", zap.Error(err))
	}
}

func titleMessage(err error) string {
	if errors.Is(err, models.ErrEmptyTitle) {
		return "Please enter a title"
	}
	msg := err.Error()
	return strings.ToUpper(msg[:1]) + msg[1:]
}

// upsert replaces doc in docs or prepends it, keeping newest first.
func upsert(docs []models.Document, doc models.Document) []models.Document {
	out := make([]models.Document, 0, len(docs)+1)
	out = append(out, doc)
	for _, d := range docs {
		if d.ID != doc.ID {
			out = append(out, d)
		}
	}
	store.SortByUpdated(out)
	return out
}

func remove(docs []models.Document, id string) []models.Document {
	out := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		if d.ID != id {
			out = append(out, d)
		}
	}
	return out
}
