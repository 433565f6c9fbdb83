package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/catalog"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/files"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/logger"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/preview"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/remote"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/render"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/session"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/store"
)

// ErrNoProject is returned when the working directory was never initialized.
var ErrNoProject = errors.New("no .rapidtypst directory found. Run 'rapidtypst init' first")

// CommandContext manages project validation and common command context
type CommandContext struct {
	ProjectPath string
	Settings    *models.Settings
	validated   bool
}

// NewCommandContext creates a new command context
func NewCommandContext() *CommandContext {
	return &CommandContext{ProjectPath: files.ProjectDir}
}

// ValidateProject ensures the project is initialized
func (c *CommandContext) ValidateProject() error {
	if c.validated {
		return nil
	}
	if _, err := os.Stat(c.ProjectPath); os.IsNotExist(err) {
		return ErrNoProject
	}
	c.validated = true
	return nil
}

// LoadSettings reads the project settings once.
func (c *CommandContext) LoadSettings() (*models.Settings, error) {
	if c.Settings != nil {
		return c.Settings, nil
	}
	settings, err := files.ReadSettings()
	if err != nil {
		return nil, err
	}
	c.Settings = settings
	return settings, nil
}

// LoadSettingsWithDefault loads settings or returns default if error
func (c *CommandContext) LoadSettingsWithDefault() *models.Settings {
	settings, err := c.LoadSettings()
	if err != nil {
		PrintWarning("Using default settings: %v", err)
		settings = models.DefaultSettings()
		c.Settings = settings
	}
	return settings
}

// Services are the backends selected by the project settings.
type Services struct {
	Settings *models.Settings
	Logger   *zap.Logger
	Store    store.Store
	Catalog  *catalog.Catalog
	Compiler preview.Compiler
	Exporter render.Exporter

	templates *catalog.DirProvider
	closers   []func() error
}

// Open builds the services. Close releases them.
func (c *CommandContext) Open() (*Services, error) {
	if err := c.ValidateProject(); err != nil {
		return nil, err
	}
	settings, err := c.LoadSettings()
	if err != nil {
		return nil, err
	}
	return NewServices(settings)
}

// NewServices wires store, compiler and template catalog from settings.
func NewServices(settings *models.Settings) (*Services, error) {
	log, err := logger.New(settings.Logging.Level, settings.Logging.File)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	s := &Services{Settings: settings, Logger: log}
	s.closers = append(s.closers, func() error {
		_ = log.Sync()
		return nil
	})

	var client *remote.Client
	remoteClient := func() *remote.Client {
		if client == nil {
			client = remote.New(settings.Remote.URL, remote.WithLogger(log))
		}
		return client
	}

	switch strings.ToLower(settings.Store.Backend) {
	case "", "files":
		s.Store = files.NewStore(filepath.Join(files.ProjectDir, files.DocumentsDir))
	case "sqlite":
		db, err := store.OpenSQLite(settings.Store.SQLitePath)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Store = db
		s.closers = append(s.closers, db.Close)
	case "memory":
		s.Store = store.NewMemory()
	case "remote":
		s.Store = remoteClient()
	default:
		s.Close()
		return nil, fmt.Errorf("unknown store backend %q (valid: files, sqlite, memory, remote)", settings.Store.Backend)
	}

	switch strings.ToLower(settings.Compiler.Backend) {
	case "", "typst":
		typst := render.NewTypstCLI(settings.Compiler.TypstBinary, render.WithLogger(log))
		s.Compiler = typst
		s.Exporter = typst
	case "remote":
		s.Compiler = remoteClient()
		s.Exporter = remoteClient()
	default:
		s.Close()
		return nil, fmt.Errorf("unknown compiler backend %q (valid: typst, remote)", settings.Compiler.Backend)
	}

	embedded, err := catalog.NewEmbeddedProvider()
	if err != nil {
		s.Close()
		return nil, err
	}
	providers := []catalog.Provider{embedded}
	if client != nil {
		providers = append(providers, client)
	}
	if settings.Templates.Dir != "" {
		s.templates = catalog.NewDirProvider(settings.Templates.Dir, log)
		providers = append(providers, s.templates)
	}
	s.Catalog = catalog.New(catalog.NewMultiProvider(providers...), catalog.WithLogger(log))

	return s, nil
}

// WatchTemplates invalidates the catalog whenever the user template
// directory changes, until ctx is done.
func (s *Services) WatchTemplates(ctx context.Context) error {
	if s.templates == nil || !s.Settings.Templates.Watch {
		return nil
	}
	return s.templates.Watch(ctx, s.Catalog.Invalidate)
}

// Deps returns the session dependencies.
func (s *Services) Deps() session.Deps {
	return session.Deps{
		Store:    s.Store,
		Catalog:  s.Catalog,
		Compiler: s.Compiler,
		Exporter: s.Exporter,
		Recents:  files.RecentList{},
		Logger:   s.Logger,
	}
}

// SessionOptions returns the session options the settings describe.
func (s *Services) SessionOptions() []session.Option {
	return []session.Option{
		session.WithDelay(time.Duration(s.Settings.Preview.DebounceMS) * time.Millisecond),
		session.WithHistoryLimit(s.Settings.History.Limit),
		session.WithCoalesceWindow(time.Duration(s.Settings.History.CoalesceMS) * time.Millisecond),
	}
}

// Close releases the services in reverse order of creation.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// DocumentResolver finds stored documents by id, id prefix or title.
type DocumentResolver struct {
	Store store.Store
}

// Resolve returns the single document matching ref.
func (r DocumentResolver) Resolve(ctx context.Context, ref string) (*models.Document, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("document reference cannot be empty")
	}
	if store.ValidID(ref) {
		doc, err := r.Store.Get(ctx, ref)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	docs, err := r.Store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	var matches []models.Document
	for _, d := range docs {
		if strings.EqualFold(d.Title, ref) {
			return r.Store.Get(ctx, d.ID)
		}
		if strings.HasPrefix(d.ID, ref) {
			matches = append(matches, d)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: '%s'", store.ErrNotFound, ref)
	case 1:
		return r.Store.Get(ctx, matches[0].ID)
	}
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	sort.Strings(ids)
	return nil, fmt.Errorf("multiple documents match '%s': %s", ref, strings.Join(ids, ", "))
}

// EditorLauncher handles all editor-related operations
type EditorLauncher struct {
	DefaultEditor string
}

// NewEditorLauncher creates a new editor launcher
func NewEditorLauncher() *EditorLauncher {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	return &EditorLauncher{DefaultEditor: editor}
}

// OpenFile opens a file in the configured editor
func (e *EditorLauncher) OpenFile(path string) error {
	parts := strings.Fields(e.DefaultEditor)
	if len(parts) == 0 {
		return fmt.Errorf("no editor configured")
	}
	editorCmd := exec.Command(parts[0], append(parts[1:], path)...)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// EditText writes content to a temporary .typ file, opens it in the
// editor and returns the edited text.
func (e *EditorLauncher) EditText(content string) (string, error) {
	tmpFile, err := os.CreateTemp("", "rapidtypst-*.typ")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	name := tmpFile.Name()
	defer os.Remove(name)

	if _, err := tmpFile.WriteString(content); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := e.OpenFile(name); err != nil {
		return "", err
	}
	return files.ReadFile(name)
}
