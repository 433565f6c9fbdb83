package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
)

const (
	templateExt     = ".typ"
	defaultCategory = "Custom"
	defaultIcon     = "FileText"
)

// DirProvider serves user templates stored as .typ files in a directory.
//
// A template may start with front matter comment lines:
//
//	// name: Lab Report
//	// description: Weekly lab write-up
//	// category: Academic
//	// icon: FlaskConical
//
// The front matter is stripped from the content handed to the editor.
type DirProvider struct {
	dir    string
	logger *zap.Logger
}

// NewDirProvider returns a provider for dir. A missing directory lists
// no templates.
func NewDirProvider(dir string, logger *zap.Logger) *DirProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirProvider{dir: dir, logger: logger.Named("templates")}
}

// Dir returns the watched directory.
func (p *DirProvider) Dir() string {
	return p.dir
}

func (p *DirProvider) ListTemplates(ctx context.Context) ([]models.TemplateDescriptor, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read templates directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != templateExt {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	out := make([]models.TemplateDescriptor, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(p.dir, name))
		if err != nil {
			p.logger.Warn("skipping unreadable template", zap.String("file", name), zap.Error(err))
			continue
		}
		desc, _ := parseFrontMatter(strings.TrimSuffix(name, templateExt), string(data))
		out = append(out, desc)
	}
	return out, nil
}

func (p *DirProvider) TemplateContent(ctx context.Context, id string) (string, error) {
	if !validTemplateID(id) {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	data, err := os.ReadFile(filepath.Join(p.dir, id+templateExt))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
		}
		return "", fmt.Errorf("failed to read template %s: %w", id, err)
	}
	_, body := parseFrontMatter(id, string(data))
	return body, nil
}

// Watch calls onChange whenever a template file in the directory is
// created, written, renamed or removed, until ctx is done. The directory
// is created if it does not exist.
func (p *DirProvider) Watch(ctx context.Context, onChange func()) error {
	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return fmt.Errorf("failed to create templates directory: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start template watcher: %w", err)
	}
	if err := w.Add(p.dir); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch %s: %w", p.dir, err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Ext(ev.Name) != templateExt || ev.Op == fsnotify.Chmod {
					continue
				}
				p.logger.Debug("template changed", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
				onChange()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				p.logger.Warn("template watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

func validTemplateID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}

// parseFrontMatter reads the leading "// key: value" lines and returns the
// descriptor together with the remaining body.
func parseFrontMatter(id, content string) (models.TemplateDescriptor, string) {
	desc := models.TemplateDescriptor{
		ID:       id,
		Name:     id,
		Icon:     defaultIcon,
		Category: defaultCategory,
	}

	rest := content
	for rest != "" {
		line, next, _ := strings.Cut(rest, "\n")
		key, value, ok := frontMatterLine(line)
		if !ok {
			break
		}
		switch key {
		case "name":
			desc.Name = value
		case "description":
			desc.Description = value
		case "category":
			desc.Category = value
		case "icon":
			desc.Icon = value
		}
		rest = next
	}

	if len(rest) == len(content) {
		return desc, content
	}
	return desc, strings.TrimLeft(rest, "\r\n")
}

func frontMatterLine(line string) (key, value string, ok bool) {
	rest, found := strings.CutPrefix(strings.TrimRight(line, "\r"), "//")
	if !found {
		return "", "", false
	}
	key, value, found = strings.Cut(rest, ":")
	if !found {
		return "", "", false
	}
	key = strings.ToLower(strings.TrimSpace(key))
	switch key {
	case "name", "description", "category", "icon":
		return key, strings.TrimSpace(value), true
	}
	return "", "", false
}
