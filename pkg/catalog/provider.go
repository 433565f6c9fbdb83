// Package catalog lists document templates and loads their content on
// demand. Templates come from providers: the built-in set embedded in the
// binary, a user directory, or a remote backend.
package catalog

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
)

// ErrTemplateNotFound is returned when no provider knows the template id.
var ErrTemplateNotFound = errors.New("template not found")

// Provider is a source of templates.
type Provider interface {
	ListTemplates(ctx context.Context) ([]models.TemplateDescriptor, error)
	TemplateContent(ctx context.Context, id string) (string, error)
}

//go:embed templates/*.typ templates/index.yaml
var builtinFS embed.FS

type templateIndex struct {
	Templates []models.TemplateDescriptor `yaml:"templates"`
}

// EmbeddedProvider serves the templates compiled into the binary.
type EmbeddedProvider struct {
	fsys  fs.FS
	index []models.TemplateDescriptor
	byID  map[string]bool
}

// NewEmbeddedProvider loads the built-in template index.
func NewEmbeddedProvider() (*EmbeddedProvider, error) {
	sub, err := fs.Sub(builtinFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to open built-in templates: %w", err)
	}
	return newFSProvider(sub)
}

func newFSProvider(fsys fs.FS) (*EmbeddedProvider, error) {
	data, err := fs.ReadFile(fsys, "index.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read template index: %w", err)
	}

	var idx templateIndex
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse template index: %w", err)
	}

	p := &EmbeddedProvider{
		fsys:  fsys,
		index: idx.Templates,
		byID:  make(map[string]bool, len(idx.Templates)),
	}
	for _, d := range idx.Templates {
		if d.ID == "" {
			return nil, fmt.Errorf("template index entry %q has no id", d.Name)
		}
		p.byID[d.ID] = true
	}
	return p, nil
}

// ListTemplates returns the built-in descriptors in index order.
func (p *EmbeddedProvider) ListTemplates(ctx context.Context) ([]models.TemplateDescriptor, error) {
	out := make([]models.TemplateDescriptor, len(p.index))
	copy(out, p.index)
	return out, nil
}

// TemplateContent returns the source of a built-in template.
func (p *EmbeddedProvider) TemplateContent(ctx context.Context, id string) (string, error) {
	if !p.byID[id] {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	data, err := fs.ReadFile(p.fsys, id+".typ")
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", id, err)
	}
	return string(data), nil
}

// MultiProvider merges several providers. A template id defined by a
// later provider replaces the earlier definition in place.
type MultiProvider struct {
	providers []Provider
}

// NewMultiProvider combines providers in priority order, lowest first.
func NewMultiProvider(providers ...Provider) *MultiProvider {
	return &MultiProvider{providers: providers}
}

func (m *MultiProvider) ListTemplates(ctx context.Context) ([]models.TemplateDescriptor, error) {
	var out []models.TemplateDescriptor
	pos := make(map[string]int)

	for _, p := range m.providers {
		list, err := p.ListTemplates(ctx)
		if err != nil {
			return nil, err
		}
		for _, d := range list {
			if i, ok := pos[d.ID]; ok {
				out[i] = d
				continue
			}
			pos[d.ID] = len(out)
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MultiProvider) TemplateContent(ctx context.Context, id string) (string, error) {
	for i := len(m.providers) - 1; i >= 0; i-- {
		content, err := m.providers[i].TemplateContent(ctx, id)
		if err == nil {
			return content, nil
		}
		if !errors.Is(err, ErrTemplateNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
}
