package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
)

// AllCategories is the pseudo category that matches every template.
const AllCategories = "All"

// Catalog caches the template listing and lazily loads template content.
// Concurrent loads of the same template share one provider call.
type Catalog struct {
	provider Provider
	logger   *zap.Logger

	mu         sync.Mutex
	listing    []models.TemplateDescriptor
	listed     bool
	content    map[string]string
	generation uint64

	group singleflight.Group
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Catalog) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a catalog backed by p.
func New(p Provider, opts ...Option) *Catalog {
	c := &Catalog{
		provider: p,
		logger:   zap.NewNop(),
		content:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("catalog")
	return c
}

// List returns all template descriptors. The first successful listing is
// cached until Invalidate.
func (c *Catalog) List(ctx context.Context) ([]models.TemplateDescriptor, error) {
	c.mu.Lock()
	if c.listed {
		out := cloneDescriptors(c.listing)
		c.mu.Unlock()
		return out, nil
	}
	gen := c.generation
	c.mu.Unlock()

	v, err, _ := c.group.Do(fmt.Sprintf("list/%d", gen), func() (interface{}, error) {
		return c.provider.ListTemplates(ctx)
	})
	if err != nil {
		c.logger.Warn("template listing failed", zap.Error(err))
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	list := v.([]models.TemplateDescriptor)

	c.mu.Lock()
	if gen == c.generation {
		c.listing = cloneDescriptors(list)
		c.listed = true
	}
	c.mu.Unlock()

	return cloneDescriptors(list), nil
}

// Lookup returns the descriptor for id.
func (c *Catalog) Lookup(ctx context.Context, id string) (models.TemplateDescriptor, error) {
	list, err := c.List(ctx)
	if err != nil {
		return models.TemplateDescriptor{}, err
	}
	for _, d := range list {
		if d.ID == id {
			return d, nil
		}
	}
	return models.TemplateDescriptor{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
}

// Content returns the source of template id, loading it on first use.
func (c *Catalog) Content(ctx context.Context, id string) (string, error) {
	c.mu.Lock()
	if content, ok := c.content[id]; ok {
		c.mu.Unlock()
		return content, nil
	}
	gen := c.generation
	c.mu.Unlock()

	v, err, shared := c.group.Do(fmt.Sprintf("content/%d/%s", gen, id), func() (interface{}, error) {
		return c.provider.TemplateContent(ctx, id)
	})
	if err != nil {
		return "", err
	}
	content := v.(string)
	c.logger.Debug("template loaded", zap.String("template", id), zap.Bool("shared", shared))

	c.mu.Lock()
	if gen == c.generation {
		c.content[id] = content
	}
	c.mu.Unlock()

	return content, nil
}

// Template returns the descriptor and content of id.
func (c *Catalog) Template(ctx context.Context, id string) (*models.Template, error) {
	desc, err := c.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	content, err := c.Content(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.Template{TemplateDescriptor: desc, Content: content}, nil
}

// Invalidate drops cached listings and content. Loads already in flight
// finish but are not cached.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.listing = nil
	c.listed = false
	c.content = make(map[string]string)
	c.logger.Debug("catalog invalidated", zap.Uint64("generation", c.generation))
}

// Categories returns "All" followed by every distinct category in the
// order it first appears in the listing.
func (c *Catalog) Categories(ctx context.Context) ([]string, error) {
	list, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	return Categories(list), nil
}

// Categories derives the category tabs from a listing.
func Categories(list []models.TemplateDescriptor) []string {
	out := []string{AllCategories}
	seen := make(map[string]bool)
	for _, d := range list {
		if d.Category == "" || seen[d.Category] {
			continue
		}
		seen[d.Category] = true
		out = append(out, d.Category)
	}
	return out
}

// Filter returns the templates in category. An empty category or "All"
// returns everything.
func (c *Catalog) Filter(ctx context.Context, category string) ([]models.TemplateDescriptor, error) {
	list, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	return FilterCategory(list, category), nil
}

// FilterCategory keeps the descriptors of one category.
func FilterCategory(list []models.TemplateDescriptor, category string) []models.TemplateDescriptor {
	if category == "" || category == AllCategories {
		return list
	}
	var out []models.TemplateDescriptor
	for _, d := range list {
		if d.Category == category {
			out = append(out, d)
		}
	}
	return out
}

// Search fuzzy-matches query against template names and descriptions,
// best match first. An empty query returns the full listing.
func (c *Catalog) Search(ctx context.Context, query string) ([]models.TemplateDescriptor, error) {
	list, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	return SearchDescriptors(list, query), nil
}

// SearchDescriptors fuzzy-matches query against list.
func SearchDescriptors(list []models.TemplateDescriptor, query string) []models.TemplateDescriptor {
	if query == "" {
		return list
	}
	matches := fuzzy.FindFrom(query, descriptorSource(list))
	out := make([]models.TemplateDescriptor, 0, len(matches))
	for _, m := range matches {
		out = append(out, list[m.Index])
	}
	return out
}

type descriptorSource []models.TemplateDescriptor

func (s descriptorSource) String(i int) string {
	return s[i].Name + " " + s[i].Description
}

func (s descriptorSource) Len() int {
	return len(s)
}

func cloneDescriptors(in []models.TemplateDescriptor) []models.TemplateDescriptor {
	if in == nil {
		return nil
	}
	out := make([]models.TemplateDescriptor, len(in))
	copy(out, in)
	return out
}
