package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
)

type countingProvider struct {
	list      []models.TemplateDescriptor
	contents  map[string]string
	listCalls atomic.Int32
	loadCalls atomic.Int32
	gate      chan struct{}
	listErr   error
}

func (p *countingProvider) ListTemplates(ctx context.Context) ([]models.TemplateDescriptor, error) {
	p.listCalls.Add(1)
	if p.listErr != nil {
		return nil, p.listErr
	}
	return p.list, nil
}

func (p *countingProvider) TemplateContent(ctx context.Context, id string) (string, error) {
	p.loadCalls.Add(1)
	if p.gate != nil {
		<-p.gate
	}
	content, ok := p.contents[id]
	if !ok {
		return "", ErrTemplateNotFound
	}
	return content, nil
}

func builtin(t *testing.T) *EmbeddedProvider {
	t.Helper()
	p, err := NewEmbeddedProvider()
	require.NoError(t, err)
	return p
}

func TestEmbeddedProvider(t *testing.T) {
	ctx := context.Background()
	p := builtin(t)

	list, err := p.ListTemplates(ctx)
	require.NoError(t, err)

	var ids []string
	for _, d := range list {
		ids = append(ids, d.ID)
		assert.NotEmpty(t, d.Name, d.ID)
		assert.NotEmpty(t, d.Category, d.ID)
		assert.NotEmpty(t, d.Icon, d.ID)
	}
	assert.Equal(t, []string{"blank", "basic", "resume", "academic", "letter", "report", "math", "code-docs"}, ids)

	for _, id := range ids {
		content, err := p.TemplateContent(ctx, id)
		require.NoError(t, err, id)
		if id == "blank" {
			assert.Empty(t, content)
		} else {
			assert.NotEmpty(t, content, id)
		}
	}

	_, err = p.TemplateContent(ctx, "nope")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
	_, err = p.TemplateContent(ctx, "index")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestCatalogCategoriesAndFilter(t *testing.T) {
	ctx := context.Background()
	c := New(builtin(t))

	cats, err := c.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"All", "Basic", "Professional", "Academic", "Technical"}, cats)

	tests := []struct {
		category string
		want     []string
	}{
		{"", []string{"blank", "basic", "resume", "academic", "letter", "report", "math", "code-docs"}},
		{"All", []string{"blank", "basic", "resume", "academic", "letter", "report", "math", "code-docs"}},
		{"Academic", []string{"academic", "math"}},
		{"Professional", []string{"resume", "letter", "report"}},
		{"Technical", []string{"code-docs"}},
		{"Cooking", nil},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			got, err := c.Filter(ctx, tt.category)
			require.NoError(t, err)
			var ids []string
			for _, d := range got {
				ids = append(ids, d.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestCatalogSearch(t *testing.T) {
	ctx := context.Background()
	c := New(builtin(t))

	all, err := c.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 8)

	got, err := c.Search(ctx, "math")
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "math", got[0].ID)

	got, err = c.Search(ctx, "qqqzzz")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCatalogCachesListing(t *testing.T) {
	ctx := context.Background()
	p := &countingProvider{list: []models.TemplateDescriptor{{ID: "a", Name: "A", Category: "X"}}}
	c := New(p)

	for i := 0; i < 3; i++ {
		list, err := c.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
	}
	assert.Equal(t, int32(1), p.listCalls.Load())

	list, _ := c.List(ctx)
	list[0].Name = "mutated"
	again, _ := c.List(ctx)
	assert.Equal(t, "A", again[0].Name)

	c.Invalidate()
	_, err := c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), p.listCalls.Load())
}

func TestCatalogListErrorNotCached(t *testing.T) {
	ctx := context.Background()
	p := &countingProvider{listErr: errors.New("backend down")}
	c := New(p)

	_, err := c.List(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")

	p.listErr = nil
	p.list = []models.TemplateDescriptor{{ID: "a"}}
	list, err := c.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCatalogContentLoadedOnce(t *testing.T) {
	ctx := context.Background()
	p := &countingProvider{
		contents: map[string]string{"a": "= A"},
		gate:     make(chan struct{}),
	}
	c := New(p)

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			content, err := c.Content(ctx, "a")
			assert.NoError(t, err)
			results[i] = content
		}(i)
	}
	close(p.gate)
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "= A", r)
	}
	assert.Equal(t, int32(1), p.loadCalls.Load())

	_, err := c.Content(ctx, "missing")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestCatalogTemplate(t *testing.T) {
	ctx := context.Background()
	c := New(builtin(t))

	tpl, err := c.Template(ctx, "resume")
	require.NoError(t, err)
	assert.Equal(t, "Resume / CV", tpl.Name)
	assert.Equal(t, "Professional", tpl.Category)
	assert.NotEmpty(t, tpl.Content)

	_, err = c.Template(ctx, "nope")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestDirProvider(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	writeTemplate(t, dir, "lab.typ", "// name: Lab Report\n// description: Weekly write-up\n// category: Academic\n// icon: Flask\n\n= Lab\n")
	writeTemplate(t, dir, "plain.typ", "= Plain\n// name: not front matter\n")
	writeTemplate(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.typ"), 0755))

	p := NewDirProvider(dir, nil)
	list, err := p.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, models.TemplateDescriptor{
		ID:          "lab",
		Name:        "Lab Report",
		Description: "Weekly write-up",
		Icon:        "Flask",
		Category:    "Academic",
	}, list[0])
	assert.Equal(t, models.TemplateDescriptor{
		ID:       "plain",
		Name:     "plain",
		Icon:     "FileText",
		Category: "Custom",
	}, list[1])

	content, err := p.TemplateContent(ctx, "lab")
	require.NoError(t, err)
	assert.Equal(t, "= Lab\n", content)

	content, err = p.TemplateContent(ctx, "plain")
	require.NoError(t, err)
	assert.Equal(t, "= Plain\n// name: not front matter\n", content)

	for _, id := range []string{"missing", "../lab", "", ".."} {
		_, err = p.TemplateContent(ctx, id)
		assert.ErrorIs(t, err, ErrTemplateNotFound, id)
	}
}

func TestDirProviderMissingDir(t *testing.T) {
	p := NewDirProvider(filepath.Join(t.TempDir(), "absent"), nil)
	list, err := p.ListTemplates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDirProviderWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := filepath.Join(t.TempDir(), "templates")
	p := NewDirProvider(dir, nil)

	var changes atomic.Int32
	require.NoError(t, p.Watch(ctx, func() { changes.Add(1) }))

	writeTemplate(t, dir, "other.txt", "ignored")
	writeTemplate(t, dir, "new.typ", "= New\n")

	assert.Eventually(t, func() bool { return changes.Load() > 0 }, 3*time.Second, 20*time.Millisecond)
}

func TestMultiProviderOverrides(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeTemplate(t, dir, "basic.typ", "// name: My Basic\n// category: Basic\n= Mine\n")
	writeTemplate(t, dir, "notes.typ", "= Notes\n")

	c := New(NewMultiProvider(builtin(t), NewDirProvider(dir, nil)))

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 9)
	assert.Equal(t, "basic", list[1].ID)
	assert.Equal(t, "My Basic", list[1].Name)
	assert.Equal(t, "notes", list[8].ID)

	content, err := c.Content(ctx, "basic")
	require.NoError(t, err)
	assert.Equal(t, "= Mine\n", content)

	content, err = c.Content(ctx, "resume")
	require.NoError(t, err)
	assert.Contains(t, content, "Experience")

	cats, err := c.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"All", "Basic", "Professional", "Academic", "Technical", "Custom"}, cats)

	_, err = c.Content(ctx, "nope")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}
