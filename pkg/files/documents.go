package files

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/store"
)

// Store keeps one YAML file per document in a directory.
type Store struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

// NewStore returns a store rooted at dir. An empty dir means the
// project's documents directory.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = filepath.Join(ProjectDir, DocumentsDir)
	}
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the directory documents are stored in.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(id string) (string, error) {
	if !store.ValidID(id) {
		return "", fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return filepath.Join(s.dir, id+".yaml"), nil
}

func (s *Store) List(ctx context.Context) ([]models.Document, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Document{}, nil
		}
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	docs := []models.Document{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := strings.TrimSuffix(entry.Name(), ".yaml")
		doc, err := s.read(id)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	store.SortByUpdated(docs)
	return docs, nil
}

func (s *Store) Get(_ context.Context, id string) (*models.Document, error) {
	return s.read(id)
}

func (s *Store) read(id string) (*models.Document, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read document %s: %w", id, err)
	}
	var doc models.Document
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse document YAML %s: %w", id, err)
	}
	doc.ID = id
	return &doc, nil
}

func (s *Store) write(doc *models.Document) error {
	path, err := s.path(doc.ID)
	if err != nil {
		return err
	}
	content, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document to YAML: %w", err)
	}
	return writeAtomic(path, content)
}

func (s *Store) Create(_ context.Context, title, content string) (*models.Document, error) {
	if err := models.ValidateTitle(title); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := store.NewDocument(title, content, s.now())
	if err := s.write(doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return doc, nil
}

func (s *Store) Update(_ context.Context, id, content string) (*models.Document, error) {
	return s.modify(id, func(d *models.Document) { d.Content = content })
}

func (s *Store) Rename(_ context.Context, id, title string) (*models.Document, error) {
	if err := models.ValidateTitle(title); err != nil {
		return nil, err
	}
	return s.modify(id, func(d *models.Document) { d.Title = models.NormalizeTitle(title) })
}

func (s *Store) modify(id string, fn func(*models.Document)) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(id)
	if err != nil {
		return nil, err
	}
	fn(doc)
	doc.UpdatedAt = s.now().UTC()
	if err := s.write(doc); err != nil {
		return nil, fmt.Errorf("failed to update document %s: %w", id, err)
	}
	return doc, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	return nil
}
