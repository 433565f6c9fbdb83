package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
)

// Memory is a process-local store. Nothing survives a restart.
type Memory struct {
	mu   sync.Mutex
	docs map[string]models.Document
	now  func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]models.Document), now: time.Now}
}

func (m *Memory) List(_ context.Context) ([]models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := make([]models.Document, 0, len(m.docs))
	for _, d := range m.docs {
		docs = append(docs, d)
	}
	SortByUpdated(docs)
	return docs, nil
}

func (m *Memory) Get(_ context.Context, id string) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &d, nil
}

func (m *Memory) Create(_ context.Context, title, content string) (*models.Document, error) {
	if err := models.ValidateTitle(title); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	d := NewDocument(title, content, m.now())
	m.docs[d.ID] = *d
	return d, nil
}

func (m *Memory) Update(_ context.Context, id, content string) (*models.Document, error) {
	return m.modify(id, func(d *models.Document) { d.Content = content })
}

func (m *Memory) Rename(_ context.Context, id, title string) (*models.Document, error) {
	if err := models.ValidateTitle(title); err != nil {
		return nil, err
	}
	return m.modify(id, func(d *models.Document) { d.Title = models.NormalizeTitle(title) })
}

func (m *Memory) modify(id string, fn func(*models.Document)) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	fn(&d)
	d.UpdatedAt = m.now().UTC()
	m.docs[id] = d
	return &d, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.docs, id)
	return nil
}
