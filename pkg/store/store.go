// Package store defines the document store contract and its SQLite and
// in-memory implementations.
package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
)

// ErrNotFound is returned when no document has the requested id.
var ErrNotFound = errors.New("document not found")

// Store persists documents. Writes to the same id are last-write-wins.
type Store interface {
	List(ctx context.Context) ([]models.Document, error)
	Get(ctx context.Context, id string) (*models.Document, error)
	Create(ctx context.Context, title, content string) (*models.Document, error)
	Update(ctx context.Context, id, content string) (*models.Document, error)
	Rename(ctx context.Context, id, title string) (*models.Document, error)
	Delete(ctx context.Context, id string) error
}

// NewDocument builds a document with a fresh id and timestamps.
func NewDocument(title, content string, now time.Time) *models.Document {
	now = now.UTC()
	return &models.Document{
		ID:        uuid.NewString(),
		Title:     models.NormalizeTitle(title),
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SortByUpdated orders documents most recently updated first.
func SortByUpdated(docs []models.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].UpdatedAt.Equal(docs[j].UpdatedAt) {
			return docs[i].Title < docs[j].Title
		}
		return docs[i].UpdatedAt.After(docs[j].UpdatedAt)
	})
}

// ValidID reports whether id looks like a document id. Stores that map
// ids to paths use it to reject traversal attempts.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
