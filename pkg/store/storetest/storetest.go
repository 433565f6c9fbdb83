// Package storetest holds the behaviour every store.Store must show.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/store"
)

// Run exercises s through the full Store contract. s must start empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty list", func(t *testing.T) {
		docs, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	var alpha, beta *models.Document
	t.Run("create", func(t *testing.T) {
		var err error
		alpha, err = s.Create(ctx, "  Alpha  notes ", "= Alpha")
		require.NoError(t, err)
		assert.True(t, store.ValidID(alpha.ID))
		assert.Equal(t, "Alpha notes", alpha.Title)
		assert.Equal(t, "= Alpha", alpha.Content)
		assert.False(t, alpha.CreatedAt.IsZero())
		assert.Equal(t, alpha.CreatedAt, alpha.UpdatedAt)

		time.Sleep(5 * time.Millisecond)
		beta, err = s.Create(ctx, "Beta", "")
		require.NoError(t, err)
		assert.NotEqual(t, alpha.ID, beta.ID)
	})

	t.Run("create requires title", func(t *testing.T) {
		_, err := s.Create(ctx, "   ", "x")
		assert.ErrorIs(t, err, models.ErrEmptyTitle)
	})

	t.Run("get", func(t *testing.T) {
		got, err := s.Get(ctx, alpha.ID)
		require.NoError(t, err)
		assert.Equal(t, alpha.ID, got.ID)
		assert.Equal(t, "= Alpha", got.Content)
		assert.True(t, alpha.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("list newest first", func(t *testing.T) {
		docs, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, beta.ID, docs[0].ID)

		time.Sleep(5 * time.Millisecond)
		_, err = s.Update(ctx, alpha.ID, "= Alpha v2")
		require.NoError(t, err)

		docs, err = s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, alpha.ID, docs[0].ID)
	})

	t.Run("update", func(t *testing.T) {
		time.Sleep(5 * time.Millisecond)
		updated, err := s.Update(ctx, beta.ID, "#set page(\"a4\")\n")
		require.NoError(t, err)
		assert.Equal(t, "#set page(\"a4\")\n", updated.Content)
		assert.Equal(t, "Beta", updated.Title)
		assert.True(t, updated.UpdatedAt.After(beta.UpdatedAt))
	})

	t.Run("rename", func(t *testing.T) {
		renamed, err := s.Rename(ctx, beta.ID, "Beta final")
		require.NoError(t, err)
		assert.Equal(t, "Beta final", renamed.Title)
		assert.Equal(t, "#set page(\"a4\")\n", renamed.Content)

		_, err = s.Rename(ctx, beta.ID, "")
		assert.ErrorIs(t, err, models.ErrEmptyTitle)
	})

	t.Run("missing ids", func(t *testing.T) {
		missing := "00000000-0000-4000-8000-000000000000"
		_, err := s.Get(ctx, missing)
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.Update(ctx, missing, "x")
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, missing), store.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, alpha.ID))
		_, err := s.Get(ctx, alpha.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)

		docs, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, beta.ID, docs[0].ID)
	})
}
