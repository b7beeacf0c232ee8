package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvenault/eventhub/internal/model"
)

func TestCategoryCreate(t *testing.T) {
	store := newMemCategoryStore()
	svc := NewCategoryService(store)
	ctx := context.Background()

	category, err := svc.Create(ctx, model.CreateCategoryRequest{Name: "Tech & Science"})
	require.NoError(t, err)
	assert.Equal(t, "tech-science", category.Slug)

	_, err = svc.Create(ctx, model.CreateCategoryRequest{Name: "Tech & Science"})
	require.ErrorIs(t, err, model.ErrConflict)
}

func TestCategoryUpdateRenames(t *testing.T) {
	store := newMemCategoryStore()
	svc := NewCategoryService(store)
	ctx := context.Background()

	category, err := svc.Create(ctx, model.CreateCategoryRequest{Name: "Tech"})
	require.NoError(t, err)
	other, err := svc.Create(ctx, model.CreateCategoryRequest{Name: "Music"})
	require.NoError(t, err)

	newName := "Music"
	_, err = svc.Update(ctx, category.ID, model.UpdateCategoryRequest{Name: &newName})
	require.ErrorIs(t, err, model.ErrConflict)

	renamed := "Live Music"
	updated, err := svc.Update(ctx, other.ID, model.UpdateCategoryRequest{Name: &renamed})
	require.NoError(t, err)
	assert.Equal(t, "live-music", updated.Slug)
}

func TestCategoryDeleteBlockedWhileReferenced(t *testing.T) {
	store := newMemCategoryStore()
	svc := NewCategoryService(store)
	ctx := context.Background()

	category, err := svc.Create(ctx, model.CreateCategoryRequest{Name: "Tech"})
	require.NoError(t, err)

	store.mu.Lock()
	store.eventCount[category.ID] = 3
	store.mu.Unlock()

	err = svc.Delete(ctx, category.ID)
	require.ErrorIs(t, err, model.ErrPreconditionFailed)

	store.mu.Lock()
	store.eventCount[category.ID] = 0
	store.mu.Unlock()

	require.NoError(t, svc.Delete(ctx, category.ID))
	_, err = svc.Get(ctx, category.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
}
