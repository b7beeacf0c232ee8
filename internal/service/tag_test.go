package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvenault/eventhub/internal/model"
)

func TestTagCreate(t *testing.T) {
	store := newMemTagStore()
	svc := NewTagService(store)
	ctx := context.Background()

	color := "#ff6600"
	tag, err := svc.Create(ctx, model.CreateTagRequest{Name: "Open Source", Color: &color})
	require.NoError(t, err)
	assert.Equal(t, "open-source", tag.Slug)
	require.NotNil(t, tag.Color)
	assert.Equal(t, color, *tag.Color)

	_, err = svc.Create(ctx, model.CreateTagRequest{Name: "Open Source"})
	require.ErrorIs(t, err, model.ErrConflict)
}

func TestTagDeleteBlockedWhileReferenced(t *testing.T) {
	store := newMemTagStore()
	svc := NewTagService(store)
	ctx := context.Background()

	tag, err := svc.Create(ctx, model.CreateTagRequest{Name: "Open Source"})
	require.NoError(t, err)

	store.mu.Lock()
	store.eventCount[tag.ID] = 1
	store.mu.Unlock()

	err = svc.Delete(ctx, tag.ID)
	require.ErrorIs(t, err, model.ErrPreconditionFailed)

	store.mu.Lock()
	store.eventCount[tag.ID] = 0
	store.mu.Unlock()

	require.NoError(t, svc.Delete(ctx, tag.ID))
}
