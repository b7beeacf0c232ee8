package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gosimple/slug"

	"github.com/mvenault/eventhub/internal/model"
)

// TagStore is the persistence contract for tags.
type TagStore interface {
	Create(ctx context.Context, t *model.Tag) error
	GetByID(ctx context.Context, id int64) (*model.Tag, error)
	GetBySlug(ctx context.Context, slug string) (*model.Tag, error)
	List(ctx context.Context) ([]model.Tag, error)
	Update(ctx context.Context, t *model.Tag) error
	Delete(ctx context.Context, id int64) error
	CountEvents(ctx context.Context, id int64) (int, error)
}

// TagService manages the slug-unique tag catalog.
type TagService struct {
	tags TagStore
}

// NewTagService constructs a TagService.
func NewTagService(tags TagStore) *TagService {
	return &TagService{tags: tags}
}

// Create derives a slug from the name and persists a new tag.
func (s *TagService) Create(ctx context.Context, req model.CreateTagRequest) (*model.Tag, error) {
	tagSlug := slug.Make(req.Name)
	if _, err := s.tags.GetBySlug(ctx, tagSlug); err == nil {
		return nil, fmt.Errorf("%w: a tag with this name already exists", model.ErrConflict)
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	tag := &model.Tag{Name: req.Name, Slug: tagSlug, Color: req.Color}
	if err := s.tags.Create(ctx, tag); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return nil, fmt.Errorf("%w: a tag with this name already exists", model.ErrConflict)
		}
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return tag, nil
}

// Get returns a single tag.
func (s *TagService) Get(ctx context.Context, id int64) (*model.Tag, error) {
	tag, err := s.tags.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("tag #%d: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return tag, nil
}

// List returns all tags.
func (s *TagService) List(ctx context.Context) ([]model.Tag, error) {
	return s.tags.List(ctx)
}

// Update applies a partial patch, regenerating the slug on a name change.
func (s *TagService) Update(ctx context.Context, id int64, req model.UpdateTagRequest) (*model.Tag, error) {
	tag, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		newSlug := slug.Make(*req.Name)
		if existing, err := s.tags.GetBySlug(ctx, newSlug); err == nil {
			if existing.ID != id {
				return nil, fmt.Errorf("%w: a tag with this name already exists", model.ErrConflict)
			}
		} else if !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		tag.Name = *req.Name
		tag.Slug = newSlug
	}
	if req.Color != nil {
		tag.Color = req.Color
	}

	if err := s.tags.Update(ctx, tag); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return nil, fmt.Errorf("%w: a tag with this name already exists", model.ErrConflict)
		}
		return nil, fmt.Errorf("update tag: %w", err)
	}
	return tag, nil
}

// Delete removes a tag with no remaining events.
func (s *TagService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	count, err := s.tags.CountEvents(ctx, id)
	if err != nil {
		return fmt.Errorf("count events: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: cannot delete tag with %d associated event(s)",
			model.ErrPreconditionFailed, count)
	}
	return s.tags.Delete(ctx, id)
}
