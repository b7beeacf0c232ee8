package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gosimple/slug"

	"github.com/mvenault/eventhub/internal/model"
)

// CategoryStore is the persistence contract for categories.
type CategoryStore interface {
	Create(ctx context.Context, c *model.Category) error
	GetByID(ctx context.Context, id int64) (*model.Category, error)
	GetBySlug(ctx context.Context, slug string) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	Update(ctx context.Context, c *model.Category) error
	Delete(ctx context.Context, id int64) error
	CountEvents(ctx context.Context, id int64) (int, error)
}

// CategoryService manages the slug-unique category catalog.
type CategoryService struct {
	categories CategoryStore
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(categories CategoryStore) *CategoryService {
	return &CategoryService{categories: categories}
}

// Create derives a slug from the name and persists a new category.
func (s *CategoryService) Create(ctx context.Context, req model.CreateCategoryRequest) (*model.Category, error) {
	catSlug := slug.Make(req.Name)
	if _, err := s.categories.GetBySlug(ctx, catSlug); err == nil {
		return nil, fmt.Errorf("%w: a category with this name already exists", model.ErrConflict)
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	category := &model.Category{Name: req.Name, Slug: catSlug, Description: req.Description}
	if err := s.categories.Create(ctx, category); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return nil, fmt.Errorf("%w: a category with this name already exists", model.ErrConflict)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

// Get returns a single category.
func (s *CategoryService) Get(ctx context.Context, id int64) (*model.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("category #%d: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return category, nil
}

// List returns all categories.
func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	return s.categories.List(ctx)
}

// Update applies a partial patch, regenerating the slug on a name change.
func (s *CategoryService) Update(ctx context.Context, id int64, req model.UpdateCategoryRequest) (*model.Category, error) {
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		newSlug := slug.Make(*req.Name)
		if existing, err := s.categories.GetBySlug(ctx, newSlug); err == nil {
			if existing.ID != id {
				return nil, fmt.Errorf("%w: a category with this name already exists", model.ErrConflict)
			}
		} else if !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		category.Name = *req.Name
		category.Slug = newSlug
	}
	if req.Description != nil {
		category.Description = req.Description
	}

	if err := s.categories.Update(ctx, category); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return nil, fmt.Errorf("%w: a category with this name already exists", model.ErrConflict)
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	return category, nil
}

// Delete removes a category with no remaining events.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	count, err := s.categories.CountEvents(ctx, id)
	if err != nil {
		return fmt.Errorf("count events: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: cannot delete category with %d associated event(s)",
			model.ErrPreconditionFailed, count)
	}
	return s.categories.Delete(ctx, id)
}
