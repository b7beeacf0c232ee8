package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mvenault/eventhub/internal/model"
)

// TagRepository handles persistence for event tags.
type TagRepository struct {
	db *pgxpool.Pool
}

// NewTagRepository constructs a TagRepository.
func NewTagRepository(db *pgxpool.Pool) *TagRepository {
	return &TagRepository{db: db}
}

func scanTag(row pgx.Row) (*model.Tag, error) {
	var t model.Tag
	if err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Color, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a tag; duplicate slug surfaces as ErrConflict.
func (r *TagRepository) Create(ctx context.Context, t *model.Tag) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO tags (name, slug, color)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		t.Name, t.Slug, t.Color,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrConflict
		}
		return fmt.Errorf("insert tag: %w", err)
	}
	return nil
}

// GetByID returns a single tag or ErrNotFound.
func (r *TagRepository) GetByID(ctx context.Context, id int64) (*model.Tag, error) {
	t, err := scanTag(r.db.QueryRow(ctx,
		`SELECT id, name, slug, color, created_at FROM tags WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return t, nil
}

// GetBySlug returns a single tag or ErrNotFound.
func (r *TagRepository) GetBySlug(ctx context.Context, slug string) (*model.Tag, error) {
	t, err := scanTag(r.db.QueryRow(ctx,
		`SELECT id, name, slug, color, created_at FROM tags WHERE slug = $1`, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get tag by slug: %w", err)
	}
	return t, nil
}

// List returns all tags ordered by name.
func (r *TagRepository) List(ctx context.Context) ([]model.Tag, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, slug, color, created_at FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, *t)
	}
	return tags, rows.Err()
}

// Update rewrites a tag.
func (r *TagRepository) Update(ctx context.Context, t *model.Tag) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE tags SET name = $1, slug = $2, color = $3 WHERE id = $4`,
		t.Name, t.Slug, t.Color, t.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrConflict
		}
		return fmt.Errorf("update tag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Delete removes a tag. Callers must check references first.
func (r *TagRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// CountEvents counts live events carrying the tag.
func (r *TagRepository) CountEvents(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM event_tags et
		 JOIN events e ON e.id = et.event_id
		 WHERE et.tag_id = $1 AND e.deleted_at IS NULL`,
		id,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count events by tag: %w", err)
	}
	return n, nil
}
