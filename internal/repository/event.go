package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mvenault/eventhub/internal/model"
)

const eventColumns = `id, title, slug, description, image, location,
	start_date, end_date, max_participants, price, status,
	organizer_id, category_id, created_at, updated_at`

// EventRepository handles persistence for events. Soft-deleted rows are
// invisible to every read here; only registrations keep referencing them.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Slug, &e.Description, &e.Image, &e.Location,
		&e.StartDate, &e.EndDate, &e.MaxParticipants, &e.Price, &e.Status,
		&e.OrganizerID, &e.CategoryID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a new event. The partial unique index on slug is the
// authoritative uniqueness guard; its violation surfaces as ErrConflict.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO events (title, slug, description, image, location,
			start_date, end_date, max_participants, price, status,
			organizer_id, category_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id, created_at, updated_at`,
		e.Title, e.Slug, e.Description, e.Image, e.Location,
		e.StartDate, e.EndDate, e.MaxParticipants, e.Price, e.Status,
		e.OrganizerID, e.CategoryID,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrConflict
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetByID returns a single live event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 AND deleted_at IS NULL`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// GetBySlug returns a single live event or ErrNotFound.
func (r *EventRepository) GetBySlug(ctx context.Context, slug string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE slug = $1 AND deleted_at IS NULL`, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get event by slug: %w", err)
	}
	return e, nil
}

// List returns events matching the filter plus the unpaginated total.
func (r *EventRepository) List(ctx context.Context, f model.EventFilter) ([]model.Event, int, error) {
	where := []string{"deleted_at IS NULL"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Status != "" {
		where = append(where, "status = "+arg(f.Status))
	}
	if f.CategoryID != 0 {
		where = append(where, "category_id = "+arg(f.CategoryID))
	}
	if f.OrganizerID != 0 {
		where = append(where, "organizer_id = "+arg(f.OrganizerID))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		where = append(where, fmt.Sprintf(
			"(title ILIKE %s OR description ILIKE %s OR location ILIKE %s)", p, p, p))
	}
	if f.StartsAfter != nil {
		where = append(where, "start_date >= "+arg(*f.StartsAfter))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM events WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	order := "start_date ASC"
	if f.NewestFirst {
		order = "created_at DESC"
	}
	query := `SELECT ` + eventColumns + ` FROM events WHERE ` + cond + ` ORDER BY ` + order
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, (page-1)*f.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, total, rows.Err()
}

// Update rewrites the mutable columns of an event.
func (r *EventRepository) Update(ctx context.Context, e *model.Event) error {
	err := r.db.QueryRow(ctx,
		`UPDATE events
		 SET title = $1, slug = $2, description = $3, image = $4,
		     location = $5, start_date = $6, end_date = $7,
		     max_participants = $8, price = $9, status = $10,
		     category_id = $11, updated_at = now()
		 WHERE id = $12 AND deleted_at IS NULL
		 RETURNING updated_at`,
		e.Title, e.Slug, e.Description, e.Image,
		e.Location, e.StartDate, e.EndDate,
		e.MaxParticipants, e.Price, e.Status,
		e.CategoryID, e.ID,
	).Scan(&e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrNotFound
		}
		if isUniqueViolation(err) {
			return model.ErrConflict
		}
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

// ReplaceTags rewrites the event's tag set. An unknown tag id surfaces
// as ErrNotFound via the foreign key.
func (r *EventRepository) ReplaceTags(ctx context.Context, eventID int64, tagIDs []int64) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM event_tags WHERE event_id = $1`, eventID); err != nil {
			return fmt.Errorf("clear event tags: %w", err)
		}
		for _, tagID := range tagIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO event_tags (event_id, tag_id) VALUES ($1, $2)
				 ON CONFLICT DO NOTHING`,
				eventID, tagID); err != nil {
				if isForeignKeyViolation(err) {
					return model.ErrNotFound
				}
				return fmt.Errorf("attach tag: %w", err)
			}
		}
		return nil
	})
}

// TagsFor returns the event's tags ordered by name.
func (r *EventRepository) TagsFor(ctx context.Context, eventID int64) ([]model.Tag, error) {
	rows, err := r.db.Query(ctx,
		`SELECT t.id, t.name, t.slug, t.color, t.created_at
		 FROM tags t
		 JOIN event_tags et ON et.tag_id = t.id
		 WHERE et.event_id = $1
		 ORDER BY t.name ASC`,
		eventID)
	if err != nil {
		return nil, fmt.Errorf("list event tags: %w", err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Color, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// SoftDelete marks the event deleted, excluding it from later reads.
func (r *EventRepository) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE events SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("soft delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
