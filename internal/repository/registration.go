package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mvenault/eventhub/internal/model"
)

// RegistrationRepository handles persistence for registrations.
//
// The capacity ceiling cannot be enforced with a plain read-then-write:
// two transactions could both observe a confirmed count below the limit
// and both commit an insert. Create and UpdateStatus therefore acquire a
// row-level lock on the event (SELECT ... FOR UPDATE) before counting,
// serializing all capacity decisions for that event. The composite
// unique index on (user_id, event_id) is the authoritative duplicate
// guard behind the in-transaction pre-check.
type RegistrationRepository struct {
	db *pgxpool.Pool
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Create inserts a registration, enforcing the per-event capacity ceiling
// and the one-registration-per-user uniqueness atomically.
func (r *RegistrationRepository) Create(ctx context.Context, userID, eventID int64, status model.RegistrationStatus) (*model.Registration, error) {
	reg := &model.Registration{UserID: userID, EventID: eventID, Status: status}

	err := inTxRetry(ctx, r.db, func(tx pgx.Tx) error {
		// Lock the event row; concurrent attempts for the same event
		// queue here until we commit or roll back.
		var maxParticipants *int
		err := tx.QueryRow(ctx,
			`SELECT max_participants FROM events
			 WHERE id = $1 AND deleted_at IS NULL
			 FOR UPDATE`,
			eventID,
		).Scan(&maxParticipants)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrNotFound
			}
			return fmt.Errorf("lock event row: %w", err)
		}

		var exists bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM registrations WHERE user_id = $1 AND event_id = $2)`,
			userID, eventID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check duplicate: %w", err)
		}
		if exists {
			return model.ErrConflict
		}

		if maxParticipants != nil {
			var confirmed int
			err = tx.QueryRow(ctx,
				`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = 'confirmed'`,
				eventID,
			).Scan(&confirmed)
			if err != nil {
				return fmt.Errorf("count confirmed: %w", err)
			}
			if confirmed >= *maxParticipants {
				return model.ErrCapacityExceeded
			}
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO registrations (user_id, event_id, status)
			 VALUES ($1, $2, $3)
			 RETURNING id, registered_at`,
			userID, eventID, status,
		).Scan(&reg.ID, &reg.RegisteredAt)
		if err != nil {
			if isUniqueViolation(err) {
				return model.ErrConflict
			}
			return fmt.Errorf("insert registration: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// UpdateStatus transitions a registration's status. Cancelled is
// terminal, and a transition into confirmed re-checks capacity under the
// same event lock used at registration time, so the ceiling cannot be
// reopened through a status change.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, userID, eventID int64, status model.RegistrationStatus) (*model.Registration, error) {
	reg := &model.Registration{UserID: userID, EventID: eventID}

	err := inTxRetry(ctx, r.db, func(tx pgx.Tx) error {
		var maxParticipants *int
		err := tx.QueryRow(ctx,
			`SELECT max_participants FROM events
			 WHERE id = $1 AND deleted_at IS NULL
			 FOR UPDATE`,
			eventID,
		).Scan(&maxParticipants)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrNotFound
			}
			return fmt.Errorf("lock event row: %w", err)
		}

		var current model.RegistrationStatus
		err = tx.QueryRow(ctx,
			`SELECT id, status FROM registrations
			 WHERE user_id = $1 AND event_id = $2
			 FOR UPDATE`,
			userID, eventID,
		).Scan(&reg.ID, &current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrNotFound
			}
			return fmt.Errorf("lock registration row: %w", err)
		}

		if current == model.RegistrationCancelled && status != model.RegistrationCancelled {
			return model.ErrInvalidState
		}

		if status == model.RegistrationConfirmed &&
			current != model.RegistrationConfirmed && maxParticipants != nil {
			var confirmed int
			err = tx.QueryRow(ctx,
				`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = 'confirmed'`,
				eventID,
			).Scan(&confirmed)
			if err != nil {
				return fmt.Errorf("count confirmed: %w", err)
			}
			if confirmed >= *maxParticipants {
				return model.ErrCapacityExceeded
			}
		}

		err = tx.QueryRow(ctx,
			`UPDATE registrations SET status = $1 WHERE id = $2
			 RETURNING status, registered_at`,
			status, reg.ID,
		).Scan(&reg.Status, &reg.RegisteredAt)
		if err != nil {
			return fmt.Errorf("update registration status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// GetByUserAndEvent returns the registration for one (user, event) pair.
func (r *RegistrationRepository) GetByUserAndEvent(ctx context.Context, userID, eventID int64) (*model.Registration, error) {
	var reg model.Registration
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, event_id, status, registered_at
		 FROM registrations WHERE user_id = $1 AND event_id = $2`,
		userID, eventID,
	).Scan(&reg.ID, &reg.UserID, &reg.EventID, &reg.Status, &reg.RegisteredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return &reg, nil
}

// Delete hard-deletes the row. Registrations are transactional facts
// safe to purge, unlike events which are only ever soft-deleted.
func (r *RegistrationRepository) Delete(ctx context.Context, userID, eventID int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM registrations WHERE user_id = $1 AND event_id = $2`,
		userID, eventID)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ListByUser returns the user's registrations, newest first, each joined
// with a snapshot of the event. Soft-deleted events stay visible here.
func (r *RegistrationRepository) ListByUser(ctx context.Context, userID int64) ([]model.Registration, error) {
	rows, err := r.db.Query(ctx,
		`SELECT r.id, r.user_id, r.event_id, r.status, r.registered_at,
		        e.id, e.title, e.slug, e.image, e.location,
		        e.start_date, e.end_date, e.price, e.status
		 FROM registrations r
		 JOIN events e ON e.id = r.event_id
		 WHERE r.user_id = $1
		 ORDER BY r.registered_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list registrations by user: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		var reg model.Registration
		var ev model.EventSummary
		err := rows.Scan(
			&reg.ID, &reg.UserID, &reg.EventID, &reg.Status, &reg.RegisteredAt,
			&ev.ID, &ev.Title, &ev.Slug, &ev.Image, &ev.Location,
			&ev.StartDate, &ev.EndDate, &ev.Price, &ev.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		reg.Event = &ev
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

// ListByEvent returns all registrations for an event, oldest first, each
// joined with a snapshot of the registrant.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID int64) ([]model.Registration, error) {
	rows, err := r.db.Query(ctx,
		`SELECT r.id, r.user_id, r.event_id, r.status, r.registered_at,
		        u.id, u.email, u.first_name, u.last_name, u.avatar
		 FROM registrations r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.event_id = $1
		 ORDER BY r.registered_at ASC`,
		eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations by event: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		var reg model.Registration
		var u model.UserSummary
		err := rows.Scan(
			&reg.ID, &reg.UserID, &reg.EventID, &reg.Status, &reg.RegisteredAt,
			&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Avatar,
		)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		reg.User = &u
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

// CountConfirmed reads the current committed confirmed count. Capacity
// checks never use a cached value.
func (r *RegistrationRepository) CountConfirmed(ctx context.Context, eventID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = 'confirmed'`,
		eventID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count confirmed: %w", err)
	}
	return n, nil
}
