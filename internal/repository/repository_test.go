package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvenault/eventhub/internal/database"
	"github.com/mvenault/eventhub/internal/model"
)

// These tests need a real PostgreSQL instance; point TEST_DATABASE_URL
// at a throwaway database to run them.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.Migrate(ctx, pool))
	_, err = pool.Exec(ctx,
		`TRUNCATE registrations, event_tags, events, tags, categories,
		 refresh_tokens, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return pool
}

func seedUser(t *testing.T, pool *pgxpool.Pool, email string) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (email, password, first_name, last_name, role)
		 VALUES ($1, 'x', 'Test', 'User', 'organizer') RETURNING id`,
		email).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedCategory(t *testing.T, pool *pgxpool.Pool) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO categories (name, slug) VALUES ('Tech', 'tech') RETURNING id`,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedEvent(t *testing.T, pool *pgxpool.Pool, maxParticipants *int) *model.Event {
	t.Helper()
	events := NewEventRepository(pool)
	e := &model.Event{
		Title:           "Go Meetup",
		Slug:            "go-meetup",
		Description:     "An evening of Go talks.",
		Location:        "Berlin",
		StartDate:       time.Now().Add(24 * time.Hour),
		EndDate:         time.Now().Add(26 * time.Hour),
		MaxParticipants: maxParticipants,
		Status:          model.EventPublished,
		OrganizerID:     seedUser(t, pool, "organizer@example.com"),
		CategoryID:      seedCategory(t, pool),
	}
	require.NoError(t, events.Create(context.Background(), e))
	return e
}

func TestEventSlugUniqueAmongLive(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	events := NewEventRepository(pool)

	event := seedEvent(t, pool, nil)

	dup := *event
	dup.ID = 0
	err := events.Create(ctx, &dup)
	require.ErrorIs(t, err, model.ErrConflict)

	// A soft-deleted event frees its slug.
	require.NoError(t, events.SoftDelete(ctx, event.ID))
	require.NoError(t, events.Create(ctx, &dup))

	_, err = events.GetByID(ctx, event.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestRegistrationCapacityAndUniqueness(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	regs := NewRegistrationRepository(pool)

	event := seedEvent(t, pool, func() *int { n := 2; return &n }())
	alice := seedUser(t, pool, "alice@example.com")
	bob := seedUser(t, pool, "bob@example.com")
	carol := seedUser(t, pool, "carol@example.com")

	_, err := regs.Create(ctx, alice, event.ID, model.RegistrationConfirmed)
	require.NoError(t, err)
	_, err = regs.Create(ctx, bob, event.ID, model.RegistrationConfirmed)
	require.NoError(t, err)

	_, err = regs.Create(ctx, carol, event.ID, model.RegistrationConfirmed)
	require.ErrorIs(t, err, model.ErrCapacityExceeded)

	_, err = regs.Create(ctx, alice, event.ID, model.RegistrationConfirmed)
	require.ErrorIs(t, err, model.ErrConflict)

	n, err := regs.CountConfirmed(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRegistrationStatusTransitions(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	regs := NewRegistrationRepository(pool)

	event := seedEvent(t, pool, func() *int { n := 1; return &n }())
	alice := seedUser(t, pool, "alice@example.com")
	bob := seedUser(t, pool, "bob@example.com")

	_, err := regs.Create(ctx, alice, event.ID, model.RegistrationPending)
	require.NoError(t, err)
	_, err = regs.Create(ctx, bob, event.ID, model.RegistrationConfirmed)
	require.NoError(t, err)

	// Confirming the pending registration would oversell.
	_, err = regs.UpdateStatus(ctx, alice, event.ID, model.RegistrationConfirmed)
	require.ErrorIs(t, err, model.ErrCapacityExceeded)

	// Freeing the confirmed spot lets the transition through.
	_, err = regs.UpdateStatus(ctx, bob, event.ID, model.RegistrationCancelled)
	require.NoError(t, err)
	reg, err := regs.UpdateStatus(ctx, alice, event.ID, model.RegistrationConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationConfirmed, reg.Status)

	// Cancelled is terminal.
	_, err = regs.UpdateStatus(ctx, bob, event.ID, model.RegistrationConfirmed)
	require.ErrorIs(t, err, model.ErrInvalidState)
}
