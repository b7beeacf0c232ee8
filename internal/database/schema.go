package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate bootstraps the schema. The unique indexes here are the
// authoritative guards behind the application-level pre-checks: a live
// slug can exist only once, and a user can hold at most one registration
// per event no matter how many requests race.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	avatar TEXT,
	role TEXT NOT NULL DEFAULT 'user'
		CHECK (role IN ('user', 'organizer', 'admin')),
	reset_password_token TEXT,
	reset_password_expires TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	deleted_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS refresh_tokens (
	token TEXT PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	expires_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS categories (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	description TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tags (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	color TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS events (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	slug TEXT NOT NULL,
	description TEXT NOT NULL,
	image TEXT,
	location TEXT NOT NULL,
	start_date TIMESTAMPTZ NOT NULL,
	end_date TIMESTAMPTZ NOT NULL,
	max_participants INT CHECK (max_participants > 0),
	price NUMERIC(10,2),
	status TEXT NOT NULL DEFAULT 'draft'
		CHECK (status IN ('draft', 'published', 'cancelled', 'completed')),
	organizer_id BIGINT NOT NULL REFERENCES users(id),
	category_id BIGINT NOT NULL REFERENCES categories(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	deleted_at TIMESTAMPTZ
);

-- Slug uniqueness applies to live events only; a soft-deleted event
-- frees its slug for reuse.
CREATE UNIQUE INDEX IF NOT EXISTS events_slug_live_idx
	ON events (slug) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS event_tags (
	event_id BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	tag_id BIGINT NOT NULL REFERENCES tags(id),
	PRIMARY KEY (event_id, tag_id)
);

CREATE TABLE IF NOT EXISTS registrations (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id),
	event_id BIGINT NOT NULL REFERENCES events(id),
	status TEXT NOT NULL DEFAULT 'confirmed'
		CHECK (status IN ('pending', 'confirmed', 'cancelled')),
	registered_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, event_id)
);
`

// Migrate applies the bootstrap DDL. All statements are idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
