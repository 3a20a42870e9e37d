package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema bootstrap, run once at startup. Idempotent so restarts are
// safe without a separate migration step.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	username      VARCHAR(64)  NOT NULL,
	email         VARCHAR(128) NOT NULL,
	password_hash VARCHAR(256) NOT NULL,
	created_at    TIMESTAMPTZ  NOT NULL,
	CONSTRAINT users_username_key UNIQUE (username),
	CONSTRAINT users_email_key UNIQUE (email)
);

CREATE TABLE IF NOT EXISTS notes (
	id         UUID         PRIMARY KEY,
	title      VARCHAR(128) NOT NULL,
	content    TEXT         NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ  NOT NULL,
	updated_at TIMESTAMPTZ  NOT NULL,
	owner_id   UUID         NOT NULL REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS notes_owner_updated_idx ON notes (owner_id, updated_at DESC);
`

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)

	return err
}
