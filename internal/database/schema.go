package database

import "context"

// schema is applied idempotently at startup. game_logs is written by the
// historian, never by the request path.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	is_guest BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS rooms (
	id UUID PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	host_user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	table_cards TEXT[] NOT NULL DEFAULT '{}',
	current_turn INT NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'waiting',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS players (
	id UUID PRIMARY KEY,
	room_id UUID NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	username TEXT NOT NULL,
	hand TEXT[] NOT NULL DEFAULT '{}',
	is_turn BOOLEAN NOT NULL DEFAULT FALSE,
	has_won BOOLEAN NOT NULL DEFAULT FALSE,
	last_seen TIMESTAMPTZ NOT NULL DEFAULT now(),
	join_order BIGSERIAL,
	UNIQUE (room_id, user_id)
);

CREATE TABLE IF NOT EXISTS game_logs (
	id BIGSERIAL PRIMARY KEY,
	room_code TEXT NOT NULL,
	actor_user_id UUID NOT NULL,
	action_type TEXT NOT NULL,
	payload JSONB,
	occurred_at TIMESTAMPTZ NOT NULL
);
`

// Migrate creates any missing tables.
func Migrate(ctx context.Context) error {
	_, err := DB.Exec(ctx, schema)
	return err
}
