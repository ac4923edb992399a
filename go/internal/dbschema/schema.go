// Package dbschema holds the Postgres DDL for the polling tables.
package dbschema

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema creates every table and constraint. Statements are idempotent so it
// can be applied on every deploy.
const Schema = `
CREATE TABLE IF NOT EXISTS polls (
    id               UUID PRIMARY KEY,
    question         TEXT NOT NULL CHECK (length(trim(question)) > 0),
    duration_seconds INTEGER NOT NULL CHECK (duration_seconds BETWEEN 1 AND 60),
    status           TEXT NOT NULL DEFAULT 'CREATED' CHECK (status IN ('CREATED', 'ACTIVE', 'ENDED')),
    started_at       TIMESTAMPTZ,
    ended_at         TIMESTAMPTZ,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS polls_single_active_idx
    ON polls ((status)) WHERE status = 'ACTIVE';

CREATE INDEX IF NOT EXISTS polls_created_at_idx ON polls (created_at DESC);

CREATE TABLE IF NOT EXISTS poll_options (
    id           UUID PRIMARY KEY,
    poll_id      UUID NOT NULL REFERENCES polls (id),
    option_text  TEXT NOT NULL,
    option_index INTEGER NOT NULL CHECK (option_index >= 0),
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT poll_options_poll_index_key UNIQUE (poll_id, option_index),
    CONSTRAINT poll_options_id_poll_key UNIQUE (id, poll_id)
);

CREATE TABLE IF NOT EXISTS students (
    id           UUID PRIMARY KEY,
    name         VARCHAR(100) NOT NULL,
    session_id   TEXT NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    last_seen_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT students_session_id_key UNIQUE (session_id)
);

CREATE TABLE IF NOT EXISTS votes (
    id         UUID PRIMARY KEY,
    poll_id    UUID NOT NULL REFERENCES polls (id),
    student_id UUID NOT NULL REFERENCES students (id),
    option_id  UUID NOT NULL,
    client_ip  INET,
    voted_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT votes_poll_student_key UNIQUE (poll_id, student_id),
    CONSTRAINT votes_option_poll_fkey FOREIGN KEY (option_id, poll_id)
        REFERENCES poll_options (id, poll_id)
);

CREATE INDEX IF NOT EXISTS votes_poll_option_idx ON votes (poll_id, option_id);
`

// Constraint names surfaced by unique violations.
const (
	SingleActivePollIndex = "polls_single_active_idx"
	VotePollStudentKey    = "votes_poll_student_key"
	StudentSessionKey     = "students_session_id_key"
)

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Apply runs the schema through e.
func Apply(ctx context.Context, e Execer) error {
	if _, err := e.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
