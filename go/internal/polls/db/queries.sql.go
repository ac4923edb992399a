// source: queries.sql

package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const pollColumns = `id, question, duration_seconds, status, started_at, ended_at, created_at, updated_at`

func scanPoll(row interface{ Scan(...interface{}) error }) (Poll, error) {
	var i Poll
	err := row.Scan(
		&i.ID,
		&i.Question,
		&i.DurationSeconds,
		&i.Status,
		&i.StartedAt,
		&i.EndedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createPoll = `-- name: CreatePoll :one
INSERT INTO polls (id, question, duration_seconds, status, created_at, updated_at)
VALUES ($1, $2, $3, 'CREATED', $4, $4)
RETURNING ` + pollColumns

type CreatePollParams struct {
	ID              uuid.UUID `json:"id"`
	Question        string    `json:"question"`
	DurationSeconds int32     `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}

func (q *Queries) CreatePoll(ctx context.Context, arg CreatePollParams) (Poll, error) {
	row := q.db.QueryRowContext(ctx, createPoll,
		arg.ID,
		arg.Question,
		arg.DurationSeconds,
		arg.CreatedAt,
	)
	return scanPoll(row)
}

const createPollOption = `-- name: CreatePollOption :one
INSERT INTO poll_options (id, poll_id, option_text, option_index, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, poll_id, option_text, option_index, created_at`

type CreatePollOptionParams struct {
	ID          uuid.UUID `json:"id"`
	PollID      uuid.UUID `json:"poll_id"`
	OptionText  string    `json:"option_text"`
	OptionIndex int32     `json:"option_index"`
	CreatedAt   time.Time `json:"created_at"`
}

func (q *Queries) CreatePollOption(ctx context.Context, arg CreatePollOptionParams) (PollOption, error) {
	row := q.db.QueryRowContext(ctx, createPollOption,
		arg.ID,
		arg.PollID,
		arg.OptionText,
		arg.OptionIndex,
		arg.CreatedAt,
	)
	var i PollOption
	err := row.Scan(
		&i.ID,
		&i.PollID,
		&i.OptionText,
		&i.OptionIndex,
		&i.CreatedAt,
	)
	return i, err
}

const getPoll = `-- name: GetPoll :one
SELECT ` + pollColumns + `
FROM polls
WHERE id = $1`

func (q *Queries) GetPoll(ctx context.Context, id uuid.UUID) (Poll, error) {
	row := q.db.QueryRowContext(ctx, getPoll, id)
	return scanPoll(row)
}

const getActivePoll = `-- name: GetActivePoll :one
SELECT ` + pollColumns + `
FROM polls
WHERE status = 'ACTIVE'
ORDER BY started_at DESC
LIMIT 1`

func (q *Queries) GetActivePoll(ctx context.Context) (Poll, error) {
	row := q.db.QueryRowContext(ctx, getActivePoll)
	return scanPoll(row)
}

const lockActivePoll = `-- name: LockActivePoll :one
SELECT ` + pollColumns + `
FROM polls
WHERE status = 'ACTIVE'
ORDER BY started_at DESC
LIMIT 1
FOR UPDATE`

func (q *Queries) LockActivePoll(ctx context.Context) (Poll, error) {
	row := q.db.QueryRowContext(ctx, lockActivePoll)
	return scanPoll(row)
}

const listPolls = `-- name: ListPolls :many
SELECT ` + pollColumns + `
FROM polls
ORDER BY created_at DESC`

func (q *Queries) ListPolls(ctx context.Context) ([]Poll, error) {
	rows, err := q.db.QueryContext(ctx, listPolls)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Poll
	for rows.Next() {
		i, err := scanPoll(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listPollOptions = `-- name: ListPollOptions :many
SELECT id, poll_id, option_text, option_index, created_at
FROM poll_options
WHERE poll_id = $1
ORDER BY option_index`

func (q *Queries) ListPollOptions(ctx context.Context, pollID uuid.UUID) ([]PollOption, error) {
	rows, err := q.db.QueryContext(ctx, listPollOptions, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PollOption
	for rows.Next() {
		var i PollOption
		if err := rows.Scan(
			&i.ID,
			&i.PollID,
			&i.OptionText,
			&i.OptionIndex,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const startPoll = `-- name: StartPoll :one
UPDATE polls
SET status = 'ACTIVE', started_at = $2, updated_at = $2
WHERE id = $1 AND status = 'CREATED'
RETURNING ` + pollColumns

type StartPollParams struct {
	ID        uuid.UUID `json:"id"`
	StartedAt time.Time `json:"started_at"`
}

func (q *Queries) StartPoll(ctx context.Context, arg StartPollParams) (Poll, error) {
	row := q.db.QueryRowContext(ctx, startPoll, arg.ID, arg.StartedAt)
	return scanPoll(row)
}

const endPoll = `-- name: EndPoll :one
UPDATE polls
SET status = 'ENDED', ended_at = $2, updated_at = $2
WHERE id = $1 AND status = 'ACTIVE'
RETURNING ` + pollColumns

type EndPollParams struct {
	ID      uuid.UUID `json:"id"`
	EndedAt time.Time `json:"ended_at"`
}

func (q *Queries) EndPoll(ctx context.Context, arg EndPollParams) (Poll, error) {
	row := q.db.QueryRowContext(ctx, endPoll, arg.ID, arg.EndedAt)
	return scanPoll(row)
}
