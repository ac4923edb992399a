// source: queries.sql

package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const voteColumns = `id, poll_id, student_id, option_id, client_ip, voted_at`

func scanVote(row interface{ Scan(...interface{}) error }) (Vote, error) {
	var i Vote
	err := row.Scan(
		&i.ID,
		&i.PollID,
		&i.StudentID,
		&i.OptionID,
		&i.ClientIp,
		&i.VotedAt,
	)
	return i, err
}

const createVote = `-- name: CreateVote :one
INSERT INTO votes (id, poll_id, student_id, option_id, client_ip, voted_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + voteColumns

type CreateVoteParams struct {
	ID        uuid.UUID   `json:"id"`
	PollID    uuid.UUID   `json:"poll_id"`
	StudentID uuid.UUID   `json:"student_id"`
	OptionID  uuid.UUID   `json:"option_id"`
	ClientIp  pqtype.Inet `json:"client_ip"`
	VotedAt   time.Time   `json:"voted_at"`
}

func (q *Queries) CreateVote(ctx context.Context, arg CreateVoteParams) (Vote, error) {
	row := q.db.QueryRowContext(ctx, createVote,
		arg.ID,
		arg.PollID,
		arg.StudentID,
		arg.OptionID,
		arg.ClientIp,
		arg.VotedAt,
	)
	return scanVote(row)
}

const hasVoted = `-- name: HasVoted :one
SELECT EXISTS (
    SELECT 1 FROM votes WHERE poll_id = $1 AND student_id = $2
)`

type HasVotedParams struct {
	PollID    uuid.UUID `json:"poll_id"`
	StudentID uuid.UUID `json:"student_id"`
}

func (q *Queries) HasVoted(ctx context.Context, arg HasVotedParams) (bool, error) {
	row := q.db.QueryRowContext(ctx, hasVoted, arg.PollID, arg.StudentID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const countVotesByOption = `-- name: CountVotesByOption :many
SELECT option_id, COUNT(*) AS count
FROM votes
WHERE poll_id = $1
GROUP BY option_id`

type CountVotesByOptionRow struct {
	OptionID uuid.UUID `json:"option_id"`
	Count    int64     `json:"count"`
}

func (q *Queries) CountVotesByOption(ctx context.Context, pollID uuid.UUID) ([]CountVotesByOptionRow, error) {
	rows, err := q.db.QueryContext(ctx, countVotesByOption, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CountVotesByOptionRow
	for rows.Next() {
		var i CountVotesByOptionRow
		if err := rows.Scan(&i.OptionID, &i.Count); err != nil {
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

const countVotes = `-- name: CountVotes :one
SELECT COUNT(*) FROM votes WHERE poll_id = $1`

func (q *Queries) CountVotes(ctx context.Context, pollID uuid.UUID) (int64, error) {
	row := q.db.QueryRowContext(ctx, countVotes, pollID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listVotesByPoll = `-- name: ListVotesByPoll :many
SELECT ` + voteColumns + `
FROM votes
WHERE poll_id = $1
ORDER BY voted_at`

func (q *Queries) ListVotesByPoll(ctx context.Context, pollID uuid.UUID) ([]Vote, error) {
	rows, err := q.db.QueryContext(ctx, listVotesByPoll, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Vote
	for rows.Next() {
		i, err := scanVote(rows)
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
