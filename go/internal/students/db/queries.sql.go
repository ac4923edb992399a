// source: queries.sql

package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const studentColumns = `id, name, session_id, created_at, last_seen_at`

func scanStudent(row interface{ Scan(...interface{}) error }) (Student, error) {
	var i Student
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.SessionID,
		&i.CreatedAt,
		&i.LastSeenAt,
	)
	return i, err
}

const createStudent = `-- name: CreateStudent :one
INSERT INTO students (id, name, session_id, created_at, last_seen_at)
VALUES ($1, $2, $3, $4, $4)
RETURNING ` + studentColumns

type CreateStudentParams struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (q *Queries) CreateStudent(ctx context.Context, arg CreateStudentParams) (Student, error) {
	row := q.db.QueryRowContext(ctx, createStudent,
		arg.ID,
		arg.Name,
		arg.SessionID,
		arg.CreatedAt,
	)
	return scanStudent(row)
}

const getStudent = `-- name: GetStudent :one
SELECT ` + studentColumns + `
FROM students
WHERE id = $1`

func (q *Queries) GetStudent(ctx context.Context, id uuid.UUID) (Student, error) {
	row := q.db.QueryRowContext(ctx, getStudent, id)
	return scanStudent(row)
}

const getStudentBySession = `-- name: GetStudentBySession :one
SELECT ` + studentColumns + `
FROM students
WHERE session_id = $1`

func (q *Queries) GetStudentBySession(ctx context.Context, sessionID string) (Student, error) {
	row := q.db.QueryRowContext(ctx, getStudentBySession, sessionID)
	return scanStudent(row)
}

const touchStudent = `-- name: TouchStudent :one
UPDATE students
SET last_seen_at = GREATEST(last_seen_at, $2)
WHERE session_id = $1
RETURNING ` + studentColumns

type TouchStudentParams struct {
	SessionID  string    `json:"session_id"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

func (q *Queries) TouchStudent(ctx context.Context, arg TouchStudentParams) (Student, error) {
	row := q.db.QueryRowContext(ctx, touchStudent, arg.SessionID, arg.LastSeenAt)
	return scanStudent(row)
}

const listStudents = `-- name: ListStudents :many
SELECT ` + studentColumns + `
FROM students
ORDER BY created_at DESC`

func (q *Queries) ListStudents(ctx context.Context) ([]Student, error) {
	rows, err := q.db.QueryContext(ctx, listStudents)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Student
	for rows.Next() {
		i, err := scanStudent(rows)
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
