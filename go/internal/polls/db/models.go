package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Poll struct {
	ID              uuid.UUID    `json:"id"`
	Question        string       `json:"question"`
	DurationSeconds int32        `json:"duration_seconds"`
	Status          string       `json:"status"`
	StartedAt       sql.NullTime `json:"started_at"`
	EndedAt         sql.NullTime `json:"ended_at"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

type PollOption struct {
	ID          uuid.UUID `json:"id"`
	PollID      uuid.UUID `json:"poll_id"`
	OptionText  string    `json:"option_text"`
	OptionIndex int32     `json:"option_index"`
	CreatedAt   time.Time `json:"created_at"`
}
