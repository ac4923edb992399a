package db

import (
	"time"

	"github.com/google/uuid"
)

type Student struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	SessionID  string    `json:"session_id"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}
