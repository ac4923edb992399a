package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxStudentNameLength is the longest display name accepted at registration.
const MaxStudentNameLength = 100

// Student is a participant identified by a client-generated session token.
type Student struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	SessionID  string    `json:"sessionId"`
	CreatedAt  time.Time `json:"createdAt"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}
