package models

import (
	"net"
	"time"

	"github.com/google/uuid"
)

// Vote records one student's choice on one poll. Votes are append-only.
type Vote struct {
	ID        uuid.UUID `json:"id"`
	PollID    uuid.UUID `json:"pollId"`
	StudentID uuid.UUID `json:"studentId"`
	OptionID  uuid.UUID `json:"optionId"`
	VotedAt   time.Time `json:"votedAt"`
	ClientIP  net.IP    `json:"-"`
}
