package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type Vote struct {
	ID        uuid.UUID   `json:"id"`
	PollID    uuid.UUID   `json:"poll_id"`
	StudentID uuid.UUID   `json:"student_id"`
	OptionID  uuid.UUID   `json:"option_id"`
	ClientIp  pqtype.Inet `json:"client_ip"`
	VotedAt   time.Time   `json:"voted_at"`
}
