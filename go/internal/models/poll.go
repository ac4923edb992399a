package models

import (
	"time"

	"github.com/google/uuid"
)

// PollStatus defines where a poll is in its lifecycle.
type PollStatus string

const (
	PollStatusCreated PollStatus = "CREATED"
	PollStatusActive  PollStatus = "ACTIVE"
	PollStatusEnded   PollStatus = "ENDED"
)

// Poll bounds enforced at creation.
const (
	MinPollOptions     = 2
	MaxPollOptions     = 10
	MinDurationSeconds = 1
	MaxDurationSeconds = 60
)

// Poll represents a timed multiple-choice question together with its options.
type Poll struct {
	ID              uuid.UUID    `json:"id"`
	Question        string       `json:"question"`
	DurationSeconds int          `json:"durationSeconds"`
	Status          PollStatus   `json:"status"`
	StartedAt       *time.Time   `json:"startedAt"`
	EndedAt         *time.Time   `json:"endedAt"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
	Options         []PollOption `json:"options,omitempty"`
}

// PollOption is one answer choice. Index is the zero-based display position.
type PollOption struct {
	ID         uuid.UUID `json:"id"`
	PollID     uuid.UUID `json:"pollId"`
	OptionText string    `json:"optionText"`
	Index      int       `json:"optionIndex"`
	CreatedAt  time.Time `json:"createdAt"`
}

// HasOption reports whether optionID belongs to the poll.
func (p *Poll) HasOption(optionID uuid.UUID) bool {
	for _, opt := range p.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

// OptionResult is the tally for a single option.
type OptionResult struct {
	OptionID   uuid.UUID `json:"optionId"`
	OptionText string    `json:"optionText"`
	Count      int       `json:"count"`
	Percentage float64   `json:"percentage"`
}

// PollResults is the derived vote aggregate for a poll, ordered by option index.
type PollResults struct {
	PollID     uuid.UUID      `json:"pollId"`
	TotalVotes int            `json:"totalVotes"`
	Options    []OptionResult `json:"options"`
}

// PollState is the recovery snapshot handed to a freshly connected client.
type PollState struct {
	Poll       *Poll        `json:"poll"`
	ServerTime time.Time    `json:"serverTime"`
	HasVoted   bool         `json:"hasVoted"`
	Results    *PollResults `json:"results"`
}
