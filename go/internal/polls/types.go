package polls

import (
	"errors"
	"time"

	"github.com/mcdev12/livepoll/go/internal/models"
)

// CreatePollRequest represents the data needed to create a poll
type CreatePollRequest struct {
	Question        string   `json:"question"`
	Options         []string `json:"options"`
	DurationSeconds int      `json:"durationSeconds"`
}

// ErrNoTransition is returned by the repository when a conditional status
// update matched no row because the poll was no longer in the expected state.
var ErrNoTransition = errors.New("poll status changed concurrently")

// PollRequest identifies a poll in RPC calls
type PollRequest struct {
	PollID string `json:"pollId"`
}

// PollResponse wraps a single poll
type PollResponse struct {
	Poll *models.Poll `json:"poll"`
}

// StartPollResponse reports the active poll and whether this call started it
type StartPollResponse struct {
	Poll       *models.Poll `json:"poll"`
	Started    bool         `json:"started"`
	ServerTime time.Time    `json:"serverTime"`
}

// ListPollsRequest is empty; polls are always returned newest first
type ListPollsRequest struct{}

// ListPollsResponse lists polls without their options
type ListPollsResponse struct {
	Polls []models.Poll `json:"polls"`
}

// ResultsResponse wraps the tally of a poll
type ResultsResponse struct {
	Results *models.PollResults `json:"results"`
}

// ActivePollRequest optionally names the student asking for the snapshot
type ActivePollRequest struct {
	StudentID string `json:"studentId,omitempty"`
}
