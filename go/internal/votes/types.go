package votes

import (
	"net"

	"github.com/google/uuid"
	"github.com/mcdev12/livepoll/go/internal/models"
)

// SubmitVoteRequest represents one student's ballot
type SubmitVoteRequest struct {
	PollID    uuid.UUID `json:"pollId"`
	StudentID uuid.UUID `json:"studentId"`
	OptionID  uuid.UUID `json:"optionId"`
	// ClientIP is the submitting address, when the transport knows it
	ClientIP net.IP `json:"-"`
}

// VoteResponse wraps a recorded vote
type VoteResponse struct {
	Vote *models.Vote `json:"vote"`
}

// HasVotedRequest asks whether a student voted on a poll
type HasVotedRequest struct {
	PollID    string `json:"pollId"`
	StudentID string `json:"studentId"`
}

// HasVotedResponse is the answer to HasVotedRequest
type HasVotedResponse struct {
	HasVoted bool `json:"hasVoted"`
}

// ListVotesRequest names the poll whose votes are listed
type ListVotesRequest struct {
	PollID string `json:"pollId"`
}

// ListVotesResponse lists votes in the order they were cast
type ListVotesResponse struct {
	Votes []models.Vote `json:"votes"`
}
