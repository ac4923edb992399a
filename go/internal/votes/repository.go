package votes

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/livepoll/go/internal/apperr"
	"github.com/mcdev12/livepoll/go/internal/dbschema"
	"github.com/mcdev12/livepoll/go/internal/models"
	"github.com/mcdev12/livepoll/go/internal/sqlutil"
	"github.com/mcdev12/livepoll/go/internal/votes/db"
)

// Querier defines what the repository needs from the database layer
type Querier interface {
	CreateVote(ctx context.Context, arg db.CreateVoteParams) (db.Vote, error)
	HasVoted(ctx context.Context, arg db.HasVotedParams) (bool, error)
	CountVotesByOption(ctx context.Context, pollID uuid.UUID) ([]db.CountVotesByOptionRow, error)
	CountVotes(ctx context.Context, pollID uuid.UUID) (int64, error)
	ListVotesByPoll(ctx context.Context, pollID uuid.UUID) ([]db.Vote, error)
}

// Repository implements vote data access operations. It also serves as the
// tally the polls app reads results from.
type Repository struct {
	queries Querier
}

// NewRepository creates a new votes repository
func NewRepository(querier Querier) *Repository {
	return &Repository{
		queries: querier,
	}
}

// CreateVote inserts a vote. The (poll, student) unique constraint is the
// authority on double voting.
func (r *Repository) CreateVote(ctx context.Context, req SubmitVoteRequest, votedAt time.Time) (*models.Vote, error) {
	vote, err := r.queries.CreateVote(ctx, db.CreateVoteParams{
		ID:        uuid.New(),
		PollID:    req.PollID,
		StudentID: req.StudentID,
		OptionID:  req.OptionID,
		ClientIp:  sqlutil.ToInet(req.ClientIP),
		VotedAt:   votedAt,
	})
	if sqlutil.IsUniqueViolation(err, dbschema.VotePollStudentKey) {
		return nil, ErrAlreadyVoted()
	}
	if err != nil {
		return nil, apperr.Infrastructure(err, "failed to submit vote")
	}

	return dbVoteToModel(vote), nil
}

// HasVoted reports whether a vote exists for the pair
func (r *Repository) HasVoted(ctx context.Context, pollID, studentID uuid.UUID) (bool, error) {
	voted, err := r.queries.HasVoted(ctx, db.HasVotedParams{PollID: pollID, StudentID: studentID})
	if err != nil {
		return false, apperr.Infrastructure(err, "failed to check vote")
	}
	return voted, nil
}

// CountVotesByOption returns vote counts keyed by option; options without votes are absent
func (r *Repository) CountVotesByOption(ctx context.Context, pollID uuid.UUID) (map[uuid.UUID]int, error) {
	rows, err := r.queries.CountVotesByOption(ctx, pollID)
	if err != nil {
		return nil, apperr.Infrastructure(err, "failed to count votes")
	}

	counts := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		counts[row.OptionID] = int(row.Count)
	}
	return counts, nil
}

// CountVotes returns the total number of votes on a poll
func (r *Repository) CountVotes(ctx context.Context, pollID uuid.UUID) (int, error) {
	total, err := r.queries.CountVotes(ctx, pollID)
	if err != nil {
		return 0, apperr.Infrastructure(err, "failed to count votes")
	}
	return int(total), nil
}

// ListVotes returns the votes of a poll in the order they were cast
func (r *Repository) ListVotes(ctx context.Context, pollID uuid.UUID) ([]models.Vote, error) {
	rows, err := r.queries.ListVotesByPoll(ctx, pollID)
	if err != nil {
		return nil, apperr.Infrastructure(err, "failed to list votes")
	}

	result := make([]models.Vote, len(rows))
	for i, row := range rows {
		result[i] = *dbVoteToModel(row)
	}
	return result, nil
}

func dbVoteToModel(v db.Vote) *models.Vote {
	return &models.Vote{
		ID:        v.ID,
		PollID:    v.PollID,
		StudentID: v.StudentID,
		OptionID:  v.OptionID,
		VotedAt:   v.VotedAt,
		ClientIP:  sqlutil.FromInet(v.ClientIp),
	}
}
