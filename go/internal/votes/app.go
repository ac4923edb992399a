package votes

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/livepoll/go/internal/apperr"
	"github.com/mcdev12/livepoll/go/internal/models"
	"github.com/mcdev12/livepoll/go/internal/timer"
	"github.com/rs/zerolog/log"
)

// VotesRepository defines what the app layer needs from the repository
type VotesRepository interface {
	CreateVote(ctx context.Context, req SubmitVoteRequest, votedAt time.Time) (*models.Vote, error)
	HasVoted(ctx context.Context, pollID, studentID uuid.UUID) (bool, error)
	ListVotes(ctx context.Context, pollID uuid.UUID) ([]models.Vote, error)
}

// PollReader is the slice of the polls app used for admission and results
type PollReader interface {
	GetPoll(ctx context.Context, id uuid.UUID) (*models.Poll, error)
	GetResults(ctx context.Context, id uuid.UUID) (*models.PollResults, error)
}

// StudentReader resolves student references
type StudentReader interface {
	GetStudent(ctx context.Context, id uuid.UUID) (*models.Student, error)
}

// Notifier receives fresh results after every recorded vote
type Notifier interface {
	VoteRecorded(ctx context.Context, results *models.PollResults)
}

type noopNotifier struct{}

func (noopNotifier) VoteRecorded(context.Context, *models.PollResults) {}

// App handles vote admission
type App struct {
	repo     VotesRepository
	polls    PollReader
	students StudentReader
	clock    clockwork.Clock
	notifier Notifier
}

// NewApp creates a new votes App. A nil notifier discards notifications.
func NewApp(repo VotesRepository, polls PollReader, students StudentReader, clock clockwork.Clock, notifier Notifier) *App {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &App{
		repo:     repo,
		polls:    polls,
		students: students,
		clock:    clock,
		notifier: notifier,
	}
}

// SubmitVote admits and records a single vote
func (a *App) SubmitVote(ctx context.Context, req SubmitVoteRequest) (*models.Vote, error) {
	poll, err := a.polls.GetPoll(ctx, req.PollID)
	if err != nil {
		return nil, err
	}
	if poll.Status != models.PollStatusActive {
		return nil, apperr.InvalidState("poll is not active")
	}

	now := a.clock.Now().UTC()
	if poll.StartedAt != nil && timer.IsExpired(*poll.StartedAt, poll.DurationSeconds, now) {
		return nil, apperr.InvalidState("poll has expired")
	}

	if _, err := a.students.GetStudent(ctx, req.StudentID); err != nil {
		return nil, err
	}

	if !poll.HasOption(req.OptionID) {
		return nil, apperr.Validation("invalid option for this poll")
	}

	voted, err := a.repo.HasVoted(ctx, req.PollID, req.StudentID)
	if err != nil {
		return nil, err
	}
	if voted {
		return nil, ErrAlreadyVoted()
	}

	vote, err := a.repo.CreateVote(ctx, req, now)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("poll_id", vote.PollID.String()).
		Str("student_id", vote.StudentID.String()).
		Str("option_id", vote.OptionID.String()).
		Msg("vote recorded")

	results, err := a.polls.GetResults(ctx, req.PollID)
	if err != nil {
		log.Warn().Err(err).Str("poll_id", req.PollID.String()).Msg("failed to load results after vote")
		return vote, nil
	}
	a.notifier.VoteRecorded(ctx, results)
	return vote, nil
}

// HasVoted reports whether the student already voted on the poll
func (a *App) HasVoted(ctx context.Context, pollID, studentID uuid.UUID) (bool, error) {
	return a.repo.HasVoted(ctx, pollID, studentID)
}

// ListVotes returns the votes cast on a poll
func (a *App) ListVotes(ctx context.Context, pollID uuid.UUID) ([]models.Vote, error) {
	if _, err := a.polls.GetPoll(ctx, pollID); err != nil {
		return nil, err
	}
	return a.repo.ListVotes(ctx, pollID)
}

// ErrAlreadyVoted reports a second ballot from the same student
func ErrAlreadyVoted() error {
	return apperr.Conflict("you have already voted on this poll")
}
