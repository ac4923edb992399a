package polls

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/livepoll/go/internal/apperr"
	"github.com/mcdev12/livepoll/go/internal/models"
	"github.com/mcdev12/livepoll/go/internal/timer"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// PollsRepository defines what the app layer needs from the repository
type PollsRepository interface {
	CreatePoll(ctx context.Context, req CreatePollRequest, createdAt time.Time) (*models.Poll, error)
	GetPoll(ctx context.Context, id uuid.UUID) (*models.Poll, error)
	GetActivePoll(ctx context.Context) (*models.Poll, error)
	ListPolls(ctx context.Context) ([]models.Poll, error)
	ActivatePoll(ctx context.Context, id uuid.UUID, startedAt time.Time) (*models.Poll, error)
	FinishPoll(ctx context.Context, id uuid.UUID, endedAt time.Time) (*models.Poll, error)
}

// VoteTally is the read side of the vote store used for results
type VoteTally interface {
	CountVotesByOption(ctx context.Context, pollID uuid.UUID) (map[uuid.UUID]int, error)
	CountVotes(ctx context.Context, pollID uuid.UUID) (int, error)
	HasVoted(ctx context.Context, pollID, studentID uuid.UUID) (bool, error)
}

// Notifier is told about lifecycle transitions after they are persisted
type Notifier interface {
	PollStarted(ctx context.Context, poll *models.Poll, serverTime time.Time)
	PollEnded(ctx context.Context, pollID uuid.UUID)
}

type noopNotifier struct{}

func (noopNotifier) PollStarted(context.Context, *models.Poll, time.Time) {}
func (noopNotifier) PollEnded(context.Context, uuid.UUID)                 {}

// App handles the poll lifecycle
type App struct {
	repo     PollsRepository
	tally    VoteTally
	clock    clockwork.Clock
	notifier Notifier
}

// NewApp creates a new polls App. A nil notifier discards notifications.
func NewApp(repo PollsRepository, tally VoteTally, clock clockwork.Clock, notifier Notifier) *App {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &App{
		repo:     repo,
		tally:    tally,
		clock:    clock,
		notifier: notifier,
	}
}

// CreatePoll validates and stores a new poll in CREATED state
func (a *App) CreatePoll(ctx context.Context, req CreatePollRequest) (*models.Poll, error) {
	req.Question = strings.TrimSpace(req.Question)
	if err := validateCreatePollRequest(req); err != nil {
		return nil, err
	}

	poll, err := a.repo.CreatePoll(ctx, req, a.clock.Now().UTC())
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("poll_id", poll.ID.String()).
		Int("options", len(poll.Options)).
		Int("duration_sec", poll.DurationSeconds).
		Msg("poll created")
	return poll, nil
}

// StartPoll activates a poll. Starting the poll that is already active is a
// no-op; started reports whether this call performed the transition.
func (a *App) StartPoll(ctx context.Context, id uuid.UUID) (poll *models.Poll, started bool, err error) {
	poll, err = a.repo.GetPoll(ctx, id)
	if err != nil {
		return nil, false, err
	}

	active, err := a.GetActivePoll(ctx)
	if err != nil {
		return nil, false, err
	}
	if active != nil && active.ID != id {
		return nil, false, ErrAnotherPollActive(active.ID)
	}

	switch poll.Status {
	case models.PollStatusActive:
		if active == nil {
			// expired and ended lazily by the read above
			return nil, false, apperr.InvalidState("poll has already ended")
		}
		return active, false, nil
	case models.PollStatusEnded:
		return nil, false, apperr.InvalidState("only polls in CREATED state can be started")
	}

	now := a.clock.Now().UTC()
	updated, err := a.repo.ActivatePoll(ctx, id, now)
	if errors.Is(err, ErrNoTransition) {
		return a.resolveLostStart(ctx, id)
	}
	if err != nil {
		return nil, false, err
	}
	updated.Options = poll.Options

	log.Info().
		Str("poll_id", id.String()).
		Time("started_at", now).
		Msg("poll started")
	a.notifier.PollStarted(ctx, updated, now)
	return updated, true, nil
}

// resolveLostStart handles a start whose conditional update matched no row:
// another caller moved the poll first.
func (a *App) resolveLostStart(ctx context.Context, id uuid.UUID) (*models.Poll, bool, error) {
	current, err := a.repo.GetPoll(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if current.Status == models.PollStatusActive {
		return current, false, nil
	}
	return nil, false, apperr.InvalidState("only polls in CREATED state can be started")
}

// EndPoll ends an ACTIVE poll
func (a *App) EndPoll(ctx context.Context, id uuid.UUID) (*models.Poll, error) {
	poll, err := a.repo.GetPoll(ctx, id)
	if err != nil {
		return nil, err
	}
	if poll.Status != models.PollStatusActive {
		return nil, apperr.InvalidState("only active polls can be ended")
	}
	return a.finish(ctx, poll, "manual")
}

func (a *App) finish(ctx context.Context, poll *models.Poll, reason string) (*models.Poll, error) {
	now := a.clock.Now().UTC()
	updated, err := a.repo.FinishPoll(ctx, poll.ID, now)
	if errors.Is(err, ErrNoTransition) {
		return nil, apperr.InvalidState("only active polls can be ended")
	}
	if err != nil {
		return nil, err
	}
	updated.Options = poll.Options

	log.Info().
		Str("poll_id", poll.ID.String()).
		Str("reason", reason).
		Time("ended_at", now).
		Msg("poll ended")
	a.notifier.PollEnded(ctx, poll.ID)
	return updated, nil
}

// GetActivePoll returns the active poll, or nil. An active poll whose window
// has elapsed is ended here and reported as absent.
func (a *App) GetActivePoll(ctx context.Context) (*models.Poll, error) {
	poll, err := a.repo.GetActivePoll(ctx)
	if err != nil || poll == nil {
		return nil, err
	}
	if poll.StartedAt == nil || !timer.IsExpired(*poll.StartedAt, poll.DurationSeconds, a.clock.Now()) {
		return poll, nil
	}

	if _, err := a.finish(ctx, poll, "expired"); err != nil && !apperr.Is(err, apperr.KindInvalidState) {
		return nil, err
	}
	return nil, nil
}

// GetPoll retrieves a poll with its options
func (a *App) GetPoll(ctx context.Context, id uuid.UUID) (*models.Poll, error) {
	return a.repo.GetPoll(ctx, id)
}

// ListPolls returns all polls, newest first
func (a *App) ListPolls(ctx context.Context) ([]models.Poll, error) {
	return a.repo.ListPolls(ctx)
}

// GetResults tallies the votes of a poll against every option
func (a *App) GetResults(ctx context.Context, id uuid.UUID) (*models.PollResults, error) {
	poll, err := a.repo.GetPoll(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.results(ctx, poll)
}

func (a *App) results(ctx context.Context, poll *models.Poll) (*models.PollResults, error) {
	counts, err := a.tally.CountVotesByOption(ctx, poll.ID)
	if err != nil {
		return nil, err
	}
	total, err := a.tally.CountVotes(ctx, poll.ID)
	if err != nil {
		return nil, err
	}

	results := &models.PollResults{
		PollID:     poll.ID,
		TotalVotes: total,
		Options:    make([]models.OptionResult, len(poll.Options)),
	}
	for i, opt := range poll.Options {
		count := counts[opt.ID]
		results.Options[i] = models.OptionResult{
			OptionID:   opt.ID,
			OptionText: opt.OptionText,
			Count:      count,
			Percentage: percentage(count, total),
		}
	}
	return results, nil
}

// percentage is count/total as a percent rounded half-up to 2 places
func percentage(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return decimal.NewFromInt(int64(count)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2).
		InexactFloat64()
}

// GetActivePollWithState builds the sync snapshot. Results are included only
// once the poll has ended or the given student has voted.
func (a *App) GetActivePollWithState(ctx context.Context, studentID *uuid.UUID) (*models.PollState, error) {
	poll, err := a.GetActivePoll(ctx)
	if err != nil {
		return nil, err
	}

	state := &models.PollState{Poll: poll}
	if poll != nil {
		if studentID != nil {
			state.HasVoted, err = a.tally.HasVoted(ctx, poll.ID, *studentID)
			if err != nil {
				return nil, err
			}
		}
		if poll.Status == models.PollStatusEnded || state.HasVoted {
			state.Results, err = a.results(ctx, poll)
			if err != nil {
				return nil, err
			}
		}
	}

	state.ServerTime = a.clock.Now().UTC()
	return state, nil
}

func validateCreatePollRequest(req CreatePollRequest) error {
	if req.Question == "" {
		return apperr.Validation("question is required")
	}
	if len(req.Options) < models.MinPollOptions {
		return apperr.Validation("at least %d options are required", models.MinPollOptions)
	}
	if len(req.Options) > models.MaxPollOptions {
		return apperr.Validation("maximum %d options allowed", models.MaxPollOptions)
	}
	for i, opt := range req.Options {
		if strings.TrimSpace(opt) == "" {
			return apperr.Validation("option %d is empty", i+1)
		}
	}
	if req.DurationSeconds < models.MinDurationSeconds || req.DurationSeconds > models.MaxDurationSeconds {
		return apperr.Validation("duration must be between %d and %d seconds",
			models.MinDurationSeconds, models.MaxDurationSeconds)
	}
	return nil
}
