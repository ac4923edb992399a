package polls

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/livepoll/go/internal/apperr"
	"github.com/mcdev12/livepoll/go/internal/dbschema"
	"github.com/mcdev12/livepoll/go/internal/models"
	"github.com/mcdev12/livepoll/go/internal/polls/db"
	"github.com/mcdev12/livepoll/go/internal/sqlutil"
)

// Querier defines the read queries the repository runs outside a transaction
type Querier interface {
	GetPoll(ctx context.Context, id uuid.UUID) (db.Poll, error)
	GetActivePoll(ctx context.Context) (db.Poll, error)
	ListPolls(ctx context.Context) ([]db.Poll, error)
	ListPollOptions(ctx context.Context, pollID uuid.UUID) ([]db.PollOption, error)
	EndPoll(ctx context.Context, arg db.EndPollParams) (db.Poll, error)
}

// Repository implements poll data access operations
type Repository struct {
	queries Querier
	sqlDB   *sql.DB
}

// NewRepository creates a new polls repository
func NewRepository(queries Querier, sqlDB *sql.DB) *Repository {
	return &Repository{
		queries: queries,
		sqlDB:   sqlDB,
	}
}

func txQueries(tx *sql.Tx) *db.Queries {
	return db.New(tx)
}

// CreatePoll inserts the poll and its options in one transaction
func (r *Repository) CreatePoll(ctx context.Context, req CreatePollRequest, createdAt time.Time) (*models.Poll, error) {
	return sqlutil.Do(ctx, r.sqlDB, txQueries, func(q *db.Queries) (*models.Poll, error) {
		row, err := q.CreatePoll(ctx, db.CreatePollParams{
			ID:              uuid.New(),
			Question:        req.Question,
			DurationSeconds: int32(req.DurationSeconds),
			CreatedAt:       createdAt,
		})
		if err != nil {
			return nil, apperr.Infrastructure(err, "failed to create poll")
		}

		poll := dbPollToModel(row)
		poll.Options = make([]models.PollOption, 0, len(req.Options))
		for i, text := range req.Options {
			opt, err := q.CreatePollOption(ctx, db.CreatePollOptionParams{
				ID:          uuid.New(),
				PollID:      row.ID,
				OptionText:  text,
				OptionIndex: int32(i),
				CreatedAt:   createdAt,
			})
			if err != nil {
				return nil, apperr.Infrastructure(err, "failed to create poll option %d", i)
			}
			poll.Options = append(poll.Options, dbOptionToModel(opt))
		}
		return poll, nil
	})
}

// GetPoll retrieves a poll with its options
func (r *Repository) GetPoll(ctx context.Context, id uuid.UUID) (*models.Poll, error) {
	row, err := r.queries.GetPoll(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("poll not found")
	}
	if err != nil {
		return nil, apperr.Infrastructure(err, "failed to get poll")
	}
	return r.withOptions(ctx, row)
}

// GetActivePoll returns the ACTIVE poll, or nil when there is none
func (r *Repository) GetActivePoll(ctx context.Context) (*models.Poll, error) {
	row, err := r.queries.GetActivePoll(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Infrastructure(err, "failed to get active poll")
	}
	return r.withOptions(ctx, row)
}

// ListPolls returns every poll, newest first, without options
func (r *Repository) ListPolls(ctx context.Context) ([]models.Poll, error) {
	rows, err := r.queries.ListPolls(ctx)
	if err != nil {
		return nil, apperr.Infrastructure(err, "failed to list polls")
	}

	result := make([]models.Poll, len(rows))
	for i, row := range rows {
		result[i] = *dbPollToModel(row)
	}
	return result, nil
}

// ActivatePoll moves a CREATED poll to ACTIVE. The current active poll is
// re-read under a row lock in the same transaction; the partial unique index
// on status catches starts that race past that check.
func (r *Repository) ActivatePoll(ctx context.Context, id uuid.UUID, startedAt time.Time) (*models.Poll, error) {
	poll, err := sqlutil.Do(ctx, r.sqlDB, txQueries, func(q *db.Queries) (*models.Poll, error) {
		active, err := q.LockActivePoll(ctx)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return nil, apperr.Infrastructure(err, "failed to check active poll")
		case active.ID != id:
			return nil, ErrAnotherPollActive(active.ID)
		}

		row, err := q.StartPoll(ctx, db.StartPollParams{ID: id, StartedAt: startedAt})
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoTransition
		}
		if err != nil {
			return nil, err
		}
		return dbPollToModel(row), nil
	})
	if sqlutil.IsUniqueViolation(err, dbschema.SingleActivePollIndex) {
		return nil, apperr.Conflict("another poll is already active. End it before starting a new one")
	}
	if err != nil {
		if errors.Is(err, ErrNoTransition) || apperr.KindOf(err) != apperr.KindUnknown {
			return nil, err
		}
		return nil, apperr.Infrastructure(err, "failed to start poll")
	}
	return poll, nil
}

// FinishPoll moves an ACTIVE poll to ENDED
func (r *Repository) FinishPoll(ctx context.Context, id uuid.UUID, endedAt time.Time) (*models.Poll, error) {
	row, err := r.queries.EndPoll(ctx, db.EndPollParams{ID: id, EndedAt: endedAt})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoTransition
	}
	if err != nil {
		return nil, apperr.Infrastructure(err, "failed to end poll")
	}
	return dbPollToModel(row), nil
}

func (r *Repository) withOptions(ctx context.Context, row db.Poll) (*models.Poll, error) {
	opts, err := r.queries.ListPollOptions(ctx, row.ID)
	if err != nil {
		return nil, apperr.Infrastructure(err, "failed to get poll options")
	}

	poll := dbPollToModel(row)
	poll.Options = make([]models.PollOption, len(opts))
	for i, opt := range opts {
		poll.Options[i] = dbOptionToModel(opt)
	}
	return poll, nil
}

// ErrAnotherPollActive reports a start blocked by a different active poll
func ErrAnotherPollActive(activeID uuid.UUID) error {
	return apperr.Conflict("another poll (%s) is already active. End it before starting a new one", activeID)
}

func dbPollToModel(p db.Poll) *models.Poll {
	return &models.Poll{
		ID:              p.ID,
		Question:        p.Question,
		DurationSeconds: int(p.DurationSeconds),
		Status:          models.PollStatus(p.Status),
		StartedAt:       sqlutil.FromSqlTime(p.StartedAt),
		EndedAt:         sqlutil.FromSqlTime(p.EndedAt),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func dbOptionToModel(o db.PollOption) models.PollOption {
	return models.PollOption{
		ID:         o.ID,
		PollID:     o.PollID,
		OptionText: o.OptionText,
		Index:      int(o.OptionIndex),
		CreatedAt:  o.CreatedAt,
	}
}
