package students

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/livepoll/go/internal/apperr"
	"github.com/mcdev12/livepoll/go/internal/models"
	"github.com/rs/zerolog/log"
)

// StudentsRepository defines what the app layer needs from the repository
type StudentsRepository interface {
	CreateStudent(ctx context.Context, req RegisterStudentRequest, createdAt time.Time) (*models.Student, error)
	GetStudent(ctx context.Context, id uuid.UUID) (*models.Student, error)
	GetStudentBySession(ctx context.Context, sessionID string) (*models.Student, error)
	TouchStudent(ctx context.Context, sessionID string, seenAt time.Time) (*models.Student, error)
	ListStudents(ctx context.Context) ([]models.Student, error)
}

// App handles student registration
type App struct {
	repo  StudentsRepository
	clock clockwork.Clock
}

// NewApp creates a new students App
func NewApp(repo StudentsRepository, clock clockwork.Clock) *App {
	return &App{
		repo:  repo,
		clock: clock,
	}
}

// RegisterStudent returns the student bound to the session token, creating it
// on first sight. A known token only advances last-seen; the name is kept.
func (a *App) RegisterStudent(ctx context.Context, req RegisterStudentRequest) (*models.Student, error) {
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" {
		return nil, apperr.Validation("session id is required")
	}

	now := a.clock.Now().UTC()
	existing, err := a.repo.TouchStudent(ctx, req.SessionID, now)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Debug().Str("student_id", existing.ID.String()).Msg("student re-registered")
		return existing, nil
	}

	req.Name = strings.TrimSpace(req.Name)
	if err := validateName(req.Name); err != nil {
		return nil, err
	}

	student, err := a.repo.CreateStudent(ctx, req, now)
	if errors.Is(err, ErrSessionTaken) {
		// a concurrent registration with the same token won
		student, err = a.repo.TouchStudent(ctx, req.SessionID, now)
		if err == nil && student == nil {
			err = apperr.NotFound("student not found")
		}
	}
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("student_id", student.ID.String()).
		Str("name", student.Name).
		Msg("student registered")
	return student, nil
}

// GetStudent retrieves a student by ID
func (a *App) GetStudent(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	return a.repo.GetStudent(ctx, id)
}

// GetStudentBySession retrieves a student by session token
func (a *App) GetStudentBySession(ctx context.Context, sessionID string) (*models.Student, error) {
	student, err := a.repo.GetStudentBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, apperr.NotFound("student not found")
	}
	return student, nil
}

// ListStudents returns all students, newest first
func (a *App) ListStudents(ctx context.Context) ([]models.Student, error) {
	return a.repo.ListStudents(ctx)
}

func validateName(name string) error {
	if name == "" {
		return apperr.Validation("name is required")
	}
	if utf8.RuneCountInString(name) > models.MaxStudentNameLength {
		return apperr.Validation("name is too long (max %d characters)", models.MaxStudentNameLength)
	}
	return nil
}
