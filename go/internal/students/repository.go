package students

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/livepoll/go/internal/apperr"
	"github.com/mcdev12/livepoll/go/internal/dbschema"
	"github.com/mcdev12/livepoll/go/internal/models"
	"github.com/mcdev12/livepoll/go/internal/sqlutil"
	"github.com/mcdev12/livepoll/go/internal/students/db"
)

// Querier defines what the repository needs from the database layer
type Querier interface {
	CreateStudent(ctx context.Context, arg db.CreateStudentParams) (db.Student, error)
	GetStudent(ctx context.Context, id uuid.UUID) (db.Student, error)
	GetStudentBySession(ctx context.Context, sessionID string) (db.Student, error)
	TouchStudent(ctx context.Context, arg db.TouchStudentParams) (db.Student, error)
	ListStudents(ctx context.Context) ([]db.Student, error)
}

// ErrSessionTaken is returned when another registration inserted the same
// session token first.
var ErrSessionTaken = errors.New("session already registered")

// Repository implements student data access operations
type Repository struct {
	queries Querier
}

// NewRepository creates a new students repository
func NewRepository(querier Querier) *Repository {
	return &Repository{
		queries: querier,
	}
}

// CreateStudent inserts a new student
func (r *Repository) CreateStudent(ctx context.Context, req RegisterStudentRequest, createdAt time.Time) (*models.Student, error) {
	student, err := r.queries.CreateStudent(ctx, db.CreateStudentParams{
		ID:        uuid.New(),
		Name:      req.Name,
		SessionID: req.SessionID,
		CreatedAt: createdAt,
	})
	if sqlutil.IsUniqueViolation(err, dbschema.StudentSessionKey) {
		return nil, ErrSessionTaken
	}
	if err != nil {
		return nil, apperr.Infrastructure(err, "failed to create student")
	}

	return dbStudentToModel(student), nil
}

// GetStudent retrieves a student by ID
func (r *Repository) GetStudent(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	student, err := r.queries.GetStudent(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("student not found")
	}
	if err != nil {
		return nil, apperr.Infrastructure(err, "failed to get student")
	}

	return dbStudentToModel(student), nil
}

// GetStudentBySession retrieves a student by session token, or nil if unknown
func (r *Repository) GetStudentBySession(ctx context.Context, sessionID string) (*models.Student, error) {
	student, err := r.queries.GetStudentBySession(ctx, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Infrastructure(err, "failed to get student by session")
	}

	return dbStudentToModel(student), nil
}

// TouchStudent advances last_seen_at for a session, or returns nil if unknown
func (r *Repository) TouchStudent(ctx context.Context, sessionID string, seenAt time.Time) (*models.Student, error) {
	student, err := r.queries.TouchStudent(ctx, db.TouchStudentParams{
		SessionID:  sessionID,
		LastSeenAt: seenAt,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Infrastructure(err, "failed to update student last seen")
	}

	return dbStudentToModel(student), nil
}

// ListStudents returns all students, newest first
func (r *Repository) ListStudents(ctx context.Context) ([]models.Student, error) {
	students, err := r.queries.ListStudents(ctx)
	if err != nil {
		return nil, apperr.Infrastructure(err, "failed to list students")
	}

	result := make([]models.Student, len(students))
	for i, s := range students {
		result[i] = *dbStudentToModel(s)
	}
	return result, nil
}

// dbStudentToModel converts a database student to domain model
func dbStudentToModel(s db.Student) *models.Student {
	return &models.Student{
		ID:         s.ID,
		Name:       s.Name,
		SessionID:  s.SessionID,
		CreatedAt:  s.CreatedAt,
		LastSeenAt: s.LastSeenAt,
	}
}
