package students

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/mcdev12/livepoll/go/internal/httputil"
	"github.com/mcdev12/livepoll/go/internal/models"
)

// StudentsApp defines what the transport layers need from the students application
type StudentsApp interface {
	RegisterStudent(ctx context.Context, req RegisterStudentRequest) (*models.Student, error)
	GetStudent(ctx context.Context, id uuid.UUID) (*models.Student, error)
	GetStudentBySession(ctx context.Context, sessionID string) (*models.Student, error)
	ListStudents(ctx context.Context) ([]models.Student, error)
}

// Handler serves the students REST endpoints
type Handler struct {
	app StudentsApp
}

// NewHandler creates a new students REST handler
func NewHandler(app StudentsApp) *Handler {
	return &Handler{app: app}
}

// RegisterRoutes registers the student routes on mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/students", h.HandleRegister)
	mux.HandleFunc("GET /api/students", h.HandleList)
	mux.HandleFunc("GET /api/students/session/{sessionId}", h.HandleGetBySession)
}

// HandleRegister handles POST /api/students
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterStudentRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	student, err := h.app.RegisterStudent(r.Context(), req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, student)
}

// HandleGetBySession handles GET /api/students/session/{sessionId}
func (h *Handler) HandleGetBySession(w http.ResponseWriter, r *http.Request) {
	student, err := h.app.GetStudentBySession(r.Context(), r.PathValue("sessionId"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, student)
}

// HandleList handles GET /api/students
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	students, err := h.app.ListStudents(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	if students == nil {
		students = []models.Student{}
	}
	httputil.JSON(w, http.StatusOK, students)
}
