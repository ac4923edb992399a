package polls

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/mcdev12/livepoll/go/internal/apperr"
	"github.com/mcdev12/livepoll/go/internal/httputil"
	"github.com/mcdev12/livepoll/go/internal/models"
)

// PollsApp defines what the transport layers need from the polls application
type PollsApp interface {
	CreatePoll(ctx context.Context, req CreatePollRequest) (*models.Poll, error)
	StartPoll(ctx context.Context, id uuid.UUID) (*models.Poll, bool, error)
	EndPoll(ctx context.Context, id uuid.UUID) (*models.Poll, error)
	GetPoll(ctx context.Context, id uuid.UUID) (*models.Poll, error)
	ListPolls(ctx context.Context) ([]models.Poll, error)
	GetResults(ctx context.Context, id uuid.UUID) (*models.PollResults, error)
	GetActivePollWithState(ctx context.Context, studentID *uuid.UUID) (*models.PollState, error)
}

// Handler serves the polls REST endpoints
type Handler struct {
	app PollsApp
}

// NewHandler creates a new polls REST handler
func NewHandler(app PollsApp) *Handler {
	return &Handler{app: app}
}

// RegisterRoutes registers the poll routes on mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/polls", h.HandleCreatePoll)
	mux.HandleFunc("GET /api/polls", h.HandleListPolls)
	mux.HandleFunc("GET /api/polls/active", h.HandleGetActivePoll)
	mux.HandleFunc("GET /api/polls/{id}", h.HandleGetPoll)
	mux.HandleFunc("GET /api/polls/{id}/results", h.HandleGetResults)
	mux.HandleFunc("POST /api/polls/{id}/start", h.HandleStartPoll)
	mux.HandleFunc("POST /api/polls/{id}/end", h.HandleEndPoll)
}

// HandleCreatePoll handles POST /api/polls
func (h *Handler) HandleCreatePoll(w http.ResponseWriter, r *http.Request) {
	var req CreatePollRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	poll, err := h.app.CreatePoll(r.Context(), req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, poll)
}

// HandleStartPoll handles POST /api/polls/{id}/start
func (h *Handler) HandleStartPoll(w http.ResponseWriter, r *http.Request) {
	id, err := pathPollID(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	poll, _, err := h.app.StartPoll(r.Context(), id)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, poll)
}

// HandleEndPoll handles POST /api/polls/{id}/end
func (h *Handler) HandleEndPoll(w http.ResponseWriter, r *http.Request) {
	id, err := pathPollID(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	poll, err := h.app.EndPoll(r.Context(), id)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, poll)
}

// HandleGetActivePoll handles GET /api/polls/active[?studentId=]
func (h *Handler) HandleGetActivePoll(w http.ResponseWriter, r *http.Request) {
	var studentID *uuid.UUID
	if raw := r.URL.Query().Get("studentId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.Error(w, r, apperr.Validation("invalid student id"))
			return
		}
		studentID = &id
	}

	state, err := h.app.GetActivePollWithState(r.Context(), studentID)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, state)
}

// HandleGetPoll handles GET /api/polls/{id}
func (h *Handler) HandleGetPoll(w http.ResponseWriter, r *http.Request) {
	id, err := pathPollID(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	poll, err := h.app.GetPoll(r.Context(), id)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, poll)
}

// HandleGetResults handles GET /api/polls/{id}/results
func (h *Handler) HandleGetResults(w http.ResponseWriter, r *http.Request) {
	id, err := pathPollID(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	results, err := h.app.GetResults(r.Context(), id)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, results)
}

// HandleListPolls handles GET /api/polls
func (h *Handler) HandleListPolls(w http.ResponseWriter, r *http.Request) {
	polls, err := h.app.ListPolls(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	if polls == nil {
		polls = []models.Poll{}
	}
	httputil.JSON(w, http.StatusOK, polls)
}

func pathPollID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid poll id")
	}
	return id, nil
}
