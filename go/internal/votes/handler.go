package votes

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/mcdev12/livepoll/go/internal/apperr"
	"github.com/mcdev12/livepoll/go/internal/httputil"
	"github.com/mcdev12/livepoll/go/internal/models"
)

// VotesApp defines what the transport layers need from the votes application
type VotesApp interface {
	SubmitVote(ctx context.Context, req SubmitVoteRequest) (*models.Vote, error)
	HasVoted(ctx context.Context, pollID, studentID uuid.UUID) (bool, error)
	ListVotes(ctx context.Context, pollID uuid.UUID) ([]models.Vote, error)
}

// Handler serves the votes REST endpoints
type Handler struct {
	app VotesApp
}

// NewHandler creates a new votes REST handler
func NewHandler(app VotesApp) *Handler {
	return &Handler{app: app}
}

// RegisterRoutes registers the vote routes on mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/votes", h.HandleSubmitVote)
	mux.HandleFunc("GET /api/votes/check", h.HandleCheckVoted)
}

// HandleSubmitVote handles POST /api/votes
func (h *Handler) HandleSubmitVote(w http.ResponseWriter, r *http.Request) {
	var req SubmitVoteRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	req.ClientIP = ClientIP(r)

	vote, err := h.app.SubmitVote(r.Context(), req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, vote)
}

// HandleCheckVoted handles GET /api/votes/check?pollId=&studentId=
func (h *Handler) HandleCheckVoted(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("pollId") == "" || q.Get("studentId") == "" {
		httputil.Error(w, r, apperr.Validation("pollId and studentId required"))
		return
	}
	pollID, err := uuid.Parse(q.Get("pollId"))
	if err != nil {
		httputil.Error(w, r, apperr.Validation("invalid poll id"))
		return
	}
	studentID, err := uuid.Parse(q.Get("studentId"))
	if err != nil {
		httputil.Error(w, r, apperr.Validation("invalid student id"))
		return
	}

	voted, err := h.app.HasVoted(r.Context(), pollID, studentID)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, HasVotedResponse{HasVoted: voted})
}

// ClientIP extracts the caller's address, preferring the first X-Forwarded-For hop.
func ClientIP(r *http.Request) net.IP {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}
