package votes

import (
	"context"
	"net"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/livepoll/go/internal/apperr"
	"github.com/mcdev12/livepoll/go/internal/rpcjson"
)

// VoteServiceName is the fully-qualified name of the vote RPC service
const VoteServiceName = "livepoll.v1.VoteService"

const (
	SubmitVoteProcedure = "/" + VoteServiceName + "/SubmitVote"
	HasVotedProcedure   = "/" + VoteServiceName + "/HasVoted"
	ListVotesProcedure  = "/" + VoteServiceName + "/ListVotes"
)

// Service implements VoteService over Connect
type Service struct {
	app VotesApp
}

// NewService creates a new votes RPC service
func NewService(app VotesApp) *Service {
	return &Service{app: app}
}

// Handler returns the mount path and handler for every VoteService procedure
func (s *Service) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{rpcjson.Option()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(SubmitVoteProcedure, connect.NewUnaryHandler(SubmitVoteProcedure, s.SubmitVote, opts...))
	mux.Handle(HasVotedProcedure, connect.NewUnaryHandler(HasVotedProcedure, s.HasVoted, opts...))
	mux.Handle(ListVotesProcedure, connect.NewUnaryHandler(ListVotesProcedure, s.ListVotes, opts...))
	return "/" + VoteServiceName + "/", mux
}

// SubmitVote records a vote
func (s *Service) SubmitVote(ctx context.Context, req *connect.Request[SubmitVoteRequest]) (*connect.Response[VoteResponse], error) {
	msg := *req.Msg
	msg.ClientIP = peerIP(req.Peer().Addr, req.Header().Get("X-Forwarded-For"))

	vote, err := s.app.SubmitVote(ctx, msg)
	if err != nil {
		return nil, apperr.ToConnect(err)
	}
	return connect.NewResponse(&VoteResponse{Vote: vote}), nil
}

// HasVoted checks whether a student voted on a poll
func (s *Service) HasVoted(ctx context.Context, req *connect.Request[HasVotedRequest]) (*connect.Response[HasVotedResponse], error) {
	pollID, err := uuid.Parse(req.Msg.PollID)
	if err != nil {
		return nil, apperr.ToConnect(apperr.Validation("invalid poll id"))
	}
	studentID, err := uuid.Parse(req.Msg.StudentID)
	if err != nil {
		return nil, apperr.ToConnect(apperr.Validation("invalid student id"))
	}

	voted, err := s.app.HasVoted(ctx, pollID, studentID)
	if err != nil {
		return nil, apperr.ToConnect(err)
	}
	return connect.NewResponse(&HasVotedResponse{HasVoted: voted}), nil
}

// ListVotes lists the votes of a poll
func (s *Service) ListVotes(ctx context.Context, req *connect.Request[ListVotesRequest]) (*connect.Response[ListVotesResponse], error) {
	pollID, err := uuid.Parse(req.Msg.PollID)
	if err != nil {
		return nil, apperr.ToConnect(apperr.Validation("invalid poll id"))
	}

	votes, err := s.app.ListVotes(ctx, pollID)
	if err != nil {
		return nil, apperr.ToConnect(err)
	}
	return connect.NewResponse(&ListVotesResponse{Votes: votes}), nil
}

func peerIP(addr, forwarded string) net.IP {
	r := &http.Request{RemoteAddr: addr, Header: http.Header{}}
	if forwarded != "" {
		r.Header.Set("X-Forwarded-For", forwarded)
	}
	return ClientIP(r)
}
