package polls

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/livepoll/go/internal/apperr"
	"github.com/mcdev12/livepoll/go/internal/models"
	"github.com/mcdev12/livepoll/go/internal/rpcjson"
)

// PollServiceName is the fully-qualified name of the poll RPC service
const PollServiceName = "livepoll.v1.PollService"

// Procedure paths of PollService
const (
	CreatePollProcedure    = "/" + PollServiceName + "/CreatePoll"
	StartPollProcedure     = "/" + PollServiceName + "/StartPoll"
	EndPollProcedure       = "/" + PollServiceName + "/EndPoll"
	GetPollProcedure       = "/" + PollServiceName + "/GetPoll"
	ListPollsProcedure     = "/" + PollServiceName + "/ListPolls"
	GetResultsProcedure    = "/" + PollServiceName + "/GetResults"
	GetActivePollProcedure = "/" + PollServiceName + "/GetActivePoll"
)

// Service implements PollService over Connect
type Service struct {
	app PollsApp
}

// NewService creates a new polls RPC service
func NewService(app PollsApp) *Service {
	return &Service{app: app}
}

// Handler returns the mount path and handler for every PollService procedure
func (s *Service) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{rpcjson.Option()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CreatePollProcedure, connect.NewUnaryHandler(CreatePollProcedure, s.CreatePoll, opts...))
	mux.Handle(StartPollProcedure, connect.NewUnaryHandler(StartPollProcedure, s.StartPoll, opts...))
	mux.Handle(EndPollProcedure, connect.NewUnaryHandler(EndPollProcedure, s.EndPoll, opts...))
	mux.Handle(GetPollProcedure, connect.NewUnaryHandler(GetPollProcedure, s.GetPoll, opts...))
	mux.Handle(ListPollsProcedure, connect.NewUnaryHandler(ListPollsProcedure, s.ListPolls, opts...))
	mux.Handle(GetResultsProcedure, connect.NewUnaryHandler(GetResultsProcedure, s.GetResults, opts...))
	mux.Handle(GetActivePollProcedure, connect.NewUnaryHandler(GetActivePollProcedure, s.GetActivePoll, opts...))
	return "/" + PollServiceName + "/", mux
}

// CreatePoll creates a new poll
func (s *Service) CreatePoll(ctx context.Context, req *connect.Request[CreatePollRequest]) (*connect.Response[PollResponse], error) {
	poll, err := s.app.CreatePoll(ctx, *req.Msg)
	if err != nil {
		return nil, apperr.ToConnect(err)
	}
	return connect.NewResponse(&PollResponse{Poll: poll}), nil
}

// StartPoll activates a poll
func (s *Service) StartPoll(ctx context.Context, req *connect.Request[PollRequest]) (*connect.Response[StartPollResponse], error) {
	id, err := parsePollID(req.Msg.PollID)
	if err != nil {
		return nil, apperr.ToConnect(err)
	}

	poll, started, err := s.app.StartPoll(ctx, id)
	if err != nil {
		return nil, apperr.ToConnect(err)
	}

	res := &StartPollResponse{Poll: poll, Started: started}
	if poll.StartedAt != nil {
		res.ServerTime = *poll.StartedAt
	}
	return connect.NewResponse(res), nil
}

// EndPoll ends an active poll
func (s *Service) EndPoll(ctx context.Context, req *connect.Request[PollRequest]) (*connect.Response[PollResponse], error) {
	id, err := parsePollID(req.Msg.PollID)
	if err != nil {
		return nil, apperr.ToConnect(err)
	}

	poll, err := s.app.EndPoll(ctx, id)
	if err != nil {
		return nil, apperr.ToConnect(err)
	}
	return connect.NewResponse(&PollResponse{Poll: poll}), nil
}

// GetPoll retrieves a poll by ID
func (s *Service) GetPoll(ctx context.Context, req *connect.Request[PollRequest]) (*connect.Response[PollResponse], error) {
	id, err := parsePollID(req.Msg.PollID)
	if err != nil {
		return nil, apperr.ToConnect(err)
	}

	poll, err := s.app.GetPoll(ctx, id)
	if err != nil {
		return nil, apperr.ToConnect(err)
	}
	return connect.NewResponse(&PollResponse{Poll: poll}), nil
}

// ListPolls lists every poll
func (s *Service) ListPolls(ctx context.Context, _ *connect.Request[ListPollsRequest]) (*connect.Response[ListPollsResponse], error) {
	polls, err := s.app.ListPolls(ctx)
	if err != nil {
		return nil, apperr.ToConnect(err)
	}
	return connect.NewResponse(&ListPollsResponse{Polls: polls}), nil
}

// GetResults tallies a poll
func (s *Service) GetResults(ctx context.Context, req *connect.Request[PollRequest]) (*connect.Response[ResultsResponse], error) {
	id, err := parsePollID(req.Msg.PollID)
	if err != nil {
		return nil, apperr.ToConnect(err)
	}

	results, err := s.app.GetResults(ctx, id)
	if err != nil {
		return nil, apperr.ToConnect(err)
	}
	return connect.NewResponse(&ResultsResponse{Results: results}), nil
}

// GetActivePoll returns the sync snapshot
func (s *Service) GetActivePoll(ctx context.Context, req *connect.Request[ActivePollRequest]) (*connect.Response[models.PollState], error) {
	var studentID *uuid.UUID
	if req.Msg.StudentID != "" {
		id, err := uuid.Parse(req.Msg.StudentID)
		if err != nil {
			return nil, apperr.ToConnect(apperr.Validation("invalid student id"))
		}
		studentID = &id
	}

	state, err := s.app.GetActivePollWithState(ctx, studentID)
	if err != nil {
		return nil, apperr.ToConnect(err)
	}
	return connect.NewResponse(state), nil
}

func parsePollID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid poll id")
	}
	return id, nil
}

// Client calls PollService
type Client struct {
	createPoll    *connect.Client[CreatePollRequest, PollResponse]
	startPoll     *connect.Client[PollRequest, StartPollResponse]
	endPoll       *connect.Client[PollRequest, PollResponse]
	getPoll       *connect.Client[PollRequest, PollResponse]
	listPolls     *connect.Client[ListPollsRequest, ListPollsResponse]
	getResults    *connect.Client[PollRequest, ResultsResponse]
	getActivePoll *connect.Client[ActivePollRequest, models.PollState]
}

// NewClient creates a PollService client rooted at baseURL
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	opts = append([]connect.ClientOption{rpcjson.Option()}, opts...)
	return &Client{
		createPoll:    connect.NewClient[CreatePollRequest, PollResponse](httpClient, baseURL+CreatePollProcedure, opts...),
		startPoll:     connect.NewClient[PollRequest, StartPollResponse](httpClient, baseURL+StartPollProcedure, opts...),
		endPoll:       connect.NewClient[PollRequest, PollResponse](httpClient, baseURL+EndPollProcedure, opts...),
		getPoll:       connect.NewClient[PollRequest, PollResponse](httpClient, baseURL+GetPollProcedure, opts...),
		listPolls:     connect.NewClient[ListPollsRequest, ListPollsResponse](httpClient, baseURL+ListPollsProcedure, opts...),
		getResults:    connect.NewClient[PollRequest, ResultsResponse](httpClient, baseURL+GetResultsProcedure, opts...),
		getActivePoll: connect.NewClient[ActivePollRequest, models.PollState](httpClient, baseURL+GetActivePollProcedure, opts...),
	}
}

func (c *Client) CreatePoll(ctx context.Context, req CreatePollRequest) (*models.Poll, error) {
	res, err := c.createPoll.CallUnary(ctx, connect.NewRequest(&req))
	if err != nil {
		return nil, err
	}
	return res.Msg.Poll, nil
}

func (c *Client) StartPoll(ctx context.Context, id uuid.UUID) (*StartPollResponse, error) {
	res, err := c.startPoll.CallUnary(ctx, connect.NewRequest(&PollRequest{PollID: id.String()}))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *Client) EndPoll(ctx context.Context, id uuid.UUID) (*models.Poll, error) {
	res, err := c.endPoll.CallUnary(ctx, connect.NewRequest(&PollRequest{PollID: id.String()}))
	if err != nil {
		return nil, err
	}
	return res.Msg.Poll, nil
}

func (c *Client) GetPoll(ctx context.Context, id uuid.UUID) (*models.Poll, error) {
	res, err := c.getPoll.CallUnary(ctx, connect.NewRequest(&PollRequest{PollID: id.String()}))
	if err != nil {
		return nil, err
	}
	return res.Msg.Poll, nil
}

func (c *Client) ListPolls(ctx context.Context) ([]models.Poll, error) {
	res, err := c.listPolls.CallUnary(ctx, connect.NewRequest(&ListPollsRequest{}))
	if err != nil {
		return nil, err
	}
	return res.Msg.Polls, nil
}

func (c *Client) GetResults(ctx context.Context, id uuid.UUID) (*models.PollResults, error) {
	res, err := c.getResults.CallUnary(ctx, connect.NewRequest(&PollRequest{PollID: id.String()}))
	if err != nil {
		return nil, err
	}
	return res.Msg.Results, nil
}

func (c *Client) GetActivePoll(ctx context.Context, studentID *uuid.UUID) (*models.PollState, error) {
	req := &ActivePollRequest{}
	if studentID != nil {
		req.StudentID = studentID.String()
	}
	res, err := c.getActivePoll.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}
