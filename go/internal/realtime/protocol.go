package realtime

import (
	"context"

	"github.com/google/uuid"
	"github.com/mcdev12/livepoll/go/internal/apperr"
	"github.com/mcdev12/livepoll/go/internal/models"
	"github.com/mcdev12/livepoll/go/internal/polls"
	"github.com/mcdev12/livepoll/go/internal/students"
	"github.com/mcdev12/livepoll/go/internal/votes"
	"github.com/rs/zerolog/log"
)

// PollsApp is the slice of the polls app driven over the socket
type PollsApp interface {
	CreatePoll(ctx context.Context, req polls.CreatePollRequest) (*models.Poll, error)
	StartPoll(ctx context.Context, id uuid.UUID) (*models.Poll, bool, error)
	EndPoll(ctx context.Context, id uuid.UUID) (*models.Poll, error)
	GetActivePollWithState(ctx context.Context, studentID *uuid.UUID) (*models.PollState, error)
}

// VotesApp records ballots
type VotesApp interface {
	SubmitVote(ctx context.Context, req votes.SubmitVoteRequest) (*models.Vote, error)
}

// StudentsApp registers sessions
type StudentsApp interface {
	RegisterStudent(ctx context.Context, req students.RegisterStudentRequest) (*models.Student, error)
}

// Protocol maps socket commands onto the apps. Replies go to the sender
// only; fan-out of committed transitions happens through the Broadcaster.
type Protocol struct {
	cm       *ConnectionManager
	polls    PollsApp
	votes    VotesApp
	students StudentsApp
}

func NewProtocol(cm *ConnectionManager, pollsApp PollsApp, votesApp VotesApp, studentsApp StudentsApp) *Protocol {
	return &Protocol{
		cm:       cm,
		polls:    pollsApp,
		votes:    votesApp,
		students: studentsApp,
	}
}

// HandleCommand implements CommandHandler
func (p *Protocol) HandleCommand(ctx context.Context, c *Connection, env Envelope) {
	switch env.Type {
	case CommandCreatePoll:
		p.createPoll(ctx, c, env)
	case CommandStartPoll:
		p.startPoll(ctx, c, env)
	case CommandEndPoll:
		p.endPoll(ctx, c, env)
	case CommandSync:
		p.sync(ctx, c, env)
	case CommandSubmitVote:
		p.submitVote(ctx, c, env)
	case CommandRegisterStudent:
		p.registerStudent(ctx, c, env)
	default:
		p.cm.Send(c, EventError, ErrorPayload{Message: "unknown command: " + string(env.Type)})
	}
}

func (p *Protocol) createPoll(ctx context.Context, c *Connection, env Envelope) {
	var req polls.CreatePollRequest
	if err := env.DecodeData(&req); err != nil {
		p.fail(c, EventError, env.Type, invalidPayload())
		return
	}

	poll, err := p.polls.CreatePoll(ctx, req)
	if err != nil {
		p.fail(c, EventError, env.Type, err)
		return
	}
	p.cm.Send(c, EventPollCreated, PollCreatedPayload{Poll: poll})
}

func (p *Protocol) startPoll(ctx context.Context, c *Connection, env Envelope) {
	var req PollIDPayload
	if err := env.DecodeData(&req); err != nil || req.PollID == uuid.Nil {
		p.fail(c, EventError, env.Type, apperr.Validation("pollId is required"))
		return
	}

	poll, started, err := p.polls.StartPoll(ctx, req.PollID)
	if err != nil {
		p.fail(c, EventError, env.Type, err)
		return
	}
	if !started {
		// already running: nothing was broadcast, so answer the sender directly
		p.cm.Send(c, EventPollStarted, PollStartedPayload{Poll: poll, ServerTime: p.cm.clock.Now().UTC()})
	}
}

func (p *Protocol) endPoll(ctx context.Context, c *Connection, env Envelope) {
	var req PollIDPayload
	if err := env.DecodeData(&req); err != nil || req.PollID == uuid.Nil {
		p.fail(c, EventError, env.Type, apperr.Validation("pollId is required"))
		return
	}

	if _, err := p.polls.EndPoll(ctx, req.PollID); err != nil {
		p.fail(c, EventError, env.Type, err)
	}
}

func (p *Protocol) sync(ctx context.Context, c *Connection, env Envelope) {
	var req SyncPayload
	if err := env.DecodeData(&req); err != nil {
		p.fail(c, EventError, env.Type, invalidPayload())
		return
	}
	if req.StudentID != nil && *req.StudentID == uuid.Nil {
		req.StudentID = nil
	}

	state, err := p.polls.GetActivePollWithState(ctx, req.StudentID)
	if err != nil {
		p.fail(c, EventError, env.Type, err)
		return
	}
	p.cm.Send(c, EventPollState, state)
}

func (p *Protocol) submitVote(ctx context.Context, c *Connection, env Envelope) {
	var req SubmitVotePayload
	if err := env.DecodeData(&req); err != nil {
		p.fail(c, EventVoteError, env.Type, invalidPayload())
		return
	}

	vote, err := p.votes.SubmitVote(ctx, votes.SubmitVoteRequest{
		PollID:    req.PollID,
		StudentID: req.StudentID,
		OptionID:  req.OptionID,
		ClientIP:  c.RemoteIP,
	})
	if err != nil {
		p.fail(c, EventVoteError, env.Type, err)
		return
	}
	p.cm.Send(c, EventVoteSuccess, VoteSuccessPayload{Vote: vote})
}

func (p *Protocol) registerStudent(ctx context.Context, c *Connection, env Envelope) {
	var req RegisterStudentPayload
	if err := env.DecodeData(&req); err != nil {
		p.fail(c, EventError, env.Type, invalidPayload())
		return
	}

	student, err := p.students.RegisterStudent(ctx, students.RegisterStudentRequest{
		Name:      req.Name,
		SessionID: req.SessionID,
	})
	if err != nil {
		p.fail(c, EventError, env.Type, err)
		return
	}
	p.cm.Send(c, EventStudentRegistered, StudentRegisteredPayload{Student: student})
}

// fail reports a command failure to the sender. Infrastructure details stay
// in the log.
func (p *Protocol) fail(c *Connection, eventType EventType, command EventType, err error) {
	ev := log.Debug()
	switch apperr.KindOf(err) {
	case apperr.KindInfrastructure, apperr.KindUnknown:
		ev = log.Error()
	}
	ev.Err(err).
		Str("connection_id", c.ID).
		Str("command", string(command)).
		Msg("command failed")

	p.cm.Send(c, eventType, ErrorPayload{Message: apperr.PublicMessage(err)})
}

func invalidPayload() error {
	return apperr.Validation("invalid payload")
}
