package pollclient

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/livepoll/go/internal/models"
	"github.com/mcdev12/livepoll/go/internal/realtime"
	"github.com/mcdev12/livepoll/go/internal/timer"
)

// View is a point-in-time copy of what a client knows
type View struct {
	Poll      *models.Poll
	Results   *models.PollResults
	HasVoted  bool
	Student   *models.Student
	LastError string
}

// State folds server events into the local view of the active poll
type State struct {
	mu    sync.RWMutex
	view  View
	clock clockwork.Clock
	Sync  *ClockSync
}

func NewState(clock clockwork.Clock) *State {
	return &State{clock: clock, Sync: &ClockSync{}}
}

// Apply updates the view from one event received at receivedAt (local time)
func (s *State) Apply(env realtime.Envelope, receivedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch env.Type {
	case realtime.EventPollState:
		var state models.PollState
		if err := env.DecodeData(&state); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		s.view.Poll = state.Poll
		s.view.HasVoted = state.HasVoted
		s.view.Results = state.Results
		s.Sync.Observe(state.ServerTime, receivedAt)

	case realtime.EventPollStarted:
		var payload realtime.PollStartedPayload
		if err := env.DecodeData(&payload); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		if s.view.Poll == nil || payload.Poll == nil || s.view.Poll.ID != payload.Poll.ID {
			s.view.HasVoted = false
			s.view.Results = nil
		}
		s.view.Poll = payload.Poll
		s.Sync.Observe(payload.ServerTime, receivedAt)

	case realtime.EventPollEnded:
		var payload realtime.PollEndedPayload
		if err := env.DecodeData(&payload); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		if s.view.Poll != nil && s.view.Poll.ID == payload.PollID {
			ended := *s.view.Poll
			ended.Status = models.PollStatusEnded
			s.view.Poll = &ended
		}

	case realtime.EventVoteUpdate:
		var payload realtime.VoteUpdatePayload
		if err := env.DecodeData(&payload); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		if payload.Results != nil && s.view.Poll != nil && s.view.Poll.ID == payload.Results.PollID {
			s.view.Results = payload.Results
		}

	case realtime.EventVoteSuccess:
		var payload realtime.VoteSuccessPayload
		if err := env.DecodeData(&payload); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		if payload.Vote != nil && s.view.Poll != nil && s.view.Poll.ID == payload.Vote.PollID {
			s.view.HasVoted = true
		}

	case realtime.EventStudentRegistered:
		var payload realtime.StudentRegisteredPayload
		if err := env.DecodeData(&payload); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		s.view.Student = payload.Student

	case realtime.EventServerTime:
		var payload realtime.ServerTimePayload
		if err := env.DecodeData(&payload); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		s.Sync.Observe(payload.ServerTime, receivedAt)

	case realtime.EventError, realtime.EventVoteError:
		var payload realtime.ErrorPayload
		if err := env.DecodeData(&payload); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		s.view.LastError = payload.Message
	}
	return nil
}

// View returns a copy of the current view
func (s *State) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := s.view
	if v.Poll != nil {
		p := *v.Poll
		v.Poll = &p
	}
	return v
}

// StudentID returns the registered student, if any
func (s *State) StudentID() *uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.view.Student == nil {
		return nil
	}
	id := s.view.Student.ID
	return &id
}

// Remaining returns the seconds left on the active poll by the server's
// clock, or 0 when no poll is running.
func (s *State) Remaining() int {
	s.mu.RLock()
	poll := s.view.Poll
	s.mu.RUnlock()

	if poll == nil || poll.Status != models.PollStatusActive || poll.StartedAt == nil {
		return 0
	}
	return timer.RemainingSeconds(*poll.StartedAt, poll.DurationSeconds, s.Sync.AdjustedNow(s.clock.Now()))
}

// Countdown returns a countdown for the active poll, or nil
func (s *State) Countdown() *Countdown {
	s.mu.RLock()
	poll := s.view.Poll
	s.mu.RUnlock()

	if poll == nil || poll.Status != models.PollStatusActive || poll.StartedAt == nil {
		return nil
	}
	return NewCountdown(s.clock, s.Sync, *poll.StartedAt, poll.DurationSeconds)
}
