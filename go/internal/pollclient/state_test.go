package pollclient

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/livepoll/go/internal/models"
	"github.com/mcdev12/livepoll/go/internal/realtime"
)

func envelope(t *testing.T, eventType realtime.EventType, data any) realtime.Envelope {
	t.Helper()
	raw, err := realtime.EncodeEnvelope(eventType, data, t0)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var env realtime.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env
}

func activePoll(startedAt time.Time, duration int) *models.Poll {
	id := uuid.New()
	return &models.Poll{
		ID:              id,
		Question:        "Q",
		DurationSeconds: duration,
		Status:          models.PollStatusActive,
		StartedAt:       &startedAt,
		Options: []models.PollOption{
			{ID: uuid.New(), PollID: id, OptionText: "A", Index: 0},
			{ID: uuid.New(), PollID: id, OptionText: "B", Index: 1},
		},
	}
}

func TestState_SnapshotDerivesRemainingFromServerTime(t *testing.T) {
	local := clockwork.NewFakeClockAt(t0.Add(3 * time.Hour))
	s := NewState(local)
	poll := activePoll(t0, 30)

	err := s.Apply(envelope(t, realtime.EventPollState, models.PollState{
		Poll:       poll,
		ServerTime: t0.Add(10 * time.Second),
	}), local.Now())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if got := s.Remaining(); got != 20 {
		t.Fatalf("remaining = %d, want 20", got)
	}
	local.Advance(5 * time.Second)
	if got := s.Remaining(); got != 15 {
		t.Fatalf("remaining = %d, want 15", got)
	}
}

func TestState_HeartbeatRefreshesOffset(t *testing.T) {
	local := clockwork.NewFakeClockAt(t0)
	s := NewState(local)
	s.Apply(envelope(t, realtime.EventPollStarted, realtime.PollStartedPayload{Poll: activePoll(t0, 60), ServerTime: t0}), local.Now())

	// local clock drifts ahead by 4s without the server moving
	local.Advance(34 * time.Second)
	s.Apply(envelope(t, realtime.EventServerTime, realtime.ServerTimePayload{ServerTime: t0.Add(30 * time.Second)}), local.Now())

	if got := s.Remaining(); got != 30 {
		t.Fatalf("remaining = %d, want 30", got)
	}
}

func TestState_EventSequence(t *testing.T) {
	local := clockwork.NewFakeClockAt(t0)
	s := NewState(local)
	poll := activePoll(t0, 30)
	student := &models.Student{ID: uuid.New(), Name: "Ann", SessionID: "s"}

	steps := []struct {
		name  string
		env   realtime.Envelope
		check func(t *testing.T, v View)
	}{
		{
			name: "registered",
			env:  envelope(t, realtime.EventStudentRegistered, realtime.StudentRegisteredPayload{Student: student}),
			check: func(t *testing.T, v View) {
				if v.Student == nil || v.Student.ID != student.ID {
					t.Fatalf("student not recorded: %+v", v.Student)
				}
			},
		},
		{
			name: "started",
			env:  envelope(t, realtime.EventPollStarted, realtime.PollStartedPayload{Poll: poll, ServerTime: t0}),
			check: func(t *testing.T, v View) {
				if v.Poll == nil || v.Poll.ID != poll.ID || v.HasVoted || v.Results != nil {
					t.Fatalf("unexpected view after start: %+v", v)
				}
			},
		},
		{
			name: "vote success",
			env:  envelope(t, realtime.EventVoteSuccess, realtime.VoteSuccessPayload{Vote: &models.Vote{PollID: poll.ID, StudentID: student.ID, OptionID: poll.Options[0].ID}}),
			check: func(t *testing.T, v View) {
				if !v.HasVoted {
					t.Fatal("expected HasVoted")
				}
			},
		},
		{
			name: "vote update for another poll is ignored",
			env:  envelope(t, realtime.EventVoteUpdate, realtime.VoteUpdatePayload{Results: &models.PollResults{PollID: uuid.New(), TotalVotes: 9}}),
			check: func(t *testing.T, v View) {
				if v.Results != nil {
					t.Fatalf("foreign results applied: %+v", v.Results)
				}
			},
		},
		{
			name: "vote update",
			env:  envelope(t, realtime.EventVoteUpdate, realtime.VoteUpdatePayload{Results: &models.PollResults{PollID: poll.ID, TotalVotes: 1}}),
			check: func(t *testing.T, v View) {
				if v.Results == nil || v.Results.TotalVotes != 1 {
					t.Fatalf("results not applied: %+v", v.Results)
				}
			},
		},
		{
			name: "vote error",
			env:  envelope(t, realtime.EventVoteError, realtime.ErrorPayload{Message: "you have already voted on this poll"}),
			check: func(t *testing.T, v View) {
				if v.LastError != "you have already voted on this poll" {
					t.Fatalf("last error = %q", v.LastError)
				}
			},
		},
		{
			name: "ended",
			env:  envelope(t, realtime.EventPollEnded, realtime.PollEndedPayload{PollID: poll.ID}),
			check: func(t *testing.T, v View) {
				if v.Poll.Status != models.PollStatusEnded {
					t.Fatalf("status = %s", v.Poll.Status)
				}
				if v.Results == nil {
					t.Fatal("results dropped on end")
				}
			},
		},
		{
			name: "next poll resets vote state",
			env:  envelope(t, realtime.EventPollStarted, realtime.PollStartedPayload{Poll: activePoll(t0, 20), ServerTime: t0}),
			check: func(t *testing.T, v View) {
				if v.HasVoted || v.Results != nil {
					t.Fatalf("vote state leaked into next poll: %+v", v)
				}
			},
		},
	}

	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			if err := s.Apply(step.env, local.Now()); err != nil {
				t.Fatalf("apply: %v", err)
			}
			step.check(t, s.View())
		})
	}

	if s.Remaining() != 20 {
		t.Fatalf("remaining = %d, want 20", s.Remaining())
	}
}

func TestState_EndedPollHasNoCountdown(t *testing.T) {
	s := NewState(clockwork.NewFakeClockAt(t0))
	poll := activePoll(t0, 30)
	s.Apply(envelope(t, realtime.EventPollStarted, realtime.PollStartedPayload{Poll: poll, ServerTime: t0}), t0)
	s.Apply(envelope(t, realtime.EventPollEnded, realtime.PollEndedPayload{PollID: poll.ID}), t0)

	if s.Countdown() != nil {
		t.Fatal("ended poll must not produce a countdown")
	}
	if s.Remaining() != 0 {
		t.Fatalf("remaining = %d, want 0", s.Remaining())
	}
}

func TestState_RejectsMalformedPayload(t *testing.T) {
	s := NewState(clockwork.NewFakeClockAt(t0))
	env := realtime.Envelope{Type: realtime.EventPollStarted, Data: json.RawMessage(`{"poll": 7}`)}

	if err := s.Apply(env, t0); err == nil {
		t.Fatal("expected decode error")
	}
}
