package realtime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/livepoll/go/internal/models"
)

// EventType names a frame on the wire. Commands flow client to server,
// events flow server to client.
type EventType string

const (
	CommandCreatePoll      EventType = "poll:create"
	CommandStartPoll       EventType = "poll:start"
	CommandEndPoll         EventType = "poll:end"
	CommandSync            EventType = "poll:sync"
	CommandSubmitVote      EventType = "vote:submit"
	CommandRegisterStudent EventType = "student:register"

	EventPollCreated       EventType = "poll:created"
	EventPollStarted       EventType = "poll:started"
	EventPollEnded         EventType = "poll:ended"
	EventPollState         EventType = "poll:state"
	EventVoteUpdate        EventType = "poll:vote-update"
	EventVoteSuccess       EventType = "vote:success"
	EventVoteError         EventType = "vote:error"
	EventError             EventType = "error"
	EventStudentRegistered EventType = "student:registered"
	EventServerTime        EventType = "server:time"
)

// Envelope is the JSON frame exchanged over the socket
type Envelope struct {
	Type      EventType       `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// EncodeEnvelope marshals data into a framed message
func EncodeEnvelope(eventType EventType, data any, ts time.Time) ([]byte, error) {
	env := Envelope{Type: eventType, Timestamp: ts.UTC()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
		}
		env.Data = raw
	}
	return json.Marshal(env)
}

// DecodeData unmarshals the envelope payload into v. An absent payload leaves v untouched.
func (e Envelope) DecodeData(v any) error {
	if len(e.Data) == 0 || bytes.Equal(e.Data, []byte("null")) {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}

// PollIDPayload carries a poll reference. A bare JSON string is accepted too.
type PollIDPayload struct {
	PollID uuid.UUID `json:"pollId"`
}

func (p *PollIDPayload) UnmarshalJSON(data []byte) error {
	var id uuid.UUID
	if err := json.Unmarshal(data, &id); err == nil {
		p.PollID = id
		return nil
	}
	type plain PollIDPayload
	return json.Unmarshal(data, (*plain)(p))
}

// SyncPayload optionally names the student asking for a snapshot
type SyncPayload struct {
	StudentID *uuid.UUID `json:"studentId,omitempty"`
}

// SubmitVotePayload is a ballot sent over the socket
type SubmitVotePayload struct {
	PollID    uuid.UUID `json:"pollId"`
	StudentID uuid.UUID `json:"studentId"`
	OptionID  uuid.UUID `json:"optionId"`
}

// RegisterStudentPayload identifies a browser session
type RegisterStudentPayload struct {
	Name      string `json:"name"`
	SessionID string `json:"sessionId"`
}

type PollCreatedPayload struct {
	Poll *models.Poll `json:"poll"`
}

type PollStartedPayload struct {
	Poll       *models.Poll `json:"poll"`
	ServerTime time.Time    `json:"serverTime"`
}

type PollEndedPayload struct {
	PollID uuid.UUID `json:"pollId"`
}

type VoteUpdatePayload struct {
	Results *models.PollResults `json:"results"`
}

type VoteSuccessPayload struct {
	Vote *models.Vote `json:"vote"`
}

type StudentRegisteredPayload struct {
	Student *models.Student `json:"student"`
}

// ErrorPayload is the body of error and vote:error
type ErrorPayload struct {
	Message string `json:"message"`
}

type ServerTimePayload struct {
	ServerTime time.Time `json:"serverTime"`
}
