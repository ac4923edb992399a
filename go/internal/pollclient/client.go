package pollclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/livepoll/go/internal/polls"
	"github.com/mcdev12/livepoll/go/internal/realtime"
	"github.com/rs/zerolog/log"
)

// ErrClosed is returned once the connection has gone away
var ErrClosed = errors.New("pollclient: connection closed")

// Config holds client connection settings
type Config struct {
	// URL of the server's WebSocket endpoint, e.g. ws://localhost:8080/ws
	URL          string
	Clock        clockwork.Clock
	WriteTimeout time.Duration
	EventBuffer  int
}

// Client is a WebSocket connection to the poll server. Every received event
// is folded into State before it is handed out on Events.
type Client struct {
	conn   *websocket.Conn
	config Config
	state  *State

	writeMu sync.Mutex
	events  chan realtime.Envelope
	done    chan struct{}
}

// Dial connects and requests a sync snapshot
func Dial(ctx context.Context, config Config) (*Client, error) {
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 10 * time.Second
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = 64
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", config.URL, err)
	}

	c := &Client{
		conn:   conn,
		config: config,
		state:  NewState(config.Clock),
		events: make(chan realtime.Envelope, config.EventBuffer),
		done:   make(chan struct{}),
	}
	go c.readLoop()

	if err := c.Sync(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// State returns the live view maintained by the client
func (c *Client) State() *State {
	return c.state
}

// Events delivers every received event. It is closed when the connection ends.
func (c *Client) Events() <-chan realtime.Envelope {
	return c.events
}

// Done is closed when the connection ends
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) Close() error {
	c.writeMu.Lock()
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.conn.Close()
}

func (c *Client) CreatePoll(req polls.CreatePollRequest) error {
	return c.send(realtime.CommandCreatePoll, req)
}

func (c *Client) StartPoll(pollID uuid.UUID) error {
	return c.send(realtime.CommandStartPoll, realtime.PollIDPayload{PollID: pollID})
}

func (c *Client) EndPoll(pollID uuid.UUID) error {
	return c.send(realtime.CommandEndPoll, realtime.PollIDPayload{PollID: pollID})
}

// Sync asks for a full snapshot, on behalf of the registered student if any
func (c *Client) Sync() error {
	return c.send(realtime.CommandSync, realtime.SyncPayload{StudentID: c.state.StudentID()})
}

func (c *Client) Register(name, sessionID string) error {
	return c.send(realtime.CommandRegisterStudent, realtime.RegisterStudentPayload{Name: name, SessionID: sessionID})
}

// SubmitVote votes as the registered student
func (c *Client) SubmitVote(pollID, optionID uuid.UUID) error {
	studentID := c.state.StudentID()
	if studentID == nil {
		return errors.New("register before voting")
	}
	return c.send(realtime.CommandSubmitVote, realtime.SubmitVotePayload{
		PollID:    pollID,
		StudentID: *studentID,
		OptionID:  optionID,
	})
}

// WaitFor consumes events until one of the given types arrives. Events of
// other types are discarded; they have already been applied to State.
func (c *Client) WaitFor(ctx context.Context, types ...realtime.EventType) (realtime.Envelope, error) {
	for {
		select {
		case <-ctx.Done():
			return realtime.Envelope{}, ctx.Err()
		case env, ok := <-c.events:
			if !ok {
				return realtime.Envelope{}, ErrClosed
			}
			for _, typ := range types {
				if env.Type == typ {
					return env, nil
				}
			}
		}
	}
}

func (c *Client) send(eventType realtime.EventType, data any) error {
	msg, err := realtime.EncodeEnvelope(eventType, data, c.config.Clock.Now())
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		return fmt.Errorf("send %s: %w", eventType, err)
	}
	return nil
}

func (c *Client) readLoop() {
	defer func() {
		close(c.done)
		close(c.events)
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("connection to poll server lost")
			}
			return
		}
		receivedAt := c.config.Clock.Now()

		var env realtime.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Warn().Err(err).Msg("ignoring malformed frame")
			continue
		}
		if err := c.state.Apply(env, receivedAt); err != nil {
			log.Warn().Err(err).Str("event_type", string(env.Type)).Msg("failed to apply event")
		}

		select {
		case c.events <- env:
		default:
			log.Debug().Str("event_type", string(env.Type)).Msg("event buffer full, dropping event")
		}
	}
}
