package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/livepoll/go/internal/memstore"
	"github.com/mcdev12/livepoll/go/internal/models"
	"github.com/mcdev12/livepoll/go/internal/polls"
	"github.com/mcdev12/livepoll/go/internal/students"
	"github.com/mcdev12/livepoll/go/internal/votes"
)

var t0 = time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)

type harness struct {
	clock  *clockwork.FakeClock
	cm     *ConnectionManager
	server *httptest.Server
}

type harnessOptions struct {
	bus   Bus
	store *memstore.Store
	clock *clockwork.FakeClock
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()
	if opts.store == nil {
		opts.store = memstore.New()
	}
	if opts.clock == nil {
		opts.clock = clockwork.NewFakeClockAt(t0)
	}
	store, clock := opts.store, opts.clock

	cm := NewConnectionManager(DefaultConnectionConfig(), opts.bus, clock)
	broadcaster := NewBroadcaster(cm)
	pollsApp := polls.NewApp(store, store, clock, broadcaster)
	studentsApp := students.NewApp(store, clock)
	votesApp := votes.NewApp(store, pollsApp, studentsApp, clock, broadcaster)

	mux := http.NewServeMux()
	NewWebSocketHandler(cm, NewProtocol(cm, pollsApp, votesApp, studentsApp)).RegisterRoutes(mux)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := cm.Start(ctx); err != nil {
			t.Errorf("start connection manager: %v", err)
		}
	}()
	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		cancel()
	})

	return &harness{clock: clock, cm: cm, server: server}
}

type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

// dial connects and completes one sync round trip, which guarantees the
// connection is registered for broadcasts.
func (h *harness) dial(t *testing.T) *wsClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	c := &wsClient{t: t, conn: conn}
	c.send(CommandSync, SyncPayload{})
	c.expect(EventPollState, nil)
	return c
}

func (c *wsClient) send(eventType EventType, data any) {
	c.t.Helper()
	msg, err := EncodeEnvelope(eventType, data, time.Now())
	if err != nil {
		c.t.Fatalf("encode: %v", err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		c.t.Fatalf("write: %v", err)
	}
}

func (c *wsClient) read() Envelope {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, raw, err := c.conn.ReadMessage()
	if err != nil {
		c.t.Fatalf("read: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.t.Fatalf("decode frame %s: %v", raw, err)
	}
	return env
}

// expect reads until a frame of the given type arrives, skipping others
func (c *wsClient) expect(eventType EventType, v any) Envelope {
	c.t.Helper()
	for {
		env := c.read()
		if env.Type != eventType {
			continue
		}
		if v != nil {
			if err := env.DecodeData(v); err != nil {
				c.t.Fatalf("decode %s: %v", eventType, err)
			}
		}
		return env
	}
}

// expectAll reads until one frame of each type has arrived, in any order
func (c *wsClient) expectAll(types ...EventType) map[EventType]Envelope {
	c.t.Helper()
	want := make(map[EventType]bool, len(types))
	for _, typ := range types {
		want[typ] = true
	}
	got := make(map[EventType]Envelope, len(types))
	for len(got) < len(want) {
		env := c.read()
		if want[env.Type] {
			got[env.Type] = env
		}
	}
	return got
}

func (c *wsClient) createAndStart(question string, duration int) *models.Poll {
	c.t.Helper()
	c.send(CommandCreatePoll, polls.CreatePollRequest{
		Question:        question,
		Options:         []string{"Red", "Blue", "Green"},
		DurationSeconds: duration,
	})
	var created PollCreatedPayload
	c.expect(EventPollCreated, &created)

	c.send(CommandStartPoll, PollIDPayload{PollID: created.Poll.ID})
	var started PollStartedPayload
	c.expect(EventPollStarted, &started)
	return started.Poll
}

func (c *wsClient) register(name, session string) *models.Student {
	c.t.Helper()
	c.send(CommandRegisterStudent, RegisterStudentPayload{Name: name, SessionID: session})
	var reg StudentRegisteredPayload
	c.expect(EventStudentRegistered, &reg)
	return reg.Student
}

func TestProtocol_LifecycleIsBroadcast(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	teacher := h.dial(t)
	student := h.dial(t)

	poll := teacher.createAndStart("Favourite colour?", 30)
	if poll.Status != models.PollStatusActive || len(poll.Options) != 3 {
		t.Fatalf("unexpected started poll %+v", poll)
	}

	var started PollStartedPayload
	student.expect(EventPollStarted, &started)
	if started.Poll.ID != poll.ID {
		t.Fatalf("student saw start of %s, want %s", started.Poll.ID, poll.ID)
	}
	if !started.ServerTime.Equal(t0) {
		t.Fatalf("serverTime = %v, want %v", started.ServerTime, t0)
	}

	me := student.register("Ann", "sess-ann")
	student.send(CommandSubmitVote, SubmitVotePayload{PollID: poll.ID, StudentID: me.ID, OptionID: poll.Options[1].ID})
	frames := student.expectAll(EventVoteSuccess, EventVoteUpdate)

	var success VoteSuccessPayload
	if err := frames[EventVoteSuccess].DecodeData(&success); err != nil {
		t.Fatalf("decode vote:success: %v", err)
	}
	if success.Vote.OptionID != poll.Options[1].ID {
		t.Fatalf("vote recorded for %s, want %s", success.Vote.OptionID, poll.Options[1].ID)
	}

	var update VoteUpdatePayload
	teacher.expect(EventVoteUpdate, &update)
	if update.Results.TotalVotes != 1 || update.Results.Options[1].Count != 1 || update.Results.Options[1].Percentage != 100 {
		t.Fatalf("unexpected results %+v", update.Results)
	}

	teacher.send(CommandEndPoll, PollIDPayload{PollID: poll.ID})
	var ended PollEndedPayload
	student.expect(EventPollEnded, &ended)
	if ended.PollID != poll.ID {
		t.Fatalf("ended %s, want %s", ended.PollID, poll.ID)
	}
	teacher.expect(EventPollEnded, nil)
}

func TestProtocol_SyncRecoversMissedEvents(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	teacher := h.dial(t)
	poll := teacher.createAndStart("Late joiner?", 30)

	h.clock.Advance(12 * time.Second)

	// connects after the start broadcast went out
	student := h.dial(t)
	me := student.register("Bob", "sess-bob")

	student.send(CommandSync, SyncPayload{StudentID: &me.ID})
	var state models.PollState
	student.expect(EventPollState, &state)
	if state.Poll == nil || state.Poll.ID != poll.ID {
		t.Fatalf("expected active poll %s in state, got %+v", poll.ID, state.Poll)
	}
	if state.HasVoted || state.Results != nil {
		t.Fatalf("results must stay hidden before voting: %+v", state)
	}
	if !state.ServerTime.Equal(t0.Add(12 * time.Second)) {
		t.Fatalf("serverTime = %v", state.ServerTime)
	}

	student.send(CommandSubmitVote, SubmitVotePayload{PollID: poll.ID, StudentID: me.ID, OptionID: poll.Options[0].ID})
	student.expect(EventVoteSuccess, nil)

	student.send(CommandSync, SyncPayload{StudentID: &me.ID})
	state = models.PollState{}
	student.expect(EventPollState, &state)
	if !state.HasVoted || state.Results == nil || state.Results.TotalVotes != 1 {
		t.Fatalf("expected results after voting, got %+v", state)
	}
}

func TestProtocol_ExpiredPollEndsOnSync(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	teacher := h.dial(t)
	student := h.dial(t)
	poll := teacher.createAndStart("Quick one", 10)
	student.expect(EventPollStarted, nil)

	h.clock.Advance(10 * time.Second)

	student.send(CommandSync, SyncPayload{})
	frames := student.expectAll(EventPollEnded, EventPollState)

	var state models.PollState
	if err := frames[EventPollState].DecodeData(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Poll != nil {
		t.Fatalf("expired poll still reported active: %+v", state.Poll)
	}

	var ended PollEndedPayload
	teacher.expect(EventPollEnded, &ended)
	if ended.PollID != poll.ID {
		t.Fatalf("ended %s, want %s", ended.PollID, poll.ID)
	}
}

func TestProtocol_RepeatedStartAnswersSender(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	teacher := h.dial(t)
	poll := teacher.createAndStart("Again?", 30)

	h.clock.Advance(4 * time.Second)
	teacher.send(CommandStartPoll, PollIDPayload{PollID: poll.ID})

	var started PollStartedPayload
	teacher.expect(EventPollStarted, &started)
	if started.Poll.StartedAt == nil || !started.Poll.StartedAt.Equal(t0) {
		t.Fatalf("repeated start must not move startedAt: %+v", started.Poll.StartedAt)
	}
	if !started.ServerTime.Equal(t0.Add(4 * time.Second)) {
		t.Fatalf("serverTime = %v", started.ServerTime)
	}
}

func TestProtocol_Errors(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	c := h.dial(t)
	first := c.createAndStart("First", 30)

	tests := []struct {
		name      string
		send      func()
		eventType EventType
		contains  string
	}{
		{
			name: "invalid poll",
			send: func() {
				c.send(CommandCreatePoll, polls.CreatePollRequest{Options: []string{"a", "b"}, DurationSeconds: 10})
			},
			eventType: EventError,
			contains:  "question is required",
		},
		{
			name: "second active poll",
			send: func() {
				c.send(CommandCreatePoll, polls.CreatePollRequest{Question: "Second", Options: []string{"a", "b"}, DurationSeconds: 10})
				var created PollCreatedPayload
				c.expect(EventPollCreated, &created)
				c.send(CommandStartPoll, PollIDPayload{PollID: created.Poll.ID})
			},
			eventType: EventError,
			contains:  "already active",
		},
		{
			name: "vote on unknown poll",
			send: func() {
				c.send(CommandSubmitVote, SubmitVotePayload{PollID: uuid.New(), StudentID: uuid.New(), OptionID: uuid.New()})
			},
			eventType: EventVoteError,
			contains:  "poll not found",
		},
		{
			name: "vote from unknown student",
			send: func() {
				c.send(CommandSubmitVote, SubmitVotePayload{PollID: first.ID, StudentID: uuid.New(), OptionID: first.Options[0].ID})
			},
			eventType: EventVoteError,
			contains:  "student not found",
		},
		{
			name: "start without poll id",
			send: func() {
				c.send(CommandStartPoll, nil)
			},
			eventType: EventError,
			contains:  "pollId is required",
		},
		{
			name: "unknown command",
			send: func() {
				c.send(EventType("poll:explode"), nil)
			},
			eventType: EventError,
			contains:  "unknown command",
		},
		{
			name: "malformed frame",
			send: func() {
				c.conn.WriteMessage(websocket.TextMessage, []byte("{not json"))
			},
			eventType: EventError,
			contains:  "invalid message format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.t = t
			tt.send()
			var payload ErrorPayload
			c.expect(tt.eventType, &payload)
			if !strings.Contains(payload.Message, tt.contains) {
				t.Fatalf("message %q does not contain %q", payload.Message, tt.contains)
			}
		})
	}
}

func TestProtocol_DoubleVoteRejected(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	c := h.dial(t)
	poll := c.createAndStart("Once only", 30)
	me := c.register("Cy", "sess-cy")

	c.send(CommandSubmitVote, SubmitVotePayload{PollID: poll.ID, StudentID: me.ID, OptionID: poll.Options[0].ID})
	c.expect(EventVoteSuccess, nil)

	c.send(CommandSubmitVote, SubmitVotePayload{PollID: poll.ID, StudentID: me.ID, OptionID: poll.Options[2].ID})
	var payload ErrorPayload
	c.expect(EventVoteError, &payload)
	if payload.Message != "you have already voted on this poll" {
		t.Fatalf("unexpected message %q", payload.Message)
	}
}

func TestHeartbeat_BroadcastsServerTime(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	c := h.dial(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := h.clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("heartbeat ticker never started: %v", err)
	}

	h.clock.Advance(30 * time.Second)

	var payload ServerTimePayload
	c.expect(EventServerTime, &payload)
	if !payload.ServerTime.Equal(t0.Add(30 * time.Second)) {
		t.Fatalf("serverTime = %v", payload.ServerTime)
	}
}

func TestConnectionStats(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.dial(t)
	h.dial(t)

	resp, err := http.Get(h.server.URL + "/ws/stats")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	defer resp.Body.Close()

	var stats ConnectionStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalConnections != 2 || stats.Bus != "local" {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

// memBus delivers every publication to every subscriber synchronously
type memBus struct {
	mu   sync.Mutex
	subs []func([]byte)
	fail bool
}

func (b *memBus) Name() string { return "memory" }

func (b *memBus) Publish(ctx context.Context, message []byte) error {
	b.mu.Lock()
	if b.fail {
		b.mu.Unlock()
		return errors.New("bus unavailable")
	}
	subs := append([]func([]byte){}, b.subs...)
	b.mu.Unlock()

	for _, sub := range subs {
		sub(message)
	}
	return nil
}

func (b *memBus) Subscribe(ctx context.Context, handler func([]byte)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, handler)
	return nil
}

func (b *memBus) Close() error { return nil }

func (b *memBus) waitForSubscribers(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		b.mu.Lock()
		count := len(b.subs)
		b.mu.Unlock()
		if count >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d bus subscribers", n)
}

func TestBus_FansOutAcrossInstances(t *testing.T) {
	bus := &memBus{}
	store := memstore.New()
	clock := clockwork.NewFakeClockAt(t0)

	a := newHarness(t, harnessOptions{bus: bus, store: store, clock: clock})
	b := newHarness(t, harnessOptions{bus: bus, store: store, clock: clock})
	bus.waitForSubscribers(t, 2)

	teacher := a.dial(t)
	student := b.dial(t)

	poll := teacher.createAndStart("Across instances", 30)

	var started PollStartedPayload
	student.expect(EventPollStarted, &started)
	if started.Poll.ID != poll.ID {
		t.Fatalf("instance b saw %s, want %s", started.Poll.ID, poll.ID)
	}

	if stats := b.cm.GetConnectionStats(); stats.Bus != "memory" {
		t.Fatalf("stats bus = %q", stats.Bus)
	}
}

func TestBus_PublishFailureDeliversLocally(t *testing.T) {
	bus := &memBus{}
	h := newHarness(t, harnessOptions{bus: bus})
	bus.waitForSubscribers(t, 1)
	c := h.dial(t)

	bus.mu.Lock()
	bus.fail = true
	bus.mu.Unlock()

	c.createAndStart("Still delivered", 30)
}

func TestPollIDPayload_AcceptsBareString(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "object", raw: `{"pollId":"` + id.String() + `"}`},
		{name: "bare string", raw: `"` + id.String() + `"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p PollIDPayload
			if err := json.Unmarshal([]byte(tt.raw), &p); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if p.PollID != id {
				t.Fatalf("got %s, want %s", p.PollID, id)
			}
		})
	}
}

func TestConnection_EnqueueReportsFullBuffer(t *testing.T) {
	c := &Connection{Send: make(chan []byte, 1)}

	if !c.enqueue([]byte("a")) {
		t.Fatal("first message should fit")
	}
	if c.enqueue([]byte("b")) {
		t.Fatal("second message should report a full buffer")
	}

	c.close()
	c.close()
	if !c.enqueue([]byte("c")) {
		t.Fatal("enqueue on a closed connection is a no-op")
	}
}
