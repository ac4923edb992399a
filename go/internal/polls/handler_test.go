package polls

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mcdev12/livepoll/go/internal/models"
)

func newTestMux(f *fixture) *http.ServeMux {
	mux := http.NewServeMux()
	NewHandler(f.app).RegisterRoutes(mux)
	return mux
}

func do(t *testing.T, mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandlerLifecycle(t *testing.T) {
	f := newFixture()
	mux := newTestMux(f)

	rec := do(t, mux, http.MethodPost, "/api/polls", `{"question":"Favourite colour?","options":["Red","Blue"],"durationSeconds":20}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	var poll models.Poll
	if err := json.NewDecoder(rec.Body).Decode(&poll); err != nil {
		t.Fatal(err)
	}

	rec = do(t, mux, http.MethodPost, "/api/polls/"+poll.ID.String()+"/start", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d, body %s", rec.Code, rec.Body)
	}

	rec = do(t, mux, http.MethodGet, "/api/polls/active", "")
	var state models.PollState
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatal(err)
	}
	if state.Poll == nil || state.Poll.ID != poll.ID || state.Results != nil {
		t.Errorf("unexpected active state: %+v", state)
	}

	rec = do(t, mux, http.MethodGet, "/api/polls/"+poll.ID.String()+"/results", "")
	var results models.PollResults
	if err := json.NewDecoder(rec.Body).Decode(&results); err != nil {
		t.Fatal(err)
	}
	if len(results.Options) != 2 || results.TotalVotes != 0 {
		t.Errorf("unexpected results: %+v", results)
	}

	rec = do(t, mux, http.MethodPost, "/api/polls/"+poll.ID.String()+"/end", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("end status = %d, body %s", rec.Code, rec.Body)
	}

	rec = do(t, mux, http.MethodGet, "/api/polls", "")
	var list []models.Poll
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Status != models.PollStatusEnded {
		t.Errorf("unexpected list: %+v", list)
	}
}

func TestHandlerErrorStatuses(t *testing.T) {
	f := newFixture()
	mux := newTestMux(f)
	p1 := f.createPoll(t, 30, "A", "B")
	p2 := f.createPoll(t, 30, "C", "D")
	do(t, mux, http.MethodPost, "/api/polls/"+p1.ID.String()+"/start", "")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"validation", http.MethodPost, "/api/polls", `{"question":"Q","options":["only"],"durationSeconds":10}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/polls", `{"question":`, http.StatusBadRequest},
		{"bad id", http.MethodGet, "/api/polls/not-a-uuid", "", http.StatusBadRequest},
		{"unknown poll", http.MethodGet, "/api/polls/8f0e3c8e-4b7a-4a57-9d55-2f3c1e0b7a11", "", http.StatusNotFound},
		{"second active poll", http.MethodPost, "/api/polls/" + p2.ID.String() + "/start", "", http.StatusConflict},
		{"end a created poll", http.MethodPost, "/api/polls/" + p2.ID.String() + "/end", "", http.StatusConflict},
		{"bad student id", http.MethodGet, "/api/polls/active?studentId=nope", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, mux, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["error"] == "" {
				t.Errorf("expected an error body, got %v (%v)", body, err)
			}
		})
	}
}

func TestHandlerActivePollAfterExpiry(t *testing.T) {
	f := newFixture()
	mux := newTestMux(f)
	poll := f.createPoll(t, 5, "A", "B")
	do(t, mux, http.MethodPost, "/api/polls/"+poll.ID.String()+"/start", "")

	f.clock.Advance(6 * time.Second)

	rec := do(t, mux, http.MethodGet, "/api/polls/active", "")
	var state models.PollState
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatal(err)
	}
	if state.Poll != nil {
		t.Errorf("expected no active poll after expiry, got %+v", state.Poll)
	}
}
