package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/livepoll/go/internal/models"
	"github.com/mcdev12/livepoll/go/internal/realtime"
)

func TestServer_MemoryWiring(t *testing.T) {
	clearEnv(t)
	config := defaultConfig()
	config.Storage.Driver = "memory"

	clock := clockwork.NewRealClock()
	cm := realtime.NewConnectionManager(config.connectionConfig(), nil, clock)
	services := setupServices(memoryRepositories(), clock, cm)
	server := httptest.NewServer(setupServer(config, services, nil).Handler)
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("health: %v %v", resp, err)
	}
	resp.Body.Close()

	body := `{"question":"Ready?","options":["Yes","No"],"durationSeconds":20}`
	resp, err = http.Post(server.URL+"/api/polls", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	var poll models.Poll
	if err := json.NewDecoder(resp.Body).Decode(&poll); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rpcBody := `{"pollId":"` + poll.ID.String() + `"}`
	rpc, err := http.Post(server.URL+"/livepoll.v1.PollService/StartPoll", "application/json", strings.NewReader(rpcBody))
	if err != nil {
		t.Fatalf("rpc start: %v", err)
	}
	rpc.Body.Close()
	if rpc.StatusCode != http.StatusOK {
		t.Fatalf("rpc start status = %d", rpc.StatusCode)
	}

	stats, err := http.Get(server.URL + "/ws/stats")
	if err != nil || stats.StatusCode != http.StatusOK {
		t.Fatalf("stats: %v %v", stats, err)
	}
	stats.Body.Close()
}
