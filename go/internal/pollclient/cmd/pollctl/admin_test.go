package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/livepoll/go/internal/memstore"
	"github.com/mcdev12/livepoll/go/internal/polls"
)

func startPollService(t *testing.T) string {
	t.Helper()
	store := memstore.New()
	app := polls.NewApp(store, store, clockwork.NewFakeClockAt(time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)), nil)

	mux := http.NewServeMux()
	mux.Handle(polls.NewService(app).Handler())
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server.URL
}

func runCLI(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), append([]string{"-server", server, "-session", t.TempDir() + "/s.yaml"}, args...), strings.NewReader(""), &out)
	return out.String(), err
}

func TestAdminCommands(t *testing.T) {
	server := startPollService(t)

	out, err := runCLI(t, server, "create", "-q", "Lunch?", "-d", "20", "Pizza", "Salad")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := regexp.MustCompile(`created poll ([0-9a-f-]{36})`).FindStringSubmatch(out)
	if id == nil {
		t.Fatalf("no poll id in output:\n%s", out)
	}
	if !strings.Contains(out, "1) Pizza") || !strings.Contains(out, "2) Salad") {
		t.Fatalf("options not listed:\n%s", out)
	}

	out, err = runCLI(t, server, "start", id[1])
	if err != nil || !strings.Contains(out, "started, 20s on the clock") {
		t.Fatalf("start: %v\n%s", err, out)
	}
	out, err = runCLI(t, server, "start", id[1])
	if err != nil || !strings.Contains(out, "already running") {
		t.Fatalf("second start: %v\n%s", err, out)
	}

	out, err = runCLI(t, server, "results", id[1])
	if err != nil || !strings.Contains(out, "results (0 votes)") {
		t.Fatalf("results: %v\n%s", err, out)
	}

	out, err = runCLI(t, server, "list")
	if err != nil || !strings.Contains(out, "Lunch?") || !strings.Contains(out, "ACTIVE") {
		t.Fatalf("list: %v\n%s", err, out)
	}

	if _, err := runCLI(t, server, "end", id[1]); err != nil {
		t.Fatalf("end: %v", err)
	}
	_, err = runCLI(t, server, "end", id[1])
	if err == nil || !strings.Contains(err.Error(), "only active polls can be ended") {
		t.Fatalf("second end: expected state error, got %v", err)
	}
}

func TestAdminCommands_ValidationSurfaced(t *testing.T) {
	server := startPollService(t)

	_, err := runCLI(t, server, "create", "-q", "Lonely", "only-one")
	if err == nil || !strings.Contains(err.Error(), "at least 2 options are required") {
		t.Fatalf("expected validation error, got %v", err)
	}
}
