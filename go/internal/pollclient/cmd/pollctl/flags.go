package main

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/livepoll/go/internal/pollclient"
	"github.com/mcdev12/livepoll/go/internal/polls"
)

const defaultServer = "http://localhost:8080"

type options struct {
	Server      string
	SessionPath string
	Timeout     time.Duration
	Verbose     bool
}

// parseArgs splits global flags from the command and its arguments
func parseArgs(args []string) (options, string, []string, error) {
	var opts options

	fs := flag.NewFlagSet("pollctl", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.Server, "server", "", "Server base URL (or LIVEPOLL_SERVER)")
	fs.StringVar(&opts.SessionPath, "session", "", "Session file (default: user config dir)")
	fs.DurationVar(&opts.Timeout, "timeout", 10*time.Second, "Timeout for single requests")
	fs.BoolVar(&opts.Verbose, "v", false, "Verbose logging")

	if err := fs.Parse(args); err != nil {
		return options{}, "", nil, err
	}

	if opts.Server == "" {
		opts.Server = os.Getenv("LIVEPOLL_SERVER")
	}
	if opts.Server == "" {
		opts.Server = defaultServer
	}
	opts.Server = strings.TrimRight(opts.Server, "/")
	if opts.SessionPath == "" {
		opts.SessionPath = pollclient.DefaultSessionPath()
	}

	if fs.NArg() == 0 {
		return options{}, "", nil, errors.New("command required\n\n" + usage)
	}
	return opts, fs.Arg(0), fs.Args()[1:], nil
}

// websocketURL maps the server base URL onto its WebSocket endpoint
func websocketURL(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

func parseCreateArgs(args []string) (polls.CreatePollRequest, error) {
	var req polls.CreatePollRequest

	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.StringVar(&req.Question, "q", "", "Question text")
	fs.IntVar(&req.DurationSeconds, "d", 60, "Duration in seconds")
	if err := fs.Parse(args); err != nil {
		return polls.CreatePollRequest{}, err
	}

	if strings.TrimSpace(req.Question) == "" {
		return polls.CreatePollRequest{}, errors.New("question required (use -q)")
	}
	req.Options = fs.Args()
	return req, nil
}

func parsePollIDArg(args []string) (uuid.UUID, error) {
	if len(args) != 1 {
		return uuid.Nil, errors.New("exactly one POLL_ID required")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid poll id %q", args[0])
	}
	return id, nil
}
