package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mcdev12/livepoll/go/internal/models"
	"github.com/mcdev12/livepoll/go/internal/pollclient"
	"github.com/mcdev12/livepoll/go/internal/realtime"
)

// runStudent registers this session and votes on whatever poll is live
func runStudent(ctx context.Context, opts options, args []string, stdin io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("student", flag.ContinueOnError)
	name := fs.String("name", "", "Display name (remembered after the first run)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	session, err := pollclient.LoadSession(opts.SessionPath)
	if err != nil {
		return err
	}
	if *name == "" {
		*name = session.StudentName
	}
	if *name == "" {
		return errors.New("-name is required on first run")
	}

	wsURL, err := websocketURL(opts.Server)
	if err != nil {
		return err
	}
	client, err := pollclient.Dial(ctx, pollclient.Config{URL: wsURL})
	if err != nil {
		return err
	}
	defer client.Close()

	student, err := register(ctx, opts, client, *name, session.SessionID)
	if err != nil {
		return err
	}
	session.Remember(student.ID, student.Name)
	if err := session.Save(opts.SessionPath); err != nil {
		return err
	}
	fmt.Fprintf(out, "joined as %s\n", student.Name)

	// resync now that votes can be attributed to this student
	if err := client.Sync(); err != nil {
		return err
	}

	live := &liveView{
		client: client,
		out:    out,
		resultsVisible: func(v pollclient.View) bool {
			return v.HasVoted || (v.Poll != nil && v.Poll.Status == models.PollStatusEnded)
		},
	}
	defer live.halt()

	lines := readLines(stdin)
	for {
		select {
		case <-ctx.Done():
			return nil
		case env, ok := <-client.Events():
			if !ok {
				return pollclient.ErrClosed
			}
			live.handle(ctx, env)
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if err := vote(client, line); err != nil {
				fmt.Fprintf(out, "! %s\n", err)
			}
		}
	}
}

func register(ctx context.Context, opts options, client *pollclient.Client, name, sessionID string) (*models.Student, error) {
	if err := client.Register(name, sessionID); err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	env, err := client.WaitFor(waitCtx, realtime.EventStudentRegistered, realtime.EventError)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if env.Type == realtime.EventError {
		return nil, errors.New(client.State().View().LastError)
	}
	return client.State().View().Student, nil
}

// vote submits the option numbered by line, counting from 1
func vote(client *pollclient.Client, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	view := client.State().View()
	if view.Poll == nil || view.Poll.Status != models.PollStatusActive {
		return errors.New("no poll is running")
	}
	if view.HasVoted {
		return errors.New("you have already voted on this poll")
	}

	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(view.Poll.Options) {
		return fmt.Errorf("enter a number between 1 and %d", len(view.Poll.Options))
	}
	return client.SubmitVote(view.Poll.ID, view.Poll.Options[n-1].ID)
}

func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}
