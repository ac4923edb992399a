package main

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/mcdev12/livepoll/go/internal/models"
	"github.com/mcdev12/livepoll/go/internal/pollclient"
	"github.com/mcdev12/livepoll/go/internal/realtime"
)

// liveView prints the active poll as events arrive and keeps a countdown
// running for it.
type liveView struct {
	client *pollclient.Client
	out    io.Writer
	// resultsVisible decides whether tallies are shown for the current view
	resultsVisible func(pollclient.View) bool

	countdownFor  uuid.UUID
	stopCountdown context.CancelFunc
}

func (l *liveView) handle(ctx context.Context, env realtime.Envelope) {
	view := l.client.State().View()

	switch env.Type {
	case realtime.EventPollState, realtime.EventPollStarted:
		if view.Poll == nil {
			l.halt()
			fmt.Fprintln(l.out, "no active poll, waiting for the teacher...")
			return
		}
		if view.Poll.Status == models.PollStatusActive && l.countdownFor != view.Poll.ID {
			printPoll(l.out, view.Poll)
			l.startCountdown(ctx, view.Poll.ID)
		}
		if l.resultsVisible(view) {
			printResults(l.out, view.Results)
		}

	case realtime.EventPollEnded:
		l.halt()
		fmt.Fprintln(l.out, "poll ended")
		if view.Results != nil {
			printResults(l.out, view.Results)
		}

	case realtime.EventVoteUpdate:
		if l.resultsVisible(view) {
			printResults(l.out, view.Results)
		}

	case realtime.EventVoteSuccess:
		fmt.Fprintln(l.out, "vote recorded")

	case realtime.EventVoteError, realtime.EventError:
		fmt.Fprintf(l.out, "! %s\n", view.LastError)
	}
}

func (l *liveView) startCountdown(ctx context.Context, pollID uuid.UUID) {
	l.halt()
	countdown := l.client.State().Countdown()
	if countdown == nil {
		return
	}

	cctx, cancel := context.WithCancel(ctx)
	l.countdownFor = pollID
	l.stopCountdown = cancel

	go countdown.Run(cctx, func(remaining int) {
		if remaining <= 5 || remaining%10 == 0 {
			fmt.Fprintf(l.out, "  %ds left\n", remaining)
		}
		if remaining == 0 {
			// the server ends the poll when it next reads it
			l.client.Sync()
		}
	})
}

func (l *liveView) halt() {
	if l.stopCountdown != nil {
		l.stopCountdown()
		l.stopCountdown = nil
	}
	l.countdownFor = uuid.Nil
}
