package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"

	"github.com/mcdev12/livepoll/go/internal/polls"
)

func pollsClient(opts options) *polls.Client {
	return polls.NewClient(&http.Client{Timeout: opts.Timeout}, opts.Server)
}

func runCreate(ctx context.Context, opts options, args []string, out io.Writer) error {
	req, err := parseCreateArgs(args)
	if err != nil {
		return err
	}

	poll, err := pollsClient(opts).CreatePoll(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "created poll %s\n", poll.ID)
	printPoll(out, poll)
	return nil
}

func runStart(ctx context.Context, opts options, args []string, out io.Writer) error {
	id, err := parsePollIDArg(args)
	if err != nil {
		return err
	}

	resp, err := pollsClient(opts).StartPoll(ctx, id)
	if err != nil {
		return err
	}
	if resp.Started {
		fmt.Fprintf(out, "poll %s started, %ds on the clock\n", id, resp.Poll.DurationSeconds)
	} else {
		fmt.Fprintf(out, "poll %s was already running\n", id)
	}
	return nil
}

func runEnd(ctx context.Context, opts options, args []string, out io.Writer) error {
	id, err := parsePollIDArg(args)
	if err != nil {
		return err
	}

	if _, err := pollsClient(opts).EndPoll(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(out, "poll %s ended\n", id)
	return nil
}

func runResults(ctx context.Context, opts options, args []string, out io.Writer) error {
	id, err := parsePollIDArg(args)
	if err != nil {
		return err
	}

	results, err := pollsClient(opts).GetResults(ctx, id)
	if err != nil {
		return err
	}
	printResults(out, results)
	return nil
}

func runList(ctx context.Context, opts options, out io.Writer) error {
	list, err := pollsClient(opts).ListPolls(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tDURATION\tCREATED\tQUESTION")
	for _, p := range list {
		fmt.Fprintf(tw, "%s\t%s\t%ds\t%s\t%s\n",
			p.ID, p.Status, p.DurationSeconds, p.CreatedAt.Local().Format("2006-01-02 15:04"), p.Question)
	}
	return tw.Flush()
}
