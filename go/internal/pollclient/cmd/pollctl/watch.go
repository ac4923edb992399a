package main

import (
	"context"
	"io"

	"github.com/mcdev12/livepoll/go/internal/pollclient"
)

// runWatch follows the live poll with tallies always visible
func runWatch(ctx context.Context, opts options, out io.Writer) error {
	wsURL, err := websocketURL(opts.Server)
	if err != nil {
		return err
	}

	client, err := pollclient.Dial(ctx, pollclient.Config{URL: wsURL})
	if err != nil {
		return err
	}
	defer client.Close()

	live := &liveView{
		client:         client,
		out:            out,
		resultsVisible: func(pollclient.View) bool { return true },
	}
	defer live.halt()

	for {
		select {
		case <-ctx.Done():
			return nil
		case env, ok := <-client.Events():
			if !ok {
				return pollclient.ErrClosed
			}
			live.handle(ctx, env)
		}
	}
}
