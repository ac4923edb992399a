package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const usage = `usage: pollctl [flags] <command> [args]

commands:
  student [-name NAME]                 join as a student, vote by typing an option number
  watch                                follow the live poll as the teacher
  create -q QUESTION [-d SECONDS] OPTION OPTION...
  start POLL_ID
  end POLL_ID
  results POLL_ID
  list

flags:
`

func main() {
	_ = godotenv.Load()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	opts, command, rest, err := parseArgs(args)
	if err != nil {
		return err
	}
	if opts.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	out := &syncWriter{w: stdout}

	switch command {
	case "student":
		return runStudent(ctx, opts, rest, stdin, out)
	case "watch":
		return runWatch(ctx, opts, out)
	case "create":
		return runCreate(ctx, opts, rest, out)
	case "start":
		return runStart(ctx, opts, rest, out)
	case "end":
		return runEnd(ctx, opts, rest, out)
	case "results":
		return runResults(ctx, opts, rest, out)
	case "list":
		return runList(ctx, opts, out)
	default:
		return fmt.Errorf("unknown command %q\n\n%s", command, usage)
	}
}
