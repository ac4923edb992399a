package main

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/mcdev12/livepoll/go/internal/models"
)

const barWidth = 30

// syncWriter serialises writes from the event loop and the countdown
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func printPoll(out io.Writer, poll *models.Poll) {
	fmt.Fprintf(out, "\n%s  [%s, %ds]\n", poll.Question, poll.Status, poll.DurationSeconds)
	for i, opt := range poll.Options {
		fmt.Fprintf(out, "  %d) %s\n", i+1, opt.OptionText)
	}
}

func printResults(out io.Writer, results *models.PollResults) {
	if results == nil {
		return
	}
	fmt.Fprintf(out, "results (%d votes)\n", results.TotalVotes)
	for _, opt := range results.Options {
		fmt.Fprintf(out, "  %-20s %s %3d  %6.2f%%\n", opt.OptionText, bar(opt.Percentage), opt.Count, opt.Percentage)
	}
}

func bar(percentage float64) string {
	filled := int(math.Round(percentage / 100 * barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	return strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled)
}
