package pollclient

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/livepoll/go/internal/timer"
)

// Countdown renders the remaining seconds of a running poll from the
// server's start instant and the current clock offset.
type Countdown struct {
	clock           clockwork.Clock
	sync            *ClockSync
	startedAt       time.Time
	durationSeconds int
}

func NewCountdown(clock clockwork.Clock, sync *ClockSync, startedAt time.Time, durationSeconds int) *Countdown {
	return &Countdown{
		clock:           clock,
		sync:            sync,
		startedAt:       startedAt,
		durationSeconds: durationSeconds,
	}
}

// Remaining returns the whole seconds left on the server's clock
func (c *Countdown) Remaining() int {
	return timer.RemainingSeconds(c.startedAt, c.durationSeconds, c.sync.AdjustedNow(c.clock.Now()))
}

// Run calls onTick with the remaining seconds right away and then once a
// second. It returns after reporting 0 or when ctx is done.
func (c *Countdown) Run(ctx context.Context, onTick func(remaining int)) {
	remaining := c.Remaining()
	onTick(remaining)
	if remaining == 0 {
		return
	}

	ticker := c.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			remaining = c.Remaining()
			onTick(remaining)
			if remaining == 0 {
				return
			}
		}
	}
}
