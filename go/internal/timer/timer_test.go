package timer

import (
	"testing"
	"time"
)

func TestRemainingSeconds(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		duration int
		now      time.Time
		want     int
	}{
		{name: "at start", duration: 30, now: t0, want: 30},
		{name: "partial second elapsed rounds down", duration: 30, now: t0.Add(500 * time.Millisecond), want: 29},
		{name: "ten seconds in", duration: 30, now: t0.Add(10 * time.Second), want: 20},
		{name: "last fraction of a second", duration: 10, now: t0.Add(9*time.Second + 1), want: 0},
		{name: "exactly at deadline", duration: 10, now: t0.Add(10 * time.Second), want: 0},
		{name: "past deadline", duration: 10, now: t0.Add(11 * time.Second), want: 0},
		{name: "clock behind start", duration: 10, now: t0.Add(-2 * time.Second), want: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RemainingSeconds(t0, tt.duration, tt.now); got != tt.want {
				t.Errorf("RemainingSeconds() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRemainingSecondsWholeElapsed(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	for d := 1; d <= 60; d++ {
		for e := 0; e <= 70; e++ {
			now := t0.Add(time.Duration(e) * time.Second)
			want := d - e
			if want < 0 {
				want = 0
			}

			got := RemainingSeconds(t0, d, now)
			if got != want {
				t.Fatalf("RemainingSeconds(d=%d, e=%d) = %d, want %d", d, e, got, want)
			}
			if expired := IsExpired(t0, d, now); expired != (want == 0) {
				t.Fatalf("IsExpired(d=%d, e=%d) = %v, want %v", d, e, expired, want == 0)
			}
		}
	}
}

func TestEndTime(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	if got, want := EndTime(t0, 45), t0.Add(45*time.Second); !got.Equal(want) {
		t.Errorf("EndTime() = %v, want %v", got, want)
	}
}
