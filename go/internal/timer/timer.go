// Package timer computes poll countdowns from a server-recorded start instant.
// Callers always pass the reference instant explicitly so the same arithmetic
// serves the server (clock.Now()) and clients (offset-adjusted local time).
package timer

import "time"

// EndTime returns the instant at which a poll started at startedAt expires.
func EndTime(startedAt time.Time, durationSeconds int) time.Time {
	return startedAt.Add(time.Duration(durationSeconds) * time.Second)
}

// RemainingSeconds returns the whole seconds left before expiry, never negative.
func RemainingSeconds(startedAt time.Time, durationSeconds int, now time.Time) int {
	remaining := EndTime(startedAt, durationSeconds).Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining / time.Second)
}

// IsExpired reports whether no whole second remains.
func IsExpired(startedAt time.Time, durationSeconds int, now time.Time) bool {
	return RemainingSeconds(startedAt, durationSeconds, now) == 0
}
