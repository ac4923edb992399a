package pollclient

import (
	"sync"
	"time"
)

// ClockSync tracks the offset between the server clock and the local clock.
// The offset is re-derived from every server-stamped message, so a countdown
// never depends on the absolute accuracy of the local clock.
type ClockSync struct {
	mu     sync.RWMutex
	offset time.Duration
	synced bool
}

// Observe records serverTime as seen at localReceipt
func (s *ClockSync) Observe(serverTime, localReceipt time.Time) {
	if serverTime.IsZero() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset = serverTime.Sub(localReceipt)
	s.synced = true
}

// Offset returns serverTime - localReceipt from the latest observation
func (s *ClockSync) Offset() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offset
}

// Synced reports whether any server time has been observed yet
func (s *ClockSync) Synced() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.synced
}

// AdjustedNow maps a local instant onto the server's clock
func (s *ClockSync) AdjustedNow(localNow time.Time) time.Time {
	return localNow.Add(s.Offset())
}
