package realtime

import (
	"context"
)

// runHeartbeat pushes server:time to local clients so they can keep their
// clock offset fresh between lifecycle events. Each instance runs its own.
func (cm *ConnectionManager) runHeartbeat(ctx context.Context) {
	if cm.config.HeartbeatInterval <= 0 {
		return
	}

	ticker := cm.clock.NewTicker(cm.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			cm.broadcastLocal(EventServerTime, ServerTimePayload{ServerTime: cm.clock.Now().UTC()})
		}
	}
}
