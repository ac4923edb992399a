package realtime

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/livepoll/go/internal/models"
)

// Broadcaster turns committed lifecycle transitions and recorded votes into
// broadcasts. It satisfies polls.Notifier and votes.Notifier.
type Broadcaster struct {
	cm *ConnectionManager
}

func NewBroadcaster(cm *ConnectionManager) *Broadcaster {
	return &Broadcaster{cm: cm}
}

func (b *Broadcaster) PollStarted(ctx context.Context, poll *models.Poll, serverTime time.Time) {
	b.cm.Broadcast(ctx, EventPollStarted, PollStartedPayload{Poll: poll, ServerTime: serverTime.UTC()})
}

func (b *Broadcaster) PollEnded(ctx context.Context, pollID uuid.UUID) {
	b.cm.Broadcast(ctx, EventPollEnded, PollEndedPayload{PollID: pollID})
}

func (b *Broadcaster) VoteRecorded(ctx context.Context, results *models.PollResults) {
	b.cm.Broadcast(ctx, EventVoteUpdate, VoteUpdatePayload{Results: results})
}
