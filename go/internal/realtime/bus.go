package realtime

import "context"

// Bus fans broadcast frames out to every server instance. Each instance
// publishes its broadcasts and delivers whatever it receives to its own
// connections, its own publications included.
type Bus interface {
	Name() string
	Publish(ctx context.Context, message []byte) error
	Subscribe(ctx context.Context, handler func(message []byte)) error
	Close() error
}

// DefaultBusSubject is the NATS subject and Redis channel used for broadcasts
const DefaultBusSubject = "livepoll.events"
