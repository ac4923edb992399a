package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSBusConfig holds configuration for the NATS bus
type NATSBusConfig struct {
	URL           string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSBusConfig returns default NATS bus configuration
func DefaultNATSBusConfig() NATSBusConfig {
	return NATSBusConfig{
		URL:           nats.DefaultURL,
		Subject:       DefaultBusSubject,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// NATSBus relays broadcasts over core NATS publish/subscribe. Delivery is at
// most once; clients recover anything missed with poll:sync.
type NATSBus struct {
	nc      *nats.Conn
	subject string
	sub     *nats.Subscription
}

// NewNATSBus connects to NATS
func NewNATSBus(config NATSBusConfig) (*NATSBus, error) {
	opts := []nats.Option{
		nats.Name("livepoll-realtime"),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	subject := config.Subject
	if subject == "" {
		subject = DefaultBusSubject
	}

	log.Info().Str("url", nc.ConnectedUrl()).Str("subject", subject).Msg("connected to NATS")
	return &NATSBus{nc: nc, subject: subject}, nil
}

func (b *NATSBus) Name() string { return "nats" }

func (b *NATSBus) Publish(ctx context.Context, message []byte) error {
	if err := b.nc.Publish(b.subject, message); err != nil {
		return fmt.Errorf("publish to %s: %w", b.subject, err)
	}
	return nil
}

func (b *NATSBus) Subscribe(ctx context.Context, handler func(message []byte)) error {
	sub, err := b.nc.Subscribe(b.subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", b.subject, err)
	}
	b.sub = sub

	go func() {
		<-ctx.Done()
		if err := sub.Unsubscribe(); err != nil && err != nats.ErrConnectionClosed {
			log.Warn().Err(err).Msg("failed to unsubscribe from NATS")
		}
	}()
	return nil
}

// Close drains pending messages and closes the connection
func (b *NATSBus) Close() error {
	return b.nc.Drain()
}
