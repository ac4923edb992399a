package realtime

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisBusConfig holds configuration for the Redis bus
type RedisBusConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// RedisBus relays broadcasts over Redis pub/sub
type RedisBus struct {
	client  *redis.Client
	channel string
	pubsub  *redis.PubSub
}

// NewRedisBus connects to Redis and verifies the connection
func NewRedisBus(ctx context.Context, config RedisBusConfig) (*RedisBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", config.Addr, err)
	}

	channel := config.Channel
	if channel == "" {
		channel = DefaultBusSubject
	}

	log.Info().Str("addr", config.Addr).Str("channel", channel).Msg("connected to redis")
	return &RedisBus{client: client, channel: channel}, nil
}

func (b *RedisBus) Name() string { return "redis" }

func (b *RedisBus) Publish(ctx context.Context, message []byte) error {
	if err := b.client.Publish(ctx, b.channel, message).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", b.channel, err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, handler func(message []byte)) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	// wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("subscribe to %s: %w", b.channel, err)
	}
	b.pubsub = pubsub

	go func() {
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler([]byte(msg.Payload))
			}
		}
	}()
	return nil
}

func (b *RedisBus) Close() error {
	if b.pubsub != nil {
		if err := b.pubsub.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close redis subscription")
		}
	}
	return b.client.Close()
}
