package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// DefaultChannel is the pub/sub channel every server instance shares.
const DefaultChannel = "devconnector:posts"

// RedisBus publishes events on a Redis channel so that every server instance
// behind a load balancer feeds its own websocket clients.
type RedisBus struct {
	Client  *redis.Client
	channel string

	pubsub      *redis.PubSub
	subscribers handlerSet
	done        chan struct{}
	logger      *zap.Logger
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return client, nil
}

// NewRedisBus subscribes to channel and starts delivering received events.
func NewRedisBus(ctx context.Context, client *redis.Client, channel string, logger *zap.Logger) (*RedisBus, error) {
	pubsub := client.Subscribe(ctx, channel)
	// Wait for the subscription confirmation so no event published after
	// construction is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	b := &RedisBus{
		Client:  client,
		channel: channel,
		pubsub:  pubsub,
		done:    make(chan struct{}),
		logger:  logger,
	}
	go b.run()
	return b, nil
}

func (b *RedisBus) run() {
	defer close(b.done)
	for msg := range b.pubsub.Channel() {
		var evt Event
		if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
			b.logger.Warn("Dropping malformed post event", zap.Error(err))
			continue
		}
		b.subscribers.dispatch(evt)
	}
}

func (b *RedisBus) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if err := b.Client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", evt.Type, err)
	}
	return nil
}

func (b *RedisBus) Subscribe(h Handler) {
	b.subscribers.add(h)
}

// Close ends the subscription and waits for the delivery loop to stop.
// The Redis client itself is left open for its owner to close.
func (b *RedisBus) Close() error {
	err := b.pubsub.Close()
	<-b.done
	return err
}

var (
	_ Bus = (*LocalBus)(nil)
	_ Bus = (*RedisBus)(nil)
)
