// Package events implements the redis pub/sub bus carrying posts-changed and
// worker-status notifications between the extraction workers and the API.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/profilewatch/profile-ui-api/internal/domain/model"
)

const (
	// ChannelPostsChanged carries model.PostsChangedEvent payloads.
	ChannelPostsChanged = "profilewatch:posts"
	// ChannelWorkerEvents carries model.WorkerEvent payloads.
	ChannelWorkerEvents = "profilewatch:worker"

	subscriberBuffer = 64
)

// Bus publishes and subscribes to profilewatch notifications over redis
// pub/sub. It satisfies core.EventPublisher.
type Bus struct {
	client redis.UniversalClient
	logger *slog.Logger
}

// NewBus creates a Bus on an existing redis client.
func NewBus(client redis.UniversalClient, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		client: client,
		logger: logger.With("component", "event_bus"),
	}
}

// PublishPostsChanged notifies subscribers that a profile's posts changed.
func (b *Bus) PublishPostsChanged(ctx context.Context, ev model.PostsChangedEvent) error {
	return b.publish(ctx, ChannelPostsChanged, ev)
}

// PublishWorkerEvent notifies subscribers of a job lifecycle or progress change.
func (b *Bus) PublishWorkerEvent(ctx context.Context, ev model.WorkerEvent) error {
	if !ev.Status.Valid() {
		return fmt.Errorf("invalid worker event status %q", ev.Status)
	}
	return b.publish(ctx, ChannelWorkerEvents, ev)
}

func (b *Bus) publish(ctx context.Context, channel string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

// Subscription delivers decoded events for the lifetime of one subscriber.
type Subscription struct {
	postsCh  chan model.PostsChangedEvent
	workerCh chan model.WorkerEvent
	close    func() error
}

// PostsEvents returns the posts-changed channel.
func (s *Subscription) PostsEvents() <-chan model.PostsChangedEvent { return s.postsCh }

// WorkerEvents returns the worker-status channel.
func (s *Subscription) WorkerEvents() <-chan model.WorkerEvent { return s.workerCh }

// Close releases the redis subscription. Channels are closed once the pump
// goroutine drains.
func (s *Subscription) Close() error { return s.close() }

// Subscribe opens a subscription on both channels. The pump goroutine runs
// until Close is called or ctx is canceled.
func (b *Bus) Subscribe(ctx context.Context) (*Subscription, error) {
	pubsub := b.client.Subscribe(ctx, ChannelPostsChanged, ChannelWorkerEvents)
	// Force the subscribe round-trip so callers see connection errors here.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe events: %w", err)
	}

	sub := &Subscription{
		postsCh:  make(chan model.PostsChangedEvent, subscriberBuffer),
		workerCh: make(chan model.WorkerEvent, subscriberBuffer),
		close:    pubsub.Close,
	}

	go b.pump(ctx, pubsub, sub)
	return sub, nil
}

func (b *Bus) pump(ctx context.Context, pubsub *redis.PubSub, sub *Subscription) {
	defer close(sub.postsCh)
	defer close(sub.workerCh)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			_ = pubsub.Close()
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.route(ctx, msg, sub)
		}
	}
}

func (b *Bus) route(ctx context.Context, msg *redis.Message, sub *Subscription) {
	switch msg.Channel {
	case ChannelPostsChanged:
		var ev model.PostsChangedEvent
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			b.logger.WarnContext(ctx, "bad posts-changed payload", "error", err)
			return
		}
		select {
		case sub.postsCh <- ev:
		default:
			b.logger.WarnContext(ctx, "posts subscriber lagging, dropping event")
		}
	case ChannelWorkerEvents:
		var ev model.WorkerEvent
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			b.logger.WarnContext(ctx, "bad worker-event payload", "error", err)
			return
		}
		select {
		case sub.workerCh <- ev:
		default:
			b.logger.WarnContext(ctx, "worker subscriber lagging, dropping event")
		}
	}
}
