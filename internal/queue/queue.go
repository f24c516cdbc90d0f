package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sbenjam1n/clientintake/internal/submission"
)

const (
	// StreamNotifications carries payer notifications (intake server pushes, relay pops).
	StreamNotifications = "intake_notifications"
	// GroupRelay is the consumer group for notification relays.
	GroupRelay = "notify_relay"
)

// ErrNoMessages is returned when a bounded read finds nothing pending.
var ErrNoMessages = errors.New("no messages")

// Message is a notification read from the stream.
type Message struct {
	ID           string
	Notification submission.Notification
	Attempt      int
}

// Queue manages the Redis stream that decouples submission from notification delivery.
type Queue struct {
	client *redis.Client
}

// New creates a Queue from a Redis client.
func New(client *redis.Client) *Queue {
	return &Queue{client: client}
}

// ConnectRedis creates a Redis client from a URL.
func ConnectRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// EnsureStreams creates the consumer group if it doesn't exist.
func (q *Queue) EnsureStreams(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, StreamNotifications, GroupRelay, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create group %s on %s: %w", GroupRelay, StreamNotifications, err)
	}
	return nil
}

// PushNotification adds a notification to the stream.
func (q *Queue) PushNotification(ctx context.Context, n submission.Notification, attempt int) (string, error) {
	id, err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamNotifications,
		Values: encode(n, attempt),
	}).Result()
	if err != nil {
		return "", fmt.Errorf("push notification: %w", err)
	}
	return id, nil
}

// ReadNotification reads one notification for consumer, blocking up to block
// (0 blocks indefinitely).
func (q *Queue) ReadNotification(ctx context.Context, consumer string, block time.Duration) (*Message, error) {
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    GroupRelay,
		Consumer: consumer,
		Streams:  []string{StreamNotifications, ">"},
		Count:    1,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoMessages
	}
	if err != nil {
		return nil, fmt.Errorf("read notification: %w", err)
	}

	for _, stream := range streams {
		for _, msg := range stream.Messages {
			m := decode(msg.Values)
			m.ID = msg.ID
			return m, nil
		}
	}
	return nil, ErrNoMessages
}

// AckNotification acknowledges a notification message.
func (q *Queue) AckNotification(ctx context.Context, msgID string) error {
	return q.client.XAck(ctx, StreamNotifications, GroupRelay, msgID).Err()
}

// Status returns the stream length and the number of delivered but unacknowledged messages.
func (q *Queue) Status(ctx context.Context) (length, pending int64, err error) {
	length, err = q.client.XLen(ctx, StreamNotifications).Result()
	if err != nil {
		return 0, 0, err
	}
	if length == 0 {
		return 0, 0, nil
	}
	p, err := q.client.XPending(ctx, StreamNotifications, GroupRelay).Result()
	if err != nil {
		if strings.HasPrefix(err.Error(), "NOGROUP") {
			return length, 0, nil
		}
		return 0, 0, err
	}
	return length, p.Count, nil
}

// Notifier enqueues notifications for the relay instead of sending them inline.
type Notifier struct {
	Queue *Queue
}

func (n Notifier) Notify(ctx context.Context, note submission.Notification) error {
	_, err := n.Queue.PushNotification(ctx, note, 1)
	return err
}

func encode(n submission.Notification, attempt int) map[string]any {
	return map[string]any{
		"client_name": n.ClientName,
		"payer_name":  n.PayerName,
		"payer_email": n.PayerEmail,
		"payer_phone": n.PayerPhone,
		"attempt":     attempt,
	}
}

func decode(values map[string]any) *Message {
	attempt := 1
	if _, err := fmt.Sscan(getString(values, "attempt"), &attempt); err != nil || attempt < 1 {
		attempt = 1
	}
	return &Message{
		Notification: submission.Notification{
			ClientName: getString(values, "client_name"),
			PayerName:  getString(values, "payer_name"),
			PayerEmail: getString(values, "payer_email"),
			PayerPhone: getString(values, "payer_phone"),
		},
		Attempt: attempt,
	}
}

func getString(values map[string]any, key string) string {
	if v, ok := values[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
