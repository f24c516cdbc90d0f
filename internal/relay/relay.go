// Package relay drains queued payer notifications and forwards them to the
// notification service.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sbenjam1n/clientintake/internal/queue"
	"github.com/sbenjam1n/clientintake/internal/submission"
)

// Stream is the queue surface the relay consumes.
type Stream interface {
	EnsureStreams(ctx context.Context) error
	ReadNotification(ctx context.Context, consumer string, block time.Duration) (*queue.Message, error)
	AckNotification(ctx context.Context, msgID string) error
	PushNotification(ctx context.Context, n submission.Notification, attempt int) (string, error)
}

// Relay moves notifications from the stream to a Notifier.
type Relay struct {
	stream   Stream
	notifier submission.Notifier
	logger   *slog.Logger

	Consumer    string
	MaxAttempts int
	Block       time.Duration

	// Run waits MinBackoff after a failed read, doubling up to MaxBackoff while reads keep failing.
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// New creates a relay with a single consumer name and three delivery attempts.
func New(stream Stream, notifier submission.Notifier, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		stream:      stream,
		notifier:    notifier,
		logger:      logger.With("component", "relay"),
		Consumer:    "relay_1",
		MaxAttempts: 3,
		Block:       5 * time.Second,
		MinBackoff:  250 * time.Millisecond,
		MaxBackoff:  30 * time.Second,
	}
}

// Run blocks on the stream, delivering notifications as they arrive.
func (r *Relay) Run(ctx context.Context) error {
	if err := r.stream.EnsureStreams(ctx); err != nil {
		return err
	}
	var backoff time.Duration
	for {
		_, err := r.step(ctx)
		if err == nil {
			backoff = 0
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		backoff = r.nextBackoff(backoff)
		r.logger.Warn("notification read failed", "error", err, "retry_in", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func (r *Relay) nextBackoff(prev time.Duration) time.Duration {
	next := max(prev*2, r.MinBackoff)
	if r.MaxBackoff > 0 && next > r.MaxBackoff {
		next = r.MaxBackoff
	}
	return max(next, time.Millisecond)
}

// Drain delivers everything currently pending and returns how many messages
// were handled. A failed read ends the drain with an error.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	if err := r.stream.EnsureStreams(ctx); err != nil {
		return 0, err
	}
	n := 0
	for {
		handled, err := r.step(ctx)
		if err != nil {
			return n, err
		}
		if !handled {
			return n, nil
		}
		n++
	}
}

// step handles at most one message. An empty stream is not an error.
func (r *Relay) step(ctx context.Context) (bool, error) {
	msg, err := r.stream.ReadNotification(ctx, r.Consumer, r.Block)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if errors.Is(err, queue.ErrNoMessages) {
			return false, nil
		}
		return false, fmt.Errorf("read notification: %w", err)
	}

	if err := r.notifier.Notify(ctx, msg.Notification); err != nil {
		r.retry(ctx, msg, err)
	} else {
		r.logger.Info("notification delivered", "msg_id", msg.ID, "attempt", msg.Attempt)
	}

	if err := r.stream.AckNotification(ctx, msg.ID); err != nil {
		r.logger.Warn("ack failed", "msg_id", msg.ID, "error", err)
	}
	return true, nil
}

func (r *Relay) retry(ctx context.Context, msg *queue.Message, cause error) {
	if msg.Attempt >= r.MaxAttempts {
		r.logger.Error("notification dropped", "msg_id", msg.ID, "attempt", msg.Attempt, "error", cause)
		return
	}
	if _, err := r.stream.PushNotification(ctx, msg.Notification, msg.Attempt+1); err != nil {
		r.logger.Error("requeue failed", "msg_id", msg.ID, "error", err)
		return
	}
	r.logger.Warn("notification failed, requeued", "msg_id", msg.ID, "attempt", msg.Attempt, "error", cause)
}
