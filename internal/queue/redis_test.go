package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sbenjam1n/clientintake/internal/submission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBlock = 20 * time.Millisecond

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := ConnectRedis("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	return New(rdb)
}

var note = submission.Notification{ClientName: "Ada", PayerName: "Charles", PayerEmail: "c@example.com", PayerPhone: "557"}

func TestQueuePushReadAck(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	require.NoError(t, q.EnsureStreams(ctx))
	require.NoError(t, q.EnsureStreams(ctx), "existing group is not an error")

	id, err := q.PushNotification(ctx, note, 2)
	require.NoError(t, err)

	length, pending, err := q.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), length)
	assert.Zero(t, pending)

	msg, err := q.ReadNotification(ctx, "relay_1", testBlock)
	require.NoError(t, err)
	assert.Equal(t, id, msg.ID)
	assert.Equal(t, note, msg.Notification)
	assert.Equal(t, 2, msg.Attempt)

	_, pending, err = q.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending, "delivered but not acked")

	require.NoError(t, q.AckNotification(ctx, msg.ID))
	length, pending, err = q.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), length)
	assert.Zero(t, pending)

	_, err = q.ReadNotification(ctx, "relay_1", testBlock)
	assert.ErrorIs(t, err, ErrNoMessages)
}

func TestQueueStatusBeforeGroup(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	length, pending, err := q.Status(ctx)
	require.NoError(t, err)
	assert.Zero(t, length)
	assert.Zero(t, pending)

	_, err = q.PushNotification(ctx, note, 1)
	require.NoError(t, err)
	length, pending, err = q.Status(ctx)
	require.NoError(t, err, "missing consumer group reads as nothing pending")
	assert.Equal(t, int64(1), length)
	assert.Zero(t, pending)
}

func TestNotifierQueuesFirstAttempt(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)
	require.NoError(t, q.EnsureStreams(ctx))

	require.NoError(t, Notifier{Queue: q}.Notify(ctx, note))

	msg, err := q.ReadNotification(ctx, "relay_1", testBlock)
	require.NoError(t, err)
	assert.Equal(t, note, msg.Notification)
	assert.Equal(t, 1, msg.Attempt)
}

func TestConnectRedisRejectsBadURL(t *testing.T) {
	_, err := ConnectRedis("http://localhost:6379")
	assert.Error(t, err)
}

func TestQueueAgainstClosedServer(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })
	mr.Close()

	err = New(rdb).EnsureStreams(context.Background())
	assert.Error(t, err)
}
