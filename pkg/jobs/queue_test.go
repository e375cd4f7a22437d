package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "1"}))
}

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 2 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1"}))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job was not retried")
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestQueueSkipsRetryForPermanentErrors(t *testing.T) {
	permanent := errors.New("permanent")
	var calls int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&calls, 1)
		return permanent
	}, QueueConfig{
		MaxRetries:  3,
		RetryDelay:  time.Millisecond,
		ShouldRetry: func(err error) bool { return !errors.Is(err, permanent) },
	})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "1"}))
	time.Sleep(50 * time.Millisecond)
	q.Stop()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestQueueFullBuffer(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer q.Stop()
	defer close(block)

	require.NoError(t, q.Enqueue(Job{ID: "1"}))
	require.Eventually(t, func() bool { return len(q.jobs) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.Enqueue(Job{ID: "2"}))
	assert.Error(t, q.Enqueue(Job{ID: "3"}))
}

func TestQueueEnqueueAllIsAllOrNothing(t *testing.T) {
	block := make(chan struct{})
	var handled int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&handled, 1)
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 2})
	q.Start(context.Background())
	defer q.Stop()
	defer close(block)

	require.NoError(t, q.Enqueue(Job{ID: "busy"}))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&handled) == 1 }, time.Second, time.Millisecond)

	err := q.EnqueueAll([]Job{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "room for 2 of 3")
	assert.Zero(t, len(q.jobs))

	require.NoError(t, q.EnqueueAll([]Job{{ID: "a"}, {ID: "b"}}))
	assert.Equal(t, 2, len(q.jobs))
}

func TestQueueEnqueueAllRequiresStart(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.EnqueueAll([]Job{{ID: "1"}}))
}
