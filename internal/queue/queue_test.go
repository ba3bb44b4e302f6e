package queue

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomify/server/internal/models"
)

func event(matchID string) models.WorkflowEvent {
	return models.WorkflowEvent{Type: models.EventViewingProposed, MatchID: matchID, OccurredAt: time.Now()}
}

func TestNewEventQueue(t *testing.T) {
	q := NewEventQueue(10, logrus.New())
	assert.NotNil(t, q)
	assert.Equal(t, 10, q.maxSize)
	assert.False(t, q.IsClosed())
}

func TestEventQueue_Push(t *testing.T) {
	q := NewEventQueue(2, logrus.New())

	err := q.Push(event("m1"))
	assert.NoError(t, err)
	assert.Equal(t, 1, q.Len())

	_ = q.Push(event("m2"))
	err = q.Push(event("m3"))
	assert.Equal(t, ErrQueueFull, err)

	q.Close()
	err = q.Push(event("m4"))
	assert.Equal(t, ErrQueueClosed, err)
}

func TestEventQueue_Subscribe(t *testing.T) {
	q := NewEventQueue(10, logrus.New())

	var processed []string
	var mu sync.Mutex
	q.Subscribe(func(e models.WorkflowEvent) error {
		mu.Lock()
		processed = append(processed, e.MatchID)
		mu.Unlock()
		return nil
	})
	q.Start()

	require.NoError(t, q.Publish(event("m1")))
	require.NoError(t, q.Publish(event("m2")))

	// Close waits for delivery of everything already queued
	require.NoError(t, q.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"m1", "m2"}, processed)
}

func TestEventQueue_Close(t *testing.T) {
	q := NewEventQueue(10, logrus.New())

	err := q.Close()
	assert.NoError(t, err)
	assert.True(t, q.IsClosed())

	// Second close is a no-op
	err = q.Close()
	assert.NoError(t, err)
}

func TestEventQueue_FanOut(t *testing.T) {
	q := NewEventQueue(10, logrus.New())

	var wg sync.WaitGroup
	delivered := 0
	var mu sync.Mutex
	for i := 0; i < 3; i++ {
		wg.Add(1)
		q.Subscribe(func(e models.WorkflowEvent) error {
			mu.Lock()
			delivered++
			mu.Unlock()
			wg.Done()
			return nil
		})
	}
	q.Start()

	require.NoError(t, q.Push(event("m1")))
	wg.Wait()

	mu.Lock()
	assert.Equal(t, 3, delivered)
	mu.Unlock()
	q.Close()
}

func TestEventQueue_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	q := NewEventQueue(10, logrus.New())

	var got []string
	q.Subscribe(func(e models.WorkflowEvent) error {
		return errors.New("broken subscriber")
	})
	q.Subscribe(func(e models.WorkflowEvent) error {
		got = append(got, e.MatchID)
		return nil
	})
	q.Start()

	require.NoError(t, q.Push(event("m1")))
	require.NoError(t, q.Push(event("m2")))
	require.NoError(t, q.Close())

	assert.Equal(t, []string{"m1", "m2"}, got)
}

func TestEventQueue_ConcurrentPushAndClose(t *testing.T) {
	q := NewEventQueue(1000, logrus.New())
	q.Subscribe(func(models.WorkflowEvent) error { return nil })
	q.Start()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				err := q.Push(event("m"))
				if err != nil {
					assert.True(t, errors.Is(err, ErrQueueClosed) || errors.Is(err, ErrQueueFull))
				}
			}
		}()
	}
	q.Close()
	wg.Wait()
	assert.True(t, q.IsClosed())
}
