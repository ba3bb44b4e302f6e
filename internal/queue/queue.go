package queue

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"roomify/server/internal/models"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// EventQueue is an in-memory fan-out bus for committed workflow events
type EventQueue struct {
	items    chan models.WorkflowEvent
	stopped  chan struct{}
	maxSize  int
	started  bool
	closed   bool
	mu       sync.RWMutex
	logger   *logrus.Logger
	handlers []func(models.WorkflowEvent) error
}

// NewEventQueue creates a new event queue with the specified buffer size
func NewEventQueue(bufferSize int, logger *logrus.Logger) *EventQueue {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &EventQueue{
		items:    make(chan models.WorkflowEvent, bufferSize),
		stopped:  make(chan struct{}),
		maxSize:  bufferSize,
		logger:   logger,
		handlers: make([]func(models.WorkflowEvent) error, 0),
	}
}

// Push adds an event to the queue without blocking the caller
func (q *EventQueue) Push(event models.WorkflowEvent) error {
	// The read lock is held across the send so Close cannot close the
	// channel underneath it
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- event:
		q.logger.WithFields(logrus.Fields{
			"event":    event.Type,
			"match_id": event.MatchID,
		}).Debug("Pushed event to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// Publish makes the queue usable as the workflow publisher
func (q *EventQueue) Publish(event models.WorkflowEvent) error {
	return q.Push(event)
}

// Subscribe adds a handler function that will be called for each event
func (q *EventQueue) Subscribe(handler func(models.WorkflowEvent) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start begins processing items in the queue
func (q *EventQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true
	go q.process()
}

// process delivers events until the queue is closed and drained
func (q *EventQueue) process() {
	defer close(q.stopped)
	for event := range q.items {
		q.deliver(event)
	}
}

// deliver sends the event to all subscribed handlers
func (q *EventQueue) deliver(event models.WorkflowEvent) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(event); err != nil {
			q.logger.WithError(err).WithFields(logrus.Fields{
				"event":    event.Type,
				"match_id": event.MatchID,
			}).Error("Handler failed to process event")
		}
	}
}

// Close stops accepting events and waits for queued ones to be delivered
func (q *EventQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.items)
	started := q.started
	q.mu.Unlock()

	if started {
		<-q.stopped
	}
	return nil
}

// Len returns the current number of events in the queue
func (q *EventQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *EventQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
