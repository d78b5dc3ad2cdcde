package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/soltixdb/sst/internal/logging"
)

const memoryBuffer = 1024

// MemoryQueue implements Queue with buffered channels. It is used in tests
// and single-process deployments; messages are lost on restart.
type MemoryQueue struct {
	mu            sync.Mutex
	channels      map[string]chan []byte
	subscriptions map[string]context.CancelFunc
	wg            sync.WaitGroup
	closed        bool
	logger        *logging.Logger
}

func newMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		channels:      make(map[string]chan []byte),
		subscriptions: make(map[string]context.CancelFunc),
		logger:        logging.Global().Component("queue.memory"),
	}
}

// NewMemoryQueue returns an in-process queue
func NewMemoryQueue() *MemoryQueue {
	return newMemoryQueue()
}

// Kind names the backing transport
func (q *MemoryQueue) Kind() string { return KindMemory }

// channel must be called with q.mu held
func (q *MemoryQueue) channel(subject string) chan []byte {
	ch, ok := q.channels[subject]
	if !ok {
		ch = make(chan []byte, memoryBuffer)
		q.channels[subject] = ch
	}
	return ch
}

// Publish copies data onto the subject's channel. It fails instead of
// blocking when the buffer is full.
func (q *MemoryQueue) Publish(ctx context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}

	msg := append([]byte(nil), data...)
	select {
	case q.channel(subject) <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("queue: channel full for subject %s", subject)
	}
}

// Subscribe starts a goroutine draining the subject's channel
func (q *MemoryQueue) Subscribe(subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	if _, ok := q.subscriptions[subject]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadySubscribed, subject)
	}

	ch := q.channel(subject)
	ctx, cancel := context.WithCancel(context.Background())
	q.subscriptions[subject] = cancel

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case data := <-ch:
				if err := handler(ctx, data); err != nil {
					q.logger.Warn("Message handler failed", "subject", subject, "error", err)
				}
			}
		}
	}()
	return nil
}

// Unsubscribe unsubscribes from a channel
func (q *MemoryQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	cancel, ok := q.subscriptions[subject]
	delete(q.subscriptions, subject)
	q.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotSubscribed, subject)
	}
	cancel()
	return nil
}

// Close stops all subscribers and waits for in-flight handlers
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	for subject, cancel := range q.subscriptions {
		cancel()
		delete(q.subscriptions, subject)
	}
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}

// Pending returns the number of undelivered messages on subject
func (q *MemoryQueue) Pending(subject string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if ch, ok := q.channels[subject]; ok {
		return len(ch)
	}
	return 0
}
