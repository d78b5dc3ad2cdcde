package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/soltixdb/sst/internal/logging"
)

// NATSQueue implements Queue on NATS JetStream. Every subject is backed by
// its own file stream so jobs survive a worker restart.
type NATSQueue struct {
	conn          *nats.Conn
	js            nats.JetStreamContext
	ownsConn      bool
	subscriptions map[string]*natsSubscription
	streams       map[string]struct{}
	mu            sync.Mutex
	logger        *logging.Logger
}

type natsSubscription struct {
	sub    *nats.Subscription
	cancel context.CancelFunc
}

func newNATSQueue(url, user, password string) (*NATSQueue, error) {
	opts := []nats.Option{nats.Name("sst-scorer")}
	if user != "" {
		opts = append(opts, nats.UserInfo(user, password))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	q, err := NewNATSQueueWithConn(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	q.ownsConn = true
	return q, nil
}

// NewNATSQueueWithConn wraps an existing connection. Close does not close conn.
func NewNATSQueueWithConn(conn *nats.Conn) (*NATSQueue, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &NATSQueue{
		conn:          conn,
		js:            js,
		subscriptions: make(map[string]*natsSubscription),
		streams:       make(map[string]struct{}),
		logger:        logging.Global().Component("queue.nats"),
	}, nil
}

// Kind names the backing transport
func (q *NATSQueue) Kind() string { return KindNATS }

// ensureStream creates the stream for subject once. Must be called with q.mu held.
func (q *NATSQueue) ensureStream(subject string) error {
	if _, ok := q.streams[subject]; ok {
		return nil
	}

	name := streamName(subject)
	if _, err := q.js.StreamInfo(name); err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			return fmt.Errorf("failed to look up stream %s: %w", name, err)
		}
		_, err = q.js.AddStream(&nats.StreamConfig{
			Name:     name,
			Subjects: []string{subject},
			Storage:  nats.FileStorage,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream for subject %s: %w", subject, err)
		}
	}

	q.streams[subject] = struct{}{}
	return nil
}

// Publish publishes a message and waits for the JetStream acknowledgement
func (q *NATSQueue) Publish(ctx context.Context, subject string, data []byte) error {
	q.mu.Lock()
	err := q.ensureStream(subject)
	q.mu.Unlock()
	if err != nil {
		return err
	}

	if _, err := q.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	return nil
}

// Subscribe attaches a durable consumer with manual acknowledgement. Failed
// messages are NAKed and redelivered up to three times.
func (q *NATSQueue) Subscribe(subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadySubscribed, subject)
	}
	if err := q.ensureStream(subject); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := q.js.Subscribe(subject, func(msg *nats.Msg) {
		if err := handler(ctx, msg.Data); err != nil {
			q.logger.Warn("Message handler failed, requesting redelivery", "subject", subject, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("consumer-"+sanitizeName(subject)),
		nats.ManualAck(),
		nats.MaxAckPending(64),
		nats.AckWait(time.Minute),
		nats.MaxDeliver(3),
		nats.DeliverAll(),
	)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	q.subscriptions[subject] = &natsSubscription{sub: sub, cancel: cancel}
	return nil
}

// Unsubscribe unsubscribes from a subject
func (q *NATSQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	s, exists := q.subscriptions[subject]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotSubscribed, subject)
	}
	delete(q.subscriptions, subject)

	s.cancel()
	if err := s.sub.Unsubscribe(); err != nil {
		return fmt.Errorf("failed to unsubscribe from subject %s: %w", subject, err)
	}
	return nil
}

// Close drops all subscriptions and, if the queue dialled it, the connection
func (q *NATSQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for subject, s := range q.subscriptions {
		s.cancel()
		_ = s.sub.Unsubscribe()
		delete(q.subscriptions, subject)
	}

	if q.ownsConn {
		q.conn.Close()
	}
	return nil
}

// streamName maps a subject to a JetStream stream name
func streamName(subject string) string {
	return "sst-" + sanitizeName(subject)
}

// sanitizeName keeps A-Z, a-z, 0-9, dash and underscore, the characters
// allowed in stream and consumer names.
func sanitizeName(subject string) string {
	out := []byte(subject)
	for i, c := range out {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}
