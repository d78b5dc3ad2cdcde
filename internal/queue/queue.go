// Package queue carries asynchronous scoring jobs and their results over a
// message broker (NATS JetStream, Redis Streams, Kafka) or an in-process
// channel.
package queue

import (
	"context"
	"errors"
)

var (
	// ErrAlreadySubscribed is returned when a subject already has a handler
	ErrAlreadySubscribed = errors.New("queue: already subscribed")

	// ErrNotSubscribed is returned when unsubscribing an unknown subject
	ErrNotSubscribed = errors.New("queue: not subscribed")

	// ErrClosed is returned after Close
	ErrClosed = errors.New("queue: closed")
)

// Publisher publishes messages to a queue
type Publisher interface {
	// Publish publishes a message to a subject/topic
	Publish(ctx context.Context, subject string, data []byte) error

	// Close closes the connection
	Close() error
}

// Subscriber subscribes to messages from a queue
type Subscriber interface {
	// Subscribe delivers every message on subject to handler until
	// Unsubscribe or Close. A handler error leaves the message unacknowledged
	// where the broker supports redelivery.
	Subscribe(subject string, handler MessageHandler) error

	// Unsubscribe unsubscribes from a subject/topic
	Unsubscribe(subject string) error

	// Close closes the connection
	Close() error
}

// MessageHandler handles incoming messages. ctx is cancelled when the
// subscription ends.
type MessageHandler func(ctx context.Context, data []byte) error

// Queue combines Publisher and Subscriber interfaces
type Queue interface {
	Publisher
	Subscriber

	// Kind names the backing transport
	Kind() string
}
