package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/soltixdb/sst/internal/logging"
)

// KafkaConfig represents Apache Kafka configuration
type KafkaConfig struct {
	Brokers       []string      // Kafka broker addresses
	GroupID       string        // Consumer group ID
	BatchTimeout  time.Duration // Producer flush interval (default: 10ms)
	MaxAttempts   int           // Producer attempts per message (default: 3)
	RetryBackoff  time.Duration // Backoff between commit retries (default: 100ms)
	CommitRetries int           // Consumer commit retries (default: 3)
}

// KafkaQueue implements Queue using one topic per subject
type KafkaQueue struct {
	config        KafkaConfig
	writer        *kafka.Writer
	readers       map[string]*kafka.Reader
	subscriptions map[string]context.CancelFunc
	wg            sync.WaitGroup
	mu            sync.Mutex
	logger        *logging.Logger
}

func newKafkaQueue(cfg KafkaConfig) (*KafkaQueue, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	if cfg.GroupID == "" {
		cfg.GroupID = "sst-worker"
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}
	if cfg.CommitRetries == 0 {
		cfg.CommitRetries = 3
	}

	// Topic is set per message so one writer serves every subject
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		MaxAttempts:            cfg.MaxAttempts,
		AllowAutoTopicCreation: true,
	}

	return &KafkaQueue{
		config:        cfg,
		writer:        writer,
		readers:       make(map[string]*kafka.Reader),
		subscriptions: make(map[string]context.CancelFunc),
		logger:        logging.Global().Component("queue.kafka"),
	}, nil
}

// Kind names the backing transport
func (q *KafkaQueue) Kind() string { return KindKafka }

// Publish writes one message to the subject's topic
func (q *KafkaQueue) Publish(ctx context.Context, subject string, data []byte) error {
	err := q.writer.WriteMessages(ctx, kafka.Message{
		Topic: subject,
		Value: data,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish to kafka topic %s: %w", subject, err)
	}
	return nil
}

// Subscribe starts a consumer-group reader on the subject's topic
func (q *KafkaQueue) Subscribe(subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadySubscribed, subject)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  q.config.Brokers,
		GroupID:  q.config.GroupID,
		Topic:    subject,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	q.readers[subject] = reader
	q.subscriptions[subject] = cancel

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.consume(ctx, reader, handler)
	}()
	return nil
}

// consume fetches and commits messages one by one; a failed message is not
// committed and is seen again after a rebalance.
func (q *KafkaQueue) consume(ctx context.Context, reader *kafka.Reader, handler MessageHandler) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			q.logger.Warn("Fetch failed", "topic", reader.Config().Topic, "error", err)
			continue
		}

		if err := handler(ctx, msg.Value); err != nil {
			q.logger.Warn("Message handler failed", "topic", msg.Topic, "offset", msg.Offset, "error", err)
			continue
		}

		for i := 0; i < q.config.CommitRetries; i++ {
			if err := reader.CommitMessages(ctx, msg); err == nil {
				break
			}
			if ctx.Err() != nil {
				return
			}
			time.Sleep(q.config.RetryBackoff)
		}
	}
}

// Unsubscribe stops the reader of a topic
func (q *KafkaQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	cancel, exists := q.subscriptions[subject]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotSubscribed, subject)
	}
	cancel()
	if reader, ok := q.readers[subject]; ok {
		_ = reader.Close()
		delete(q.readers, subject)
	}
	delete(q.subscriptions, subject)
	return nil
}

// Close stops every reader and flushes the writer
func (q *KafkaQueue) Close() error {
	q.mu.Lock()
	var lastErr error
	for subject, cancel := range q.subscriptions {
		cancel()
		if reader, ok := q.readers[subject]; ok {
			if err := reader.Close(); err != nil {
				lastErr = err
			}
		}
		delete(q.subscriptions, subject)
		delete(q.readers, subject)
	}
	q.mu.Unlock()

	q.wg.Wait()
	if err := q.writer.Close(); err != nil {
		lastErr = err
	}
	return lastErr
}

// Stats returns producer counters for monitoring
func (q *KafkaQueue) Stats() kafka.WriterStats {
	return q.writer.Stats()
}
