package queue

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kafkaBrokers returns brokers from KAFKA_BROKERS; tests needing a live
// cluster also require KAFKA_TEST=1.
func kafkaBrokers(t *testing.T) []string {
	t.Helper()
	if os.Getenv("KAFKA_TEST") != "1" {
		t.Skip("KAFKA_TEST not set, skipping Kafka integration test")
	}
	if b := os.Getenv("KAFKA_BROKERS"); b != "" {
		return []string{b}
	}
	return []string{"localhost:9092"}
}

func TestNewKafkaQueue_Defaults(t *testing.T) {
	q, err := newKafkaQueue(KafkaConfig{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	assert.Equal(t, "sst-worker", q.config.GroupID)
	assert.Equal(t, 3, q.config.MaxAttempts)
	assert.Equal(t, 3, q.config.CommitRetries)
	assert.Equal(t, KindKafka, q.Kind())
}

func TestNewKafkaQueue_NoBrokers(t *testing.T) {
	_, err := newKafkaQueue(KafkaConfig{})
	assert.Error(t, err)
}

func TestKafkaQueue_UnsubscribeUnknown(t *testing.T) {
	q, err := newKafkaQueue(KafkaConfig{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	assert.ErrorIs(t, q.Unsubscribe("nothing"), ErrNotSubscribed)
}

func TestKafkaQueue_PublishSubscribe(t *testing.T) {
	brokers := kafkaBrokers(t)

	q, err := newKafkaQueue(KafkaConfig{Brokers: brokers, GroupID: "sst-test-" + uuid.NewString()})
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	topic := "sst-test-" + uuid.NewString()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, q.Publish(ctx, topic, []byte("payload")))

	got := make(chan string, 1)
	require.NoError(t, q.Subscribe(topic, func(_ context.Context, data []byte) error {
		got <- string(data)
		return nil
	}))

	select {
	case msg := <-got:
		assert.Equal(t, "payload", msg)
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}
}
