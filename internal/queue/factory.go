package queue

import (
	"fmt"
	"strings"

	"github.com/soltixdb/sst/internal/config"
)

// Transport names accepted in queue.type
const (
	KindNATS   = "nats"
	KindRedis  = "redis"
	KindKafka  = "kafka"
	KindMemory = "memory"
)

// NewQueue creates a new Queue instance based on configuration.
// Default is NATS if type is not specified.
func NewQueue(cfg config.QueueConfig) (Queue, error) {
	kind := strings.ToLower(cfg.Type)
	if kind == "" {
		kind = KindNATS
	}

	switch kind {
	case KindNATS:
		return newNATSQueue(cfg.URL, cfg.Username, cfg.Password)

	case KindRedis:
		return newRedisQueue(RedisConfig{
			URL:      cfg.URL,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
			Stream:   cfg.RedisStream,
			Group:    cfg.RedisGroup,
			Consumer: cfg.ConsumerName(),
		})

	case KindKafka:
		return newKafkaQueue(KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.KafkaGroupID,
		})

	case KindMemory:
		return newMemoryQueue(), nil

	default:
		return nil, fmt.Errorf("unsupported queue type: %s (supported: nats, redis, kafka, memory)", kind)
	}
}
