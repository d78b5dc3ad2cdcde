package config

import (
	"fmt"
	"math"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Detector DetectorConfig `mapstructure:"detector"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Profiles ProfilesConfig `mapstructure:"profiles"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`      // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort        int           `mapstructure:"http_port"` // HTTP server port
	GRPCPort        int           `mapstructure:"grpc_port"` // gRPC server port, 0 disables gRPC
	BodyLimit       int           `mapstructure:"body_limit"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DetectorConfig holds the SST defaults applied when a request or profile
// leaves a hyperparameter unset. Zero Order, Lag and RankLanczos are derived
// from the window length.
type DetectorConfig struct {
	Algorithm    string  `mapstructure:"algorithm"` // sst, sst_lanczos or sst_svd
	WindowLength int     `mapstructure:"window_length"`
	NComponents  int     `mapstructure:"n_components"`
	Order        int     `mapstructure:"order"`
	Lag          int     `mapstructure:"lag"`
	RankLanczos  int     `mapstructure:"rank_lanczos"`
	Eps          float64 `mapstructure:"eps"`
	Workers      int     `mapstructure:"workers"` // SVD path parallelism

	Threshold   float64 `mapstructure:"threshold"`    // Minimum peak score reported as a change point
	MinDistance int     `mapstructure:"min_distance"` // 0 means window_length

	MaxSeriesLength int `mapstructure:"max_series_length"` // Requests above this are rejected
}

// QueueConfig represents message queue configuration
type QueueConfig struct {
	Enabled  bool   `mapstructure:"enabled"`  // Start the job worker
	Type     string `mapstructure:"type"`     // Queue type: nats (default), redis, kafka, memory
	URL      string `mapstructure:"url"`      // Queue server URL (e.g., nats://localhost:4222, redis://localhost:6379)
	Username string `mapstructure:"username"` // Optional authentication
	Password string `mapstructure:"password"` // Optional authentication

	JobSubject    string `mapstructure:"job_subject"`    // Scoring jobs are consumed from here
	ResultSubject string `mapstructure:"result_subject"` // Job outcomes are published here
	Concurrency   int    `mapstructure:"concurrency"`    // Jobs scored in parallel by the worker

	// Redis-specific options
	RedisDB       int    `mapstructure:"redis_db"`       // Redis database number (default: 0)
	RedisStream   string `mapstructure:"redis_stream"`   // Redis stream prefix (default: "sst")
	RedisGroup    string `mapstructure:"redis_group"`    // Redis consumer group (default: "sst-group")
	RedisConsumer string `mapstructure:"redis_consumer"` // Redis consumer name (default: hostname)

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`  // Kafka broker addresses
	KafkaGroupID string   `mapstructure:"kafka_group_id"` // Kafka consumer group ID
}

// ProfilesConfig selects where named hyperparameter presets live
type ProfilesConfig struct {
	Backend  string        `mapstructure:"backend"` // memory (default) or etcd
	Prefix   string        `mapstructure:"prefix"`  // etcd key prefix
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	Etcd     EtcdConfig    `mapstructure:"etcd"`
}

// EtcdConfig represents etcd configuration
type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
}

// ArchiveConfig controls persistence of score results
type ArchiveConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Dir      string `mapstructure:"dir"`
	Compress bool   `mapstructure:"compress"` // snappy-compress record files
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, Kitchen
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Detector.Validate(); err != nil {
		return fmt.Errorf("detector config: %w", err)
	}
	if c.Queue.Enabled {
		if err := c.Queue.Validate(); err != nil {
			return fmt.Errorf("queue config: %w", err)
		}
	}
	if err := c.Profiles.Validate(); err != nil {
		return fmt.Errorf("profiles config: %w", err)
	}
	if err := c.Archive.Validate(); err != nil {
		return fmt.Errorf("archive config: %w", err)
	}
	if c.Auth.Enabled && len(c.Auth.APIKeys) == 0 {
		return fmt.Errorf("auth config: api_keys is required when auth is enabled")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc_port: %d", c.GRPCPort)
	}
	if c.HTTPPort == c.GRPCPort {
		return fmt.Errorf("http_port and grpc_port cannot be the same")
	}
	return nil
}

// Validate checks the detector defaults. Cross-field checks between the SST
// hyperparameters happen when a request is resolved.
func (c *DetectorConfig) Validate() error {
	switch c.Algorithm {
	case "sst", "sst_lanczos", "sst_svd":
	default:
		return fmt.Errorf("detector.algorithm must be one of: sst, sst_lanczos, sst_svd")
	}
	if c.WindowLength < 1 {
		return fmt.Errorf("detector.window_length must be positive")
	}
	if c.NComponents < 0 || c.Order < 0 || c.Lag < 0 || c.RankLanczos < 0 {
		return fmt.Errorf("detector hyperparameters cannot be negative")
	}
	if c.Eps < 0 || math.IsNaN(c.Eps) {
		return fmt.Errorf("detector.eps cannot be negative")
	}
	if c.Workers < 0 {
		return fmt.Errorf("detector.workers cannot be negative")
	}
	if c.MinDistance < 0 {
		return fmt.Errorf("detector.min_distance cannot be negative")
	}
	if c.MaxSeriesLength < 1 {
		return fmt.Errorf("detector.max_series_length must be positive")
	}
	return nil
}

// Validate validates queue configuration
func (c *QueueConfig) Validate() error {
	switch c.Type {
	case "", "nats", "redis", "kafka", "memory":
	default:
		return fmt.Errorf("unsupported queue.type: %s", c.Type)
	}
	if c.JobSubject == "" || c.ResultSubject == "" {
		return fmt.Errorf("queue.job_subject and queue.result_subject are required")
	}
	if c.JobSubject == c.ResultSubject {
		return fmt.Errorf("queue.job_subject and queue.result_subject cannot be the same")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("queue.concurrency must be at least 1")
	}
	return nil
}

// Validate validates profile store configuration
func (c *ProfilesConfig) Validate() error {
	switch c.Backend {
	case "", "memory":
		return nil
	case "etcd":
		return c.Etcd.Validate()
	default:
		return fmt.Errorf("profiles.backend must be 'memory' or 'etcd'")
	}
}

// Validate validates etcd configuration
func (c *EtcdConfig) Validate() error {
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("etcd.endpoints is required")
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("etcd.dial_timeout must be positive")
	}
	return nil
}

// Validate validates archive configuration
func (c *ArchiveConfig) Validate() error {
	if c.Enabled && c.Dir == "" {
		return fmt.Errorf("archive.dir is required when archive is enabled")
	}
	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}
	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}
	return nil
}
