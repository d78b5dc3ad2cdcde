package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. SST_SERVER_HTTP_PORT.
const EnvPrefix = "SST"

// Load loads configuration from file, defaults and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/sst")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return parseConfig(v)
}

// setDefaults mirrors DefaultConfig so that every key is known to viper and
// can be overridden from the environment.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.grpc_port", d.Server.GRPCPort)
	v.SetDefault("server.body_limit", d.Server.BodyLimit)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("detector.algorithm", d.Detector.Algorithm)
	v.SetDefault("detector.window_length", d.Detector.WindowLength)
	v.SetDefault("detector.n_components", d.Detector.NComponents)
	v.SetDefault("detector.order", d.Detector.Order)
	v.SetDefault("detector.lag", d.Detector.Lag)
	v.SetDefault("detector.rank_lanczos", d.Detector.RankLanczos)
	v.SetDefault("detector.eps", d.Detector.Eps)
	v.SetDefault("detector.workers", d.Detector.Workers)
	v.SetDefault("detector.threshold", d.Detector.Threshold)
	v.SetDefault("detector.min_distance", d.Detector.MinDistance)
	v.SetDefault("detector.max_series_length", d.Detector.MaxSeriesLength)

	v.SetDefault("queue.enabled", d.Queue.Enabled)
	v.SetDefault("queue.type", d.Queue.Type)
	v.SetDefault("queue.url", d.Queue.URL)
	v.SetDefault("queue.job_subject", d.Queue.JobSubject)
	v.SetDefault("queue.result_subject", d.Queue.ResultSubject)
	v.SetDefault("queue.concurrency", d.Queue.Concurrency)
	v.SetDefault("queue.redis_stream", d.Queue.RedisStream)
	v.SetDefault("queue.redis_group", d.Queue.RedisGroup)
	v.SetDefault("queue.kafka_group_id", d.Queue.KafkaGroupID)

	v.SetDefault("profiles.backend", d.Profiles.Backend)
	v.SetDefault("profiles.prefix", d.Profiles.Prefix)
	v.SetDefault("profiles.cache_ttl", d.Profiles.CacheTTL)
	v.SetDefault("profiles.etcd.endpoints", d.Profiles.Etcd.Endpoints)
	v.SetDefault("profiles.etcd.dial_timeout", d.Profiles.Etcd.DialTimeout)

	v.SetDefault("archive.enabled", d.Archive.Enabled)
	v.SetDefault("archive.dir", d.Archive.Dir)
	v.SetDefault("archive.compress", d.Archive.Compress)

	v.SetDefault("auth.enabled", d.Auth.Enabled)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			HTTPPort:        5555,
			GRPCPort:        5556,
			BodyLimit:       16 * 1024 * 1024,
			ShutdownTimeout: 10 * time.Second,
		},
		Detector: DetectorConfig{
			Algorithm:       "sst",
			WindowLength:    50,
			NComponents:     3,
			Eps:             1e-3,
			Workers:         4,
			Threshold:       0.5,
			MaxSeriesLength: 1_000_000,
		},
		Queue: QueueConfig{
			Type:          "nats",
			URL:           "nats://localhost:4222",
			JobSubject:    "sst.jobs",
			ResultSubject: "sst.results",
			Concurrency:   2,
			RedisStream:   "sst",
			RedisGroup:    "sst-group",
			KafkaGroupID:  "sst-worker",
		},
		Profiles: ProfilesConfig{
			Backend:  "memory",
			Prefix:   "/sst/profiles/",
			CacheTTL: 30 * time.Second,
			Etcd: EtcdConfig{
				Endpoints:   []string{"http://localhost:2379"},
				DialTimeout: 5 * time.Second,
			},
		},
		Archive: ArchiveConfig{
			Enabled:  true,
			Dir:      "./data/results",
			Compress: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}
