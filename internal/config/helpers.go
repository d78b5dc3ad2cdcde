package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
)

// EnsureDirectories ensures all required directories exist
func (c *Config) EnsureDirectories() error {
	if !c.Archive.Enabled {
		return nil
	}
	return os.MkdirAll(c.Archive.Dir, 0o755)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}

// HTTPAddress returns the HTTP listen address
func (c *ServerConfig) HTTPAddress() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.HTTPPort))
}

// GRPCAddress returns the gRPC listen address, empty when gRPC is disabled
func (c *ServerConfig) GRPCAddress() string {
	if c.GRPCPort == 0 {
		return ""
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.GRPCPort))
}

// ConsumerName returns the configured Redis consumer or one derived from the host
func (c *QueueConfig) ConsumerName() string {
	if c.RedisConsumer != "" {
		return c.RedisConsumer
	}
	host, err := os.Hostname()
	if err != nil {
		host = "local"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
