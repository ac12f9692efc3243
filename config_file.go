package plugbot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the process-wide host configuration, loaded from plugbot.yaml.
// It is injected once at bootstrap and treated as read-mostly; nothing in
// the host rebinds it after New returns.
type Config struct {
	// Storage selects and configures the instance record backend.
	Storage *StorageConfig `yaml:"storage,omitempty"`

	// Logging configures the default logger built when none is injected.
	Logging *LoggingConfig `yaml:"logging,omitempty"`

	// Lifecycle bounds bulk start/stop operations.
	Lifecycle *LifecycleConfig `yaml:"lifecycle,omitempty"`
}

// StorageConfig selects the record store backend.
type StorageConfig struct {
	// Backend is "memory", "redis", or "etcd". Default: "memory".
	Backend string `yaml:"backend,omitempty"`

	// RedisURL is the Redis connection string (redis backend).
	RedisURL string `yaml:"redis_url,omitempty"`

	// EtcdEndpoints is the etcd cluster endpoint list (etcd backend).
	EtcdEndpoints []string `yaml:"etcd_endpoints,omitempty"`

	// Prefix is the key prefix/namespace shared by both backends.
	// Default: "plugbot".
	Prefix string `yaml:"prefix,omitempty"`
}

// GetBackend returns the configured backend or the default value.
func (s *StorageConfig) GetBackend() string {
	if s == nil || s.Backend == "" {
		return "memory"
	}
	return s.Backend
}

// GetPrefix returns the key prefix or the default value.
func (s *StorageConfig) GetPrefix() string {
	if s == nil || s.Prefix == "" {
		return "plugbot"
	}
	return s.Prefix
}

// LoggingConfig configures the host's default logger.
type LoggingConfig struct {
	// Level is "debug", "info", "warn", or "error". Default: "info".
	Level string `yaml:"level,omitempty"`

	// Format is "json" or "text". Default: "json".
	Format string `yaml:"format,omitempty"`
}

// GetLevel returns the configured level or the default value.
func (l *LoggingConfig) GetLevel() string {
	if l == nil || l.Level == "" {
		return "info"
	}
	return l.Level
}

// GetFormat returns the configured format or the default value.
func (l *LoggingConfig) GetFormat() string {
	if l == nil || l.Format == "" {
		return "json"
	}
	return l.Format
}

// LifecycleConfig bounds bulk lifecycle operations.
type LifecycleConfig struct {
	// StartTimeout bounds each instance start during StartAll.
	// Format: Go duration string (e.g., "30s"). Default: 30s.
	StartTimeout string `yaml:"start_timeout,omitempty"`

	// StopTimeout bounds each instance stop during StopAll and Shutdown.
	// Format: Go duration string (e.g., "15s"). Default: 15s.
	StopTimeout string `yaml:"stop_timeout,omitempty"`
}

// GetStartTimeout parses the start timeout and returns a duration.
// Returns the default value if not set or invalid.
func (l *LifecycleConfig) GetStartTimeout() time.Duration {
	if l == nil || l.StartTimeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(l.StartTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetStopTimeout parses the stop timeout and returns a duration.
// Returns the default value if not set or invalid.
func (l *LifecycleConfig) GetStopTimeout() time.Duration {
	if l == nil || l.StopTimeout == "" {
		return 15 * time.Second
	}
	d, err := time.ParseDuration(l.StopTimeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// LoadConfig reads and parses a plugbot.yaml file from the given path.
// If the path is a directory, it looks for plugbot.yaml or plugbot.yml in
// that directory.
func LoadConfig(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	var configPath string
	if info.IsDir() {
		yamlPath := filepath.Join(path, "plugbot.yaml")
		if _, err := os.Stat(yamlPath); err == nil {
			configPath = yamlPath
		} else {
			ymlPath := filepath.Join(path, "plugbot.yml")
			if _, err := os.Stat(ymlPath); err == nil {
				configPath = ymlPath
			} else {
				return nil, fmt.Errorf("no plugbot.yaml or plugbot.yml found in %s", path)
			}
		}
	} else {
		configPath = path
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &config, nil
}
