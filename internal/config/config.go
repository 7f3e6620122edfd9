// Package config defines the configuration structures for PhreeqPrep.  No
// I/O or parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/phreeqprep/internal/infrastructure/cache/redis"
	"github.com/turtacn/phreeqprep/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/phreeqprep/internal/infrastructure/storage/minio"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig locates the chemistry databases.
type DatabaseConfig struct {
	// Dir holds the bundled "<name>.dat" files.
	Dir          string `mapstructure:"dir"`
	Default      string `mapstructure:"default"`
	KeepComments bool   `mapstructure:"keep_comments"`
	// Watch reloads a database when its file in Dir changes.
	Watch         bool          `mapstructure:"watch"`
	WatchDebounce time.Duration `mapstructure:"watch_debounce"`
}

// NormalizerConfig tunes input-column normalisation.
type NormalizerConfig struct {
	UncertaintySuffix string   `mapstructure:"uncertainty_suffix"`
	ExtraExemptKeys   []string `mapstructure:"extra_exempt_keys"`
	AllowRemoval      bool     `mapstructure:"allow_removal"`
}

// GeneratorConfig tunes input-deck formatting.
type GeneratorConfig struct {
	KeyWidth  int `mapstructure:"key_width"`
	IndexBase int `mapstructure:"index_base"`
	Precision int `mapstructure:"precision"`
}

// CacheConfig selects the SELECTED_OUTPUT cache backend.
type CacheConfig struct {
	Backend    string        `mapstructure:"backend"` // "none" | "memory" | "redis"
	MemorySize int           `mapstructure:"memory_size"`
	TTL        time.Duration `mapstructure:"ttl"`
	KeyPrefix  string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds solver-job messaging parameters.
type KafkaConfig struct {
	Enabled      bool                 `mapstructure:"enabled"`
	JobsTopic    string               `mapstructure:"jobs_topic"`
	ResultsTopic string               `mapstructure:"results_topic"`
	Producer     kafka.ProducerConfig `mapstructure:"producer"`
	Consumer     kafka.ConsumerConfig `mapstructure:"consumer"`
}

// MinIOConfig enables the object-storage database source.
type MinIOConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	minio.Config `mapstructure:",squash"`
}

// RedisConfig wraps the client settings.
type RedisConfig struct {
	redis.Config `mapstructure:",squash"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled                    bool   `mapstructure:"enabled"`
	Path                       string `mapstructure:"path"`
	prometheus.CollectorConfig `mapstructure:",squash"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.  Every infrastructure
// component and application service reads its settings from the relevant
// sub-struct.
type Config struct {
	Log        logging.LogConfig `mapstructure:"log"`
	Database   DatabaseConfig    `mapstructure:"database"`
	Normalizer NormalizerConfig  `mapstructure:"normalizer"`
	Generator  GeneratorConfig   `mapstructure:"generator"`
	Cache      CacheConfig       `mapstructure:"cache"`
	Server     ServerConfig      `mapstructure:"server"`
	Redis      RedisConfig       `mapstructure:"redis"`
	Kafka      KafkaConfig       `mapstructure:"kafka"`
	MinIO      MinIOConfig       `mapstructure:"minio"`
	Metrics    MetricsConfig     `mapstructure:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// Database
	if c.Database.Dir == "" {
		return fmt.Errorf("config: database.dir is required")
	}

	// Generator
	if c.Generator.KeyWidth < 1 {
		return fmt.Errorf("config: generator.key_width must be ≥ 1, got %d", c.Generator.KeyWidth)
	}
	if c.Generator.Precision < 1 || c.Generator.Precision > 17 {
		return fmt.Errorf("config: generator.precision %d is out of range [1, 17]", c.Generator.Precision)
	}
	if c.Generator.IndexBase < 0 {
		return fmt.Errorf("config: generator.index_base must be ≥ 0, got %d", c.Generator.IndexBase)
	}

	// Cache
	switch c.Cache.Backend {
	case "none", "memory":
	case "redis":
		if c.Redis.Addr == "" && len(c.Redis.ClusterAddrs) == 0 && len(c.Redis.SentinelAddrs) == 0 {
			return fmt.Errorf("config: cache.backend is redis but redis.addr is empty")
		}
	default:
		return fmt.Errorf("config: cache.backend %q is invalid; expected none|memory|redis", c.Cache.Backend)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	// Kafka
	if c.Kafka.Enabled {
		if len(c.Kafka.Producer.Brokers) == 0 {
			return fmt.Errorf("config: kafka.producer.brokers must contain at least one broker address")
		}
		if c.Kafka.JobsTopic == "" {
			return fmt.Errorf("config: kafka.jobs_topic is required")
		}
	}

	// MinIO
	if c.MinIO.Enabled && c.MinIO.Endpoint == "" {
		return fmt.Errorf("config: minio.endpoint is required when minio is enabled")
	}

	// Metrics
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return fmt.Errorf("config: metrics.namespace is required when metrics are enabled")
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

//Personal.AI order the ending
