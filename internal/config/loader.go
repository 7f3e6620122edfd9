package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "PHREEQPREP"

// envKeys lists the keys that must be bound explicitly: viper's
// AutomaticEnv only resolves keys it already knows about, and Unmarshal
// asks only for keys present in the file or the defaults.
var envKeys = []string{
	"log.level", "log.format",
	"database.dir", "database.default", "database.keep_comments", "database.watch",
	"normalizer.uncertainty_suffix", "normalizer.allow_removal",
	"generator.key_width", "generator.index_base", "generator.precision",
	"cache.backend", "cache.memory_size", "cache.ttl", "cache.key_prefix",
	"server.port", "server.mode",
	"redis.addr", "redis.password", "redis.db",
	"kafka.enabled", "kafka.jobs_topic", "kafka.results_topic", "kafka.producer.brokers",
	"minio.enabled", "minio.endpoint", "minio.access_key_id", "minio.secret_access_key", "minio.bucket", "minio.prefix",
	"metrics.enabled", "metrics.namespace",
}

// newViper builds a pre-configured Viper instance: YAML file type,
// PHREEQPREP_ env prefix, automatic env binding, and a key replacer mapping
// "." → "_" so that "database.dir" resolves to "PHREEQPREP_DATABASE_DIR".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}

	// Defaults whose zero value is itself meaningful.
	v.SetDefault("generator.index_base", DefaultIndexBase)
	v.SetDefault("metrics.enabled", true)
	return v
}

// Load reads the YAML file at configPath, merges PHREEQPREP_* environment
// overrides, applies defaults and validates the result.  An empty path
// means environment and defaults only.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return LoadFromEnv()
	}
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from PHREEQPREP_* environment
// variables, with no config file required.
//
//	PHREEQPREP_<SECTION>_<FIELD>   e.g.  PHREEQPREP_DATABASE_DIR
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch invokes onChange with the re-parsed Config whenever configPath
// changes on disk.  Changes that fail to parse or validate are passed to
// onError (if non-nil) and onChange is not called.
func Watch(configPath string, onChange func(*Config), onError func(error)) {
	v := newViper()
	v.SetConfigFile(configPath)
	_ = v.ReadInConfig()

	v.OnConfigChange(func(fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}

// MustLoad is Load that panics on error, for use in main().
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

//Personal.AI order the ending
