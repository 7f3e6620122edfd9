package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultDatabaseDir  = "databases"
	DefaultDatabaseName = "phreeqc"

	DefaultUncertaintySuffix = "_std"
	DefaultKeyWidth          = 20
	DefaultPrecision         = 8
	DefaultIndexBase         = 1

	DefaultCacheBackend = "memory"
	DefaultCacheSize    = 256

	DefaultRedisAddr = "localhost:6379"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "phreeqprep-workers"
	DefaultJobsTopic    = "phreeqprep.solver.jobs"
	DefaultResultsTopic = "phreeqprep.solver.results"

	DefaultMinIOBucket = "phreeqprep-databases"

	DefaultMetricsNamespace = "phreeqprep"
	DefaultMetricsPath      = "/metrics"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the default.
// Fields that have already been set (non-zero values) are left unchanged so
// that explicit configuration always wins.
//
// Booleans and generator.index_base cannot distinguish "unset" from an
// explicit zero; the loader seeds their defaults into viper instead.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = 8 << 20
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Dir == "" {
		cfg.Database.Dir = DefaultDatabaseDir
	}
	if cfg.Database.Default == "" {
		cfg.Database.Default = DefaultDatabaseName
	}
	if cfg.Database.WatchDebounce == 0 {
		cfg.Database.WatchDebounce = 250 * time.Millisecond
	}

	// ── Normalizer / Generator ───────────────────────────────────────────────
	if cfg.Normalizer.UncertaintySuffix == "" {
		cfg.Normalizer.UncertaintySuffix = DefaultUncertaintySuffix
	}
	if cfg.Generator.KeyWidth == 0 {
		cfg.Generator.KeyWidth = DefaultKeyWidth
	}
	if cfg.Generator.Precision == 0 {
		cfg.Generator.Precision = DefaultPrecision
	}

	// ── Cache / Redis ─────────────────────────────────────────────────────────
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultCacheBackend
	}
	if cfg.Cache.MemorySize == 0 {
		cfg.Cache.MemorySize = DefaultCacheSize
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = time.Hour
	}
	if cfg.Cache.Backend == "redis" && cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Producer.Brokers) == 0 {
		cfg.Kafka.Producer.Brokers = []string{DefaultKafkaBroker}
	}
	if len(cfg.Kafka.Consumer.Brokers) == 0 {
		cfg.Kafka.Consumer.Brokers = cfg.Kafka.Producer.Brokers
	}
	if cfg.Kafka.Consumer.GroupID == "" {
		cfg.Kafka.Consumer.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.JobsTopic == "" {
		cfg.Kafka.JobsTopic = DefaultJobsTopic
	}
	if cfg.Kafka.ResultsTopic == "" {
		cfg.Kafka.ResultsTopic = DefaultResultsTopic
	}
	if cfg.Kafka.Consumer.Topic == "" {
		cfg.Kafka.Consumer.Topic = cfg.Kafka.ResultsTopic
	}
	if cfg.Kafka.Consumer.StartOffset == "" {
		cfg.Kafka.Consumer.StartOffset = "earliest"
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

//Personal.AI order the ending
