// Package bootstrap assembles the configured infrastructure into a running
// speciation service.  The CLI, the API server and the result worker share
// it so that every entry point resolves databases and caches blocks the same
// way.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/turtacn/phreeqprep/internal/application/speciation"
	"github.com/turtacn/phreeqprep/internal/config"
	"github.com/turtacn/phreeqprep/internal/domain/phreeqc"
	"github.com/turtacn/phreeqprep/internal/infrastructure/cache/redis"
	"github.com/turtacn/phreeqprep/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/phreeqprep/internal/infrastructure/storage/localfs"
	"github.com/turtacn/phreeqprep/internal/infrastructure/storage/minio"
)

// Options selects the optional parts of a Runtime.
type Options struct {
	// Metrics registers Prometheus collectors when cfg.Metrics.Enabled.
	Metrics bool
	// Publisher connects the Kafka producer when cfg.Kafka.Enabled.
	Publisher bool
	// Watch starts the database directory watcher when cfg.Database.Watch.
	Watch bool
	// Source names the service in event envelopes.
	Source string
	// NamesOnly stops the service from resolving databases as file paths.
	NamesOnly bool
}

// Runtime holds the wired components.  Fields for disabled parts are nil.
type Runtime struct {
	Config   *config.Config
	Logger   logging.Logger
	Registry *phreeqc.Registry
	Service  *speciation.Service

	Collector prometheus.MetricsCollector
	Metrics   *prometheus.SpeciationMetrics

	Redis       *redis.Client
	RedisCache  *redis.OutputCache
	MemoryCache *speciation.MemoryCache
	Producer    *kafka.Producer
	Objects     *minio.ObjectSource
	Watcher     *localfs.Watcher

	closers []func() error
}

// New builds a Runtime from cfg.  On error every component already started
// is closed again.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger, opts Options) (_ *Runtime, err error) {
	logger = logging.OrDefault(logger)
	rt := &Runtime{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = rt.Close()
		}
	}()

	if opts.Metrics && cfg.Metrics.Enabled {
		if rt.Collector, err = prometheus.NewMetricsCollector(cfg.Metrics.CollectorConfig, logger); err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		rt.Metrics = prometheus.NewSpeciationMetrics(rt.Collector)
	}

	regOpts := phreeqc.RegistryOptions{KeepComments: cfg.Database.KeepComments, Logger: logger}
	if rt.Metrics != nil {
		regOpts.Observer = rt.Metrics
	}
	sources := []phreeqc.Source{phreeqc.NewDirSource(cfg.Database.Dir)}
	if cfg.MinIO.Enabled {
		if rt.Objects, err = minio.NewClient(ctx, cfg.MinIO.Config, logger); err != nil {
			return nil, fmt.Errorf("minio: %w", err)
		}
		sources = append(sources, rt.Objects)
	}
	rt.Registry = phreeqc.NewRegistry(regOpts, sources...)

	svcOpts := speciation.ServiceOptions{
		Normalizer: speciation.NormalizerOptions{
			UncertaintySuffix: cfg.Normalizer.UncertaintySuffix,
		},
		Generator: speciation.GeneratorOptions{
			KeyWidth:  cfg.Generator.KeyWidth,
			Precision: cfg.Generator.Precision,
			IndexBase: &cfg.Generator.IndexBase,
		},
		Logger:    logger,
		NamesOnly: opts.NamesOnly,
	}
	if len(cfg.Normalizer.ExtraExemptKeys) > 0 {
		svcOpts.Normalizer.ExemptKeys = append(append([]string(nil), speciation.DefaultExemptKeys...), cfg.Normalizer.ExtraExemptKeys...)
	}
	if rt.Metrics != nil {
		svcOpts.Recorder = rt.Metrics
	}

	if err = rt.initCache(ctx, &svcOpts); err != nil {
		return nil, err
	}

	if opts.Publisher && cfg.Kafka.Enabled {
		if rt.Producer, err = kafka.NewProducer(cfg.Kafka.Producer, logger); err != nil {
			return nil, fmt.Errorf("kafka: %w", err)
		}
		rt.closers = append(rt.closers, rt.Producer.Close)
		svcOpts.Publisher = kafka.NewJobPublisher(rt.Producer, cfg.Kafka.JobsTopic, opts.Source)
	}

	rt.Service = speciation.NewService(rt.Registry, svcOpts)

	if opts.Watch && cfg.Database.Watch {
		if err = rt.startWatcher(ctx); err != nil {
			return nil, err
		}
	}

	logger.Info("runtime ready",
		logging.String("database_dir", cfg.Database.Dir),
		logging.String("cache", cfg.Cache.Backend),
		logging.Bool("metrics", rt.Metrics != nil),
		logging.Bool("publisher", rt.Producer != nil),
		logging.Bool("minio", rt.Objects != nil),
		logging.Bool("watch", rt.Watcher != nil))
	return rt, nil
}

func (rt *Runtime) initCache(ctx context.Context, svcOpts *speciation.ServiceOptions) error {
	cfg := rt.Config
	switch cfg.Cache.Backend {
	case "memory":
		mc, err := speciation.NewMemoryCache(cfg.Cache.MemorySize)
		if err != nil {
			return err
		}
		rt.MemoryCache = mc
		svcOpts.Generator.Cache = mc
	case "redis":
		client, err := redis.NewClient(ctx, cfg.Redis.Config, rt.Logger)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		rt.Redis = client
		rt.closers = append(rt.closers, client.Close)

		opts := []redis.CacheOption{redis.WithTTL(cfg.Cache.TTL)}
		if cfg.Cache.KeyPrefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Cache.KeyPrefix))
		}
		rt.RedisCache = redis.NewOutputCache(client, rt.Logger, opts...)
		svcOpts.Generator.Cache = rt.RedisCache
	}
	return nil
}

// startWatcher drops the registry entry and every cached block of a changed
// database.
func (rt *Runtime) startWatcher(ctx context.Context) error {
	handlers := []localfs.InvalidateFunc{localfs.RegistryInvalidator(rt.Registry)}
	switch {
	case rt.RedisCache != nil:
		handlers = append(handlers, func(ctx context.Context, name string) {
			if _, err := rt.RedisCache.InvalidateDatabase(ctx, name); err != nil {
				rt.Logger.Warn("failed to invalidate cached blocks", logging.Database(name), logging.Err(err))
			}
		})
	case rt.MemoryCache != nil:
		// Memory keys are not indexed by database.
		handlers = append(handlers, func(context.Context, string) { rt.MemoryCache.Purge() })
	}

	w, err := localfs.NewWatcher(rt.Config.Database.Dir, rt.Config.Database.WatchDebounce, rt.Logger, handlers...)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		_ = w.Stop()
		return err
	}
	rt.Watcher = w
	rt.closers = append(rt.closers, w.Stop)
	return nil
}

// Close releases every component in reverse start order and returns the
// first error.  A nil Runtime is a no-op.
func (rt *Runtime) Close() error {
	if rt == nil {
		return nil
	}
	var first error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	rt.closers = nil
	return first
}

//Personal.AI order the ending
