// Command worker consumes solver results from Kafka, classifies their
// columns and records a summary per job.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"

	"github.com/turtacn/phreeqprep/internal/bootstrap"
	"github.com/turtacn/phreeqprep/internal/config"
	"github.com/turtacn/phreeqprep/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
	apihttp "github.com/turtacn/phreeqprep/internal/interfaces/http"
	"github.com/turtacn/phreeqprep/internal/interfaces/http/handlers"
)

var version = "dev"

const defaultHealthAddr = ":8081"

func main() {
	configPath := flag.String("config", "", "path to configuration file (environment only when empty)")
	healthAddr := flag.String("health-addr", defaultHealthAddr, "address of the probe and metrics listener")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, *healthAddr, logger); err != nil {
		logger.Error("worker failed", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, healthAddr string, logger logging.Logger) error {
	if !cfg.Kafka.Enabled {
		return fmt.Errorf("kafka.enabled must be set for the result worker")
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{Metrics: true, Source: "phreeqprep-worker"})
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	var rdb goredis.UniversalClient
	if rt.Redis != nil {
		rdb = rt.Redis.Underlying()
	}
	sink := newResultSink(rdb, cfg.Cache.KeyPrefix, cfg.Cache.TTL, logger)

	consumer, err := kafka.NewConsumer(cfg.Kafka.Consumer, kafka.ResultHandler(sink.Handle, logger), logger)
	if err != nil {
		return err
	}
	defer func() { _ = consumer.Close() }()
	if err := consumer.Start(ctx); err != nil {
		return err
	}

	checks := []handlers.HealthChecker{
		handlers.NewCheck("consumer", func(context.Context) error {
			if s := consumer.Stats(); s.Failed > 0 && s.Processed == 0 {
				return fmt.Errorf("%d messages failed, none processed", s.Failed)
			}
			return nil
		}),
	}
	if rt.Redis != nil {
		checks = append(checks, handlers.NewCheck("redis", rt.Redis.Ping))
	}
	routerCfg := apihttp.RouterConfig{HealthHandler: handlers.NewHealthHandler(version, checks...)}
	if rt.Collector != nil {
		routerCfg.MetricsHandler = rt.Collector.Handler()
		routerCfg.MetricsPath = cfg.Metrics.Path
	}
	health := apihttp.NewServer(apihttp.ServerOptions{Addr: healthAddr}, apihttp.NewRouter(routerCfg), logger)

	errCh := make(chan error, 1)
	go func() { errCh <- health.Start() }()

	logger.Info("phreeqprep worker started",
		logging.String("version", version),
		logging.String("topic", cfg.Kafka.Consumer.Topic),
		logging.String("group", cfg.Kafka.Consumer.GroupID))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	stats := consumer.Stats()
	logger.Info("worker stopping",
		logging.Int64("processed", stats.Processed),
		logging.Int64("failed", stats.Failed),
		logging.Int64("dead_lettered", stats.DeadLettered))
	return health.Shutdown(context.Background())
}

//Personal.AI order the ending
