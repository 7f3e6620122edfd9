// Command apiserver serves the database queries and deck generation over
// HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/phreeqprep/internal/bootstrap"
	"github.com/turtacn/phreeqprep/internal/config"
	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
	apihttp "github.com/turtacn/phreeqprep/internal/interfaces/http"
	"github.com/turtacn/phreeqprep/internal/interfaces/http/handlers"
	"github.com/turtacn/phreeqprep/internal/interfaces/http/middleware"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (environment only when empty)")
	port := flag.Int("port", 0, "HTTP port (overrides server.port)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logging.SetDefault(logger)

	if err := run(cfg, *configPath, logger); err != nil {
		logger.Error("api server failed", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, configPath string, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{
		Metrics:   true,
		Publisher: true,
		Watch:     true,
		Source:    "phreeqprep-apiserver",
		NamesOnly: true,
	})
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	if configPath != "" {
		config.Watch(configPath, func(*config.Config) {
			logger.Warn("configuration file changed; restart to apply", logging.String("path", configPath))
		}, func(err error) {
			logger.Error("configuration reload failed", logging.Err(err))
		})
	}

	routerCfg := apihttp.RouterConfig{
		HealthHandler:     handlers.NewHealthHandler(version, healthCheckers(rt)...),
		DatabaseHandler:   handlers.NewDatabaseHandler(rt.Registry, logger),
		SpeciationHandler: handlers.NewSpeciationHandler(rt.Service, logger),
		ChemistryHandler:  handlers.NewChemistryHandler(),
		Logger:            logger,
		Logging:           middleware.DefaultLoggingConfig(),
		MaxBodySize:       cfg.Server.MaxBodySize,
		Debug:             cfg.Server.Mode == "debug",
	}
	if rt.Metrics != nil {
		routerCfg.Recorder = rt.Metrics
		routerCfg.MetricsHandler = rt.Collector.Handler()
		routerCfg.MetricsPath = cfg.Metrics.Path
	}

	server := apihttp.NewServer(apihttp.ServerOptions{
		Addr:            fmt.Sprintf(":%d", cfg.Server.Port),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, apihttp.NewRouter(routerCfg), logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	logger.Info("phreeqprep api server started",
		logging.String("version", version),
		logging.Int("port", cfg.Server.Port),
		logging.String("database_dir", cfg.Database.Dir))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	return server.Shutdown(context.Background())
}

//Personal.AI order the ending
