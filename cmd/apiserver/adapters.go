package main

import (
	"context"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/turtacn/phreeqprep/internal/bootstrap"
	"github.com/turtacn/phreeqprep/internal/interfaces/http/handlers"
)

// healthCheckers probes the components the runtime connected.
func healthCheckers(rt *bootstrap.Runtime) []handlers.HealthChecker {
	checks := []handlers.HealthChecker{
		handlers.NewCheck("databases", func(ctx context.Context) error {
			names, err := rt.Registry.Names(ctx)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				return fmt.Errorf("no databases in %s", rt.Config.Database.Dir)
			}
			return nil
		}),
	}
	if rt.Redis != nil {
		checks = append(checks, handlers.NewCheck("redis", rt.Redis.Ping))
	}
	if rt.Objects != nil {
		checks = append(checks, handlers.NewCheck("minio", rt.Objects.Ping))
	}
	if rt.Producer != nil {
		brokers := rt.Config.Kafka.Producer.Brokers
		checks = append(checks, handlers.NewCheck("kafka", func(ctx context.Context) error {
			return pingBroker(ctx, brokers)
		}))
	}
	return checks
}

// pingBroker succeeds once any broker accepts a connection.
func pingBroker(ctx context.Context, brokers []string) error {
	var last error
	for _, b := range brokers {
		conn, err := kafkago.DialContext(ctx, "tcp", b)
		if err == nil {
			return conn.Close()
		}
		last = err
	}
	if last == nil {
		return fmt.Errorf("no kafka brokers configured")
	}
	return last
}

//Personal.AI order the ending
