package main

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/turtacn/phreeqprep/internal/application/speciation"
	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/phreeqprep/pkg/errors"
)

var measureOrder = []speciation.Measure{
	speciation.MeasureTotal,
	speciation.MeasureMolality,
	speciation.MeasureLogActivity,
	speciation.MeasureLogSaturation,
	speciation.MeasureGeneral,
}

// resultSummary is what the worker records per finished job.
type resultSummary struct {
	JobID      string                          `json:"job_id"`
	Rows       int                             `json:"rows"`
	Measures   map[speciation.Measure][]string `json:"measures"`
	ReceivedAt time.Time                       `json:"received_at"`
}

func summarize(jobID string, t *speciation.ResultTable, now time.Time) resultSummary {
	sum := resultSummary{JobID: jobID, Rows: len(t.Rows), Measures: map[speciation.Measure][]string{}, ReceivedAt: now}
	for _, m := range measureOrder {
		if names := t.Names(m); len(names) > 0 {
			sum.Measures[m] = names
		}
	}
	return sum
}

// resultSink logs every classified result and, with Redis configured,
// stores its summary under "<prefix>result:<job id>".
type resultSink struct {
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
	logger logging.Logger
	now    func() time.Time
}

func newResultSink(rdb goredis.UniversalClient, prefix string, ttl time.Duration, logger logging.Logger) *resultSink {
	return &resultSink{rdb: rdb, prefix: prefix, ttl: ttl, logger: logging.OrDefault(logger).Named("results"), now: time.Now}
}

func (s *resultSink) key(jobID string) string { return s.prefix + "result:" + jobID }

// Handle is a kafka.ResultFunc.  Store failures are returned so the consumer
// retries the message.
func (s *resultSink) Handle(ctx context.Context, jobID string, table *speciation.ResultTable) error {
	sum := summarize(jobID, table, s.now().UTC())
	s.logger.Info("solver result received",
		logging.String("job_id", jobID),
		logging.Int("rows", sum.Rows),
		logging.Strings("saturation_indices", sum.Measures[speciation.MeasureLogSaturation]))

	if s.rdb == nil {
		return nil
	}
	b, err := json.Marshal(sum)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode result summary")
	}
	if err := s.rdb.Set(ctx, s.key(jobID), b, s.ttl).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to store result summary").WithDetail(jobID)
	}
	return nil
}

//Personal.AI order the ending
