package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/phreeqprep/internal/application/speciation"
	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/phreeqprep/pkg/errors"
)

// Topics.
const (
	TopicSolverJobs       = "phreeqprep.solver.jobs"
	TopicSolverResults    = "phreeqprep.solver.results"
	TopicDeadLetter       = "phreeqprep.dead_letter"
	EventSolverJob        = "solver.job.submitted"
	EventSolverResult     = "solver.job.completed"
	EnvelopeSchemaVersion = "1"
)

// HeaderDatabase carries the database name of a job or result.
const HeaderDatabase = "database"

// EventEnvelope wraps every payload on the wire.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	SchemaVersion string          `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEventEnvelope marshals payload into a fresh envelope.
func NewEventEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode event payload")
	}
	return &EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: EnvelopeSchemaVersion,
		Payload:       raw,
	}, nil
}

// DecodePayload unmarshals the payload into target.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode event payload").WithDetail(e.EventType)
	}
	return nil
}

// DecodeEnvelope reads an envelope from a consumed message.
func DecodeEnvelope(msg *Message) (*EventEnvelope, error) {
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode event envelope")
	}
	return &env, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Solver jobs
// ─────────────────────────────────────────────────────────────────────────────

// JobPublisher publishes solver jobs.  It satisfies speciation.JobPublisher.
type JobPublisher struct {
	producer interface {
		Publish(ctx context.Context, msg *Message) error
	}
	topic  string
	source string
}

// NewJobPublisher publishes on topic, TopicSolverJobs when empty.
func NewJobPublisher(p *Producer, topic, source string) *JobPublisher {
	if topic == "" {
		topic = TopicSolverJobs
	}
	return &JobPublisher{producer: p, topic: topic, source: source}
}

// PublishJob sends job keyed by its ID.
func (j *JobPublisher) PublishJob(ctx context.Context, job *speciation.SolverJob) error {
	env, err := NewEventEnvelope(EventSolverJob, j.source, job)
	if err != nil {
		return err
	}
	value, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode event envelope")
	}
	return j.producer.Publish(ctx, &Message{
		Topic:     j.topic,
		Key:       []byte(job.ID),
		Value:     value,
		Headers:   map[string]string{HeaderDatabase: job.Database},
		Timestamp: job.CreatedAt,
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Solver results
// ─────────────────────────────────────────────────────────────────────────────

// SolverResult is what the engine reports for a job: its selected-output
// array with headings in the first row, or the failure it hit.
type SolverResult struct {
	JobID    string          `json:"job_id"`
	Database string          `json:"database"`
	Array    [][]interface{} `json:"array,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// ResultFunc receives a classified result table.
type ResultFunc func(ctx context.Context, jobID string, table *speciation.ResultTable) error

// ResultHandler turns result messages into classified tables.  Engine
// failures and malformed arrays are logged and skipped; only errors from fn
// are retried.
func ResultHandler(fn ResultFunc, logger logging.Logger) Handler {
	logger = logging.OrDefault(logger).Named("results")
	return func(ctx context.Context, msg *Message) error {
		env, err := DecodeEnvelope(msg)
		if err != nil {
			logger.Warn("dropping undecodable result", logging.Err(err), logging.Int64("offset", msg.Offset))
			return nil
		}
		var res SolverResult
		if err := env.DecodePayload(&res); err != nil {
			logger.Warn("dropping undecodable result", logging.Err(err), logging.String("event_id", env.EventID))
			return nil
		}
		if res.Error != "" {
			logger.Warn("solver job failed",
				logging.String("job_id", res.JobID),
				logging.Database(res.Database),
				logging.String("reason", res.Error))
			return nil
		}
		table, err := speciation.NewResultTable(res.Array)
		if err != nil {
			logger.Warn("dropping malformed result", logging.String("job_id", res.JobID), logging.Err(err))
			return nil
		}
		return fn(ctx, res.JobID, table)
	}
}

//Personal.AI order the ending
