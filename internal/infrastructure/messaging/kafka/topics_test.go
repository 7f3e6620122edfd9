package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/phreeqprep/internal/application/speciation"
	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/phreeqprep/pkg/errors"
)

var _ speciation.JobPublisher = (*JobPublisher)(nil)

func TestEventEnvelope_RoundTrip(t *testing.T) {
	env, err := NewEventEnvelope(EventSolverJob, "test", map[string]int{"n": 2})
	require.NoError(t, err)
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, EnvelopeSchemaVersion, env.SchemaVersion)

	var got map[string]int
	require.NoError(t, env.DecodePayload(&got))
	assert.Equal(t, 2, got["n"])

	_, err = DecodeEnvelope(&Message{Value: []byte("not json")})
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))
}

func TestJobPublisher_PublishJob(t *testing.T) {
	w := &mockKafkaWriter{}
	pub := NewJobPublisher(newProducer(w, 0, logging.NewNopLogger()), "", "apiserver")

	job := &speciation.SolverJob{
		ID:        "6f1c2a9e-1d0b-4f7e-9a55-0d5e3f1b7c11",
		Database:  "pitzer",
		Input:     "SOLUTION 1\nEND\n",
		Targets:   []string{"Ca"},
		Solutions: 1,
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, pub.PublishJob(context.Background(), job))
	require.Len(t, w.written, 1)

	m := w.written[0]
	assert.Equal(t, TopicSolverJobs, m.Topic)
	assert.Equal(t, job.ID, string(m.Key))
	assert.Equal(t, job.CreatedAt, m.Time)

	var env EventEnvelope
	require.NoError(t, json.Unmarshal(m.Value, &env))
	assert.Equal(t, EventSolverJob, env.EventType)
	assert.Equal(t, "apiserver", env.Source)
	var decoded speciation.SolverJob
	require.NoError(t, env.DecodePayload(&decoded))
	assert.Equal(t, job.Input, decoded.Input)
}

func resultMessage(t *testing.T, res SolverResult) *Message {
	t.Helper()
	env, err := NewEventEnvelope(EventSolverResult, "engine", res)
	require.NoError(t, err)
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	return &Message{Topic: TopicSolverResults, Value: raw}
}

func TestResultHandler(t *testing.T) {
	var (
		gotJob   string
		gotTable *speciation.ResultTable
	)
	h := ResultHandler(func(_ context.Context, jobID string, tbl *speciation.ResultTable) error {
		gotJob, gotTable = jobID, tbl
		return nil
	}, logging.NewNopLogger())

	msg := resultMessage(t, SolverResult{
		JobID:    "job-1",
		Database: "pitzer",
		Array: [][]interface{}{
			{"pH", "Ca(mol/kgw)", "si_Calcite"},
			{8.1, 0.001, -999.999},
		},
	})
	require.NoError(t, h(context.Background(), msg))
	assert.Equal(t, "job-1", gotJob)
	require.NotNil(t, gotTable)
	assert.Equal(t, []string{"Ca"}, gotTable.Names(speciation.MeasureTotal))
	si, ok := gotTable.Series(speciation.MeasureLogSaturation, "Calcite")
	require.True(t, ok)
	assert.True(t, si[0].IsMissing())
}

func TestResultHandler_SkipsBadMessages(t *testing.T) {
	called := false
	h := ResultHandler(func(context.Context, string, *speciation.ResultTable) error {
		called = true
		return nil
	}, logging.NewNopLogger())
	ctx := context.Background()

	assert.NoError(t, h(ctx, &Message{Value: []byte("{")}))
	assert.NoError(t, h(ctx, resultMessage(t, SolverResult{JobID: "j", Error: "convergence failure"})))
	assert.NoError(t, h(ctx, resultMessage(t, SolverResult{JobID: "j"})))
	assert.False(t, called)
}

func TestResultHandler_PropagatesSinkErrors(t *testing.T) {
	h := ResultHandler(func(context.Context, string, *speciation.ResultTable) error {
		return fmt.Errorf("sink down")
	}, logging.NewNopLogger())
	msg := resultMessage(t, SolverResult{JobID: "j", Array: [][]interface{}{{"pH"}, {7.0}}})
	assert.Error(t, h(context.Background(), msg))
}

//Personal.AI order the ending
