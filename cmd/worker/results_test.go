package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/phreeqprep/internal/application/speciation"
	"github.com/turtacn/phreeqprep/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/phreeqprep/pkg/errors"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func resultTable(t *testing.T) *speciation.ResultTable {
	t.Helper()
	table, err := speciation.NewResultTable([][]interface{}{
		{"pH", "Ca(mol/kgw)", "si_Calcite"},
		{7.1, 0.001, -0.3},
	})
	require.NoError(t, err)
	return table
}

func newSink(t *testing.T) (*resultSink, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	sink := newResultSink(rdb, "pp:", time.Hour, nil)
	sink.now = func() time.Time { return fixedNow }
	return sink, mr
}

func TestSummarize(t *testing.T) {
	sum := summarize("job-1", resultTable(t), fixedNow)
	assert.Equal(t, 1, sum.Rows)
	assert.Equal(t, []string{"Ca"}, sum.Measures[speciation.MeasureTotal])
	assert.Equal(t, []string{"Calcite"}, sum.Measures[speciation.MeasureLogSaturation])
	assert.NotContains(t, sum.Measures, speciation.MeasureMolality)
}

func TestResultSink_StoresSummary(t *testing.T) {
	sink, mr := newSink(t)
	require.NoError(t, sink.Handle(context.Background(), "job-1", resultTable(t)))

	raw, err := mr.Get("pp:result:job-1")
	require.NoError(t, err)
	var got resultSummary
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, "job-1", got.JobID)
	assert.Equal(t, fixedNow, got.ReceivedAt)
	assert.Equal(t, time.Hour, mr.TTL("pp:result:job-1"))
}

func TestResultSink_StoreFailureIsRetried(t *testing.T) {
	sink, mr := newSink(t)
	mr.SetError("READONLY")

	err := sink.Handle(context.Background(), "job-2", resultTable(t))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCacheError))
}

func TestResultSink_WithoutRedis(t *testing.T) {
	sink := newResultSink(nil, "", 0, nil)
	assert.NoError(t, sink.Handle(context.Background(), "job-3", resultTable(t)))
}

func TestResultSink_ThroughResultHandler(t *testing.T) {
	sink, mr := newSink(t)
	env, err := kafka.NewEventEnvelope(kafka.EventSolverResult, "engine", kafka.SolverResult{
		JobID:    "job-4",
		Database: "phreeqc",
		Array:    [][]interface{}{{"pH", "la_Ca+2"}, {7.0, -3.2}},
	})
	require.NoError(t, err)
	value, err := json.Marshal(env)
	require.NoError(t, err)

	handle := kafka.ResultHandler(sink.Handle, nil)
	require.NoError(t, handle(context.Background(), &kafka.Message{Topic: kafka.TopicSolverResults, Value: value}))
	assert.True(t, mr.Exists("pp:result:job-4"))
}

//Personal.AI order the ending
