package client_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/phreeqprep/internal/application/speciation"
	"github.com/turtacn/phreeqprep/internal/domain/phreeqc"
	apihttp "github.com/turtacn/phreeqprep/internal/interfaces/http"
	"github.com/turtacn/phreeqprep/internal/interfaces/http/handlers"
	"github.com/turtacn/phreeqprep/pkg/client"
	"github.com/turtacn/phreeqprep/pkg/errors"
	"github.com/turtacn/phreeqprep/pkg/types/solution"
)

type jobSink struct {
	mu   sync.Mutex
	jobs []*speciation.SolverJob
}

func (s *jobSink) PublishJob(_ context.Context, job *speciation.SolverJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	return nil
}

func newServer(t *testing.T) (*client.Client, *jobSink) {
	t.Helper()
	registry := phreeqc.NewRegistry(phreeqc.RegistryOptions{}, phreeqc.NewDirSource("testdata"))
	sink := &jobSink{}
	service := speciation.NewService(registry, speciation.ServiceOptions{Publisher: sink})
	srv := httptest.NewServer(apihttp.NewRouter(apihttp.RouterConfig{
		DatabaseHandler:   handlers.NewDatabaseHandler(registry, nil),
		SpeciationHandler: handlers.NewSpeciationHandler(service, nil),
		ChemistryHandler:  handlers.NewChemistryHandler(),
	}))
	t.Cleanup(srv.Close)

	c, err := client.NewClient(srv.URL, client.WithRetryMax(0))
	require.NoError(t, err)
	return c, sink
}

func waters() *solution.Table {
	t := solution.NewTable()
	t.AddRow("w1", []string{"temperature", "Ca+2", "Mg"}, map[string]solution.Value{
		"temperature": solution.Number(25),
		"Ca+2":        solution.Number(1e-3),
		"Mg":          solution.Number(5e-4),
	})
	return t
}

func TestClient_DatabaseQueries(t *testing.T) {
	c, _ := newServer(t)
	ctx := context.Background()
	dbs := c.Databases()

	names, err := dbs.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"minimal"}, names)

	sections, err := dbs.Sections(ctx, "minimal")
	require.NoError(t, err)
	assert.Contains(t, sections, "PHASES")

	species, err := dbs.Species(ctx, "minimal", []string{"Ca", "Mg"}, client.SpeciesQuery{Strict: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ca+2", "Mg+2", "CaCO3", "MgCO3"}, species.Items)

	phases, err := dbs.Phases(ctx, "minimal", []string{"Ca"}, true)
	require.NoError(t, err)
	require.Len(t, phases.Phases, 2)
	assert.Equal(t, "Calcite", phases.Phases[0].Name)

	master, err := dbs.Master(ctx, "minimal", []string{"Ca", "S"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ca", "S(6)"}, master)

	valid, err := dbs.Valid(ctx, "minimal")
	require.NoError(t, err)
	assert.NotEmpty(t, valid)

	n, err := dbs.Invalidate(ctx, "minimal")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestClient_DatabaseErrors(t *testing.T) {
	c, _ := newServer(t)
	_, err := c.Databases().Section(context.Background(), "minimal", "RATES")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Is(errors.ErrCodeUnknownSection))

	_, err = c.Databases().Sections(context.Background(), "nope")
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Is(errors.ErrCodeDatabaseInvalidName))
}

func TestClient_Speciation(t *testing.T) {
	c, sink := newServer(t)
	ctx := context.Background()
	sp := c.Speciation()

	checked, err := sp.Check(ctx, "minimal", waters(), nil, true)
	require.NoError(t, err)
	require.Len(t, checked.Report.Substitutions, 1)
	assert.Equal(t, "Ca", checked.Report.Substitutions[0].To)
	assert.True(t, checked.Table.HasColumn("Ca"))

	unknown := solution.NewTable()
	unknown.AddRow("w1", []string{"Xy"}, map[string]solution.Value{"Xy": solution.Number(1)})
	_, err = sp.Check(ctx, "minimal", unknown, nil, false)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Is(errors.ErrCodeInvalidColumn))

	deck, err := sp.Input(ctx, "minimal", waters(), nil, &client.InputOptions{
		UseDefaultOutput: client.Bool(true),
		Phases:           []client.PhaseSpec{{Name: "Calcite"}},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(deck.Input, "SOLUTION 1\n"))
	assert.Contains(t, deck.Input, "EQUILIBRIUM_PHASES 1\n")
	assert.Equal(t, 1, deck.Solutions)

	job, err := sp.Submit(ctx, "minimal", waters(), nil, nil)
	require.NoError(t, err)
	require.Len(t, sink.jobs, 1)
	assert.Equal(t, sink.jobs[0].ID, job.ID)
}

func TestClient_FormulaTools(t *testing.T) {
	c, _ := newServer(t)
	ctx := context.Background()

	got, err := c.Speciation().Decompose(ctx, []string{"CaMg(CO3)2"}, "2", false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, map[string]int{"Ca": 2, "Mg": 2, "C": 4, "O": 12}, got[0].Counts)

	cls, err := c.Speciation().Classify(ctx, [][]interface{}{{"pH", "si_Calcite"}, {7.0, -0.2}})
	require.NoError(t, err)
	assert.Equal(t, 1, cls.Rows)
	assert.Equal(t, []string{"Calcite"}, cls.Measures["log10_saturation"])
}

//Personal.AI order the ending
