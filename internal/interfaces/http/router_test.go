package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/phreeqprep/internal/application/speciation"
	"github.com/turtacn/phreeqprep/internal/domain/phreeqc"
	apihttp "github.com/turtacn/phreeqprep/internal/interfaces/http"
	"github.com/turtacn/phreeqprep/internal/interfaces/http/handlers"
	"github.com/turtacn/phreeqprep/pkg/errors"
)

type fakePublisher struct {
	mu   sync.Mutex
	jobs []*speciation.SolverJob
}

func (p *fakePublisher) PublishJob(_ context.Context, job *speciation.SolverJob) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, job)
	return nil
}

type fakeRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *fakeRecorder) RecordHTTPRequest(method, path string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, fmt.Sprintf("%s %s %d", method, path, status))
}

type fixture struct {
	handler   http.Handler
	publisher *fakePublisher
	recorder  *fakeRecorder
}

func newFixture(t *testing.T, withPublisher bool, checks ...handlers.HealthChecker) *fixture {
	t.Helper()
	f := &fixture{recorder: &fakeRecorder{}}
	registry := phreeqc.NewRegistry(phreeqc.RegistryOptions{}, phreeqc.NewDirSource("testdata"))

	opts := speciation.ServiceOptions{NamesOnly: true}
	if withPublisher {
		f.publisher = &fakePublisher{}
		opts.Publisher = f.publisher
	}
	service := speciation.NewService(registry, opts)

	f.handler = apihttp.NewRouter(apihttp.RouterConfig{
		HealthHandler:     handlers.NewHealthHandler("test", checks...),
		DatabaseHandler:   handlers.NewDatabaseHandler(registry, nil),
		SpeciationHandler: handlers.NewSpeciationHandler(service, nil),
		ChemistryHandler:  handlers.NewChemistryHandler(),
		Recorder:          f.recorder,
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics\n"))
		}),
		MaxBodySize: 1 << 20,
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp handlers.ErrorResponse
	decode(t, w, &resp)
	return resp.Code
}

// ─────────────────────────────────────────────────────────────────────────────
// Health and metrics
// ─────────────────────────────────────────────────────────────────────────────

func TestRouter_Health(t *testing.T) {
	f := newFixture(t, false)
	w := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var live handlers.LivenessResponse
	decode(t, w, &live)
	assert.Equal(t, "alive", live.Status)
	assert.Equal(t, "test", live.Version)

	w = f.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_ReadinessFailsWithUnhealthyDependency(t *testing.T) {
	f := newFixture(t, false,
		handlers.NewCheck("redis", func(context.Context) error { return nil }),
		handlers.NewCheck("kafka", func(context.Context) error { return fmt.Errorf("no brokers") }),
	)

	w := f.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp handlers.ReadinessResponse
	decode(t, w, &resp)
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "healthy", resp.Components["redis"].Status)
	assert.Equal(t, "no brokers", resp.Components["kafka"].Error)

	w = f.do(t, http.MethodGet, "/healthz/detail", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	decode(t, w, &resp)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "test", resp.Version)
}

func TestRouter_MetricsEndpointAndRecorder(t *testing.T) {
	f := newFixture(t, false)
	w := f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, "# metrics\n", w.Body.String())

	f.do(t, http.MethodGet, "/api/v1/databases/minimal/species?targets=Ca", "")
	f.do(t, http.MethodGet, "/nowhere", "")
	assert.Contains(t, f.recorder.paths, "GET /api/v1/databases/{database}/species 200")
	assert.Contains(t, f.recorder.paths, "GET unmatched 404")
}

// ─────────────────────────────────────────────────────────────────────────────
// Database queries
// ─────────────────────────────────────────────────────────────────────────────

func TestRouter_ListDatabases(t *testing.T) {
	f := newFixture(t, false)
	w := f.do(t, http.MethodGet, "/api/v1/databases", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got handlers.NameList
	decode(t, w, &got)
	assert.Equal(t, []string{"minimal"}, got.Items)
}

func TestRouter_Sections(t *testing.T) {
	f := newFixture(t, false)

	var got handlers.NameList
	w := f.do(t, http.MethodGet, "/api/v1/databases/minimal/sections", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &got)
	assert.Equal(t, []string{"SOLUTION_MASTER_SPECIES", "SOLUTION_SPECIES", "PHASES", "END"}, got.Items)

	w = f.do(t, http.MethodGet, "/api/v1/databases/minimal/sections/phases", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &got)
	assert.Equal(t, "PHASES", got.Kind)
	assert.Equal(t, "Calcite", got.Items[0])

	w = f.do(t, http.MethodGet, "/api/v1/databases/minimal/sections/RATES", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errors.ErrCodeUnknownSection.String(), errorCode(t, w))
}

func TestRouter_UnknownDatabase(t *testing.T) {
	f := newFixture(t, false)
	w := f.do(t, http.MethodGet, "/api/v1/databases/nope/sections", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errors.ErrCodeDatabaseInvalidName.String(), errorCode(t, w))

	w = f.do(t, http.MethodGet, "/api/v1/databases/../sections", "")
	assert.NotEqual(t, http.StatusOK, w.Code)
}

func TestRouter_DatabaseNamesNeverResolveFiles(t *testing.T) {
	f := newFixture(t, false)
	// router.go is a file in the working directory of this test.
	w := f.do(t, http.MethodGet, "/api/v1/databases/router.go/sections", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errors.ErrCodeDatabaseInvalidName.String(), errorCode(t, w))

	w = f.do(t, http.MethodPost, "/api/v1/databases/router.go/input", `{"table": {"w1": {"Ca": 1}}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errors.ErrCodeDatabaseInvalidName.String(), errorCode(t, w))
}

func TestRouter_Species(t *testing.T) {
	f := newFixture(t, false)
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"foreign allowed", "targets=Ca,Mg", []string{"Ca+2", "Mg+2", "CaB(OH)4+", "MgB(OH)4+", "CaCO3", "MgCO3"}},
		{"strict", "targets=Ca&strict=true", []string{"Ca+2", "CaCO3"}},
		{"repeated parameter", "targets=Ca&targets=Mg&strict=true", []string{"Ca+2", "Mg+2", "CaCO3", "MgCO3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodGet, "/api/v1/databases/minimal/species?"+tt.query, "")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			var got handlers.NameList
			decode(t, w, &got)
			assert.Equal(t, tt.want, got.Items)
		})
	}
}

func TestRouter_SpeciesRejectsBadQueries(t *testing.T) {
	f := newFixture(t, false)
	for _, q := range []string{"", "targets=Xx", "targets=Ca&strict=maybe"} {
		w := f.do(t, http.MethodGet, "/api/v1/databases/minimal/species?"+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestRouter_Phases(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(t, http.MethodGet, "/api/v1/databases/minimal/phases?targets=Ca", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got handlers.PhaseResponse
	decode(t, w, &got)
	require.Len(t, got.Phases, 2)
	assert.Equal(t, "Calcite", got.Phases[0].Name)
	assert.Equal(t, "CaCO3", got.Phases[0].Formula)
	assert.Equal(t, "Aragonite", got.Phases[1].Name)

	w = f.do(t, http.MethodGet, "/api/v1/databases/minimal/phases", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &got)
	assert.Len(t, got.Phases, 6)
}

func TestRouter_MasterAndValid(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(t, http.MethodGet, "/api/v1/databases/minimal/master?targets=Ca,S", "")
	require.Equal(t, http.StatusOK, w.Code)
	var names handlers.NameList
	decode(t, w, &names)
	assert.Equal(t, []string{"Ca", "S(6)"}, names.Items)

	w = f.do(t, http.MethodGet, "/api/v1/databases/minimal/valid", "")
	require.Equal(t, http.StatusOK, w.Code)
	var valid handlers.ValidResponse
	decode(t, w, &valid)
	found := false
	for _, e := range valid.Entries {
		if e.Element == "S(6)" {
			found = true
			assert.Equal(t, "SO4-2", e.Species)
		}
	}
	assert.True(t, found)
}

func TestRouter_InvalidateCache(t *testing.T) {
	f := newFixture(t, false)
	f.do(t, http.MethodGet, "/api/v1/databases/minimal/sections", "")

	w := f.do(t, http.MethodDelete, "/api/v1/databases/minimal/cache", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]interface{}
	decode(t, w, &got)
	assert.Equal(t, float64(1), got["invalidated"])
}

// ─────────────────────────────────────────────────────────────────────────────
// Speciation
// ─────────────────────────────────────────────────────────────────────────────

const watersBody = `{"table": {"w1": {"temperature": 25, "Ca+2": 1e-3, "Mg": 5e-4}}}`

func TestRouter_Check(t *testing.T) {
	f := newFixture(t, false)
	w := f.do(t, http.MethodPost, "/api/v1/databases/minimal/check", watersBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got struct {
		Report speciation.Report             `json:"report"`
		Table  map[string]map[string]float64 `json:"table"`
	}
	decode(t, w, &got)
	require.Len(t, got.Report.Substitutions, 1)
	assert.Equal(t, "Ca+2", got.Report.Substitutions[0].From)
	assert.Equal(t, "Ca", got.Report.Substitutions[0].To)
	assert.Equal(t, map[string]float64{"temperature": 25, "Mg": 5e-4, "Ca": 1e-3}, got.Table["w1"])
}

func TestRouter_CheckErrors(t *testing.T) {
	f := newFixture(t, false)
	tests := []struct {
		name   string
		body   string
		status int
		code   errors.ErrorCode
	}{
		{"malformed", `{"table":`, http.StatusBadRequest, errors.ErrCodeBadRequest},
		{"no table", `{}`, http.StatusBadRequest, errors.ErrCodeEmptyTable},
		{"unknown column kept", `{"table": {"w1": {"Xy": 1}}, "allow_removal": false}`, http.StatusUnprocessableEntity, errors.ErrCodeInvalidColumn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/v1/databases/minimal/check", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code.String(), errorCode(t, w))
		})
	}
}

func TestRouter_RequiresJSONBody(t *testing.T) {
	f := newFixture(t, false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/databases/minimal/check", strings.NewReader("name,Ca\nw1,1\n"))
	req.Header.Set("Content-Type", "text/csv")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRouter_Input(t *testing.T) {
	f := newFixture(t, false)
	w := f.do(t, http.MethodPost, "/api/v1/databases/minimal/input", watersBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var deck speciation.InputDeck
	decode(t, w, &deck)
	assert.True(t, strings.HasPrefix(deck.Text, "SOLUTION 1\n"))
	assert.Contains(t, deck.Text, "SELECTED_OUTPUT\n")
	assert.True(t, strings.HasSuffix(deck.Text, "END\n"))
	assert.Equal(t, "minimal", deck.Database)
	assert.Equal(t, 1, deck.Solutions)
}

func TestRouter_InputWithOptions(t *testing.T) {
	f := newFixture(t, false)
	body := `{"table": {"w1": {"Ca": 1e-3}},
		"options": {"use_default_output": true, "phases": [{"name": "Calcite"}, {"name": "Unobtainium"}]}}`
	w := f.do(t, http.MethodPost, "/api/v1/databases/minimal/input", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var deck speciation.InputDeck
	decode(t, w, &deck)
	assert.Contains(t, deck.Text, "EQUILIBRIUM_PHASES 1\n    Calcite 0\n")
	assert.NotContains(t, deck.Text, "Unobtainium")
	require.Len(t, deck.Warnings, 1)
	assert.Equal(t, "Unobtainium", deck.Warnings[0].Subject)

	w = f.do(t, http.MethodPost, "/api/v1/databases/minimal/input", `{"table": {"w1": {"Ca": 1}}, "options": {"phases": "x"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_InputWithSelect(t *testing.T) {
	f := newFixture(t, false)
	body := `{"table": {"w1": {"calcium": 1e-3, "junk": 4}}, "select": {"calcium": "Ca"}}`
	w := f.do(t, http.MethodPost, "/api/v1/databases/minimal/input", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var deck speciation.InputDeck
	decode(t, w, &deck)
	assert.Contains(t, deck.Text, "Ca")
	assert.NotContains(t, deck.Text, "junk")
}

func TestRouter_SubmitJob(t *testing.T) {
	f := newFixture(t, true)
	w := f.do(t, http.MethodPost, "/api/v1/databases/minimal/jobs", watersBody)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var got handlers.JobResponse
	decode(t, w, &got)
	require.Len(t, f.publisher.jobs, 1)
	assert.Equal(t, f.publisher.jobs[0].ID, got.ID)
	assert.Equal(t, "minimal", got.Database)
	assert.Equal(t, 1, got.Solutions)
	assert.Contains(t, f.publisher.jobs[0].Input, "SOLUTION 1\n")
}

func TestRouter_SubmitJobWithoutPublisher(t *testing.T) {
	f := newFixture(t, false)
	w := f.do(t, http.MethodPost, "/api/v1/databases/minimal/jobs", watersBody)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Formula tools
// ─────────────────────────────────────────────────────────────────────────────

func TestRouter_Decompose(t *testing.T) {
	f := newFixture(t, false)
	w := f.do(t, http.MethodPost, "/api/v1/decompose", `{"formulas": ["CaMg(CO3)2", "B(OH)4-"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got []handlers.Decomposition
	decode(t, w, &got)
	require.Len(t, got, 2)
	assert.Equal(t, map[string]int{"Ca": 1, "Mg": 1, "C": 2, "O": 6}, got[0].Counts)
	assert.Equal(t, "-1", got[1].Valence)
	assert.True(t, got[1].Valid)

	w = f.do(t, http.MethodPost, "/api/v1/decompose", `{"formulas": ["H2O"], "count": "0"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errors.ErrCodeInvalidFormula.String(), errorCode(t, w))

	w = f.do(t, http.MethodPost, "/api/v1/decompose", `{"formulas": ["Xq2"], "strict": true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_Classify(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(t, http.MethodPost, "/api/v1/classify", `{"columns": ["m_Ca+2(mol/kgw)", "si_Calcite"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	var cols handlers.ClassifyResponse
	decode(t, w, &cols)
	require.Len(t, cols.Columns, 2)
	assert.Equal(t, speciation.MeasureMolality, cols.Columns[0].Measure)
	assert.Equal(t, "Calcite", cols.Columns[1].Name)

	body := `{"result": [["pH","Ca(mol/kgw)","la_Ca+2"],[7.1,0.001,-999.999],[7.4,0.002,-3.1]]}`
	w = f.do(t, http.MethodPost, "/api/v1/classify", body)
	require.Equal(t, http.StatusOK, w.Code)
	var sum handlers.ClassifyResponse
	decode(t, w, &sum)
	assert.Equal(t, 2, sum.Rows)
	assert.Equal(t, []string{"Ca"}, sum.Measures[speciation.MeasureTotal])
	assert.Equal(t, []string{"Ca+2"}, sum.Measures[speciation.MeasureLogActivity])

	w = f.do(t, http.MethodPost, "/api/v1/classify", `{"result": [["pH","Ca"],[7.1]]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

//Personal.AI order the ending
