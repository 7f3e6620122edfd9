package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/turtacn/phreeqprep/internal/application/speciation"
	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/phreeqprep/pkg/errors"
	"github.com/turtacn/phreeqprep/pkg/types/solution"
)

// TableRequest carries a composition table, as an object of named rows or
// an array of rows, and an optional explicit column lookup.
type TableRequest struct {
	Table  *solution.Table   `json:"table"`
	Select map[string]string `json:"select,omitempty"`
}

// CheckRequest is the body of POST .../check.
type CheckRequest struct {
	TableRequest
	// AllowRemoval defaults to true.
	AllowRemoval *bool `json:"allow_removal,omitempty"`
}

// CheckResponse returns the normalised table with what was changed.
type CheckResponse struct {
	Database string            `json:"database"`
	Report   speciation.Report `json:"report"`
	Table    *solution.Table   `json:"table"`
}

// InputRequest is the body of POST .../input and POST .../jobs.  Options
// fields left out keep their defaults.
type InputRequest struct {
	TableRequest
	Options json.RawMessage `json:"options,omitempty"`
}

func (r InputRequest) options() (speciation.InputOptions, error) {
	opts := speciation.DefaultInputOptions()
	if len(r.Options) == 0 {
		return opts, nil
	}
	if err := json.Unmarshal(r.Options, &opts); err != nil {
		return opts, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid input options")
	}
	return opts, nil
}

// JobResponse acknowledges a queued solver job.
type JobResponse struct {
	ID          string   `json:"id"`
	Database    string   `json:"database"`
	Solutions   int      `json:"solutions"`
	Simulations int      `json:"simulations"`
	Targets     []string `json:"targets"`
}

// SpeciationHandler serves the table normalisation and deck generation
// endpoints.
type SpeciationHandler struct {
	service *speciation.Service
	logger  logging.Logger
}

// NewSpeciationHandler returns a SpeciationHandler over service.
func NewSpeciationHandler(service *speciation.Service, logger logging.Logger) *SpeciationHandler {
	return &SpeciationHandler{service: service, logger: logging.OrDefault(logger).Named("http.speciation")}
}

// table validates the request table and applies the lookup, if any.
func (h *SpeciationHandler) table(ctx context.Context, database string, req TableRequest) (*solution.Table, error) {
	if req.Table == nil || req.Table.Len() == 0 {
		return nil, errors.New(errors.ErrCodeEmptyTable, "composition table has no rows")
	}
	if len(req.Select) == 0 {
		return req.Table, nil
	}
	gen, err := h.service.Generator(ctx, database)
	if err != nil {
		return nil, err
	}
	return gen.Normalizer().SelectInputs(req.Table, req.Select)
}

// Check handles POST /databases/{database}/check.
func (h *SpeciationHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	ctx := r.Context()
	database := databaseParam(r)
	if _, err := lookupDatabase(ctx, h.service.Registry(), database); err != nil {
		writeAppError(w, err)
		return
	}
	t, err := h.table(ctx, database, req.TableRequest)
	if err != nil {
		writeAppError(w, err)
		return
	}
	allow := req.AllowRemoval == nil || *req.AllowRemoval
	checked, report, err := h.service.CheckInputs(ctx, database, t, allow)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CheckResponse{Database: database, Report: report, Table: checked})
}

// Input handles POST /databases/{database}/input and returns the deck.
func (h *SpeciationHandler) Input(w http.ResponseWriter, r *http.Request) {
	t, opts, ok := h.inputRequest(w, r)
	if !ok {
		return
	}
	deck, err := h.service.MakeInput(r.Context(), databaseParam(r), t, opts)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deck)
}

// Submit handles POST /databases/{database}/jobs.  The deck is published
// for the solver fleet and 202 returned with the job id.
func (h *SpeciationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	t, opts, ok := h.inputRequest(w, r)
	if !ok {
		return
	}
	job, deck, err := h.service.Submit(r.Context(), databaseParam(r), t, opts)
	if err != nil {
		writeAppError(w, err)
		return
	}
	h.logger.Debug("solver job accepted", logging.String("job_id", job.ID), logging.Database(job.Database))
	writeJSON(w, http.StatusAccepted, JobResponse{
		ID:          job.ID,
		Database:    job.Database,
		Solutions:   deck.Solutions,
		Simulations: deck.Simulations,
		Targets:     deck.Targets,
	})
}

func (h *SpeciationHandler) inputRequest(w http.ResponseWriter, r *http.Request) (*solution.Table, speciation.InputOptions, bool) {
	var req InputRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return nil, speciation.InputOptions{}, false
	}
	opts, err := req.options()
	if err != nil {
		writeAppError(w, err)
		return nil, opts, false
	}
	ctx := r.Context()
	database := databaseParam(r)
	if _, err := lookupDatabase(ctx, h.service.Registry(), database); err != nil {
		writeAppError(w, err)
		return nil, opts, false
	}
	t, err := h.table(ctx, database, req.TableRequest)
	if err != nil {
		writeAppError(w, err)
		return nil, opts, false
	}
	return t, opts, true
}

//Personal.AI order the ending
