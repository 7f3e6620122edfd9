package handlers

import (
	"net/http"

	"github.com/turtacn/phreeqprep/internal/application/speciation"
	"github.com/turtacn/phreeqprep/internal/domain/chemistry"
	"github.com/turtacn/phreeqprep/pkg/errors"
)

// DecomposeRequest is the body of POST /decompose.
type DecomposeRequest struct {
	Formulas []string `json:"formulas"`
	// Count multiplies every element count; it must be a positive integer.
	Count  string `json:"count,omitempty"`
	Strict bool   `json:"strict,omitempty"`
}

// Decomposition is the element breakdown of one formula.
type Decomposition struct {
	Formula string         `json:"formula"`
	Counts  map[string]int `json:"counts"`
	Valence string         `json:"valence,omitempty"`
	Valid   bool           `json:"valid"`
}

// ClassifyRequest is the body of POST /classify: either headings alone or
// the solver's whole result array, headings row first.
type ClassifyRequest struct {
	Columns []string        `json:"columns,omitempty"`
	Result  [][]interface{} `json:"result,omitempty"`
}

// ClassifyResponse names the measure of each column, and summarises the
// rows when a result array was given.
type ClassifyResponse struct {
	Columns  []speciation.ResultColumn       `json:"columns"`
	Rows     int                             `json:"rows,omitempty"`
	Measures map[speciation.Measure][]string `json:"measures,omitempty"`
	Table    *speciation.ResultTable         `json:"table,omitempty"`
}

var measures = []speciation.Measure{
	speciation.MeasureTotal,
	speciation.MeasureMolality,
	speciation.MeasureLogActivity,
	speciation.MeasureLogSaturation,
	speciation.MeasureGeneral,
}

// ChemistryHandler serves the database-independent formula tools.
type ChemistryHandler struct{}

// NewChemistryHandler returns a ChemistryHandler.
func NewChemistryHandler() *ChemistryHandler { return &ChemistryHandler{} }

// Decompose handles POST /decompose.
func (h *ChemistryHandler) Decompose(w http.ResponseWriter, r *http.Request) {
	var req DecomposeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	if len(req.Formulas) == 0 {
		writeAppError(w, errors.InvalidParam("formulas is required"))
		return
	}
	out := make([]Decomposition, 0, len(req.Formulas))
	for _, f := range req.Formulas {
		comp, err := chemistry.DecomposeCount(f, req.Count)
		if err != nil {
			writeAppError(w, err)
			return
		}
		valid := chemistry.IsValidMolecule(f)
		if req.Strict && !valid {
			writeAppError(w, errors.Newf(errors.ErrCodeInvalidFormula, "formula %q contains unknown elements", f))
			return
		}
		out = append(out, Decomposition{Formula: f, Counts: comp.Counts, Valence: comp.Valence, Valid: valid})
	}
	writeJSON(w, http.StatusOK, out)
}

// Classify handles POST /classify.
func (h *ChemistryHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	if len(req.Result) == 0 {
		if len(req.Columns) == 0 {
			writeAppError(w, errors.InvalidParam("give columns or result"))
			return
		}
		writeJSON(w, http.StatusOK, ClassifyResponse{Columns: speciation.ClassifyColumns(req.Columns)})
		return
	}

	table, err := speciation.NewResultTable(req.Result)
	if err != nil {
		writeAppError(w, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid result array"))
		return
	}
	resp := ClassifyResponse{
		Columns:  table.Columns,
		Rows:     len(table.Rows),
		Measures: map[speciation.Measure][]string{},
		Table:    table,
	}
	for _, m := range measures {
		if names := table.Names(m); len(names) > 0 {
			resp.Measures[m] = names
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

//Personal.AI order the ending
