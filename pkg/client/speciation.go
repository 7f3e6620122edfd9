package client

import (
	"context"

	"github.com/turtacn/phreeqprep/pkg/types/solution"
)

// PhaseSpec is one EQUILIBRIUM_PHASES line.
type PhaseSpec struct {
	Name            string   `json:"name"`
	SaturationIndex float64  `json:"saturation_index"`
	Amount          *float64 `json:"amount,omitempty"`
}

// OutputOptions selects SELECTED_OUTPUT content.  Nil fields keep the
// server defaults.
type OutputOptions struct {
	Totals        *bool    `json:"totals,omitempty"`
	Molalities    *bool    `json:"molalities,omitempty"`
	Activities    *bool    `json:"activities,omitempty"`
	Phases        *bool    `json:"phases,omitempty"`
	PhaseTargets  []string `json:"phase_targets,omitempty"`
	AllowHCO      *bool    `json:"allow_hco,omitempty"`
	StrictSpecies *bool    `json:"strict_species,omitempty"`
}

// InputOptions controls deck generation.  Nil fields keep the server
// defaults.
type InputOptions struct {
	Targets          []string       `json:"targets,omitempty"`
	AllowRemoval     *bool          `json:"allow_removal,omitempty"`
	DropOH           *bool          `json:"drop_oh,omitempty"`
	Output           *OutputOptions `json:"output,omitempty"`
	OutputLines      []string       `json:"output_lines,omitempty"`
	UseDefaultOutput *bool          `json:"use_default_output,omitempty"`
	Phases           []PhaseSpec    `json:"phases,omitempty"`
	PhaseSets        [][]PhaseSpec  `json:"phase_sets,omitempty"`
}

// Bool returns a pointer to b, for the optional fields.
func Bool(b bool) *bool { return &b }

// Substitution is a column renamed to the database's element key.
type Substitution struct {
	From       string   `json:"from"`
	To         string   `json:"to"`
	Candidates []string `json:"candidates,omitempty"`
}

// Report lists the corrections applied to a table.
type Report struct {
	Database      string         `json:"database"`
	Substitutions []Substitution `json:"substitutions,omitempty"`
	Removed       []string       `json:"removed,omitempty"`
}

// Warning is a non-fatal generation diagnostic.
type Warning struct {
	Code    string `json:"code"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// CheckResult is the answer of Check.
type CheckResult struct {
	Database string          `json:"database"`
	Report   Report          `json:"report"`
	Table    *solution.Table `json:"table"`
}

// Deck is a generated solver input.
type Deck struct {
	Input       string    `json:"input"`
	Database    string    `json:"database"`
	Solutions   int       `json:"solutions"`
	Simulations int       `json:"simulations"`
	Targets     []string  `json:"targets"`
	Report      Report    `json:"report"`
	Warnings    []Warning `json:"warnings,omitempty"`
}

// Job acknowledges a queued solver job.
type Job struct {
	ID          string   `json:"id"`
	Database    string   `json:"database"`
	Solutions   int      `json:"solutions"`
	Simulations int      `json:"simulations"`
	Targets     []string `json:"targets"`
}

// Decomposition is the element breakdown of one formula.
type Decomposition struct {
	Formula string         `json:"formula"`
	Counts  map[string]int `json:"counts"`
	Valence string         `json:"valence,omitempty"`
	Valid   bool           `json:"valid"`
}

// ResultColumn is a classified solver output heading.
type ResultColumn struct {
	Raw     string `json:"raw"`
	Measure string `json:"measure"`
	Name    string `json:"name"`
}

// Classification is the answer of Classify.
type Classification struct {
	Columns  []ResultColumn      `json:"columns"`
	Rows     int                 `json:"rows,omitempty"`
	Measures map[string][]string `json:"measures,omitempty"`
}

type tableRequest struct {
	Table        *solution.Table   `json:"table"`
	Select       map[string]string `json:"select,omitempty"`
	AllowRemoval *bool             `json:"allow_removal,omitempty"`
	Options      *InputOptions     `json:"options,omitempty"`
}

// SpeciationClient wraps the table, deck and formula endpoints.
type SpeciationClient struct {
	client *Client
}

// Check normalises table against database.  Select, when non-empty, keeps
// only its keys and renames them to its values first.
func (s *SpeciationClient) Check(ctx context.Context, database string, table *solution.Table, sel map[string]string, allowRemoval bool) (*CheckResult, error) {
	var out CheckResult
	req := tableRequest{Table: table, Select: sel, AllowRemoval: Bool(allowRemoval)}
	if err := s.client.post(ctx, databasePath(database, "check"), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Input renders a solver input deck.  A nil opts uses the server defaults.
func (s *SpeciationClient) Input(ctx context.Context, database string, table *solution.Table, sel map[string]string, opts *InputOptions) (*Deck, error) {
	var out Deck
	req := tableRequest{Table: table, Select: sel, Options: opts}
	if err := s.client.post(ctx, databasePath(database, "input"), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Submit queues the deck on the solver job topic.
func (s *SpeciationClient) Submit(ctx context.Context, database string, table *solution.Table, sel map[string]string, opts *InputOptions) (*Job, error) {
	var out Job
	req := tableRequest{Table: table, Select: sel, Options: opts}
	if err := s.client.post(ctx, databasePath(database, "jobs"), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Decompose breaks formulas into element counts, each multiplied by count
// when it is not empty.
func (s *SpeciationClient) Decompose(ctx context.Context, formulas []string, count string, strict bool) ([]Decomposition, error) {
	req := struct {
		Formulas []string `json:"formulas"`
		Count    string   `json:"count,omitempty"`
		Strict   bool     `json:"strict,omitempty"`
	}{formulas, count, strict}
	var out []Decomposition
	if err := s.client.post(ctx, "/api/v1/decompose", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Classify classifies a solver result array, headings row first.
func (s *SpeciationClient) Classify(ctx context.Context, result [][]interface{}) (*Classification, error) {
	req := struct {
		Result [][]interface{} `json:"result"`
	}{result}
	var out Classification
	if err := s.client.post(ctx, "/api/v1/classify", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

//Personal.AI order the ending
