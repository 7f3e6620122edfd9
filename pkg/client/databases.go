package client

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// NameList is the answer of the list-valued database queries.
type NameList struct {
	Database string   `json:"database,omitempty"`
	Kind     string   `json:"kind"`
	Targets  []string `json:"targets,omitempty"`
	Items    []string `json:"items"`
}

// Reaction is a tokenised reaction line.
type Reaction struct {
	Reactants []string `json:"reactants"`
	Products  []string `json:"products"`
}

// Phase is one PHASES entry.
type Phase struct {
	Name     string   `json:"name"`
	Formula  string   `json:"formula"`
	Reaction Reaction `json:"reaction"`
	Details  []string `json:"details,omitempty"`
}

// PhaseList is the answer of Phases.
type PhaseList struct {
	Database string   `json:"database"`
	Targets  []string `json:"targets,omitempty"`
	Phases   []Phase  `json:"phases"`
}

// MasterEntry pairs an element key with its master species.
type MasterEntry struct {
	Element string   `json:"element"`
	Species string   `json:"species"`
	Fields  []string `json:"fields,omitempty"`
}

// SpeciesQuery filters Species.  Section defaults to SOLUTION_SPECIES on
// the server.
type SpeciesQuery struct {
	Section string
	// Strict excludes species containing any non-target element.
	Strict bool
	// ExcludeHCO stops H, C and O from being treated as targets.
	ExcludeHCO bool
}

// DatabasesClient wraps the /databases endpoints.
type DatabasesClient struct {
	client *Client
}

// List returns the database names the server can load.
func (d *DatabasesClient) List(ctx context.Context) ([]string, error) {
	var out NameList
	if err := d.client.get(ctx, "/api/v1/databases/", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Sections returns the section keywords of database in file order.
func (d *DatabasesClient) Sections(ctx context.Context, database string) ([]string, error) {
	var out NameList
	if err := d.client.get(ctx, databasePath(database, "sections"), nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Section returns the raw lines of one section.
func (d *DatabasesClient) Section(ctx context.Context, database, section string) ([]string, error) {
	var out NameList
	if err := d.client.get(ctx, databasePath(database, "sections", url.PathEscape(section)), nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Species returns the species built from targets.
func (d *DatabasesClient) Species(ctx context.Context, database string, targets []string, q SpeciesQuery) (*NameList, error) {
	v := targetQuery(targets)
	if q.Section != "" {
		v.Set("section", q.Section)
	}
	if q.Strict {
		v.Set("strict", "true")
	}
	if q.ExcludeHCO {
		v.Set("hco", "false")
	}
	var out NameList
	if err := d.client.get(ctx, databasePath(database, "species"), v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Phases returns the phases built from targets, or every phase when
// targets is empty.
func (d *DatabasesClient) Phases(ctx context.Context, database string, targets []string, allowHCO bool) (*PhaseList, error) {
	v := targetQuery(targets)
	v.Set("hco", strconv.FormatBool(allowHCO))
	var out PhaseList
	if err := d.client.get(ctx, databasePath(database, "phases"), v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Master returns the element keys whose master species are built from
// targets.
func (d *DatabasesClient) Master(ctx context.Context, database string, targets []string) ([]string, error) {
	var out NameList
	if err := d.client.get(ctx, databasePath(database, "master"), targetQuery(targets), &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Valid returns every element key with its master species.
func (d *DatabasesClient) Valid(ctx context.Context, database string) ([]MasterEntry, error) {
	var out struct {
		Entries []MasterEntry `json:"entries"`
	}
	if err := d.client.get(ctx, databasePath(database, "valid"), nil, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// Invalidate drops the server's cached copy of database and returns the
// number of entries removed.
func (d *DatabasesClient) Invalidate(ctx context.Context, database string) (int, error) {
	var out struct {
		Invalidated int `json:"invalidated"`
	}
	if err := d.client.delete(ctx, databasePath(database, "cache"), &out); err != nil {
		return 0, err
	}
	return out.Invalidated, nil
}

func targetQuery(targets []string) url.Values {
	v := url.Values{}
	if len(targets) > 0 {
		v.Set("targets", strings.Join(targets, ","))
	}
	return v
}

//Personal.AI order the ending
