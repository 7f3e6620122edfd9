package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/phreeqprep/internal/domain/phreeqc"
	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
)

// NameList is the response of every listing endpoint.
type NameList struct {
	Database string   `json:"database,omitempty"`
	Kind     string   `json:"kind"`
	Targets  []string `json:"targets,omitempty"`
	Items    []string `json:"items"`
}

// DatabaseHandler answers the read-only database queries.
type DatabaseHandler struct {
	registry *phreeqc.Registry
	logger   logging.Logger
}

// NewDatabaseHandler returns a DatabaseHandler over registry.
func NewDatabaseHandler(registry *phreeqc.Registry, logger logging.Logger) *DatabaseHandler {
	return &DatabaseHandler{registry: registry, logger: logging.OrDefault(logger).Named("http.databases")}
}

// lookup resolves the {database} parameter by name.  File paths are not
// accepted over HTTP.
func (h *DatabaseHandler) lookup(ctx context.Context, r *http.Request) (*phreeqc.Database, error) {
	return lookupDatabase(ctx, h.registry, databaseParam(r))
}

func lookupDatabase(ctx context.Context, registry *phreeqc.Registry, name string) (*phreeqc.Database, error) {
	return registry.GetByName(ctx, name)
}

// List handles GET /databases.
func (h *DatabaseHandler) List(w http.ResponseWriter, r *http.Request) {
	names, err := h.registry.Names(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NameList{Kind: "database", Items: names})
}

// Sections handles GET /databases/{database}/sections.
func (h *DatabaseHandler) Sections(w http.ResponseWriter, r *http.Request) {
	db, err := h.lookup(r.Context(), r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NameList{Database: db.Name(), Kind: "section", Items: db.SectionNames()})
}

// Section handles GET /databases/{database}/sections/{section}.
func (h *DatabaseHandler) Section(w http.ResponseWriter, r *http.Request) {
	db, err := h.lookup(r.Context(), r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	name := strings.ToUpper(chi.URLParam(r, "section"))
	lines, err := db.Section(name)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NameList{Database: db.Name(), Kind: name, Items: lines})
}

// Species handles GET /databases/{database}/species?targets=Ca,Mg.
//
// Query parameters: section (default SOLUTION_SPECIES), strict and hco.
func (h *DatabaseHandler) Species(w http.ResponseWriter, r *http.Request) {
	set, err := targetSet(queryList(r, "targets"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	strict, err := queryBool(r, "strict", false)
	if err != nil {
		writeAppError(w, err)
		return
	}
	hco, err := queryBool(r, "hco", true)
	if err != nil {
		writeAppError(w, err)
		return
	}
	section := strings.ToUpper(r.URL.Query().Get("section"))
	if section == "" {
		section = phreeqc.SectionSolutionSpecies
	}

	db, err := h.lookup(r.Context(), r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	species, err := db.SpeciesFor(set, section, phreeqc.SpeciesOptions{AllowForeign: !strict, AllowHCO: hco})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NameList{Database: db.Name(), Kind: "species", Targets: set.Sorted(), Items: species})
}

// PhaseResponse lists phases with their formulas.
type PhaseResponse struct {
	Database string          `json:"database"`
	Targets  []string        `json:"targets,omitempty"`
	Phases   []phreeqc.Phase `json:"phases"`
}

// Phases handles GET /databases/{database}/phases.  Without targets every
// phase is listed.
func (h *DatabaseHandler) Phases(w http.ResponseWriter, r *http.Request) {
	hco, err := queryBool(r, "hco", true)
	if err != nil {
		writeAppError(w, err)
		return
	}
	db, err := h.lookup(r.Context(), r)
	if err != nil {
		writeAppError(w, err)
		return
	}

	raw := queryList(r, "targets")
	if len(raw) == 0 {
		all, err := db.Phases()
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, PhaseResponse{Database: db.Name(), Phases: all})
		return
	}

	set, err := targetSet(raw)
	if err != nil {
		writeAppError(w, err)
		return
	}
	names, err := db.PhasesFor(set, hco)
	if err != nil {
		writeAppError(w, err)
		return
	}
	out := make([]phreeqc.Phase, 0, len(names))
	for _, n := range names {
		if p, ok, _ := db.Phase(n); ok {
			out = append(out, p)
		}
	}
	writeJSON(w, http.StatusOK, PhaseResponse{Database: db.Name(), Targets: set.Sorted(), Phases: out})
}

// Master handles GET /databases/{database}/master?targets=Ca,S.
func (h *DatabaseHandler) Master(w http.ResponseWriter, r *http.Request) {
	set, err := targetSet(queryList(r, "targets"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	db, err := h.lookup(r.Context(), r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NameList{Database: db.Name(), Kind: "element", Targets: set.Sorted(), Items: db.MasterSpeciesFor(set)})
}

// ValidResponse pairs element keys with their master species.
type ValidResponse struct {
	Database string                `json:"database"`
	Entries  []phreeqc.MasterEntry `json:"entries"`
}

// Valid handles GET /databases/{database}/valid.
func (h *DatabaseHandler) Valid(w http.ResponseWriter, r *http.Request) {
	db, err := h.lookup(r.Context(), r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ValidResponse{Database: db.Name(), Entries: db.ValidSpecies()})
}

// Invalidate handles DELETE /databases/{database}/cache, forcing the next
// request to reload the file.
func (h *DatabaseHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	name := databaseParam(r)
	n := h.registry.Invalidate(name)
	h.logger.Info("database cache invalidated", logging.Database(name), logging.Int("entries", n))
	writeJSON(w, http.StatusOK, map[string]interface{}{"database": name, "invalidated": n})
}

//Personal.AI order the ending
