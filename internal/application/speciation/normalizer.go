// Package speciation turns composition tables into solver input decks.  It
// validates and renames table columns against a database's master-species
// table, derives the target elements of a run, renders the SOLUTION,
// SELECTED_OUTPUT and EQUILIBRIUM_PHASES blocks, and hands finished decks to
// a job publisher.  Solving is left to an external engine.
package speciation

import (
	"fmt"
	"strings"

	"github.com/turtacn/phreeqprep/internal/domain/chemistry"
	"github.com/turtacn/phreeqprep/internal/domain/phreeqc"
	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/phreeqprep/pkg/errors"
	"github.com/turtacn/phreeqprep/pkg/types/solution"
)

// DefaultUncertaintySuffix marks the standard-deviation column paired with
// a value column ("Mg" and "Mg_std").
const DefaultUncertaintySuffix = "_std"

// FlagMarker prefixes solver option keys that pass through untouched.
const FlagMarker = "-"

// DefaultExemptKeys are SOLUTION options that are never translated.
var DefaultExemptKeys = []string{
	"temp", "temperature", "ph", "pe", "redox", "units", "density",
	"pressure", "isotope", "water",
}

// NormalizerOptions configures a Normalizer.
type NormalizerOptions struct {
	UncertaintySuffix string
	// ExemptKeys are matched case-insensitively.  Nil means DefaultExemptKeys.
	ExemptKeys []string
	Logger     logging.Logger
	Recorder   Recorder
}

// Substitution records an automatic column rename.
type Substitution struct {
	From string `json:"from"`
	To   string `json:"to"`
	// Candidates lists every element key sharing the master species when
	// the rename picked one of several.
	Candidates []string `json:"candidates,omitempty"`
}

// Report collects the automatic corrections made by CheckInputs.
type Report struct {
	Database      string         `json:"database"`
	Substitutions []Substitution `json:"substitutions,omitempty"`
	Removed       []string       `json:"removed,omitempty"`
}

// Empty reports whether no correction was made.
func (r Report) Empty() bool {
	return len(r.Substitutions) == 0 && len(r.Removed) == 0
}

// String renders the diagnostic shown to callers.
func (r Report) String() string {
	if r.Empty() {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "input columns were adjusted for database '%s'.", r.Database)
	if len(r.Substitutions) > 0 {
		parts := make([]string, len(r.Substitutions))
		for i, s := range r.Substitutions {
			parts[i] = s.From + " -> " + s.To
			if len(s.Candidates) > 1 {
				parts[i] += " (one of " + strings.Join(s.Candidates, ", ") + ")"
			}
		}
		sb.WriteString(" substituted: " + strings.Join(parts, ", ") + ".")
	}
	if len(r.Removed) > 0 {
		sb.WriteString(" removed: " + strings.Join(r.Removed, ", ") + ".")
	}
	sb.WriteString(" if a column was matched incorrectly, build an explicit {column: species} lookup and use SelectInputs.")
	return sb.String()
}

// Normalizer rewrites composition-table columns into names a database
// accepts.
type Normalizer struct {
	db       *phreeqc.Database
	suffix   string
	exempt   map[string]bool
	logger   logging.Logger
	recorder Recorder
}

// NewNormalizer returns a Normalizer over db.
func NewNormalizer(db *phreeqc.Database, opts NormalizerOptions) *Normalizer {
	if opts.UncertaintySuffix == "" {
		opts.UncertaintySuffix = DefaultUncertaintySuffix
	}
	keys := opts.ExemptKeys
	if keys == nil {
		keys = DefaultExemptKeys
	}
	exempt := make(map[string]bool, len(keys))
	for _, k := range keys {
		exempt[strings.ToLower(k)] = true
	}
	return &Normalizer{
		db:       db,
		suffix:   opts.UncertaintySuffix,
		exempt:   exempt,
		logger:   logging.OrDefault(opts.Logger).Named("normalizer").With(logging.Database(db.Name())),
		recorder: opts.Recorder,
	}
}

// SplitKey separates the uncertainty suffix from key.
func (n *Normalizer) SplitKey(key string) (base string, uncertainty bool) {
	if strings.HasSuffix(key, n.suffix) && len(key) > len(n.suffix) {
		return strings.TrimSuffix(key, n.suffix), true
	}
	return key, false
}

// IsExempt reports whether key is a solver option never translated.
func (n *Normalizer) IsExempt(key string) bool {
	return n.exempt[strings.ToLower(key)]
}

// IsFlag reports whether key is a dash-prefixed option.
func IsFlag(key string) bool {
	return strings.HasPrefix(key, FlagMarker)
}

// passes reports whether a base key is retained unchanged.
func (n *Normalizer) passes(base string) bool {
	return n.IsExempt(base) || IsFlag(base) || n.db.MasterSpecies().IsElementKey(base)
}

// CheckInputs validates every column of t.
//
// Columns that are solver options, flags or element keys of the database are
// kept.  Others are translated through the master species (with, then
// without charge) and renamed together with their uncertainty column.
// Untranslatable columns are removed when allowRemoval is set and otherwise
// fail with InvalidColumn.  Two columns resolving to the same name fail with
// AmbiguousName.
//
// The result holds the kept columns followed by the renamed ones, each group
// in table order.  A non-empty Report is also logged at WARN.
func (n *Normalizer) CheckInputs(t *solution.Table, allowRemoval bool) (*solution.Table, Report, error) {
	ms := n.db.MasterSpecies()
	report := Report{Database: n.db.Name()}

	var kept, translated []string
	var uncRenames []Substitution
	rename := make(map[string]string)
	claimed := make(map[string]string)

	claim := func(name, from string) error {
		if prev, dup := claimed[name]; dup {
			return errors.AmbiguousName(name, prev, from)
		}
		claimed[name] = from
		return nil
	}

	for _, col := range t.Columns() {
		base, unc := n.SplitKey(col)
		if n.passes(base) {
			if err := claim(col, col); err != nil {
				return nil, report, err
			}
			kept = append(kept, col)
			continue
		}
		if el, ok := ms.Translate(base); ok {
			to := el
			if unc {
				to = el + n.suffix
			}
			if err := claim(to, col); err != nil {
				return nil, report, err
			}
			rename[col] = to
			translated = append(translated, col)
			sub := Substitution{From: col, To: to, Candidates: ms.Candidates(base)}
			if unc {
				uncRenames = append(uncRenames, sub)
			} else {
				report.Substitutions = append(report.Substitutions, sub)
			}
			continue
		}
		if !allowRemoval {
			return nil, report, errors.InvalidColumn(col, n.db.Name())
		}
		report.Removed = append(report.Removed, col)
	}
	// An uncertainty rename is reported unless its value column was renamed
	// alongside it.
	for _, sub := range uncRenames {
		if _, paired := rename[strings.TrimSuffix(sub.From, n.suffix)]; !paired {
			report.Substitutions = append(report.Substitutions, sub)
		}
	}

	out := t.Select(append(kept, translated...), rename)
	if !report.Empty() {
		n.logger.Warn(report.String(),
			logging.Int("substitutions", len(report.Substitutions)),
			logging.Strings("removed", report.Removed))
	}
	if n.recorder != nil {
		n.recorder.RecordNormalization(n.db.Name(), len(report.Substitutions), len(report.Removed))
	}
	return out, report, nil
}

// TargetElements runs CheckInputs and returns the elements the retained
// element columns stand for, taken from their valence-stripped master
// species.  dropOH removes H and O.  Only registered elements are returned.
func (n *Normalizer) TargetElements(t *solution.Table, dropOH bool) (chemistry.ElementSet, Report, error) {
	checked, report, err := n.CheckInputs(t, true)
	if err != nil {
		return nil, report, err
	}
	return n.targetsOf(checked, dropOH), report, nil
}

// targetsOf assumes t has already been through CheckInputs.
func (n *Normalizer) targetsOf(t *solution.Table, dropOH bool) chemistry.ElementSet {
	ms := n.db.MasterSpecies()
	targets := chemistry.NewElementSet()
	for _, col := range t.Columns() {
		if n.IsExempt(col) || IsFlag(col) {
			continue
		}
		if _, unc := n.SplitKey(col); unc {
			continue
		}
		if master, ok := ms.MasterNoCharge(col); ok {
			targets = targets.Union(chemistry.Elements(master))
		}
	}
	if dropOH {
		targets = targets.Without("H", "O")
	}
	return chemistry.FilterValid(targets)
}

// SelectInputs keeps only the columns named in lookup, renamed to their
// species, with uncertainty columns following their value column.  Every
// target must be a key the database or the solver accepts.
func (n *Normalizer) SelectInputs(t *solution.Table, lookup map[string]string) (*solution.Table, error) {
	var cols []string
	rename := make(map[string]string)
	claimed := make(map[string]string)

	for _, col := range t.Columns() {
		if _, unc := n.SplitKey(col); unc {
			continue
		}
		species, ok := lookup[col]
		if !ok {
			continue
		}
		if !n.passes(species) {
			return nil, errors.InvalidColumn(species, n.db.Name()).WithDetail("lookup target for column '" + col + "'")
		}
		if prev, dup := claimed[species]; dup {
			return nil, errors.AmbiguousName(species, prev, col)
		}
		claimed[species] = col
		cols = append(cols, col)
		rename[col] = species
		if std := col + n.suffix; t.HasColumn(std) {
			cols = append(cols, std)
			rename[std] = species + n.suffix
		}
	}
	return t.Select(cols, rename), nil
}

// ValueColumns drops uncertainty columns, leaving what SOLUTION blocks
// render.
func (n *Normalizer) ValueColumns(t *solution.Table) *solution.Table {
	var drop []string
	for _, col := range t.Columns() {
		if _, unc := n.SplitKey(col); unc {
			drop = append(drop, col)
		}
	}
	if len(drop) == 0 {
		return t
	}
	return t.Without(drop...)
}

//Personal.AI order the ending
