package phreeqc

import (
	"strings"

	"github.com/turtacn/phreeqprep/internal/domain/chemistry"
)

// reactionDivider separates reactants from products.
const reactionDivider = "="

// Reaction is a parsed "reactants = products" entry line.
type Reaction struct {
	Reactants []string `json:"reactants"`
	Products  []string `json:"products"`
}

// SplitReaction tokenises a reaction line.  "+" and empty tokens are
// discarded.  A line without a divider yields only reactants.
func SplitReaction(line string) Reaction {
	left, right, found := strings.Cut(line, reactionDivider)
	r := Reaction{Reactants: tokens(left)}
	if found {
		r.Products = tokens(right)
	}
	return r
}

func tokens(side string) []string {
	var out []string
	for _, tok := range strings.Fields(side) {
		if tok == "+" {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// String rejoins the reaction with " + " between species and " = " between
// the sides.
func (r Reaction) String() string {
	return strings.Join(r.Reactants, " + ") + " " + reactionDivider + " " + strings.Join(r.Products, " + ")
}

// IsReaction reports whether the line is a reaction definition.
func IsReaction(line string) bool {
	return strings.Contains(line, reactionDivider)
}

// SpeciesOptions tunes SpeciesFor.
type SpeciesOptions struct {
	// AllowForeign admits product species that mix target and non-target
	// elements.  When false a species must consist of target elements only
	// (plus H, C and O when AllowHCO is set).
	AllowForeign bool

	// AllowHCO widens the subset check with H, C and O.
	AllowHCO bool
}

// DefaultSpeciesOptions admits foreign elements and H/C/O.
func DefaultSpeciesOptions() SpeciesOptions {
	return SpeciesOptions{AllowForeign: true, AllowHCO: true}
}

// Reactions returns the parsed reaction lines of section.  The result is
// memoised and shared; callers must not modify it.
func (db *Database) Reactions(section string) ([]Reaction, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if rs, ok := db.reactions[section]; ok {
		return rs, nil
	}
	var rs []Reaction
	err := db.WalkSection(section, func(line string) bool {
		if IsReaction(line) {
			rs = append(rs, SplitReaction(line))
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	db.reactions[section] = rs
	return rs, nil
}

// SpeciesFor returns the distinct product species of section whose elements
// intersect targets, in order of first appearance.  Reactants are never
// reported and leading stoichiometric multipliers are removed.
func (db *Database) SpeciesFor(targets chemistry.ElementSet, section string, opts SpeciesOptions) ([]string, error) {
	if section == "" {
		section = SectionSolutionSpecies
	}
	rs, err := db.Reactions(section)
	if err != nil {
		return nil, err
	}

	allowed := targets
	if opts.AllowHCO {
		allowed = targets.Union(chemistry.HCO)
	}

	seen := make(map[string]struct{})
	var out []string
	for _, r := range rs {
		for _, p := range r.Products {
			_, species := chemistry.StripMultiplier(p)
			if _, dup := seen[species]; dup {
				continue
			}
			els := chemistry.Elements(species)
			if !els.Intersects(targets) {
				continue
			}
			if !opts.AllowForeign && !els.SubsetOf(allowed) {
				continue
			}
			seen[species] = struct{}{}
			out = append(out, species)
		}
	}
	db.observeQuery("species", len(out))
	return out, nil
}

//Personal.AI order the ending
