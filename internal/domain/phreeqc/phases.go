package phreeqc

import (
	"strings"

	"github.com/turtacn/phreeqprep/internal/domain/chemistry"
)

// Phase is one entry of the PHASES section.
type Phase struct {
	Name string `json:"name"`

	// Formula is the first reactant of the dissolution reaction.
	Formula string `json:"formula"`

	// Reaction is the dissolution reaction.  It is empty when the entry
	// defines none.
	Reaction Reaction `json:"reaction"`

	// Details holds the indented lines under the name, left-trimmed.
	Details []string `json:"details,omitempty"`
}

// Phases returns the parsed PHASES section in database order.  Header lines
// carry no leading indentation; indented lines belong to the preceding
// header.  Indented lines before the first header are ignored and a repeated
// name replaces the earlier definition in place.
func (db *Database) Phases() ([]Phase, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.phaseIdx != nil {
		return db.phases, nil
	}

	var phases []Phase
	idx := make(map[string]int)
	cur := -1
	err := db.WalkSection(SectionPhases, func(line string) bool {
		if strings.TrimSpace(line) == "" {
			return true
		}
		if !isIndented(line) {
			name := strings.Fields(line)[0]
			if i, dup := idx[name]; dup {
				phases[i] = Phase{Name: name}
				cur = i
				return true
			}
			idx[name] = len(phases)
			phases = append(phases, Phase{Name: name})
			cur = len(phases) - 1
			return true
		}
		if cur < 0 {
			return true
		}
		p := &phases[cur]
		detail := strings.TrimSpace(line)
		p.Details = append(p.Details, detail)
		if p.Formula == "" && IsReaction(detail) {
			p.Reaction = SplitReaction(detail)
			if len(p.Reaction.Reactants) > 0 {
				_, p.Formula = chemistry.StripMultiplier(p.Reaction.Reactants[0])
			}
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	db.phases = phases
	db.phaseIdx = idx
	return phases, nil
}

func isIndented(line string) bool {
	return line != "" && (line[0] == ' ' || line[0] == '\t')
}

// Phase looks a phase up by name.
func (db *Database) Phase(name string) (Phase, bool, error) {
	if _, err := db.Phases(); err != nil {
		return Phase{}, false, err
	}
	i, ok := db.phaseIdx[name]
	if !ok {
		return Phase{}, false, nil
	}
	return db.phases[i], true, nil
}

// HasPhase reports whether the database defines name.  Databases without
// a PHASES section define none.
func (db *Database) HasPhase(name string) bool {
	_, ok, err := db.Phase(name)
	return err == nil && ok
}

// PhasesFor returns the names of phases whose formula involves targets and
// consists only of target elements, widened with H, C and O when allowHCO
// is set.
func (db *Database) PhasesFor(targets chemistry.ElementSet, allowHCO bool) ([]string, error) {
	phases, err := db.Phases()
	if err != nil {
		return nil, err
	}
	allowed := targets
	if allowHCO {
		allowed = targets.Union(chemistry.HCO)
	}

	var out []string
	for _, p := range phases {
		if p.Formula == "" {
			continue
		}
		els := chemistry.Elements(p.Formula)
		if els.Intersects(targets) && els.SubsetOf(allowed) {
			out = append(out, p.Name)
		}
	}
	db.observeQuery("phases", len(out))
	return out, nil
}

//Personal.AI order the ending
