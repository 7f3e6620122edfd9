package phreeqc

import (
	"sort"
	"strings"

	"github.com/turtacn/phreeqprep/internal/domain/chemistry"
)

// MasterEntry is one SOLUTION_MASTER_SPECIES line.
type MasterEntry struct {
	// Element is the input name solutions are specified with ("Ca",
	// "S(6)", "Alkalinity").
	Element string `json:"element"`

	// Species is the master species ("Ca+2", "SO4-2", "HCO3-").
	Species string `json:"species"`

	// Fields holds the remaining columns (alkalinity, gram formula weight,
	// element weight) verbatim.
	Fields []string `json:"fields,omitempty"`
}

// MasterSpecies is the bidirectional element ↔ master-species table built
// from a database's SOLUTION_MASTER_SPECIES section.  It is never mutated
// after construction.
type MasterSpecies struct {
	entries []MasterEntry

	elementToMaster         map[string]string
	elementToMasterNoCharge map[string]string
	masterToElement         map[string]string
	masterNoChargeToElement map[string]string

	// collisions lists master species claimed by more than one element;
	// the inverse maps keep the first claimant.
	collisions map[string][]string
}

// NewMasterSpecies builds the table from section lines.  The first token
// of each line is the element key and the second is its master species.
// Lines with fewer than two tokens are ignored; a repeated element key keeps
// its first definition.
func NewMasterSpecies(lines []string) *MasterSpecies {
	ms := &MasterSpecies{
		elementToMaster:         make(map[string]string),
		elementToMasterNoCharge: make(map[string]string),
		masterToElement:         make(map[string]string),
		masterNoChargeToElement: make(map[string]string),
		collisions:              make(map[string][]string),
	}
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		el, species := fields[0], fields[1]
		if _, dup := ms.elementToMaster[el]; dup {
			continue
		}
		noCharge := chemistry.StripValence(species)

		ms.entries = append(ms.entries, MasterEntry{Element: el, Species: species, Fields: fields[2:]})
		ms.elementToMaster[el] = species
		ms.elementToMasterNoCharge[el] = noCharge
		ms.claim(ms.masterToElement, species, el)
		if _, taken := ms.masterNoChargeToElement[noCharge]; !taken {
			ms.masterNoChargeToElement[noCharge] = el
		}
	}
	return ms
}

func (ms *MasterSpecies) claim(m map[string]string, key, el string) {
	prev, taken := m[key]
	if !taken {
		m[key] = el
		return
	}
	if prev == el {
		return
	}
	c := ms.collisions[key]
	if len(c) == 0 {
		c = append(c, prev)
	}
	ms.collisions[key] = append(c, el)
}

// Master returns the master species for an element key.
func (ms *MasterSpecies) Master(element string) (string, bool) {
	s, ok := ms.elementToMaster[element]
	return s, ok
}

// MasterNoCharge returns the valence-stripped master species for an element key.
func (ms *MasterSpecies) MasterNoCharge(element string) (string, bool) {
	s, ok := ms.elementToMasterNoCharge[element]
	return s, ok
}

// ElementFor translates a master species back to its element key.
func (ms *MasterSpecies) ElementFor(master string) (string, bool) {
	s, ok := ms.masterToElement[master]
	return s, ok
}

// ElementForNoCharge translates a valence-stripped master species back to its
// element key.
func (ms *MasterSpecies) ElementForNoCharge(master string) (string, bool) {
	s, ok := ms.masterNoChargeToElement[master]
	return s, ok
}

// Translate resolves name to an element key through the master species, then
// the valence-stripped master species.  When several keys share the master
// species the first in database order wins; see Candidates.
func (ms *MasterSpecies) Translate(name string) (string, bool) {
	if el, ok := ms.masterToElement[name]; ok {
		return el, true
	}
	if el, ok := ms.masterNoChargeToElement[name]; ok {
		return el, true
	}
	if el, ok := ms.masterNoChargeToElement[chemistry.StripValence(name)]; ok {
		return el, true
	}
	return "", false
}

// Candidates returns every element key sharing the master species that name
// translates through.  It is empty for unambiguous names.
func (ms *MasterSpecies) Candidates(name string) []string {
	for _, key := range []string{name, chemistry.StripValence(name)} {
		if c, ok := ms.collisions[key]; ok {
			return append([]string(nil), c...)
		}
		if sp, ok := ms.elementToMaster[ms.masterNoChargeToElement[key]]; ok {
			if c, ok := ms.collisions[sp]; ok {
				return append([]string(nil), c...)
			}
		}
	}
	return nil
}

// IsElementKey reports whether name is a valid solution input name.
func (ms *MasterSpecies) IsElementKey(name string) bool {
	_, ok := ms.elementToMaster[name]
	return ok
}

// Collisions returns master species claimed by several element keys, each
// mapped to the claimants in order of appearance.
func (ms *MasterSpecies) Collisions() map[string][]string {
	out := make(map[string][]string, len(ms.collisions))
	for k, v := range ms.collisions {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Entries returns the table rows in database order.
func (ms *MasterSpecies) Entries() []MasterEntry {
	out := make([]MasterEntry, len(ms.entries))
	copy(out, ms.entries)
	return out
}

// ElementKeys returns every element key, sorted.
func (ms *MasterSpecies) ElementKeys() []string {
	out := make([]string, 0, len(ms.elementToMaster))
	for k := range ms.elementToMaster {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ElementToMaster returns a copy of the element → master species map.
func (ms *MasterSpecies) ElementToMaster() map[string]string { return copyMap(ms.elementToMaster) }

// ElementToMasterNoCharge returns a copy of the element → valence-stripped
// master species map.
func (ms *MasterSpecies) ElementToMasterNoCharge() map[string]string {
	return copyMap(ms.elementToMasterNoCharge)
}

// MasterToElement returns a copy of the master species → element map.
func (ms *MasterSpecies) MasterToElement() map[string]string { return copyMap(ms.masterToElement) }

// MasterNoChargeToElement returns a copy of the valence-stripped master
// species → element map.
func (ms *MasterSpecies) MasterNoChargeToElement() map[string]string {
	return copyMap(ms.masterNoChargeToElement)
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Database queries over the master table
// ─────────────────────────────────────────────────────────────────────────────

// MasterSpeciesFor returns the element keys whose element tokens all belong
// to targets, in database order.  Keys without any registered element
// ("Alkalinity", "E") are never returned.
func (db *Database) MasterSpeciesFor(targets chemistry.ElementSet) []string {
	var out []string
	for _, e := range db.master.entries {
		els := chemistry.Elements(e.Element)
		if els.Len() == 0 || !els.Intersects(targets) || !els.SubsetOf(targets) {
			continue
		}
		out = append(out, e.Element)
	}
	db.observeQuery("master_species", len(out))
	return out
}

// ValidSpecies returns the master table sorted by element key.
func (db *Database) ValidSpecies() []MasterEntry {
	out := db.master.Entries()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Element < out[j].Element })
	return out
}

//Personal.AI order the ending
