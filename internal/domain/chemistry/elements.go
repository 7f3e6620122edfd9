// Package chemistry holds the element registry and the formula decomposer
// used by the database query engine.  Everything here is pure and safe for
// concurrent use.
package chemistry

import (
	"sort"
	"strings"
)

// ElementSet is an unordered set of element symbols.
type ElementSet map[string]struct{}

// NewElementSet builds a set from the given symbols.
func NewElementSet(symbols ...string) ElementSet {
	s := make(ElementSet, len(symbols))
	for _, sym := range symbols {
		s[sym] = struct{}{}
	}
	return s
}

// Add inserts symbols into the set.
func (s ElementSet) Add(symbols ...string) {
	for _, sym := range symbols {
		s[sym] = struct{}{}
	}
}

// Has reports whether sym is a member.
func (s ElementSet) Has(sym string) bool {
	_, ok := s[sym]
	return ok
}

// Len returns the number of members.
func (s ElementSet) Len() int { return len(s) }

// Clone returns an independent copy.
func (s ElementSet) Clone() ElementSet {
	out := make(ElementSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Union returns a new set holding the members of s and o.
func (s ElementSet) Union(o ElementSet) ElementSet {
	out := s.Clone()
	for k := range o {
		out[k] = struct{}{}
	}
	return out
}

// Intersect returns a new set holding the members common to s and o.
func (s ElementSet) Intersect(o ElementSet) ElementSet {
	out := make(ElementSet)
	for k := range s {
		if o.Has(k) {
			out[k] = struct{}{}
		}
	}
	return out
}

// Intersects reports whether s and o share at least one member.
func (s ElementSet) Intersects(o ElementSet) bool {
	small, large := s, o
	if len(small) > len(large) {
		small, large = large, small
	}
	for k := range small {
		if large.Has(k) {
			return true
		}
	}
	return false
}

// SubsetOf reports whether every member of s is in o.  The empty set is a
// subset of everything.
func (s ElementSet) SubsetOf(o ElementSet) bool {
	for k := range s {
		if !o.Has(k) {
			return false
		}
	}
	return true
}

// Without returns a copy of s with the given symbols removed.
func (s ElementSet) Without(symbols ...string) ElementSet {
	out := s.Clone()
	for _, sym := range symbols {
		delete(out, sym)
	}
	return out
}

// Sorted returns the members in lexical order.
func (s ElementSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// String renders the set as space separated sorted symbols.
func (s ElementSet) String() string {
	return strings.Join(s.Sorted(), " ")
}

// ─────────────────────────────────────────────────────────────────────────────
// Registry
// ─────────────────────────────────────────────────────────────────────────────

// validElements holds the periodic table up to Cn plus the systematic
// placeholder names still found in older thermodynamic databases.
var validElements = NewElementSet(
	"H", "He", "Li", "Be", "B", "C", "N", "O", "F", "Ne", "Na", "Mg",
	"Al", "Si", "P", "S", "Cl", "Ar", "K", "Ca", "Sc", "Ti", "V", "Cr",
	"Mn", "Fe", "Co", "Ni", "Cu", "Zn", "Ga", "Ge", "As", "Se", "Br",
	"Kr", "Rb", "Sr", "Y", "Zr", "Nb", "Mo", "Tc", "Ru", "Rh", "Pd",
	"Ag", "Cd", "In", "Sn", "Sb", "Te", "I", "Xe", "Cs", "Ba", "La",
	"Ce", "Pr", "Nd", "Pm", "Sm", "Eu", "Gd", "Tb", "Dy", "Ho", "Er",
	"Tm", "Yb", "Lu", "Hf", "Ta", "W", "Re", "Os", "Ir", "Pt", "Au",
	"Hg", "Tl", "Pb", "Bi", "Po", "At", "Rn", "Fr", "Ra", "Ac", "Th",
	"Pa", "U", "Np", "Pu", "Am", "Cm", "Bk", "Cf", "Es", "Fm", "Md",
	"No", "Lr", "Rf", "Db", "Sg", "Bh", "Hs", "Mt", "Ds", "Rg", "Cn",
	"Uut", "Uuq", "Uup", "Uuh", "Uuo",
)

// HCO is the water/carbonate background set used by the lenient filters.
var HCO = NewElementSet("H", "C", "O")

// Registry returns a copy of the set of valid element symbols.
func Registry() ElementSet {
	return validElements.Clone()
}

// IsValidElement reports whether sym is a known element symbol.
func IsValidElement(sym string) bool {
	return validElements.Has(sym)
}

// FilterValid returns the members of s that are registered elements.
func FilterValid(s ElementSet) ElementSet {
	return s.Intersect(validElements)
}

//Personal.AI order the ending
