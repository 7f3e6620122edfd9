package chemistry

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/turtacn/phreeqprep/pkg/errors"
)

var (
	// reElement matches an element token: one capital and up to two lower
	// case letters.
	reElement = regexp.MustCompile(`[A-Z][a-z]{0,2}`)

	// reValence matches a trailing charge: "+2", "-", "--", "+++".
	reValence = regexp.MustCompile(`(\++|-+|[+-]\d+)$`)

	// reMultiplier matches a leading stoichiometric coefficient.
	reMultiplier = regexp.MustCompile(`^\d+(\.\d+)?`)
)

// Composition is the element breakdown of a chemical formula.
type Composition struct {
	// Counts maps element symbol to the number of atoms.
	Counts map[string]int `json:"counts"`

	// Valence is the signed charge ("+2", "-1") or empty when the formula
	// carries none.
	Valence string `json:"valence,omitempty"`
}

// Count returns the atom count for el, zero when absent.
func (c Composition) Count(el string) int {
	return c.Counts[el]
}

// Elements returns the set of elements present in the composition.
func (c Composition) Elements() ElementSet {
	s := make(ElementSet, len(c.Counts))
	for k := range c.Counts {
		s[k] = struct{}{}
	}
	return s
}

// Decompose breaks formula into element counts, each scaled by n.
//
// Parenthesised and bracketed groups nest to any depth and every group
// contributes to the total, so "Al(OH)2(SO4)" yields Al 1, O 6, H 2, S 1.
// Hydrate segments separated by ':' take their own leading coefficient
// ("CaSO4:2H2O").  A fractional coefficient counts as 1 here; DecomposeCount
// rejects it.  The valence is read from the end of the formula and is
// unaffected by n.
func Decompose(formula string, n int) Composition {
	if n == 0 {
		n = 1
	}
	formula = strings.TrimSpace(formula)
	counts := make(map[string]int)

	body, valence := splitValence(formula)
	for _, seg := range strings.Split(body, ":") {
		mult := 1
		if m := reMultiplier.FindString(seg); m != "" {
			if v, err := strconv.Atoi(m); err == nil && v > 0 {
				mult = v
			}
			seg = seg[len(m):]
		}
		accumulate(counts, seg, n*mult)
	}
	return Composition{Counts: counts, Valence: valence}
}

// DecomposeCount is Decompose with the repeat count given as text.  An empty
// count means 1.  Hydrate segments with a fractional coefficient
// ("CaSO4:0.5H2O") fail with InvalidFormula since counts are whole atoms.
func DecomposeCount(formula, count string) (Composition, error) {
	if seg, ok := fractionalSegment(formula); ok {
		return Composition{}, errors.Newf(errors.ErrCodeInvalidFormula,
			"fractional coefficient in segment %q of %q", seg, formula)
	}
	n := 1
	if count = strings.TrimSpace(count); count != "" {
		v, err := strconv.Atoi(count)
		if err != nil || v < 1 {
			return Composition{}, errors.Newf(errors.ErrCodeInvalidFormula,
				"invalid repeat count %q for %q", count, formula)
		}
		n = v
	}
	return Decompose(formula, n), nil
}

// fractionalSegment returns the first hydrate segment of formula whose
// leading coefficient is not an integer.
func fractionalSegment(formula string) (string, bool) {
	for _, seg := range strings.Split(strings.TrimSpace(formula), ":") {
		if m := reMultiplier.FindString(seg); strings.Contains(m, ".") {
			return seg, true
		}
	}
	return "", false
}

// accumulate scans s adding element counts times mult into acc.  Digits that
// do not directly follow an element or a closing group are ignored.
func accumulate(acc map[string]int, s string, mult int) {
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '(' || c == '[':
			end := matchingClose(s, i)
			if end < 0 {
				i++
				continue
			}
			inner := s[i+1 : end]
			k, next := readCount(s, end+1)
			accumulate(acc, inner, mult*k)
			i = next
		case c >= 'A' && c <= 'Z':
			j := i + 1
			for j < len(s) && j-i < 3 && s[j] >= 'a' && s[j] <= 'z' {
				j++
			}
			sym := s[i:j]
			k, next := readCount(s, j)
			acc[sym] += k * mult
			i = next
		default:
			i++
		}
	}
}

// matchingClose returns the index of the bracket closing the one at open,
// or -1 when unbalanced.
func matchingClose(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// readCount parses the digits starting at i; absent digits mean 1.
func readCount(s string, i int) (int, int) {
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == i {
		return 1, i
	}
	v, err := strconv.Atoi(s[i:j])
	if err != nil {
		return 1, j
	}
	return v, j
}

// splitValence separates a trailing charge from formula and normalises it
// to sign plus magnitude.
func splitValence(formula string) (string, string) {
	loc := reValence.FindStringIndex(formula)
	if loc == nil || loc[0] == 0 {
		return formula, ""
	}
	raw := formula[loc[0]:]
	body := formula[:loc[0]]
	sign := raw[:1]
	if digits := strings.TrimLeft(raw, "+-"); digits != "" {
		return body, sign + digits
	}
	return body, sign + strconv.Itoa(len(raw))
}

// StripValence removes a trailing charge from a species name ("CO3-2" →
// "CO3", "Fe+3" → "Fe").
func StripValence(species string) string {
	body, _ := splitValence(species)
	return body
}

// StripMultiplier splits a leading stoichiometric coefficient from a
// reaction token ("2H2O" → 2, "H2O").  Tokens without one return 1.
func StripMultiplier(token string) (float64, string) {
	m := reMultiplier.FindString(token)
	if m == "" || m == token {
		return 1, token
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 1, token
	}
	return v, token[len(m):]
}

// Elements returns the distinct element tokens appearing in formula,
// ignoring counts, charges and membership in the registry.
func Elements(formula string) ElementSet {
	s := make(ElementSet)
	for _, m := range reElement.FindAllString(formula, -1) {
		s[m] = struct{}{}
	}
	return s
}

// IsValidMolecule reports whether every element token of formula is a
// registered element.
func IsValidMolecule(formula string) bool {
	return Elements(formula).SubsetOf(validElements)
}

//Personal.AI order the ending
