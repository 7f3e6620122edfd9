// Package solution defines the composition table exchanged between the CLI,
// the HTTP API and the speciation service: named rows of key → value where
// a value is a number, free text or missing.
package solution

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind tags the content of a Value.
type Kind int

const (
	KindMissing Kind = iota
	KindNumber
	KindText
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "missing"
	}
}

// Value is one cell of a composition table.
type Value struct {
	kind Kind
	num  float64
	text string
}

// Number returns a numeric Value.  NaN is stored as missing.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// Text returns a string Value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Missing returns the empty Value.
func Missing() Value { return Value{} }

// missingTokens are cell spellings read as missing.
var missingTokens = map[string]bool{"": true, "na": true, "nan": true, "null": true, "none": true}

// ParseValue reads a cell from text: blanks and NA-like tokens are missing,
// numbers are numeric and anything else is text.
func ParseValue(s string) Value {
	s = strings.TrimSpace(s)
	if missingTokens[strings.ToLower(s)] {
		return Value{}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Number(f)
	}
	return Text(s)
}

// Kind returns the value kind.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether the cell is empty.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Float returns the numeric content.
func (v Value) Float() (float64, bool) { return v.num, v.kind == KindNumber }

// Str returns the textual content.
func (v Value) Str() (string, bool) { return v.text, v.kind == KindText }

// String renders the value for display.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindText:
		return v.text
	default:
		return ""
	}
}

// MarshalJSON encodes numbers as JSON numbers, text as strings and missing
// as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		if math.IsInf(v.num, 0) {
			return json.Marshal(v.String())
		}
		return json.Marshal(v.num)
	case KindText:
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON is the inverse of MarshalJSON.  Strings are kept as text
// verbatim.
func (v *Value) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*v = Value{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*v = Text(str)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("solution: value %s is neither number, string nor null", s)
	}
	*v = Number(f)
	return nil
}

//Personal.AI order the ending
