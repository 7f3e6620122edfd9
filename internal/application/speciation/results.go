package speciation

import (
	"fmt"
	"math"
	"regexp"

	"github.com/turtacn/phreeqprep/pkg/errors"
	"github.com/turtacn/phreeqprep/pkg/types/solution"
)

// Measure is the quantity a solver result column reports.
type Measure string

const (
	MeasureMolality      Measure = "molality"
	MeasureTotal         Measure = "total"
	MeasureLogActivity   Measure = "log10_activity"
	MeasureLogSaturation Measure = "log10_saturation"
	MeasureGeneral       Measure = "general"
)

// MissingSentinel is what the solver writes for quantities it could not
// compute.
const MissingSentinel = -999.999

// columnPatterns are tried in order; the first match classifies a column.
var columnPatterns = []struct {
	measure Measure
	re      *regexp.Regexp
}{
	{MeasureMolality, regexp.MustCompile(`^m_(.+)\(mol/kgw\)$`)},
	{MeasureLogActivity, regexp.MustCompile(`^la_(.+)$`)},
	{MeasureLogSaturation, regexp.MustCompile(`^si_(.+)$`)},
	{MeasureTotal, regexp.MustCompile(`^(.+)\(mol/kgw\)$`)},
}

// ResultColumn is a classified solver output column.
type ResultColumn struct {
	Raw     string  `json:"raw"`
	Measure Measure `json:"measure"`
	Name    string  `json:"name"`
}

// ClassifyColumn assigns a measure to a solver column heading:
// "m_<species>(mol/kgw)", "<element>(mol/kgw)", "la_<species>",
// "si_<phase>"; anything else is general and keeps its heading as name.
func ClassifyColumn(raw string) ResultColumn {
	for _, p := range columnPatterns {
		if m := p.re.FindStringSubmatch(raw); m != nil {
			return ResultColumn{Raw: raw, Measure: p.measure, Name: m[1]}
		}
	}
	return ResultColumn{Raw: raw, Measure: MeasureGeneral, Name: raw}
}

// ClassifyColumns classifies every heading.
func ClassifyColumns(raws []string) []ResultColumn {
	out := make([]ResultColumn, len(raws))
	for i, r := range raws {
		out[i] = ClassifyColumn(r)
	}
	return out
}

// ResultTable is a solver's selected-output array with classified columns.
type ResultTable struct {
	Columns []ResultColumn     `json:"columns"`
	Rows    [][]solution.Value `json:"rows"`
}

// NewResultTable builds a table from the solver's array: the first row holds
// headings and the rest hold numbers or strings.  The missing sentinel
// becomes a missing value.
func NewResultTable(array [][]interface{}) (*ResultTable, error) {
	if len(array) == 0 {
		return nil, errors.New(errors.ErrCodeResultMismatch, "result array is empty")
	}
	headings := make([]string, len(array[0]))
	for i, h := range array[0] {
		headings[i] = fmt.Sprint(h)
	}

	t := &ResultTable{Columns: ClassifyColumns(headings)}
	for r, raw := range array[1:] {
		if len(raw) != len(headings) {
			return nil, errors.Newf(errors.ErrCodeResultMismatch,
				"result row %d has %d values, expected %d", r+1, len(raw), len(headings))
		}
		row := make([]solution.Value, len(raw))
		for i, cell := range raw {
			row[i] = resultValue(cell)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func resultValue(cell interface{}) solution.Value {
	switch v := cell.(type) {
	case nil:
		return solution.Missing()
	case float64:
		if math.Abs(v-MissingSentinel) < 1e-9 {
			return solution.Missing()
		}
		return solution.Number(v)
	case float32:
		return resultValue(float64(v))
	case int:
		return solution.Number(float64(v))
	case int64:
		return solution.Number(float64(v))
	case string:
		return solution.ParseValue(v)
	default:
		return solution.Text(fmt.Sprint(v))
	}
}

// Series returns the column with the given measure and name.
func (t *ResultTable) Series(measure Measure, name string) ([]solution.Value, bool) {
	for i, c := range t.Columns {
		if c.Measure != measure || c.Name != name {
			continue
		}
		out := make([]solution.Value, len(t.Rows))
		for r, row := range t.Rows {
			out[r] = row[i]
		}
		return out, true
	}
	return nil, false
}

// Names lists the names reported under measure, in column order.
func (t *ResultTable) Names(measure Measure) []string {
	var out []string
	for _, c := range t.Columns {
		if c.Measure == measure {
			out = append(out, c.Name)
		}
	}
	return out
}

//Personal.AI order the ending
