package solution

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/phreeqprep/pkg/errors"
)

// Row is one named solution.
type Row struct {
	Name   string
	Values map[string]Value
}

// Get returns the value under key, missing when absent.
func (r Row) Get(key string) Value { return r.Values[key] }

// Table is an ordered composition table.  Column order is the order keys
// were first seen and is preserved by every transformation.
type Table struct {
	columns []string
	index   map[string]int
	rows    []Row
}

// NewTable returns an empty table with the given columns.
func NewTable(columns ...string) *Table {
	t := &Table{index: make(map[string]int)}
	for _, c := range columns {
		t.addColumn(c)
	}
	return t
}

func (t *Table) addColumn(c string) {
	if _, ok := t.index[c]; ok {
		return
	}
	t.index[c] = len(t.columns)
	t.columns = append(t.columns, c)
}

// AddRow appends a row.  Keys not yet in the table become new trailing
// columns, in the order given by keys; remaining keys of values follow in
// lexical order.  An empty name defaults to the 1-based row position.
func (t *Table) AddRow(name string, keys []string, values map[string]Value) {
	if name == "" {
		name = strconv.Itoa(len(t.rows) + 1)
	}
	for _, k := range keys {
		t.addColumn(k)
	}
	extra := make([]string, 0)
	for k := range values {
		if _, ok := t.index[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		t.addColumn(k)
	}

	vals := make(map[string]Value, len(values))
	for k, v := range values {
		vals[k] = v
	}
	t.rows = append(t.rows, Row{Name: name, Values: vals})
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether c is a column.
func (t *Table) HasColumn(c string) bool {
	_, ok := t.index[c]
	return ok
}

// Rows returns the rows.  The maps are shared; use Clone before mutating.
func (t *Table) Rows() []Row { return t.rows }

// Len returns the row count.
func (t *Table) Len() int { return len(t.rows) }

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := NewTable(t.columns...)
	for _, r := range t.rows {
		out.AddRow(r.Name, nil, r.Values)
	}
	return out
}

// Select returns a table with only cols, in the order given, renamed through
// rename when a mapping exists.  Unknown columns are skipped.
func (t *Table) Select(cols []string, rename map[string]string) *Table {
	target := func(c string) string {
		if n, ok := rename[c]; ok {
			return n
		}
		return c
	}

	kept := make([]string, 0, len(cols))
	for _, c := range cols {
		if t.HasColumn(c) {
			kept = append(kept, c)
		}
	}
	names := make([]string, len(kept))
	for i, c := range kept {
		names[i] = target(c)
	}

	out := NewTable(names...)
	for _, r := range t.rows {
		vals := make(map[string]Value, len(kept))
		for _, c := range kept {
			if v, ok := r.Values[c]; ok {
				vals[target(c)] = v
			}
		}
		out.rows = append(out.rows, Row{Name: r.Name, Values: vals})
	}
	return out
}

// Without returns a copy with the given columns removed.
func (t *Table) Without(cols ...string) *Table {
	drop := make(map[string]bool, len(cols))
	for _, c := range cols {
		drop[c] = true
	}
	keep := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		if !drop[c] {
			keep = append(keep, c)
		}
	}
	return t.Select(keep, nil)
}

// Records returns each row as an ordered slice of key/value pairs, skipping
// missing values.
func (t *Table) Records() [][]Cell {
	out := make([][]Cell, 0, len(t.rows))
	for _, r := range t.rows {
		cells := make([]Cell, 0, len(t.columns))
		for _, c := range t.columns {
			v, ok := r.Values[c]
			if !ok || v.IsMissing() {
				continue
			}
			cells = append(cells, Cell{Key: c, Value: v})
		}
		out = append(out, cells)
	}
	return out
}

// Cell is one key/value pair of a row.
type Cell struct {
	Key   string
	Value Value
}

// ─────────────────────────────────────────────────────────────────────────────
// CSV
// ─────────────────────────────────────────────────────────────────────────────

// labelColumns name the header cell of a row-label column.
var labelColumns = map[string]bool{"": true, "name": true, "sample": true, "id": true, "solution": true}

// ReadCSV reads a table whose first record is the header.  When the first
// header cell is blank or one of name/sample/id/solution that column labels
// the rows instead of holding data.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrCodeEmptyTable, "composition table is empty")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to read CSV header")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	labelled := labelColumns[strings.ToLower(header[0])]
	keys := header
	if labelled {
		keys = header[1:]
	}

	t := NewTable(keys...)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to read CSV record").
				WithDetail(fmt.Sprintf("line %d", line))
		}
		name := ""
		if labelled && len(rec) > 0 {
			name, rec = strings.TrimSpace(rec[0]), rec[1:]
		}
		vals := make(map[string]Value, len(keys))
		for i, k := range keys {
			if i < len(rec) {
				if v := ParseValue(rec[i]); !v.IsMissing() {
					vals[k] = v
				}
			}
		}
		t.AddRow(name, nil, vals)
	}
	if t.Len() == 0 {
		return nil, errors.New(errors.ErrCodeEmptyTable, "composition table has no rows")
	}
	return t, nil
}

// WriteCSV writes the table with a leading "name" column.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"name"}, t.columns...)); err != nil {
		return err
	}
	for _, r := range t.rows {
		rec := make([]string, 0, len(t.columns)+1)
		rec = append(rec, r.Name)
		for _, c := range t.columns {
			rec = append(rec, r.Values[c].String())
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ─────────────────────────────────────────────────────────────────────────────
// JSON
// ─────────────────────────────────────────────────────────────────────────────

// MarshalJSON encodes the table as an object of row name → object of
// column → value, keys in table order.  Missing values are omitted.
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range t.rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, _ := json.Marshal(r.Name)
		buf.Write(name)
		buf.WriteString(":{")
		first := true
		for _, c := range t.columns {
			v, ok := r.Values[c]
			if !ok || v.IsMissing() {
				continue
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			key, _ := json.Marshal(c)
			val, err := v.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts either an object of named row objects or an array
// of row objects.  Key order in the document becomes column order.
func (t *Table) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "invalid composition table")
	}
	*t = *NewTable()

	switch tok {
	case json.Delim('{'):
		for dec.More() {
			nameTok, err := dec.Token()
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeSerialization, "invalid composition table")
			}
			if err := t.decodeRow(dec, nameTok.(string)); err != nil {
				return err
			}
		}
	case json.Delim('['):
		for dec.More() {
			if err := t.decodeRow(dec, ""); err != nil {
				return err
			}
		}
	default:
		return errors.New(errors.ErrCodeSerialization, "composition table must be a JSON object or array")
	}
	if _, err := dec.Token(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "invalid composition table")
	}
	return nil
}

func (t *Table) decodeRow(dec *json.Decoder, name string) error {
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return errors.New(errors.ErrCodeSerialization, "composition row must be a JSON object").WithDetail(name)
	}
	var keys []string
	vals := make(map[string]Value)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "invalid composition row")
		}
		key := keyTok.(string)
		var v Value
		if err := dec.Decode(&v); err != nil {
			return errors.Wrap(err, errors.ErrCodeInvalidValue, "invalid value").WithDetail(key)
		}
		keys = append(keys, key)
		if !v.IsMissing() {
			vals[key] = v
		}
	}
	if _, err := dec.Token(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "invalid composition row")
	}
	t.AddRow(name, keys, vals)
	return nil
}

// ReadJSON decodes a table from r.
func ReadJSON(r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to read composition table")
	}
	t := NewTable()
	if err := json.Unmarshal(raw, t); err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return nil, errors.New(errors.ErrCodeEmptyTable, "composition table has no rows")
	}
	return t, nil
}

//Personal.AI order the ending
