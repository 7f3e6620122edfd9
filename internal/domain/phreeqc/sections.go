package phreeqc

import (
	"strings"

	"github.com/turtacn/phreeqprep/pkg/errors"
)

// SectionNames lists indexed sections in order of first appearance.
func (db *Database) SectionNames() []string {
	out := make([]string, len(db.order))
	copy(out, db.order)
	return out
}

// HasSection reports whether name is indexed.
func (db *Database) HasSection(name string) bool {
	_, ok := db.sections[name]
	return ok
}

// SectionRange returns the line range of name.
func (db *Database) SectionRange(name string) (Range, error) {
	r, ok := db.sections[name]
	if !ok {
		return Range{}, errors.UnknownSection(name, db.order)
	}
	return r, nil
}

// WalkSection calls fn for every line strictly between the section header
// and the section end, with trailing comments removed.  Iteration stops
// early when fn returns false.
func (db *Database) WalkSection(name string, fn func(line string) bool) error {
	return db.walk(name, true, fn)
}

// WalkRawSection is WalkSection without comment stripping.
func (db *Database) WalkRawSection(name string, fn func(line string) bool) error {
	return db.walk(name, false, fn)
}

func (db *Database) walk(name string, stripComments bool, fn func(string) bool) error {
	r, err := db.SectionRange(name)
	if err != nil {
		return err
	}
	for i := r.Start + 1; i < r.End; i++ {
		line := db.lines[i]
		if stripComments {
			line = StripComment(line)
		}
		if !fn(line) {
			return nil
		}
	}
	return nil
}

// Section collects the lines of a section, trailing comments removed.
func (db *Database) Section(name string) ([]string, error) {
	r, err := db.SectionRange(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, r.Len())
	_ = db.WalkSection(name, func(line string) bool {
		out = append(out, line)
		return true
	})
	return out, nil
}

// StripComment drops everything from the first comment marker on.
func StripComment(line string) string {
	if i := strings.Index(line, commentMarker); i >= 0 {
		return line[:i]
	}
	return line
}

//Personal.AI order the ending
