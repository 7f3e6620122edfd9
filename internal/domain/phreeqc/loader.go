// Package phreeqc parses PHREEQC-format thermodynamic databases and answers
// structural queries over them: which sections exist, which master species
// an element maps to, and which solution species or mineral phases involve a
// given set of elements.
//
// A Database is immutable once Load returns.  Parsed reaction and phase
// entries are memoised on first use, so a single Database may be shared by
// any number of goroutines.
package phreeqc

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/phreeqprep/pkg/errors"
)

// Well-known section names.
const (
	SectionMasterSpecies   = "SOLUTION_MASTER_SPECIES"
	SectionSolutionSpecies = "SOLUTION_SPECIES"
	SectionPhases          = "PHASES"
)

// commentMarker starts a full-line or trailing comment.
const commentMarker = "#"

// maxLineBytes bounds a single database line.  Some bundled databases carry
// very long analytical-expression lines.
const maxLineBytes = 1 << 20

var reSectionHeader = regexp.MustCompile(`^[A-Z_]+$`)

// Range is a half-open line range [Start, End) within Database.Lines.  Start
// is the header line itself.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len is the number of entry lines in the range, excluding the header.
func (r Range) Len() int {
	if r.End-r.Start <= 1 {
		return 0
	}
	return r.End - r.Start - 1
}

// LoadOptions controls how Load reads a database.
type LoadOptions struct {
	// Name identifies the database.  Defaults to the base name of Path
	// without extension.
	Name string

	// Path is recorded on the Database for reporting only.
	Path string

	// KeepComments retains full-line comments in Lines.  Section lookups
	// still strip trailing comments.
	KeepComments bool

	Logger logging.Logger

	// Observer receives load timings.  Optional.
	Observer Observer
}

// Observer receives measurements from database loads and queries.
type Observer interface {
	ObserveLoad(database string, lines int, elapsed time.Duration, err error)
	ObserveQuery(database, query string, results int)
}

// Database is a loaded, section-indexed chemistry database.
type Database struct {
	name     string
	path     string
	lines    []string
	sections map[string]Range
	order    []string
	master   *MasterSpecies
	logger   logging.Logger
	observer Observer

	mu        sync.Mutex
	reactions map[string][]Reaction
	phases    []Phase
	phaseIdx  map[string]int
}

// Load reads database text from r, removes blank lines and comments, indexes
// its sections and builds the master-species table.  Any failure is fatal:
// no partially loaded Database is returned.
func Load(r io.Reader, opts LoadOptions) (*Database, error) {
	start := time.Now()
	logger := logging.OrDefault(opts.Logger)

	name := opts.Name
	if name == "" {
		name = DatabaseName(opts.Path)
	}

	lines, err := readLines(r, opts.KeepComments)
	if err != nil {
		err = errors.Wrap(err, errors.ErrCodeDatabaseParse, "failed to read database").WithDetail(name)
		if opts.Observer != nil {
			opts.Observer.ObserveLoad(name, 0, time.Since(start), err)
		}
		return nil, err
	}

	db := &Database{
		name:      name,
		path:      opts.Path,
		lines:     lines,
		logger:    logger.With(logging.Database(name)),
		observer:  opts.Observer,
		reactions: make(map[string][]Reaction),
	}
	db.indexSections()

	masterLines, err := db.Section(SectionMasterSpecies)
	if err != nil {
		err = errors.Wrap(err, errors.ErrCodeMissingMasterTable,
			"database has no "+SectionMasterSpecies+" section").WithDetail(name)
		if opts.Observer != nil {
			opts.Observer.ObserveLoad(name, len(lines), time.Since(start), err)
		}
		return nil, err
	}
	db.master = NewMasterSpecies(masterLines)

	elapsed := time.Since(start)
	if opts.Observer != nil {
		opts.Observer.ObserveLoad(name, len(lines), elapsed, nil)
	}
	db.logger.Debug("database loaded",
		logging.String("path", opts.Path),
		logging.Int("lines", len(lines)),
		logging.Int("sections", len(db.order)),
		logging.Int("master_species", len(db.master.entries)),
		logging.Duration("elapsed", elapsed))
	return db, nil
}

// LoadFile opens path and loads it.  A missing file yields DatabaseNotFound.
func LoadFile(path string, opts LoadOptions) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.DatabaseNotFound(path).WithCause(err)
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to open database")
	}
	defer f.Close()

	if opts.Path == "" {
		opts.Path = path
	}
	return Load(f, opts)
}

// LoadSource opens name from src and loads it.
func LoadSource(ctx context.Context, src Source, name string, opts LoadOptions) (*Database, error) {
	rc, path, err := src.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	if opts.Name == "" {
		opts.Name = name
	}
	if opts.Path == "" {
		opts.Path = path
	}
	return Load(rc, opts)
}

// DatabaseName derives a database name from a file path: the base name
// without its extension ("/x/pitzer.v2.dat" → "pitzer.v2"), so the name
// opens the same file again through a DirSource.
func DatabaseName(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

func readLines(r io.Reader, keepComments bool) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	var lines []string
	for sc.Scan() {
		line := strings.TrimRight(strings.ToValidUTF8(sc.Text(), "\uFFFD"), " \t\r\n\v\f")
		if line == "" {
			continue
		}
		if !keepComments && strings.HasPrefix(line, commentMarker) {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// indexSections records a Range for every header line.  Each section ends
// at the next header; the last one ends at the end of the file.  A repeated
// header replaces the earlier range.
func (db *Database) indexSections() {
	db.sections = make(map[string]Range)
	current := ""
	for i, line := range db.lines {
		if !reSectionHeader.MatchString(line) {
			continue
		}
		if current != "" {
			db.closeSection(current, i)
		}
		current = line
		if _, dup := db.sections[line]; dup {
			db.logger.Warn("duplicate section header, later block replaces earlier",
				logging.Section(line), logging.Int("line", i))
		} else {
			db.order = append(db.order, line)
		}
		db.sections[line] = Range{Start: i, End: len(db.lines)}
	}
	if current != "" {
		db.closeSection(current, len(db.lines))
	}
}

func (db *Database) closeSection(name string, end int) {
	r := db.sections[name]
	r.End = end
	db.sections[name] = r
}

// Name returns the database name.
func (db *Database) Name() string { return db.name }

// Path returns where the database was read from, if known.
func (db *Database) Path() string { return db.path }

// Lines returns a copy of the cleaned database lines.
func (db *Database) Lines() []string {
	out := make([]string, len(db.lines))
	copy(out, db.lines)
	return out
}

// MasterSpecies returns the master-species translation table.
func (db *Database) MasterSpecies() *MasterSpecies { return db.master }

func (db *Database) observeQuery(query string, results int) {
	if db.observer != nil {
		db.observer.ObserveQuery(db.name, query, results)
	}
}

//Personal.AI order the ending
