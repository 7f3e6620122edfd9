package speciation

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/turtacn/phreeqprep/internal/domain/phreeqc"
	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/phreeqprep/pkg/types/solution"
)

const fixturePath = "testdata/minimal.dat"

func fixtureDB(t *testing.T) *phreeqc.Database {
	t.Helper()
	db, err := phreeqc.LoadFile(fixturePath, phreeqc.LoadOptions{Logger: logging.NewNopLogger()})
	require.NoError(t, err)
	return db
}

func csvTable(t *testing.T, text string) *solution.Table {
	t.Helper()
	tbl, err := solution.ReadCSV(strings.NewReader(text))
	require.NoError(t, err)
	return tbl
}

func newNormalizer(t *testing.T, rec Recorder) *Normalizer {
	t.Helper()
	return NewNormalizer(fixtureDB(t), NormalizerOptions{Logger: logging.NewNopLogger(), Recorder: rec})
}

func newGenerator(t *testing.T, opts GeneratorOptions) *Generator {
	t.Helper()
	db := fixtureDB(t)
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	norm := NewNormalizer(db, NormalizerOptions{Logger: opts.Logger, Recorder: opts.Recorder})
	return NewGenerator(db, norm, opts)
}

// solutionLine formats one SOLUTION entry the way the generator does with
// default options.
func solutionLine(key, value string) string {
	return "    " + key + strings.Repeat(" ", 20-len(key)) + value + "\n"
}

type fakeRecorder struct {
	mu             sync.Mutex
	normalizations int
	substitutions  int
	removals       int
	blocks         map[string]int
	hits, misses   int
	jobs           int
	jobErrors      int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{blocks: make(map[string]int)}
}

func (r *fakeRecorder) RecordNormalization(_ string, substitutions, removals int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalizations++
	r.substitutions += substitutions
	r.removals += removals
}

func (r *fakeRecorder) RecordBlock(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocks[kind]++
}

func (r *fakeRecorder) RecordCache(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func (r *fakeRecorder) RecordJob(_ string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs++
	if err != nil {
		r.jobErrors++
	}
}

//Personal.AI order the ending
