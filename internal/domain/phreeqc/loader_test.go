package phreeqc

import (
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/phreeqprep/pkg/errors"
)

const fixturePath = "testdata/minimal.dat"

func loadFixture(t *testing.T) *Database {
	t.Helper()
	db, err := LoadFile(fixturePath, LoadOptions{Logger: logging.NewNopLogger()})
	require.NoError(t, err)
	return db
}

func loadString(t *testing.T, text string, opts LoadOptions) *Database {
	t.Helper()
	db, err := Load(strings.NewReader(text), opts)
	require.NoError(t, err)
	return db
}

type recordingObserver struct {
	mu      sync.Mutex
	loads   []string
	queries []string
}

func (o *recordingObserver) ObserveLoad(database string, _ int, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.loads = append(o.loads, database+":error")
		return
	}
	o.loads = append(o.loads, database)
}

func (o *recordingObserver) ObserveQuery(_, query string, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queries = append(o.queries, query)
}

func TestLoadFile_NameAndPath(t *testing.T) {
	db := loadFixture(t)
	assert.Equal(t, "minimal", db.Name())
	assert.Equal(t, fixturePath, db.Path())
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("testdata/absent.dat", LoadOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseNotFound))
	assert.True(t, errors.IsNotFound(err))
}

func TestLoad_StripsBlankAndCommentLines(t *testing.T) {
	db := loadFixture(t)
	for _, line := range db.Lines() {
		assert.NotEmpty(t, line)
		assert.False(t, strings.HasPrefix(line, "#"), line)
		assert.Equal(t, strings.TrimRight(line, " \t"), line)
	}

	raw, err := os.ReadFile(fixturePath)
	require.NoError(t, err)
	kept := loadString(t, string(raw), LoadOptions{KeepComments: true})
	assert.Equal(t, len(db.Lines())+2, len(kept.Lines()))
}

func TestLoad_SectionIndex(t *testing.T) {
	db := loadFixture(t)

	assert.Equal(t, []string{SectionMasterSpecies, SectionSolutionSpecies, SectionPhases, "END"}, db.SectionNames())

	master, err := db.SectionRange(SectionMasterSpecies)
	require.NoError(t, err)
	species, err := db.SectionRange(SectionSolutionSpecies)
	require.NoError(t, err)
	phases, err := db.SectionRange(SectionPhases)
	require.NoError(t, err)
	end, err := db.SectionRange("END")
	require.NoError(t, err)

	assert.Equal(t, 0, master.Start)
	assert.Equal(t, species.Start, master.End)
	assert.Equal(t, phases.Start, species.End)
	assert.Equal(t, end.Start, phases.End)
	assert.Equal(t, len(db.Lines()), end.End)
	assert.Equal(t, 0, end.Len())
	assert.Equal(t, 12, master.Len())
}

func TestLoad_FinalSectionClosesAtEOF(t *testing.T) {
	db := loadString(t, "SOLUTION_MASTER_SPECIES\nCa Ca+2 0 Ca 40.08\nPHASES\nCalcite\n\tCaCO3 = CO3-2 + Ca+2\n", LoadOptions{})

	lines, err := db.Section(SectionPhases)
	require.NoError(t, err)
	assert.Equal(t, []string{"Calcite", "\tCaCO3 = CO3-2 + Ca+2"}, lines)
}

func TestLoad_DuplicateSectionReplaces(t *testing.T) {
	buf := &zaptest.Buffer{}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), buf, zapcore.DebugLevel)

	text := "SOLUTION_MASTER_SPECIES\nCa Ca+2 0 Ca 40.08\nPHASES\nOld\n\tX = X\nPHASES\nNew\n\tCaCO3 = CO3-2 + Ca+2\n"
	db := loadString(t, text, LoadOptions{Logger: logging.NewLoggerFromCore(core)})

	assert.Equal(t, []string{SectionMasterSpecies, SectionPhases}, db.SectionNames())
	lines, err := db.Section(SectionPhases)
	require.NoError(t, err)
	assert.Equal(t, "New", lines[0])
	assert.Contains(t, buf.String(), "duplicate section header")
}

func TestLoad_MissingMasterTable(t *testing.T) {
	obs := &recordingObserver{}
	_, err := Load(strings.NewReader("PHASES\nCalcite\n"), LoadOptions{Name: "broken", Observer: obs})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMissingMasterTable))
	assert.Equal(t, []string{"broken:error"}, obs.loads)
}

func TestLoad_ReportsToObserver(t *testing.T) {
	obs := &recordingObserver{}
	db, err := LoadFile(fixturePath, LoadOptions{Observer: obs})
	require.NoError(t, err)
	assert.Equal(t, []string{"minimal"}, obs.loads)

	_, err = db.PhasesFor(nil, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"phases"}, obs.queries)
}

func TestSection_UnknownListsEveryName(t *testing.T) {
	db := loadFixture(t)

	for _, name := range []string{"PHASE", "solution_species", ""} {
		_, err := db.Section(name)
		require.Error(t, err, name)
		assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownSection), name)

		var ae *errors.AppError
		require.True(t, errors.As(err, &ae))
		for _, valid := range db.SectionNames() {
			assert.Contains(t, ae.Detail, valid)
		}
	}
}

func TestSection_StripsTrailingComments(t *testing.T) {
	db := loadFixture(t)

	lines, err := db.Section(SectionSolutionSpecies)
	require.NoError(t, err)
	for _, l := range lines {
		assert.NotContains(t, l, "#")
	}

	var raw []string
	require.NoError(t, db.WalkRawSection(SectionSolutionSpecies, func(line string) bool {
		raw = append(raw, line)
		return true
	}))
	assert.Len(t, raw, len(lines))
	assert.Contains(t, strings.Join(raw, "\n"), "# calcium borate")
}

func TestWalkSection_ExcludesHeaderAndStopsEarly(t *testing.T) {
	db := loadFixture(t)

	var seen []string
	require.NoError(t, db.WalkSection(SectionPhases, func(line string) bool {
		seen = append(seen, line)
		return len(seen) < 2
	}))
	assert.Equal(t, []string{"Calcite", "\tCaCO3 = CO3-2 + Ca+2"}, seen)
}

func TestDatabaseName(t *testing.T) {
	assert.Equal(t, "pitzer", DatabaseName("/opt/db/pitzer.dat"))
	assert.Equal(t, "llnl", DatabaseName("llnl"))
	assert.Equal(t, "wateq4f.v2", DatabaseName("wateq4f.v2.dat"))
	assert.Equal(t, ".dat", DatabaseName(".dat"))
}

//Personal.AI order the ending
