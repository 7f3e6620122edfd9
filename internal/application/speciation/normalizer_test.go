package speciation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/phreeqprep/pkg/errors"
	"github.com/turtacn/phreeqprep/pkg/types/solution"
)

func TestNormalizer_SplitKey(t *testing.T) {
	n := newNormalizer(t, nil)

	base, unc := n.SplitKey("Mg_std")
	assert.Equal(t, "Mg", base)
	assert.True(t, unc)

	base, unc = n.SplitKey("Mg")
	assert.Equal(t, "Mg", base)
	assert.False(t, unc)

	base, unc = n.SplitKey("_std")
	assert.Equal(t, "_std", base)
	assert.False(t, unc)
}

func TestNormalizer_IsExempt(t *testing.T) {
	n := newNormalizer(t, nil)
	for _, k := range []string{"temp", "Temperature", "pH", "pe", "units", "density"} {
		assert.True(t, n.IsExempt(k), k)
	}
	assert.False(t, n.IsExempt("Ca"))
	assert.True(t, IsFlag("-water"))
	assert.False(t, IsFlag("water"))
}

func TestCheckInputs_KeepsValidColumns(t *testing.T) {
	rec := newFakeRecorder()
	n := newNormalizer(t, rec)
	tbl := csvTable(t, "name,Ca,Mg,Mg_std,temperature,-water\ns1,1,2,0.1,25,1\n")

	out, report, err := n.CheckInputs(tbl, false)
	require.NoError(t, err)
	assert.True(t, report.Empty())
	assert.Empty(t, report.String())
	assert.Equal(t, tbl.Columns(), out.Columns())
	assert.Equal(t, 1, rec.normalizations)
}

func TestCheckInputs_TranslatesMasterSpecies(t *testing.T) {
	n := newNormalizer(t, nil)
	tbl := csvTable(t, "name,temperature,Ca+2,Ca+2_std,SO4,Mg\ns1,25,1,0.1,3,2\n")

	out, report, err := n.CheckInputs(tbl, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"temperature", "Mg", "Ca", "Ca_std", "S(6)"}, out.Columns())
	require.Len(t, report.Substitutions, 2)
	assert.Equal(t, Substitution{From: "Ca+2", To: "Ca"}, report.Substitutions[0])
	assert.Equal(t, Substitution{From: "SO4", To: "S(6)"}, report.Substitutions[1])
	assert.Contains(t, report.String(), "Ca+2 -> Ca")
	assert.Contains(t, report.String(), "SelectInputs")

	v := out.Rows()[0].Get("S(6)")
	f, ok := v.Float()
	require.True(t, ok)
	assert.Equal(t, 3.0, f)
}

func TestCheckInputs_ReportsUnpairedUncertaintyRename(t *testing.T) {
	n := newNormalizer(t, nil)
	tbl := csvTable(t, "name,Ca,Ca+2_std\ns1,1,0.1\n")

	out, report, err := n.CheckInputs(tbl, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"Ca", "Ca_std"}, out.Columns())
	require.Len(t, report.Substitutions, 1)
	assert.Equal(t, "Ca+2_std", report.Substitutions[0].From)
	assert.Equal(t, "Ca_std", report.Substitutions[0].To)
	assert.Contains(t, report.String(), "Ca+2_std -> Ca_std")
}

func TestCheckInputs_ReportsCandidatesOnCollision(t *testing.T) {
	n := newNormalizer(t, nil)
	tbl := csvTable(t, "name,CO3-2\ns1,1\n")

	out, report, err := n.CheckInputs(tbl, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, out.Columns())
	require.Len(t, report.Substitutions, 1)
	assert.Equal(t, []string{"C", "C(4)", "Alkalinity"}, report.Substitutions[0].Candidates)
	assert.Contains(t, report.String(), "one of C, C(4), Alkalinity")
}

func TestCheckInputs_UnknownColumn(t *testing.T) {
	tbl := csvTable(t, "name,Ca,Unobtainium\ns1,1,2\n")

	t.Run("removed when allowed", func(t *testing.T) {
		rec := newFakeRecorder()
		n := newNormalizer(t, rec)
		out, report, err := n.CheckInputs(tbl, true)
		require.NoError(t, err)
		assert.Equal(t, []string{"Ca"}, out.Columns())
		assert.Equal(t, []string{"Unobtainium"}, report.Removed)
		assert.Equal(t, 1, rec.removals)
	})

	t.Run("rejected otherwise", func(t *testing.T) {
		n := newNormalizer(t, nil)
		_, _, err := n.CheckInputs(tbl, false)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidColumn))
		assert.Contains(t, err.Error(), "Unobtainium")
	})
}

func TestCheckInputs_AmbiguousRename(t *testing.T) {
	n := newNormalizer(t, nil)
	tbl := csvTable(t, "name,Ca,Ca+2\ns1,1,2\n")

	_, _, err := n.CheckInputs(tbl, true)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAmbiguousName))
}

func TestCheckInputs_Idempotent(t *testing.T) {
	n := newNormalizer(t, nil)
	tbl := csvTable(t, "name,Ca+2,SO4,Xx,pH\ns1,1,2,3,7\n")

	once, _, err := n.CheckInputs(tbl, true)
	require.NoError(t, err)
	twice, report, err := n.CheckInputs(once, true)
	require.NoError(t, err)
	assert.True(t, report.Empty())
	assert.Equal(t, once.Columns(), twice.Columns())
}

func TestTargetElements(t *testing.T) {
	tbl := csvTable(t, "name,B,Alkalinity,S(6),temperature,B_std\ns1,1,2,3,25,0.1\n")

	tests := []struct {
		name   string
		dropOH bool
		want   []string
	}{
		{"drop H and O", true, []string{"B", "C", "S"}},
		{"keep H and O", false, []string{"B", "C", "H", "O", "S"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newNormalizer(t, nil)
			targets, _, err := n.TargetElements(tbl, tt.dropOH)
			require.NoError(t, err)
			assert.Equal(t, tt.want, targets.Sorted())
		})
	}
}

func TestSelectInputs(t *testing.T) {
	n := newNormalizer(t, nil)
	tbl := csvTable(t, "name,calcium,calcium_std,boron,junk\ns1,1,0.1,2,3\n")

	out, err := n.SelectInputs(tbl, map[string]string{"calcium": "Ca", "boron": "B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ca", "Ca_std", "B"}, out.Columns())

	_, err = n.SelectInputs(tbl, map[string]string{"calcium": "Ca+2"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidColumn))

	_, err = n.SelectInputs(tbl, map[string]string{"calcium": "Ca", "boron": "Ca"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeAmbiguousName))
}

func TestValueColumns(t *testing.T) {
	n := newNormalizer(t, nil)
	tbl := solution.NewTable("Ca", "Ca_std", "pH")
	assert.Equal(t, []string{"Ca", "pH"}, n.ValueColumns(tbl).Columns())

	plain := solution.NewTable("Ca")
	assert.Same(t, plain, n.ValueColumns(plain))
}

//Personal.AI order the ending
