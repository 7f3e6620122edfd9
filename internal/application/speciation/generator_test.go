package speciation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/phreeqprep/internal/domain/chemistry"
	"github.com/turtacn/phreeqprep/pkg/errors"
	"github.com/turtacn/phreeqprep/pkg/types/solution"
)

func TestSolutionBlock(t *testing.T) {
	rec := newFakeRecorder()
	g := newGenerator(t, GeneratorOptions{Recorder: rec})

	block := g.SolutionBlock([]solution.Cell{
		{Key: "Ca", Value: solution.Number(1.5)},
		{Key: "units", Value: solution.Text("mg/L")},
		{Key: "Mg", Value: solution.Missing()},
		{Key: "temperature", Value: solution.Number(25)},
	}, 3)

	want := "SOLUTION 3\n" +
		solutionLine("Ca", "1.50000000e+00") +
		solutionLine("units", "mg/L") +
		solutionLine("temperature", "2.50000000e+01")
	assert.Equal(t, want, block)
	assert.Equal(t, 1, rec.blocks["solution"])
}

func TestSolutionBlock_Formatting(t *testing.T) {
	g := newGenerator(t, GeneratorOptions{KeyWidth: 6, Precision: 2})
	block := g.SolutionBlock([]solution.Cell{{Key: "Na", Value: solution.Number(0.000123)}}, 1)
	assert.Equal(t, "SOLUTION 1\n    Na    1.23e-04\n", block)
}

func TestSelectedOutput_AllDeclarations(t *testing.T) {
	g := newGenerator(t, GeneratorOptions{})
	block, err := g.SelectedOutput(context.Background(), chemistry.NewElementSet("Mg", "Ca"), DefaultSelectedOutputOptions())
	require.NoError(t, err)

	species := "OH- H+ Ca+2 Mg+2 CaB(OH)4+ MgB(OH)4+ CaCO3 MgCO3"
	want := "SELECTED_OUTPUT\n" +
		"    -pH\n" +
		"    -temperature\n" +
		"    -alkalinity\n" +
		"    -ionic_strength\n" +
		"    -totals Ca Mg\n" +
		"    -m " + species + "\n" +
		"    -a " + species + "\n" +
		"    -si Calcite Aragonite Dolomite\n"
	assert.Equal(t, want, block)
}

func TestSelectedOutput_Options(t *testing.T) {
	ctx := context.Background()
	g := newGenerator(t, GeneratorOptions{})
	targets := chemistry.NewElementSet("Ca", "Mg")

	t.Run("strict species", func(t *testing.T) {
		opts := DefaultSelectedOutputOptions()
		opts.StrictSpecies = true
		opts.Activities = false
		opts.Phases = false
		block, err := g.SelectedOutput(ctx, targets, opts)
		require.NoError(t, err)
		assert.Contains(t, block, "    -m OH- H+ Ca+2 Mg+2 CaCO3 MgCO3\n")
		assert.NotContains(t, block, "-a ")
		assert.NotContains(t, block, "-si")
	})

	t.Run("phase targets", func(t *testing.T) {
		opts := SelectedOutputOptions{Phases: true, PhaseTargets: []string{"Na", "Cl"}}
		block, err := g.SelectedOutput(ctx, targets, opts)
		require.NoError(t, err)
		assert.Contains(t, block, "    -si Halite\n")
		assert.NotContains(t, block, "-totals")
	})

	t.Run("empty lists omitted", func(t *testing.T) {
		block, err := g.SelectedOutput(ctx, chemistry.NewElementSet("Xe"), SelectedOutputOptions{Phases: true})
		require.NoError(t, err)
		assert.NotContains(t, block, "-si")
	})

	t.Run("water ions lead", func(t *testing.T) {
		block, err := g.SelectedOutput(ctx, chemistry.NewElementSet("Xe"), SelectedOutputOptions{Molalities: true})
		require.NoError(t, err)
		assert.Contains(t, block, "    -m OH- H+\n")
	})
}

func TestSelectedOutput_UsesCache(t *testing.T) {
	ctx := context.Background()
	cache, err := NewMemoryCache(8)
	require.NoError(t, err)
	rec := newFakeRecorder()
	g := newGenerator(t, GeneratorOptions{Cache: cache, Recorder: rec})
	targets := chemistry.NewElementSet("Ca")

	first, err := g.SelectedOutput(ctx, targets, DefaultSelectedOutputOptions())
	require.NoError(t, err)
	second, err := g.SelectedOutput(ctx, targets, DefaultSelectedOutputOptions())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, 1, rec.misses)
	assert.Equal(t, 1, rec.hits)
	assert.Equal(t, 1, rec.blocks["selected_output"])
}

func TestParsePhaseSpec(t *testing.T) {
	spec, err := ParsePhaseSpec("Calcite")
	require.NoError(t, err)
	assert.Equal(t, PhaseSpec{Name: "Calcite"}, spec)

	spec, err = ParsePhaseSpec("Dolomite -0.5 2")
	require.NoError(t, err)
	assert.Equal(t, "Dolomite", spec.Name)
	assert.Equal(t, -0.5, spec.SaturationIndex)
	require.NotNil(t, spec.Amount)
	assert.Equal(t, 2.0, *spec.Amount)

	for _, bad := range []string{"", "Calcite x", "Calcite 0 y", "a 1 2 3"} {
		_, err := ParsePhaseSpec(bad)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidValue), bad)
	}
}

func TestEquilibriumPhases(t *testing.T) {
	g := newGenerator(t, GeneratorOptions{})
	two := 2.0
	specs := []PhaseSpec{
		{Name: "Calcite"},
		{Name: "Unobtainium", SaturationIndex: 1},
		{Name: "Dolomite", SaturationIndex: -0.5, Amount: &two},
	}

	block, warnings := g.EquilibriumPhases(specs, 1)
	assert.Equal(t, "EQUILIBRIUM_PHASES 1\n    Calcite 0\n    Dolomite -0.5 2\n", block)
	require.Len(t, warnings, 1)
	assert.Equal(t, errors.ErrCodeUnknownPhase, warnings[0].Code)
	assert.Equal(t, "Unobtainium", warnings[0].Subject)

	block, warnings = g.EquilibriumPhases([]PhaseSpec{{Name: "Nope"}}, 1)
	assert.Empty(t, block)
	assert.Len(t, warnings, 1)
}

func TestEquilibriumPhasesPerSolution(t *testing.T) {
	base := 0
	g := newGenerator(t, GeneratorOptions{IndexBase: &base})

	blocks, warnings := g.EquilibriumPhasesPerSolution([][]PhaseSpec{
		{{Name: "Calcite"}},
		{{Name: "Gypsum"}},
	})
	require.Len(t, blocks, 2)
	assert.Empty(t, warnings)
	assert.Equal(t, "EQUILIBRIUM_PHASES 0\n    Calcite 0\n", blocks[0])
	assert.Equal(t, "EQUILIBRIUM_PHASES 1\n    Gypsum 0\n", blocks[1])
}

//Personal.AI order the ending
