package speciation

import (
	"context"
	"strings"

	"github.com/turtacn/phreeqprep/internal/domain/chemistry"
	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/phreeqprep/pkg/errors"
	"github.com/turtacn/phreeqprep/pkg/types/solution"
)

// InputOptions controls MakeInput.
type InputOptions struct {
	// Targets overrides the elements derived from the table.
	Targets []string `json:"targets,omitempty"`

	// AllowRemoval drops untranslatable columns instead of failing.
	AllowRemoval bool `json:"allow_removal"`

	// DropOH removes H and O from the derived targets.
	DropOH bool `json:"drop_oh"`

	Output SelectedOutputOptions `json:"output"`

	// OutputLines replaces the generated SELECTED_OUTPUT block verbatim.
	OutputLines []string `json:"output_lines,omitempty"`

	// UseDefaultOutput emits DefaultSelectedOutput.
	UseDefaultOutput bool `json:"use_default_output"`

	// Phases adds one EQUILIBRIUM_PHASES block to the run.
	Phases []PhaseSpec `json:"phases,omitempty"`

	// PhaseSets pairs every solution with every set, each pair a separate
	// simulation.  It takes precedence over Phases.
	PhaseSets [][]PhaseSpec `json:"phase_sets,omitempty"`
}

// DefaultInputOptions matches the command-line defaults.
func DefaultInputOptions() InputOptions {
	return InputOptions{AllowRemoval: true, DropOH: true, Output: DefaultSelectedOutputOptions()}
}

// InputDeck is a complete solver input.
type InputDeck struct {
	Text        string    `json:"input"`
	Database    string    `json:"database"`
	Solutions   int       `json:"solutions"`
	Simulations int       `json:"simulations"`
	Targets     []string  `json:"targets"`
	Report      Report    `json:"report"`
	Warnings    []Warning `json:"warnings,omitempty"`
}

// MakeInput validates t and assembles a deck: the SOLUTION blocks, then the
// output declaration, then any equilibrium phases, closed by END.  With
// PhaseSets each solution and phase-set pair becomes its own simulation
// ending in END, and the output declaration is given once in the first.
func (g *Generator) MakeInput(ctx context.Context, t *solution.Table, opts InputOptions) (*InputDeck, error) {
	if t == nil || t.Len() == 0 {
		return nil, errors.New(errors.ErrCodeEmptyTable, "composition table has no rows")
	}

	checked, report, err := g.norm.CheckInputs(t, opts.AllowRemoval)
	if err != nil {
		return nil, err
	}

	var targets chemistry.ElementSet
	if len(opts.Targets) > 0 {
		targets = chemistry.NewElementSet(opts.Targets...)
	} else {
		targets = g.norm.targetsOf(checked, opts.DropOH)
	}

	var output string
	switch {
	case len(opts.OutputLines) > 0:
		output = strings.Join(opts.OutputLines, "\n") + "\n"
	case opts.UseDefaultOutput:
		output = DefaultSelectedOutput + "\n"
	default:
		if targets.Len() == 0 {
			return nil, errors.New(errors.ErrCodeNoTargets, "no target elements could be derived from the table").
				WithDetail("pass explicit targets or use the default output")
		}
		output, err = g.SelectedOutput(ctx, targets, opts.Output)
		if err != nil {
			return nil, err
		}
	}

	values := g.norm.ValueColumns(checked)
	records := values.Records()
	base := *g.opts.IndexBase
	solutions := make([]string, len(records))
	for i, cells := range records {
		solutions[i] = g.SolutionBlock(cells, base+i)
	}

	deck := &InputDeck{
		Database:  g.db.Name(),
		Solutions: len(solutions),
		Targets:   targets.Sorted(),
		Report:    report,
	}

	var sb strings.Builder
	if len(opts.PhaseSets) > 0 {
		sets := make([][]PhaseSpec, len(opts.PhaseSets))
		for j, set := range opts.PhaseSets {
			var w []Warning
			sets[j], w = g.validPhases(set)
			deck.Warnings = append(deck.Warnings, w...)
		}
		first := true
		for i, sol := range solutions {
			for _, set := range sets {
				block := g.renderPhases(set, base+i)
				sb.WriteString(sol)
				if block != "" {
					sb.WriteString(block)
				}
				if first {
					sb.WriteString(output)
					first = false
				}
				sb.WriteString(KeywordEnd + "\n")
				deck.Simulations++
			}
		}
	} else {
		sb.WriteString(strings.Join(solutions, "\n"))
		sb.WriteString("\n")
		sb.WriteString(output)
		if len(opts.Phases) > 0 {
			block, w := g.EquilibriumPhases(opts.Phases, base)
			deck.Warnings = append(deck.Warnings, w...)
			sb.WriteString(block)
		}
		sb.WriteString(KeywordEnd + "\n")
		deck.Simulations = 1
	}
	deck.Text = sb.String()

	g.logger.Debug("input deck generated",
		logging.Int("solutions", deck.Solutions),
		logging.Int("simulations", deck.Simulations),
		logging.Strings("targets", deck.Targets),
		logging.Int("warnings", len(deck.Warnings)))
	return deck, nil
}

//Personal.AI order the ending
