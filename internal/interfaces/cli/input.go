package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/phreeqprep/internal/application/speciation"
	"github.com/turtacn/phreeqprep/pkg/errors"
	"github.com/turtacn/phreeqprep/pkg/types/solution"
)

// tableFlags select and read a composition table.
type tableFlags struct {
	file    string
	format  string
	selects []string
}

func (f *tableFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "-", "composition table, CSV or JSON ('-' for stdin)")
	cmd.Flags().StringVar(&f.format, "format", "", "table format: csv or json (default from the file extension, else csv)")
	cmd.Flags().StringArrayVar(&f.selects, "select", nil, "explicit column lookup COLUMN=NAME; other columns are dropped (repeatable)")
}

func (f *tableFlags) read(cmd *cobra.Command) (*solution.Table, error) {
	var r io.Reader = cmd.InOrStdin()
	if f.file != "-" {
		fh, err := os.Open(f.file)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "cannot open composition table").WithDetail(f.file)
		}
		defer fh.Close()
		r = fh
	}

	format := strings.ToLower(f.format)
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(f.file)), ".")
	}
	switch format {
	case "json":
		return solution.ReadJSON(r)
	case "csv", "", "txt":
		return solution.ReadCSV(r)
	default:
		return nil, errors.InvalidParam(fmt.Sprintf("unknown table format %q", format))
	}
}

// lookup parses the --select pairs.
func (f *tableFlags) lookup() (map[string]string, error) {
	if len(f.selects) == 0 {
		return nil, nil
	}
	m := make(map[string]string, len(f.selects))
	for _, s := range f.selects {
		col, name, ok := strings.Cut(s, "=")
		if !ok || col == "" || name == "" {
			return nil, errors.InvalidParam(fmt.Sprintf("--select wants COLUMN=NAME, got %q", s))
		}
		m[col] = name
	}
	return m, nil
}

// load reads the table and applies any explicit lookup against database.
func (f *tableFlags) load(ctx context.Context, cmd *cobra.Command, c *CLIContext) (*solution.Table, error) {
	t, err := f.read(cmd)
	if err != nil {
		return nil, err
	}
	lookup, err := f.lookup()
	if err != nil || lookup == nil {
		return t, err
	}
	gen, err := c.Runtime.Service.Generator(ctx, c.Database)
	if err != nil {
		return nil, err
	}
	return gen.Normalizer().SelectInputs(t, lookup)
}

// deckFlags map onto speciation.InputOptions.
type deckFlags struct {
	targets       []string
	noRemoval     bool
	keepOH        bool
	noTotals      bool
	noMolalities  bool
	noActivities  bool
	noPhases      bool
	phaseTargets  []string
	strictSpecies bool
	noHCO         bool
	defaultOutput bool
	outputLines   []string
	phases        []string
	phaseSets     []string
}

func (f *deckFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringSliceVarP(&f.targets, "targets", "t", nil, "target elements (default derived from the table)")
	fl.BoolVar(&f.noRemoval, "no-removal", false, "fail on untranslatable columns instead of dropping them")
	fl.BoolVar(&f.keepOH, "keep-oh", false, "keep H and O in the derived targets")
	fl.BoolVar(&f.noTotals, "no-totals", false, "omit -totals")
	fl.BoolVar(&f.noMolalities, "no-molalities", false, "omit -molalities")
	fl.BoolVar(&f.noActivities, "no-activities", false, "omit -activities")
	fl.BoolVar(&f.noPhases, "no-phases", false, "omit -saturation_indices")
	fl.StringSliceVar(&f.phaseTargets, "phase-targets", nil, "elements for the saturation index filter")
	fl.BoolVar(&f.strictSpecies, "strict-species", false, "only species made entirely of target elements")
	fl.BoolVar(&f.noHCO, "no-hco", false, "do not admit H, C and O in the phase filter")
	fl.BoolVar(&f.defaultOutput, "default-output", false, "use the fixed default SELECTED_OUTPUT block")
	fl.StringArrayVar(&f.outputLines, "output-line", nil, "verbatim SELECTED_OUTPUT line (repeatable)")
	fl.StringArrayVar(&f.phases, "phase", nil, "equilibrium phase 'NAME [SI [AMOUNT]]' (repeatable)")
	fl.StringArrayVar(&f.phaseSets, "phase-set", nil, "phase set 'NAME SI; NAME SI', one simulation per solution and set (repeatable)")
}

func (f *deckFlags) options() (speciation.InputOptions, error) {
	opts := speciation.DefaultInputOptions()
	opts.Targets = splitList(f.targets)
	opts.AllowRemoval = !f.noRemoval
	opts.DropOH = !f.keepOH
	opts.Output.Totals = !f.noTotals
	opts.Output.Molalities = !f.noMolalities
	opts.Output.Activities = !f.noActivities
	opts.Output.Phases = !f.noPhases
	opts.Output.PhaseTargets = splitList(f.phaseTargets)
	opts.Output.StrictSpecies = f.strictSpecies
	opts.Output.AllowHCO = !f.noHCO
	opts.UseDefaultOutput = f.defaultOutput
	opts.OutputLines = f.outputLines

	for _, p := range f.phases {
		spec, err := speciation.ParsePhaseSpec(p)
		if err != nil {
			return opts, err
		}
		opts.Phases = append(opts.Phases, spec)
	}
	for _, set := range f.phaseSets {
		var specs []speciation.PhaseSpec
		for _, p := range strings.Split(set, ";") {
			if strings.TrimSpace(p) == "" {
				continue
			}
			spec, err := speciation.ParsePhaseSpec(p)
			if err != nil {
				return opts, err
			}
			specs = append(specs, spec)
		}
		opts.PhaseSets = append(opts.PhaseSets, specs)
	}
	return opts, nil
}

// deckResult prints the deck text alone as text.
type deckResult struct {
	*speciation.InputDeck
}

func (d deckResult) String() string { return strings.TrimSuffix(d.Text, "\n") }

func newInputCmd() *cobra.Command {
	var (
		tf tableFlags
		df deckFlags
	)
	cmd := &cobra.Command{
		Use:   "input",
		Short: "Build a solver input deck from a composition table",
		Example: "  phreeqprep input -d phreeqc -f waters.csv\n" +
			"  phreeqprep input -f waters.csv --phase 'Calcite 0' --phase 'Dolomite -0.5 2'",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := df.options()
			if err != nil {
				return err
			}
			c, ctx, cancel, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			t, err := tf.load(ctx, cmd, c)
			if err != nil {
				return err
			}
			deck, err := c.Runtime.Service.MakeInput(ctx, c.Database, t, opts)
			if err != nil {
				return err
			}
			return PrintResult(cmd, deckResult{deck})
		},
	}
	tf.register(cmd)
	df.register(cmd)
	return cmd
}

type checkResult struct {
	Report speciation.Report `json:"report" yaml:"report"`
	Table  *solution.Table   `json:"table" yaml:"-"`
}

func (r checkResult) String() string {
	var sb strings.Builder
	_ = r.Table.WriteCSV(&sb)
	return strings.TrimSuffix(sb.String(), "\n")
}

func newCheckCmd() *cobra.Command {
	var (
		tf        tableFlags
		noRemoval bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Normalise the columns of a composition table and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, ctx, cancel, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			t, err := tf.load(ctx, cmd, c)
			if err != nil {
				return err
			}
			checked, report, err := c.Runtime.Service.CheckInputs(ctx, c.Database, t, !noRemoval)
			if err != nil {
				return err
			}
			return PrintResult(cmd, checkResult{Report: report, Table: checked})
		},
	}
	tf.register(cmd)
	cmd.Flags().BoolVar(&noRemoval, "no-removal", false, "fail on untranslatable columns instead of dropping them")
	return cmd
}

type submitResult struct {
	Job  *speciation.SolverJob `json:"job" yaml:"job"`
	Deck deckSummary           `json:"deck" yaml:"deck"`
}

type deckSummary struct {
	Solutions   int      `json:"solutions" yaml:"solutions"`
	Simulations int      `json:"simulations" yaml:"simulations"`
	Targets     []string `json:"targets" yaml:"targets"`
}

func (r submitResult) String() string {
	return fmt.Sprintf("submitted job %s (%d solutions, database %s)", r.Job.ID, r.Job.Solutions, r.Job.Database)
}

func newSubmitCmd() *cobra.Command {
	var (
		tf tableFlags
		df deckFlags
	)
	cmd := &cobra.Command{
		Use:         "submit",
		Short:       "Build an input deck and publish it as a solver job",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationPublisher: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := df.options()
			if err != nil {
				return err
			}
			c, ctx, cancel, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			t, err := tf.load(ctx, cmd, c)
			if err != nil {
				return err
			}
			job, deck, err := c.Runtime.Service.Submit(ctx, c.Database, t, opts)
			if err != nil {
				return err
			}
			return PrintResult(cmd, submitResult{
				Job:  job,
				Deck: deckSummary{Solutions: deck.Solutions, Simulations: deck.Simulations, Targets: deck.Targets},
			})
		},
	}
	tf.register(cmd)
	df.register(cmd)
	return cmd
}

//Personal.AI order the ending
