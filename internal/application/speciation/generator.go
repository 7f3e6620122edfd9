package speciation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/turtacn/phreeqprep/internal/domain/chemistry"
	"github.com/turtacn/phreeqprep/internal/domain/phreeqc"
	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/phreeqprep/pkg/errors"
	"github.com/turtacn/phreeqprep/pkg/types/solution"
)

// Block keywords of the solver input language.
const (
	KeywordSolution          = "SOLUTION"
	KeywordSelectedOutput    = "SELECTED_OUTPUT"
	KeywordEquilibriumPhases = "EQUILIBRIUM_PHASES"
	KeywordEnd               = "END"
)

const indent = "    "

// waterIons are always reported in molality and activity lists.
var waterIons = []string{"OH-", "H+"}

// DefaultSelectedOutput is the block used when no composition-derived output
// is requested.
const DefaultSelectedOutput = `SELECTED_OUTPUT
    -pH
    -temperature
    -alkalinity
    -ionic_strength
    -totals Cl Na Mg K B Ca C S(6)
    -m OH- H+
    # molality outputs
    -m B(OH)4- B(OH)3 CaB(OH)4+ MgB(OH)4+ NaB(OH)4 B3O3(OH)4- B4O5(OH)4-2  # boron
    -m HCO3- CO3-2 CO2 CaCO3 MgCO3 BaCO3 SrCO3 NaCO3- KCO3- # carbon
    -m SO4-2 HSO4-  # S
    # activities
    -a OH- H+
    -a B(OH)4- B(OH)3 CaB(OH)4+ MgB(OH)4+ NaB(OH)4 B3O3(OH)4- B4O5(OH)4-2  # boron
    -si Calcite Aragonite`

// GeneratorOptions configures block formatting.
type GeneratorOptions struct {
	// KeyWidth pads SOLUTION keys.  Default 20.
	KeyWidth int
	// Precision is the number of mantissa digits after the point.  Default 8.
	Precision int
	// IndexBase numbers the first solution.  Default 1.
	IndexBase *int

	Cache    OutputCache
	Logger   logging.Logger
	Recorder Recorder
}

func (o *GeneratorOptions) applyDefaults() {
	if o.KeyWidth <= 0 {
		o.KeyWidth = 20
	}
	if o.Precision <= 0 {
		o.Precision = 8
	}
	if o.IndexBase == nil {
		one := 1
		o.IndexBase = &one
	}
}

// Warning is a non-fatal problem found while generating a deck.
type Warning struct {
	Code    errors.ErrorCode `json:"code"`
	Subject string           `json:"subject"`
	Message string           `json:"message"`
}

// PhaseSpec is one EQUILIBRIUM_PHASES line.
type PhaseSpec struct {
	Name string `json:"name"`
	// SaturationIndex is the target log IAP/K.
	SaturationIndex float64 `json:"saturation_index"`
	// Amount is the moles of phase available.  Nil leaves the solver
	// default.
	Amount *float64 `json:"amount,omitempty"`
}

// ParsePhaseSpec reads "Name [si [amount]]".
func ParsePhaseSpec(s string) (PhaseSpec, error) {
	f := strings.Fields(s)
	if len(f) == 0 || len(f) > 3 {
		return PhaseSpec{}, errors.Newf(errors.ErrCodeInvalidValue, "invalid phase spec %q", s)
	}
	spec := PhaseSpec{Name: f[0]}
	if len(f) > 1 {
		v, err := strconv.ParseFloat(f[1], 64)
		if err != nil {
			return PhaseSpec{}, errors.Newf(errors.ErrCodeInvalidValue, "invalid saturation index in %q", s)
		}
		spec.SaturationIndex = v
	}
	if len(f) > 2 {
		v, err := strconv.ParseFloat(f[2], 64)
		if err != nil {
			return PhaseSpec{}, errors.Newf(errors.ErrCodeInvalidValue, "invalid amount in %q", s)
		}
		spec.Amount = &v
	}
	return spec, nil
}

// SelectedOutputOptions chooses the declarations of a SELECTED_OUTPUT block.
type SelectedOutputOptions struct {
	Totals     bool `json:"totals"`
	Molalities bool `json:"molalities"`
	Activities bool `json:"activities"`
	Phases     bool `json:"phases"`

	// PhaseTargets replaces the targets for the -si filter when set.
	PhaseTargets []string `json:"phase_targets,omitempty"`
	// AllowHCO widens the phase filter with H, C and O.
	AllowHCO bool `json:"allow_hco"`
	// StrictSpecies rejects species mixing target and non-target elements.
	StrictSpecies bool `json:"strict_species"`
}

// DefaultSelectedOutputOptions requests everything.
func DefaultSelectedOutputOptions() SelectedOutputOptions {
	return SelectedOutputOptions{Totals: true, Molalities: true, Activities: true, Phases: true, AllowHCO: true}
}

// Generator renders solver input blocks against one database.
type Generator struct {
	db     *phreeqc.Database
	norm   *Normalizer
	opts   GeneratorOptions
	logger logging.Logger
}

// NewGenerator returns a Generator that validates with norm.
func NewGenerator(db *phreeqc.Database, norm *Normalizer, opts GeneratorOptions) *Generator {
	opts.applyDefaults()
	return &Generator{
		db:     db,
		norm:   norm,
		opts:   opts,
		logger: logging.OrDefault(opts.Logger).Named("generator").With(logging.Database(db.Name())),
	}
}

// Normalizer returns the Normalizer the generator validates with.
func (g *Generator) Normalizer() *Normalizer { return g.norm }

func (g *Generator) record(kind string) {
	if g.opts.Recorder != nil {
		g.opts.Recorder.RecordBlock(kind)
	}
}

// SolutionBlock renders one solution.  Keys are left-aligned in KeyWidth
// columns; numbers use scientific notation and text is written verbatim.
// Missing values are skipped.
func (g *Generator) SolutionBlock(cells []solution.Cell, index int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %d\n", KeywordSolution, index)
	for _, c := range cells {
		switch c.Value.Kind() {
		case solution.KindNumber:
			f, _ := c.Value.Float()
			fmt.Fprintf(&sb, "%s%-*s%.*e\n", indent, g.opts.KeyWidth, c.Key, g.opts.Precision, f)
		case solution.KindText:
			s, _ := c.Value.Str()
			fmt.Fprintf(&sb, "%s%-*s%s\n", indent, g.opts.KeyWidth, c.Key, s)
		}
	}
	g.record("solution")
	return sb.String()
}

// SelectedOutput renders the output declarations for targets.  Lines come in
// a fixed order that determines the solver's result columns: -pH,
// -temperature, -alkalinity, -ionic_strength, -totals, -m, -a, -si.  The
// water ions lead the -m and -a lists.  Lists that would be empty are left
// out.
func (g *Generator) SelectedOutput(ctx context.Context, targets chemistry.ElementSet, opts SelectedOutputOptions) (string, error) {
	key := CacheKey(g.db.Name(), targets, opts)
	if g.opts.Cache != nil {
		if block, ok, err := g.opts.Cache.Get(ctx, key); err != nil {
			g.logger.Warn("selected output cache read failed", logging.Err(err))
		} else {
			g.recordCache(ok)
			if ok {
				return block, nil
			}
		}
	}

	block, err := g.renderSelectedOutput(targets, opts)
	if err != nil {
		return "", err
	}
	if g.opts.Cache != nil {
		if err := g.opts.Cache.Set(ctx, key, block); err != nil {
			g.logger.Warn("selected output cache write failed", logging.Err(err))
		}
	}
	g.record("selected_output")
	return block, nil
}

func (g *Generator) recordCache(hit bool) {
	if g.opts.Recorder != nil {
		g.opts.Recorder.RecordCache(hit)
	}
}

func (g *Generator) renderSelectedOutput(targets chemistry.ElementSet, opts SelectedOutputOptions) (string, error) {
	lines := []string{
		KeywordSelectedOutput,
		indent + "-pH",
		indent + "-temperature",
		indent + "-alkalinity",
		indent + "-ionic_strength",
	}
	if opts.Totals && targets.Len() > 0 {
		lines = append(lines, indent+"-totals "+strings.Join(targets.Sorted(), " "))
	}

	if opts.Molalities || opts.Activities {
		found, err := g.db.SpeciesFor(targets, phreeqc.SectionSolutionSpecies,
			phreeqc.SpeciesOptions{AllowForeign: !opts.StrictSpecies, AllowHCO: true})
		if err != nil {
			return "", err
		}
		species := append([]string(nil), waterIons...)
		for _, s := range found {
			if s != "OH-" && s != "H+" {
				species = append(species, s)
			}
		}
		list := strings.Join(species, " ")
		if opts.Molalities {
			lines = append(lines, indent+"-m "+list)
		}
		if opts.Activities {
			lines = append(lines, indent+"-a "+list)
		}
	}

	if opts.Phases {
		phaseTargets := targets
		if len(opts.PhaseTargets) > 0 {
			phaseTargets = chemistry.NewElementSet(opts.PhaseTargets...)
		}
		phases, err := g.db.PhasesFor(phaseTargets, opts.AllowHCO)
		if err != nil {
			return "", err
		}
		if len(phases) > 0 {
			lines = append(lines, indent+"-si "+strings.Join(phases, " "))
		}
	}
	return strings.Join(lines, "\n") + "\n", nil
}

// EquilibriumPhases renders one EQUILIBRIUM_PHASES block numbered index.
// Phases the database does not define are dropped with a warning; an empty
// string is returned when none remain.
func (g *Generator) EquilibriumPhases(specs []PhaseSpec, index int) (string, []Warning) {
	valid, warnings := g.validPhases(specs)
	return g.renderPhases(valid, index), warnings
}

func (g *Generator) validPhases(specs []PhaseSpec) ([]PhaseSpec, []Warning) {
	var (
		valid    []PhaseSpec
		warnings []Warning
	)
	for _, p := range specs {
		if g.db.HasPhase(p.Name) {
			valid = append(valid, p)
			continue
		}
		w := Warning{
			Code:    errors.ErrCodeUnknownPhase,
			Subject: p.Name,
			Message: fmt.Sprintf("phase '%s' is not defined in database '%s' and was dropped", p.Name, g.db.Name()),
		}
		g.logger.Warn(w.Message, logging.String("phase", p.Name))
		warnings = append(warnings, w)
	}
	return valid, warnings
}

func (g *Generator) renderPhases(specs []PhaseSpec, index int) string {
	if len(specs) == 0 {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %d\n", KeywordEquilibriumPhases, index)
	for _, p := range specs {
		fmt.Fprintf(&sb, "%s%s %s", indent, p.Name, strconv.FormatFloat(p.SaturationIndex, 'g', -1, 64))
		if p.Amount != nil {
			sb.WriteString(" " + strconv.FormatFloat(*p.Amount, 'g', -1, 64))
		}
		sb.WriteByte('\n')
	}
	g.record("equilibrium_phases")
	return sb.String()
}

// EquilibriumPhasesPerSolution renders one block per inner list, numbered
// from the configured index base.
func (g *Generator) EquilibriumPhasesPerSolution(lists [][]PhaseSpec) ([]string, []Warning) {
	blocks := make([]string, len(lists))
	var warnings []Warning
	for i, specs := range lists {
		b, w := g.EquilibriumPhases(specs, *g.opts.IndexBase+i)
		blocks[i] = b
		warnings = append(warnings, w...)
	}
	return blocks, warnings
}

//Personal.AI order the ending
