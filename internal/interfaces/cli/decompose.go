package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/phreeqprep/internal/domain/chemistry"
	"github.com/turtacn/phreeqprep/pkg/errors"
)

type decomposition struct {
	Formula string         `json:"formula" yaml:"formula"`
	Counts  map[string]int `json:"counts" yaml:"counts"`
	Valence string         `json:"valence,omitempty" yaml:"valence,omitempty"`
	Valid   bool           `json:"valid" yaml:"valid"`
}

type decompositions []decomposition

func (d decompositions) String() string {
	var sb strings.Builder
	for i, x := range d {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(x.Formula + ":")
		for _, el := range sortedKeys(x.Counts) {
			fmt.Fprintf(&sb, " %s=%d", el, x.Counts[el])
		}
		if x.Valence != "" {
			sb.WriteString(" charge=" + x.Valence)
		}
		if !x.Valid {
			sb.WriteString(" (unknown elements)")
		}
	}
	return sb.String()
}

func (d decompositions) TableHeaders() []string {
	return []string{"FORMULA", "ELEMENTS", "CHARGE"}
}

func (d decompositions) TableRows() [][]string {
	rows := make([][]string, len(d))
	for i, x := range d {
		var parts []string
		for _, el := range sortedKeys(x.Counts) {
			parts = append(parts, fmt.Sprintf("%s%d", el, x.Counts[el]))
		}
		rows[i] = []string{x.Formula, strings.Join(parts, " "), x.Valence}
	}
	return rows
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newDecomposeCmd() *cobra.Command {
	var (
		count  string
		strict bool
	)
	cmd := &cobra.Command{
		Use:         "decompose FORMULA...",
		Short:       "Break chemical formulas into element counts",
		Example:     "  phreeqprep decompose CaMg(CO3)2 'CaSO4:2H2O' B(OH)4-",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{annotationNoRuntime: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := make(decompositions, 0, len(args))
			for _, f := range args {
				comp, err := chemistry.DecomposeCount(f, count)
				if err != nil {
					return err
				}
				valid := chemistry.IsValidMolecule(f)
				if strict && !valid {
					return errors.Newf(errors.ErrCodeInvalidFormula, "formula %q contains unknown elements", f)
				}
				out = append(out, decomposition{Formula: f, Counts: comp.Counts, Valence: comp.Valence, Valid: valid})
			}
			return PrintResult(cmd, out)
		},
	}
	cmd.Flags().StringVarP(&count, "count", "n", "", "multiply every count by this repeat count")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on formulas with unknown elements")
	return cmd
}

//Personal.AI order the ending
