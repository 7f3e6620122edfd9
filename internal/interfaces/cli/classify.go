package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/phreeqprep/internal/application/speciation"
	"github.com/turtacn/phreeqprep/pkg/errors"
)

type columnList []speciation.ResultColumn

func (c columnList) String() string {
	var sb strings.Builder
	for i, col := range c {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%-28s %-16s %s", col.Raw, col.Measure, col.Name)
	}
	return sb.String()
}

func (c columnList) TableHeaders() []string { return []string{"COLUMN", "MEASURE", "NAME"} }

func (c columnList) TableRows() [][]string {
	rows := make([][]string, len(c))
	for i, col := range c {
		rows[i] = []string{col.Raw, string(col.Measure), col.Name}
	}
	return rows
}

type resultSummary struct {
	Rows     int                             `json:"rows" yaml:"rows"`
	Measures map[speciation.Measure][]string `json:"measures" yaml:"measures"`
	Table    *speciation.ResultTable         `json:"table,omitempty" yaml:"-"`
}

var measureOrder = []speciation.Measure{
	speciation.MeasureTotal,
	speciation.MeasureMolality,
	speciation.MeasureLogActivity,
	speciation.MeasureLogSaturation,
	speciation.MeasureGeneral,
}

func (r resultSummary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d rows", r.Rows)
	for _, m := range measureOrder {
		if names := r.Measures[m]; len(names) > 0 {
			fmt.Fprintf(&sb, "\n%s: %s", m, strings.Join(names, " "))
		}
	}
	return sb.String()
}

func newClassifyCmd() *cobra.Command {
	var (
		file string
		full bool
	)
	cmd := &cobra.Command{
		Use:   "classify [COLUMN...]",
		Short: "Classify solver output columns, or summarise a result array",
		Long: "With column headings as arguments, report the measure each one holds.\n" +
			"With --file, read the solver's JSON array (headings row first) and\n" +
			"summarise which totals, molalities, activities and saturation indices it holds.",
		Annotations: map[string]string{annotationNoRuntime: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				if len(args) == 0 {
					return errors.InvalidParam("give column headings or --file")
				}
				return PrintResult(cmd, columnList(speciation.ClassifyColumns(args)))
			}

			var r io.Reader = cmd.InOrStdin()
			if file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return errors.Wrap(err, errors.ErrCodeBadRequest, "cannot open result file")
				}
				defer f.Close()
				r = f
			}
			var array [][]interface{}
			if err := json.NewDecoder(r).Decode(&array); err != nil {
				return errors.Wrap(err, errors.ErrCodeSerialization, "result file is not a JSON array of rows")
			}
			table, err := speciation.NewResultTable(array)
			if err != nil {
				return err
			}
			sum := resultSummary{Rows: len(table.Rows), Measures: map[speciation.Measure][]string{}}
			for _, m := range measureOrder {
				if names := table.Names(m); len(names) > 0 {
					sum.Measures[m] = names
				}
			}
			if full {
				sum.Table = table
			}
			return PrintResult(cmd, sum)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "solver result array as JSON ('-' for stdin)")
	cmd.Flags().BoolVar(&full, "full", false, "include the parsed table in json output")
	return cmd
}

//Personal.AI order the ending
