package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/phreeqprep/internal/domain/chemistry"
	"github.com/turtacn/phreeqprep/internal/domain/phreeqc"
	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/phreeqprep/pkg/errors"
)

// parseTargets turns flag values into an element set, rejecting symbols
// that are not elements.
func parseTargets(raw []string) (chemistry.ElementSet, error) {
	syms := splitList(raw)
	if len(syms) == 0 {
		return nil, errors.InvalidParam("at least one target element is required (--targets Ca,Mg)")
	}
	var bad []string
	for _, s := range syms {
		if !chemistry.IsValidElement(s) {
			bad = append(bad, s)
		}
	}
	if len(bad) > 0 {
		return nil, errors.InvalidParam("not element symbols: " + strings.Join(bad, ", "))
	}
	return chemistry.NewElementSet(syms...), nil
}

func newDatabasesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "databases",
		Short: "List the databases available by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, ctx, cancel, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			names, err := c.Runtime.Registry.Names(ctx)
			if err != nil {
				return err
			}
			return PrintResult(cmd, nameList{Kind: "database", Items: names})
		},
	}

	upload := &cobra.Command{
		Use:   "upload FILE...",
		Short: "Copy local database files to the object store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			if c.Runtime.Objects == nil {
				return errors.New(errors.ErrCodeServiceUnavailable, "object storage is not enabled (minio.enabled)")
			}
			var names []string
			for _, path := range args {
				name, err := c.Runtime.Objects.Upload(ctx, path)
				if err != nil {
					return err
				}
				c.Logger.Info("uploaded", logging.Database(name), logging.String("path", path))
				names = append(names, name)
			}
			return PrintResult(cmd, nameList{Kind: "uploaded", Items: names})
		},
	}
	cmd.AddCommand(upload)
	return cmd
}

func newSectionsCmd() *cobra.Command {
	var show string
	cmd := &cobra.Command{
		Use:   "sections",
		Short: "List the sections of a database, or print one with --show",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, ctx, cancel, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			db, err := c.LoadDatabase(ctx)
			if err != nil {
				return err
			}
			if show != "" {
				lines, err := db.Section(strings.ToUpper(show))
				if err != nil {
					return err
				}
				return PrintResult(cmd, nameList{Database: db.Name(), Kind: strings.ToUpper(show), Items: lines})
			}
			return PrintResult(cmd, nameList{Database: db.Name(), Kind: "section", Items: db.SectionNames()})
		},
	}
	cmd.Flags().StringVar(&show, "show", "", "print the lines of this section")
	return cmd
}

func newSpeciesCmd() *cobra.Command {
	var (
		targets []string
		section string
		strict  bool
		noHCO   bool
	)
	cmd := &cobra.Command{
		Use:   "species",
		Short: "List product species that involve the target elements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := parseTargets(targets)
			if err != nil {
				return err
			}
			c, ctx, cancel, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			db, err := c.LoadDatabase(ctx)
			if err != nil {
				return err
			}
			opts := phreeqc.SpeciesOptions{AllowForeign: !strict, AllowHCO: !noHCO}
			species, err := db.SpeciesFor(set, strings.ToUpper(section), opts)
			if err != nil {
				return err
			}
			return PrintResult(cmd, nameList{Database: db.Name(), Kind: "species", Targets: set.Sorted(), Items: species})
		},
	}
	cmd.Flags().StringSliceVarP(&targets, "targets", "t", nil, "target elements (comma separated)")
	cmd.Flags().StringVar(&section, "section", phreeqc.SectionSolutionSpecies, "reaction section to scan")
	cmd.Flags().BoolVar(&strict, "strict", false, "only species made entirely of target elements")
	cmd.Flags().BoolVar(&noHCO, "no-hco", false, "with --strict, do not admit H, C and O")
	return cmd
}

func newPhasesCmd() *cobra.Command {
	var (
		targets []string
		noHCO   bool
		details bool
	)
	cmd := &cobra.Command{
		Use:   "phases",
		Short: "List phases made only of the target elements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, ctx, cancel, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			db, err := c.LoadDatabase(ctx)
			if err != nil {
				return err
			}

			if len(targets) == 0 {
				all, err := db.Phases()
				if err != nil {
					return err
				}
				if details {
					return PrintResult(cmd, phaseTable(all))
				}
				names := make([]string, len(all))
				for i, p := range all {
					names[i] = p.Name
				}
				return PrintResult(cmd, nameList{Database: db.Name(), Kind: "phase", Items: names})
			}

			set, err := parseTargets(targets)
			if err != nil {
				return err
			}
			names, err := db.PhasesFor(set, !noHCO)
			if err != nil {
				return err
			}
			if details {
				out := make(phaseTable, 0, len(names))
				for _, n := range names {
					if p, ok, _ := db.Phase(n); ok {
						out = append(out, p)
					}
				}
				return PrintResult(cmd, out)
			}
			return PrintResult(cmd, nameList{Database: db.Name(), Kind: "phase", Targets: set.Sorted(), Items: names})
		},
	}
	cmd.Flags().StringSliceVarP(&targets, "targets", "t", nil, "target elements (all phases when omitted)")
	cmd.Flags().BoolVar(&noHCO, "no-hco", false, "do not admit H, C and O beyond the targets")
	cmd.Flags().BoolVar(&details, "details", false, "include formulas")
	return cmd
}

type phaseTable []phreeqc.Phase

func (p phaseTable) String() string {
	var sb strings.Builder
	for _, ph := range p {
		fmt.Fprintf(&sb, "%s\t%s\n", ph.Name, ph.Formula)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func (p phaseTable) TableHeaders() []string { return []string{"PHASE", "FORMULA"} }

func (p phaseTable) TableRows() [][]string {
	rows := make([][]string, len(p))
	for i, ph := range p {
		rows[i] = []string{ph.Name, ph.Formula}
	}
	return rows
}

func newMasterCmd() *cobra.Command {
	var targets []string
	cmd := &cobra.Command{
		Use:   "master",
		Short: "List the element keys whose elements are all targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := parseTargets(targets)
			if err != nil {
				return err
			}
			c, ctx, cancel, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			db, err := c.LoadDatabase(ctx)
			if err != nil {
				return err
			}
			return PrintResult(cmd, nameList{Database: db.Name(), Kind: "element", Targets: set.Sorted(), Items: db.MasterSpeciesFor(set)})
		},
	}
	cmd.Flags().StringSliceVarP(&targets, "targets", "t", nil, "target elements (comma separated)")
	return cmd
}

func newValidCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "valid",
		Short: "List the element keys and master species of a database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, ctx, cancel, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			db, err := c.LoadDatabase(ctx)
			if err != nil {
				return err
			}
			return PrintResult(cmd, masterTable(db.ValidSpecies()))
		},
	}
}

type masterTable []phreeqc.MasterEntry

func (m masterTable) String() string {
	var sb strings.Builder
	for _, e := range m {
		fmt.Fprintf(&sb, "%-12s %s\n", e.Element, e.Species)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func (m masterTable) TableHeaders() []string { return []string{"ELEMENT", "MASTER SPECIES"} }

func (m masterTable) TableRows() [][]string {
	rows := make([][]string, len(m))
	for i, e := range m {
		rows[i] = []string{e.Element, e.Species}
	}
	return rows
}

//Personal.AI order the ending
