// Package cli implements the phreeqprep command line: database queries,
// formula decomposition and solver input generation.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/phreeqprep/internal/bootstrap"
	"github.com/turtacn/phreeqprep/internal/config"
	"github.com/turtacn/phreeqprep/internal/domain/phreeqc"
	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/phreeqprep/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const (
	// annotationNoRuntime marks commands that need no database access.
	annotationNoRuntime = "phreeqprep/no-runtime"
	// annotationPublisher marks commands that publish solver jobs.
	annotationPublisher = "phreeqprep/publisher"
)

type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Database     string
	DatabaseDir  string
	Verbose      bool
	Timeout      time.Duration
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	Runtime      *bootstrap.Runtime
	OutputFormat string
	Database     string
	Timeout      time.Duration
}

// LoadDatabase resolves the selected database.
func (c *CLIContext) LoadDatabase(ctx context.Context) (*phreeqc.Database, error) {
	return c.Runtime.Registry.Get(ctx, c.Database)
}

// NewRootCommand creates the root command with all global flags and
// subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "phreeqprep",
		Short: "PhreeqPrep: query PHREEQC databases and build solver input",
		Long: "PhreeqPrep reads PHREEQC thermodynamic databases, answers which species\n" +
			"and phases a set of elements can form, and turns water composition tables\n" +
			"into validated solver input decks.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return persistentPreRun(cmd, opts)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if c, err := GetCLIContext(cmd); err == nil && c.Runtime != nil {
				return c.Runtime.Close()
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./phreeqprep.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json, yaml, table)")
	pf.StringVarP(&opts.Database, "database", "d", "", "database name or path (default from config)")
	pf.StringVar(&opts.DatabaseDir, "database-dir", "", "directory of bundled databases (overrides config)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "global operation timeout")

	cmd.AddCommand(
		newDatabasesCmd(),
		newSectionsCmd(),
		newSpeciesCmd(),
		newPhasesCmd(),
		newMasterCmd(),
		newValidCmd(),
		newDecomposeCmd(),
		newCheckCmd(),
		newInputCmd(),
		newSubmitCmd(),
		newClassifyCmd(),
		newVersionCmd(),
	)
	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	switch strings.ToLower(opts.OutputFormat) {
	case "text", "json", "yaml", "table":
	default:
		return errors.InvalidParam(fmt.Sprintf("unknown output format %q", opts.OutputFormat))
	}

	cfg, err := initConfig(opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	if opts.DatabaseDir != "" {
		cfg.Database.Dir = opts.DatabaseDir
	}

	level := opts.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	logger := logging.NewWriterLogger(cmd.ErrOrStderr(), level, "console")

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		Database:     opts.Database,
		Timeout:      opts.Timeout,
	}
	if cliCtx.Database == "" {
		cliCtx.Database = cfg.Database.Default
	}

	if cmd.Annotations[annotationNoRuntime] == "" {
		rt, err := bootstrap.New(cmd.Context(), cfg, logger, bootstrap.Options{
			Publisher: cmd.Annotations[annotationPublisher] != "",
			Source:    "phreeqprep-cli",
		})
		if err != nil {
			return err
		}
		cliCtx.Runtime = rt
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cliCtx))
	return nil
}

// initConfig loads configuration with priority: flags > env > file > defaults.
func initConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}

	searchPaths := []string{"./phreeqprep.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".phreeqprep", "config.yaml"))
	}
	searchPaths = append(searchPaths, "/etc/phreeqprep/config.yaml")

	for _, p := range searchPaths {
		if _, err := os.Stat(p); err == nil {
			return config.Load(p)
		}
	}
	return config.LoadFromEnv()
}

// GetCLIContext extracts CLIContext from a command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.InvalidParam("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.InvalidParam("CLIContext not found in command context")
	}
	return cliCtx, nil
}

// commandContext returns the CLI context and a request context bounded by
// the global timeout.
func commandContext(cmd *cobra.Command) (*CLIContext, context.Context, context.CancelFunc, error) {
	c, err := GetCLIContext(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), c.Timeout)
	return c, ctx, cancel, nil
}

// Execute is the main entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoRuntime: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return PrintResult(cmd, versionInfo{Version: Version, Commit: GitCommit, BuildDate: BuildDate})
		},
	}
}

type versionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
}

func (v versionInfo) String() string {
	return fmt.Sprintf("phreeqprep %s (commit: %s, built: %s)", v.Version, v.Commit, v.BuildDate)
}

//Personal.AI order the ending
