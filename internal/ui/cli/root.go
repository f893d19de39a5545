package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	coreapp "xref/internal/core/app"
	"xref/internal/core/config"
	"xref/internal/shared/version"

	"github.com/spf13/cobra"
)

// defaultConfigName is looked up in the working directory when --config is
// not given.
const defaultConfigName = "xref.toml"

// errFilesSkipped makes the process exit non-zero after a run that wrote
// the tree but skipped some files.
var errFilesSkipped = errors.New("some source files were skipped")

type rootOptions struct {
	configPath string
	verbose    bool
}

// NewRootCommand builds the xref command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "xref",
		Short: "Generate a browsable HTML cross-reference of Java sources",
		Long: `xref renders every Java source file under the configured roots as an
HTML page with line anchors and links from type references to their
declarations, plus per-package and overview index pages.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file (default ./"+defaultConfigName+" when present)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newGenerateCommand(opts),
		newWatchCommand(opts),
		newHistoryCommand(opts),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute(args []string) int {
	root := NewRootCommand()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errFilesSkipped) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		return 1
	}
	return 0
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "xref v%s\n", version.Version)
		},
	}
}

// loadConfig reads the explicit config file, or ./xref.toml when it exists,
// or falls back to the defaults. Environment overrides apply on top. The
// returned path is empty when no file was used.
func loadConfig(path, cwd string) (*config.Config, string, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case strings.TrimSpace(path) != "":
		cfg, err = config.Load(path)
		if err != nil {
			return nil, "", fmt.Errorf("load config %s: %w", path, err)
		}
	default:
		candidate := filepath.Join(cwd, defaultConfigName)
		if _, statErr := os.Stat(candidate); statErr == nil {
			path = candidate
			if cfg, err = config.Load(candidate); err != nil {
				return nil, "", fmt.Errorf("load config %s: %w", candidate, err)
			}
		} else {
			cfg = config.Default()
			config.ResolvePaths(cfg, cwd)
		}
	}

	config.ApplyEnvOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// sourceOverrides holds the flags shared by generate and watch.
type sourceOverrides struct {
	dest     string
	symbolDB string
	findings string
	history  string
	workers  int
}

func (o *sourceOverrides) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.dest, "dest", "d", "", "destination directory (overrides output.destination)")
	cmd.Flags().StringVar(&o.symbolDB, "symbol-db", "", "also export the symbol table to this SQLite file")
	cmd.Flags().StringVar(&o.findings, "sarif", "", "write skipped files and link warnings to this SARIF file")
	cmd.Flags().StringVar(&o.history, "history-db", "", "record the run in this SQLite history file")
	cmd.Flags().IntVarP(&o.workers, "workers", "j", 0, "emission workers (overrides performance.workers)")
}

// overrides returns a function applying the environment and then the
// command line to a config. Positional arguments replace the configured
// source roots.
func (o *sourceOverrides) overrides(cwd string, roots []string) func(*config.Config) {
	return func(cfg *config.Config) {
		config.ApplyEnvOverrides(cfg)
		if len(roots) > 0 {
			cfg.Sources.Roots = cfg.Sources.Roots[:0]
			for _, root := range roots {
				cfg.Sources.Roots = append(cfg.Sources.Roots, config.ResolveRelative(cwd, root))
			}
		}
		if o.dest != "" {
			cfg.Output.Destination = config.ResolveRelative(cwd, o.dest)
		}
		if o.history != "" {
			cfg.Output.HistoryDB = config.ResolveRelative(cwd, o.history)
		}
		if o.symbolDB != "" {
			cfg.Output.SymbolDB = config.ResolveRelative(cwd, o.symbolDB)
		}
		if o.findings != "" {
			cfg.Output.FindingsSARIF = config.ResolveRelative(cwd, o.findings)
		}
		if o.workers > 0 {
			cfg.Performance.Workers = o.workers
		}
	}
}

// prepare loads the config, applies the command line and builds the app.
func prepare(root *rootOptions, src *sourceOverrides, args []string) (*coreapp.App, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("detect working directory: %w", err)
	}
	cfg, cfgPath, err := loadConfig(root.configPath, cwd)
	if err != nil {
		return nil, "", err
	}
	apply := src.overrides(cwd, args)
	apply(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}

	app, err := coreapp.New(cfg)
	if err != nil {
		return nil, "", err
	}
	app.Overrides = apply
	return app, cfgPath, nil
}
