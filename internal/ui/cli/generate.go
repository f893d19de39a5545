package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

type generateOptions struct {
	sourceOverrides
	ui    bool
	quiet bool
}

func newGenerateCommand(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate [source-root...]",
		Short: "Generate the cross-reference tree once",
		Long: `Generate scans the source roots, builds the symbol table, writes one
HTML page per Java file and then the package and overview indexes.

Source roots given as arguments replace sources.roots from the config.
A file that cannot be read or rendered is reported and skipped; the
command then exits with status 1 after writing everything else.`,
		Example: `  xref generate src/main/java --dest target/xref
  xref generate --config xref.toml --ui`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, root, opts, args)
		},
	}
	opts.register(cmd)
	cmd.Flags().BoolVar(&opts.ui, "ui", false, "show the terminal UI")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "no progress bars or summary")
	return cmd
}

func runGenerate(cmd *cobra.Command, root *rootOptions, opts *generateOptions, args []string) error {
	cleanupLogs := configureLogging(opts.ui, root.verbose)
	defer cleanupLogs()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	generator, _, err := prepare(root, &opts.sourceOverrides, args)
	if err != nil {
		return err
	}
	cleanupObs, err := startObservability(ctx, generator.Config.Observability, generator)
	if err != nil {
		return err
	}
	defer cleanupObs()

	if opts.ui {
		report, err := runUI(ctx, generator, false, "", root.verbose)
		if err != nil {
			return err
		}
		if report != nil && report.Failed() {
			return errFilesSkipped
		}
		return nil
	}

	out := cmd.OutOrStdout()
	reporter := newProgressReporter(cmd.ErrOrStderr(), opts.quiet)
	generator.SetProgressHandler(reporter.handle)
	report, err := generator.Run(ctx)
	reporter.finish()
	if err != nil {
		return err
	}
	if !opts.quiet {
		_, _ = out.Write([]byte(renderSummary(report, root.verbose)))
	}
	if report.Failed() {
		return errFilesSkipped
	}
	return nil
}
