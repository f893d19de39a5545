package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	coreapp "xref/internal/core/app"

	"github.com/spf13/cobra"
)

type watchOptions struct {
	sourceOverrides
	ui bool
}

func newWatchCommand(root *rootOptions) *cobra.Command {
	opts := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch [source-root...]",
		Short: "Generate, then regenerate whenever sources change",
		Long: `Watch generates the tree once and regenerates it after every debounced
batch of source changes until interrupted. When a config file is in use,
editing it reloads the configuration and triggers a run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, root, opts, args)
		},
	}
	opts.register(cmd)
	cmd.Flags().BoolVar(&opts.ui, "ui", false, "show the terminal UI")
	return cmd
}

func runWatch(cmd *cobra.Command, root *rootOptions, opts *watchOptions, args []string) error {
	cleanupLogs := configureLogging(opts.ui, root.verbose)
	defer cleanupLogs()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	generator, cfgPath, err := prepare(root, &opts.sourceOverrides, args)
	if err != nil {
		return err
	}
	cleanupObs, err := startObservability(ctx, generator.Config.Observability, generator)
	if err != nil {
		return err
	}
	defer cleanupObs()

	if opts.ui {
		_, err := runUI(ctx, generator, true, cfgPath, root.verbose)
		return err
	}

	out := cmd.OutOrStdout()
	return generator.Watch(ctx, cfgPath, func(report *coreapp.Report, err error) {
		if err != nil {
			slog.Error("generation failed", "error", err)
			return
		}
		_, _ = out.Write([]byte(renderSummary(report, root.verbose)))
	})
}
