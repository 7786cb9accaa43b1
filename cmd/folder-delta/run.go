package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"folder-delta/internal/config"
	"folder-delta/internal/delta"
	"folder-delta/internal/progress"
	"folder-delta/internal/report"
	"folder-delta/internal/syncer"
	"folder-delta/internal/walker"
)

// runOptions is the merged view of config file and flags for one run.
type runOptions struct {
	cfg      *config.Config
	mode     syncer.Mode
	source   string
	target   string
	sync     bool
	dryRun   bool
	progress bool
}

func runDiff(cmd *cobra.Command, args []string) error {
	return execute(cmd, args, false)
}

func runSyncCmd(cmd *cobra.Command, args []string) error {
	return execute(cmd, args, true)
}

func execute(cmd *cobra.Command, args []string, doSync bool) error {
	ctx, cancel := setupSignalHandler()
	defer cancel()

	logger := setupLogger()

	opts, err := resolveOptions(cmd, args, doSync, logger)
	if err != nil {
		return err
	}

	return run(ctx, opts, cmd.OutOrStdout(), logger)
}

func resolveOptions(cmd *cobra.Command, args []string, doSync bool, logger *slog.Logger) (*runOptions, error) {
	logger.Debug("loading configuration", "path", cfgFile)
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	applyFlagOverrides(cmd.Flags(), cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	syncMode, err := syncer.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}

	return &runOptions{
		cfg:      cfg,
		mode:     syncMode,
		source:   args[0],
		target:   args[1],
		sync:     doSync,
		dryRun:   doSync && dryRun,
		progress: !noProgress,
	}, nil
}

// applyFlagOverrides copies every explicitly set run flag over cfg.
func applyFlagOverrides(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("report") {
		cfg.ReportFile = reportFile
	}
	if flags.Changed("json-report") {
		cfg.JSONReportFile = jsonReportFile
	}
	if flags.Changed("mode") {
		cfg.Mode = mode
	}
	if flags.Changed("truncate") {
		cfg.Truncate = truncate
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("exclude") {
		cfg.Exclude = exclude
	}
	if flags.Changed("continue-on-error") {
		cfg.ContinueOnError = continueOnError
	}
}

// run computes the delta, writes the reports and optionally syncs.
func run(ctx context.Context, opts *runOptions, stdout io.Writer, logger *slog.Logger) error {
	source, err := walker.Open(opts.source)
	if err != nil {
		return err
	}
	target, err := walker.Open(opts.target)
	if err != nil {
		return err
	}

	logger.Info("comparing trees", "source", opts.source, "target", opts.target, "mode", opts.mode)

	var bar *progress.Bar
	if opts.progress {
		bar = progress.New(0)
	}

	result, err := delta.Compute(ctx, source, target, delta.Options{
		Exclude:         opts.cfg.Exclude,
		Workers:         opts.cfg.Workers,
		ContinueOnError: opts.cfg.ContinueOnError,
		Progress:        bar,
		Logger:          logger,
	})
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("failed to compute delta: %w", err)
	}

	contentOnly := opts.mode == syncer.ModeContent
	workbook := report.Build(result, report.Options{
		ContentOnly: contentOnly,
		TruncateAt:  opts.cfg.TruncateAt(),
	})

	if err := report.WriteXLSX(workbook, opts.cfg.ReportFile); err != nil {
		return err
	}
	logger.Info("report written", "path", opts.cfg.ReportFile)

	if opts.cfg.JSONReportFile != "" {
		meta := report.Meta{
			SourceRoot:        result.SourceRoot,
			TargetRoot:        result.TargetRoot,
			SourceFingerprint: result.SourceFingerprint,
			TargetFingerprint: result.TargetFingerprint,
		}
		if err := report.WriteJSON(workbook, meta, opts.cfg.JSONReportFile); err != nil {
			return err
		}
		logger.Info("json report written", "path", opts.cfg.JSONReportFile)
	}

	fmt.Fprintln(stdout, report.FormatSummary(result, contentOnly))

	if failed := result.Failed(); len(failed) > 0 {
		logger.Warn("some comparisons failed", "count", len(failed))
	}

	if !opts.sync {
		return nil
	}

	executor := syncer.NewExecutor(source, target, opts.mode,
		syncer.WithWorkers(opts.cfg.Workers),
		syncer.WithDryRun(opts.dryRun),
		syncer.WithLogger(logger))

	if _, err := executor.Apply(ctx, result); err != nil {
		return fmt.Errorf("failed to sync target: %w", err)
	}
	return nil
}
