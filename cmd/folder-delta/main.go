package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "dev"

	// Global flags
	cfgFile   string
	logLevel  string
	logFormat string

	// Run flags, overriding the config file when set
	reportFile      string
	jsonReportFile  string
	mode            string
	truncate        bool
	workers         int
	exclude         []string
	continueOnError bool
	noProgress      bool
	dryRun          bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "folder-delta",
	Short: "Compare two directory trees and sync the target to the source",
	Long: `folder-delta compares a source and a target directory tree, classifies every
file as new, deleted or updated, and describes what changed inside updated
files (line diff for csv/tsv/txt, page diff for pdf, hash comparison for
everything else).

The result is written to an xlsx workbook. The sync command also applies the
delta to the target tree.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var diffCmd = &cobra.Command{
	Use:   "diff <source> <target>",
	Short: "Compute the delta and write the report",
	Args:  cobra.ExactArgs(2),
	RunE:  runDiff,
}

var syncCmd = &cobra.Command{
	Use:   "sync <source> <target>",
	Short: "Compute the delta, write the report and update the target tree",
	Long: `Sync computes the delta, writes the report, then copies new files, removes
deleted files and copies updated files into the target tree.

In content mode only updated files with a detected content change are copied;
in timestamp mode every file that is newer in the source is copied.`,
	Args: cobra.ExactArgs(2),
	RunE: runSyncCmd,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "folder-delta %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "folder-delta.yaml", "config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	for _, cmd := range []*cobra.Command{diffCmd, syncCmd} {
		flags := cmd.Flags()
		flags.StringVarP(&reportFile, "report", "r", "", "xlsx report path (default from config)")
		flags.StringVar(&jsonReportFile, "json-report", "", "also write the report as JSON to this path")
		flags.StringVarP(&mode, "mode", "m", "", "update mode: timestamp or content (default from config)")
		flags.BoolVar(&truncate, "truncate", false, "truncate long change descriptions in the report")
		flags.IntVarP(&workers, "workers", "w", 0, "number of concurrent comparisons (default CPU count)")
		flags.StringSliceVar(&exclude, "exclude", nil, "glob patterns to leave out of both scans")
		flags.BoolVar(&continueOnError, "continue-on-error", false, "record comparison failures in the report instead of aborting")
		flags.BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
	}
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be done without making changes")

	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(versionCmd)
}

func setupLogger() *slog.Logger {
	// Parse log level
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// Logs go to stderr; stdout carries the summary
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if logFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

func setupSignalHandler() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
