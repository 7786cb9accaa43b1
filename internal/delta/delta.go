// Package delta computes the difference between a source and a target tree.
//
// Compute runs the pipeline in stages, each producing the input of the next:
// both trees are scanned concurrently, the snapshots are reconciled by
// timestamp, and every candidate update is handed to the comparator chosen
// by its extension. Comparisons run on a bounded worker pool; results are
// placed by index so the order of Result.Updated always matches the sorted
// candidate order.
package delta

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/sync/errgroup"

	"folder-delta/internal/compare"
	"folder-delta/internal/content"
	"folder-delta/internal/progress"
	"folder-delta/internal/tree"
	"folder-delta/internal/walker"
)

// Options tune a comparison run.
type Options struct {
	// Exclude holds walker glob patterns. Empty means every file is scanned.
	Exclude []string

	// Workers bounds concurrent comparisons; <= 0 uses the CPU count.
	Workers int

	// ContinueOnError records comparator failures on the entry instead of
	// aborting the run.
	ContinueOnError bool

	Progress *progress.Bar
	Logger   *slog.Logger
}

// Compute scans both trees and builds their delta.
func Compute(ctx context.Context, source, target billy.Filesystem, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	srcSnap, dstSnap, err := scanBoth(ctx, source, target, opts.Exclude)
	if err != nil {
		return nil, err
	}
	logger.Info("scanned trees",
		"source", srcSnap.Root, "source_files", len(srcSnap.Files),
		"target", dstSnap.Root, "target_files", len(dstSnap.Files))

	result := &Result{
		SourceRoot: srcSnap.Root,
		TargetRoot: dstSnap.Root,
	}

	result.SourceFingerprint, err = tree.Fingerprint(srcSnap)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint source: %w", err)
	}
	result.TargetFingerprint, err = tree.Fingerprint(dstSnap)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint target: %w", err)
	}

	if result.SourceFingerprint == result.TargetFingerprint && sameFiles(srcSnap, dstSnap) {
		logger.Info("trees are identical by path and mtime", "fingerprint", result.SourceFingerprint)
		result.New, result.Deleted, result.Updated = []string{}, []string{}, []UpdatedEntry{}
		return result, nil
	}

	sets := compare.Reconcile(srcSnap, dstSnap)
	logger.Info("reconciled trees",
		"new", len(sets.New),
		"deleted", len(sets.Deleted),
		"candidates", len(sets.Candidates))

	updated, err := compareCandidates(ctx, source, target, sets.Candidates, opts, logger)
	if err != nil {
		return nil, err
	}

	result.New = sets.New
	result.Deleted = sets.Deleted
	result.Updated = updated
	return result, nil
}

// sameFiles reports whether both snapshots hold the same paths with equal
// mtimes. It confirms a fingerprint match before reconciliation is skipped.
func sameFiles(a, b *walker.Snapshot) bool {
	if len(a.Files) != len(b.Files) {
		return false
	}
	for p, ra := range a.Files {
		rb, ok := b.Files[p]
		if !ok || !ra.ModTime.Equal(rb.ModTime) {
			return false
		}
	}
	return true
}

func scanBoth(ctx context.Context, source, target billy.Filesystem, exclude []string) (*walker.Snapshot, *walker.Snapshot, error) {
	var srcSnap, dstSnap *walker.Snapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		srcSnap, err = walker.Scan(gctx, source, exclude)
		if err != nil {
			return fmt.Errorf("failed to scan source: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		dstSnap, err = walker.Scan(gctx, target, exclude)
		if err != nil {
			return fmt.Errorf("failed to scan target: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return srcSnap, dstSnap, nil
}

func compareCandidates(
	ctx context.Context,
	source, target billy.Filesystem,
	candidates []compare.Candidate,
	opts Options,
	logger *slog.Logger,
) ([]UpdatedEntry, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	entries := make([]UpdatedEntry, len(candidates))
	if opts.Progress != nil {
		opts.Progress.SetTotal(int64(len(candidates)))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, candidate := range candidates {
		i, candidate := i, candidate
		g.Go(func() error {
			kind := content.Classify(candidate.Path)
			entry := UpdatedEntry{
				Path:       candidate.Path,
				SourceTime: candidate.SourceTime,
				TargetTime: candidate.TargetTime,
				Kind:       kind,
			}

			verdict, err := content.For(kind).Compare(gctx, content.Pair{
				Path:   candidate.Path,
				Source: source,
				Target: target,
			})
			switch {
			case err != nil && (!opts.ContinueOnError || gctx.Err() != nil):
				return fmt.Errorf("failed to compare %s: %w", candidate.Path, err)
			case err != nil:
				logger.Warn("comparison failed", "path", candidate.Path, "comparator", kind.String(), "error", err)
				entry.Err = err
			default:
				entry.Verdict = verdict
				logVerdict(logger, candidate.Path, kind, verdict)
			}

			entries[i] = entry
			if opts.Progress != nil {
				opts.Progress.Increment(candidate.Path)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

func logVerdict(logger *slog.Logger, path string, kind content.Kind, verdict content.Verdict) {
	if diff, ok := verdict.(content.PageDiff); ok && diff.SourcePages != diff.TargetPages {
		logger.Warn("page counts differ, extra pages were not compared",
			"path", path,
			"source_pages", diff.SourcePages,
			"target_pages", diff.TargetPages)
	}
	logger.Debug("compared file",
		"path", path,
		"comparator", kind.String(),
		"changed", verdict.Summary() != "")
}
