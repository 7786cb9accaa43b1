// Package syncer applies a computed delta to the target tree.
//
// Operations run in three phases: copy new files, remove deleted files, copy
// updated files. Each phase finishes before the next starts; inside a phase
// operations may run concurrently. A failed operation stops the run, and
// nothing already applied is rolled back.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"sync/atomic"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/sync/errgroup"

	"folder-delta/internal/delta"
)

// ErrSyncWrite wraps every copy or remove failure.
var ErrSyncWrite = errors.New("sync write failed")

// Mode selects which updated files are copied.
type Mode string

const (
	// ModeTimestamp copies every updated file.
	ModeTimestamp Mode = "timestamp"
	// ModeContent copies only updated files with a detected content change.
	ModeContent Mode = "content"
)

// ParseMode accepts "timestamp" (or its short form "ts") and "content".
func ParseMode(s string) (Mode, error) {
	switch s {
	case string(ModeTimestamp), "ts":
		return ModeTimestamp, nil
	case string(ModeContent):
		return ModeContent, nil
	default:
		return "", fmt.Errorf("unknown sync mode %q (want timestamp or content)", s)
	}
}

// ShouldCopy reports whether an updated entry is copied under mode.
func (m Mode) ShouldCopy(entry delta.UpdatedEntry) bool {
	switch m {
	case ModeTimestamp:
		return true
	case ModeContent:
		return entry.Description() != ""
	default:
		return false
	}
}

// Result counts the operations applied. On failure it reflects the partial
// state of the target tree.
type Result struct {
	copied  int64
	deleted int64
	updated int64
	Skipped int
}

func (r *Result) Copied() int  { return int(atomic.LoadInt64(&r.copied)) }
func (r *Result) Deleted() int { return int(atomic.LoadInt64(&r.deleted)) }
func (r *Result) Updated() int { return int(atomic.LoadInt64(&r.updated)) }

// Executor copies from source to target. The source filesystem is only read.
type Executor struct {
	source  billy.Filesystem
	target  billy.Filesystem
	mode    Mode
	workers int
	dryRun  bool
	logger  *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithWorkers bounds concurrent operations inside a phase.
func WithWorkers(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithDryRun logs the planned operations without applying them.
func WithDryRun(dryRun bool) Option {
	return func(e *Executor) { e.dryRun = dryRun }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExecutor creates an executor for the given trees and mode.
func NewExecutor(source, target billy.Filesystem, mode Mode, opts ...Option) *Executor {
	e := &Executor{
		source:  source,
		target:  target,
		mode:    mode,
		workers: 1,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply runs the three sync phases for result.
func (e *Executor) Apply(ctx context.Context, result *delta.Result) (*Result, error) {
	out := &Result{}

	var updates []string
	for _, entry := range result.Updated {
		if e.mode.ShouldCopy(entry) {
			updates = append(updates, entry.Path)
		} else {
			out.Skipped++
			e.logger.Debug("skipping updated file without content change", "path", entry.Path)
		}
	}

	e.logger.Info("sync plan",
		"mode", e.mode,
		"add", len(result.New),
		"delete", len(result.Deleted),
		"update", len(updates),
		"skip", out.Skipped,
		"dry_run", e.dryRun)

	if e.dryRun {
		e.logPlanDetails(result.New, result.Deleted, updates)
		return out, nil
	}

	phases := []struct {
		name    string
		paths   []string
		op      func(string) error
		counter *int64
	}{
		{"add", result.New, e.copyFile, &out.copied},
		{"delete", result.Deleted, e.removeFile, &out.deleted},
		{"update", updates, e.copyFile, &out.updated},
	}

	for _, phase := range phases {
		if err := e.runPhase(ctx, phase.name, phase.paths, phase.op, phase.counter); err != nil {
			e.logger.Error("sync stopped, target tree is partially updated",
				"phase", phase.name,
				"copied", out.Copied(),
				"deleted", out.Deleted(),
				"updated", out.Updated(),
				"error", err)
			return out, err
		}
	}

	e.logger.Info("sync completed",
		"copied", out.Copied(),
		"deleted", out.Deleted(),
		"updated", out.Updated())
	return out, nil
}

func (e *Executor) runPhase(ctx context.Context, name string, paths []string, op func(string) error, counter *int64) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, p := range paths {
		p := p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e.logger.Info(phaseVerb(name), "path", p)
			if err := op(p); err != nil {
				return fmt.Errorf("%w: %s %s: %w", ErrSyncWrite, name, p, err)
			}
			atomic.AddInt64(counter, 1)
			return nil
		})
	}

	return g.Wait()
}

func phaseVerb(name string) string {
	switch name {
	case "add":
		return "adding file"
	case "delete":
		return "deleting file"
	default:
		return "updating file"
	}
}

func (e *Executor) removeFile(p string) error {
	return e.target.Remove(p)
}

var tmpSeq uint64

// copyFile copies p from source to target with an atomic rename, creating
// parent directories as needed.
func (e *Executor) copyFile(p string) error {
	dir := path.Dir(p)

	// Ensure parent directory exists
	if dir != "." {
		if err := e.target.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	srcFile, err := e.source.Open(p)
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	srcInfo, err := e.source.Stat(p)
	if err != nil {
		return err
	}

	// Write to a temp file in the destination directory
	tmpPath := path.Join(dir, fmt.Sprintf(".folder-delta-tmp-%d-%s", atomic.AddUint64(&tmpSeq, 1), path.Base(p)))
	tmpFile, err := e.target.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		_ = e.target.Remove(tmpPath)
	}() // cleanup on error

	if _, err := io.Copy(tmpFile, srcFile); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	// Atomic rename
	return e.target.Rename(tmpPath, p)
}

func (e *Executor) logPlanDetails(added, deleted, updated []string) {
	for _, p := range added {
		e.logger.Info("[dry-run] would add", "path", p)
	}
	for _, p := range deleted {
		e.logger.Info("[dry-run] would delete", "path", p)
	}
	for _, p := range updated {
		e.logger.Info("[dry-run] would update", "path", p)
	}
}
