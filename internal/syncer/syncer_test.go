package syncer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folder-delta/internal/content"
	"folder-delta/internal/delta"
)

func writeMem(t *testing.T, fsys billy.Filesystem, files map[string]string) {
	t.Helper()
	for p, data := range files {
		require.NoError(t, util.WriteFile(fsys, p, []byte(data), 0644))
	}
}

func readMem(t *testing.T, fsys billy.Filesystem, p string) string {
	t.Helper()
	data, err := util.ReadFile(fsys, p)
	require.NoError(t, err)
	return string(data)
}

func exists(fsys billy.Filesystem, p string) bool {
	_, err := fsys.Stat(p)
	return err == nil
}

// memTrees returns an in-memory pair and a delta with one changed and one
// unchanged updated entry.
func memTrees(t *testing.T) (billy.Filesystem, billy.Filesystem, *delta.Result) {
	t.Helper()
	source, target := memfs.New(), memfs.New()
	writeMem(t, source, map[string]string{
		"new/deep/b.bin": "new",
		"changed.txt":    "after\n",
		"touched.bin":    "same-src",
	})
	writeMem(t, target, map[string]string{
		"old.txt":     "old\n",
		"changed.txt": "before\n",
		"touched.bin": "same-dst",
	})

	result := &delta.Result{
		New:     []string{"new/deep/b.bin"},
		Deleted: []string{"old.txt"},
		Updated: []delta.UpdatedEntry{
			{Path: "changed.txt", Verdict: content.LineDiff{Changes: []content.LineChange{{Side: content.SourceOnly, Text: "after"}}}},
			{Path: "touched.bin", Verdict: content.Unchanged{}},
		},
	}
	return source, target, result
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"timestamp": ModeTimestamp,
		"ts":        ModeTimestamp,
		"content":   ModeContent,
	} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseMode("hash")
	assert.Error(t, err)
}

func TestApply_ContentModeSkipsUnchanged(t *testing.T) {
	source, target, result := memTrees(t)

	out, err := NewExecutor(source, target, ModeContent).Apply(context.Background(), result)
	require.NoError(t, err)

	assert.Equal(t, 1, out.Copied())
	assert.Equal(t, 1, out.Deleted())
	assert.Equal(t, 1, out.Updated())
	assert.Equal(t, 1, out.Skipped)

	assert.Equal(t, "new", readMem(t, target, "new/deep/b.bin"))
	assert.False(t, exists(target, "old.txt"))
	assert.Equal(t, "after\n", readMem(t, target, "changed.txt"))
	assert.Equal(t, "same-dst", readMem(t, target, "touched.bin"))
}

func TestApply_TimestampModeCopiesAllUpdates(t *testing.T) {
	source, target, result := memTrees(t)

	out, err := NewExecutor(source, target, ModeTimestamp).Apply(context.Background(), result)
	require.NoError(t, err)

	assert.Equal(t, 2, out.Updated())
	assert.Equal(t, 0, out.Skipped)
	assert.Equal(t, "after\n", readMem(t, target, "changed.txt"))
	assert.Equal(t, "same-src", readMem(t, target, "touched.bin"))
}

func TestApply_ContentModeCopiesFailedComparisons(t *testing.T) {
	entry := delta.UpdatedEntry{Path: "x.pdf", Err: content.ErrUnsupportedContent}
	assert.True(t, ModeContent.ShouldCopy(entry))
	assert.False(t, ModeContent.ShouldCopy(delta.UpdatedEntry{Path: "y.bin", Verdict: content.Unchanged{}}))
	assert.True(t, ModeTimestamp.ShouldCopy(delta.UpdatedEntry{Path: "y.bin", Verdict: content.Unchanged{}}))
}

func TestApply_DryRunLeavesTargetUntouched(t *testing.T) {
	source, target, result := memTrees(t)

	out, err := NewExecutor(source, target, ModeTimestamp, WithDryRun(true)).Apply(context.Background(), result)
	require.NoError(t, err)

	assert.Zero(t, out.Copied()+out.Deleted()+out.Updated())
	assert.True(t, exists(target, "old.txt"))
	assert.False(t, exists(target, "new/deep/b.bin"))
	assert.Equal(t, "before\n", readMem(t, target, "changed.txt"))
}

func TestApply_FailureLeavesPartialState(t *testing.T) {
	source, target, result := memTrees(t)
	result.Deleted = []string{"missing.txt"}

	out, err := NewExecutor(source, target, ModeTimestamp).Apply(context.Background(), result)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSyncWrite)
	assert.ErrorContains(t, err, "missing.txt")

	// New files were applied before the delete phase failed; updates never ran
	assert.Equal(t, 1, out.Copied())
	assert.Equal(t, 0, out.Updated())
	assert.True(t, exists(target, "new/deep/b.bin"))
	assert.Equal(t, "before\n", readMem(t, target, "changed.txt"))
}

func TestApply_MissingSourceFile(t *testing.T) {
	source, target := memfs.New(), memfs.New()
	result := &delta.Result{New: []string{"ghost.txt"}}

	_, err := NewExecutor(source, target, ModeContent).Apply(context.Background(), result)
	assert.ErrorIs(t, err, ErrSyncWrite)
	assert.False(t, exists(target, "ghost.txt"))
}

func TestApply_PreservesPermissionsAndNeverTouchesSource(t *testing.T) {
	sourceDir, targetDir := t.TempDir(), t.TempDir()
	script := filepath.Join(sourceDir, "bin", "run.bin")
	require.NoError(t, os.MkdirAll(filepath.Dir(script), 0755))
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"), 0755))

	result := &delta.Result{New: []string{"bin/run.bin"}}
	_, err := NewExecutor(osfs.New(sourceDir), osfs.New(targetDir), ModeContent).Apply(context.Background(), result)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(targetDir, "bin", "run.bin"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Join(targetDir, "bin"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")

	srcEntries, err := os.ReadDir(filepath.Join(sourceDir, "bin"))
	require.NoError(t, err)
	assert.Len(t, srcEntries, 1)
}

func setMtime(t *testing.T, root, rel, data string, mtime time.Time) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(data), 0644))
	require.NoError(t, os.Chtimes(full, mtime, mtime))
}

func TestEndToEnd(t *testing.T) {
	older := time.Now().Add(-2 * time.Hour).Truncate(time.Second)
	newer := older.Add(time.Hour)

	for _, mode := range []Mode{ModeContent, ModeTimestamp} {
		t.Run(string(mode), func(t *testing.T) {
			sourceDir, targetDir := t.TempDir(), t.TempDir()
			setMtime(t, sourceDir, "a.txt", "foo\n", newer)
			setMtime(t, sourceDir, "b.bin", "\x00binary", newer)
			setMtime(t, targetDir, "a.txt", "bar\n", older)
			setMtime(t, targetDir, "c.txt", "stale\n", older)

			source, target := osfs.New(sourceDir), osfs.New(targetDir)
			result, err := delta.Compute(context.Background(), source, target, delta.Options{})
			require.NoError(t, err)

			assert.Equal(t, []string{"b.bin"}, result.New)
			assert.Equal(t, []string{"c.txt"}, result.Deleted)
			require.Len(t, result.Updated, 1)
			assert.Equal(t, "a.txt", result.Updated[0].Path)
			assert.NotEmpty(t, result.Updated[0].Description())

			_, err = NewExecutor(source, target, mode, WithWorkers(4)).Apply(context.Background(), result)
			require.NoError(t, err)

			data, err := os.ReadFile(filepath.Join(targetDir, "a.txt"))
			require.NoError(t, err)
			assert.Equal(t, "foo\n", string(data))
			assert.FileExists(t, filepath.Join(targetDir, "b.bin"))
			assert.NoFileExists(t, filepath.Join(targetDir, "c.txt"))

			// The source tree is never written
			assert.NoFileExists(t, filepath.Join(sourceDir, "c.txt"))
			data, err = os.ReadFile(filepath.Join(sourceDir, "a.txt"))
			require.NoError(t, err)
			assert.Equal(t, "foo\n", string(data))
		})
	}
}

func TestEndToEnd_TimestampModeCopiesWithoutContentChange(t *testing.T) {
	older := time.Now().Add(-2 * time.Hour).Truncate(time.Second)
	newer := older.Add(time.Hour)

	sourceDir, targetDir := t.TempDir(), t.TempDir()
	setMtime(t, sourceDir, "a.txt", "same\n", newer)
	setMtime(t, targetDir, "a.txt", "same\n", older)

	source, target := osfs.New(sourceDir), osfs.New(targetDir)
	result, err := delta.Compute(context.Background(), source, target, delta.Options{})
	require.NoError(t, err)
	require.Len(t, result.Updated, 1)
	require.Empty(t, result.Updated[0].Description())

	out, err := NewExecutor(source, target, ModeContent).Apply(context.Background(), result)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Updated())

	out, err = NewExecutor(source, target, ModeTimestamp).Apply(context.Background(), result)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Updated())
}

func TestEndToEnd_SymlinksAreCopiedAsContent(t *testing.T) {
	older := time.Now().Add(-2 * time.Hour).Truncate(time.Second)

	sourceDir, targetDir := t.TempDir(), t.TempDir()
	setMtime(t, sourceDir, "real/x.txt", "inside\n", older)
	setMtime(t, sourceDir, "data.txt", "data\n", older)
	require.NoError(t, os.Symlink("real", filepath.Join(sourceDir, "link")))
	require.NoError(t, os.Symlink("data.txt", filepath.Join(sourceDir, "alias.txt")))

	source, target := osfs.New(sourceDir), osfs.New(targetDir)
	result, err := delta.Compute(context.Background(), source, target, delta.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"alias.txt", "data.txt", "link/x.txt", "real/x.txt"}, result.New)

	out, err := NewExecutor(source, target, ModeContent).Apply(context.Background(), result)
	require.NoError(t, err)
	assert.Equal(t, 4, out.Copied())

	data, err := os.ReadFile(filepath.Join(targetDir, "link", "x.txt"))
	require.NoError(t, err)
	assert.Equal(t, "inside\n", string(data))

	info, err := os.Lstat(filepath.Join(targetDir, "alias.txt"))
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular())
	data, err = os.ReadFile(filepath.Join(targetDir, "alias.txt"))
	require.NoError(t, err)
	assert.Equal(t, "data\n", string(data))

	// A second run finds nothing left to add
	again, err := delta.Compute(context.Background(), source, target, delta.Options{})
	require.NoError(t, err)
	assert.Empty(t, again.New)
	assert.Empty(t, again.Deleted)
}
