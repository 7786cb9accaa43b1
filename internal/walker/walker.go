package walker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// ErrRootNotFound is returned when a tree root is missing or unreadable.
var ErrRootNotFound = errors.New("root not found")

// FileRecord describes one file of a tree, keyed by its root-relative path.
type FileRecord struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Snapshot maps slash-separated relative paths to their records for one root.
type Snapshot struct {
	Root  string
	Files map[string]FileRecord
}

// Open checks that root is a readable directory and returns a filesystem
// chrooted at it.
func Open(root string) (billy.Filesystem, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRootNotFound, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrRootNotFound, root)
	}
	f, err := os.Open(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRootNotFound, root, err)
	}
	f.Close()

	return osfs.New(root), nil
}

// maxLinkDepth bounds how many directory symlinks one path may pass
// through, so link cycles end in an error instead of an endless walk.
const maxLinkDepth = 40

// Scan walks fsys depth-first and records every regular file. Symlinks are
// followed: a link to a file is recorded with the target's size and mtime,
// a link to a directory is descended into. Any walk error aborts the scan.
func Scan(ctx context.Context, fsys billy.Filesystem, exclusions []string) (*Snapshot, error) {
	s := &scanner{
		ctx:        ctx,
		fsys:       fsys,
		exclusions: exclusions,
		snapshot: &Snapshot{
			Root:  fsys.Root(),
			Files: make(map[string]FileRecord),
		},
	}

	if err := s.walk("", 0); err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", s.snapshot.Root, err)
	}

	return s.snapshot, nil
}

type scanner struct {
	ctx        context.Context
	fsys       billy.Filesystem
	exclusions []string
	snapshot   *Snapshot
}

// walk visits root and everything below it. depth counts the directory
// symlinks already followed to reach root.
func (s *scanner) walk(root string, depth int) error {
	return util.Walk(s.fsys, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := s.ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		relPath := filepath.ToSlash(p)
		if relPath == "" || relPath == "." {
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 {
			resolved, err := s.fsys.Stat(p)
			if err != nil {
				return fmt.Errorf("failed to resolve symlink %s: %w", relPath, err)
			}
			if shouldExclude(relPath, resolved.IsDir(), s.exclusions) {
				return nil
			}
			if resolved.IsDir() {
				return s.walkLinkedDir(p, depth+1)
			}
			info = resolved
		} else if shouldExclude(relPath, info.IsDir(), s.exclusions) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		// Only add regular files, not directories or devices
		if !info.Mode().IsRegular() {
			return nil
		}

		s.snapshot.Files[relPath] = FileRecord{
			Path:    relPath,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		return nil
	})
}

// walkLinkedDir descends into the directory a symlink at p points to. The
// entries keep their paths under p.
func (s *scanner) walkLinkedDir(p string, depth int) error {
	if depth > maxLinkDepth {
		return fmt.Errorf("too many levels of symbolic links at %s", filepath.ToSlash(p))
	}

	entries, err := s.fsys.ReadDir(p)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := s.walk(s.fsys.Join(p, entry.Name()), depth); err != nil {
			return err
		}
	}
	return nil
}

func shouldExclude(relPath string, isDir bool, exclusions []string) bool {
	for _, pattern := range exclusions {
		// Handle directory exclusions (patterns ending with /)
		if strings.HasSuffix(pattern, "/") {
			dirPattern := strings.TrimSuffix(pattern, "/")
			parts := strings.Split(relPath, "/")
			// The last element is only a directory when the entry is one
			if !isDir {
				parts = parts[:len(parts)-1]
			}
			for _, part := range parts {
				if matched, _ := path.Match(dirPattern, part); matched {
					return true
				}
			}
			continue
		}

		// Handle file pattern exclusions
		if matched, err := path.Match(pattern, path.Base(relPath)); err == nil && matched {
			return true
		}
		// Also try matching against the full relative path for patterns with /
		if strings.Contains(pattern, "/") {
			if matched, err := path.Match(pattern, relPath); err == nil && matched {
				return true
			}
		}
	}
	return false
}
