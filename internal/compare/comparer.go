package compare

import (
	"sort"
	"time"

	"folder-delta/internal/walker"
)

type ChangeType string

const (
	Added    ChangeType = "NEW"
	Modified ChangeType = "UPDATED"
	Deleted  ChangeType = "DELETED"
)

// Candidate is a path present on both sides whose source copy is newer.
type Candidate struct {
	Path       string
	SourceTime time.Time
	TargetTime time.Time
}

// Sets is the timestamp-only classification of two snapshots.
type Sets struct {
	New        []string
	Deleted    []string
	Candidates []Candidate
}

func (s *Sets) HasChanges() bool {
	return len(s.New) > 0 || len(s.Deleted) > 0 || len(s.Candidates) > 0
}

// Reconcile splits the paths of two snapshots into new, deleted and
// candidate updates. A shared path is a candidate only when the source
// mtime is strictly after the target mtime; content is never consulted.
func Reconcile(source, target *walker.Snapshot) *Sets {
	sets := &Sets{
		New:        make([]string, 0),
		Deleted:    make([]string, 0),
		Candidates: make([]Candidate, 0),
	}

	// Check for new and updated files
	for path, src := range source.Files {
		dst, exists := target.Files[path]
		if !exists {
			sets.New = append(sets.New, path)
			continue
		}
		if src.ModTime.After(dst.ModTime) {
			sets.Candidates = append(sets.Candidates, Candidate{
				Path:       path,
				SourceTime: src.ModTime,
				TargetTime: dst.ModTime,
			})
		}
	}

	// Check for deleted files
	for path := range target.Files {
		if _, exists := source.Files[path]; !exists {
			sets.Deleted = append(sets.Deleted, path)
		}
	}

	// Sort for deterministic output
	sort.Strings(sets.New)
	sort.Strings(sets.Deleted)
	sort.Slice(sets.Candidates, func(i, j int) bool {
		return sets.Candidates[i].Path < sets.Candidates[j].Path
	})

	return sets
}
