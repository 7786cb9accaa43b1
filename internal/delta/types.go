package delta

import (
	"fmt"
	"time"

	"folder-delta/internal/content"
)

// TimestampLayout is the second-precision format used for report timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// UpdatedEntry is a path whose source copy is newer than its target copy.
type UpdatedEntry struct {
	Path       string
	SourceTime time.Time
	TargetTime time.Time
	Kind       content.Kind
	Verdict    content.Verdict

	// Err is set instead of Verdict when the comparison failed and the run
	// was configured to continue.
	Err error
}

// Description is the change description shown in reports and used by the
// content sync policy. Empty means no content difference was detected.
func (u UpdatedEntry) Description() string {
	if u.Err != nil {
		return fmt.Sprintf("comparison failed: %v", u.Err)
	}
	if u.Verdict == nil {
		return ""
	}
	return u.Verdict.Summary()
}

func (u UpdatedEntry) SourceTimestamp() string {
	return u.SourceTime.Format(TimestampLayout)
}

func (u UpdatedEntry) TargetTimestamp() string {
	return u.TargetTime.Format(TimestampLayout)
}

// Result is the delta between two trees. It is not modified after Compute
// returns.
type Result struct {
	SourceRoot string
	TargetRoot string

	SourceFingerprint string
	TargetFingerprint string

	New     []string
	Deleted []string
	Updated []UpdatedEntry
}

func (r *Result) HasChanges() bool {
	return len(r.New) > 0 || len(r.Deleted) > 0 || len(r.Updated) > 0
}

// Failed returns the updated entries whose comparison did not complete.
func (r *Result) Failed() []UpdatedEntry {
	var failed []UpdatedEntry
	for _, u := range r.Updated {
		if u.Err != nil {
			failed = append(failed, u)
		}
	}
	return failed
}
