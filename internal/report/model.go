// Package report turns a delta into the tabular model consumed by the report
// renderers.
package report

import (
	"folder-delta/internal/delta"
)

const (
	SheetUpdated = "updated_files"
	SheetNew     = "new_files"
	SheetDeleted = "deleted_files"
)

var (
	updatedHeader = []string{
		"file_name",
		"updated_timestamp_in_source_dir",
		"updated_timestamp_in_target_dir",
		"changed_content",
	}
	fileHeader = []string{"file_name"}
)

// Sheet is one named table of the report.
type Sheet struct {
	Name   string     `json:"name"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Workbook holds the report sheets in output order.
type Workbook struct {
	Sheets []Sheet `json:"sheets"`
}

// Sheet returns the named sheet, or nil.
func (w *Workbook) Sheet(name string) *Sheet {
	for i := range w.Sheets {
		if w.Sheets[i].Name == name {
			return &w.Sheets[i]
		}
	}
	return nil
}

// Options control the derived views of the model.
type Options struct {
	// ContentOnly drops updated entries with an empty change description.
	ContentOnly bool

	// TruncateAt cuts changed_content cells longer than this many runes.
	// Zero disables truncation.
	TruncateAt int
}

// Build lays out the three report sheets for result.
func Build(result *delta.Result, opts Options) *Workbook {
	updated := Sheet{Name: SheetUpdated, Header: updatedHeader, Rows: make([][]string, 0, len(result.Updated))}
	for _, entry := range result.Updated {
		description := entry.Description()
		if opts.ContentOnly && description == "" {
			continue
		}
		updated.Rows = append(updated.Rows, []string{
			entry.Path,
			entry.SourceTimestamp(),
			entry.TargetTimestamp(),
			truncate(description, opts.TruncateAt),
		})
	}

	return &Workbook{Sheets: []Sheet{
		updated,
		fileSheet(SheetNew, result.New),
		fileSheet(SheetDeleted, result.Deleted),
	}}
}

func fileSheet(name string, paths []string) Sheet {
	rows := make([][]string, 0, len(paths))
	for _, p := range paths {
		rows = append(rows, []string{p})
	}
	return Sheet{Name: name, Header: fileHeader, Rows: rows}
}

const ellipsis = "..."

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= len(ellipsis) {
		return string(runes[:limit])
	}
	return string(runes[:limit-len(ellipsis)]) + ellipsis
}
