package report

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"folder-delta/internal/compare"
	"folder-delta/internal/delta"
)

var (
	newColor     = color.New(color.FgGreen, color.Bold)
	updatedColor = color.New(color.FgYellow, color.Bold)
	deletedColor = color.New(color.FgRed, color.Bold)
	failedColor  = color.New(color.FgRed)
	dimColor     = color.New(color.FgHiBlack)
)

// FormatSummary renders a console summary of result. With contentOnly,
// updated entries without a detected content difference are counted but
// not listed.
func FormatSummary(result *delta.Result, contentOnly bool) string {
	if !result.HasChanges() {
		return "No changes detected."
	}

	var report strings.Builder
	report.WriteString("Changes detected:\n\n")

	if len(result.New) > 0 {
		fmt.Fprintf(&report, "%s (%d files):\n", newColor.Sprint(compare.Added), len(result.New))
		for _, path := range result.New {
			fmt.Fprintf(&report, "  + %s\n", path)
		}
		report.WriteString("\n")
	}

	if len(result.Updated) > 0 {
		fmt.Fprintf(&report, "%s (%d files):\n", updatedColor.Sprint(compare.Modified), len(result.Updated))
		hidden := 0
		for _, entry := range result.Updated {
			description := entry.Description()
			if contentOnly && description == "" {
				hidden++
				continue
			}
			fmt.Fprintf(&report, "  ~ %s\n", entry.Path)
			fmt.Fprintf(&report, "    %s\n", dimColor.Sprintf("source=%s target=%s",
				entry.SourceTimestamp(), entry.TargetTimestamp()))
			if description == "" {
				continue
			}
			if entry.Err != nil {
				fmt.Fprintf(&report, "    %s\n", failedColor.Sprint(description))
				continue
			}
			for _, line := range strings.Split(description, "\n") {
				fmt.Fprintf(&report, "    %s\n", line)
			}
		}
		if hidden > 0 {
			fmt.Fprintf(&report, "  (%d newer files without content changes)\n", hidden)
		}
		report.WriteString("\n")
	}

	if len(result.Deleted) > 0 {
		fmt.Fprintf(&report, "%s (%d files):\n", deletedColor.Sprint(compare.Deleted), len(result.Deleted))
		for _, path := range result.Deleted {
			fmt.Fprintf(&report, "  - %s\n", path)
		}
		report.WriteString("\n")
	}

	fmt.Fprintf(&report, "Summary: %d new, %d updated, %d deleted\n",
		len(result.New), len(result.Updated), len(result.Deleted))

	return report.String()
}
