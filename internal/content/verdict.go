package content

import (
	"fmt"
	"strings"
)

// Verdict is the outcome of one comparison. The set of implementations is
// closed: LineDiff, PageDiff, BinaryMismatch and Unchanged.
type Verdict interface {
	// Summary is the change description; empty means no detected difference.
	Summary() string
	verdict()
}

// Side says which tree a line exists in.
type Side string

const (
	SourceOnly Side = "source"
	TargetOnly Side = "target"
)

// LineChange is a line present on one side only. Line counts the lines
// common to both sides seen before it.
type LineChange struct {
	Line int
	Side Side
	Text string
}

func (c LineChange) String() string {
	return fmt.Sprintf("line %d in %s only: %s", c.Line, c.Side, c.Text)
}

type LineDiff struct {
	Changes []LineChange
}

func (d LineDiff) Summary() string {
	lines := make([]string, len(d.Changes))
	for i, c := range d.Changes {
		lines[i] = c.String()
	}
	return strings.Join(lines, "\n")
}

// PageDiff lists the 0-based indexes of pages whose content differs. Only
// pages present in both documents are compared.
type PageDiff struct {
	Pages       []int
	SourcePages int
	TargetPages int
}

func (d PageDiff) Summary() string {
	lines := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		lines[i] = fmt.Sprintf("page %d differs", p+1)
	}
	return strings.Join(lines, "\n")
}

type BinaryMismatch struct{}

func (BinaryMismatch) Summary() string { return "Mismatch" }

type Unchanged struct{}

func (Unchanged) Summary() string { return "" }

func (LineDiff) verdict()       {}
func (PageDiff) verdict()       {}
func (BinaryMismatch) verdict() {}
func (Unchanged) verdict()      {}
