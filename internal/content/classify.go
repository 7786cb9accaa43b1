package content

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
)

var (
	// ErrUnreadableFile is returned when either side of a pair cannot be read.
	ErrUnreadableFile = errors.New("unreadable file")

	// ErrUnsupportedContent is returned for PDF structures the page
	// comparator does not understand.
	ErrUnsupportedContent = errors.New("unsupported content structure")
)

// Kind selects a comparator.
type Kind int

const (
	KindBinary Kind = iota
	KindText
	KindPage
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindPage:
		return "page"
	default:
		return "binary"
	}
}

// Pair names one relative path on both sides of a comparison.
type Pair struct {
	Path   string
	Source billy.Filesystem
	Target billy.Filesystem
}

// Comparator determines whether the two sides of a pair differ.
type Comparator interface {
	Compare(ctx context.Context, pair Pair) (Verdict, error)
}

// Extension returns the case-sensitive suffix after the last '.' of the
// base name, or "" when the name has no dot.
func Extension(p string) string {
	name := path.Base(p)
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[i+1:]
}

// Classify maps a path to its comparator kind by extension.
func Classify(p string) Kind {
	switch Extension(p) {
	case "csv", "tsv", "txt":
		return KindText
	case "pdf":
		return KindPage
	default:
		return KindBinary
	}
}

// For returns the comparator for kind.
func For(kind Kind) Comparator {
	switch kind {
	case KindText:
		return TextComparator{}
	case KindPage:
		return PageComparator{}
	default:
		return BinaryComparator{}
	}
}
