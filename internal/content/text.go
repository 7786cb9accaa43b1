package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/pmezard/go-difflib/difflib"
)

// TextComparator aligns two files line by line.
type TextComparator struct{}

func (TextComparator) Compare(ctx context.Context, pair Pair) (Verdict, error) {
	source, err := readLines(pair.Source, pair.Path)
	if err != nil {
		return nil, err
	}
	target, err := readLines(pair.Target, pair.Path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	changes := DiffLines(source, target)
	if len(changes) == 0 {
		return Unchanged{}, nil
	}
	return LineDiff{Changes: changes}, nil
}

// DiffLines reports every line that exists on only one side. The line
// counter advances only on lines common to both sides, so all changes
// between two common lines share the same number. Changes before the first
// common line report line 0.
func DiffLines(source, target []string) []LineChange {
	var changes []LineChange
	line := 0

	matcher := difflib.NewMatcher(source, target)
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'e':
			line += op.I2 - op.I1
		case 'd', 'r', 'i':
			for _, text := range source[op.I1:op.I2] {
				changes = append(changes, LineChange{Line: line, Side: SourceOnly, Text: strings.TrimSpace(text)})
			}
			for _, text := range target[op.J1:op.J2] {
				changes = append(changes, LineChange{Line: line, Side: TargetOnly, Text: strings.TrimSpace(text)})
			}
		}
	}

	return changes
}

// readLines splits a file into lines that keep their terminator, with CRLF
// folded to LF. A trailing newline does not produce an empty last line.
func readLines(fsys billy.Filesystem, path string) ([]string, error) {
	data, err := util.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadableFile, path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}
