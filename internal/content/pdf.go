package content

import (
	"context"
	"fmt"
	"io"

	"github.com/go-git/go-billy/v5"
	"github.com/ledongthuc/pdf"

	"folder-delta/internal/hash"
)

// PageComparator hashes the content streams of every page present in both
// documents. Pages past the end of the shorter document are not compared;
// the page counts are kept on the verdict so callers can flag the gap.
type PageComparator struct{}

func (PageComparator) Compare(ctx context.Context, pair Pair) (Verdict, error) {
	source, closeSource, err := openDocument(pair.Source, pair.Path)
	if err != nil {
		return nil, err
	}
	defer closeSource()

	target, closeTarget, err := openDocument(pair.Target, pair.Path)
	if err != nil {
		return nil, err
	}
	defer closeTarget()

	diff := PageDiff{
		SourcePages: source.NumPage(),
		TargetPages: target.NumPage(),
	}

	common := min(diff.SourcePages, diff.TargetPages)
	for i := 0; i < common; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sourceSum, err := pageHash(source, i, pair.Path)
		if err != nil {
			return nil, err
		}
		targetSum, err := pageHash(target, i, pair.Path)
		if err != nil {
			return nil, err
		}
		if sourceSum != targetSum {
			diff.Pages = append(diff.Pages, i)
		}
	}

	if len(diff.Pages) == 0 && diff.SourcePages == diff.TargetPages {
		return Unchanged{}, nil
	}
	return diff, nil
}

func openDocument(fsys billy.Filesystem, path string) (r *pdf.Reader, closeFn func(), err error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrUnreadableFile, path, err)
	}
	f, err := fsys.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrUnreadableFile, path, err)
	}

	// The parser panics on some malformed input
	defer func() {
		if rec := recover(); rec != nil {
			f.Close()
			r, closeFn = nil, nil
			err = fmt.Errorf("%w: %s: %v", ErrUnsupportedContent, path, rec)
		}
	}()

	r, err = pdf.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrUnsupportedContent, path, err)
	}
	// Touch the page tree so structural errors surface here
	_ = r.NumPage()

	return r, func() { f.Close() }, nil
}

// pageHash hashes the decoded content of the 0-based page index. Multiple
// content streams are concatenated in document order.
func pageHash(r *pdf.Reader, index int, path string) (sum string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %s: page %d: %v", ErrUnsupportedContent, path, index+1, rec)
		}
	}()

	page := r.Page(index + 1)
	if page.V.IsNull() {
		return "", fmt.Errorf("%w: %s: page %d not found in page tree", ErrUnsupportedContent, path, index+1)
	}

	var data []byte
	contents := page.V.Key("Contents")
	switch contents.Kind() {
	case pdf.Null:
		// A page without content streams is blank
	case pdf.Stream:
		data, err = readStream(contents)
		if err != nil {
			return "", fmt.Errorf("%w: %s: page %d: %w", ErrUnsupportedContent, path, index+1, err)
		}
	case pdf.Array:
		for j := 0; j < contents.Len(); j++ {
			stream := contents.Index(j)
			if stream.Kind() != pdf.Stream {
				return "", fmt.Errorf("%w: %s: page %d: content array entry %d is not a stream", ErrUnsupportedContent, path, index+1, j)
			}
			part, err := readStream(stream)
			if err != nil {
				return "", fmt.Errorf("%w: %s: page %d: %w", ErrUnsupportedContent, path, index+1, err)
			}
			data = append(data, part...)
		}
	default:
		return "", fmt.Errorf("%w: %s: page %d: unexpected /Contents kind %d", ErrUnsupportedContent, path, index+1, contents.Kind())
	}

	return hash.HashBytes(data), nil
}

func readStream(v pdf.Value) ([]byte, error) {
	rc := v.Reader()
	defer rc.Close()
	return io.ReadAll(rc)
}
