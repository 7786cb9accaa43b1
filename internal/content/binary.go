package content

import (
	"context"
	"fmt"

	"folder-delta/internal/hash"
)

// BinaryComparator compares full-content hashes.
type BinaryComparator struct{}

func (BinaryComparator) Compare(ctx context.Context, pair Pair) (Verdict, error) {
	source, err := hash.HashFile(pair.Source, pair.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadableFile, pair.Path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := hash.HashFile(pair.Target, pair.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadableFile, pair.Path, err)
	}

	if source != target {
		return BinaryMismatch{}, nil
	}
	return Unchanged{}, nil
}
