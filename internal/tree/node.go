package tree

import (
	"strconv"

	"folder-delta/internal/walker"
)

// leaf is one snapshot entry as fed to the merkle tree.
type leaf struct {
	record walker.FileRecord
}

// Serialize implements merkletree.DataBlock. Only path and mtime take part,
// so snapshots that reconcile to an empty delta share a fingerprint. Equal
// fingerprints only make that likely; the root is a 64-bit hash.
func (l leaf) Serialize() ([]byte, error) {
	buf := make([]byte, 0, len(l.record.Path)+21)
	buf = append(buf, l.record.Path...)
	buf = append(buf, 0)
	buf = strconv.AppendInt(buf, l.record.ModTime.UnixNano(), 10)
	return buf, nil
}
