package tree

import (
	"encoding/hex"
	"fmt"
	"sort"

	mt "github.com/txaty/go-merkletree"

	"folder-delta/internal/hash"
	"folder-delta/internal/walker"
)

var emptyTree = []byte("empty-tree")

// Fingerprint computes a merkle root over a snapshot.
// Following the classic algorithm:
// 1. Sort files alphabetically by path
// 2. Create leaf nodes from (path, mtime)
// 3. Pair adjacent nodes and hash them up to a single root
func Fingerprint(snapshot *walker.Snapshot) (string, error) {
	// Sort paths alphabetically for deterministic ordering
	paths := make([]string, 0, len(snapshot.Files))
	for path := range snapshot.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	blocks := make([]mt.DataBlock, 0, len(paths))
	for _, path := range paths {
		blocks = append(blocks, leaf{record: snapshot.Files[path]})
	}

	// go-merkletree needs at least two blocks
	switch len(blocks) {
	case 0:
		root, _ := hash.XXHashFunc(emptyTree)
		return hex.EncodeToString(root), nil
	case 1:
		data, err := blocks[0].Serialize()
		if err != nil {
			return "", fmt.Errorf("failed to serialize leaf: %w", err)
		}
		root, _ := hash.XXHashFunc(data)
		return hex.EncodeToString(root), nil
	}

	tree, err := mt.New(&mt.Config{
		HashFunc: hash.XXHashFunc,
		Mode:     mt.ModeTreeBuild,
	}, blocks)
	if err != nil {
		return "", fmt.Errorf("failed to build merkle tree: %w", err)
	}

	return hex.EncodeToString(tree.Root), nil
}
