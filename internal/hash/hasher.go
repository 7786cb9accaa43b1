package hash

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/go-git/go-billy/v5"
)

const bufferSize = 32 * 1024 // 32KB buffer for streaming

// HashFile computes the xxHash of a file inside fsys using streaming for large files
func HashFile(fsys billy.Filesystem, path string) (string, error) {
	file, err := fsys.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	sum, err := HashReader(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return sum, nil
}

// HashReader drains r into an xxHash digest and returns it hex encoded.
func HashReader(r io.Reader) (string, error) {
	h := xxhash.New()
	buf := make([]byte, bufferSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes returns the hex encoded xxHash of data.
func HashBytes(data []byte) string {
	sum := xxhash.Sum64(data)
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, sum)
	return hex.EncodeToString(buf)
}

// XXHashFunc is a custom hash function adapter for go-merkletree
// It converts []byte input to xxHash []byte output
func XXHashFunc(data []byte) ([]byte, error) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, xxhash.Sum64(data))
	return buf, nil
}
