package content

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPair(t *testing.T, path string, source, target []byte) Pair {
	t.Helper()
	src, dst := memfs.New(), memfs.New()
	if source != nil {
		require.NoError(t, util.WriteFile(src, path, source, 0644))
	}
	if target != nil {
		require.NoError(t, util.WriteFile(dst, path, target, 0644))
	}
	return Pair{Path: path, Source: src, Target: dst}
}

func samePair(t *testing.T, path string, data []byte) Pair {
	t.Helper()
	fsys := memfs.New()
	require.NoError(t, util.WriteFile(fsys, path, data, 0644))
	return Pair{Path: path, Source: fsys, Target: fsys}
}

func TestClassify(t *testing.T) {
	cases := map[string]Kind{
		"a.txt":          KindText,
		"dir/data.csv":   KindText,
		"dir/data.tsv":   KindText,
		"report.pdf":     KindPage,
		"archive.tar.gz": KindBinary,
		"README":         KindBinary,
		"upper.TXT":      KindBinary,
		"upper.PDF":      KindBinary,
		"v1.2/notes":     KindBinary,
		"v1.2/notes.txt": KindText,
	}

	for path, want := range cases {
		assert.Equal(t, want, Classify(path), path)
	}
}

func TestFor(t *testing.T) {
	assert.IsType(t, TextComparator{}, For(KindText))
	assert.IsType(t, PageComparator{}, For(KindPage))
	assert.IsType(t, BinaryComparator{}, For(KindBinary))
}

func TestDiffLines_CounterAdvancesOnCommonLinesOnly(t *testing.T) {
	source := []string{"a\n", "b\n", "c\n", "d\n"}
	target := []string{"a\n", "x\n", "c\n", "d\n", "e\n"}

	changes := DiffLines(source, target)

	assert.Equal(t, []LineChange{
		{Line: 1, Side: SourceOnly, Text: "b"},
		{Line: 1, Side: TargetOnly, Text: "x"},
		{Line: 3, Side: TargetOnly, Text: "e"},
	}, changes)
}

func TestDiffLines_Identical(t *testing.T) {
	lines := []string{"one\n", "two\n", "three\n"}
	assert.Empty(t, DiffLines(lines, lines))
}

func TestTextComparator_Summary(t *testing.T) {
	pair := newPair(t, "a.txt", []byte("foo\n"), []byte("bar\n"))

	verdict, err := TextComparator{}.Compare(context.Background(), pair)
	require.NoError(t, err)

	assert.IsType(t, LineDiff{}, verdict)
	assert.Equal(t, "line 0 in source only: foo\nline 0 in target only: bar", verdict.Summary())
}

func TestTextComparator_Idempotent(t *testing.T) {
	pair := samePair(t, "data.csv", []byte("id,name\n1,alice\n2,bob\n"))

	verdict, err := TextComparator{}.Compare(context.Background(), pair)
	require.NoError(t, err)

	assert.Equal(t, Unchanged{}, verdict)
	assert.Empty(t, verdict.Summary())
}

func TestTextComparator_LineEndingsIgnored(t *testing.T) {
	pair := newPair(t, "a.txt", []byte("one\r\ntwo\r\n"), []byte("one\ntwo\n"))

	verdict, err := TextComparator{}.Compare(context.Background(), pair)
	require.NoError(t, err)
	assert.Equal(t, Unchanged{}, verdict)
}

func TestTextComparator_MissingFile(t *testing.T) {
	pair := newPair(t, "a.txt", []byte("foo\n"), nil)

	_, err := TextComparator{}.Compare(context.Background(), pair)
	assert.ErrorIs(t, err, ErrUnreadableFile)
	assert.ErrorContains(t, err, "a.txt")
}

func TestBinaryComparator(t *testing.T) {
	data := make([]byte, 8192)
	for i := range data {
		data[i] = byte(i % 251)
	}
	changed := append([]byte(nil), data...)
	changed[4096] ^= 0xff

	t.Run("identical bytes", func(t *testing.T) {
		verdict, err := BinaryComparator{}.Compare(context.Background(), newPair(t, "b.bin", data, data))
		require.NoError(t, err)
		assert.Equal(t, Unchanged{}, verdict)
		assert.Empty(t, verdict.Summary())
	})

	t.Run("single byte difference", func(t *testing.T) {
		verdict, err := BinaryComparator{}.Compare(context.Background(), newPair(t, "b.bin", data, changed))
		require.NoError(t, err)
		assert.Equal(t, "Mismatch", verdict.Summary())
	})

	t.Run("unreadable", func(t *testing.T) {
		_, err := BinaryComparator{}.Compare(context.Background(), newPair(t, "b.bin", nil, data))
		assert.ErrorIs(t, err, ErrUnreadableFile)
	})
}

func TestComparators_HonourCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, kind := range []Kind{KindText, KindBinary} {
		_, err := For(kind).Compare(ctx, samePair(t, "x.txt", []byte("x\n")))
		assert.ErrorIs(t, err, context.Canceled, kind.String())
	}
}
