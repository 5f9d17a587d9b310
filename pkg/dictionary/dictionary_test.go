package dictionary

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeChunkFile(t *testing.T, dir string, id int, words ...string) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteChunk(&buf, words))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ChunkFilename(id)), buf.Bytes(), 0o644))
}

func TestChunkRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteChunk(&buf, []string{"return", "range", "rune"}))

	entries, err := ReadChunk(&buf)
	require.NoError(t, err)

	want := []Entry{
		{Word: "return", Score: 65535},
		{Word: "range", Score: 65534},
		{Word: "rune", Score: 65533},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("ReadChunk mismatch (-want +got):\n%s", diff)
	}
}

func TestReadChunkErrors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := ReadChunk(bytes.NewReader(nil))
		assert.Error(t, err)
	})

	t.Run("negative count", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, int32(-1)))
		_, err := ReadChunk(&buf)
		assert.ErrorContains(t, err, "invalid chunk word count")
	})

	t.Run("truncated word", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, int32(1)))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(10)))
		buf.WriteString("abc")
		_, err := ReadChunk(&buf)
		assert.ErrorContains(t, err, "failed to read word")
	})
}

func TestScoreFromRank(t *testing.T) {
	assert.Equal(t, 65535, ScoreFromRank(1))
	assert.Equal(t, 1, ScoreFromRank(65535))
}

func TestReadText(t *testing.T) {
	input := strings.Join([]string{
		"# identifiers",
		"count 40",
		"",
		"cursor",
		"column 12",
		"cell",
	}, "\n")

	entries, err := ReadText(strings.NewReader(input))
	require.NoError(t, err)

	want := []Entry{
		{Word: "count", Score: 40},
		{Word: "cursor", Score: ScoreFromRank(2)},
		{Word: "column", Score: 12},
		{Word: "cell", Score: ScoreFromRank(4)},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("ReadText mismatch (-want +got):\n%s", diff)
	}

	_, err = ReadText(strings.NewReader("count forty"))
	assert.ErrorContains(t, err, "invalid score")

	_, err = ReadText(strings.NewReader("a b c"))
	assert.ErrorContains(t, err, "line 1")
}

func TestIndexSearch(t *testing.T) {
	ix := NewIndex()
	ix.InsertAll([]Entry{
		{Word: "Count", Score: 10},
		{Word: "column", Score: 30},
		{Word: "cell", Score: 30},
		{Word: "row", Score: 50},
		{Word: "count", Score: 5},
	})

	assert.Equal(t, 4, ix.Len())
	assert.Equal(t, 50, ix.MaxScore())

	score, ok := ix.Score("COUNT")
	assert.True(t, ok)
	assert.Equal(t, 10, score, "higher score is kept")

	got := ix.Search("c", 0, 0)
	want := []Entry{
		{Word: "cell", Score: 30},
		{Word: "column", Score: 30},
		{Word: "count", Score: 10},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Search mismatch (-want +got):\n%s", diff)
	}

	assert.Len(t, ix.Search("c", 0, 2), 2)
	assert.Len(t, ix.Search("c", 20, 0), 2)
	assert.Empty(t, ix.Search("x", 0, 0))
	assert.Len(t, ix.Search("", 0, 0), 4)
	assert.Equal(t, map[string]int{"cell": 30, "column": 30, "count": 10, "row": 50}, ix.Scores())
}

func TestDetectFileFormat(t *testing.T) {
	dir := t.TempDir()
	writeChunkFile(t, dir, 1, "alpha")
	txt := filepath.Join(dir, "words.txt")
	require.NoError(t, os.WriteFile(txt, []byte("alpha\n"), 0o644))
	other := filepath.Join(dir, "words.csv")
	require.NoError(t, os.WriteFile(other, []byte("alpha\n"), 0o644))

	format, err := DetectFileFormat(filepath.Join(dir, ChunkFilename(1)))
	require.NoError(t, err)
	assert.Equal(t, FormatChunk, format)

	format, err = DetectFileFormat(txt)
	require.NoError(t, err)
	assert.Equal(t, FormatText, format)

	_, err = DetectFileFormat(other)
	assert.Error(t, err)
}

func TestLoaderLoad(t *testing.T) {
	dir := t.TempDir()
	writeChunkFile(t, dir, 1, "select", "set", "sum")
	writeChunkFile(t, dir, 2, "sort", "split")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.txt"), []byte("sheet 7\n"), 0o644))

	loader := NewLoader(dir, WithRetryDelay(time.Millisecond))

	chunks, err := loader.GetAvailableChunks()
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, 1, chunks[0].ChunkID)
	assert.Equal(t, 3, chunks[0].WordCount)
	assert.Equal(t, FormatText, chunks[2].Format)

	ix, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, ix.Len())

	score, ok := ix.Score("sheet")
	assert.True(t, ok)
	assert.Equal(t, 7, score)

	stats := loader.GetStats()
	assert.Equal(t, 3, stats.LoadedChunks)
	assert.Equal(t, 6, stats.LoadedWords)
	assert.False(t, stats.IsLoading)
}

func TestLoaderMaxWords(t *testing.T) {
	dir := t.TempDir()
	writeChunkFile(t, dir, 1, "a1", "a2")
	writeChunkFile(t, dir, 2, "b1", "b2")

	ix, err := NewLoader(dir, WithMaxWords(2)).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Len())
	_, ok := ix.Score("b1")
	assert.False(t, ok)
}

func TestLoaderSkipsBrokenChunk(t *testing.T) {
	dir := t.TempDir()
	writeChunkFile(t, dir, 1, "good")
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, int32(-1)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ChunkFilename(2)), buf.Bytes(), 0o644))

	loader := NewLoader(dir, WithMaxRetries(2), WithRetryDelay(time.Millisecond))
	ix, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, ix.Len())
	assert.Equal(t, 1, loader.GetStats().FailedChunks)
}

func TestLoaderErrors(t *testing.T) {
	t.Run("empty dir", func(t *testing.T) {
		_, err := NewLoader(t.TempDir()).Load(context.Background())
		assert.ErrorContains(t, err, "no vocabulary files")
	})

	t.Run("all broken", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ChunkFilename(1)), []byte{1}, 0o644))
		_, err := NewLoader(dir, WithMaxRetries(1)).Load(context.Background())
		assert.ErrorContains(t, err, "failed to load any vocabulary file")
	})
}

func TestLoadAsync(t *testing.T) {
	dir := t.TempDir()
	writeChunkFile(t, dir, 1, "async")

	f := NewLoader(dir).LoadAsync(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ix, err := f.Result(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, ix.Len())
}

func TestBuildChunks(t *testing.T) {
	dir := t.TempDir()
	entries := []Entry{
		{Word: "Sum", Score: 5},
		{Word: "select", Score: 90},
		{Word: "sum", Score: 40},
		{Word: "  ", Score: 100},
		{Word: "sort", Score: 40},
	}

	n, err := BuildChunks(entries, dir, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	first, err := os.ReadFile(filepath.Join(dir, ChunkFilename(1)))
	require.NoError(t, err)
	got, err := ReadChunk(bytes.NewReader(first))
	require.NoError(t, err)
	want := []Entry{{Word: "select", Score: 65535}, {Word: "sort", Score: 65534}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("first chunk mismatch (-want +got):\n%s", diff)
	}

	ix, err := NewLoader(dir).Load(context.Background())
	require.NoError(t, err)
	score, ok := ix.Score("sum")
	assert.True(t, ok)
	assert.Equal(t, 65533, score, "ranks continue across chunks")

	_, err = BuildChunks(entries, dir, 0)
	assert.Error(t, err)
}
