package dictionary

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/bastiangx/cellcomplete/internal/utils"
)

// maxChunkWords bounds the header count of a single chunk file.
const maxChunkWords = 1000000

// Entry is a vocabulary word and its score. Higher scores rank first.
type Entry struct {
	Word  string
	Score int
}

// ChunkFilename returns the file name of chunk id, e.g. dict_0001.bin.
func ChunkFilename(id int) string {
	return fmt.Sprintf("dict_%04d.bin", id)
}

// ScoreFromRank converts a 1-based rank into a score: rank 1 scores 65535.
func ScoreFromRank(rank uint16) int {
	return math.MaxUint16 - int(rank) + 1
}

// ReadChunk decodes a chunk: an int32 word count followed by, per word, a
// uint16 byte length, the word bytes and a uint16 rank. All little endian.
func ReadChunk(r io.Reader) ([]Entry, error) {
	reader := bufio.NewReader(r)

	var totalEntries int32
	if err := binary.Read(reader, binary.LittleEndian, &totalEntries); err != nil {
		return nil, fmt.Errorf("failed to read chunk header: %w", err)
	}
	if totalEntries < 0 || totalEntries > maxChunkWords {
		return nil, fmt.Errorf("invalid chunk word count %d", totalEntries)
	}

	entries := make([]Entry, 0, totalEntries)
	for len(entries) < int(totalEntries) {
		var wordLen uint16
		if err := binary.Read(reader, binary.LittleEndian, &wordLen); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read word length: %w", err)
		}

		wordBytes := make([]byte, wordLen)
		if _, err := io.ReadFull(reader, wordBytes); err != nil {
			return nil, fmt.Errorf("failed to read word: %w", err)
		}

		var rank uint16
		if err := binary.Read(reader, binary.LittleEndian, &rank); err != nil {
			return nil, fmt.Errorf("failed to read rank: %w", err)
		}

		entries = append(entries, Entry{Word: string(wordBytes), Score: ScoreFromRank(rank)})
	}

	return entries, nil
}

// WriteChunk encodes words as a chunk, ranking them by position.
func WriteChunk(w io.Writer, words []string) error {
	return writeChunk(w, words, 1)
}

func writeChunk(w io.Writer, words []string, firstRank int) error {
	if len(words) > math.MaxUint16 {
		return fmt.Errorf("chunk holds at most %d words, got %d", math.MaxUint16, len(words))
	}

	writer := bufio.NewWriter(w)
	if err := binary.Write(writer, binary.LittleEndian, int32(len(words))); err != nil {
		return fmt.Errorf("failed to write chunk header: %w", err)
	}

	ranks := utils.CreateRankList(firstRank, len(words))
	for i, word := range words {
		if len(word) > math.MaxUint16 {
			return fmt.Errorf("word %q too long", word)
		}
		if err := binary.Write(writer, binary.LittleEndian, uint16(len(word))); err != nil {
			return fmt.Errorf("failed to write word length: %w", err)
		}
		if _, err := writer.WriteString(word); err != nil {
			return fmt.Errorf("failed to write word: %w", err)
		}
		if err := binary.Write(writer, binary.LittleEndian, ranks[i]); err != nil {
			return fmt.Errorf("failed to write rank: %w", err)
		}
	}

	return writer.Flush()
}
