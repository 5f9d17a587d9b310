package dictionary

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bastiangx/cellcomplete/internal/utils"
)

// BuildChunks writes entries into dir as chunk files of at most chunkSize
// words each. Words are folded to lower case, deduplicated keeping the
// higher score and ranked by score across all chunks. It returns the
// number of chunk files written.
func BuildChunks(entries []Entry, dir string, chunkSize int) (int, error) {
	if chunkSize <= 0 {
		return 0, fmt.Errorf("invalid chunk size %d", chunkSize)
	}
	if err := utils.EnsureDir(dir); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	scores := make(map[string]int, len(entries))
	for _, e := range entries {
		word := strings.ToLower(strings.TrimSpace(e.Word))
		if word == "" {
			continue
		}
		if old, ok := scores[word]; !ok || e.Score > old {
			scores[word] = e.Score
		}
	}

	words := make([]string, 0, len(scores))
	for w := range scores {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if scores[words[i]] != scores[words[j]] {
			return scores[words[i]] > scores[words[j]]
		}
		return words[i] < words[j]
	})

	written := 0
	for start := 0; start < len(words); start += chunkSize {
		end := min(start+chunkSize, len(words))
		if err := createChunk(filepath.Join(dir, ChunkFilename(written+1)), words[start:end], start+1); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func createChunk(path string, words []string, firstRank int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chunk %s: %w", path, err)
	}
	if err := writeChunk(f, words, firstRank); err != nil {
		f.Close()
		return fmt.Errorf("failed to write chunk %s: %w", path, err)
	}
	return f.Close()
}
