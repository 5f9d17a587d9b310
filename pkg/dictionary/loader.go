// Package dictionary loads the identifier vocabulary from chunk and text
// files into a prefix-searchable Index.
package dictionary

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/bastiangx/cellcomplete/pkg/async"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 100 * time.Millisecond
	defaultWorkers    = 4
)

// ChunkInfo contains metadata about a vocabulary file
type ChunkInfo struct {
	ChunkID   int
	Filename  string
	Format    FileFormat
	WordCount int
}

// LoaderStats provides statistics about the last load
type LoaderStats struct {
	LoadedWords     int
	LoadedChunks    int
	AvailableChunks int
	FailedChunks    int
	MaxFrequency    int
	IsLoading       bool
}

// Loader reads vocabulary files from a directory. Chunks are decoded in
// parallel and merged into one Index in chunk order.
type Loader struct {
	dirPath    string
	maxWords   int
	maxRetries int
	retryDelay time.Duration
	workers    int
	logger     *log.Logger

	mu    sync.RWMutex
	stats LoaderStats
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithMaxWords stops queueing chunks once their header counts reach n.
// Zero loads everything.
func WithMaxWords(n int) LoaderOption {
	return func(l *Loader) { l.maxWords = n }
}

// WithMaxRetries sets how many times a failing chunk is read before it is
// skipped.
func WithMaxRetries(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.maxRetries = n
		}
	}
}

// WithRetryDelay sets the base delay between attempts. The delay grows
// linearly with the attempt number.
func WithRetryDelay(d time.Duration) LoaderOption {
	return func(l *Loader) { l.retryDelay = d }
}

// WithWorkers sets how many chunks are decoded at once.
func WithWorkers(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithLogger sets the loader's logger.
func WithLogger(logger *log.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader creates a loader for the vocabulary files in dirPath
func NewLoader(dirPath string, opts ...LoaderOption) *Loader {
	l := &Loader{
		dirPath:    dirPath,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		workers:    defaultWorkers,
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dir returns the directory the loader reads from.
func (l *Loader) Dir() string { return l.dirPath }

// GetAvailableChunks scans the directory for chunk files (dict_NNNN.bin)
// and text vocabularies (*.txt). Chunks come first, ordered by ID.
func (l *Loader) GetAvailableChunks() ([]ChunkInfo, error) {
	files, err := filepath.Glob(filepath.Join(l.dirPath, "dict_*.bin"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan for chunk files: %w", err)
	}

	var chunks []ChunkInfo
	for _, file := range files {
		idStr := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(file), "dict_"), ".bin")
		chunkID, err := strconv.Atoi(idStr)
		if err != nil {
			continue
		}

		wordCount, err := chunkWordCount(file)
		if err != nil {
			l.logger.Warnf("Failed to get word count for chunk %s: %v", file, err)
		}
		chunks = append(chunks, ChunkInfo{
			ChunkID:   chunkID,
			Filename:  file,
			Format:    FormatChunk,
			WordCount: wordCount,
		})
	}
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].ChunkID < chunks[j].ChunkID
	})

	texts, err := filepath.Glob(filepath.Join(l.dirPath, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan for text files: %w", err)
	}
	sort.Strings(texts)
	next := len(chunks)
	if next > 0 {
		next = chunks[len(chunks)-1].ChunkID + 1
	}
	for i, file := range texts {
		chunks = append(chunks, ChunkInfo{
			ChunkID:  next + i,
			Filename: file,
			Format:   FormatText,
		})
	}

	return chunks, nil
}

func chunkWordCount(filename string) (int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var wordCount int32
	if err := binary.Read(file, binary.LittleEndian, &wordCount); err != nil {
		return 0, err
	}
	return int(wordCount), nil
}

// Load reads the vocabulary and returns the merged index. A chunk that
// keeps failing after its retries is skipped; Load only fails when no
// file could be read or ctx is done.
func (l *Loader) Load(ctx context.Context) (*Index, error) {
	chunks, err := l.GetAvailableChunks()
	if err != nil {
		return nil, fmt.Errorf("failed to get available chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no vocabulary files found in %s", l.dirPath)
	}
	chunks = l.selectChunks(chunks)

	l.setLoading(true, len(chunks))
	defer l.setLoading(false, len(chunks))

	l.logger.Debugf("Loading %d vocabulary files from %s", len(chunks), l.dirPath)

	results := make([][]Entry, len(chunks))
	failures := make([]error, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, chunk := range chunks {
		g.Go(func() error {
			entries, err := l.readWithRetry(gctx, chunk)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				l.logger.Errorf("Chunk %d failed %d times, giving up: %v", chunk.ChunkID, l.maxRetries, err)
				failures[i] = err
				return nil
			}
			results[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := NewIndex()
	loaded, failed := 0, 0
	for i, entries := range results {
		if failures[i] != nil {
			failed++
			continue
		}
		index.InsertAll(entries)
		loaded++
		if l.maxWords > 0 && index.Len() >= l.maxWords {
			break
		}
	}
	if loaded == 0 {
		return nil, fmt.Errorf("failed to load any vocabulary file from %s: %w", l.dirPath, failures[0])
	}

	l.mu.Lock()
	l.stats.LoadedWords = index.Len()
	l.stats.LoadedChunks = loaded
	l.stats.FailedChunks = failed
	l.stats.MaxFrequency = index.MaxScore()
	l.mu.Unlock()

	l.logger.Debugf("Loaded %d words from %d files", index.Len(), loaded)
	return index, nil
}

// LoadAsync runs Load in the background and settles the returned future
// with its outcome.
func (l *Loader) LoadAsync(ctx context.Context) *async.Future[*Index] {
	return async.Go(ctx, l.Load)
}

// GetStats returns statistics about the last load
func (l *Loader) GetStats() LoaderStats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stats
}

// selectChunks keeps chunks in order until their header counts cover
// maxWords. Text files have no header and are always kept.
func (l *Loader) selectChunks(chunks []ChunkInfo) []ChunkInfo {
	if l.maxWords <= 0 {
		return chunks
	}

	selected := make([]ChunkInfo, 0, len(chunks))
	words := 0
	for _, chunk := range chunks {
		if chunk.Format == FormatChunk && words >= l.maxWords {
			continue
		}
		selected = append(selected, chunk)
		words += chunk.WordCount
	}
	return selected
}

func (l *Loader) readWithRetry(ctx context.Context, chunk ChunkInfo) ([]Entry, error) {
	var lastErr error
	for attempt := 1; attempt <= l.maxRetries; attempt++ {
		entries, err := readFile(chunk)
		if err == nil {
			l.logger.Debugf("Chunk %d loaded: %d words", chunk.ChunkID, len(entries))
			return entries, nil
		}
		lastErr = err

		if attempt == l.maxRetries {
			break
		}
		l.logger.Debugf("Retrying chunk %d (attempt %d/%d)", chunk.ChunkID, attempt+1, l.maxRetries)
		select {
		case <-time.After(time.Duration(attempt) * l.retryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func readFile(chunk ChunkInfo) ([]Entry, error) {
	file, err := os.Open(chunk.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", chunk.Filename, err)
	}
	defer file.Close()

	if chunk.Format == FormatText {
		return ReadText(file)
	}
	return ReadChunk(file)
}

func (l *Loader) setLoading(loading bool, available int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stats.IsLoading = loading
	l.stats.AvailableChunks = available
}
