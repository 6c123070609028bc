// Package dedup detects near-duplicate images with a persistent index of
// perceptual fingerprints.
package dedup

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/Jackmeson1/ocrdlp-lab/internal/phash"
)

// DefaultThreshold is the maximum Hamming distance at which two fingerprints
// are considered near-duplicates.
const DefaultThreshold = 5

// Options configures an Index.
type Options struct {
	// Path is the backing JSON file (hex fingerprint -> representative path).
	// Empty means an in-memory index with no persistence.
	Path string

	// Threshold is the maximum Hamming distance for a duplicate match.
	// Zero means DefaultThreshold.
	Threshold int

	// FlushEvery persists the index after every N successful inserts.
	// The default of 1 writes synchronously on each insert, so a crash
	// loses at most the in-flight comparison. A larger N trades that
	// guarantee for throughput: up to N-1 inserts may be lost on crash.
	// Close always performs a final flush.
	FlushEvery int
}

type entry struct {
	fp   phash.Fingerprint
	path string
}

// Index maps perceptual fingerprints to the representative file that first
// produced them. It is the sole authority on duplicate status and is safe
// for concurrent use: the check-and-insert in IsDuplicate is a single
// atomic unit.
type Index struct {
	mu         sync.Mutex
	entries    []entry
	path       string
	threshold  int
	flushEvery int
	pending    int
}

// Open loads the index from opts.Path. A missing file yields an empty index;
// corrupt entries are skipped with a warning, never an error.
func Open(opts Options) (*Index, error) {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.FlushEvery <= 0 {
		opts.FlushEvery = 1
	}

	idx := &Index{
		path:       opts.Path,
		threshold:  opts.Threshold,
		flushEvery: opts.FlushEvery,
	}

	if opts.Path == "" {
		return idx, nil
	}

	data, err := os.ReadFile(opts.Path) //nolint:gosec // caller-supplied path by design
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, fmt.Errorf("dedup: read index %s: %w", opts.Path, err)
	}

	stored := make(map[string]string)
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("dedup: parse index %s: %w", opts.Path, err)
	}

	for hex, repr := range stored {
		fp, err := phash.Parse(hex)
		if err != nil {
			slog.Warn("dedup: skipping corrupt index entry", "fingerprint", hex, "error", err.Error())
			continue
		}
		idx.entries = append(idx.entries, entry{fp: fp, path: repr})
	}
	slog.Debug("dedup: index loaded", "entries", len(idx.entries), "path", opts.Path)

	return idx, nil
}

// IsDuplicate reports whether fp is within the threshold of any stored
// fingerprint. When it is not, (fp, reprPath) is inserted before returning,
// so two concurrent near-duplicates can never both be accepted.
// Persistence failures are logged and do not affect the verdict.
func (idx *Index) IsDuplicate(fp phash.Fingerprint, reprPath string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, e := range idx.entries {
		if phash.Distance(fp, e.fp) <= idx.threshold {
			slog.Debug("dedup: duplicate found",
				"candidate", reprPath,
				"existing", e.path,
				"distance", phash.Distance(fp, e.fp))
			return true
		}
	}

	idx.entries = append(idx.entries, entry{fp: fp, path: reprPath})
	idx.pending++
	if idx.pending >= idx.flushEvery {
		idx.persistLocked()
	}
	return false
}

// Len returns the number of stored fingerprints.
func (idx *Index) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return len(idx.entries)
}

// Threshold returns the configured Hamming distance threshold.
func (idx *Index) Threshold() int { return idx.threshold }

// Close flushes any pending inserts to the backing file.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.pending > 0 {
		idx.persistLocked()
	}
	return nil
}

// persistLocked rewrites the backing file wholesale. Callers hold idx.mu.
func (idx *Index) persistLocked() {
	if idx.path == "" {
		idx.pending = 0
		return
	}

	stored := make(map[string]string, len(idx.entries))
	for _, e := range idx.entries {
		stored[e.fp.String()] = e.path
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		slog.Error("dedup: marshal index failed", "error", err.Error())
		return
	}
	if err := os.MkdirAll(filepath.Dir(idx.path), 0o750); err != nil {
		slog.Error("dedup: create index directory failed", "error", err.Error())
		return
	}
	if err := os.WriteFile(idx.path, data, 0o600); err != nil {
		slog.Error("dedup: write index failed", "path", idx.path, "error", err.Error())
		return
	}
	idx.pending = 0
}
