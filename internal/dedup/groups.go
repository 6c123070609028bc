package dedup

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Jackmeson1/ocrdlp-lab/internal/phash"
)

// imageExts are the filename extensions considered when scanning directories.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// DuplicateGroups clusters stored entries whose fingerprints fall within the
// threshold of a group representative. Grouping is greedy first-match: each
// entry joins the first group whose representative is close enough. Two
// entries both close to a representative but not to each other still share a
// group. This is intentionally NOT a transitive closure; switching to
// union-find would change group membership and therefore dataset
// composition, so keep the greedy semantics unless that change is wanted.
// Only groups with more than one member are returned, keyed by the
// representative's fingerprint.
func (idx *Index) DuplicateGroups() map[string][]string {
	idx.mu.Lock()
	entries := make([]entry, len(idx.entries))
	copy(entries, idx.entries)
	threshold := idx.threshold
	idx.mu.Unlock()

	return greedyGroups(entries, threshold)
}

func greedyGroups(entries []entry, threshold int) map[string][]string {
	groups := make(map[string][]string)
	assigned := make([]bool, len(entries))

	for i, rep := range entries {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		group := []string{rep.path}

		for j := i + 1; j < len(entries); j++ {
			if assigned[j] {
				continue
			}
			if phash.Distance(rep.fp, entries[j].fp) <= threshold {
				group = append(group, entries[j].path)
				assigned[j] = true
			}
		}

		if len(group) > 1 {
			groups[rep.fp.String()] = group
		}
	}

	return groups
}

// RemoveDuplicatesFromDirectory hashes every image in dir, groups
// near-duplicates greedily, keeps the first file of each group, and deletes
// the rest. Per-file hash or delete failures are logged and skipped. Returns
// the number of files removed.
func RemoveDuplicatesFromDirectory(dir string, threshold int) (int, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	files, err := listImages(dir)
	if err != nil {
		return 0, err
	}

	var entries []entry
	for _, path := range files {
		fp, err := phash.FromFile(path)
		if err != nil {
			slog.Warn("dedup: cannot hash file, skipping", "path", path, "error", err.Error())
			continue
		}
		entries = append(entries, entry{fp: fp, path: path})
	}

	removed := 0
	for _, group := range greedyGroups(entries, threshold) {
		for _, dup := range group[1:] {
			if err := os.Remove(dup); err != nil {
				slog.Error("dedup: cannot remove duplicate", "path", dup, "error", err.Error())
				continue
			}
			slog.Info("dedup: removed duplicate", "path", dup)
			removed++
		}
	}

	return removed, nil
}

// listImages returns image files directly under dir, sorted for
// deterministic grouping order.
func listImages(dir string) ([]string, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("dedup: read directory %s: %w", dir, err)
	}

	var files []string
	for _, d := range dirents {
		if d.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(d.Name()))] {
			files = append(files, filepath.Join(dir, d.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
