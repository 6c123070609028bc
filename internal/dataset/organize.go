package dataset

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/Jackmeson1/ocrdlp-lab/internal/labeler"
)

// OrganizeResult maps a grouping key (category, language) to the number of
// images placed under it.
type OrganizeResult map[string]int

// Total returns the number of images placed across all groups.
func (r OrganizeResult) Total() int {
	n := 0
	for _, c := range r {
		n += c
	}
	return n
}

// OrganizeByCategory copies the images in sourceDir into per-category
// subdirectories of targetBase, keyed by each record's document category.
// Images without a matching label record land under "unknown". targetBase
// defaults to <base>/by_category when empty.
func (m *Manager) OrganizeByCategory(records []*labeler.Record, sourceDir, targetBase string) (OrganizeResult, error) {
	if targetBase == "" {
		targetBase = filepath.Join(m.baseDir, "by_category")
	}

	byName := make(map[string]string, len(records))
	for _, rec := range records {
		if rec.FileInfo == nil || rec.Failed() {
			continue
		}
		category := rec.DocumentCategory
		if category == "" {
			category = "unknown"
		}
		byName[rec.FileInfo.Filename] = category
	}

	return m.organize(sourceDir, targetBase, func(name string) string {
		if category, ok := byName[name]; ok {
			return category
		}
		return "unknown"
	})
}

// OrganizeByLanguage copies images into per-language subdirectories of
// targetBase, restricted to the given languages. Images whose primary
// language is not listed are skipped. targetBase defaults to
// <base>/by_language when empty.
func (m *Manager) OrganizeByLanguage(records []*labeler.Record, sourceDir, targetBase string, languages []string) (OrganizeResult, error) {
	if targetBase == "" {
		targetBase = filepath.Join(m.baseDir, "by_language")
	}

	wanted := make(map[string]bool, len(languages))
	for _, lang := range languages {
		wanted[lang] = true
	}

	byName := make(map[string]string, len(records))
	for _, rec := range records {
		if rec.FileInfo == nil || rec.Failed() {
			continue
		}
		if len(wanted) == 0 || wanted[rec.LanguagePrimary] {
			byName[rec.FileInfo.Filename] = rec.LanguagePrimary
		}
	}

	return m.organize(sourceDir, targetBase, func(name string) string {
		return byName[name] // "" skips the file
	})
}

// FilterByConfidence copies only the images whose classification confidence
// meets min into targetDir, returning the number copied. targetDir defaults
// to <base>/high_confidence when empty.
func (m *Manager) FilterByConfidence(records []*labeler.Record, sourceDir, targetDir string, min float64) (int, error) {
	if targetDir == "" {
		targetDir = filepath.Join(m.baseDir, "high_confidence")
	}

	confident := make(map[string]bool, len(records))
	for _, rec := range records {
		if rec.FileInfo == nil || rec.Failed() {
			continue
		}
		if float64(rec.ConfidenceScore) >= min {
			confident[rec.FileInfo.Filename] = true
		}
	}

	res, err := m.organize(sourceDir, targetDir, func(name string) string {
		if confident[name] {
			return "."
		}
		return ""
	})
	if err != nil {
		return 0, err
	}
	count := res.Total()
	slog.Info("confidence-filtered dataset created", "count", count, "min", min)
	return count, nil
}

// SensitiveDataIndex maps each sensitive data type to the sorted, distinct
// filenames whose labels carry it.
func SensitiveDataIndex(records []*labeler.Record) map[string][]string {
	index := make(map[string]map[string]bool)
	for _, rec := range records {
		if rec.FileInfo == nil || rec.Failed() {
			continue
		}
		for _, dt := range rec.SensitiveDataTypes {
			if index[dt] == nil {
				index[dt] = make(map[string]bool)
			}
			index[dt][rec.FileInfo.Filename] = true
		}
	}

	result := make(map[string][]string, len(index))
	for dt, names := range index {
		list := make([]string, 0, len(names))
		for name := range names {
			list = append(list, name)
		}
		sort.Strings(list)
		result[dt] = list
	}
	return result
}

// organize copies every image in sourceDir to targetBase/<group(name)>,
// skipping files the group function maps to "". Per-file copy failures are
// logged and skipped.
func (m *Manager) organize(sourceDir, targetBase string, group func(name string) string) (OrganizeResult, error) {
	files, err := listImages(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("list source images: %w", err)
	}

	res := make(OrganizeResult)
	for _, src := range files {
		name := filepath.Base(src)
		g := group(name)
		if g == "" {
			continue
		}

		dir := filepath.Join(targetBase, g)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return res, fmt.Errorf("create group dir %s: %w", g, err)
		}
		if err := placeFile(src, filepath.Join(dir, name), true); err != nil {
			slog.Error("failed to copy image", "file", src, "error", err)
			continue
		}
		if g == "." {
			g = filepath.Base(targetBase)
		}
		res[g]++
	}

	slog.Info("organized images", "count", res.Total(), "target", targetBase)
	return res, nil
}
