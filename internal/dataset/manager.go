// Package dataset manages the on-disk layout of a collected image dataset:
// the full/filtered/tagged staging directories, the train/val/test splits,
// and the metadata and report files describing them.
package dataset

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SplitNames are the standard dataset subdirectories, in reporting order.
var SplitNames = []string{"full", "filtered", "tagged", "train", "val", "test"}

const metadataFilename = "dataset_metadata.json"

// Manager owns a dataset directory tree.
type Manager struct {
	baseDir string
}

// DirInfo describes one dataset subdirectory.
type DirInfo struct {
	Path       string `json:"path"`
	ImageCount int    `json:"image_count"`
	Exists     bool   `json:"exists"`
}

// Info is a snapshot of the dataset structure.
type Info struct {
	BaseDirectory string             `json:"base_directory"`
	CreatedAt     string             `json:"created_at"`
	Structure     map[string]DirInfo `json:"structure"`
	Statistics    map[string]any     `json:"statistics,omitempty"`
	TotalImages   int                `json:"total_images"`
}

// New opens (creating if needed) the dataset tree rooted at baseDir.
func New(baseDir string) (*Manager, error) {
	m := &Manager{baseDir: baseDir}
	for _, name := range SplitNames {
		if err := os.MkdirAll(m.Dir(name), 0o750); err != nil {
			return nil, fmt.Errorf("create dataset dir %s: %w", name, err)
		}
	}
	return m, nil
}

// BaseDir returns the dataset root directory.
func (m *Manager) BaseDir() string { return m.baseDir }

// Dir returns the path of a named dataset subdirectory.
func (m *Manager) Dir(name string) string { return filepath.Join(m.baseDir, name) }

// Info counts images per subdirectory and merges in any saved statistics.
func (m *Manager) Info() *Info {
	info := &Info{
		BaseDirectory: m.baseDir,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		Structure:     make(map[string]DirInfo, len(SplitNames)),
	}
	for _, name := range SplitNames {
		dir := m.Dir(name)
		di := DirInfo{Path: dir}
		if files, err := listImages(dir); err == nil {
			di.Exists = true
			di.ImageCount = len(files)
			info.TotalImages += len(files)
		}
		info.Structure[name] = di
	}

	if saved, err := m.LoadMetadata(); err == nil && saved != nil {
		if stats, ok := saved["statistics"].(map[string]any); ok {
			info.Statistics = stats
		}
	}
	return info
}

// SaveMetadata writes the metadata JSON at the dataset root.
func (m *Manager) SaveMetadata(metadata map[string]any) error {
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	path := filepath.Join(m.baseDir, metadataFilename)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	slog.Info("dataset metadata saved", "path", path)
	return nil
}

// LoadMetadata reads the metadata JSON; a missing file yields (nil, nil).
func (m *Manager) LoadMetadata() (map[string]any, error) {
	data, err := os.ReadFile(filepath.Join(m.baseDir, metadataFilename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var md map[string]any
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return md, nil
}

// PromoteToFiltered moves images from sourceDir (the full directory when
// empty) into filtered, renaming on collision. Per-file failures are logged
// and skipped.
func (m *Manager) PromoteToFiltered(sourceDir string) (int, error) {
	if sourceDir == "" {
		sourceDir = m.Dir("full")
	}
	files, err := listImages(sourceDir)
	if err != nil {
		return 0, fmt.Errorf("list source images: %w", err)
	}

	moved := 0
	for _, src := range files {
		dst := uniquePath(m.Dir("filtered"), filepath.Base(src))
		if err := os.Rename(src, dst); err != nil {
			slog.Error("failed to move image", "file", src, "error", err)
			continue
		}
		moved++
	}
	slog.Info("promoted images to filtered", "count", moved)
	return moved, nil
}

// uniquePath returns dir/name, appending _1, _2, ... while the path exists.
func uniquePath(dir, name string) string {
	dst := filepath.Join(dir, name)
	if _, err := os.Stat(dst); os.IsNotExist(err) {
		return dst
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		dst = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if _, err := os.Stat(dst); os.IsNotExist(err) {
			return dst
		}
	}
}

// listImages returns the image files directly under dir, sorted by name.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png", ".webp":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
