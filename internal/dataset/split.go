package dataset

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
)

// Ratios defines the train/val/test proportions. Must sum to 1.
type Ratios struct {
	Train float64
	Val   float64
	Test  float64
}

// DefaultRatios is a 70/15/15 split.
var DefaultRatios = Ratios{Train: 0.7, Val: 0.15, Test: 0.15}

func (r Ratios) validate() error {
	if r.Train < 0 || r.Val < 0 || r.Test < 0 {
		return fmt.Errorf("split ratios must be non-negative: %+v", r)
	}
	if math.Abs(r.Train+r.Val+r.Test-1.0) > 0.001 {
		return fmt.Errorf("split ratios must sum to 1.0, got %.3f", r.Train+r.Val+r.Test)
	}
	return nil
}

// SplitResult reports how many files landed in each split.
type SplitResult struct {
	Train int `json:"train"`
	Val   int `json:"val"`
	Test  int `json:"test"`
}

// Split distributes the images in sourceDir (filtered when empty) across
// train/val/test. Files are assigned in sorted-name order, so the split is
// reproducible for a given directory. When copy is true the sources are
// copied, otherwise moved.
func (m *Manager) Split(sourceDir string, ratios Ratios, copy bool) (*SplitResult, error) {
	if err := ratios.validate(); err != nil {
		return nil, err
	}
	if sourceDir == "" {
		sourceDir = m.Dir("filtered")
	}

	files, err := listImages(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("list source images: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no image files found in %s", sourceDir)
	}

	total := len(files)
	trainN := int(float64(total) * ratios.Train)
	valN := int(float64(total) * ratios.Val)

	res := &SplitResult{}
	assignments := []struct {
		files []string
		dir   string
		count *int
	}{
		{files[:trainN], m.Dir("train"), &res.Train},
		{files[trainN : trainN+valN], m.Dir("val"), &res.Val},
		{files[trainN+valN:], m.Dir("test"), &res.Test},
	}

	for _, a := range assignments {
		for _, src := range a.files {
			dst := uniquePath(a.dir, filepath.Base(src))
			if err := placeFile(src, dst, copy); err != nil {
				slog.Error("failed to place split file", "file", src, "error", err)
				continue
			}
			*a.count++
		}
	}

	slog.Info("dataset split complete", "train", res.Train, "val", res.Val, "test", res.Test)
	return res, nil
}

func placeFile(src, dst string, copy bool) error {
	if !copy {
		return os.Rename(src, dst)
	}
	in, err := os.Open(src) //nolint:gosec // path from directory listing
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst) //nolint:gosec // path from directory listing
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
