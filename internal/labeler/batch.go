package labeler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// imageExts are the file extensions batch classification picks up.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".bmp":  true,
	".tiff": true,
}

// BatchResult summarizes a batch classification run.
type BatchResult struct {
	Total      int
	Successful int
	Failed     int
	OutputPath string
}

// ClassifyBatch classifies every image under imageDir and appends one JSON
// record per line to outputPath. Each record is flushed as soon as it is
// written, so a partial run still leaves a usable file. Per-image failures
// are recorded and do not stop the batch; cancellation does.
func ClassifyBatch(ctx context.Context, lbl Labeler, imageDir, outputPath string) (*BatchResult, error) {
	files, err := listImages(imageDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no image files found in %s", imageDir)
	}

	out, err := os.Create(outputPath) //nolint:gosec // caller-supplied path by design
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	res := &BatchResult{Total: len(files), OutputPath: outputPath}
	enc := json.NewEncoder(out)

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		slog.Info("classifying image", "file", filepath.Base(file), "progress", fmt.Sprintf("%d/%d", i+1, len(files)))

		rec, err := lbl.Classify(ctx, file)
		if err != nil {
			rec = &Record{Error: fmt.Sprintf("processing failed: %v", err)}
		}
		rec.FileInfo = &FileInfo{
			Filename:        filepath.Base(file),
			FilePath:        file,
			ProcessingOrder: i + 1,
		}

		if rec.Failed() {
			res.Failed++
			slog.Warn("classification failed", "file", filepath.Base(file), "error", rec.Error)
		} else {
			res.Successful++
			slog.Info("classified",
				"file", filepath.Base(file),
				"category", rec.DocumentCategory,
				"language", rec.LanguagePrimary,
				"difficulty", rec.OCRDifficulty)
		}

		if err := enc.Encode(rec); err != nil {
			return res, fmt.Errorf("write record: %w", err)
		}
		if err := out.Sync(); err != nil {
			return res, fmt.Errorf("flush output: %w", err)
		}
	}

	return res, nil
}

// AnalyzeBatch extracts structured fields from every image under imageDir
// and appends one JSON record per line to outputPath, following the same
// flush-per-record and failure semantics as ClassifyBatch.
func AnalyzeBatch(ctx context.Context, a Analyzer, imageDir, outputPath string) (*BatchResult, error) {
	files, err := listImages(imageDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no image files found in %s", imageDir)
	}

	out, err := os.Create(outputPath) //nolint:gosec // caller-supplied path by design
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	res := &BatchResult{Total: len(files), OutputPath: outputPath}
	enc := json.NewEncoder(out)

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		slog.Info("analyzing image", "file", filepath.Base(file), "progress", fmt.Sprintf("%d/%d", i+1, len(files)))

		ext, err := a.Analyze(ctx, file)
		if err != nil {
			ext = &Extraction{Error: fmt.Sprintf("processing failed: %v", err)}
		}
		ext.FileInfo = &FileInfo{
			Filename:        filepath.Base(file),
			FilePath:        file,
			ProcessingOrder: i + 1,
		}

		if ext.Failed() {
			res.Failed++
			slog.Warn("extraction failed", "file", filepath.Base(file), "error", ext.Error)
		} else {
			res.Successful++
			slog.Info("extracted",
				"file", filepath.Base(file),
				"type", ext.DocumentType,
				"total", string(ext.TotalAmount),
				"currency", ext.Currency,
				"vendor", ext.VendorName)
		}

		if err := enc.Encode(ext); err != nil {
			return res, fmt.Errorf("write record: %w", err)
		}
		if err := out.Sync(); err != nil {
			return res, fmt.Errorf("flush output: %w", err)
		}
	}

	return res, nil
}

// ReadExtractions loads a JSONL extraction file, skipping corrupt lines
// the same way ReadRecords does.
func ReadExtractions(path string) ([]*Extraction, error) {
	f, err := os.Open(path) //nolint:gosec // caller-supplied path by design
	if err != nil {
		return nil, fmt.Errorf("open extractions: %w", err)
	}
	defer f.Close()

	var exts []*Extraction
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var ext Extraction
		if err := json.Unmarshal([]byte(line), &ext); err != nil {
			slog.Warn("skipping invalid extraction line", "line", lineNum, "error", err)
			continue
		}
		exts = append(exts, &ext)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read extractions: %w", err)
	}
	return exts, nil
}

// ReadRecords loads a JSONL label file. Lines that fail to parse are
// skipped with a warning so one corrupt line does not poison the file.
func ReadRecords(path string) ([]*Record, error) {
	f, err := os.Open(path) //nolint:gosec // caller-supplied path by design
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()

	var records []*Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			slog.Warn("skipping invalid label line", "line", lineNum, "error", err)
			continue
		}
		records = append(records, &rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	return records, nil
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read image dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
