// Package imgfilter validates downloaded image files against size, format,
// dimension and aspect-ratio rules.
package imgfilter

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	_ "golang.org/x/image/webp"
)

// Default filter limits. Images outside these bounds are rarely useful for
// OCR testing: tiny images carry no legible text, extreme aspect ratios are
// banners and strips.
const (
	DefaultMinDim         = 300
	DefaultMaxDim         = 4096
	DefaultMinFileBytes   = 5 * 1024
	DefaultMaxFileBytes   = 10 * 1024 * 1024
	DefaultMaxAspectRatio = 10.0
)

// Config holds the validation rules. Immutable after the Filter is built.
type Config struct {
	MinDim         int
	MaxDim         int
	MinFileBytes   int64
	MaxFileBytes   int64
	AllowedFormats []string // image.Decode format names: "jpeg", "png", "webp"
	MaxAspectRatio float64
}

// DefaultConfig returns the default validation rules.
func DefaultConfig() Config {
	return Config{
		MinDim:         DefaultMinDim,
		MaxDim:         DefaultMaxDim,
		MinFileBytes:   DefaultMinFileBytes,
		MaxFileBytes:   DefaultMaxFileBytes,
		AllowedFormats: []string{"jpeg", "png", "webp"},
		MaxAspectRatio: DefaultMaxAspectRatio,
	}
}

// Filter validates image files. Safe for concurrent use.
type Filter struct {
	cfg     Config
	allowed map[string]bool
}

// New builds a Filter from cfg, filling zero-value fields with defaults.
func New(cfg Config) *Filter {
	def := DefaultConfig()
	if cfg.MinDim <= 0 {
		cfg.MinDim = def.MinDim
	}
	if cfg.MaxDim <= 0 {
		cfg.MaxDim = def.MaxDim
	}
	if cfg.MinFileBytes <= 0 {
		cfg.MinFileBytes = def.MinFileBytes
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = def.MaxFileBytes
	}
	if len(cfg.AllowedFormats) == 0 {
		cfg.AllowedFormats = def.AllowedFormats
	}
	if cfg.MaxAspectRatio <= 0 {
		cfg.MaxAspectRatio = def.MaxAspectRatio
	}

	allowed := make(map[string]bool, len(cfg.AllowedFormats))
	for _, f := range cfg.AllowedFormats {
		allowed[f] = true
	}
	return &Filter{cfg: cfg, allowed: allowed}
}

// Info describes a decodable image file.
type Info struct {
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	FileBytes int64  `json:"size_bytes"`
}

// IsValid reports whether the file at path passes every rule. It never
// returns an error: any I/O or decode failure is treated as invalid and
// logged. Checks run cheapest first so corrupt or oversized files are
// rejected before the full decode.
func (f *Filter) IsValid(path string) bool {
	st, err := os.Stat(path)
	if err != nil {
		slog.Debug("imgfilter: stat failed", "path", path, "error", err.Error())
		return false
	}
	if st.Size() < f.cfg.MinFileBytes || st.Size() > f.cfg.MaxFileBytes {
		slog.Debug("imgfilter: file size out of bounds", "path", path, "bytes", st.Size())
		return false
	}

	file, err := os.Open(path) //nolint:gosec // caller-supplied path by design
	if err != nil {
		slog.Debug("imgfilter: open failed", "path", path, "error", err.Error())
		return false
	}
	defer file.Close()

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		slog.Debug("imgfilter: undecodable image", "path", path, "error", err.Error())
		return false
	}
	if !f.allowed[format] {
		slog.Debug("imgfilter: format not allowed", "path", path, "format", format)
		return false
	}

	if cfg.Width < f.cfg.MinDim || cfg.Height < f.cfg.MinDim ||
		cfg.Width > f.cfg.MaxDim || cfg.Height > f.cfg.MaxDim {
		slog.Debug("imgfilter: dimensions out of bounds",
			"path", path, "width", cfg.Width, "height", cfg.Height)
		return false
	}

	if aspectRatio(cfg.Width, cfg.Height) > f.cfg.MaxAspectRatio {
		slog.Debug("imgfilter: aspect ratio too extreme",
			"path", path, "width", cfg.Width, "height", cfg.Height)
		return false
	}

	// Full decode catches truncated and corrupt files that a header-only
	// DecodeConfig misses.
	if _, err := file.Seek(0, 0); err != nil {
		slog.Debug("imgfilter: seek failed", "path", path, "error", err.Error())
		return false
	}
	if _, _, err := image.Decode(file); err != nil {
		slog.Debug("imgfilter: full decode failed", "path", path, "error", err.Error())
		return false
	}

	return true
}

func aspectRatio(w, h int) float64 {
	if w <= 0 || h <= 0 {
		return 0
	}
	if w > h {
		return float64(w) / float64(h)
	}
	return float64(h) / float64(w)
}

// Inspect returns basic information about the image at path.
func Inspect(path string) (*Info, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("imgfilter: stat %s: %w", path, err)
	}
	file, err := os.Open(path) //nolint:gosec // caller-supplied path by design
	if err != nil {
		return nil, fmt.Errorf("imgfilter: open %s: %w", path, err)
	}
	defer file.Close()

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return nil, fmt.Errorf("imgfilter: decode %s: %w", path, err)
	}

	return &Info{
		Format:    format,
		Width:     cfg.Width,
		Height:    cfg.Height,
		FileBytes: st.Size(),
	}, nil
}
