// Package config holds the runtime configuration for the collection
// pipeline. A single flat struct is populated from defaults, an optional
// YAML file, and CLI flags, then passed down by dependency injection.
package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. Chosen to match typical image-hosting
// behavior and safe resource usage on a developer machine.
const (
	// DefaultMaxImages caps a single crawl. Search providers rarely return
	// more than a few hundred distinct URLs per query anyway.
	DefaultMaxImages = 50

	// DefaultMaxConcurrent bounds parallel downloads. Image hosts throttle
	// aggressively beyond ~10 connections from one address.
	DefaultMaxConcurrent = 10

	// DefaultRetryAttempts per download. Transient CDN errors usually clear
	// within one or two retries; more just wastes crawl time.
	DefaultRetryAttempts = 3

	// DefaultRetryDelay between download attempts.
	DefaultRetryDelay = 1 * time.Second

	// DefaultHTTPTimeout covers a full request including body read. Large
	// images over slow CDNs can legitimately take tens of seconds.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultVisionTimeout applies to vision model calls, which run far
	// longer than image downloads when the response is near the token cap.
	DefaultVisionTimeout = 120 * time.Second

	// DefaultHashThreshold is the Hamming distance at or under which two
	// average hashes count as the same image. 5 of 64 bits tolerates
	// re-encoding and light cropping without collapsing distinct documents.
	DefaultHashThreshold = 5

	// DefaultUserAgent identifies the crawler in HTTP requests.
	DefaultUserAgent = "Mozilla/5.0 (compatible; ocrdlp-lab/1.0)"

	// DefaultOutputDir is where crawled images land when no dataset
	// directory is configured.
	DefaultOutputDir = "crawled_images"

	// DefaultLabelsFile is the JSONL file classification writes.
	DefaultLabelsFile = "labels.jsonl"

	// DefaultTagsFile is the JSONL file field extraction writes.
	DefaultTagsFile = "tags.jsonl"

	// AppName is used for XDG directory paths and config file discovery.
	AppName = "ocrdlp"
)

// Config holds all pipeline options. Flat by choice: the option count is
// small enough that nested sub-configs would only add indirection.
type Config struct {
	// Engine selects the search provider: serper, serpapi, unsplash,
	// flickr, or mixed.
	Engine string

	// OutputDir receives downloaded images.
	OutputDir string

	// LabelsFile is the JSONL output of classification.
	LabelsFile string

	// TagsFile is the JSONL output of field extraction.
	TagsFile string

	// MaxImages caps how many images one crawl keeps.
	MaxImages int

	// MaxConcurrent bounds simultaneous downloads.
	MaxConcurrent int

	// RetryAttempts per failed download.
	RetryAttempts int

	// RetryDelay between download attempts.
	RetryDelay time.Duration

	// HTTPTimeout applies to each HTTP request.
	HTTPTimeout time.Duration

	// VisionTimeout applies to vision model API calls.
	VisionTimeout time.Duration

	// HashThreshold is the near-duplicate Hamming distance cutoff.
	HashThreshold int

	// MinDim and MaxDim bound image dimensions in pixels.
	MinDim int
	MaxDim int

	// MinFileBytes and MaxFileBytes bound the file size.
	MinFileBytes int64
	MaxFileBytes int64

	// UserAgent is sent with every HTTP request.
	UserAgent string

	// DBDir is the directory holding the crawl history database.
	// Empty disables history.
	DBDir string

	// Verbose switches logging to debug level.
	Verbose bool
}

// New returns a Config with every default filled in.
func New() *Config {
	return &Config{
		Engine:        "mixed",
		OutputDir:     DefaultOutputDir,
		LabelsFile:    DefaultLabelsFile,
		TagsFile:      DefaultTagsFile,
		MaxImages:     DefaultMaxImages,
		MaxConcurrent: DefaultMaxConcurrent,
		RetryAttempts: DefaultRetryAttempts,
		RetryDelay:    DefaultRetryDelay,
		HTTPTimeout:   DefaultHTTPTimeout,
		VisionTimeout: DefaultVisionTimeout,
		HashThreshold: DefaultHashThreshold,
		UserAgent:     DefaultUserAgent,
		DBDir:         XDGDataDir(),
	}
}

// XDGDataDir returns the per-user data directory for crawl history.
// On Linux this is ~/.local/share/ocrdlp.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the per-user config directory.
// On Linux this is ~/.config/ocrdlp.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}
