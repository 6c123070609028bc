package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the YAML configuration file name.
const DefaultConfigFile = ".ocrdlp.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// Duration wraps time.Duration so YAML values like "2s" parse.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// File is the YAML shape of the configuration file. Zero values mean
// "keep the default"; only set fields override.
type File struct {
	Engine        string        `yaml:"engine"`
	OutputDir     string        `yaml:"output_dir"`
	LabelsFile    string        `yaml:"labels_file"`
	TagsFile      string        `yaml:"tags_file"`
	MaxImages     int           `yaml:"max_images"`
	MaxConcurrent int           `yaml:"max_concurrent"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryDelay    Duration      `yaml:"retry_delay"`
	HTTPTimeout   Duration      `yaml:"http_timeout"`
	VisionTimeout Duration      `yaml:"vision_timeout"`
	HashThreshold int           `yaml:"hash_threshold"`
	MinDim        int           `yaml:"min_dim"`
	MaxDim        int           `yaml:"max_dim"`
	MinFileBytes  int64         `yaml:"min_file_bytes"`
	MaxFileBytes  int64         `yaml:"max_file_bytes"`
	UserAgent     string        `yaml:"user_agent"`
	DBDir         string        `yaml:"db_dir"`
}

// LoadFile reads and parses a YAML configuration file. A missing file
// returns ErrConfigNotFound so callers can decide whether that is fatal.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &f, nil
}

// FindConfigFile locates the configuration file:
//  1. explicit path, when given
//  2. .ocrdlp.yaml in the current directory
//  3. .ocrdlp.yaml in the XDG config directory
//
// Returns "" when no file is found.
func FindConfigFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	p := filepath.Join(XDGConfigDir(), DefaultConfigFile)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

// Apply overlays the file's set fields onto cfg.
func (f *File) Apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Engine != "" {
		cfg.Engine = f.Engine
	}
	if f.OutputDir != "" {
		cfg.OutputDir = f.OutputDir
	}
	if f.LabelsFile != "" {
		cfg.LabelsFile = f.LabelsFile
	}
	if f.TagsFile != "" {
		cfg.TagsFile = f.TagsFile
	}
	if f.MaxImages > 0 {
		cfg.MaxImages = f.MaxImages
	}
	if f.MaxConcurrent > 0 {
		cfg.MaxConcurrent = f.MaxConcurrent
	}
	if f.RetryAttempts > 0 {
		cfg.RetryAttempts = f.RetryAttempts
	}
	if f.RetryDelay > 0 {
		cfg.RetryDelay = time.Duration(f.RetryDelay)
	}
	if f.HTTPTimeout > 0 {
		cfg.HTTPTimeout = time.Duration(f.HTTPTimeout)
	}
	if f.VisionTimeout > 0 {
		cfg.VisionTimeout = time.Duration(f.VisionTimeout)
	}
	if f.HashThreshold > 0 {
		cfg.HashThreshold = f.HashThreshold
	}
	if f.MinDim > 0 {
		cfg.MinDim = f.MinDim
	}
	if f.MaxDim > 0 {
		cfg.MaxDim = f.MaxDim
	}
	if f.MinFileBytes > 0 {
		cfg.MinFileBytes = f.MinFileBytes
	}
	if f.MaxFileBytes > 0 {
		cfg.MaxFileBytes = f.MaxFileBytes
	}
	if f.UserAgent != "" {
		cfg.UserAgent = f.UserAgent
	}
	if f.DBDir != "" {
		cfg.DBDir = f.DBDir
	}
}

// Load builds the effective configuration: defaults, then the YAML file
// (when found), applied in order. The explicit path, when set, must exist.
func Load(explicit string) (*Config, error) {
	cfg := New()

	path := FindConfigFile(explicit)
	if path == "" {
		if explicit != "" {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, explicit)
		}
		return cfg, nil
	}

	f, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	f.Apply(cfg)
	return cfg, nil
}
