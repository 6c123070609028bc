package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	cfg := New()
	if cfg.Engine != "mixed" {
		t.Errorf("Engine = %q, want mixed", cfg.Engine)
	}
	if cfg.MaxImages != DefaultMaxImages {
		t.Errorf("MaxImages = %d", cfg.MaxImages)
	}
	if cfg.MaxConcurrent != DefaultMaxConcurrent {
		t.Errorf("MaxConcurrent = %d", cfg.MaxConcurrent)
	}
	if cfg.HashThreshold != DefaultHashThreshold {
		t.Errorf("HashThreshold = %d", cfg.HashThreshold)
	}
	if cfg.RetryDelay != time.Second {
		t.Errorf("RetryDelay = %v", cfg.RetryDelay)
	}
	if cfg.DBDir == "" {
		t.Error("DBDir empty")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cfg.yaml")
	content := `
engine: unsplash
output_dir: /data/images
max_images: 200
hash_threshold: 8
retry_delay: 2s
vision_timeout: 90s
tags_file: extracted.jsonl
user_agent: custom-agent
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine != "unsplash" {
		t.Errorf("Engine = %q", cfg.Engine)
	}
	if cfg.OutputDir != "/data/images" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.MaxImages != 200 {
		t.Errorf("MaxImages = %d", cfg.MaxImages)
	}
	if cfg.HashThreshold != 8 {
		t.Errorf("HashThreshold = %d", cfg.HashThreshold)
	}
	if cfg.RetryDelay != 2*time.Second {
		t.Errorf("RetryDelay = %v", cfg.RetryDelay)
	}
	if cfg.VisionTimeout != 90*time.Second {
		t.Errorf("VisionTimeout = %v", cfg.VisionTimeout)
	}
	if cfg.TagsFile != "extracted.jsonl" {
		t.Errorf("TagsFile = %q", cfg.TagsFile)
	}
	if cfg.UserAgent != "custom-agent" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	// Unset fields keep their defaults.
	if cfg.MaxConcurrent != DefaultMaxConcurrent {
		t.Errorf("MaxConcurrent = %d, want default", cfg.MaxConcurrent)
	}
}

func TestLoadMissingExplicitPathFails(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("err = %v, want ErrConfigNotFound", err)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	// FindConfigFile consults the working directory, so run from an empty one.
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxImages != DefaultMaxImages {
		t.Errorf("MaxImages = %d, want default", cfg.MaxImages)
	}
}

func TestLoadFileInvalidYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("engine: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestFindConfigFilePrefersCwd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFile)
	if err := os.WriteFile(path, []byte("engine: serper\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	got := FindConfigFile("")
	if filepath.Base(got) != DefaultConfigFile {
		t.Errorf("FindConfigFile = %q", got)
	}
}

func TestApplyNilFileIsNoop(t *testing.T) {
	t.Parallel()

	cfg := New()
	var f *File
	f.Apply(cfg)
	if cfg.MaxImages != DefaultMaxImages {
		t.Errorf("MaxImages changed: %d", cfg.MaxImages)
	}
}
