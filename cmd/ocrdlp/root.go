package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Jackmeson1/ocrdlp-lab/internal/config"
	"github.com/Jackmeson1/ocrdlp-lab/internal/crawler"
	"github.com/Jackmeson1/ocrdlp-lab/internal/dedup"
	"github.com/Jackmeson1/ocrdlp-lab/internal/fetch"
	"github.com/Jackmeson1/ocrdlp-lab/internal/imgfilter"
	"github.com/Jackmeson1/ocrdlp-lab/internal/search"
	"github.com/Jackmeson1/ocrdlp-lab/internal/store"
)

// NewRootCmd creates the root command for ocrdlp.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ocrdlp",
		Short: "Collect labeled document-image datasets for OCR/DLP testing",
		Long: `ocrdlp builds document-image datasets for OCR and data-loss-prevention testing.

It crawls image search providers by keyword, validates and deduplicates the
downloads, classifies each image with a vision model, and organizes the
results into train/val/test splits with a quality report.

API keys are read from the environment (a .env file is loaded if present):
  SERPER_API_KEY, SERPAPI_KEY, UNSPLASH_ACCESS_KEY, FLICKR_KEY, OPENAI_API_KEY`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .ocrdlp.yaml in current or XDG config directory)")

	// Add subcommands
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewDownloadCmd())
	cmd.AddCommand(NewClassifyCmd())
	cmd.AddCommand(NewExtractCmd())
	cmd.AddCommand(NewPipelineCmd())
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewDedupCmd())
	cmd.AddCommand(NewDatasetCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	// API keys may live in a local .env file.
	_ = godotenv.Load()

	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogger creates a structured logger based on verbosity setting.
func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// loadConfig builds the effective configuration from the config file and
// common flags, and installs the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, _ = cmd.Root().PersistentFlags().GetString("config")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	cfg.Verbose = getVerboseFlag(cmd)
	slog.SetDefault(setupLogger(cfg.Verbose))

	if engine, err := cmd.Flags().GetString("engine"); err == nil && engine != "" {
		cfg.Engine = engine
	}
	if out, err := cmd.Flags().GetString("output-dir"); err == nil && out != "" {
		cfg.OutputDir = out
	}
	if maxImages, err := cmd.Flags().GetInt("max-images"); err == nil && maxImages > 0 {
		cfg.MaxImages = maxImages
	}
	return cfg, nil
}

// newFetchClient builds the shared retrying HTTP client.
func newFetchClient(cfg *config.Config) *fetch.Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = config.DefaultHTTPTimeout
	}
	return &fetch.Client{
		HTTPClient: &http.Client{Timeout: timeout},
		UserAgent:  cfg.UserAgent,
	}
}

// newVisionClient builds the HTTP client for vision model calls, which need
// a far longer timeout than image downloads.
func newVisionClient(cfg *config.Config) *fetch.Client {
	timeout := cfg.VisionTimeout
	if timeout <= 0 {
		timeout = config.DefaultVisionTimeout
	}
	return &fetch.Client{
		HTTPClient: &http.Client{Timeout: timeout},
		UserAgent:  cfg.UserAgent,
	}
}

// newCrawler wires the full crawl stack: search aggregator, duplicate
// index, quality filter, bounded downloader, and crawl history.
func newCrawler(cfg *config.Config) (*crawler.Crawler, func(), error) {
	engine, err := search.ParseEngine(cfg.Engine)
	if err != nil {
		return nil, nil, err
	}

	if err := checkSearchKeys(engine); err != nil {
		return nil, nil, err
	}

	agg, err := search.FromEnv(engine, newFetchClient(cfg))
	if err != nil {
		return nil, nil, err
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o750); err != nil {
		return nil, nil, fmt.Errorf("create output dir: %w", err)
	}

	idx, err := dedup.Open(dedup.Options{
		Path:      filepath.Join(cfg.OutputDir, "hash_db.json"),
		Threshold: cfg.HashThreshold,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open duplicate index: %w", err)
	}

	var history *store.CrawlStore
	if cfg.DBDir != "" {
		if history, err = store.Open(cfg.DBDir); err != nil {
			// History is best effort, a crawl without it is still useful.
			slog.Warn("crawl history unavailable", "dir", cfg.DBDir, "error", err)
			history = nil
		}
	}

	c := &crawler.Crawler{
		Aggregator: agg,
		Downloader: &crawler.Downloader{
			OutputDir:     cfg.OutputDir,
			MaxConcurrent: cfg.MaxConcurrent,
			RetryAttempts: cfg.RetryAttempts,
			RetryDelay:    cfg.RetryDelay,
			UserAgent:     cfg.UserAgent,
			Filter: imgfilter.New(imgfilter.Config{
				MinDim:       cfg.MinDim,
				MaxDim:       cfg.MaxDim,
				MinFileBytes: cfg.MinFileBytes,
				MaxFileBytes: cfg.MaxFileBytes,
			}),
			Index: idx,
		},
		History: history,
		Engine:  engine,
	}

	cleanup := func() {
		if err := idx.Close(); err != nil {
			slog.Warn("failed to flush duplicate index", "error", err)
		}
		if history != nil {
			if err := history.Close(); err != nil {
				slog.Warn("failed to close crawl history", "error", err)
			}
		}
	}
	return c, cleanup, nil
}

// checkSearchKeys fails fast when the selected engine has no API key in the
// environment, instead of crawling with providers that all skip themselves.
func checkSearchKeys(engine search.Engine) error {
	if engine == search.EngineMixed {
		for _, e := range []search.Engine{search.EngineSerper, search.EngineSerpAPI, search.EngineUnsplash, search.EngineFlickr} {
			if os.Getenv(e.APIKeyVar()) != "" {
				return nil
			}
		}
		return fmt.Errorf("no search API key configured: set SERPER_API_KEY, SERPAPI_KEY, UNSPLASH_ACCESS_KEY, or FLICKR_KEY")
	}
	if os.Getenv(engine.APIKeyVar()) == "" {
		return fmt.Errorf("engine %q requires %s to be set", engine, engine.APIKeyVar())
	}
	return nil
}

// splitKeywords turns a comma-separated flag value into trimmed keywords.
func splitKeywords(raw string) []string {
	var out []string
	for _, kw := range strings.Split(raw, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
