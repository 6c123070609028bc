package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// NewDownloadCmd creates the download command.
func NewDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Crawl images by keyword or from a URL list",
		Long: `Download fetches images concurrently, validates each against the quality
filter, and drops near-duplicates. Sources are either search keywords or a
file of URLs (one per line).

Every kept image is written to the output directory as image_NNNNNN.<ext>.

Examples:
  # Crawl by keywords
  ocrdlp download --keywords "invoice,receipt" --output-dir ./images

  # Download a prepared URL list
  ocrdlp download --urls urls.txt --output-dir ./images`,
		RunE: runDownloadCmd,
	}

	cmd.Flags().StringP("keywords", "k", "", "Comma-separated search keywords")
	cmd.Flags().StringP("urls", "u", "", "File containing image URLs, one per line")
	cmd.Flags().StringP("engine", "e", "",
		"Search engine: serper, serpapi, unsplash, flickr, or mixed")
	cmd.Flags().StringP("output-dir", "o", "", "Output directory for images")
	cmd.Flags().IntP("max-images", "n", 0, "Maximum number of images to keep")
	cmd.MarkFlagsMutuallyExclusive("keywords", "urls")

	return cmd
}

// runDownloadCmd executes the download command.
func runDownloadCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	keywords, _ := cmd.Flags().GetString("keywords")
	urlsFile, _ := cmd.Flags().GetString("urls")
	if keywords == "" && urlsFile == "" {
		return fmt.Errorf("either --keywords or --urls is required")
	}

	ctx, cancel := signalContext()
	defer cancel()

	if urlsFile != "" {
		urls, err := readURLList(urlsFile)
		if err != nil {
			return err
		}
		if len(urls) > cfg.MaxImages {
			urls = urls[:cfg.MaxImages]
		}

		c, cleanup, err := newCrawler(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		results, _ := c.Downloader.Download(ctx, urls)
		printCrawlSummary(cmd, len(results), len(urls))
		if len(results) == 0 {
			return fmt.Errorf("no images downloaded")
		}
		return nil
	}

	c, cleanup, err := newCrawler(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := c.Crawl(ctx, splitKeywords(keywords), cfg.MaxImages)
	if err != nil {
		return err
	}
	printCrawlSummary(cmd, len(report.Results), report.URLsFound)
	if len(report.Results) == 0 {
		return fmt.Errorf("no images downloaded")
	}
	return nil
}

func printCrawlSummary(cmd *cobra.Command, kept, found int) {
	fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %d images from %d URLs\n", kept, found)
}

// readURLList loads one URL per line, skipping blanks and # comments.
func readURLList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // user-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("open URL list: %w", err)
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read URL list: %w", err)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no URLs found in %s", path)
	}
	return urls, nil
}
