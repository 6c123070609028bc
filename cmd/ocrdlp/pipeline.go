package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Jackmeson1/ocrdlp-lab/internal/labeler"
)

// NewPipelineCmd creates the pipeline command.
func NewPipelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run crawl and classification end to end",
		Long: `Pipeline chains the full collection flow: search providers by keyword,
download and filter the images, drop near-duplicates, then classify every
kept image into a JSONL label file next to the images.

Examples:
  ocrdlp pipeline --keywords "invoice,receipt" --output-dir ./dataset
  ocrdlp pipeline --keywords "passport" --max-images 20 --skip-classify`,
		RunE: runPipelineCmd,
	}

	cmd.Flags().StringP("keywords", "k", "", "Comma-separated search keywords (required)")
	cmd.Flags().StringP("engine", "e", "",
		"Search engine: serper, serpapi, unsplash, flickr, or mixed")
	cmd.Flags().StringP("output-dir", "o", "", "Output directory (required)")
	cmd.Flags().IntP("max-images", "n", 0, "Maximum number of images to keep")
	cmd.Flags().Bool("skip-classify", false, "Stop after the crawl, skip classification")
	_ = cmd.MarkFlagRequired("keywords")
	_ = cmd.MarkFlagRequired("output-dir")

	return cmd
}

// runPipelineCmd executes the pipeline command.
func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	keywords, _ := cmd.Flags().GetString("keywords")
	skipClassify, _ := cmd.Flags().GetBool("skip-classify")

	// Fail before crawling if classification will need a key we don't have.
	if !skipClassify && os.Getenv("OPENAI_API_KEY") == "" {
		return fmt.Errorf("pipeline requires OPENAI_API_KEY (or pass --skip-classify)")
	}

	c, cleanup, err := newCrawler(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	report, err := c.Crawl(ctx, splitKeywords(keywords), cfg.MaxImages)
	if err != nil {
		return err
	}
	printCrawlSummary(cmd, len(report.Results), report.URLsFound)
	if len(report.Results) == 0 {
		return fmt.Errorf("no images downloaded")
	}

	if skipClassify {
		return nil
	}

	vision := labeler.NewOpenAIVision(newVisionClient(cfg))
	if vision == nil {
		return fmt.Errorf("pipeline requires OPENAI_API_KEY (or pass --skip-classify)")
	}

	labels := filepath.Join(cfg.OutputDir, cfg.LabelsFile)
	res, err := labeler.ClassifyBatch(ctx, vision, cfg.OutputDir, labels)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Classified %d/%d images, results in %s\n",
		res.Successful, res.Total, res.OutputPath)
	if res.Successful == 0 {
		return fmt.Errorf("all %d classifications failed", res.Total)
	}
	return nil
}
