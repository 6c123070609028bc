package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Jackmeson1/ocrdlp-lab/internal/labeler"
)

// NewClassifyCmd creates the classify command.
func NewClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <image-dir>",
		Short: "Classify images with a vision model into labeled JSONL",
		Long: `Classify sends each image in a directory to the vision model and writes
one JSON record per line to the output file. Records capture document type,
language, quality, sensitive data content, and OCR difficulty.

Requires OPENAI_API_KEY in the environment or a .env file.

Examples:
  ocrdlp classify ./images --output labels.jsonl
  ocrdlp classify ./images --output labels.jsonl --validate`,
		Args: cobra.ExactArgs(1),
		RunE: runClassifyCmd,
	}

	cmd.Flags().StringP("output", "o", "", "Output JSONL file (default labels.jsonl)")
	cmd.Flags().Bool("validate", false, "Validate results after classification")

	return cmd
}

// runClassifyCmd executes the classify command.
func runClassifyCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = cfg.LabelsFile
	}

	if os.Getenv("OPENAI_API_KEY") == "" {
		return fmt.Errorf("classification requires OPENAI_API_KEY to be set")
	}
	vision := labeler.NewOpenAIVision(newVisionClient(cfg))
	if vision == nil {
		return fmt.Errorf("classification requires OPENAI_API_KEY to be set")
	}

	ctx, cancel := signalContext()
	defer cancel()

	res, err := labeler.ClassifyBatch(ctx, vision, args[0], output)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Classified %d/%d images, results in %s\n",
		res.Successful, res.Total, res.OutputPath)
	if res.Successful == 0 {
		return fmt.Errorf("all %d classifications failed", res.Total)
	}

	if doValidate, _ := cmd.Flags().GetBool("validate"); doValidate {
		return printValidation(cmd, output)
	}
	return nil
}
