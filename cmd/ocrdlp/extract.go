package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Jackmeson1/ocrdlp-lab/internal/labeler"
)

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <image-dir>",
		Short: "Extract structured invoice fields into tagged JSONL",
		Long: `Extract reads each invoice image in a directory with the vision model
and writes the structured fields (amounts, dates, parties, tax breakdown)
as one JSON record per line. Where classify characterizes a document,
extract reads its contents.

Requires OPENAI_API_KEY in the environment or a .env file.

Examples:
  ocrdlp extract ./invoices --output tags.jsonl
  ocrdlp extract ./invoices --output tags.jsonl --validate`,
		Args: cobra.ExactArgs(1),
		RunE: runExtractCmd,
	}

	cmd.Flags().StringP("output", "o", "", "Output JSONL file (default tags.jsonl)")
	cmd.Flags().Bool("validate", false, "Validate extracted fields after the run")

	return cmd
}

// runExtractCmd executes the extract command.
func runExtractCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = cfg.TagsFile
	}

	if os.Getenv("OPENAI_API_KEY") == "" {
		return fmt.Errorf("extraction requires OPENAI_API_KEY to be set")
	}
	vision := labeler.NewOpenAIVision(newVisionClient(cfg))
	if vision == nil {
		return fmt.Errorf("extraction requires OPENAI_API_KEY to be set")
	}

	ctx, cancel := signalContext()
	defer cancel()

	res, err := labeler.AnalyzeBatch(ctx, vision, args[0], output)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d/%d images, results in %s\n",
		res.Successful, res.Total, res.OutputPath)
	if res.Successful == 0 {
		return fmt.Errorf("all %d extractions failed", res.Total)
	}

	if doValidate, _ := cmd.Flags().GetBool("validate"); doValidate {
		return printExtractionValidation(cmd, output)
	}
	return nil
}

// printExtractionValidation renders an extraction-quality summary to the
// command output.
func printExtractionValidation(cmd *cobra.Command, path string) error {
	v, err := labeler.ValidateExtractionFile(path)
	if err != nil {
		return err
	}
	if v.TotalRecords == 0 {
		return fmt.Errorf("no records found in %s", path)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Records: %d (failed: %d)\n", v.TotalRecords, v.FailedRecords)
	fmt.Fprintf(out, "Complete extractions: %d/%d (%.1f%%)\n",
		v.ValidRecords, v.TotalRecords, float64(v.ValidRecords)/float64(v.TotalRecords)*100)

	fmt.Fprintln(out, "\nField completeness:")
	for _, field := range labeler.RequiredExtractionFields() {
		count := v.FieldCompleteness[field]
		fmt.Fprintf(out, "  %-26s %d/%d (%.1f%%)\n",
			field, count, v.TotalRecords, float64(count)/float64(v.TotalRecords)*100)
	}
	return nil
}
