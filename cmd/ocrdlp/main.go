// Package main provides the entry point for the ocrdlp CLI.
//
// ocrdlp collects labeled document-image datasets for OCR and DLP testing:
// it searches image providers by keyword, downloads and filters the hits,
// drops near-duplicates, classifies the survivors with a vision model, and
// organizes the results into dataset splits.
//
// Usage:
//
//	ocrdlp search "invoice document" --engine serper
//	ocrdlp pipeline --keywords "receipt,invoice" --output-dir ./dataset
//
// See --help for all available options.
package main

// main is the entry point for ocrdlp.
func main() {
	Execute()
}
