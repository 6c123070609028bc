package dataset

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/Jackmeson1/ocrdlp-lab/internal/labeler"
	"github.com/Jackmeson1/ocrdlp-lab/internal/meta"
)

// ReportWriter renders a dataset summary as markdown: the directory
// structure, label statistics from a JSONL label file, and images whose
// embedded metadata names a stock agency.
type ReportWriter struct {
	output io.Writer
}

// NewReportWriter creates a ReportWriter targeting output.
func NewReportWriter(output io.Writer) *ReportWriter {
	return &ReportWriter{output: output}
}

// Write renders the full report. records may be nil when no label file
// exists yet; label sections are skipped in that case.
func (w *ReportWriter) Write(info *Info, records []*labeler.Record) error {
	md := markdown.NewMarkdown(w.output)

	w.writeStructure(md, info)
	if len(records) > 0 {
		w.writeLabelStats(md, records)
		w.writeValidation(md, records)
	}
	w.writeRights(md, records)

	return md.Build()
}

func (w *ReportWriter) writeStructure(md *markdown.Markdown, info *Info) {
	md.H1("Dataset Report")
	md.PlainText("")
	md.PlainTextf("Base directory: `%s`", info.BaseDirectory)
	md.PlainText("")

	rows := make([][]string, 0, len(SplitNames))
	for _, name := range SplitNames {
		di := info.Structure[name]
		status := "missing"
		if di.Exists {
			status = "ok"
		}
		rows = append(rows, []string{name, strconv.Itoa(di.ImageCount), status})
	}
	rows = append(rows, []string{"**total**", "**" + strconv.Itoa(info.TotalImages) + "**", ""})

	md.Table(markdown.TableSet{
		Header: []string{"Split", "Images", "Status"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *ReportWriter) writeLabelStats(md *markdown.Markdown, records []*labeler.Record) {
	successful := 0
	categories := map[string]int{}
	difficulties := map[string]int{}
	languages := map[string]int{}

	for _, rec := range records {
		if rec.Failed() {
			continue
		}
		successful++
		bump(categories, rec.DocumentCategory)
		bump(difficulties, rec.OCRDifficulty)
		bump(languages, rec.LanguagePrimary)
	}

	md.H2("Classification Overview")
	md.PlainText("")
	md.BulletList(
		fmt.Sprintf("Total records: %d", len(records)),
		fmt.Sprintf("Successfully classified: %d", successful),
		fmt.Sprintf("Failed: %d", len(records)-successful),
	)
	md.PlainText("")

	w.writeCountTable(md, "Document Categories", "Category", categories, successful)
	w.writeCountTable(md, "OCR Difficulty", "Difficulty", difficulties, successful)
	w.writeCountTable(md, "Primary Languages", "Language", languages, successful)
}

func (w *ReportWriter) writeCountTable(md *markdown.Markdown, title, label string, counts map[string]int, total int) {
	if len(counts) == 0 {
		return
	}
	md.H2(title)
	md.PlainText("")

	rows := make([][]string, 0, len(counts))
	for _, key := range sortedByCount(counts) {
		pct := 0.0
		if total > 0 {
			pct = float64(counts[key]) / float64(total) * 100
		}
		rows = append(rows, []string{key, strconv.Itoa(counts[key]), fmt.Sprintf("%.1f%%", pct)})
	}
	md.Table(markdown.TableSet{
		Header: []string{label, "Count", "Share"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *ReportWriter) writeValidation(md *markdown.Markdown, records []*labeler.Record) {
	v := labeler.ValidateRecords(records)

	md.H2("Label Completeness")
	md.PlainText("")

	rows := make([][]string, 0, len(v.FieldCompleteness))
	fields := append(labeler.RequiredFields(), labeler.ImportantFields()...)
	for _, field := range fields {
		count := v.FieldCompleteness[field]
		pct := 0.0
		if v.TotalRecords > 0 {
			pct = float64(count) / float64(v.TotalRecords) * 100
		}
		rows = append(rows, []string{field, fmt.Sprintf("%d/%d", count, v.TotalRecords), fmt.Sprintf("%.1f%%", pct)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Field", "Filled", "Share"},
		Rows:   rows,
	})
	md.PlainText("")
	md.PlainTextf("Valid classifications: %d/%d", v.ValidRecords, v.TotalRecords)
	md.PlainText("")
}

// writeRights lists classified images whose embedded metadata carries a
// stock-agency rights string. Those are redistribution risks.
func (w *ReportWriter) writeRights(md *markdown.Markdown, records []*labeler.Record) {
	type flagged struct {
		file   string
		agency string
	}
	var hits []flagged

	for _, rec := range records {
		if rec.Metadata == nil {
			continue
		}
		rights := rec.Metadata.Rights
		if rights == nil && rec.Metadata.ImagePath != "" {
			rights = meta.ExtractFile(rec.Metadata.ImagePath)
		}
		if agency := rights.StockAgency(); agency != "" {
			hits = append(hits, flagged{file: filepath.Base(rec.Metadata.ImagePath), agency: agency})
		}
	}
	if len(hits) == 0 {
		return
	}

	md.H2("Stock Rights Warnings")
	md.PlainText("")
	md.Warning("The images below carry stock-agency rights metadata and should not be redistributed.")
	md.PlainText("")

	rows := make([][]string, 0, len(hits))
	for _, h := range hits {
		rows = append(rows, []string{"`" + h.file + "`", h.agency})
	}
	md.Table(markdown.TableSet{
		Header: []string{"File", "Agency"},
		Rows:   rows,
	})
	md.PlainText("")
}

func bump(counts map[string]int, key string) {
	if key == "" {
		key = "unknown"
	}
	counts[key]++
}

// sortedByCount returns keys ordered by descending count, name as tiebreak.
func sortedByCount(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
