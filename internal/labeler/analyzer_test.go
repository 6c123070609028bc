package labeler

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
)

const goodExtractionJSON = `{
	"document_type": "GST_invoice",
	"language": "English",
	"currency": "INR",
	"total_amount": 1180.50,
	"tax_amount": "180.50",
	"invoice_number": "INV-2024-001",
	"invoice_date": "2024-03-15",
	"vendor_name": "Acme Supplies",
	"customer_name": "Globex Ltd",
	"items": [
		{"description": "Widget", "quantity": 2, "unit_price": "500", "amount": 1000}
	],
	"tax_details": {"gst_number": "29ABCDE1234F1Z5", "tax_rate": "18", "cgst": 90.25, "sgst": 90.25},
	"payment_terms": "Net 30",
	"confidence_score": "0.9"
}`

func TestAnalyzeParsesExtraction(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invoice.jpg")
	writeTestJPEG(t, path)

	srv := visionStub(t, goodExtractionJSON, nil)
	defer srv.Close()

	ext, err := newTestVision(srv.URL).Analyze(context.Background(), path)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if ext.Failed() {
		t.Fatalf("extraction failed: %s", ext.Error)
	}
	if ext.DocumentType != "GST_invoice" || ext.InvoiceNumber != "INV-2024-001" {
		t.Errorf("unexpected extraction: %+v", ext)
	}
	if ext.TotalAmount != "1180.50" || ext.TaxAmount != "180.50" {
		t.Errorf("amounts: total=%q tax=%q", ext.TotalAmount, ext.TaxAmount)
	}
	if len(ext.Items) != 1 || ext.Items[0].UnitPrice != "500" || ext.Items[0].Amount != "1000" {
		t.Errorf("items: %+v", ext.Items)
	}
	if ext.TaxDetails == nil || ext.TaxDetails.CGST != "90.25" {
		t.Errorf("tax details: %+v", ext.TaxDetails)
	}
	if ext.ConfidenceScore != 0.9 {
		t.Errorf("confidence = %v, want 0.9", ext.ConfidenceScore)
	}
	if ext.Metadata == nil || ext.Metadata.Model != "gpt-4o" {
		t.Errorf("metadata = %+v", ext.Metadata)
	}
}

func TestAnalyzeUnparseableResponseBecomesErrorRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invoice.jpg")
	writeTestJPEG(t, path)

	srv := visionStub(t, "the invoice is unreadable", nil)
	defer srv.Close()

	ext, err := newTestVision(srv.URL).Analyze(context.Background(), path)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !ext.Failed() {
		t.Fatal("expected failed extraction")
	}
	if ext.RawResponse != "the invoice is unreadable" {
		t.Errorf("raw response = %q", ext.RawResponse)
	}
}

func TestAmountUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Amount
	}{
		{`1500`, "1500"},
		{`1180.50`, "1180.50"},
		{`"750.00"`, "750.00"},
		{`null`, ""},
	}
	for _, tt := range tests {
		var a Amount
		if err := a.UnmarshalJSON([]byte(tt.in)); err != nil {
			t.Errorf("UnmarshalJSON(%s): %v", tt.in, err)
			continue
		}
		if a != tt.want {
			t.Errorf("UnmarshalJSON(%s) = %q, want %q", tt.in, a, tt.want)
		}
	}
}

func TestAnalyzeBatchWritesAllExtractions(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 3; i++ {
		writeTestJPEG(t, filepath.Join(dir, fmt.Sprintf("inv%d.jpg", i)))
	}

	srv := visionStub(t, goodExtractionJSON, nil)
	defer srv.Close()

	outPath := filepath.Join(t.TempDir(), "tags.jsonl")
	res, err := AnalyzeBatch(context.Background(), newTestVision(srv.URL), dir, outPath)
	if err != nil {
		t.Fatalf("AnalyzeBatch: %v", err)
	}
	if res.Total != 3 || res.Successful != 3 || res.Failed != 0 {
		t.Errorf("result = %+v", res)
	}

	exts, err := ReadExtractions(outPath)
	if err != nil {
		t.Fatalf("ReadExtractions: %v", err)
	}
	if len(exts) != 3 {
		t.Fatalf("got %d extractions, want 3", len(exts))
	}
	for i, ext := range exts {
		if ext.FileInfo == nil || ext.FileInfo.ProcessingOrder != i+1 {
			t.Errorf("extraction %d file info = %+v", i, ext.FileInfo)
		}
	}
}

func TestValidateExtractions(t *testing.T) {
	t.Parallel()

	full := &Extraction{
		DocumentType:  "GST_invoice",
		Language:      "English",
		Currency:      "INR",
		TotalAmount:   "1180.50",
		VendorName:    "Acme Supplies",
		InvoiceNumber: "INV-001",
		InvoiceDate:   "2024-03-15",
		PaymentTerms:  "Net 30",
	}
	partial := &Extraction{DocumentType: "receipt", Language: "English"}
	failed := &Extraction{Error: "API request failed"}

	v := ValidateExtractions([]*Extraction{full, partial, failed})
	if v.TotalRecords != 3 || v.ValidRecords != 1 || v.FailedRecords != 1 {
		t.Errorf("validation = %+v", v)
	}
	if got := v.FieldCompleteness["document_type"]; got != 2 {
		t.Errorf("document_type completeness = %d, want 2", got)
	}
	if got := v.FieldCompleteness["total_amount"]; got != 1 {
		t.Errorf("total_amount completeness = %d, want 1", got)
	}
	if got := v.FieldCompleteness["payment_terms"]; got != 1 {
		t.Errorf("payment_terms completeness = %d, want 1", got)
	}
}
