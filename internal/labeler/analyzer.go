package labeler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// extractPrompt asks the model to read structured invoice fields, as
// opposed to classifyPrompt which only characterizes the document.
const extractPrompt = `Please analyze this invoice image and extract the following structured information in JSON format:

{
    "document_type": "Invoice type (e.g., GST_invoice, commercial_invoice, tax_invoice, etc.)",
    "language": "Primary language (e.g., English, Hindi, Tamil, etc.)",
    "currency": "Currency (e.g., INR, USD, etc.)",
    "total_amount": "Total amount as a number",
    "tax_amount": "Tax amount",
    "invoice_number": "Invoice number",
    "invoice_date": "Invoice date",
    "vendor_name": "Vendor/seller name",
    "customer_name": "Customer/buyer name",
    "items": [
        {
            "description": "Item description",
            "quantity": "Quantity",
            "unit_price": "Unit price",
            "amount": "Amount"
        }
    ],
    "tax_details": {
        "gst_number": "GST number",
        "tax_rate": "Tax rate",
        "cgst": "Central GST",
        "sgst": "State GST",
        "igst": "Integrated GST"
    },
    "addresses": {
        "vendor_address": "Vendor address",
        "customer_address": "Customer address"
    },
    "payment_terms": "Payment terms",
    "confidence_score": "Overall extraction confidence (0-1)",
    "extracted_text_sample": "Sample of the extracted text",
    "document_quality": "Image quality assessment (clear/blurry/partially_readable)"
}

Please ensure:
1. Set any field that cannot be read to null
2. Amount fields hold plain numbers with currency symbols stripped
3. Dates use the YYYY-MM-DD format
4. Confidence reflects text clarity and completeness
5. Return only JSON, no other explanatory text`

// Analyzer extracts structured document fields from a single image file.
// It is the reading counterpart of Labeler, which only classifies.
type Analyzer interface {
	Analyze(ctx context.Context, imagePath string) (*Extraction, error)
	Model() string
}

// Extraction is one structured field-extraction result for an invoice
// image. A failed extraction carries Error and RawResponse instead.
type Extraction struct {
	DocumentType        string      `json:"document_type,omitempty"`
	Language            string      `json:"language,omitempty"`
	Currency            string      `json:"currency,omitempty"`
	TotalAmount         Amount      `json:"total_amount,omitempty"`
	TaxAmount           Amount      `json:"tax_amount,omitempty"`
	InvoiceNumber       string      `json:"invoice_number,omitempty"`
	InvoiceDate         string      `json:"invoice_date,omitempty"`
	VendorName          string      `json:"vendor_name,omitempty"`
	CustomerName        string      `json:"customer_name,omitempty"`
	Items               []LineItem  `json:"items,omitempty"`
	TaxDetails          *TaxDetails `json:"tax_details,omitempty"`
	Addresses           *Addresses  `json:"addresses,omitempty"`
	PaymentTerms        string      `json:"payment_terms,omitempty"`
	ConfidenceScore     Confidence  `json:"confidence_score,omitempty"`
	ExtractedTextSample string      `json:"extracted_text_sample,omitempty"`
	DocumentQuality     string      `json:"document_quality,omitempty"`

	Error       string `json:"error,omitempty"`
	RawResponse string `json:"raw_response,omitempty"`

	Metadata *ExtractionMetadata `json:"_metadata,omitempty"`
	FileInfo *FileInfo           `json:"_file_info,omitempty"`
}

// Failed reports whether the record represents a failed extraction.
func (e *Extraction) Failed() bool { return e.Error != "" }

// LineItem is one invoice line.
type LineItem struct {
	Description string `json:"description,omitempty"`
	Quantity    Amount `json:"quantity,omitempty"`
	UnitPrice   Amount `json:"unit_price,omitempty"`
	Amount      Amount `json:"amount,omitempty"`
}

// TaxDetails holds the GST breakdown of an Indian tax invoice.
type TaxDetails struct {
	GSTNumber string `json:"gst_number,omitempty"`
	TaxRate   Amount `json:"tax_rate,omitempty"`
	CGST      Amount `json:"cgst,omitempty"`
	SGST      Amount `json:"sgst,omitempty"`
	IGST      Amount `json:"igst,omitempty"`
}

// Addresses holds the vendor and customer addresses.
type Addresses struct {
	VendorAddress   string `json:"vendor_address,omitempty"`
	CustomerAddress string `json:"customer_address,omitempty"`
}

// ExtractionMetadata records how and from what the extraction was produced.
type ExtractionMetadata struct {
	ImagePath string      `json:"image_path"`
	ImageInfo *ImageInfo  `json:"image_info,omitempty"`
	Timestamp string      `json:"analysis_timestamp,omitempty"`
	Model     string      `json:"model_used,omitempty"`
	Usage     *TokenUsage `json:"api_response_tokens,omitempty"`
}

// Amount is a numeric invoice value that tolerates being serialized as
// either a JSON number or a quoted string, since vision models emit both.
type Amount string

// UnmarshalJSON accepts 1500, "1500.00", and null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*a = ""
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	*a = Amount(s)
	return nil
}

// Analyze sends the image at imagePath to the vision model with the field
// extraction prompt. Like Classify, API and parse failures come back as an
// Extraction with Error set; only unreadable input files fail hard.
func (o *OpenAIVision) Analyze(ctx context.Context, imagePath string) (*Extraction, error) {
	data, err := os.ReadFile(imagePath) //nolint:gosec // caller-supplied path by design
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	md := &ExtractionMetadata{
		ImagePath: imagePath,
		ImageInfo: inspectImage(imagePath),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Model:     o.Model(),
	}

	content, usage, err := o.complete(ctx, extractPrompt, data, 2000)
	md.Usage = usage
	if err != nil {
		return &Extraction{Error: err.Error(), Metadata: md}, nil
	}

	ext, err := parseExtraction(content)
	if err != nil {
		return &Extraction{
			Error:       fmt.Sprintf("JSON parse failed: %v", err),
			RawResponse: content,
			Metadata:    md,
		}, nil
	}
	ext.Metadata = md
	return ext, nil
}

func parseExtraction(content string) (*Extraction, error) {
	var ext Extraction
	if err := json.Unmarshal([]byte(extractJSON(content)), &ext); err != nil {
		return nil, err
	}
	return &ext, nil
}
