package labeler

// Fields every usable classification record must carry.
var requiredFields = []string{
	"document_category",
	"document_subcategory",
	"language_primary",
	"text_clarity",
	"image_quality",
	"ocr_difficulty",
}

// Fields that are optional but tracked for completeness reporting.
var importantFields = []string{
	"sensitive_data_types",
	"testing_scenarios",
	"challenge_factors",
}

// Validation reports label-file quality: how many records carry every
// required field, and per-field completeness counts.
type Validation struct {
	TotalRecords      int
	ValidRecords      int
	FailedRecords     int
	FieldCompleteness map[string]int
}

// RequiredFields lists the fields a record must fill to count as valid.
func RequiredFields() []string { return append([]string(nil), requiredFields...) }

// ImportantFields lists the optional fields tracked in completeness stats.
func ImportantFields() []string { return append([]string(nil), importantFields...) }

// ValidateLabels loads a JSONL label file and checks field completeness.
// Records carrying an error are counted but never valid.
func ValidateLabels(path string) (*Validation, error) {
	records, err := ReadRecords(path)
	if err != nil {
		return nil, err
	}
	return ValidateRecords(records), nil
}

// ValidateRecords checks field completeness across already-loaded records.
func ValidateRecords(records []*Record) *Validation {
	v := &Validation{
		TotalRecords:      len(records),
		FieldCompleteness: make(map[string]int, len(requiredFields)+len(importantFields)),
	}
	for _, f := range requiredFields {
		v.FieldCompleteness[f] = 0
	}
	for _, f := range importantFields {
		v.FieldCompleteness[f] = 0
	}

	for _, rec := range records {
		if rec.Failed() {
			v.FailedRecords++
			continue
		}

		valid := true
		for _, f := range requiredFields {
			if fieldPresent(rec, f) {
				v.FieldCompleteness[f]++
			} else {
				valid = false
			}
		}
		for _, f := range importantFields {
			if fieldPresent(rec, f) {
				v.FieldCompleteness[f]++
			}
		}
		if valid {
			v.ValidRecords++
		}
	}
	return v
}

// Fields every usable extraction record must carry.
var requiredExtractionFields = []string{
	"document_type",
	"language",
	"currency",
	"total_amount",
	"vendor_name",
	"invoice_number",
	"invoice_date",
}

// Extraction fields that are optional but tracked for completeness.
var optionalExtractionFields = []string{
	"tax_amount",
	"customer_name",
	"items",
	"tax_details",
	"addresses",
	"payment_terms",
	"confidence_score",
}

// RequiredExtractionFields lists the fields an extraction must fill to
// count as valid.
func RequiredExtractionFields() []string {
	return append([]string(nil), requiredExtractionFields...)
}

// ValidateExtractionFile loads a JSONL extraction file and checks field
// completeness. Records carrying an error are counted but never valid.
func ValidateExtractionFile(path string) (*Validation, error) {
	exts, err := ReadExtractions(path)
	if err != nil {
		return nil, err
	}
	return ValidateExtractions(exts), nil
}

// ValidateExtractions checks field completeness across already-loaded
// extraction records.
func ValidateExtractions(exts []*Extraction) *Validation {
	v := &Validation{
		TotalRecords:      len(exts),
		FieldCompleteness: make(map[string]int, len(requiredExtractionFields)+len(optionalExtractionFields)),
	}
	for _, f := range requiredExtractionFields {
		v.FieldCompleteness[f] = 0
	}
	for _, f := range optionalExtractionFields {
		v.FieldCompleteness[f] = 0
	}

	for _, ext := range exts {
		if ext.Failed() {
			v.FailedRecords++
			continue
		}

		valid := true
		for _, f := range requiredExtractionFields {
			if extractionFieldPresent(ext, f) {
				v.FieldCompleteness[f]++
			} else {
				valid = false
			}
		}
		for _, f := range optionalExtractionFields {
			if extractionFieldPresent(ext, f) {
				v.FieldCompleteness[f]++
			}
		}
		if valid {
			v.ValidRecords++
		}
	}
	return v
}

func extractionFieldPresent(ext *Extraction, field string) bool {
	switch field {
	case "document_type":
		return ext.DocumentType != ""
	case "language":
		return ext.Language != ""
	case "currency":
		return ext.Currency != ""
	case "total_amount":
		return ext.TotalAmount != ""
	case "tax_amount":
		return ext.TaxAmount != ""
	case "vendor_name":
		return ext.VendorName != ""
	case "customer_name":
		return ext.CustomerName != ""
	case "invoice_number":
		return ext.InvoiceNumber != ""
	case "invoice_date":
		return ext.InvoiceDate != ""
	case "items":
		return len(ext.Items) > 0
	case "tax_details":
		return ext.TaxDetails != nil
	case "addresses":
		return ext.Addresses != nil
	case "payment_terms":
		return ext.PaymentTerms != ""
	case "confidence_score":
		return ext.ConfidenceScore > 0
	default:
		return false
	}
}

func fieldPresent(rec *Record, field string) bool {
	switch field {
	case "document_category":
		return rec.DocumentCategory != ""
	case "document_subcategory":
		return rec.DocumentSubcategory != ""
	case "language_primary":
		return rec.LanguagePrimary != ""
	case "text_clarity":
		return rec.TextClarity != ""
	case "image_quality":
		return rec.ImageQuality != ""
	case "ocr_difficulty":
		return rec.OCRDifficulty != ""
	case "sensitive_data_types":
		return len(rec.SensitiveDataTypes) > 0
	case "testing_scenarios":
		return len(rec.TestingScenarios) > 0
	case "challenge_factors":
		return len(rec.ChallengeFactors) > 0
	default:
		return false
	}
}
