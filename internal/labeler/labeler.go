// Package labeler classifies document images through a vision LLM and
// manages the resulting JSONL label files. Labels describe the properties
// that matter for OCR and data-loss-prevention benchmarking: document type,
// language, clarity, layout, sensitive data content, and expected OCR
// difficulty.
package labeler

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Jackmeson1/ocrdlp-lab/internal/meta"
)

// Labeler produces a classification record for a single image file.
type Labeler interface {
	Classify(ctx context.Context, imagePath string) (*Record, error)
	Model() string
}

// Record is one classification result. Fields mirror the JSON the vision
// model is prompted to return; a failed classification carries Error and
// RawResponse instead.
type Record struct {
	DocumentCategory         string     `json:"document_category,omitempty"`
	DocumentSubcategory      string     `json:"document_subcategory,omitempty"`
	LanguagePrimary          string     `json:"language_primary,omitempty"`
	LanguageSecondary        string     `json:"language_secondary,omitempty"`
	TextDensity              string     `json:"text_density,omitempty"`
	TextClarity              string     `json:"text_clarity,omitempty"`
	ImageQuality             string     `json:"image_quality,omitempty"`
	Orientation              string     `json:"orientation,omitempty"`
	BackgroundComplexity     string     `json:"background_complexity,omitempty"`
	OCRDifficulty            string     `json:"ocr_difficulty,omitempty"`
	SensitiveDataTypes       []string   `json:"sensitive_data_types,omitempty"`
	LayoutType               string     `json:"layout_type,omitempty"`
	SpecialFeatures          []string   `json:"special_features,omitempty"`
	TestingScenarios         []string   `json:"testing_scenarios,omitempty"`
	ChallengeFactors         []string   `json:"challenge_factors,omitempty"`
	ConfidenceScore          Confidence `json:"confidence_score,omitempty"`
	RecommendedPreprocessing []string   `json:"recommended_preprocessing,omitempty"`

	Error       string `json:"error,omitempty"`
	RawResponse string `json:"raw_response,omitempty"`

	Metadata *Metadata `json:"_metadata,omitempty"`
	FileInfo *FileInfo `json:"_file_info,omitempty"`
}

// Metadata records how and from what the classification was produced.
type Metadata struct {
	ImagePath string       `json:"image_path"`
	ImageInfo *ImageInfo   `json:"image_info,omitempty"`
	Timestamp string       `json:"classification_timestamp,omitempty"`
	Model     string       `json:"model_used,omitempty"`
	Usage     *TokenUsage  `json:"api_response_tokens,omitempty"`
	Rights    *meta.Rights `json:"rights,omitempty"`
}

// ImageInfo holds basic pixel and file properties of the classified image.
type ImageInfo struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
	SizeBytes int64  `json:"size_bytes"`
	Error     string `json:"error,omitempty"`
}

// FileInfo identifies the source file within a batch run.
type FileInfo struct {
	Filename        string `json:"filename"`
	FilePath        string `json:"file_path"`
	ProcessingOrder int    `json:"processing_order"`
}

// TokenUsage mirrors the usage block of a chat completion response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Failed reports whether the record represents a failed classification.
func (r *Record) Failed() bool { return r.Error != "" }

// Confidence is a 0..1 score that tolerates being serialized as either a
// JSON number or a quoted string, since vision models emit both.
type Confidence float64

// UnmarshalJSON accepts 0.95, "0.95", and null.
func (c *Confidence) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*c = 0
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	if s == "" {
		*c = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("confidence_score: %w", err)
	}
	*c = Confidence(v)
	return nil
}

// MarshalJSON emits the score as a plain number, omitting trailing noise.
func (c Confidence) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(c))
}
