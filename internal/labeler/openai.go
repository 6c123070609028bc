package labeler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Jackmeson1/ocrdlp-lab/internal/fetch"
	"github.com/Jackmeson1/ocrdlp-lab/internal/imgfilter"
	"github.com/Jackmeson1/ocrdlp-lab/internal/meta"
)

const (
	defaultChatURL = "https://api.openai.com/v1/chat/completions"
	defaultModel   = "gpt-4o"
)

// classifyPrompt asks the model for the full label schema as bare JSON.
const classifyPrompt = `Please classify this image for OCR_DLP system performance testing. Return classification labels in JSON format:

{
    "document_category": "Main document type (e.g., invoice, receipt, identity_card, passport, driver_license, bank_card, contract, certificate, etc.)",
    "document_subcategory": "Document subcategory (e.g., GST_invoice, commercial_invoice, restaurant_receipt, taxi_receipt, id_card_front, id_card_back, etc.)",
    "language_primary": "Primary language (e.g., English, Chinese, Hindi, Tamil, Arabic, Portuguese, Spanish, etc.)",
    "language_secondary": "Secondary language (if multilingual document)",
    "text_density": "Text density (dense/medium/sparse)",
    "text_clarity": "Text clarity (clear/blurry/partially_blurry)",
    "image_quality": "Image quality (high/medium/low)",
    "orientation": "Image orientation (upright/rotated_90/rotated_180/rotated_270/skewed)",
    "background_complexity": "Background complexity (simple/medium/complex)",
    "ocr_difficulty": "OCR difficulty level (easy/medium/hard/very_hard)",
    "sensitive_data_types": ["List of sensitive data types (e.g., name, id_number, bank_account, address, phone, etc.)"],
    "layout_type": "Layout type (table/list/paragraph/mixed/handwritten)",
    "special_features": ["Special features (e.g., watermark, stamp, signature, barcode, qr_code, logo, etc.)"],
    "testing_scenarios": ["Applicable testing scenarios (e.g., identity_verification, financial_audit, compliance_check, data_extraction, etc.)"],
    "challenge_factors": ["Challenge factors (e.g., small_font, background_noise, uneven_lighting, skewed, blurry, multilingual, etc.)"],
    "confidence_score": "Classification confidence (0-1)",
    "recommended_preprocessing": ["Recommended preprocessing steps (e.g., denoising, correction, contrast_enhancement, etc.)"]
}

Please ensure:
1. Classifications are precise and specific for OCR_DLP system performance evaluation
2. Identify all factors that may affect OCR performance
3. Provide practical testing scenario suggestions
4. If unable to determine a field, set it to null
5. Return only JSON, no other explanatory text
6. Use English for all field values`

// OpenAIVision classifies images through the OpenAI chat completions API
// using a multimodal model.
type OpenAIVision struct {
	APIKey  string
	BaseURL string // overridable in tests
	ModelID string
	Client  *fetch.Client
}

// NewOpenAIVision builds a classifier from the OPENAI_API_KEY environment
// variable. A missing key yields a nil classifier and a warning, so callers
// can skip classification instead of failing.
func NewOpenAIVision(client *fetch.Client) *OpenAIVision {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		slog.Warn("OPENAI_API_KEY not set, classification disabled")
		return nil
	}
	if client == nil {
		client = &fetch.Client{
			HTTPClient: &http.Client{Timeout: 60 * time.Second},
		}
	}
	return &OpenAIVision{APIKey: apiKey, Client: client}
}

// Model returns the chat model identifier used for classification.
func (o *OpenAIVision) Model() string {
	if o.ModelID == "" {
		return defaultModel
	}
	return o.ModelID
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *TokenUsage `json:"usage"`
}

// Classify sends the image at imagePath to the vision model and parses the
// returned JSON into a Record. API and parse failures come back as a Record
// with Error set, not as a Go error; only unreadable input files fail hard.
func (o *OpenAIVision) Classify(ctx context.Context, imagePath string) (*Record, error) {
	data, err := os.ReadFile(imagePath) //nolint:gosec // caller-supplied path by design
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	md := &Metadata{
		ImagePath: imagePath,
		ImageInfo: inspectImage(imagePath),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Model:     o.Model(),
		Rights:    meta.Extract(data),
	}

	content, usage, err := o.complete(ctx, classifyPrompt, data, 1500)
	md.Usage = usage
	if err != nil {
		return &Record{Error: err.Error(), Metadata: md}, nil
	}

	rec, err := parseRecord(content)
	if err != nil {
		return &Record{
			Error:       fmt.Sprintf("JSON parse failed: %v", err),
			RawResponse: content,
			Metadata:    md,
		}, nil
	}
	rec.Metadata = md
	return rec, nil
}

// complete sends one image plus prompt through the chat completions API and
// returns the raw model content. Failures come back as plain errors for the
// caller to fold into its result record.
func (o *OpenAIVision) complete(ctx context.Context, prompt string, image []byte, maxTokens int) (string, *TokenUsage, error) {
	req := chatRequest{
		Model: o.Model(),
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageURL{
					URL:    "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image),
					Detail: "high",
				}},
			},
		}},
		MaxTokens:   maxTokens,
		Temperature: 0.1,
	}

	url := o.BaseURL
	if url == "" {
		url = defaultChatURL
	}
	headers := map[string]string{"Authorization": "Bearer " + o.APIKey}

	var resp chatResponse
	if err := o.Client.PostJSON(ctx, url, headers, req, &resp); err != nil {
		return "", nil, fmt.Errorf("API request failed: %v", err)
	}
	if len(resp.Choices) == 0 {
		return "", resp.Usage, errors.New("API response contained no choices")
	}
	return resp.Choices[0].Message.Content, resp.Usage, nil
}

// parseRecord extracts the JSON object from a model response, tolerating a
// fenced ```json block or surrounding prose.
func parseRecord(content string) (*Record, error) {
	var rec Record
	if err := json.Unmarshal([]byte(extractJSON(content)), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// extractJSON isolates the JSON payload of a model response: a fenced
// ```json block when present, else the outermost brace pair.
func extractJSON(content string) string {
	if i := strings.Index(content, "```json"); i >= 0 {
		rest := content[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
	} else if i := strings.Index(content, "{"); i >= 0 {
		if j := strings.LastIndex(content, "}"); j > i {
			return content[i : j+1]
		}
	}
	return content
}

// inspectImage collects basic image properties, signalling failures inline
// so a bad image never aborts classification.
func inspectImage(path string) *ImageInfo {
	info, err := imgfilter.Inspect(path)
	if err != nil {
		return &ImageInfo{Error: err.Error()}
	}
	return &ImageInfo{
		Width:     info.Width,
		Height:    info.Height,
		Format:    info.Format,
		SizeBytes: info.FileBytes,
	}
}
