package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/Jackmeson1/ocrdlp-lab/internal/fetch"
)

const serpAPIBaseURL = "https://serpapi.com/search"

// SerpAPI queries Google Images through serpapi.com.
type SerpAPI struct {
	APIKey  string
	BaseURL string
	Client  *fetch.Client
}

// NewSerpAPI builds a SerpAPI provider with the API key from SERPAPI_KEY.
func NewSerpAPI(client *fetch.Client) *SerpAPI {
	return &SerpAPI{APIKey: keyFromEnv(EngineSerpAPI), Client: client}
}

// Name implements Provider.
func (s *SerpAPI) Name() string { return string(EngineSerpAPI) }

// Search implements Provider.
func (s *SerpAPI) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if s.APIKey == "" {
		slog.Warn("search: SERPAPI_KEY not set, skipping serpapi")
		return nil, nil
	}
	base := s.BaseURL
	if base == "" {
		base = serpAPIBaseURL
	}
	client := s.Client
	if client == nil {
		client = &fetch.Client{}
	}

	params := url.Values{
		"engine":  {"google_images"},
		"q":       {query},
		"api_key": {s.APIKey},
		"num":     {strconv.Itoa(capLimit(limit, 100))},
		"safe":    {"off"},
	}
	var resp struct {
		ImagesResults []struct {
			Original string `json:"original"`
		} `json:"images_results"`
	}
	if err := client.GetJSON(ctx, base+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("serpapi: %w", err)
	}

	urls := make([]string, 0, len(resp.ImagesResults))
	for _, img := range resp.ImagesResults {
		if img.Original == "" {
			continue
		}
		urls = append(urls, img.Original)
		if len(urls) >= limit {
			break
		}
	}
	return urls, nil
}
