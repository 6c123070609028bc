package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jackmeson1/ocrdlp-lab/internal/fetch"
)

const serperBaseURL = "https://google.serper.dev/images"

// Serper queries the Serper.dev Google Images API.
type Serper struct {
	APIKey  string
	BaseURL string // override for tests; default serperBaseURL
	Client  *fetch.Client
}

// NewSerper builds a Serper provider with the API key from SERPER_API_KEY.
func NewSerper(client *fetch.Client) *Serper {
	return &Serper{APIKey: keyFromEnv(EngineSerper), Client: client}
}

// Name implements Provider.
func (s *Serper) Name() string { return string(EngineSerper) }

// Search implements Provider. A missing API key is logged and contributes an
// empty result rather than an error, so sibling providers still run.
func (s *Serper) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if s.APIKey == "" {
		slog.Warn("search: SERPER_API_KEY not set, skipping serper")
		return nil, nil
	}
	base := s.BaseURL
	if base == "" {
		base = serperBaseURL
	}
	client := s.Client
	if client == nil {
		client = &fetch.Client{}
	}

	payload := map[string]any{
		"q":   query,
		"num": capLimit(limit, 100),
	}
	var resp struct {
		Images []struct {
			ImageURL string `json:"imageUrl"`
			Link     string `json:"link"`
		} `json:"images"`
	}
	if err := client.PostJSON(ctx, base, map[string]string{"X-API-KEY": s.APIKey}, payload, &resp); err != nil {
		return nil, fmt.Errorf("serper: %w", err)
	}

	urls := make([]string, 0, len(resp.Images))
	for _, img := range resp.Images {
		switch {
		case img.ImageURL != "":
			urls = append(urls, img.ImageURL)
		case img.Link != "":
			urls = append(urls, img.Link)
		}
		if len(urls) >= limit {
			break
		}
	}
	return urls, nil
}
