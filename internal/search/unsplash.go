package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/Jackmeson1/ocrdlp-lab/internal/fetch"
)

const unsplashBaseURL = "https://api.unsplash.com/search/photos"

// Unsplash queries the Unsplash photo search API.
type Unsplash struct {
	AccessKey string
	BaseURL   string
	Client    *fetch.Client
}

// NewUnsplash builds an Unsplash provider with the key from UNSPLASH_ACCESS_KEY.
func NewUnsplash(client *fetch.Client) *Unsplash {
	return &Unsplash{AccessKey: keyFromEnv(EngineUnsplash), Client: client}
}

// Name implements Provider.
func (u *Unsplash) Name() string { return string(EngineUnsplash) }

// Search implements Provider. The Unsplash API caps per_page at 30.
func (u *Unsplash) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if u.AccessKey == "" {
		slog.Warn("search: UNSPLASH_ACCESS_KEY not set, skipping unsplash")
		return nil, nil
	}
	base := u.BaseURL
	if base == "" {
		base = unsplashBaseURL
	}
	client := u.Client
	if client == nil {
		client = &fetch.Client{}
	}

	params := url.Values{
		"query":       {query},
		"per_page":    {strconv.Itoa(capLimit(limit, 30))},
		"orientation": {"all"},
	}
	headers := map[string]string{"Authorization": "Client-ID " + u.AccessKey}

	var resp struct {
		Results []struct {
			URLs struct {
				Regular string `json:"regular"`
			} `json:"urls"`
		} `json:"results"`
	}
	if err := client.GetJSON(ctx, base+"?"+params.Encode(), headers, &resp); err != nil {
		return nil, fmt.Errorf("unsplash: %w", err)
	}

	urls := make([]string, 0, len(resp.Results))
	for _, photo := range resp.Results {
		if photo.URLs.Regular == "" {
			continue
		}
		urls = append(urls, photo.URLs.Regular)
		if len(urls) >= limit {
			break
		}
	}
	return urls, nil
}
