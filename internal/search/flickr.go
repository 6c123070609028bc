package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/Jackmeson1/ocrdlp-lab/internal/fetch"
)

const flickrBaseURL = "https://api.flickr.com/services/rest/"

// Flickr queries the Flickr photo search REST API.
type Flickr struct {
	APIKey  string
	BaseURL string
	Client  *fetch.Client
}

// NewFlickr builds a Flickr provider with the API key from FLICKR_KEY.
func NewFlickr(client *fetch.Client) *Flickr {
	return &Flickr{APIKey: keyFromEnv(EngineFlickr), Client: client}
}

// Name implements Provider.
func (f *Flickr) Name() string { return string(EngineFlickr) }

// Search implements Provider. Flickr's API returns photo identifiers; the
// direct image URL is assembled from farm, server, id and secret.
func (f *Flickr) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if f.APIKey == "" {
		slog.Warn("search: FLICKR_KEY not set, skipping flickr")
		return nil, nil
	}
	base := f.BaseURL
	if base == "" {
		base = flickrBaseURL
	}
	client := f.Client
	if client == nil {
		client = &fetch.Client{}
	}

	params := url.Values{
		"method":         {"flickr.photos.search"},
		"api_key":        {f.APIKey},
		"text":           {query},
		"format":         {"json"},
		"nojsoncallback": {"1"},
		"per_page":       {strconv.Itoa(capLimit(limit, 100))},
		"media":          {"photos"},
	}
	var resp struct {
		Photos struct {
			Photo []struct {
				ID     string `json:"id"`
				Secret string `json:"secret"`
				Server string `json:"server"`
				Farm   int    `json:"farm"`
			} `json:"photo"`
		} `json:"photos"`
	}
	if err := client.GetJSON(ctx, base+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("flickr: %w", err)
	}

	urls := make([]string, 0, len(resp.Photos.Photo))
	for _, p := range resp.Photos.Photo {
		urls = append(urls, fmt.Sprintf("https://farm%d.staticflickr.com/%s/%s_%s_b.jpg",
			p.Farm, p.Server, p.ID, p.Secret))
		if len(urls) >= limit {
			break
		}
	}
	return urls, nil
}
