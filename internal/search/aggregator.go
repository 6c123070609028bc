package search

import (
	"context"
	"log/slog"

	"github.com/Jackmeson1/ocrdlp-lab/internal/fetch"
)

// Aggregator fans a query out to one or more providers and merges the
// returned URL lists.
type Aggregator struct {
	providers []Provider
}

// NewAggregator builds an aggregator over the given providers.
func NewAggregator(providers ...Provider) *Aggregator {
	return &Aggregator{providers: providers}
}

// FromEnv builds an aggregator for the named engine with API keys from the
// environment. EngineMixed uses every provider; their per-call limits split
// evenly.
func FromEnv(engine Engine, client *fetch.Client) (*Aggregator, error) {
	switch engine {
	case EngineSerper:
		return NewAggregator(NewSerper(client)), nil
	case EngineSerpAPI:
		return NewAggregator(NewSerpAPI(client)), nil
	case EngineUnsplash:
		return NewAggregator(NewUnsplash(client)), nil
	case EngineFlickr:
		return NewAggregator(NewFlickr(client)), nil
	case EngineMixed:
		return NewAggregator(
			NewSerper(client),
			NewUnsplash(client),
			NewSerpAPI(client),
			NewFlickr(client),
		), nil
	default:
		_, err := ParseEngine(string(engine))
		return nil, err
	}
}

// Providers returns the configured provider list.
func (a *Aggregator) Providers() []Provider { return a.providers }

// Search queries every provider and merges the results, de-duplicated in
// first-seen order and capped at limit. Each provider gets an even share of
// the limit when more than one is configured. A failing provider is logged
// and contributes nothing; it never fails the aggregate call.
func (a *Aggregator) Search(ctx context.Context, query string, limit int) []string {
	if len(a.providers) == 0 || limit <= 0 {
		return nil
	}

	perProvider := limit
	if len(a.providers) > 1 {
		perProvider = limit / len(a.providers)
		if perProvider == 0 {
			perProvider = 1
		}
	}

	seen := make(map[string]bool)
	var merged []string

	for _, p := range a.providers {
		urls, err := p.Search(ctx, query, perProvider)
		if err != nil {
			slog.Warn("search: provider failed", "provider", p.Name(), "error", err.Error())
			continue
		}
		slog.Debug("search: provider results", "provider", p.Name(), "count", len(urls))
		for _, u := range urls {
			if u == "" || seen[u] {
				continue
			}
			seen[u] = true
			merged = append(merged, u)
			if len(merged) >= limit {
				return merged
			}
		}
	}

	return merged
}
