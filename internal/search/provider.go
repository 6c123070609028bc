// Package search fans image queries out to external search providers and
// merges the returned URL lists.
package search

import (
	"context"
	"fmt"
	"os"
)

// Provider is a single image search backend returning direct image URLs.
type Provider interface {
	// Search returns up to limit image URLs for query.
	Search(ctx context.Context, query string, limit int) ([]string, error)
	// Name identifies the provider in logs.
	Name() string
}

// Engine selects which provider(s) an Aggregator uses.
type Engine string

const (
	EngineSerper   Engine = "serper"
	EngineSerpAPI  Engine = "serpapi"
	EngineUnsplash Engine = "unsplash"
	EngineFlickr   Engine = "flickr"
	// EngineMixed fans out to every provider and merges the results.
	EngineMixed Engine = "mixed"
)

// Engines lists all valid engine names.
var Engines = []Engine{EngineSerper, EngineSerpAPI, EngineUnsplash, EngineFlickr, EngineMixed}

// ParseEngine validates an engine name from the CLI. An unknown name is a
// hard configuration error, unlike per-provider search failures.
func ParseEngine(s string) (Engine, error) {
	for _, e := range Engines {
		if Engine(s) == e {
			return e, nil
		}
	}
	return "", fmt.Errorf("search: unsupported engine %q (valid: serper, serpapi, unsplash, flickr, mixed)", s)
}

// APIKeyVar returns the environment variable holding the engine's API key.
// Mixed has no single key; every provider checks its own.
func (e Engine) APIKeyVar() string {
	switch e {
	case EngineSerper:
		return "SERPER_API_KEY"
	case EngineSerpAPI:
		return "SERPAPI_KEY"
	case EngineUnsplash:
		return "UNSPLASH_ACCESS_KEY"
	case EngineFlickr:
		return "FLICKR_KEY"
	default:
		return ""
	}
}

// keyFromEnv reads the provider API key, returning "" when unset.
func keyFromEnv(e Engine) string {
	if v := e.APIKeyVar(); v != "" {
		return os.Getenv(v)
	}
	return ""
}

func capLimit(limit, apiMax int) int {
	if limit > apiMax {
		return apiMax
	}
	return limit
}
