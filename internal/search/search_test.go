package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Jackmeson1/ocrdlp-lab/internal/fetch"
)

func TestParseEngine(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"serper", "serpapi", "unsplash", "flickr", "mixed"} {
		if _, err := ParseEngine(name); err != nil {
			t.Errorf("ParseEngine(%q) failed: %v", name, err)
		}
	}
	if _, err := ParseEngine("bing"); err == nil {
		t.Error("expected error for unknown engine")
	}
}

func TestSerperSearch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "k" {
			t.Error("missing X-API-KEY header")
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["q"] != "aadhaar card" {
			t.Errorf("query = %v", body["q"])
		}
		_, _ = w.Write([]byte(`{"images": [
			{"imageUrl": "https://img.example/1.jpg"},
			{"link": "https://img.example/2.jpg"},
			{}
		]}`))
	}))
	defer srv.Close()

	p := &Serper{APIKey: "k", BaseURL: srv.URL, Client: &fetch.Client{HTTPClient: srv.Client()}}
	urls, err := p.Search(context.Background(), "aadhaar card", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"https://img.example/1.jpg", "https://img.example/2.jpg"}
	if len(urls) != len(want) || urls[0] != want[0] || urls[1] != want[1] {
		t.Errorf("urls = %v, want %v", urls, want)
	}
}

func TestSerperMissingKeyIsEmptyNotError(t *testing.T) {
	t.Parallel()

	p := &Serper{}
	urls, err := p.Search(context.Background(), "q", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if urls != nil {
		t.Errorf("urls = %v, want nil", urls)
	}
}

func TestSerpAPISearch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("engine") != "google_images" || q.Get("api_key") != "k" {
			t.Errorf("unexpected query params: %v", q)
		}
		_, _ = w.Write([]byte(`{"images_results": [{"original": "https://img.example/a.png"}]}`))
	}))
	defer srv.Close()

	p := &SerpAPI{APIKey: "k", BaseURL: srv.URL, Client: &fetch.Client{HTTPClient: srv.Client()}}
	urls, err := p.Search(context.Background(), "invoice", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(urls) != 1 || urls[0] != "https://img.example/a.png" {
		t.Errorf("urls = %v", urls)
	}
}

func TestUnsplashSearchCapsPerPage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("per_page"); got != "30" {
			t.Errorf("per_page = %s, want 30", got)
		}
		if got := r.Header.Get("Authorization"); got != "Client-ID k" {
			t.Errorf("Authorization = %q", got)
		}
		_, _ = w.Write([]byte(`{"results": [{"urls": {"regular": "https://img.example/u.jpg"}}]}`))
	}))
	defer srv.Close()

	p := &Unsplash{AccessKey: "k", BaseURL: srv.URL, Client: &fetch.Client{HTTPClient: srv.Client()}}
	urls, err := p.Search(context.Background(), "receipt", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(urls) != 1 || urls[0] != "https://img.example/u.jpg" {
		t.Errorf("urls = %v", urls)
	}
}

func TestFlickrSearchBuildsFarmURLs(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("method"); got != "flickr.photos.search" {
			t.Errorf("method = %s", got)
		}
		_, _ = w.Write([]byte(`{"photos": {"photo": [
			{"id": "123", "secret": "abc", "server": "65535", "farm": 66}
		]}}`))
	}))
	defer srv.Close()

	p := &Flickr{APIKey: "k", BaseURL: srv.URL, Client: &fetch.Client{HTTPClient: srv.Client()}}
	urls, err := p.Search(context.Background(), "passport", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://farm66.staticflickr.com/65535/123_abc_b.jpg"
	if len(urls) != 1 || urls[0] != want {
		t.Errorf("urls = %v, want [%s]", urls, want)
	}
}

// stubProvider returns fixed URLs or an error.
type stubProvider struct {
	name string
	urls []string
	err  error
}

func (s *stubProvider) Name() string { return s.name }
func (s *stubProvider) Search(context.Context, string, int) ([]string, error) {
	return s.urls, s.err
}

func TestAggregatorMergesAndDeduplicates(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(
		&stubProvider{name: "a", urls: []string{"u1", "u2"}},
		&stubProvider{name: "b", urls: []string{"u2", "u3"}},
	)

	urls := agg.Search(context.Background(), "q", 10)
	want := []string{"u1", "u2", "u3"}
	if len(urls) != len(want) {
		t.Fatalf("urls = %v, want %v", urls, want)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %s, want %s (first-seen order)", i, urls[i], want[i])
		}
	}
}

func TestAggregatorProviderFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(
		&stubProvider{name: "broken", err: errors.New("api down")},
		&stubProvider{name: "ok", urls: []string{"u1"}},
	)

	urls := agg.Search(context.Background(), "q", 10)
	if len(urls) != 1 || urls[0] != "u1" {
		t.Errorf("urls = %v, want [u1]", urls)
	}
}

func TestAggregatorRespectsLimit(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(&stubProvider{name: "a", urls: []string{"u1", "u2", "u3", "u4"}})
	urls := agg.Search(context.Background(), "q", 2)
	if len(urls) != 2 {
		t.Errorf("len = %d, want 2", len(urls))
	}
}

func TestFromEnvMixedUsesAllProviders(t *testing.T) {
	agg, err := FromEnv(EngineMixed, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(agg.Providers()); got != 4 {
		t.Errorf("providers = %d, want 4", got)
	}

	if _, err := FromEnv(Engine("bing"), nil); err == nil {
		t.Error("expected error for unknown engine")
	}
}
