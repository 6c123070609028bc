package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Jackmeson1/ocrdlp-lab/internal/search"
	"github.com/Jackmeson1/ocrdlp-lab/internal/store"
)

// stubProvider mimics a search backend for orchestrator tests.
type stubProvider struct {
	urls []string
}

func (s *stubProvider) Name() string { return "stub" }
func (s *stubProvider) Search(context.Context, string, int) ([]string, error) {
	return s.urls, nil
}

func TestCrawlEndToEnd(t *testing.T) {
	t.Parallel()

	good := testJPEG(t, 500, 500, 0)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "u2") {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(good)
	}))
	defer srv.Close()

	u1 := srv.URL + "/u1.jpg"
	u2 := srv.URL + "/u2.jpg"

	c := &Crawler{
		Aggregator: search.NewAggregator(&stubProvider{urls: []string{u1, u2}}),
		Downloader: &Downloader{
			OutputDir: t.TempDir(),
			Client:    srv.Client(),
			Filter:    relaxedFilter(),
		},
	}

	report, err := c.Crawl(context.Background(), []string{"invoice"}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.URLsFound != 2 {
		t.Errorf("URLsFound = %d, want 2", report.URLsFound)
	}
	if len(report.Results) != 1 {
		t.Fatalf("results = %v, want exactly one entry", report.Results)
	}
	if _, ok := report.Results[u1]; !ok {
		t.Errorf("results missing u1: %v", report.Results)
	}
}

func TestCrawlRejectsEmptyKeywords(t *testing.T) {
	t.Parallel()

	c := &Crawler{Aggregator: search.NewAggregator(), Downloader: &Downloader{OutputDir: t.TempDir()}}
	if _, err := c.Crawl(context.Background(), nil, 10); err == nil {
		t.Error("expected error for empty keyword list")
	}
}

func TestCrawlCapsURLsAtMaxImages(t *testing.T) {
	t.Parallel()

	good := testJPEG(t, 400, 400, 0)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(good)
	}))
	defer srv.Close()

	urls := make([]string, 8)
	for i := range urls {
		urls[i] = srv.URL + "/img" + string(rune('a'+i)) + ".jpg"
	}

	c := &Crawler{
		Aggregator: search.NewAggregator(&stubProvider{urls: urls}),
		Downloader: &Downloader{
			OutputDir: t.TempDir(),
			Client:    srv.Client(),
			Filter:    relaxedFilter(),
		},
	}

	report, err := c.Crawl(context.Background(), []string{"invoice"}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.URLsFound != 3 {
		t.Errorf("URLsFound = %d, want capped at 3", report.URLsFound)
	}
}

func TestCrawlRecordsHistory(t *testing.T) {
	t.Parallel()

	good := testJPEG(t, 400, 400, 0)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(good)
	}))
	defer srv.Close()

	hist, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer hist.Close()

	c := &Crawler{
		Aggregator: search.NewAggregator(&stubProvider{urls: []string{srv.URL + "/a.jpg"}}),
		Downloader: &Downloader{
			OutputDir: t.TempDir(),
			Client:    srv.Client(),
			Filter:    relaxedFilter(),
		},
		History: hist,
		Engine:  search.EngineSerper,
	}

	if _, err := c.Crawl(context.Background(), []string{"receipt"}, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := hist.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("history records = %d, want 1", len(records))
	}
	if records[0].Engine != "serper" || records[0].Kept != 1 {
		t.Errorf("record = %+v", records[0])
	}
}
