package crawler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Jackmeson1/ocrdlp-lab/internal/search"
	"github.com/Jackmeson1/ocrdlp-lab/internal/store"
)

// Crawler composes the search aggregator and the bounded downloader into a
// single "keywords in, saved files out" operation. It owns the lifecycle of
// its collaborators for the duration of one crawl: the caller constructs
// them, the crawler flushes the duplicate index via Downloader.Index at the
// end of the run.
type Crawler struct {
	Aggregator *search.Aggregator
	Downloader *Downloader
	// History is optional; a nil or failing store never fails the crawl.
	History *store.CrawlStore
	Engine  search.Engine
}

// Report summarizes one crawl.
type Report struct {
	// Results maps source URL to saved local path for every kept image.
	Results   map[string]string
	URLsFound int
	Stats     Stats
}

// Crawl searches every keyword, merges the URL lists, caps them at
// maxImages, and downloads the result. An empty keyword list is a
// configuration error; an empty download result is reported through the
// stats, not an error.
func (c *Crawler) Crawl(ctx context.Context, keywords []string, maxImages int) (*Report, error) {
	if len(keywords) == 0 {
		return nil, errors.New("crawler: no keywords given")
	}
	if maxImages <= 0 {
		return nil, errors.New("crawler: maxImages must be positive")
	}

	started := time.Now()
	perKeyword := maxImages / len(keywords)
	if perKeyword == 0 {
		perKeyword = 1
	}

	slog.Info("crawler: starting crawl",
		"keywords", len(keywords),
		"max_images", maxImages,
		"per_keyword", perKeyword)

	seen := make(map[string]bool)
	var urls []string
	for _, kw := range keywords {
		found := c.Aggregator.Search(ctx, kw, perKeyword)
		slog.Info("crawler: keyword searched", "keyword", kw, "urls", len(found))
		for _, u := range found {
			if seen[u] {
				continue
			}
			seen[u] = true
			urls = append(urls, u)
		}
	}
	if len(urls) > maxImages {
		urls = urls[:maxImages]
	}

	results, stats := c.Downloader.Download(ctx, urls)

	report := &Report{
		Results:   results,
		URLsFound: len(urls),
		Stats:     stats,
	}

	if c.History != nil {
		rec := store.CrawlRecord{
			StartedAt:         started,
			Keywords:          keywords,
			Engine:            string(c.Engine),
			URLsFound:         report.URLsFound,
			Kept:              stats.Kept,
			RejectedFilter:    stats.RejectedFilter,
			RejectedDuplicate: stats.RejectedDuplicate,
			Failed:            stats.Failed,
		}
		if err := c.History.Record(ctx, rec); err != nil {
			slog.Warn("crawler: cannot record crawl history", "error", err.Error())
		}
	}

	return report, nil
}
